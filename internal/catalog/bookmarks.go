package catalog

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseBookmarks parses a browser bookmarks export (Netscape bookmark file
// format) into a catalog tree.
//
// Folders (<DT><H3>) become nodes with children and links (<DT><A HREF>)
// become leaves. Ids are derived from the position in the tree ("1", "1.2",
// "1.2.3") so they stay stable for an unchanged file.
func ParseBookmarks(r io.Reader) ([]Node, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	root := doc.Find("dl").First()
	if root.Length() == 0 {
		return nil, errors.New("bookmarks: no <DL> list found")
	}
	return parseList(root, ""), nil
}

func parseList(dl *goquery.Selection, prefix string) []Node {
	nodes := []Node{}
	dl.ChildrenFiltered("dt").Each(func(_ int, dt *goquery.Selection) {
		id := NodeID(strconv.Itoa(len(nodes) + 1))
		if prefix != "" {
			id = NodeID(prefix + "." + string(id))
		}

		if h3 := dt.ChildrenFiltered("h3").First(); h3.Length() > 0 {
			sub := dt.ChildrenFiltered("dl").First()
			if sub.Length() == 0 {
				// Some exporters close the <DT> before the nested list.
				sub = dt.NextFiltered("dl")
			}
			n := Node{ID: id, Name: normSpace(h3.Text())}
			if sub.Length() > 0 {
				n.Children = parseList(sub, string(id))
			}
			nodes = append(nodes, n)
			return
		}

		a := dt.ChildrenFiltered("a").First()
		if a.Length() == 0 {
			return
		}
		href, _ := a.Attr("href")
		name := normSpace(a.Text())
		if name == "" {
			name = strings.TrimSpace(href)
		}
		nodes = append(nodes, Node{ID: id, Name: name, URL: strings.TrimSpace(href)})
	})
	return nodes
}

func normSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
