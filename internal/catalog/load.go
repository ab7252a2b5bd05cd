package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
)

// MaxSourceSize bounds how much of a catalog source is read.
var MaxSourceSize int64 = 16 * 1024 * 1024

// Format is the encoding of a catalog source.
type Format string

const (
	FormatJSON      Format = "json"
	FormatBookmarks Format = "bookmarks"
)

// Load reads a catalog from a local file or an http(s) URL.
// An empty source yields an empty catalog.
func Load(ctx context.Context, source string, client *http.Client) ([]Node, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return []Node{}, nil
	}

	data, err := readSource(ctx, source, client)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", source, err)
	}

	nodes, err := Parse(data, detectFormat(source, data))
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", source, err)
	}
	return nodes, nil
}

// Parse decodes data in the given format.
func Parse(data []byte, format Format) ([]Node, error) {
	switch format {
	case FormatJSON:
		return ParseJSON(data)
	case FormatBookmarks:
		return ParseBookmarks(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
}

// ParseJSON decodes either a list of nodes or a single root node.
func ParseJSON(data []byte) ([]Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []Node{}, nil
	}

	if data[0] == '{' {
		var root Node
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
		return []Node{root}, nil
	}

	var nodes []Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if nodes == nil {
		nodes = []Node{}
	}
	return nodes, nil
}

func readSource(ctx context.Context, source string, client *http.Client) ([]byte, error) {
	if !isRemote(source) {
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, MaxSourceSize))
	}

	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, MaxSourceSize))
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func detectFormat(source string, data []byte) Format {
	p := source
	if isRemote(source) {
		if u, err := url.Parse(source); err == nil {
			p = u.Path
		}
	}

	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return FormatJSON
	case ".html", ".htm":
		return FormatBookmarks
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON
	}
	return FormatBookmarks
}
