package core

// links_csv.go reads (title, url) records from spreadsheet exports.
//
// Exports from Excel and similar tools often start with a UTF-8 BOM, carry
// stray invalid bytes, put a few banner rows above the header and wrap
// values as ="...". The reader below strips the BOM, replaces invalid bytes
// and looks for the header row within the first MaxHeaderSearchRows rows.

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// MaxHeaderSearchRows is how many leading rows may precede the header.
const MaxHeaderSearchRows = 20

var (
	titleAliases = []string{"title", "name"}
	urlAliases   = []string{"url", "link", "href"}
)

// ParseLinksCSV reads records from a CSV whose header names a title column
// and a url column. Header matching is case-insensitive and accepts the
// configured field names as well as "title"/"url". Empty rows are skipped;
// incomplete rows are kept so the ingestor can account for them.
func ParseLinksCSV(r io.Reader, titleField, urlField string) ([]Record, error) {
	cr := csv.NewReader(newSanitizingReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	titleIdx, urlIdx := -1, -1
	seen := 0
	for titleIdx < 0 || urlIdx < 0 {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			if seen == 0 {
				return nil, errors.New("empty file")
			}
			return nil, fmt.Errorf("missing required column: need %q and %q headers", titleField, urlField)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		seen++
		if seen > MaxHeaderSearchRows {
			return nil, fmt.Errorf("missing required column: no header within first %d rows", MaxHeaderSearchRows)
		}
		titleIdx = headerIndex(row, append([]string{titleField}, titleAliases...))
		urlIdx = headerIndex(row, append([]string{urlField}, urlAliases...))
	}

	records := []Record{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		if isEmptyRow(row) {
			continue
		}
		records = append(records, Record{
			Title: cellAt(row, titleIdx),
			URL:   cellAt(row, urlIdx),
		})
	}
	return records, nil
}

func headerIndex(row []string, names []string) int {
	for i, cell := range row {
		cell = CleanCell(cell)
		for _, name := range names {
			if name != "" && strings.EqualFold(cell, name) {
				return i
			}
		}
	}
	return -1
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return CleanCell(row[i])
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// CleanCell trims whitespace, unwraps Excel formula values (="x") and
// strips surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}
	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// sanitizingReader drops a leading UTF-8 BOM and replaces invalid UTF-8
// bytes with '?', one rune at a time.
type sanitizingReader struct {
	br         *bufio.Reader
	bomChecked bool
}

func newSanitizingReader(r io.Reader) *sanitizingReader {
	return &sanitizingReader{br: bufio.NewReader(r)}
}

func (s *sanitizingReader) Read(p []byte) (int, error) {
	if !s.bomChecked {
		s.bomChecked = true
		if b, err := s.br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
			s.br.Discard(3)
		}
	}

	n := 0
	for n+utf8.UTFMax <= len(p) {
		r, size, err := s.br.ReadRune()
		if err != nil {
			if n > 0 && errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, err
		}
		if r == utf8.RuneError && size == 1 {
			p[n] = '?'
			n++
			continue
		}
		n += utf8.EncodeRune(p[n:], r)
		if s.br.Buffered() == 0 && n > 0 {
			// Hand back what we have instead of blocking on the source.
			return n, nil
		}
	}
	if n == 0 {
		// p is smaller than a rune; fall back to a single byte.
		b, err := s.br.ReadByte()
		if err != nil {
			return 0, err
		}
		p[0] = b
		return 1, nil
	}
	return n, nil
}
