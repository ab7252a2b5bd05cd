package core

// normalize.go parses loosely typed time values coming from table cells and
// renders them with day.js style patterns.
//
// Supported tokens:
//
//	YYYY  2024      YY  24
//	MMMM  January   MMM Jan    MM 01   M 1
//	DD    02        D   2
//	dddd  Tuesday   ddd Tue    dd Tu   d 2 (day of week, Sunday = 0)
//	HH    15        H   15     hh 03   h 3
//	mm    04        m   4
//	ss    05        s   5      SSS 000
//	A     PM        a   pm
//	ZZ    +0800     Z   +08:00
//
// Text inside square brackets is copied verbatim: "[Week of] YYYY-MM-DD".

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DefaultTimePattern is used when Format is called with an empty pattern.
const DefaultTimePattern = "YYYY-MM-DD HH:mm:ss"

// Layouts tried, in order, for string values. Layouts without a zone are
// interpreted in the normalizer's location. Anything they miss (single
// digit month or day, compact 20060102, other spellings) goes to dateparse.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999Z0700",
		"2006-01-02 15:04:05Z07:00",
		time.RFC1123Z,
		time.RFC1123,
		time.RFC822Z,
	}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006/01/02 15:04:05",
		"2006/01/02",
		"2006.01.02",
		"01/02/2006",
		"1/2/2006",
		"Jan 2, 2006",
		"January 2, 2006",
		"2 Jan 2006",
		"2006-01",
		"2006",
	}
)

// Normalizer turns table values into formatted time strings.
// The zero value formats in the value's own offset with DefaultTimePattern.
type Normalizer struct {
	// Location converts parsed values before formatting and interprets
	// zone-less strings. Nil keeps the parsed offset and uses time.Local
	// for zone-less strings.
	Location *time.Location

	// DefaultPattern replaces DefaultTimePattern when non-empty.
	DefaultPattern string

	Logger *slog.Logger
}

// Parse converts value to a time. Strings, time.Time values and numbers
// (Unix milliseconds) are accepted. ok is false for anything else,
// including nil and unparseable strings.
func (n Normalizer) Parse(value any) (t time.Time, ok bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case string:
		return n.parseString(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return n.fromMillis(f)
	case int:
		return n.fromMillis(float64(v))
	case int32:
		return n.fromMillis(float64(v))
	case int64:
		return n.fromMillis(float64(v))
	case float32:
		return n.fromMillis(float64(v))
	case float64:
		return n.fromMillis(v)
	}
	return time.Time{}, false
}

// Format parses value and renders it with pattern (DefaultPattern when
// empty). An unparseable value yields ok == false and no error. A pattern
// that cannot be rendered is logged and returned as an ErrFormat error.
func (n Normalizer) Format(value any, pattern string) (string, bool, error) {
	t, ok := n.Parse(value)
	if !ok {
		return "", false, nil
	}
	if n.Location != nil {
		t = t.In(n.Location)
	}
	if pattern == "" {
		pattern = n.pattern()
	}

	out, err := FormatTime(t, pattern)
	if err != nil {
		n.logger().Error("format time", "pattern", pattern, "error", err)
		return "", false, err
	}
	return out, true, nil
}

func (n Normalizer) pattern() string {
	if n.DefaultPattern != "" {
		return n.DefaultPattern
	}
	return DefaultTimePattern
}

func (n Normalizer) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}

func (n Normalizer) location() *time.Location {
	if n.Location != nil {
		return n.Location
	}
	return time.Local
}

func (n Normalizer) parseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	loc := n.location()
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	if t, err := dateparse.ParseIn(s, loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func (n Normalizer) fromMillis(ms float64) (time.Time, bool) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}, false
	}
	// Same range a JavaScript Date accepts.
	if math.Abs(ms) > 8.64e15 {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).In(n.location()), true
}

var formatTokens = []string{
	"YYYY", "MMMM", "dddd",
	"MMM", "ddd", "SSS",
	"YY", "MM", "DD", "dd", "HH", "hh", "mm", "ss", "ZZ",
	"M", "D", "d", "H", "h", "m", "s", "A", "a", "Z",
}

// FormatTime renders t with a day.js style pattern.
func FormatTime(t time.Time, pattern string) (string, error) {
	var b strings.Builder
	b.Grow(len(pattern) + 8)

	for i := 0; i < len(pattern); {
		if pattern[i] == '[' {
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				return "", fmt.Errorf("%w: unterminated '[' at offset %d in %q", ErrFormat, i, pattern)
			}
			b.WriteString(pattern[i+1 : i+1+end])
			i += end + 2
			continue
		}

		tok := matchToken(pattern[i:])
		if tok == "" {
			b.WriteByte(pattern[i])
			i++
			continue
		}
		b.WriteString(renderToken(t, tok))
		i += len(tok)
	}
	return b.String(), nil
}

func matchToken(s string) string {
	for _, tok := range formatTokens {
		if strings.HasPrefix(s, tok) {
			return tok
		}
	}
	return ""
}

func renderToken(t time.Time, tok string) string {
	switch tok {
	case "YYYY":
		return fmt.Sprintf("%04d", t.Year())
	case "YY":
		return fmt.Sprintf("%02d", abs(t.Year())%100)
	case "MMMM":
		return t.Month().String()
	case "MMM":
		return t.Month().String()[:3]
	case "MM":
		return fmt.Sprintf("%02d", int(t.Month()))
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "DD":
		return fmt.Sprintf("%02d", t.Day())
	case "D":
		return strconv.Itoa(t.Day())
	case "dddd":
		return t.Weekday().String()
	case "ddd":
		return t.Weekday().String()[:3]
	case "dd":
		return t.Weekday().String()[:2]
	case "d":
		return strconv.Itoa(int(t.Weekday()))
	case "HH":
		return fmt.Sprintf("%02d", t.Hour())
	case "H":
		return strconv.Itoa(t.Hour())
	case "hh":
		return fmt.Sprintf("%02d", hour12(t))
	case "h":
		return strconv.Itoa(hour12(t))
	case "mm":
		return fmt.Sprintf("%02d", t.Minute())
	case "m":
		return strconv.Itoa(t.Minute())
	case "ss":
		return fmt.Sprintf("%02d", t.Second())
	case "s":
		return strconv.Itoa(t.Second())
	case "SSS":
		return fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond))
	case "A":
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case "a":
		if t.Hour() < 12 {
			return "am"
		}
		return "pm"
	case "ZZ":
		return t.Format("-0700")
	case "Z":
		return t.Format("-07:00")
	}
	return tok
}

func hour12(t time.Time) int {
	h := t.Hour() % 12
	if h == 0 {
		return 12
	}
	return h
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ValueFromText interprets user-typed text for Format: an integer longer
// than four digits is taken as Unix milliseconds, anything else stays a
// string so "2024" still reads as a year and "20240102" as a compact date.
func ValueFromText(s string) any {
	s = strings.TrimSpace(s)
	digits := strings.TrimPrefix(s, "-")
	if len(digits) > 4 && !(len(s) == 8 && s == digits) && strings.Trim(digits, "0123456789") == "" {
		return json.Number(s)
	}
	return s
}
