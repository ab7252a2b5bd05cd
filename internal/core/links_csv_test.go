package core

import (
	"bytes"
	"io"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"
)

func TestParseLinksCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Record
		wantErr string
	}{
		{
			name:  "english headers",
			input: "title,url\nGo,https://go.dev\nRust,https://rust-lang.org\n",
			want:  []Record{{"Go", "https://go.dev"}, {"Rust", "https://rust-lang.org"}},
		},
		{
			name:  "configured headers in any order",
			input: "备注,网址,标题\nx,https://a.example,A\n",
			want:  []Record{{"A", "https://a.example"}},
		},
		{
			name:  "banner rows before header",
			input: "Export,2024-01-02\n\nTITLE,URL\nGo,https://go.dev\n",
			want:  []Record{{"Go", "https://go.dev"}},
		},
		{
			name:  "excel artifacts and empty rows",
			input: "Title,Link\n=\"Go\", https://go.dev \n,\n\"Blank\",\n",
			want:  []Record{{"Go", "https://go.dev"}, {"Blank", ""}},
		},
		{
			name:  "short rows",
			input: "url,title\nhttps://only-url.example\n",
			want:  []Record{{"", "https://only-url.example"}},
		},
		{
			name:  "header only",
			input: "title,url\n",
			want:  []Record{},
		},
		{name: "empty", input: "", wantErr: "empty file"},
		{name: "no header", input: "a,b\n1,2\n", wantErr: "missing required column"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLinksCSV(strings.NewReader(tt.input), DefaultTitleField, DefaultURLField)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLinksCSV() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseLinksCSV_HeaderTooFarDown(t *testing.T) {
	var b strings.Builder
	for i := 0; i < MaxHeaderSearchRows; i++ {
		b.WriteString("banner\n")
	}
	b.WriteString("title,url\nGo,https://go.dev\n")

	_, err := ParseLinksCSV(strings.NewReader(b.String()), "", "")
	if err == nil || !strings.Contains(err.Error(), "missing required column") {
		t.Errorf("err = %v, want missing required column", err)
	}
}

func TestParseLinksCSV_BOMAndInvalidUTF8(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("title,url\nCaf\xe9,https://cafe.example\n")...)

	got, err := ParseLinksCSV(bytes.NewReader(data), "", "")
	if err != nil {
		t.Fatalf("ParseLinksCSV() error = %v", err)
	}
	want := []Record{{"Caf?", "https://cafe.example"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSanitizingReader_SplitRunes(t *testing.T) {
	in := "标题,网址\n示例,https://例子.example\n"
	r := newSanitizingReader(iotest.OneByteReader(strings.NewReader(in)))

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(out) != in {
		t.Errorf("got %q, want %q", out, in)
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain  ", "plain"},
		{`="00123"`, "00123"},
		{"=SUM", "SUM"},
		{`"quoted"`, "quoted"},
		{`'single'`, "single"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanCell(tt.in); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
