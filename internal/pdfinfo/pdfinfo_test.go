package pdfinfo

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	qt "github.com/frankban/quicktest"
	"github.com/ledongthuc/pdf"
)

func TestIsPDF(t *testing.T) {
	c := qt.New(t)
	c.Assert(IsPDF([]byte("%PDF-1.7\n")), qt.IsTrue)
	c.Assert(IsPDF([]byte("%PDF")), qt.IsFalse)
	c.Assert(IsPDF([]byte("PK\x03\x04")), qt.IsFalse)
	c.Assert(IsPDF(nil), qt.IsFalse)
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"collapses whitespace", "  hello \n\t world  ", 100, "hello world"},
		{"truncates", "abcdef", 3, "abc"},
		{"counts runes", "åäöåäö", 4, "åäöå"},
		{"no limit", "keep all", 0, "keep all"},
		{"drops nul and invalid utf-8", "A\x00B\x00 \xff\xfe text", 500, "AB text"},
		{"drops control characters", "page\x0c1\x1b[0m end", 100, "page 1[0m end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			got := Excerpt(tt.in, tt.n)
			c.Assert(got, qt.Equals, tt.want)
			c.Assert(utf8.ValidString(got), qt.IsTrue)
			c.Assert(strings.ContainsRune(got, 0), qt.IsFalse)
		})
	}
}

func TestInspect_NotAPDF(t *testing.T) {
	c := qt.New(t)
	data := []byte("this is plain text")
	_, err := Inspect(bytes.NewReader(data), int64(len(data)), 100)
	c.Assert(err, qt.ErrorMatches, "parse pdf: .*")
}

func TestInspect_MinimalPDF(t *testing.T) {
	c := qt.New(t)
	data := minimalPDF(2)

	info, err := Inspect(bytes.NewReader(data), int64(len(data)), 100)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Pages, qt.Equals, 2)
}

func TestLeadingText_StopsOnceEnoughText(t *testing.T) {
	c := qt.New(t)
	data := textPDF("Alpha", "Bravo", "Charlie")
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	c.Assert(err, qt.IsNil)

	first := clean(leadingText(reader, 5))
	c.Assert(first, qt.Contains, "Alpha")
	c.Assert(first, qt.Not(qt.Contains), "Bravo")

	all := clean(leadingText(reader, 0))
	for _, word := range []string{"Alpha", "Bravo", "Charlie"} {
		c.Assert(all, qt.Contains, word)
	}

	info, err := Inspect(bytes.NewReader(data), int64(len(data)), 5)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Pages, qt.Equals, 3)
	c.Assert(info.TextExcerpt, qt.Equals, "Alpha")
}

// minimalPDF builds a valid PDF with n empty pages and a correct xref table.
func minimalPDF(n int) []byte {
	pages := make([]string, n)
	return buildPDF(pages, false)
}

// textPDF builds a PDF with one page per string, each showing that text in
// Helvetica.
func textPDF(pages ...string) []byte {
	return buildPDF(pages, true)
}

func buildPDF(pages []string, withText bool) []byte {
	n := len(pages)
	// Object layout: 1 catalog, 2 page tree, 3 font, then page and content pairs.
	pageObj := func(i int) int { return 4 + 2*i }

	kids := make([]string, n)
	for i := range n {
		kids[i] = fmt.Sprintf("%d 0 R", pageObj(i))
	}
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	for i, text := range pages {
		content := ""
		if withText {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", pageObj(i)+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}
