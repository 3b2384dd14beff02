// Package pdfinfo reads basic facts from PDF files.
package pdfinfo

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

var magic = []byte("%PDF-")

// HeaderSize is how many leading bytes IsPDF needs.
const HeaderSize = 5

// Info is what Inspect extracts from a document.
type Info struct {
	Pages       int
	TextExcerpt string
}

// IsPDF reports whether header starts with the PDF magic bytes.
func IsPDF(header []byte) bool {
	return bytes.HasPrefix(header, magic)
}

// Inspect counts pages and extracts up to excerptLen characters of plain text.
// A document without extractable text yields an empty excerpt, not an error.
func Inspect(r io.ReaderAt, size int64, excerptLen int) (info *Info, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if p := recover(); p != nil {
			info, err = nil, fmt.Errorf("parse pdf: %v", p)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	return &Info{
		Pages:       reader.NumPage(),
		TextExcerpt: Excerpt(leadingText(reader, excerptLen), excerptLen),
	}, nil
}

// leadingText extracts page text in order until at least n characters of
// cleaned text are collected (all pages when n <= 0). A page that fails to
// parse ends the scan; text from earlier pages is kept.
func leadingText(reader *pdf.Reader, n int) string {
	var b strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= reader.NumPage(); i++ {
		text, ok := pageText(reader.Page(i), fonts)
		if !ok {
			break
		}
		b.WriteString(text)
		b.WriteByte(' ')
		if n > 0 && utf8.RuneCountInString(clean(b.String())) >= n {
			break
		}
	}
	return b.String()
}

func pageText(page pdf.Page, fonts map[string]*pdf.Font) (text string, ok bool) {
	defer func() {
		if recover() != nil {
			text, ok = "", false
		}
	}()

	if page.V.IsNull() {
		return "", true
	}
	for _, name := range page.Fonts() {
		if _, seen := fonts[name]; !seen {
			f := page.Font(name)
			fonts[name] = &f
		}
	}
	text, err := page.GetPlainText(fonts)
	if err != nil {
		return "", false
	}
	return text, true
}

// clean drops invalid UTF-8 and control characters, which Postgres text
// columns reject or which render as garbage, and collapses whitespace.
func clean(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Excerpt cleans s and truncates it to at most n runes.
func Excerpt(s string, n int) string {
	s = clean(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
