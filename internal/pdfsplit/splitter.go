// Package pdfsplit turns a PDF byte blob into ordered per-page text,
// preserving the document's visual reading order.
package pdfsplit

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrMalformedSource is returned when the input is not a parseable PDF.
type ErrMalformedSource struct {
	Cause error
}

func (e *ErrMalformedSource) Error() string {
	return fmt.Sprintf("malformed source document: %v", e.Cause)
}

func (e *ErrMalformedSource) Unwrap() error { return e.Cause }

// Split extracts one text string per page, in page order. Text fragments
// sharing a vertical position are joined with single spaces; a change in
// vertical position starts a new line. Pages without extractable text keep
// their slot as an empty string, so indexes always line up with physical
// page numbers.
//
// The pdf library panics on some malformed inputs; those are recovered and
// reported as ErrMalformedSource like any other parse failure.
func Split(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = &ErrMalformedSource{Cause: fmt.Errorf("panic during PDF parse: %v", r)}
		}
	}()

	reader, rerr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if rerr != nil {
		return nil, &ErrMalformedSource{Cause: rerr}
	}

	n := reader.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, renderPage(page.Content()))
	}
	return pages, nil
}

// renderPage reassembles positioned text fragments into lines. PDF
// coordinates grow upward, so rows are ordered by descending Y.
func renderPage(content pdf.Content) string {
	texts := make([]pdf.Text, len(content.Text))
	copy(texts, content.Text)

	sort.SliceStable(texts, func(i, j int) bool {
		if texts[i].Y != texts[j].Y {
			return texts[i].Y > texts[j].Y
		}
		return texts[i].X < texts[j].X
	})

	var b strings.Builder
	lastY := 0.0
	haveLine := false
	for _, t := range texts {
		s := strings.TrimSpace(t.S)
		if s == "" {
			continue
		}
		switch {
		case !haveLine:
			haveLine = true
		case t.Y != lastY:
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
		b.WriteString(s)
		lastY = t.Y
	}
	return b.String()
}
