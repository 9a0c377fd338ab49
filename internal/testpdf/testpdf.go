// Package testpdf assembles tiny, well-formed PDF documents in memory so
// tests can exercise real parsing without binary fixtures checked into the
// tree.
package testpdf

import (
	"bytes"
	"fmt"
	"strings"
)

// Document builds a classic-xref PDF with one page per entry in pageTexts.
// An empty string produces a page whose content stream is empty, which is
// how scanners and cover pages show up in real statements. Text is limited
// to ASCII without parentheses or backslashes; that is all the literal
// string syntax used here can carry.
func Document(pageTexts ...string) []byte {
	type object struct {
		num  int
		body string
	}

	var objs []object
	kids := make([]string, len(pageTexts))
	for i := range pageTexts {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	objs = append(objs,
		object{1, "<< /Type /Catalog /Pages 2 0 R >>"},
		object{2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
			strings.Join(kids, " "), len(pageTexts))},
		object{3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>"},
	)

	for i, text := range pageTexts {
		pageNum := 4 + 2*i
		contentNum := pageNum + 1

		objs = append(objs, object{pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			contentNum)})

		var stream string
		if text != "" {
			stream = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		objs = append(objs, object{contentNum, fmt.Sprintf(
			"<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream)})
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objs)+1)
	for _, obj := range objs {
		offsets[obj.num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", obj.num, obj.body)
	}

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= len(objs); num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objs)+1, xrefPos)

	return buf.Bytes()
}
