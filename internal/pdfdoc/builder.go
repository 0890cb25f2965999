package pdfdoc

import (
	"bytes"
	"fmt"
)

// Builder assembles a small PDF file from object bodies written in PDF
// syntax. Object numbers start at 1 in insertion order.
type Builder struct {
	objects []string
}

// Add appends an object body and returns its object number.
func (b *Builder) Add(body string) int {
	b.objects = append(b.objects, body)
	return len(b.objects)
}

// Set replaces the body of an object added earlier.
func (b *Builder) Set(nr int, body string) {
	b.objects[nr-1] = body
}

// Stream formats a stream object body with an exact /Length.
func Stream(dict string, data []byte) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

// Bytes serializes the file with a classic cross-reference table.
func (b *Builder) Bytes(root int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")

	offsets := make([]int, len(b.objects))
	for i, body := range b.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(b.objects)+1)
	buf.WriteString("0000000000 65535 f\r\n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n\r\n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(b.objects)+1, root, xref)
	return buf.Bytes()
}

// SinglePage returns a one-page document of the given size whose page
// carries the supplied annotation bodies. Extra catalog entries are copied
// verbatim into the catalog dictionary.
func SinglePage(width, height float64, annots []string, catalogExtra string) []byte {
	var b Builder
	catalog := b.Add("")
	pages := b.Add("")
	page := b.Add("")
	content := b.Add(Stream("", []byte("")))

	refs := ""
	for _, a := range annots {
		refs += fmt.Sprintf("%d 0 R ", b.Add(a))
	}

	b.Set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R %s>>", pages, catalogExtra))
	b.Set(pages, fmt.Sprintf("<< /Type /Pages /Kids [%d 0 R] /Count 1 >>", page))
	b.Set(page, fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %g %g] /Contents %d 0 R /Resources << >> /Annots [%s] >>",
		pages, width, height, content, refs))
	return b.Bytes(catalog)
}
