package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bidmap-converter/backend/internal/pdfdoc"
	"github.com/bidmap-converter/backend/internal/pdfstr"
	"github.com/stretchr/testify/require"
)

// Letter page size used by every fixture.
const (
	PageWidth  = 612
	PageHeight = 792
)

// Annot formats an annotation dictionary. Extra entries are appended
// verbatim, e.g. "/IRT 5 0 R".
func Annot(subtype, subject string, rect [4]float64, extra ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<< /Type /Annot /Subtype /%s /Rect [%g %g %g %g]", subtype, rect[0], rect[1], rect[2], rect[3])
	if subject != "" {
		fmt.Fprintf(&b, " /Subj (%s)", pdfstr.Escape(subject))
	}
	for _, e := range extra {
		b.WriteString(" ")
		b.WriteString(e)
	}
	b.WriteString(" >>")
	return b.String()
}

// Circle formats a circle annotation.
func Circle(subject string, rect [4]float64, extra ...string) string {
	return Annot("Circle", subject, rect, extra...)
}

// MapPDF returns a one-page map carrying annots. Annotation i becomes
// object 5+i.
func MapPDF(annots ...string) []byte {
	return pdfdoc.SinglePage(PageWidth, PageHeight, annots, "")
}

// TwoPagePDF returns a document with two empty pages.
func TwoPagePDF() []byte {
	var b pdfdoc.Builder
	catalog := b.Add("")
	pages := b.Add("")
	p1 := b.Add("")
	p2 := b.Add("")
	b.Set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pages))
	b.Set(pages, fmt.Sprintf("<< /Type /Pages /Kids [%d 0 R %d 0 R] /Count 2 >>", p1, p2))
	page := fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %d %d] /Resources << >> >>", pages, PageWidth, PageHeight)
	b.Set(p1, page)
	b.Set(p2, page)
	return b.Bytes(catalog)
}

// LayerPDF returns a one-page document whose catalog declares one optional
// content group per name, all listed in the default configuration.
func LayerPDF(names ...string) []byte {
	var b pdfdoc.Builder
	catalog := b.Add("")
	pages := b.Add("")
	page := b.Add("")

	refs := make([]string, 0, len(names))
	for _, n := range names {
		nr := b.Add(fmt.Sprintf("<< /Type /OCG /Name (%s) >>", pdfstr.Escape(n)))
		refs = append(refs, fmt.Sprintf("%d 0 R", nr))
	}
	list := strings.Join(refs, " ")

	b.Set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R /OCProperties << /OCGs [%s] /D << /Order [%s] /ON [%s] /OFF [] >> >> >>",
		pages, list, list, list))
	b.Set(pages, fmt.Sprintf("<< /Type /Pages /Kids [%d 0 R] /Count 1 >>", page))
	b.Set(page, fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %d %d] /Resources << >> >>", pages, PageWidth, PageHeight))
	return b.Bytes(catalog)
}

// WriteFile writes data under dir and returns the path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}
