package pdfdoc

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Annotation is one entry of a page's /Annots array.
type Annotation struct {
	// Index is the position in /Annots.
	Index int
	// Entry is the array element as stored, usually an indirect reference.
	Entry types.Object
	// Ref is set when the entry is an indirect reference.
	Ref  *types.IndirectRef
	Dict types.Dict

	Subject  string
	Subtype  string
	Contents string
	Rect     [4]float64
	// RectOK reports whether /Rect held four numbers.
	RectOK bool
	// HasIRT reports an /IRT (in reply to) entry.
	HasIRT bool
}

// Annotations lists the annotations of page. Entries that do not resolve
// to a dictionary are returned with a nil Dict.
func (d *Document) Annotations(page types.Dict) []Annotation {
	arr, ok := d.Array(page["Annots"])
	if !ok {
		return nil
	}
	out := make([]Annotation, 0, len(arr))
	for i, entry := range arr {
		a := Annotation{Index: i, Entry: entry}
		if ref, ok := entry.(types.IndirectRef); ok {
			r := ref
			a.Ref = &r
		}
		if dict, ok := d.Dict(entry); ok {
			a.Dict = dict
			d.describe(&a)
		}
		out = append(out, a)
	}
	return out
}

func (d *Document) describe(a *Annotation) {
	a.Subtype = Name(a.Dict, "Subtype")
	if o, err := d.Resolve(a.Dict["Subj"]); err == nil && o != nil {
		a.Subject, _ = Text(o)
	}
	if o, err := d.Resolve(a.Dict["Contents"]); err == nil && o != nil {
		a.Contents, _ = Text(o)
	}
	if arr, ok := d.Array(a.Dict["Rect"]); ok && len(arr) == 4 {
		if nums, ok := Numbers(arr); ok {
			copy(a.Rect[:], nums)
			a.RectOK = true
		}
	}
	_, a.HasIRT = a.Dict["IRT"]
}

// Center returns the midpoint of the annotation rectangle.
func (a Annotation) Center() (float64, float64) {
	return (a.Rect[0] + a.Rect[2]) / 2, (a.Rect[1] + a.Rect[3]) / 2
}

// SetAnnots replaces the page's annotation array.
func SetAnnots(page types.Dict, annots types.Array) {
	if len(annots) == 0 {
		delete(page, "Annots")
		return
	}
	page["Annots"] = annots
}
