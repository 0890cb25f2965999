package convert

import (
	"fmt"

	"github.com/bidmap-converter/backend/internal/pdfdoc"
	"github.com/bidmap-converter/backend/internal/render"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// writeGroup stores the components of a compound icon. The root is written
// first so children can point at it; the returned refs keep component
// order. On error every object added for the group is freed and the
// sequence index is not consumed.
func (r *run) writeGroup(g render.Group, subject string) (refs types.Array, err error) {
	if len(g.Components) == 0 {
		return nil, fmt.Errorf("empty group for %q", subject)
	}

	var added []types.IndirectRef
	_, imgShared := r.images[g.Image]
	defer func() {
		if err == nil {
			return
		}
		if g.Image != nil && !imgShared {
			if ref, ok := r.images[g.Image]; ok {
				added = append(added, ref)
				delete(r.images, g.Image)
			}
		}
		if ferr := r.objs.Free(added...); ferr != nil {
			logger.Warnf("releasing objects of %q: %v", subject, ferr)
		}
	}()

	imgRef, err := r.image(g.Image)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(g.Components))
	nesting := types.Array{pdfdoc.TextObject(subject)}
	for i := range names {
		names[i] = newName()
		nesting = append(nesting, types.StringLiteral(names[i]))
	}

	seq := r.seq + 1
	refs = make(types.Array, 0, len(g.Components))
	var root *types.IndirectRef
	for i, c := range g.Components {
		var formImg *types.IndirectRef
		if c.Form.UsesImage {
			formImg = imgRef
		}
		formRef, err := r.objs.AddForm(c.Form, formImg)
		if err != nil {
			return nil, fmt.Errorf("%s form: %w", c.Role, err)
		}
		added = append(added, *formRef)

		annot := componentDict(c, subject, names[i], *formRef)
		annot["GroupNesting"] = nesting
		r.layer(annot, subject)
		if root == nil {
			annot["Sequence"] = types.Dict{
				"IID":   types.StringLiteral(r.runID),
				"Index": types.Integer(seq),
			}
		} else {
			annot["IRT"] = *root
			annot["RT"] = types.Name("Group")
		}

		ref, err := r.objs.Add(annot)
		if err != nil {
			return nil, err
		}
		added = append(added, *ref)
		if root == nil {
			root = ref
		}
		refs = append(refs, *ref)
	}
	r.seq = seq
	return refs, nil
}

func componentDict(c render.Component, subject, name string, form types.IndirectRef) types.Dict {
	d := types.Dict{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name(c.Subtype),
		"Rect":    pdfdoc.Floats(c.Rect[:]...),
		"Subj":    pdfdoc.TextObject(subject),
		"NM":      types.StringLiteral(name),
		"F":       types.Integer(4),
		"AP":      types.Dict{"N": form},
	}

	p := c.Props
	if p.DA != "" {
		d["DA"] = pdfdoc.TextObject(p.DA)
	}
	if p.HasContents || p.Contents != "" {
		d["Contents"] = pdfdoc.TextObject(p.Contents)
	}
	if p.Interior != nil {
		d["IC"] = floats(p.Interior)
	}
	if p.Stroke != nil {
		d["C"] = floats(p.Stroke)
	} else {
		d["C"] = types.Array{}
	}
	d["BS"] = types.Dict{"W": types.Float(p.BorderWidth)}
	if p.Fringe > 0 {
		d["RD"] = pdfdoc.Floats(p.Fringe, p.Fringe, p.Fringe, p.Fringe)
	}
	return d
}
