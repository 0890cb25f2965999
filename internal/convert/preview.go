package convert

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bidmap-converter/backend/internal/iconstyle"
	"github.com/bidmap-converter/backend/internal/pdfdoc"
	"github.com/bidmap-converter/backend/internal/render"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrNoRenderer is returned by Preview when the engine cannot draw icons.
var ErrNoRenderer = errors.New("icon rendering is not configured")

// Preview page geometry: one icon scaled up in the middle of a small page.
const (
	previewPage = 200.0
	previewIcon = 100.0
)

// Preview renders style as a combined icon on a blank page and returns the
// PDF bytes.
func (e *Engine) Preview(style iconstyle.Style, label string) ([]byte, error) {
	if e.opts.Renderer == nil {
		return nil, ErrNoRenderer
	}
	doc, err := pdfdoc.ReadBytes(pdfdoc.SinglePage(previewPage, previewPage, nil, ""))
	if err != nil {
		return nil, err
	}

	rect := render.Centered(previewPage/2, previewPage/2, previewIcon, previewIcon*render.CanonHeight/render.CanonWidth)
	app := e.opts.Renderer.Combined(style, label, rect)
	var imgRef *types.IndirectRef
	if app.Image != nil {
		if imgRef, err = doc.AddImage(app.Image); err != nil {
			return nil, err
		}
	}
	form, err := doc.AddForm(app.Form, imgRef)
	if err != nil {
		return nil, err
	}
	annot, err := doc.Add(types.Dict{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name("Square"),
		"Rect":    pdfdoc.Floats(rect[:]...),
		"Subj":    pdfdoc.TextObject(style.Subject),
		"F":       types.Integer(4),
		"AP":      types.Dict{"N": *form},
	})
	if err != nil {
		return nil, err
	}

	page, err := doc.Page(1)
	if err != nil {
		return nil, err
	}
	pdfdoc.SetAnnots(page, types.Array{*annot})

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing preview: %w", err)
	}
	return buf.Bytes(), nil
}
