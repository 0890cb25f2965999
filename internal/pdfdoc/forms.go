package pdfdoc

import (
	"fmt"

	"github.com/bidmap-converter/backend/internal/render"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// FontResource returns a Type1 Helvetica-Bold font dictionary.
func FontResource() types.Dict {
	return types.Dict{
		"Type":     types.Name("Font"),
		"Subtype":  types.Name("Type1"),
		"BaseFont": types.Name("Helvetica-Bold"),
		"Encoding": types.Name("WinAnsiEncoding"),
	}
}

// AddImage stores img as a DeviceRGB image XObject.
func (d *Document) AddImage(img *render.Image) (*types.IndirectRef, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	if len(img.RGB) != img.Width*img.Height*3 {
		return nil, fmt.Errorf("image data is %d bytes, want %d", len(img.RGB), img.Width*img.Height*3)
	}
	dict := types.Dict{
		"Type":             types.Name("XObject"),
		"Subtype":          types.Name("Image"),
		"Width":            types.Integer(img.Width),
		"Height":           types.Integer(img.Height),
		"ColorSpace":       types.Name("DeviceRGB"),
		"BitsPerComponent": types.Integer(8),
	}
	return d.AddStream(dict, img.RGB)
}

// AddForm stores f as a form XObject. imgRef is bound to the image
// resource name when the form draws the icon image; a form that wants an
// image but gets none still renders, minus the picture.
func (d *Document) AddForm(f render.Form, imgRef *types.IndirectRef) (*types.IndirectRef, error) {
	resources := types.Dict{}
	if f.Font != "" {
		resources["Font"] = types.Dict{f.Font: FontResource()}
	}
	if f.UsesImage && imgRef != nil {
		resources["XObject"] = types.Dict{render.ImageName: *imgRef}
	}

	dict := types.Dict{
		"Type":      types.Name("XObject"),
		"Subtype":   types.Name("Form"),
		"FormType":  types.Integer(1),
		"BBox":      Floats(f.BBox[:]...),
		"Resources": resources,
	}
	if f.Matrix != nil {
		dict["Matrix"] = Floats(f.Matrix[:]...)
	}
	return d.AddStream(dict, f.Content)
}
