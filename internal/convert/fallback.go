package convert

import (
	"github.com/bidmap-converter/backend/internal/pdfdoc"
	"github.com/bidmap-converter/backend/internal/render"
	"github.com/bidmap-converter/backend/internal/toolchest"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// colors is the native look of a fallback annotation.
type colors struct {
	fill, stroke []float64
	opacity      float64
}

// colorsFor picks colors from the reference map, then the toolchest, then
// the defaults.
func (e *Engine) colorsFor(subject string) colors {
	c := colors{fill: DefaultFill, stroke: DefaultStroke, opacity: 1}

	if ref, ok := e.opts.Extractor.Lookup(subject); ok {
		if ref.Fill != nil {
			c.fill = ref.Fill
		}
		if ref.Stroke != nil {
			c.stroke = ref.Stroke
		}
		c.opacity = ref.Opacity
		return c
	}

	if e.opts.Toolchest != nil {
		if icon, ok := e.opts.Toolchest.Lookup(subject, toolchest.Deployment); ok {
			tc := toolchest.ExtractColors(icon.Raw)
			if tc.Fill != nil {
				c.fill = tc.Fill
			}
			if tc.Stroke != nil {
				c.stroke = tc.Stroke
			}
			if tc.Opacity >= 0 {
				c.opacity = tc.Opacity
			}
		}
	}
	return c
}

// writeFallback stores a single fixed-size annotation centered on (cx, cy).
// It carries a combined appearance when the subject has a style; otherwise
// the native color entries describe it.
func (r *run) writeFallback(a pdfdoc.Annotation, subject, label string, cx, cy float64) (*types.IndirectRef, error) {
	rect := render.Centered(cx, cy, r.e.opts.FallbackWidth, r.e.opts.FallbackHeight)
	d := types.Dict{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name(a.Subtype),
		"Rect":    pdfdoc.Floats(rect[:]...),
		"Subj":    pdfdoc.TextObject(subject),
		"NM":      types.StringLiteral(newName()),
		"F":       types.Integer(4),
	}
	if a.Contents != "" {
		d["Contents"] = pdfdoc.TextObject(a.Contents)
	}
	r.layer(d, subject)

	rich, err := r.richAppearance(subject, label, rect)
	if err != nil {
		return nil, err
	}
	if rich != nil {
		d["AP"] = types.Dict{"N": *rich}
	} else {
		c := r.e.colorsFor(subject)
		d["IC"] = floats(c.fill)
		d["C"] = floats(c.stroke)
		d["BS"] = types.Dict{"W": types.Float(DefaultBorderWidth)}
		d["CA"] = types.Float(c.opacity)
	}
	ref, err := r.objs.Add(d)
	if err != nil {
		if rich != nil {
			r.objs.Free(*rich)
		}
		return nil, err
	}
	return ref, nil
}

// richAppearance renders the combined icon for subject, or returns nil when
// no style or renderer is available.
func (r *run) richAppearance(subject, label string, rect render.Rect) (*types.IndirectRef, error) {
	if r.e.opts.Renderer == nil || r.e.opts.Resolver == nil {
		return nil, nil
	}
	style, ok := r.e.opts.Resolver.Resolve(subject, nil)
	if !ok {
		return nil, nil
	}
	app := r.e.opts.Renderer.Combined(style, label, rect)
	imgRef, err := r.image(app.Image)
	if err != nil {
		return nil, err
	}
	return r.objs.AddForm(app.Form, imgRef)
}
