package render

import (
	"fmt"
	"math"

	"github.com/bidmap-converter/backend/internal/iconstyle"
)

// Role names one element of a compound group.
type Role string

const (
	RoleRootIDText  Role = "root_id_text"
	RoleIDBoxBorder Role = "id_box_border"
	RoleContainer   Role = "container"
	RoleCircle      Role = "circle"
	RoleImage       Role = "image"
	RoleModelText   Role = "model_text"
	RoleBrandText   Role = "brand_text"
)

// Annotation subtypes used by compound components.
const (
	SubtypeFreeText = "FreeText"
	SubtypeSquare   = "Square"
	SubtypeCircle   = "Circle"
)

// Props are the annotation entries a component carries besides its
// appearance.
type Props struct {
	// DA is the FreeText default appearance string, empty for shapes.
	DA       string
	Contents string
	// HasContents writes Contents even when it is empty.
	HasContents bool
	// Interior is /IC, omitted when nil.
	Interior []float64
	// Stroke is /C, written as an empty array when nil.
	Stroke      []float64
	BorderWidth float64
	// Fringe is /RD, written when positive.
	Fringe float64
}

// Component is one annotation of a compound group.
type Component struct {
	Role    Role
	Subtype string
	Rect    Rect
	Form    Form
	Props   Props
}

// Group is a rendered compound icon. The first component is the root.
type Group struct {
	Components []Component
	Image      *Image
}

// Root returns the root component.
func (g Group) Root() Component {
	return g.Components[0]
}

// compoundRects holds the absolute page rectangles of every element.
type compoundRects struct {
	container, idBox, idText, circle, image, model, brand Rect
}

func newCompoundRects(s iconstyle.Style, l layout, cx, cy float64) compoundRects {
	ox := cx - CanonWidth*CompoundScale/2
	oy := cy - CanonHeight*CompoundScale/2
	page := func(x, y, w, h float64) Rect {
		return Rect{
			ox + x*CompoundScale,
			oy + y*CompoundScale,
			ox + (x+w)*CompoundScale,
			oy + (y+h)*CompoundScale,
		}
	}

	var r compoundRects
	r.container = page(0, 0, CanonWidth, CanonHeight)
	r.idBox = page(l.boxX, l.boxY, l.boxW, l.boxH)
	r.idText = page(0, l.boxY-2, CanonWidth, l.boxH+4)
	r.circle = page(l.cx-l.radius, l.cy-l.radius, 2*l.radius, 2*l.radius)
	if l.hasImage {
		r.image = page(l.imgX, l.imgY, l.imgW, l.imgH)
	}
	modelY := l.cy - l.radius + s.ModelYOffset - s.ModelFontSize*2
	r.model = page(0, math.Max(modelY, 0), CanonWidth, s.ModelFontSize*5)
	brandY := l.cy + l.radius + s.BrandYOffset - s.BrandFontSize
	r.brand = page(0, brandY, CanonWidth, s.BrandFontSize*4)
	return r
}

// Compound renders the icon as three to seven components centered on
// (cx, cy) in page space. Each component's program draws in absolute page
// coordinates inside a form whose Matrix moves them to the form origin.
func (r *Renderer) Compound(s iconstyle.Style, label string, cx, cy float64) Group {
	img := r.image(s)
	return compoundGroup(s, label, cx, cy, img)
}

func compoundGroup(s iconstyle.Style, label string, cx, cy float64, img *Image) Group {
	l := newLayout(s, img)
	rects := newCompoundRects(s, l, cx, cy)
	hideBox := s.NoIDBox || label == ""

	idLabel := label
	if hideBox {
		idLabel = ""
	}

	var comps []Component
	comps = append(comps, Component{
		Role:    RoleRootIDText,
		Subtype: SubtypeFreeText,
		Rect:    rects.idText,
		Form:    freeTextForm(rects.idText, idLabel, s.IDFontSize, s.IDTextColor),
		Props:   textProps(s.IDTextColor, s.IDFontSize, idLabel),
	})

	if !hideBox {
		comps = append(comps, Component{
			Role:    RoleIDBoxBorder,
			Subtype: SubtypeSquare,
			Rect:    rects.idBox,
			Form:    idBoxForm(rects.idBox, s.IDBoxBorderWidth),
			Props: Props{
				Interior:    []float64{1, 1, 1},
				Stroke:      []float64{0, 0, 0},
				BorderWidth: s.IDBoxBorderWidth,
				Fringe:      s.IDBoxBorderWidth / 2,
			},
		})
	}

	comps = append(comps, Component{
		Role:    RoleContainer,
		Subtype: SubtypeFreeText,
		Rect:    rects.container,
		Form:    absoluteForm(rects.container, nil, FontHelvBld, false),
		Props:   Props{DA: fmt.Sprintf("0 0 0 rg /%s 1 Tf", FontHelvBld), HasContents: true},
	})

	cc, bc := s.CircleColor, s.CircleBorderColor
	comps = append(comps, Component{
		Role:    RoleCircle,
		Subtype: SubtypeCircle,
		Rect:    rects.circle,
		Form:    circleForm(rects.circle, cc, bc, s.CircleBorderWidth),
		Props: Props{
			Interior:    []float64{cc[0], cc[1], cc[2]},
			Stroke:      []float64{bc[0], bc[1], bc[2]},
			BorderWidth: s.CircleBorderWidth,
			Fringe:      s.CircleBorderWidth / 2,
		},
	})

	if l.hasImage {
		comps = append(comps, Component{
			Role:    RoleImage,
			Subtype: SubtypeSquare,
			Rect:    rects.image,
			Form:    imageForm(rects.image),
			Props:   Props{Stroke: []float64{1, 0, 0}},
		})
	}
	if s.ModelText != "" {
		comps = append(comps, Component{
			Role:    RoleModelText,
			Subtype: SubtypeFreeText,
			Rect:    rects.model,
			Form:    freeTextForm(rects.model, s.ModelText, s.ModelFontSize, s.TextColor),
			Props:   textProps(s.TextColor, s.ModelFontSize, s.ModelText),
		})
	}
	if s.BrandText != "" {
		comps = append(comps, Component{
			Role:    RoleBrandText,
			Subtype: SubtypeFreeText,
			Rect:    rects.brand,
			Form:    freeTextForm(rects.brand, s.BrandText, s.BrandFontSize, s.TextColor),
			Props:   textProps(s.TextColor, s.BrandFontSize, s.BrandText),
		})
	}

	g := Group{Components: comps}
	if l.hasImage {
		g.Image = img
	}
	return g
}

func textProps(col iconstyle.Color, size float64, text string) Props {
	return Props{
		DA:          fmt.Sprintf("%.4f %.4f %.4f rg /%s %.2f Tf", col[0], col[1], col[2], FontHelvBld, size),
		Contents:    text,
		HasContents: true,
	}
}

func absoluteForm(bbox Rect, c *content, font string, image bool) Form {
	f := Form{
		BBox:      bbox,
		Matrix:    &[6]float64{1, 0, 0, 1, -bbox[0], -bbox[1]},
		Font:      font,
		UsesImage: image,
	}
	if c != nil {
		f.Content = c.bytes()
	} else {
		f.Content = []byte{}
	}
	return f
}

func circleForm(rect Rect, fill, stroke iconstyle.Color, width float64) Form {
	cx, cy := rect.Center()
	radius := math.Min(rect.Width(), rect.Height()) / 2

	c := &content{}
	c.op("%.4f %.4f %.4f RG", stroke[0], stroke[1], stroke[2])
	c.op("%.4f w", width)
	c.op("%.4f %.4f %.4f rg", fill[0], fill[1], fill[2])
	c.circle(cx, cy, radius)
	c.raw("h B")
	return absoluteForm(rect, c, "", false)
}

func idBoxForm(rect Rect, width float64) Form {
	c := &content{}
	c.raw("1 1 1 rg")
	c.raw("0 0 0 RG")
	c.op("%.2f w", width)
	c.op("%.3f %.3f %.3f %.3f re", rect[0], rect[1], rect.Width(), rect.Height())
	c.raw("B")
	return absoluteForm(rect, c, "", false)
}

func imageForm(rect Rect) Form {
	c := &content{}
	c.op("q %.3f 0 0 %.3f %.3f %.3f cm /%s Do Q", rect.Width(), rect.Height(), rect[0], rect[1], ImageName)
	return absoluteForm(rect, c, "", true)
}

// freeTextForm centers up to three lines of text in rect.
func freeTextForm(rect Rect, text string, size float64, col iconstyle.Color) Form {
	tcx, tcy := rect.Center()
	lines := []string{""}
	if text != "" {
		lines = modelLines(text)
	}
	lh := size * 1.2

	c := &content{}
	c.raw("BT")
	c.op("%.4f %.4f %.4f rg", col[0], col[1], col[2])
	c.op("/%s %.2f Tf", FontHelvBld, size)

	base := tcy - size/2 + 0.3
	if len(lines) > 1 {
		base += float64(len(lines)-1) * lh / 2
	}
	for i, line := range lines {
		lw := TextWidth(line, size)
		c.op("1 0 0 1 %.3f %.3f Tm", tcx-lw/2, base-float64(i)*lh)
		c.raw(literal(line) + " Tj")
	}
	c.raw("ET")
	return absoluteForm(rect, c, FontHelvBld, false)
}
