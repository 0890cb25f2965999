package render

import (
	"github.com/bidmap-converter/backend/internal/iconstyle"
)

// Appearance is a single-program icon.
type Appearance struct {
	Form  Form
	Image *Image
}

// Combined draws the whole icon into one program sized to rect. The canonical
// layout is scaled uniformly to fit and centered; the form's BBox starts at
// the origin.
func (r *Renderer) Combined(s iconstyle.Style, label string, rect Rect) Appearance {
	img := r.image(s)
	return Appearance{Form: combinedForm(s, label, rect, img), Image: img}
}

func combinedForm(s iconstyle.Style, label string, rect Rect, img *Image) Form {
	w, h := rect.Width(), rect.Height()
	scale := min(w/CanonWidth, h/CanonHeight)
	xOff := (w - CanonWidth*scale) / 2
	yOff := (h - CanonHeight*scale) / 2

	l := newLayout(s, img)
	c := &content{}
	c.raw("q")
	c.op("%.6f 0 0 %.6f %.3f %.3f cm", scale, scale, xOff, yOff)

	bc, cc := s.CircleBorderColor, s.CircleColor
	c.op("%.4f %.4f %.4f RG", bc[0], bc[1], bc[2])
	c.op("%.4f w", s.CircleBorderWidth)
	c.op("%.4f %.4f %.4f rg", cc[0], cc[1], cc[2])
	c.circle(l.cx, l.cy, l.radius)
	c.raw("h")
	c.raw("B")

	if !s.NoIDBox && label != "" {
		c.raw("q")
		c.raw("1 1 1 rg")
		c.raw("0 0 0 RG")
		c.op("%.1f w", s.IDBoxBorderWidth)
		c.op("%.3f %.3f %.3f %.3f re", l.boxX, l.boxY, l.boxW, l.boxH)
		c.raw("B")
		c.raw("Q")

		tc := s.IDTextColor
		tw := TextWidth(label, s.IDFontSize)
		c.raw("BT")
		c.op("%.4f %.4f %.4f rg", tc[0], tc[1], tc[2])
		c.op("/%s %.1f Tf", FontHelv, s.IDFontSize)
		c.op("%.3f %.3f Td", l.boxX+(l.boxW-tw)/2, l.boxY+(l.boxH-s.IDFontSize)/2+0.3)
		c.raw(literal(label) + " Tj")
		c.raw("ET")
	}

	for _, layer := range s.LayerOrder {
		switch layer {
		case "gear_image":
			if l.hasImage {
				c.raw("q")
				c.op("%.3f 0 0 %.3f %.3f %.3f cm", l.imgW, l.imgH, l.imgX, l.imgY)
				c.op("/%s Do", ImageName)
				c.raw("Q")
			}
		case "brand_text":
			if s.BrandText != "" {
				bw := TextWidth(s.BrandText, s.BrandFontSize)
				textLine(c, s.TextColor, s.BrandFontSize, s.BrandText,
					l.cx-bw/2+s.BrandXOffset, l.cy+l.radius+s.BrandYOffset)
			}
		case "model_text":
			if s.ModelText != "" {
				lines := modelLines(s.ModelText)
				lh := s.ModelFontSize * 1.2
				base := l.cy - l.radius + s.ModelYOffset
				if len(lines) > 1 {
					base += float64(len(lines)-1) * lh / 2
				}
				for i, line := range lines {
					lw := TextWidth(line, s.ModelFontSize)
					textLine(c, s.TextColor, s.ModelFontSize, line,
						l.cx-lw/2+s.ModelXOffset, base-float64(i)*lh)
				}
			}
		}
	}
	c.raw("Q")

	return Form{
		BBox:      Rect{0, 0, w, h},
		Font:      FontHelv,
		UsesImage: l.hasImage,
		Content:   c.bytes(),
	}
}

func textLine(c *content, col iconstyle.Color, size float64, text string, x, y float64) {
	c.raw("BT")
	c.op("%.4f %.4f %.4f rg", col[0], col[1], col[2])
	c.op("/%s %.2f Tf", FontHelv, size)
	c.op("%.3f %.3f Td", x, y)
	c.raw(literal(text) + " Tj")
	c.raw("ET")
}
