package render

import (
	"math"

	"github.com/bidmap-converter/backend/internal/iconstyle"
)

// layout is the icon geometry in the canonical 25x30 space.
type layout struct {
	cx, cy, radius float64

	boxX, boxY, boxW, boxH float64

	hasImage               bool
	imgX, imgY, imgW, imgH float64
}

// newLayout places the ID box at the top, the circle below it overlapping
// the box by two units, and the image centered in the circle.
func newLayout(s iconstyle.Style, img *Image) layout {
	var l layout
	l.cx = CanonWidth / 2
	l.boxW = CanonWidth * s.IDBoxWidthRatio
	l.boxH = s.IDBoxHeight
	l.boxX = l.cx - l.boxW/2
	l.boxY = CanonHeight - s.IDBoxHeight + s.IDBoxYOffset

	circleTop := l.boxY + 2
	l.radius = math.Min(CanonWidth, circleTop)/2 - 0.3
	l.cy = circleTop - l.radius

	if img != nil && img.Width > 0 && img.Height > 0 {
		scale := l.radius * s.ImgScaleRatio / float64(max(img.Width, img.Height))
		l.hasImage = true
		l.imgW = float64(img.Width) * scale
		l.imgH = float64(img.Height) * scale
		l.imgX = l.cx - l.imgW/2 + s.ImgXOffset
		l.imgY = l.cy - l.imgH/2 + s.ImgYOffset
	}
	return l
}
