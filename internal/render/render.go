// Package render lays out deployment icons and emits their PDF content
// programs. It knows nothing about the document the programs end up in; the
// caller turns each Form into a form XObject.
package render

import (
	"fmt"
	"strings"
)

// Mode selects how an icon is drawn.
type Mode string

const (
	// Compound draws an icon as a group of linked annotations, one per
	// visual element.
	Compound Mode = "compound"
	// Combined draws an icon as one annotation with a single program.
	Combined Mode = "combined"
)

// ParseMode validates a configured mode. An empty string means Compound.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Compound:
		return Compound, nil
	case Combined:
		return Combined, nil
	}
	return "", fmt.Errorf("unknown render mode %q", s)
}

// Canonical design space every layout is computed in.
const (
	CanonWidth  = 25.0
	CanonHeight = 30.0

	// CompoundScale maps canonical units to page points for compound groups.
	CompoundScale = 1.12

	bezierK = 0.5522847498
)

// Font resource names used by the two modes.
const (
	FontHelv    = "Helv"
	FontHelvBld = "HelvBld"
	ImageName   = "Img"
)

// Rect is an [x1 y1 x2 y2] rectangle.
type Rect [4]float64

func (r Rect) Width() float64  { return r[2] - r[0] }
func (r Rect) Height() float64 { return r[3] - r[1] }

// Center returns the midpoint of r.
func (r Rect) Center() (float64, float64) {
	return (r[0] + r[2]) / 2, (r[1] + r[3]) / 2
}

// Centered returns a w by h rectangle centered on (cx, cy).
func Centered(cx, cy, w, h float64) Rect {
	return Rect{cx - w/2, cy - h/2, cx + w/2, cy + h/2}
}

// Form is a form XObject to be created by the caller.
type Form struct {
	BBox Rect
	// Matrix is written when non-nil.
	Matrix *[6]float64
	// Font names a Helvetica-Bold font resource, empty when unused.
	Font string
	// UsesImage adds the icon image as /Img to the resources.
	UsesImage bool
	Content   []byte
}

// Image is decoded 8-bit RGB pixel data.
type Image struct {
	Width  int
	Height int
	RGB    []byte
}

// content accumulates operators, one per line.
type content struct {
	lines []string
}

func (c *content) op(format string, args ...any) {
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
}

func (c *content) raw(line string) {
	c.lines = append(c.lines, line)
}

func (c *content) bytes() []byte {
	return []byte(strings.Join(c.lines, "\n"))
}

// circle appends a closed four-segment Bezier circle.
func (c *content) circle(cx, cy, r float64) {
	k := r * bezierK
	c.op("%.3f %.3f m", cx+r, cy)
	c.op("%.3f %.3f %.3f %.3f %.3f %.3f c", cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	c.op("%.3f %.3f %.3f %.3f %.3f %.3f c", cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	c.op("%.3f %.3f %.3f %.3f %.3f %.3f c", cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	c.op("%.3f %.3f %.3f %.3f %.3f %.3f c", cx+k, cy-r, cx+r, cy-k, cx+r, cy)
}

// literal escapes s for a content-stream string. Characters outside latin-1
// become '?'.
func literal(s string) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, r := range s {
		switch {
		case r == '(' || r == ')' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r > 0xFF:
			b.WriteByte('?')
		default:
			b.WriteByte(byte(r))
		}
	}
	b.WriteByte(')')
	return b.String()
}

// modelLines splits model text into at most three lines.
func modelLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 3 {
		lines = lines[:3]
	}
	return lines
}
