package render

import (
	"github.com/bidmap-converter/backend/internal/iconstyle"
	"github.com/bidmap-converter/backend/internal/logging"
)

// Renderer turns resolved styles into icon programs. It is safe for
// concurrent use; only its image cache is shared.
type Renderer struct {
	images *ImageLoader
}

// New returns a renderer loading gear images from gearDir.
func New(gearDir string) *Renderer {
	return &Renderer{images: NewImageLoader(gearDir)}
}

// NewWithLoader returns a renderer sharing an existing image loader.
func NewWithLoader(images *ImageLoader) *Renderer {
	return &Renderer{images: images}
}

// HasImage reports whether the style's gear image will be drawn.
func (r *Renderer) HasImage(s iconstyle.Style) bool {
	return !s.NoImage && s.ImagePath != "" && r.images != nil && r.images.Exists(s.ImagePath)
}

// image loads the style's gear image. Failures are logged and yield nil so
// the icon is drawn without it.
func (r *Renderer) image(s iconstyle.Style) *Image {
	if !r.HasImage(s) {
		return nil
	}
	img, err := r.images.Load(s.ImagePath, s.CircleColor)
	if err != nil {
		logging.New("render").Warnf("%s: %v", s.Subject, err)
		return nil
	}
	return img
}
