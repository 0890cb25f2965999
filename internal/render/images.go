package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/bidmap-converter/backend/internal/iconstyle"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxImageSide bounds the pixel size of embedded gear images. Larger images
// are downsampled; icons are only a few points across.
const MaxImageSide = 512

// ImageLoader decodes gear images from a directory, flattens transparency
// onto a background color and caches the result per (path, color).
type ImageLoader struct {
	dir string

	mu    sync.Mutex
	cache map[imageKey]*Image
}

type imageKey struct {
	path string
	bg   iconstyle.Color
}

// NewImageLoader returns a loader rooted at dir.
func NewImageLoader(dir string) *ImageLoader {
	return &ImageLoader{dir: dir, cache: make(map[imageKey]*Image)}
}

// Dir returns the gear icon directory.
func (l *ImageLoader) Dir() string {
	return l.dir
}

// ErrImagePath is returned for image paths that leave the gear icon
// directory.
var ErrImagePath = errors.New("image path must stay inside the gear icon directory")

// LocalPath reports whether rel is a slash-separated path that stays inside
// the directory it is joined to.
func LocalPath(rel string) bool {
	return filepath.IsLocal(filepath.FromSlash(rel))
}

func (l *ImageLoader) path(rel string) (string, error) {
	if !LocalPath(rel) {
		return "", fmt.Errorf("%w: %q", ErrImagePath, rel)
	}
	return filepath.Join(l.dir, filepath.FromSlash(rel)), nil
}

// Exists reports whether rel names a file under the loader's directory.
func (l *ImageLoader) Exists(rel string) bool {
	p, err := l.path(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// Load returns the flattened RGB pixels of rel.
func (l *ImageLoader) Load(rel string, bg iconstyle.Color) (*Image, error) {
	key := imageKey{path: rel, bg: bg}

	l.mu.Lock()
	if img, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return img, nil
	}
	l.mu.Unlock()

	p, err := l.path(rel)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", rel, err)
	}
	img := Flatten(src, bg)

	l.mu.Lock()
	l.cache[key] = img
	l.mu.Unlock()
	return img, nil
}

// Flatten composites src over a solid background and returns packed RGB.
func Flatten(src image.Image, bg iconstyle.Color) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > MaxImageSide || h > MaxImageSide {
		w, h = fit(w, h, MaxImageSide)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	back := color.RGBA{R: channel(bg[0]), G: channel(bg[1]), B: channel(bg[2]), A: 0xFF}
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: back}, image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	rgb := make([]byte, 0, w*h*3)
	for i := 0; i < len(dst.Pix); i += 4 {
		rgb = append(rgb, dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2])
	}
	return &Image{Width: w, Height: h, RGB: rgb}
}

func fit(w, h, max int) (int, int) {
	if w >= h {
		nh := h * max / w
		if nh < 1 {
			nh = 1
		}
		return max, nh
	}
	nw := w * max / h
	if nw < 1 {
		nw = 1
	}
	return nw, max
}

// channel truncates a [0,1] component to a byte.
func channel(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 0xFF
	}
	return uint8(v * 255)
}
