package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bidmap-converter/backend/internal/iconstyle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, subject string) iconstyle.Style {
	t.Helper()
	s, ok := iconstyle.NewResolver(nil, nil).Resolve(subject, nil)
	require.True(t, ok, subject)
	return s
}

// writeGear writes a 4x2 PNG whose left half is opaque red and right half
// fully transparent.
func writeGear(t *testing.T, dir, rel string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func roles(g Group) []Role {
	out := make([]Role, 0, len(g.Components))
	for _, c := range g.Components {
		out = append(out, c.Role)
	}
	return out
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Compound, m)

	m, err = ParseMode(" Combined ")
	require.NoError(t, err)
	assert.Equal(t, Combined, m)

	_, err = ParseMode("monkeypatch")
	assert.Error(t, err)
}

func TestTextWidth(t *testing.T) {
	assert.InDelta(t, 7.5894, TextWidth("j100", 3.9), 1e-9)
	assert.InDelta(t, 0.556, TextWidth("€", 1), 1e-9)
	assert.Equal(t, 0.0, TextWidth("", 10))
}

func TestLiteral(t *testing.T) {
	assert.Equal(t, `(a\(b\)\\)`, literal(`a(b)\`))
	assert.Equal(t, "(caf\xe9 ?)", literal("café ☃"))
}

func TestLayout(t *testing.T) {
	l := newLayout(resolve(t, "AP - Cisco MR36H"), &Image{Width: 4, Height: 2})
	assert.InDelta(t, 12.5, l.cx, 1e-9)
	assert.InDelta(t, 10.25, l.boxW, 1e-9)
	assert.InDelta(t, 7.375, l.boxX, 1e-9)
	assert.InDelta(t, 27.7, l.boxY, 1e-9)
	assert.InDelta(t, 12.2, l.radius, 1e-9)
	assert.InDelta(t, 17.5, l.cy, 1e-9)
	require.True(t, l.hasImage)
	assert.InDelta(t, 7.808, l.imgW, 1e-9)
	assert.InDelta(t, 3.904, l.imgH, 1e-9)
	assert.InDelta(t, 8.596, l.imgX, 1e-9)
	assert.InDelta(t, 15.548, l.imgY, 1e-9)
}

func TestCombined(t *testing.T) {
	r := New(t.TempDir())
	a := r.Combined(resolve(t, "AP - Cisco MR36H"), "j100", Rect{100, 200, 150, 250})

	assert.Nil(t, a.Image)
	assert.False(t, a.Form.UsesImage)
	assert.Equal(t, Rect{0, 0, 50, 50}, a.Form.BBox)
	assert.Nil(t, a.Form.Matrix)
	assert.Equal(t, FontHelv, a.Form.Font)

	lines := strings.Split(string(a.Form.Content), "\n")
	assert.Equal(t, "q", lines[0])
	assert.Equal(t, "1.666667 0 0 1.666667 4.167 0.000 cm", lines[1])
	assert.Equal(t, "0.0000 0.0000 0.0000 RG", lines[2])
	assert.Equal(t, "0.7500 w", lines[3])
	assert.Equal(t, "0.2157 0.3412 0.6431 rg", lines[4])
	assert.Equal(t, "24.700 17.500 m", lines[5])
	assert.Equal(t, "Q", lines[len(lines)-1])

	body := string(a.Form.Content)
	assert.Contains(t, body, "h\nB\nq\n1 1 1 rg\n0 0 0 RG\n0.3 w\n7.375 27.700 10.250 2.300 re\nB\nQ")
	assert.Contains(t, body, "/Helv 3.9 Tf")
	assert.Contains(t, body, "(j100) Tj")
	assert.Contains(t, body, "(CISCO) Tj")
	assert.Contains(t, body, "(MR36H) Tj")
	assert.NotContains(t, body, "/Img Do")
	assert.Less(t, strings.Index(body, "(CISCO)"), strings.Index(body, "(MR36H)"))
}

func TestCombinedWithImage(t *testing.T) {
	dir := t.TempDir()
	writeGear(t, dir, "APs/AP - Cisco MR36H.png")
	r := New(dir)

	a := r.Combined(resolve(t, "AP - Cisco MR36H"), "j100", Rect{0, 0, 25, 30})
	require.NotNil(t, a.Image)
	assert.True(t, a.Form.UsesImage)
	assert.Contains(t, string(a.Form.Content), "q\n7.808 0 0 3.904 8.596 15.548 cm\n/Img Do\nQ")
}

func TestCombinedMultilineModel(t *testing.T) {
	a := New(t.TempDir()).Combined(resolve(t, "HL - General Internet"), "gg100", Rect{0, 0, 25, 30})
	body := string(a.Form.Content)
	assert.Contains(t, body, "(GENERAL) Tj")
	assert.Contains(t, body, "(INTERNET) Tj")
	assert.Contains(t, body, "(CAT6) Tj")
}

func TestCompound(t *testing.T) {
	t.Run("full group without image", func(t *testing.T) {
		g := New(t.TempDir()).Compound(resolve(t, "AP - Cisco MR36H"), "j100", 125, 225)
		assert.Equal(t, []Role{RoleRootIDText, RoleIDBoxBorder, RoleContainer, RoleCircle, RoleModelText, RoleBrandText}, roles(g))
		assert.Nil(t, g.Image)

		root := g.Root()
		assert.Equal(t, SubtypeFreeText, root.Subtype)
		assert.Equal(t, "j100", root.Props.Contents)
		assert.Equal(t, "0.2157 0.3412 0.6431 rg /HelvBld 3.90 Tf", root.Props.DA)
		assert.Contains(t, string(root.Form.Content), "(j100) Tj")
		assert.Contains(t, string(root.Form.Content), "/HelvBld 3.90 Tf")

		container := g.Components[2]
		assert.InDeltaSlice(t, []float64{111, 208.2, 139, 241.8}, container.Rect[:], 1e-9)
		assert.Equal(t, "0 0 0 rg /HelvBld 1 Tf", container.Props.DA)
		assert.Empty(t, container.Form.Content)

		circle := g.Components[3]
		assert.Equal(t, SubtypeCircle, circle.Subtype)
		assert.InDeltaSlice(t, []float64{111.336, 214.136, 138.664, 241.464}, circle.Rect[:], 1e-9)
		assert.Equal(t, []float64{0.2157, 0.3412, 0.6431}, circle.Props.Interior)
		assert.Equal(t, 0.375, circle.Props.Fringe)
		assert.True(t, strings.HasSuffix(string(circle.Form.Content), "h B"))

		box := g.Components[1]
		assert.Equal(t, []float64{1, 1, 1}, box.Props.Interior)
		assert.Equal(t, 0.35, box.Props.BorderWidth)
		assert.Contains(t, string(box.Form.Content), "0.35 w")

		for _, c := range g.Components {
			require.NotNil(t, c.Form.Matrix, c.Role)
			assert.Equal(t, c.Rect, c.Form.BBox)
			assert.Equal(t, -c.Rect[0], c.Form.Matrix[4])
			assert.Equal(t, -c.Rect[1], c.Form.Matrix[5])
		}
	})

	t.Run("with image", func(t *testing.T) {
		dir := t.TempDir()
		writeGear(t, dir, "APs/AP - Cisco MR36H.png")
		g := New(dir).Compound(resolve(t, "AP - Cisco MR36H"), "j100", 125, 225)
		assert.Len(t, g.Components, 7)
		require.NotNil(t, g.Image)

		img := g.Components[4]
		assert.Equal(t, RoleImage, img.Role)
		assert.True(t, img.Form.UsesImage)
		assert.Equal(t, []float64{1, 0, 0}, img.Props.Stroke)
		assert.Contains(t, string(img.Form.Content), "/Img Do Q")
	})

	t.Run("no label hides the box", func(t *testing.T) {
		g := New(t.TempDir()).Compound(resolve(t, "FIBER"), "", 0, 0)
		assert.Equal(t, []Role{RoleRootIDText, RoleContainer, RoleCircle, RoleModelText}, roles(g))
		assert.Equal(t, "", g.Root().Props.Contents)
		assert.True(t, g.Root().Props.HasContents)
		assert.Contains(t, string(g.Root().Form.Content), "() Tj")
	})
}

func TestFlatten(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img := Flatten(src, iconstyle.Color{0.2157, 0.3412, 0.6431})
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 1, img.Height)
	assert.Equal(t, []byte{255, 0, 0, 55, 87, 163}, img.RGB)

	big := image.NewNRGBA(image.Rect(0, 0, 1024, 256))
	img = Flatten(big, iconstyle.Color{})
	assert.Equal(t, MaxImageSide, img.Width)
	assert.Equal(t, 128, img.Height)
	assert.Len(t, img.RGB, MaxImageSide*128*3)
}

func TestImageLoaderCache(t *testing.T) {
	dir := t.TempDir()
	writeGear(t, dir, "x.png")
	l := NewImageLoader(dir)

	a, err := l.Load("x.png", iconstyle.Color{})
	require.NoError(t, err)
	b, err := l.Load("x.png", iconstyle.Color{})
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := l.Load("x.png", iconstyle.Color{1, 1, 1})
	require.NoError(t, err)
	assert.NotSame(t, a, c)

	_, err = l.Load("missing.png", iconstyle.Color{})
	assert.Error(t, err)
	assert.False(t, l.Exists("missing.png"))
	assert.True(t, l.Exists("x.png"))
}

func TestImageLoaderStaysInDir(t *testing.T) {
	root := t.TempDir()
	writeGear(t, root, "secret.png")
	gear := filepath.Join(root, "gear")
	require.NoError(t, os.MkdirAll(gear, 0755))
	l := NewImageLoader(gear)

	for _, rel := range []string{"../secret.png", "APs/../../secret.png", filepath.Join(root, "secret.png"), ""} {
		t.Run(rel, func(t *testing.T) {
			assert.False(t, l.Exists(rel))
			_, err := l.Load(rel, iconstyle.Color{})
			assert.ErrorIs(t, err, ErrImagePath)
		})
	}

	assert.True(t, LocalPath("APs/AP - Cisco MR36H.png"))
	assert.False(t, LocalPath("/etc/passwd"))
}
