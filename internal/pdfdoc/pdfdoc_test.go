package pdfdoc

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/bidmap-converter/backend/internal/render"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	circleAnnot = `<< /Type /Annot /Subtype /Circle /Rect [100 200 150 250] /Subj (Artist - Indoor Wi-Fi Access Point) /Contents (note) >>`
	replyAnnot  = `<< /Type /Annot /Subtype /Square /Rect [1 2 3 4] /Subj <FEFF0043006100660065> /IRT 5 0 R >>`
	brokenRect  = `<< /Type /Annot /Subtype /Circle /Rect [1 2 3] /Subj (Broken) >>`
)

func readSingle(t *testing.T, annots []string, extra string) *Document {
	t.Helper()
	doc, err := ReadBytes(SinglePage(612, 792, annots, extra))
	require.NoError(t, err)
	return doc
}

func TestReadSinglePage(t *testing.T) {
	doc := readSingle(t, nil, "")
	assert.Equal(t, 1, doc.PageCount())

	page, err := doc.Page(1)
	require.NoError(t, err)
	assert.Equal(t, "Page", Name(page, "Type"))

	_, err = doc.Page(2)
	assert.ErrorIs(t, err, ErrNoPage)
}

func TestAnnotations(t *testing.T) {
	doc := readSingle(t, []string{circleAnnot, replyAnnot, brokenRect}, "")
	page, err := doc.Page(1)
	require.NoError(t, err)

	annots := doc.Annotations(page)
	require.Len(t, annots, 3)

	a := annots[0]
	assert.Equal(t, "Circle", a.Subtype)
	assert.Equal(t, "Artist - Indoor Wi-Fi Access Point", a.Subject)
	assert.Equal(t, "note", a.Contents)
	assert.True(t, a.RectOK)
	assert.False(t, a.HasIRT)
	assert.NotNil(t, a.Ref)
	cx, cy := a.Center()
	assert.Equal(t, 125.0, cx)
	assert.Equal(t, 225.0, cy)

	assert.Equal(t, "Cafe", annots[1].Subject)
	assert.True(t, annots[1].HasIRT)

	assert.False(t, annots[2].RectOK)
}

func TestTextObject(t *testing.T) {
	ascii := TextObject("a(b)")
	assert.Equal(t, types.StringLiteral(`a\(b\)`), ascii)
	s, ok := Text(ascii)
	require.True(t, ok)
	assert.Equal(t, "a(b)", s)

	uni := TextObject("Café")
	_, isHex := uni.(types.HexLiteral)
	assert.True(t, isHex)
	s, ok = Text(uni)
	require.True(t, ok)
	assert.Equal(t, "Café", s)
}

func TestNumbers(t *testing.T) {
	nums, ok := Numbers(types.Array{types.Integer(1), types.Float(2.5)})
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2.5}, nums)

	_, ok = Numbers(types.Array{types.Name("x")})
	assert.False(t, ok)
}

func TestAddFormAndWrite(t *testing.T) {
	doc := readSingle(t, nil, "")

	imgRef, err := doc.AddImage(&render.Image{Width: 1, Height: 1, RGB: []byte{1, 2, 3}})
	require.NoError(t, err)

	form := render.Form{
		BBox:      render.Rect{0, 0, 25, 30},
		Matrix:    &[6]float64{1, 0, 0, 1, 10, 20},
		Font:      render.FontHelvBld,
		UsesImage: true,
		Content:   []byte("q /Img Do Q"),
	}
	formRef, err := doc.AddForm(form, imgRef)
	require.NoError(t, err)

	page, err := doc.Page(1)
	require.NoError(t, err)
	annot, err := doc.Add(types.Dict{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name("Square"),
		"Rect":    Floats(0, 0, 25, 30),
		"AP":      types.Dict{"N": *formRef},
	})
	require.NoError(t, err)
	SetAnnots(page, types.Array{*annot})

	out := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, doc.WriteFile(out))

	again, err := Open(out)
	require.NoError(t, err)
	page, err = again.Page(1)
	require.NoError(t, err)
	annots := again.Annotations(page)
	require.Len(t, annots, 1)

	ap, ok := again.Dict(annots[0].Dict["AP"])
	require.True(t, ok)
	fd, ok := again.Dict(ap["N"])
	require.True(t, ok)
	assert.Equal(t, "Form", Name(fd, "Subtype"))
	res, ok := again.Dict(fd["Resources"])
	require.True(t, ok)
	xobj, ok := again.Dict(res["XObject"])
	require.True(t, ok)
	img, ok := again.Dict(xobj[render.ImageName])
	require.True(t, ok)
	assert.Equal(t, "Image", Name(img, "Subtype"))
}

func TestFree(t *testing.T) {
	doc := readSingle(t, nil, "")

	ref, err := doc.Add(types.Dict{"Type": types.Name("Annot")})
	require.NoError(t, err)
	require.NoError(t, doc.Free(*ref))

	entry := doc.Context().Table[int(ref.ObjectNumber)]
	require.NotNil(t, entry)
	assert.True(t, entry.Free)
	assert.Nil(t, entry.Object)

	require.NoError(t, doc.WriteFile(filepath.Join(t.TempDir(), "out.pdf")))
	assert.Error(t, doc.Free(types.IndirectRef{ObjectNumber: 9999}))
}

func TestAddImageRejectsShortData(t *testing.T) {
	doc := readSingle(t, nil, "")
	_, err := doc.AddImage(&render.Image{Width: 2, Height: 2, RGB: []byte{1}})
	assert.Error(t, err)
}

func TestCopier(t *testing.T) {
	var b Builder
	catalog := b.Add("")
	pages := b.Add("")
	page := b.Add("")
	ocg1 := b.Add("<< /Type /OCG /Name (Access Points) >>")
	ocg2 := b.Add("<< /Type /OCG /Name (Cameras) >>")
	props := fmt.Sprintf("/OCProperties << /OCGs [%d 0 R %d 0 R] /D << /Order [%d 0 R %d 0 R] /ON [%d 0 R] >> >>",
		ocg1, ocg2, ocg1, ocg2, ocg1)
	b.Set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R %s >>", pages, props))
	b.Set(pages, fmt.Sprintf("<< /Type /Pages /Kids [%d 0 R] /Count 1 >>", page))
	b.Set(page, fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 10 10] >>", pages))

	src, err := ReadBytes(b.Bytes(catalog))
	require.NoError(t, err)
	dst := readSingle(t, nil, "")

	srcCat, err := src.Catalog()
	require.NoError(t, err)
	srcProps, ok := src.Dict(srcCat["OCProperties"])
	require.True(t, ok)

	c := NewCopier(dst, src)
	copied, err := c.CopyDict(srcProps)
	require.NoError(t, err)

	ocgs, ok := dst.Array(copied["OCGs"])
	require.True(t, ok)
	require.Len(t, ocgs, 2)

	// Shared references map to one copy.
	d, ok := dst.Dict(copied["D"])
	require.True(t, ok)
	order, ok := dst.Array(d["Order"])
	require.True(t, ok)
	assert.Equal(t, ocgs[0], order[0])
	assert.Equal(t, ocgs[1], order[1])

	first, ok := dst.Dict(ocgs[0])
	require.True(t, ok)
	name, ok := Text(first["Name"])
	require.True(t, ok)
	assert.Equal(t, "Access Points", name)

	dstCat, err := dst.Catalog()
	require.NoError(t, err)
	dstCat["OCProperties"] = copied
	var buf bytes.Buffer
	require.NoError(t, dst.Write(&buf))

	again, err := ReadBytes(buf.Bytes())
	require.NoError(t, err)
	cat, err := again.Catalog()
	require.NoError(t, err)
	_, ok = again.Dict(cat["OCProperties"])
	assert.True(t, ok)
}
