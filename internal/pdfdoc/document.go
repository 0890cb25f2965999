// Package pdfdoc wraps the pdfcpu object model with the few operations the
// converter needs: reading a document, walking a page's annotations, adding
// form and image XObjects, deep-copying objects between documents and
// writing the result.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func init() {
	// pdfcpu otherwise creates a config directory under the user's home.
	api.DisableConfigDir()
}

// ErrNoPage is returned when a requested page does not exist.
var ErrNoPage = errors.New("page not found")

// Document is an open PDF. It is not safe for concurrent use.
type Document struct {
	ctx *model.Context
}

func configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Read parses a PDF from rs.
func Read(rs io.ReadSeeker) (*Document, error) {
	ctx, err := api.ReadContext(rs, configuration())
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}
	return &Document{ctx: ctx}, nil
}

// ReadBytes parses an in-memory PDF.
func ReadBytes(data []byte) (*Document, error) {
	return Read(bytes.NewReader(data))
}

// Open reads the PDF at path.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Context exposes the underlying pdfcpu context.
func (d *Document) Context() *model.Context {
	return d.ctx
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// Page returns the dictionary of page n (1-based). The returned map is the
// stored object, so changes to it are written out.
func (d *Document) Page(n int) (types.Dict, error) {
	if n < 1 || n > d.ctx.PageCount {
		return nil, fmt.Errorf("%w: %d", ErrNoPage, n)
	}
	dict, _, _, err := d.ctx.PageDict(n, false)
	if err != nil {
		return nil, fmt.Errorf("loading page %d: %w", n, err)
	}
	if dict == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoPage, n)
	}
	return dict, nil
}

// Catalog returns the document catalog.
func (d *Document) Catalog() (types.Dict, error) {
	return d.ctx.Catalog()
}

// Resolve follows indirect references.
func (d *Document) Resolve(o types.Object) (types.Object, error) {
	return d.ctx.Dereference(o)
}

// Dict resolves o to a dictionary. Stream dictionaries yield their dict.
func (d *Document) Dict(o types.Object) (types.Dict, bool) {
	obj, err := d.ctx.Dereference(o)
	if err != nil || obj == nil {
		return nil, false
	}
	switch v := obj.(type) {
	case types.Dict:
		return v, true
	case types.StreamDict:
		return v.Dict, true
	}
	return nil, false
}

// Array resolves o to an array.
func (d *Document) Array(o types.Object) (types.Array, bool) {
	obj, err := d.ctx.Dereference(o)
	if err != nil || obj == nil {
		return nil, false
	}
	a, ok := obj.(types.Array)
	return a, ok
}

// Add stores o as a new indirect object.
func (d *Document) Add(o types.Object) (*types.IndirectRef, error) {
	ref, err := d.ctx.IndRefForNewObject(o)
	if err != nil {
		return nil, fmt.Errorf("adding object: %w", err)
	}
	return ref, nil
}

// Free releases objects added by Add that ended up unreferenced. Their
// numbers go back on the free list.
func (d *Document) Free(refs ...types.IndirectRef) error {
	for _, ref := range refs {
		if err := d.ctx.FreeObject(int(ref.ObjectNumber)); err != nil {
			return fmt.Errorf("freeing object %d: %w", ref.ObjectNumber, err)
		}
	}
	return nil
}

// reserve allocates an object number to be filled in later with fill.
func (d *Document) reserve() (*types.IndirectRef, error) {
	return d.Add(nil)
}

func (d *Document) fill(ref *types.IndirectRef, o types.Object) error {
	entry, ok := d.ctx.Table[int(ref.ObjectNumber)]
	if !ok || entry == nil {
		return fmt.Errorf("object %d not allocated", ref.ObjectNumber)
	}
	entry.Object = o
	return nil
}

// AddStream stores a Flate-compressed stream with the given dictionary.
func (d *Document) AddStream(dict types.Dict, data []byte) (*types.IndirectRef, error) {
	if dict == nil {
		dict = types.Dict{}
	}
	dict["Filter"] = types.Name("FlateDecode")
	sd := types.StreamDict{
		Dict:           dict,
		Content:        data,
		FilterPipeline: []types.PDFFilter{{Name: "FlateDecode"}},
	}
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("encoding stream: %w", err)
	}
	return d.Add(sd)
}

// Write serializes the document to w.
func (d *Document) Write(w io.Writer) error {
	if err := api.WriteContext(d.ctx, w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

// WriteFile writes the document to path through a temporary file in the
// same directory.
func (d *Document) WriteFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pdfdoc-*.pdf")
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := d.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("moving output: %w", err)
	}
	return nil
}
