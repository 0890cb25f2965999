// Package layers clones the optional content (layer) structure of a
// reference map into converted documents.
package layers

import (
	"errors"
	"fmt"
	"os"

	"github.com/bidmap-converter/backend/internal/logging"
	"github.com/bidmap-converter/backend/internal/pdfdoc"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var logger = logging.New("layers")

var (
	errNoProperties = errors.New("reference has no /OCProperties")
	errNoGroups     = errors.New("cloned /OCProperties has no /OCGs")
)

// Table maps layer names to optional content groups of one destination
// document. It is read-only once built; the zero value matches nothing.
type Table struct {
	refs  map[string]types.IndirectRef
	count int
}

// Lookup returns the group named after a deployment subject.
func (t *Table) Lookup(subject string) (types.IndirectRef, bool) {
	if t == nil {
		return types.IndirectRef{}, false
	}
	ref, ok := t.refs[subject]
	return ref, ok
}

// Loaded reports whether layers were cloned.
func (t *Table) Loaded() bool {
	return t != nil && t.refs != nil
}

// Count returns the number of cloned groups.
func (t *Table) Count() int {
	if t == nil {
		return 0
	}
	return t.count
}

// Names returns the number of distinct layer names.
func (t *Table) Names() int {
	if t == nil {
		return 0
	}
	return len(t.refs)
}

// Cloner copies /OCProperties from a reference PDF.
type Cloner struct {
	path string
}

// NewCloner returns a cloner reading the reference at path.
func NewCloner(path string) *Cloner {
	return &Cloner{path: path}
}

// Apply copies the reference layer structure into dst and returns the name
// table. Any failure is logged and yields an empty table; dst is left
// without /OCProperties in that case.
func (c *Cloner) Apply(dst *pdfdoc.Document) *Table {
	if c == nil || c.path == "" {
		return &Table{}
	}
	t, err := c.apply(dst)
	if err != nil {
		logger.Warnf("layers not applied: %v", err)
		return &Table{}
	}
	logger.Infof("applied %d layers (%d unique names)", t.count, len(t.refs))
	return t
}

func (c *Cloner) apply(dst *pdfdoc.Document) (*Table, error) {
	if _, err := os.Stat(c.path); err != nil {
		return nil, fmt.Errorf("layer reference: %w", err)
	}
	src, err := pdfdoc.Open(c.path)
	if err != nil {
		return nil, err
	}
	srcCatalog, err := src.Catalog()
	if err != nil {
		return nil, fmt.Errorf("reference catalog: %w", err)
	}
	props, ok := src.Dict(srcCatalog["OCProperties"])
	if !ok {
		return nil, errNoProperties
	}

	cloned, err := pdfdoc.NewCopier(dst, src).CopyDict(props)
	if err != nil {
		return nil, fmt.Errorf("cloning layers: %w", err)
	}
	ocgs, ok := dst.Array(cloned["OCGs"])
	if !ok || len(ocgs) == 0 {
		return nil, errNoGroups
	}

	t := &Table{refs: make(map[string]types.IndirectRef), count: len(ocgs)}
	for _, o := range ocgs {
		ref, ok := o.(types.IndirectRef)
		if !ok {
			continue
		}
		group, ok := dst.Dict(ref)
		if !ok {
			continue
		}
		name, _ := pdfdoc.Text(group["Name"])
		if name == "" {
			continue
		}
		t.refs[name] = ref
	}

	catalog, err := dst.Catalog()
	if err != nil {
		return nil, fmt.Errorf("destination catalog: %w", err)
	}
	catalog["OCProperties"] = cloned
	return t, nil
}
