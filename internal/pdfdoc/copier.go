package pdfdoc

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Copier deep-copies objects from one document into another. Each source
// object is copied at most once; references are translated to the new
// object numbers. The target number is allocated before the object body is
// copied, so reference cycles terminate.
type Copier struct {
	src, dst *Document
	trans    map[int]types.IndirectRef
	// Skip lists dictionary keys that are dropped while copying, such as
	// back references to pages that should not be dragged along.
	Skip map[string]bool
}

// NewCopier returns a Copier from src to dst.
func NewCopier(dst, src *Document) *Copier {
	return &Copier{
		src:   src,
		dst:   dst,
		trans: make(map[int]types.IndirectRef),
		Skip:  map[string]bool{"P": true, "Parent": true},
	}
}

// Copy returns a copy of o that is valid in the target document.
func (c *Copier) Copy(o types.Object) (types.Object, error) {
	switch v := o.(type) {
	case types.IndirectRef:
		return c.CopyRef(v)
	case *types.IndirectRef:
		if v == nil {
			return nil, nil
		}
		return c.CopyRef(*v)
	case types.Dict:
		return c.CopyDict(v)
	case types.Array:
		out := make(types.Array, 0, len(v))
		for _, e := range v {
			ce, err := c.Copy(e)
			if err != nil {
				return nil, err
			}
			out = append(out, ce)
		}
		return out, nil
	case types.StreamDict:
		return c.copyStream(v)
	}
	return o, nil
}

// CopyDict copies a dictionary, honoring Skip.
func (c *Copier) CopyDict(d types.Dict) (types.Dict, error) {
	out := make(types.Dict, len(d))
	for k, v := range d {
		if c.Skip[k] {
			continue
		}
		cv, err := c.Copy(v)
		if err != nil {
			return nil, fmt.Errorf("copying /%s: %w", k, err)
		}
		if cv != nil {
			out[k] = cv
		}
	}
	return out, nil
}

// CopyRef copies the object behind ref and returns its new reference.
func (c *Copier) CopyRef(ref types.IndirectRef) (types.IndirectRef, error) {
	nr := ref.ObjectNumber.Value()
	if done, ok := c.trans[nr]; ok {
		return done, nil
	}
	newRef, err := c.dst.reserve()
	if err != nil {
		return types.IndirectRef{}, err
	}
	c.trans[nr] = *newRef

	obj, err := c.src.Resolve(ref)
	if err != nil {
		return types.IndirectRef{}, fmt.Errorf("resolving object %d: %w", nr, err)
	}
	copied, err := c.Copy(obj)
	if err != nil {
		return types.IndirectRef{}, err
	}
	if copied == nil {
		copied = types.Dict{}
	}
	if err := c.dst.fill(newRef, copied); err != nil {
		return types.IndirectRef{}, err
	}
	return *newRef, nil
}

func (c *Copier) copyStream(sd types.StreamDict) (types.Object, error) {
	src := make(types.Dict, len(sd.Dict))
	for k, v := range sd.Dict {
		if k != "Length" {
			src[k] = v
		}
	}
	dict, err := c.CopyDict(src)
	if err != nil {
		return nil, err
	}
	out := types.StreamDict{
		Dict:           dict,
		Raw:            sd.Raw,
		Content:        sd.Content,
		FilterPipeline: sd.FilterPipeline,
	}
	if out.Raw == nil && out.Content != nil {
		if err := out.Encode(); err != nil {
			return nil, fmt.Errorf("encoding stream: %w", err)
		}
	}
	n := int64(len(out.Raw))
	out.StreamLength = &n
	out.Dict["Length"] = types.Integer(n)
	return out, nil
}
