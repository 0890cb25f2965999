package convert

import (
	"fmt"

	"github.com/bidmap-converter/backend/internal/ids"
	"github.com/bidmap-converter/backend/internal/layers"
	"github.com/bidmap-converter/backend/internal/pdfdoc"
	"github.com/bidmap-converter/backend/internal/render"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// objectStore is the part of the document that takes new objects.
type objectStore interface {
	Add(o types.Object) (*types.IndirectRef, error)
	AddForm(f render.Form, imgRef *types.IndirectRef) (*types.IndirectRef, error)
	AddImage(img *render.Image) (*types.IndirectRef, error)
	Free(refs ...types.IndirectRef) error
}

// run is the state of one conversion. Nothing in it outlives the call.
type run struct {
	e      *Engine
	doc    *pdfdoc.Document
	objs   objectStore
	ids    *ids.Assigner
	layers *layers.Table
	runID  string
	seq    int
	images map[*render.Image]types.IndirectRef
}

func (e *Engine) newRun(doc *pdfdoc.Document) *run {
	return &run{
		e:      e,
		doc:    doc,
		objs:   doc,
		ids:    ids.NewAssigner(e.opts.IDPrefixes),
		layers: e.opts.Layers.Apply(doc),
		runID:  newRunID(),
		images: make(map[*render.Image]types.IndirectRef),
	}
}

// page rebuilds the annotation array of page in one pass.
func (r *run) page(page types.Dict) Result {
	res := Result{SkippedSubjects: []string{}}
	annots := r.doc.Annotations(page)
	rebuilt := make(types.Array, 0, len(annots))

	for _, a := range annots {
		act, deployment, skipped := r.e.classify(a)
		switch act {
		case actionDelete:
			logger.Debugf("removing marker annotation %q", a.Subject)
		case actionDropChild:
			logger.Debugf("dropping group child %q", a.Subject)
		case actionKeep:
			rebuilt = append(rebuilt, a.Entry)
			if skipped {
				subject := a.Subject
				if subject == "" {
					subject = EmptySubject
				}
				res.skip(subject)
			}
		case actionConvert:
			refs, err := r.convert(a, deployment)
			if err != nil {
				logger.Errorf("converting %q: %v", a.Subject, err)
				rebuilt = append(rebuilt, a.Entry)
				res.skip(a.Subject)
				continue
			}
			rebuilt = append(rebuilt, refs...)
			res.Converted++
			logger.Debugf("converted %q to %q", a.Subject, deployment)
		}
	}

	pdfdoc.SetAnnots(page, rebuilt)
	return res
}

// convert emits the replacement for one annotation. A panic anywhere below
// is turned into an error so the original can be kept. A failed conversion
// gives its device ID back.
func (r *run) convert(a pdfdoc.Annotation, deployment string) (refs types.Array, err error) {
	var label string
	var assigned bool
	defer func() {
		if err != nil && assigned {
			r.ids.Release(deployment, label)
		}
	}()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	if !a.RectOK {
		return nil, fmt.Errorf("invalid rectangle")
	}
	cx, cy := a.Center()
	label, assigned = r.ids.NextID(deployment)

	if r.e.opts.Mode == render.Compound && r.e.opts.Renderer != nil && r.e.opts.Resolver != nil {
		if style, ok := r.e.opts.Resolver.Resolve(deployment, nil); ok {
			group := r.e.opts.Renderer.Compound(style, label, cx, cy)
			return r.writeGroup(group, deployment)
		}
	}
	ref, err := r.writeFallback(a, deployment, label, cx, cy)
	if err != nil {
		return nil, err
	}
	return types.Array{*ref}, nil
}

func (r *run) layer(annot types.Dict, subject string) {
	if ref, ok := r.layers.Lookup(subject); ok {
		annot["OC"] = ref
	}
}

// image returns the shared XObject for img, adding it on first use.
func (r *run) image(img *render.Image) (*types.IndirectRef, error) {
	if img == nil {
		return nil, nil
	}
	if ref, ok := r.images[img]; ok {
		return &ref, nil
	}
	ref, err := r.objs.AddImage(img)
	if err != nil {
		return nil, err
	}
	r.images[img] = *ref
	return ref, nil
}
