// Package convert rewrites the bid annotations of a map into deployment
// icons.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bidmap-converter/backend/internal/appearance"
	"github.com/bidmap-converter/backend/internal/iconstyle"
	"github.com/bidmap-converter/backend/internal/ids"
	"github.com/bidmap-converter/backend/internal/layers"
	"github.com/bidmap-converter/backend/internal/logging"
	"github.com/bidmap-converter/backend/internal/pdfdoc"
	"github.com/bidmap-converter/backend/internal/render"
	"github.com/bidmap-converter/backend/internal/toolchest"
	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var logger = logging.New("convert")

var (
	ErrInputMissing = errors.New("input PDF not found")
	ErrMultiPage    = errors.New("only single-page documents are supported")
)

// MaxSkippedSubjects bounds Result.SkippedSubjects.
const MaxSkippedSubjects = 200

// EmptySubject stands in for annotations without a subject in
// Result.SkippedSubjects.
const EmptySubject = "(empty subject)"

// Fallback icon size and colors.
const (
	DefaultFallbackWidth  = 28.0
	DefaultFallbackHeight = 33.6
	DefaultBorderWidth    = 0.5
)

var (
	DefaultFill   = []float64{0.2157, 0.3412, 0.6431}
	DefaultStroke = []float64{0, 0, 0}
)

// markers flag legend and gear list annotations, which are removed.
var markers = []string{"legend", "gear list"}

// Mapper resolves bid subjects to deployment subjects.
type Mapper interface {
	DeploymentSubject(bid string) (string, bool)
}

// Result summarizes one conversion.
type Result struct {
	Converted       int      `json:"converted" msgpack:"converted"`
	Skipped         int      `json:"skipped" msgpack:"skipped"`
	SkippedSubjects []string `json:"skippedSubjects" msgpack:"skippedSubjects"`
}

func (r *Result) skip(subject string) {
	r.Skipped++
	if len(r.SkippedSubjects) < MaxSkippedSubjects {
		r.SkippedSubjects = append(r.SkippedSubjects, subject)
	}
}

// Options wires the engine's collaborators. Only Mapping is required; every
// other field may be nil and has a fallback.
type Options struct {
	Mapping    Mapper
	Resolver   *iconstyle.Resolver
	Renderer   *render.Renderer
	Extractor  *appearance.Extractor
	Layers     *layers.Cloner
	Toolchest  *toolchest.Reference
	IDPrefixes map[string]ids.Prefix
	Mode       render.Mode

	FallbackWidth  float64
	FallbackHeight float64
}

// Engine converts documents. It holds only read-only collaborators and may
// run conversions concurrently; all mutable state lives in a per-call run.
type Engine struct {
	opts Options
}

// New returns an engine. Zero sizes and an empty mode take their defaults.
func New(opts Options) *Engine {
	if opts.Mode == "" {
		opts.Mode = render.Compound
	}
	if opts.FallbackWidth <= 0 {
		opts.FallbackWidth = DefaultFallbackWidth
	}
	if opts.FallbackHeight <= 0 {
		opts.FallbackHeight = DefaultFallbackHeight
	}
	return &Engine{opts: opts}
}

// Mode returns the configured render mode.
func (e *Engine) Mode() render.Mode {
	return e.opts.Mode
}

// Convert reads input, converts its annotations and writes output. Only
// setup failures are returned as errors; problems with single annotations
// are reported through Result.
func (e *Engine) Convert(ctx context.Context, input, output string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if _, err := os.Stat(input); err != nil {
		if os.IsNotExist(err) {
			return Result{}, fmt.Errorf("%w: %s", ErrInputMissing, input)
		}
		return Result{}, err
	}
	doc, err := pdfdoc.Open(input)
	if err != nil {
		return Result{}, err
	}

	res, err := e.ConvertDocument(ctx, doc)
	if err != nil {
		return res, err
	}
	if err := doc.WriteFile(output); err != nil {
		return res, err
	}
	logger.Infof("saved %s: %d converted, %d skipped", output, res.Converted, res.Skipped)
	return res, nil
}

// ConvertDocument converts doc in place.
func (e *Engine) ConvertDocument(ctx context.Context, doc *pdfdoc.Document) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if doc.PageCount() != 1 {
		return Result{}, fmt.Errorf("%w: document has %d pages", ErrMultiPage, doc.PageCount())
	}
	page, err := doc.Page(1)
	if err != nil {
		return Result{}, err
	}

	r := e.newRun(doc)
	res := r.page(page)
	return res, nil
}

// isMarker reports whether subject labels a legend or gear list.
func isMarker(subject string) bool {
	s := strings.ToLower(subject)
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func convertible(subtype string) bool {
	return subtype == "Circle" || subtype == "Square"
}

// action is the fate of one source annotation.
type action int

const (
	actionKeep action = iota
	actionDelete
	actionDropChild
	actionConvert
)

// classify decides what happens to a. skipped is true when a kept
// annotation counts as skipped.
func (e *Engine) classify(a pdfdoc.Annotation) (act action, deployment string, skipped bool) {
	if a.Dict == nil {
		return actionKeep, "", false
	}
	if isMarker(a.Subject) {
		return actionDelete, "", false
	}
	if strings.TrimSpace(a.Subject) == "" {
		return actionKeep, "", true
	}
	deployment, ok := e.deploymentSubject(a.Subject)
	if !ok {
		return actionKeep, "", true
	}
	if a.HasIRT {
		return actionDropChild, deployment, false
	}
	if !convertible(a.Subtype) {
		return actionKeep, "", true
	}
	return actionConvert, deployment, false
}

func (e *Engine) deploymentSubject(bid string) (string, bool) {
	if e.opts.Mapping == nil {
		return "", false
	}
	d, ok := e.opts.Mapping.DeploymentSubject(bid)
	if !ok || d == "" {
		return "", false
	}
	return d, true
}

// newName returns a 16-character annotation name.
func newName() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
}

// newRunID returns the sequence identifier shared by a run's groups.
func newRunID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func floats(v []float64) types.Array {
	return pdfdoc.Floats(v...)
}
