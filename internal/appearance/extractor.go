// Package appearance reads native annotation colors from a reference
// deployment map so converted icons can match it.
package appearance

import (
	"sort"
	"strings"
	"sync"

	"github.com/bidmap-converter/backend/internal/logging"
	"github.com/bidmap-converter/backend/internal/pdfdoc"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var logger = logging.New("appearance")

// Colors are the native color entries of one reference annotation.
type Colors struct {
	Subject string
	Subtype string
	// Fill is /IC and Stroke is /C; either may be nil.
	Fill    []float64
	Stroke  []float64
	Opacity float64
}

// Extractor indexes reference annotations by subject.
type Extractor struct {
	mu     sync.RWMutex
	colors map[string]Colors
	loaded bool
}

// NewExtractor returns an empty extractor.
func NewExtractor() *Extractor {
	return &Extractor{colors: make(map[string]Colors)}
}

// Load replaces the index with the annotations of the PDF at path and
// returns how many subjects were found. A missing or unreadable file leaves
// the extractor empty.
func (e *Extractor) Load(path string) int {
	colors := make(map[string]Colors)
	doc, err := pdfdoc.Open(path)
	if err != nil {
		logger.Warnf("reference map unavailable, using default colors: %v", err)
		e.swap(colors, false)
		return 0
	}

	for n := 1; n <= doc.PageCount(); n++ {
		page, err := doc.Page(n)
		if err != nil {
			logger.Debugf("skipping page %d: %v", n, err)
			continue
		}
		for _, a := range doc.Annotations(page) {
			if a.Dict == nil {
				continue
			}
			subject := strings.TrimSpace(a.Subject)
			if subject == "" {
				if o, err := doc.Resolve(a.Dict["Subject"]); err == nil && o != nil {
					subject, _ = pdfdoc.Text(o)
					subject = strings.TrimSpace(subject)
				}
			}
			if subject == "" {
				continue
			}
			if _, seen := colors[subject]; seen {
				continue
			}
			if _, ok := a.Dict["AP"]; !ok {
				continue
			}
			colors[subject] = Colors{
				Subject: subject,
				Subtype: a.Subtype,
				Fill:    rgb(doc, a.Dict["IC"]),
				Stroke:  rgb(doc, a.Dict["C"]),
				Opacity: opacity(doc, a.Dict["CA"]),
			}
		}
	}

	e.swap(colors, true)
	logger.Infof("loaded %d reference appearances", len(colors))
	return len(colors)
}

func (e *Extractor) swap(colors map[string]Colors, loaded bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.colors = colors
	e.loaded = loaded
}

func rgb(doc *pdfdoc.Document, o types.Object) []float64 {
	arr, ok := doc.Array(o)
	if !ok || len(arr) != 3 {
		return nil
	}
	nums, ok := pdfdoc.Numbers(arr)
	if !ok {
		return nil
	}
	return nums
}

func opacity(doc *pdfdoc.Document, o types.Object) float64 {
	if o == nil {
		return 1
	}
	v, err := doc.Resolve(o)
	if err != nil {
		return 1
	}
	if f, ok := pdfdoc.Number(v); ok {
		return f
	}
	return 1
}

// Lookup returns the colors recorded for subject.
func (e *Extractor) Lookup(subject string) (Colors, bool) {
	if e == nil {
		return Colors{}, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.colors[subject]
	return c, ok
}

// Subjects returns the indexed subjects in sorted order.
func (e *Extractor) Subjects() []string {
	if e == nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.colors))
	for s := range e.colors {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Loaded reports whether the last Load read a document.
func (e *Extractor) Loaded() bool {
	if e == nil {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loaded
}
