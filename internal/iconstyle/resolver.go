package iconstyle

import (
	"sort"
)

// OverrideSource supplies persisted per-subject overrides.
type OverrideSource interface {
	Get(subject string) (Overrides, bool)
	List() []string
}

// Source tags where a resolved style came from.
type Source string

const (
	SourceCatalog  Source = "catalog"
	SourceOverride Source = "json_override"
	SourceCustom   Source = "custom"
)

// Resolved is a style together with its origin, for listings.
type Resolved struct {
	Style
	Source Source `json:"source"`
}

// Resolver merges the catalog with persisted overrides. It holds no mutable
// state of its own and is safe for concurrent use when its override source
// is.
type Resolver struct {
	catalog   *Catalog
	overrides OverrideSource
}

// NewResolver returns a resolver over catalog. overrides may be nil.
func NewResolver(catalog *Catalog, overrides OverrideSource) *Resolver {
	if catalog == nil {
		catalog = Builtin()
	}
	return &Resolver{catalog: catalog, overrides: overrides}
}

// Catalog returns the catalog the resolver reads.
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// Resolve returns the effective style of subject. adhoc, when non-nil, is
// applied last. A subject that is neither in the catalog nor carried by a
// persisted override with a known category is not found.
func (r *Resolver) Resolve(subject string, adhoc *Overrides) (Style, bool) {
	s, _, ok := r.resolve(subject, adhoc)
	return s, ok
}

func (r *Resolver) resolve(subject string, adhoc *Overrides) (Style, Source, bool) {
	var persisted *Overrides
	if r.overrides != nil {
		if o, ok := r.overrides.Get(subject); ok {
			persisted = &o
		}
	}

	layers, inCatalog := r.catalog.layers(subject)
	source := SourceCatalog
	if !inCatalog {
		if persisted == nil || persisted.Category == nil {
			return Style{}, "", false
		}
		cat, ok := r.catalog.Categories[*persisted.Category]
		if !ok {
			return Style{}, "", false
		}
		layers = []*Overrides{&r.catalog.Base, &cat}
		source = SourceCustom
	} else if persisted != nil {
		source = SourceOverride
	}

	d := draft{}
	for _, l := range layers {
		d.apply(l)
	}
	d.apply(persisted)
	d.apply(adhoc)
	return d.finish(subject), source, true
}

// Subjects returns every resolvable subject, sorted.
func (r *Resolver) Subjects() []string {
	seen := make(map[string]bool)
	for s := range r.catalog.Subjects {
		seen[s] = true
	}
	if r.overrides != nil {
		for _, s := range r.overrides.List() {
			seen[s] = true
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		if _, ok := r.Resolve(s, nil); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// All resolves every subject with its source.
func (r *Resolver) All() []Resolved {
	subjects := r.Subjects()
	out := make([]Resolved, 0, len(subjects))
	for _, s := range subjects {
		style, source, _ := r.resolve(s, nil)
		out = append(out, Resolved{Style: style, Source: source})
	}
	return out
}

// Lookup resolves a single subject with its source.
func (r *Resolver) Lookup(subject string) (Resolved, bool) {
	style, source, ok := r.resolve(subject, nil)
	if !ok {
		return Resolved{}, false
	}
	return Resolved{Style: style, Source: source}, true
}
