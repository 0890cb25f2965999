package iconstyle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bidmap-converter/backend/internal/logging"
)

const storeVersion = 1

type storeMeta struct {
	Version      int    `json:"version"`
	LastModified string `json:"last_modified,omitempty"`
}

type storeDocument struct {
	Meta  storeMeta            `json:"_meta"`
	Icons map[string]Overrides `json:"icons"`
}

// Store persists per-subject overrides in a JSON file. Writes go through a
// temporary file and a rename.
type Store struct {
	path    string
	catalog *Catalog

	mu  sync.Mutex
	now func() time.Time
}

// NewStore returns a store backed by path. catalog seeds new entries built by
// ApplyToMultiple and may be nil for the builtin catalog.
func NewStore(path string, catalog *Catalog) *Store {
	if catalog == nil {
		catalog = Builtin()
	}
	return &Store{path: path, catalog: catalog, now: time.Now}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// load reads the document. A missing or corrupt file yields an empty one.
func (s *Store) load() storeDocument {
	doc := storeDocument{Meta: storeMeta{Version: storeVersion}, Icons: map[string]Overrides{}}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.New("iconstyle").Errorf("Failed to read icon overrides: %v", err)
		}
		return doc
	}
	var parsed storeDocument
	if err := json.Unmarshal(data, &parsed); err != nil {
		logging.New("iconstyle").Errorf("Failed to load icon overrides: %v", err)
		return doc
	}
	if parsed.Icons == nil {
		parsed.Icons = map[string]Overrides{}
	}
	return parsed
}

func (s *Store) save(doc storeDocument) error {
	doc.Meta = storeMeta{
		Version:      storeVersion,
		LastModified: s.now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding overrides: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating override directory: %w", err)
	}
	tmp := strings.TrimSuffix(s.path, filepath.Ext(s.path)) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing overrides: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing overrides: %w", err)
	}
	return nil
}

// Get returns the persisted overrides of subject.
func (s *Store) Get(subject string) (Overrides, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.load().Icons[subject]
	return o, ok
}

// Set replaces the persisted overrides of subject.
func (s *Store) Set(subject string, o Overrides) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	doc.Icons[subject] = o
	return s.save(doc)
}

// Delete removes subject and reports whether it was present.
func (s *Store) Delete(subject string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	if _, ok := doc.Icons[subject]; !ok {
		return false, nil
	}
	delete(doc.Icons, subject)
	return true, s.save(doc)
}

// List returns the subjects with persisted overrides, sorted.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	out := make([]string, 0, len(doc.Icons))
	for subject := range doc.Icons {
		out = append(out, subject)
	}
	sort.Strings(out)
	return out
}

// LastModified returns the timestamp recorded by the last write, if any.
func (s *Store) LastModified() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load().Meta.LastModified
}

// BuildFullConfig returns a complete override set for subject with partial
// applied on top. The starting point is the persisted entry, then the
// catalog style, then the defaults of partial's category (Misc when unset).
func (s *Store) BuildFullConfig(subject string, partial Overrides) Overrides {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildFull(s.load(), subject, partial)
}

func (s *Store) buildFull(doc storeDocument, subject string, partial Overrides) Overrides {
	d := draft{}
	if existing, ok := doc.Icons[subject]; ok {
		if layers, ok := s.catalog.layers(subject); ok {
			for _, l := range layers {
				d.apply(l)
			}
		} else if base, ok := s.catalog.CategoryDefaults(categoryOf(existing, "Misc")); ok {
			d.Style = base
		}
		d.apply(&existing)
	} else if layers, ok := s.catalog.layers(subject); ok {
		for _, l := range layers {
			d.apply(l)
		}
	} else {
		category := categoryOf(partial, "Misc")
		if !s.catalog.HasCategory(category) {
			category = "Misc"
		}
		base, _ := s.catalog.CategoryDefaults(category)
		d.Style = base
		d.ImagePath = ""
	}
	d.apply(&partial)
	return Full(d.finish(subject))
}

// ApplyToMultiple merges updates into each subject's full config and persists
// them in one write. It returns the number of subjects updated.
func (s *Store) ApplyToMultiple(subjects []string, updates Overrides) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	count := 0
	for _, subject := range subjects {
		doc.Icons[subject] = s.buildFull(doc, subject, updates)
		count++
	}
	if count == 0 {
		return 0, nil
	}
	if err := s.save(doc); err != nil {
		return 0, err
	}
	return count, nil
}

func categoryOf(o Overrides, fallback string) string {
	if o.Category != nil && *o.Category != "" {
		return *o.Category
	}
	return fallback
}
