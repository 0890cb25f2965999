// Package ids hands out sequential device identifiers such as "j100" or
// "100a" for deployment subjects.
package ids

import (
	_ "embed"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Format selects where the prefix goes in a label.
type Format string

const (
	PrefixFirst Format = "prefix_first"
	NumberFirst Format = "number_first"
)

// Prefix configures the identifiers of one subject.
type Prefix struct {
	Prefix string `yaml:"prefix" json:"prefix"`
	Start  int    `yaml:"start" json:"start"`
	Format Format `yaml:"format" json:"format,omitempty"`
}

// Key is the counter key. Subjects with equal keys share a sequence.
func (p Prefix) Key() string {
	return p.Prefix + "_" + strconv.Itoa(p.Start)
}

// Label formats n according to the prefix format.
func (p Prefix) Label(n int) string {
	if p.Format == NumberFirst {
		return strconv.Itoa(n) + p.Prefix
	}
	return p.Prefix + strconv.Itoa(n)
}

//go:embed prefixes.yaml
var prefixesYAML []byte

var defaultTable map[string]Prefix

func init() {
	t, err := ParseTable(prefixesYAML)
	if err != nil {
		panic(fmt.Sprintf("ids: embedded prefixes: %v", err))
	}
	defaultTable = t
}

// ParseTable decodes a YAML prefix table.
func ParseTable(data []byte) (map[string]Prefix, error) {
	var doc struct {
		Prefixes map[string]Prefix `yaml:"prefixes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing prefix table: %w", err)
	}
	for subject, p := range doc.Prefixes {
		if p.Prefix == "" {
			return nil, fmt.Errorf("subject %q: empty prefix", subject)
		}
		if p.Format == "" {
			p.Format = PrefixFirst
			doc.Prefixes[subject] = p
		}
	}
	return doc.Prefixes, nil
}

// DefaultTable returns the built-in prefix table. Callers must not modify it.
func DefaultTable() map[string]Prefix {
	return defaultTable
}

// Lookup returns the built-in prefix of subject.
func Lookup(subject string) (Prefix, bool) {
	p, ok := defaultTable[subject]
	return p, ok
}

// Assigner keeps the counters of one conversion run. It is not safe for
// concurrent use; each run owns its own.
type Assigner struct {
	table    map[string]Prefix
	counters map[string]int
}

// NewAssigner returns an assigner over table, or the built-in table when
// table is nil.
func NewAssigner(table map[string]Prefix) *Assigner {
	if table == nil {
		table = defaultTable
	}
	return &Assigner{table: table, counters: make(map[string]int)}
}

// NextID returns the next label for subject. ok is false for subjects with
// no configured prefix.
func (a *Assigner) NextID(subject string) (label string, ok bool) {
	p, ok := a.table[subject]
	if !ok {
		return "", false
	}
	key := p.Key()
	n, seen := a.counters[key]
	if seen {
		n++
	} else {
		n = p.Start
	}
	a.counters[key] = n
	return p.Label(n), true
}

// Release hands back label when it is the most recent one issued for
// subject, so the next NextID returns it again. Older labels stay used.
func (a *Assigner) Release(subject, label string) bool {
	p, ok := a.table[subject]
	if !ok {
		return false
	}
	key := p.Key()
	n, seen := a.counters[key]
	if !seen || p.Label(n) != label {
		return false
	}
	if n == p.Start {
		delete(a.counters, key)
	} else {
		a.counters[key] = n - 1
	}
	return true
}

// Reset clears all counters.
func (a *Assigner) Reset() {
	a.counters = make(map[string]int)
}

// Counts returns a copy of the current counter values keyed by
// "prefix_start".
func (a *Assigner) Counts() map[string]int {
	out := make(map[string]int, len(a.counters))
	for k, v := range a.counters {
		out[k] = v
	}
	return out
}
