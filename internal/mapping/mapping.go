// Package mapping loads the bid to deployment subject table from a
// markdown document.
package mapping

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	ErrNoTable   = errors.New("No markdown table found")
	ErrNoRows    = errors.New("No mapping data found")
	ErrDuplicate = errors.New("Duplicate bid subject")
)

// Entry is one row of the table.
type Entry struct {
	Bid        string `json:"bidSubject"`
	Deployment string `json:"deploymentSubject"`
	Category   string `json:"category"`
}

// Table maps bid subjects to deployment subjects. The zero value is an
// empty table.
type Table struct {
	entries map[string]Entry
	order   []string
}

// Load reads and parses the markdown file at path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mapping file: %w", err)
	}
	return Parse(data)
}

// Parse reads the first table of a markdown document. Its first column is
// the bid subject, the second the deployment subject and the third, when
// present, the category.
func Parse(src []byte) (*Table, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	var table *east.Table
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*east.Table); ok && entering {
			table = t
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if table == nil {
		return nil, ErrNoTable
	}

	t := &Table{entries: make(map[string]Entry)}
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		if _, ok := row.(*east.TableRow); !ok {
			continue
		}
		cells := rowCells(row, src)
		if len(cells) < 2 || cells[0] == "" || cells[1] == "" {
			continue
		}
		e := Entry{Bid: cells[0], Deployment: cells[1]}
		if len(cells) > 2 {
			e.Category = cells[2]
		}
		if _, dup := t.entries[e.Bid]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, e.Bid)
		}
		t.entries[e.Bid] = e
		t.order = append(t.order, e.Bid)
	}
	if len(t.entries) == 0 {
		return nil, ErrNoRows
	}
	return t, nil
}

func rowCells(row ast.Node, src []byte) []string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*east.TableCell); !ok {
			continue
		}
		cells = append(cells, strings.TrimSpace(cellText(c, src)))
	}
	return cells
}

func cellText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// New builds a table from entries, for callers that do not read markdown.
func New(entries ...Entry) (*Table, error) {
	t := &Table{entries: make(map[string]Entry)}
	for _, e := range entries {
		if _, dup := t.entries[e.Bid]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, e.Bid)
		}
		t.entries[e.Bid] = e
		t.order = append(t.order, e.Bid)
	}
	return t, nil
}

// DeploymentSubject returns the deployment subject mapped to bid.
func (t *Table) DeploymentSubject(bid string) (string, bool) {
	if t == nil {
		return "", false
	}
	e, ok := t.entries[bid]
	return e.Deployment, ok
}

// Category returns the category of a bid subject.
func (t *Table) Category(bid string) (string, bool) {
	if t == nil {
		return "", false
	}
	e, ok := t.entries[bid]
	return e.Category, ok
}

// Len returns the number of mappings.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns the rows in file order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, 0, len(t.order))
	for _, b := range t.order {
		out = append(out, t.entries[b])
	}
	return out
}

// BidSubjects returns the mapped bid subjects, sorted.
func (t *Table) BidSubjects() []string {
	if t == nil {
		return nil
	}
	out := append([]string(nil), t.order...)
	sort.Strings(out)
	return out
}

// DeploymentSubjects returns the distinct deployment subjects, sorted.
func (t *Table) DeploymentSubjects() []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, e := range t.entries {
		if !seen[e.Deployment] {
			seen[e.Deployment] = true
			out = append(out, e.Deployment)
		}
	}
	sort.Strings(out)
	return out
}

// Validate lists problems with the loaded table. An empty result means the
// table is usable.
func (t *Table) Validate() []string {
	if t.Len() == 0 {
		return []string{"No mappings loaded"}
	}
	var problems []string
	for _, b := range t.order {
		e := t.entries[b]
		if strings.TrimSpace(e.Deployment) == "" {
			problems = append(problems, fmt.Sprintf("Empty deployment subject for %q", b))
		}
		if strings.TrimSpace(e.Category) == "" {
			problems = append(problems, fmt.Sprintf("Missing category for %q", b))
		}
	}
	return problems
}
