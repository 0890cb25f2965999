// Package toolchest reads the Bluebeam tool-set (.btx) reference files and
// indexes their icons by subject.
package toolchest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bidmap-converter/backend/internal/logging"
	"golang.org/x/text/encoding/charmap"
)

// Direction selects one of the two icon vocabularies.
type Direction string

const (
	Bid        Direction = "bid"
	Deployment Direction = "deployment"
)

// Subdirectories of the toolchest root, one per direction.
const (
	BidDir        = "bidTools"
	DeploymentDir = "deploymentTools"
)

var (
	// ErrToolchestMissing is returned when the toolchest root or one of its
	// direction directories does not exist.
	ErrToolchestMissing = errors.New("toolchest directory not found")

	// ErrInvalidXML is returned for tool-set files that cannot be parsed.
	ErrInvalidXML = errors.New("invalid XML")
)

var (
	categoryPrefix = "CDS Bluebeam "
	datedSuffix    = regexp.MustCompile(`\s*\[\d{2}-\d{2}-\d{4}\]$`)
	utf8BOM        = []byte{0xEF, 0xBB, 0xBF}
)

// Icon is one tool-chest entry keyed by its annotation subject.
type Icon struct {
	Subject    string  `json:"subject"`
	Category   string  `json:"category"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Index      int     `json:"index"`
	Raw        string  `json:"raw,omitempty"` // decoded annotation dictionary text
	SourceFile string  `json:"sourceFile"`
}

// Item is a tool-chest element as it appears in the file, with compressed
// fields already decoded.
type Item struct {
	Name      string
	Type      string
	X         string
	Y         string
	Index     string
	Raw       string
	Resources string
}

type toolSetXML struct {
	XMLName xml.Name
	Title   string        `xml:"Title"`
	Items   []toolItemXML `xml:"ToolChestItem"`
}

type toolItemXML struct {
	Name      string `xml:"Name"`
	Type      string `xml:"Type"`
	X         string `xml:"X"`
	Y         string `xml:"Y"`
	Index     string `xml:"Index"`
	Raw       string `xml:"Raw"`
	Resources string `xml:"Resources"`
}

// Reference is the loaded, read-only icon index. It is safe to share across
// conversion runs.
type Reference struct {
	root       string
	bid        map[string]Icon
	deployment map[string]Icon
}

// Load scans both direction directories under root. A missing directory is
// fatal; a malformed file is skipped with a warning.
func Load(root string) (*Reference, error) {
	log := logging.New("toolchest")

	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrToolchestMissing, root)
	}

	ref := &Reference{
		root:       root,
		bid:        make(map[string]Icon),
		deployment: make(map[string]Icon),
	}

	dirs := []struct {
		name  string
		index map[string]Icon
	}{
		{BidDir, ref.bid},
		{DeploymentDir, ref.deployment},
	}

	for _, d := range dirs {
		dir := filepath.Join(root, d.name)
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrToolchestMissing, dir)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".btx") {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			items, err := ParseFile(path)
			if err != nil {
				log.Warnf("skipping %s: %v", entry.Name(), err)
				continue
			}
			category := CategoryFromFilename(entry.Name())
			added := 0
			for _, item := range items {
				subject, ok := ExtractSubject(item.Raw)
				if !ok {
					continue
				}
				if _, exists := d.index[subject]; exists {
					continue
				}
				d.index[subject] = newIcon(subject, category, item, entry.Name())
				added++
			}
			log.Debugf("%s: %d items, %d new subjects", entry.Name(), len(items), added)
		}
	}

	log.Infof("Loaded %d bid icons and %d deployment icons from %s", len(ref.bid), len(ref.deployment), root)
	return ref, nil
}

// ParseFile reads one tool-set file.
func ParseFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes tool-set XML. A leading byte-order mark is ignored.
func Parse(data []byte) ([]Item, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader

	var set toolSetXML
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidXML, err)
	}

	items := make([]Item, 0, len(set.Items))
	for _, it := range set.Items {
		items = append(items, Item{
			Name:      decodeField(it.Name),
			Type:      strings.TrimSpace(it.Type),
			X:         strings.TrimSpace(it.X),
			Y:         strings.TrimSpace(it.Y),
			Index:     strings.TrimSpace(it.Index),
			Raw:       decodeField(it.Raw),
			Resources: decodeField(it.Resources),
		})
	}
	return items, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("unsupported charset: %s", label)
}

// CategoryFromFilename derives a category from a file name such as
// "CDS Bluebeam Access Points [01-01-2026].btx".
func CategoryFromFilename(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.TrimPrefix(name, categoryPrefix)
	name = datedSuffix.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

func newIcon(subject, category string, item Item, file string) Icon {
	icon := Icon{
		Subject:    subject,
		Category:   category,
		Name:       item.Name,
		Type:       item.Type,
		Raw:        item.Raw,
		SourceFile: file,
	}
	icon.X, _ = strconv.ParseFloat(item.X, 64)
	icon.Y, _ = strconv.ParseFloat(item.Y, 64)
	icon.Index, _ = strconv.Atoi(item.Index)
	return icon
}

func (r *Reference) index(dir Direction) map[string]Icon {
	if r == nil {
		return nil
	}
	if dir == Bid {
		return r.bid
	}
	return r.deployment
}

// Lookup returns the icon for subject in the given direction.
func (r *Reference) Lookup(subject string, dir Direction) (Icon, bool) {
	icon, ok := r.index(dir)[subject]
	return icon, ok
}

// BidCount returns the number of distinct bid subjects.
func (r *Reference) BidCount() int { return len(r.index(Bid)) }

// DeploymentCount returns the number of distinct deployment subjects.
func (r *Reference) DeploymentCount() int { return len(r.index(Deployment)) }

// Subjects returns the sorted subjects of one direction.
func (r *Reference) Subjects(dir Direction) []string {
	idx := r.index(dir)
	out := make([]string, 0, len(idx))
	for s := range idx {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
