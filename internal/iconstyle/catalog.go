package iconstyle

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Entry is one subject of the catalog.
type Entry struct {
	Category string     `yaml:"category"`
	Image    string     `yaml:"image"`
	Style    *Overrides `yaml:"style"`
}

// Catalog holds the built-in category defaults and subject table.
type Catalog struct {
	Base       Overrides            `yaml:"base"`
	Categories map[string]Overrides `yaml:"categories"`
	Subjects   map[string]Entry     `yaml:"subjects"`
}

var builtin *Catalog

func init() {
	c, err := ParseCatalog(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("iconstyle: embedded catalog: %v", err))
	}
	builtin = c
}

// Builtin returns the embedded catalog.
func Builtin() *Catalog {
	return builtin
}

// ParseCatalog decodes a YAML catalog and checks that every subject names a
// known category.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	for subject, e := range c.Subjects {
		if _, ok := c.Categories[e.Category]; !ok {
			return nil, fmt.Errorf("subject %q: unknown category %q", subject, e.Category)
		}
	}
	return &c, nil
}

// CategoryDefaults returns the complete default style of a category.
func (c *Catalog) CategoryDefaults(category string) (Style, bool) {
	cat, ok := c.Categories[category]
	if !ok {
		return Style{}, false
	}
	d := draft{}
	d.apply(&c.Base)
	d.apply(&cat)
	d.Category = category
	return d.finish(""), true
}

// Category returns the category of a catalog subject.
func (c *Catalog) Category(subject string) (string, bool) {
	e, ok := c.Subjects[subject]
	return e.Category, ok
}

// HasCategory reports whether category has defaults.
func (c *Catalog) HasCategory(category string) bool {
	_, ok := c.Categories[category]
	return ok
}

// CategoryNames returns the sorted category names.
func (c *Catalog) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for n := range c.Categories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SubjectNames returns the sorted catalog subjects.
func (c *Catalog) SubjectNames() []string {
	names := make([]string, 0, len(c.Subjects))
	for n := range c.Subjects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// layers returns the category default and subject layers for a catalog
// subject, in merge order.
func (c *Catalog) layers(subject string) ([]*Overrides, bool) {
	e, ok := c.Subjects[subject]
	if !ok {
		return nil, false
	}
	cat := c.Categories[e.Category]
	category := e.Category
	layers := []*Overrides{&c.Base, &cat, {Category: &category}}
	if e.Image != "" {
		image := e.Image
		layers = append(layers, &Overrides{ImagePath: &image})
	}
	if e.Style != nil {
		layers = append(layers, e.Style)
	}
	return layers, true
}

var brandPrefixes = []string{
	"Cisco ", "Ubiquiti ", "Axis ", "Yealink ", "BrightSign ",
	"Fortinet ", "Meraki ", "EcoFlow ", "Liebert ", "Netgear ", "Netonix ",
}

// ModelText derives the display model from a subject: the part after the last
// " - " with a leading brand name removed.
func ModelText(subject string) string {
	i := strings.LastIndex(subject, " - ")
	if i < 0 {
		return subject
	}
	model := subject[i+3:]
	for _, brand := range brandPrefixes {
		if strings.HasPrefix(model, brand) {
			return model[len(brand):]
		}
	}
	return model
}

func upper(s string) string {
	return strings.ToUpper(s)
}
