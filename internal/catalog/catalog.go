// Package catalog holds the static exercise table and workout templates.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/meltforce/liftlog/internal/models"
)

//go:embed default.yaml
var defaultYAML []byte

// Exercise is one catalog entry.
type Exercise struct {
	Name        string `yaml:"name" json:"name"`
	MuscleGroup string `yaml:"muscle_group" json:"muscle_group"`
	Equipment   string `yaml:"equipment" json:"equipment"`
}

// Catalog is an immutable exercise and template table.
type Catalog struct {
	exercises []Exercise
	byName    map[string]int
	templates []models.Template
}

type file struct {
	Exercises []Exercise        `yaml:"exercises"`
	Templates []models.Template `yaml:"templates"`
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c := &Catalog{byName: make(map[string]int, len(f.Exercises))}
	for _, ex := range f.Exercises {
		if ex.Name == "" {
			return nil, fmt.Errorf("catalog exercise without name")
		}
		key := normalize(ex.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("duplicate catalog exercise %q", ex.Name)
		}
		c.byName[key] = len(c.exercises)
		c.exercises = append(c.exercises, ex)
	}
	for _, t := range f.Templates {
		if t.ID == "" {
			return nil, fmt.Errorf("template %q without id", t.Name)
		}
		c.templates = append(c.templates, t)
	}
	return c, nil
}

// FindByName looks up an exercise, ignoring case and surrounding spaces.
func (c *Catalog) FindByName(name string) (Exercise, bool) {
	i, ok := c.byName[normalize(name)]
	if !ok {
		return Exercise{}, false
	}
	return c.exercises[i], true
}

// List returns all exercises in file order.
func (c *Catalog) List() []Exercise {
	return append([]Exercise(nil), c.exercises...)
}

// Templates returns all templates in file order.
func (c *Catalog) Templates() []models.Template {
	return append([]models.Template(nil), c.templates...)
}

// Template returns the template with the given id.
func (c *Catalog) Template(id string) (models.Template, bool) {
	for _, t := range c.templates {
		if t.ID == id {
			return t, true
		}
	}
	return models.Template{}, false
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
