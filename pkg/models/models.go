// Package models is the catalog of model selectors a node can be tagged
// with. The canvas engine carries the selector as opaque metadata; only the
// hosts and the simulated responder look it up here.
package models

import (
	_ "embed"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var defaultCatalog []byte

type Model struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Short       string   `yaml:"short" json:"short"`
	Description string   `yaml:"description" json:"description"`
	Color       string   `yaml:"color" json:"color"`
	Replies     []string `yaml:"replies" json:"replies,omitempty"`
}

// Catalog keeps models in declaration order. The first model is the default.
type Catalog struct {
	Models []Model `yaml:"models" json:"models"`

	byID map[string]int
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(errors.Wrap(err, "embedded model catalog"))
	}
	return c
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "could not parse model catalog")
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func Read(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Load reads a catalog from a file. An empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open model catalog %s", path)
	}
	defer f.Close()
	return Read(f)
}

func (c *Catalog) index() error {
	if len(c.Models) == 0 {
		return errors.New("model catalog is empty")
	}
	c.byID = make(map[string]int, len(c.Models))
	for i, m := range c.Models {
		if m.ID == "" {
			return errors.Errorf("model %d has no id", i)
		}
		if _, ok := c.byID[m.ID]; ok {
			return errors.Errorf("duplicate model id %q", m.ID)
		}
		c.byID[m.ID] = i
	}
	return nil
}

func (c *Catalog) Get(id string) (Model, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Model{}, false
	}
	return c.Models[i], true
}

// Lookup returns the model for id, falling back to the default model.
func (c *Catalog) Lookup(id string) Model {
	if m, ok := c.Get(id); ok {
		return m
	}
	return c.First()
}

func (c *Catalog) First() Model {
	return c.Models[0]
}

// Next returns the model after id, wrapping around. Unknown ids yield the first model.
func (c *Catalog) Next(id string) Model {
	i, ok := c.byID[id]
	if !ok {
		return c.First()
	}
	return c.Models[(i+1)%len(c.Models)]
}

func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Models))
	for i, m := range c.Models {
		ids[i] = m.ID
	}
	return ids
}
