package vehicle

import (
	"sort"
	"strings"

	"github.com/km-arc/go-gamecore/framework/container"
)

// Model is a spawnable vehicle model.
type Model struct {
	ID    int
	Name  string
	Seats int
}

// Catalog resolves model names.
type Catalog interface {
	Lookup(name string) (Model, bool)
	Models() []Model
}

// StaticCatalog is a fixed, case-insensitive Catalog.
type StaticCatalog struct {
	container.Service `as:"Catalog"`

	byName map[string]Model
}

// DefaultModels seed NewStaticCatalog.
var DefaultModels = []Model{
	{ID: 411, Name: "infernus", Seats: 2},
	{ID: 429, Name: "banshee", Seats: 2},
	{ID: 522, Name: "nrg500", Seats: 2},
	{ID: 560, Name: "sultan", Seats: 4},
	{ID: 587, Name: "euros", Seats: 2},
}

func NewStaticCatalog() *StaticCatalog {
	return NewCatalog(DefaultModels...)
}

func NewCatalog(models ...Model) *StaticCatalog {
	c := &StaticCatalog{byName: make(map[string]Model, len(models))}
	for _, m := range models {
		c.byName[strings.ToLower(m.Name)] = m
	}
	return c
}

func (c *StaticCatalog) Lookup(name string) (Model, bool) {
	m, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

func (c *StaticCatalog) Models() []Model {
	out := make([]Model, 0, len(c.byName))
	for _, m := range c.byName {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
