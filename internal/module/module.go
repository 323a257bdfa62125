// Package module holds the static registry of course modules that notes and
// timetable sessions belong to.
package module

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/studydesk/internal/assets"
	"github.com/at-ishikawa/studydesk/internal/validation"
)

// Slug identifies a module.
type Slug string

type Module struct {
	Slug  Slug   `json:"slug" yaml:"slug" validate:"required"`
	Name  string `json:"name" yaml:"name" validate:"required"`
	Color string `json:"color" yaml:"color" validate:"required,hexcolor"`
}

// Registry is the ordered, immutable list of modules. The first module is
// the default one.
type Registry struct {
	modules []Module
	index   map[Slug]int
}

func NewRegistry(modules []Module) (*Registry, error) {
	if len(modules) == 0 {
		return nil, fmt.Errorf("no modules are defined")
	}

	validate, err := validation.New(validation.WithTagName("json"))
	if err != nil {
		return nil, fmt.Errorf("validation.New() > %w", err)
	}

	registry := &Registry{
		modules: make([]Module, len(modules)),
		index:   make(map[Slug]int, len(modules)),
	}
	for i, m := range modules {
		if err := validate.Struct(m); err != nil {
			return nil, fmt.Errorf("invalid module #%d: %w", i+1, err)
		}
		if _, ok := registry.index[m.Slug]; ok {
			return nil, fmt.Errorf("duplicate module slug %q", m.Slug)
		}
		registry.modules[i] = m
		registry.index[m.Slug] = i
	}
	return registry, nil
}

// Load reads the module catalog at path, or the embedded catalog when path is
// empty or unreadable.
func Load(path string) (*Registry, error) {
	var modules []Module
	if err := yaml.Unmarshal(assets.ReadModules(path), &modules); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal() > %w", err)
	}
	return NewRegistry(modules)
}

// All returns a copy of the modules in declaration order.
func (r *Registry) All() []Module {
	return append([]Module(nil), r.modules...)
}

func (r *Registry) Slugs() []Slug {
	slugs := make([]Slug, 0, len(r.modules))
	for _, m := range r.modules {
		slugs = append(slugs, m.Slug)
	}
	return slugs
}

func (r *Registry) Lookup(slug Slug) (Module, bool) {
	i, ok := r.index[slug]
	if !ok {
		return Module{}, false
	}
	return r.modules[i], true
}

func (r *Registry) Contains(slug Slug) bool {
	_, ok := r.index[slug]
	return ok
}

func (r *Registry) Default() Module {
	return r.modules[0]
}

// Name returns the display name of slug, or the slug itself when unknown.
func (r *Registry) Name(slug Slug) string {
	if m, ok := r.Lookup(slug); ok {
		return m.Name
	}
	return string(slug)
}

// Color returns the color of slug, or an empty string when unknown.
func (r *Registry) Color(slug Slug) string {
	m, _ := r.Lookup(slug)
	return m.Color
}

// ValidationRule registers a "module" validation tag that accepts only
// registered slugs.
func (r *Registry) ValidationRule() validation.Option {
	return validation.WithRule("module", "{0} must be a registered module", func(fl validator.FieldLevel) bool {
		return r.Contains(Slug(fl.Field().String()))
	})
}
