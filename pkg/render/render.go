package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// ErrNoTemplate is returned by Region when the region has no resolvable template.
var ErrNoTemplate = errors.New("region has no template")

// Data is the composed data of a region.
type Data = map[string]any

// Template is something that can render region data.
type Template interface {
	// Name returns the name the template is registered under.
	Name() string

	// Render writes the template output for data to w.
	Render(w io.Writer, data Data) error
}

// Registry resolves template names. Lookup of an unknown name reports false;
// it never panics.
type Registry interface {
	Lookup(name string) (Template, bool)
}

// View is a template paired with a lazily composed data function.
type View struct {
	Template Template
	Data     func() Data
}

// Render renders the view. It fails with ErrNoTemplate if Template is nil.
func (v View) Render(w io.Writer) error {
	if v.Template == nil {
		return ErrNoTemplate
	}
	var data Data
	if v.Data != nil {
		data = v.Data()
	}
	return v.Template.Render(w, data)
}

// String renders the view to a string, returning "" on error.
func (v View) String() string {
	var buf bytes.Buffer
	if err := v.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Regions is implemented by anything that exposes named regions.
type Regions interface {
	View(region string) View
}

// Region renders one region of src to w.
func Region(w io.Writer, src Regions, region string) error {
	v := src.View(region)
	if v.Template == nil {
		return fmt.Errorf("render region %q: %w", region, ErrNoTemplate)
	}
	if err := v.Render(w); err != nil {
		return fmt.Errorf("render region %q: %w", region, err)
	}
	return nil
}

// funcTemplate adapts a function to Template.
type funcTemplate struct {
	name string
	fn   func(w io.Writer, data Data) error
}

func (t funcTemplate) Name() string { return t.name }

func (t funcTemplate) Render(w io.Writer, data Data) error { return t.fn(w, data) }

// Func returns a Template that renders with fn.
func Func(name string, fn func(w io.Writer, data Data) error) Template {
	return funcTemplate{name: name, fn: fn}
}

// Text returns a Template that always writes s.
func Text(name, s string) Template {
	return Func(name, func(w io.Writer, _ Data) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

// Map is an in-memory Registry. It is safe for concurrent use.
type Map struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewMap creates a Map holding templates, keyed by their names.
func NewMap(templates ...Template) *Map {
	m := &Map{templates: make(map[string]Template, len(templates))}
	for _, t := range templates {
		m.templates[t.Name()] = t
	}
	return m
}

// Set registers t under its name, replacing any previous template.
func (m *Map) Set(t Template) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[t.Name()] = t
}

// Lookup implements Registry.
func (m *Map) Lookup(name string) (Template, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[name]
	return t, ok
}

// Names returns the registered names, sorted.
func (m *Map) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.templates))
	for name := range m.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
