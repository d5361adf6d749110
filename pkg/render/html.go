package render

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

// DefaultExtensions are the file extensions LoadFS and S3Source pick up.
var DefaultExtensions = []string{".html", ".tmpl", ".gohtml"}

// HTML is a Registry of html/template templates.
//
// Each source file becomes one template named after its path without the
// extension: "layout.html" → "layout", "users/show.html" → "users/show".
// All templates share one namespace, so {{ template "partials/nav" . }} works
// across files. Loading is atomic: a failed Load leaves the previous set in
// place.
type HTML struct {
	mu    sync.RWMutex
	root  *template.Template
	names []string
	funcs template.FuncMap
}

// NewHTML creates an empty HTML registry. funcs are added to the built-in
// "view" function and are available to every template.
func NewHTML(funcs ...template.FuncMap) *HTML {
	merged := template.FuncMap{
		"view": renderView,
	}
	for _, fm := range funcs {
		for k, v := range fm {
			merged[k] = v
		}
	}
	return &HTML{
		root:  template.New("").Funcs(merged),
		funcs: merged,
	}
}

// Funcs adds functions for templates parsed by later loads. Already loaded
// templates keep the functions they were parsed with.
func (h *HTML) Funcs(fm template.FuncMap) *HTML {
	h.mu.Lock()
	defer h.mu.Unlock()
	funcs := make(template.FuncMap, len(h.funcs)+len(fm))
	for k, v := range h.funcs {
		funcs[k] = v
	}
	for k, v := range fm {
		funcs[k] = v
	}
	h.funcs = funcs
	return h
}

// Source is a template source file.
type Source struct {
	Name string
	Text string
}

// Load parses sources and replaces the current template set.
func (h *HTML) Load(sources []Source) error {
	h.mu.RLock()
	funcs := h.funcs
	h.mu.RUnlock()

	root := template.New("").Funcs(funcs)
	names := make([]string, 0, len(sources))
	for _, src := range sources {
		if _, err := root.New(src.Name).Parse(src.Text); err != nil {
			return fmt.Errorf("parse template %q: %w", src.Name, err)
		}
		names = append(names, src.Name)
	}
	sort.Strings(names)

	h.mu.Lock()
	h.root = root
	h.names = names
	h.mu.Unlock()
	return nil
}

// LoadFS reads every template file in fsys and replaces the current set.
func (h *HTML) LoadFS(fsys fs.FS) error {
	sources, err := ReadFS(fsys)
	if err != nil {
		return err
	}
	return h.Load(sources)
}

// ReadFS returns the template sources in fsys, in walk order.
func ReadFS(fsys fs.FS) ([]Source, error) {
	var sources []Source
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name, ok := TemplateName(p, "")
		if !ok {
			return nil
		}
		b, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		sources = append(sources, Source{Name: name, Text: string(b)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return sources, nil
}

// Lookup implements Registry.
func (h *HTML) Lookup(name string) (Template, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if name == "" {
		return nil, false
	}
	t := h.root.Lookup(name)
	if t == nil {
		return nil, false
	}
	return htmlTemplate{t: t}, true
}

// Names returns the names of the loaded templates, sorted.
func (h *HTML) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.names))
	copy(out, h.names)
	return out
}

type htmlTemplate struct {
	t *template.Template
}

func (t htmlTemplate) Name() string { return t.t.Name() }

func (t htmlTemplate) Render(w io.Writer, data Data) error {
	return t.t.Execute(w, data)
}

// TemplateName derives a template name from a file path relative to prefix.
// It reports false for files without a template extension.
func TemplateName(p, prefix string) (string, bool) {
	p = strings.TrimPrefix(p, prefix)
	p = strings.TrimPrefix(p, "/")
	ext := path.Ext(p)
	for _, e := range DefaultExtensions {
		if ext == e {
			return strings.TrimSuffix(p, ext), p != ext
		}
	}
	return "", false
}

// renderView is the "view" template function.
func renderView(v any) (template.HTML, error) {
	switch view := v.(type) {
	case View:
		var b strings.Builder
		if err := view.Render(&b); err != nil {
			return "", err
		}
		// The nested template already escaped its output.
		return template.HTML(b.String()), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("view: unsupported value %T", v)
	}
}
