// Package manifest reads a YAML route manifest and registers its routes on a
// router.
//
//	routes:
//	  - name: user
//	    path: /users/{id}
//	    layout: app_layout
//	    template: user_show
//	    defaults: {tab: profile}
//	    data:
//	      title: "User {id}"
//	  - name: old-user
//	    path: /u/{id}
//	    redirect: /users/{id}
//
// Routes are added in file order, which is also match order. String data
// values containing placeholders are formatted against the composed region
// data, so "{id}" expands to the path parameter.
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vango-dev/carbon/internal/errors"
	"github.com/vango-dev/carbon/pkg/pattern"
	"github.com/vango-dev/carbon/pkg/router"
	"gopkg.in/yaml.v3"
)

// Manifest is a parsed routes file.
type Manifest struct {
	// Regions override the router-level region defaults.
	Regions map[string]Region `yaml:"regions"`

	Routes []Route `yaml:"routes"`

	file string
}

// Route is one manifest entry.
type Route struct {
	Name     string            `yaml:"name"`
	Path     string            `yaml:"path"`
	Template string            `yaml:"template"`
	Layout   string            `yaml:"layout"`
	Data     map[string]any    `yaml:"data"`
	Defaults map[string]string `yaml:"defaults"`
	Regions  map[string]Region `yaml:"regions"`

	// Redirect navigates away from the route when it is materialized. The
	// target is formatted with the route parameters.
	Redirect string `yaml:"redirect"`

	// Line is the line of the entry in the source file.
	Line int `yaml:"-"`
}

// Region is the manifest form of router.RegionConfig.
type Region struct {
	Template string         `yaml:"template"`
	Data     map[string]any `yaml:"data"`
}

// UnmarshalYAML records the entry's line before decoding it.
func (r *Route) UnmarshalYAML(node *yaml.Node) error {
	type plain Route
	if err := node.Decode((*plain)(r)); err != nil {
		return err
	}
	r.Line = node.Line
	return nil
}

// Parse decodes a manifest. name is used in error locations.
func Parse(name string, rd io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)

	m := &Manifest{file: name}
	if err := dec.Decode(m); err != nil {
		if err == io.EOF {
			return m, nil
		}
		return nil, errors.New("C103").Wrap(err).WithLocation(name, yamlErrorLine(err))
	}

	seen := make(map[string]int, len(m.Routes))
	for _, rt := range m.Routes {
		switch {
		case rt.Name == "":
			return nil, errors.New("C103").
				WithDetail("Every route needs a name.").
				WithLocation(name, rt.Line)
		case rt.Path == "":
			return nil, errors.New("C103").
				WithDetail(fmt.Sprintf("Route %q has no path.", rt.Name)).
				WithLocation(name, rt.Line)
		}
		if first, dup := seen[rt.Name]; dup {
			return nil, errors.New("C103").
				WithDetail(fmt.Sprintf("Route %q is declared twice (first on line %d).", rt.Name, first)).
				WithLocation(name, rt.Line)
		}
		seen[rt.Name] = rt.Line
	}
	return m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C103").
				WithDetail("No route manifest at " + path).
				WithSuggestion("Set \"manifest\" in carbon.json or create routes.yaml")
		}
		return nil, errors.New("C103").Wrap(err).WithLocation(path, 0)
	}
	return Parse(path, bytes.NewReader(data))
}

// yamlErrorLine extracts "line N" from a yaml.v3 error message.
func yamlErrorLine(err error) int {
	msg := err.Error()
	if te, ok := err.(*yaml.TypeError); ok && len(te.Errors) > 0 {
		msg = te.Errors[0]
	}
	var line int
	if i := strings.Index(msg, "line "); i >= 0 {
		fmt.Sscanf(msg[i+len("line "):], "%d", &line)
	}
	return line
}

// Apply registers the manifest on r: first the router-level regions, then
// every route in file order.
func (m *Manifest) Apply(r *router.Router) error {
	if len(m.Regions) > 0 {
		cfg := r.Config()
		regions := make(map[string]router.RegionConfig, len(cfg.Regions)+len(m.Regions))
		for name, rc := range cfg.Regions {
			regions[name] = rc
		}
		for name, rg := range m.Regions {
			regions[name] = rg.config()
		}
		r.Configure(router.ConfigPatch{Regions: regions})
	}

	layout := r.Config().LayoutRegion
	for _, rt := range m.Routes {
		opts, err := rt.options(r, layout)
		if err == nil {
			err = r.Add(rt.Name, rt.Path, opts)
		}
		if err != nil {
			return errors.FromRouterError(err, "C103").WithLocation(m.file, rt.Line)
		}
	}
	return nil
}

func (rt Route) options(r *router.Router, layout string) (router.RouteOptions, error) {
	opts := router.RouteOptions{
		ParamDefaults: rt.Defaults,
		Template:      rt.Template,
		Data:          dataLayers(rt.Data),
	}

	if len(rt.Regions) > 0 || rt.Layout != "" {
		opts.Regions = make(map[string]router.RegionConfig, len(rt.Regions)+1)
		for name, rg := range rt.Regions {
			opts.Regions[name] = rg.config()
		}
	}
	if rt.Layout != "" {
		if layout == "" {
			return opts, fmt.Errorf("route %q sets a layout but the router has no layout region", rt.Name)
		}
		rc := opts.Regions[layout]
		rc.Template = rt.Layout
		opts.Regions[layout] = rc
	}

	if rt.Redirect != "" {
		target := rt.Redirect
		opts.Before = func(c *router.Controller) {
			r.GoURL(pattern.Format(target, paramValues(c.Params())))
		}
	}
	return opts, nil
}

func (rg Region) config() router.RegionConfig {
	return router.RegionConfig{Template: rg.Template, Data: dataLayers(rg.Data)}
}

// dataLayers splits data into a static layer and, for strings with
// placeholders, a computed layer formatted against the composed data.
func dataLayers(data map[string]any) []router.DataLayer {
	if len(data) == 0 {
		return nil
	}
	static := make(router.Data, len(data))
	templated := make(map[string]string)
	for k, v := range data {
		if s, ok := v.(string); ok && strings.ContainsRune(s, '{') {
			templated[k] = s
			continue
		}
		static[k] = v
	}

	var layers []router.DataLayer
	if len(static) > 0 {
		layers = append(layers, router.Static(static))
	}
	if len(templated) > 0 {
		layers = append(layers, router.Computed(func(acc router.Data, _ string) router.Data {
			out := make(router.Data, len(templated))
			for k, s := range templated {
				out[k] = pattern.Format(s, pattern.Map(acc))
			}
			return out
		}))
	}
	return layers
}

func paramValues(p router.Params) pattern.Map {
	m := make(pattern.Map, len(p))
	for k, v := range p {
		m[k] = v
	}
	return m
}
