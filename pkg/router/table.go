package router

import (
	"maps"
	"sync"

	"github.com/vango-dev/carbon/pkg/pattern"
)

// Params are path parameters keyed by placeholder name.
type Params = pattern.Params

// BeforeHook runs once when a controller for a matched route is first
// materialized, before any region data is read. It may add region data,
// change region templates or parameters, or navigate elsewhere. It must not
// call Current.
//
// The hook receives the Controller rather than only its parameters; the
// parameters are c.Params().
type BeforeHook func(c *Controller)

// RouteOptions configures a route registration.
type RouteOptions struct {
	// ParamDefaults fill parameters the caller of URL leaves out.
	ParamDefaults Params

	// Regions override the router-level region defaults.
	Regions map[string]RegionConfig

	// Template is shorthand for the template of the content region.
	Template string

	// Data is shorthand for data layers of the content region.
	Data []DataLayer

	// Before is the route's one-shot hook.
	Before BeforeHook
}

// Route is a registered route. Routes are never mutated after registration.
type Route struct {
	Name          string
	Template      string
	Pattern       *pattern.Pattern
	ParamDefaults Params
	Regions       map[string]RegionConfig
	Before        BeforeHook
}

// Match is the result of matching a URL against the table.
type Match struct {
	Route  *Route
	Params Params
}

// Table stores named routes in registration order.
//
// Matching is first-match-wins: routes are tried in the order they were
// first registered and the first structural match is returned. There is no
// specificity ranking, so specific patterns must be registered before
// general ones.
type Table struct {
	mu     sync.RWMutex
	routes []*Route
	index  map[string]int
}

// NewTable creates an empty route table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Add compiles tmpl and stores the route under name. A route with the same
// name is replaced in place, keeping its position in the match order.
//
// The Template and Data shorthands need a content region, which a bare
// table does not know; Add fails with *AmbiguousRegionError if either is
// set. Router.Add resolves them before delegating here.
func (t *Table) Add(name, tmpl string, opts RouteOptions) error {
	if opts.Template != "" || len(opts.Data) > 0 {
		return &AmbiguousRegionError{Route: name}
	}

	p, err := pattern.Compile(tmpl)
	if err != nil {
		return err
	}

	route := &Route{
		Name:          name,
		Template:      tmpl,
		Pattern:       p,
		ParamDefaults: maps.Clone(opts.ParamDefaults),
		Regions:       cloneRegions(opts.Regions),
		Before:        opts.Before,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if i, ok := t.index[name]; ok {
		t.routes[i] = route
		return nil
	}
	t.index[name] = len(t.routes)
	t.routes = append(t.routes, route)
	return nil
}

// Lookup returns the route registered under name.
func (t *Table) Lookup(name string) (*Route, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.routes[i], true
}

// Routes returns the registered routes in match order.
func (t *Table) Routes() []*Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*Route(nil), t.routes...)
}

// Len returns the number of registered routes.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}

// MatchURL returns the first route whose pattern matches url. url must be a
// path without query string or fragment.
func (t *Table) MatchURL(url string) (*Match, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, route := range t.routes {
		if params, ok := route.Pattern.Match(url); ok {
			return &Match{Route: route, Params: params}, true
		}
	}
	return nil, false
}

// BuildURL substitutes params, merged over the route's defaults, into the
// route's template.
//
// With check set, an unknown name fails with *RouteNotFoundError and a
// parameter without a (non-empty) value fails with *MissingParameterError.
// Without check both cases return "" and a nil error.
func (t *Table) BuildURL(name string, params Params, check bool) (string, error) {
	route, ok := t.Lookup(name)
	if !ok {
		if check {
			return "", &RouteNotFoundError{Name: name}
		}
		return "", nil
	}

	merged := make(Params, len(route.ParamDefaults)+len(params))
	maps.Copy(merged, route.ParamDefaults)
	maps.Copy(merged, params)

	for _, p := range route.Pattern.Names() {
		if merged[p] == "" {
			if check {
				return "", &MissingParameterError{Route: name, Param: p}
			}
			return "", nil
		}
	}

	return route.Pattern.Build(func(p string) (string, bool) {
		v, ok := merged[p]
		return v, ok
	}), nil
}
