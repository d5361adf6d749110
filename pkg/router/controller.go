package router

import (
	"maps"
	"sort"
	"sync"

	"github.com/vango-dev/carbon/pkg/reactive"
	"github.com/vango-dev/carbon/pkg/render"
)

// Status is the state a Controller was created in. A controller never
// changes status; each navigation creates a new one.
type Status string

const (
	// StatusLoading means no navigation has happened yet.
	StatusLoading Status = "loading"
	// StatusNotFound means the active URL matched no route.
	StatusNotFound Status = "not_found"
	// StatusFound means the active URL matched a route.
	StatusFound Status = "found"
)

// StatusKey is the data key every region carries the controller status
// under.
const StatusKey = "carbon_status"

// RegionView is a region's template together with its lazily composed data.
type RegionView = render.View

// Controller is the view model of one navigation: a status, the matched
// parameters and a set of regions.
//
// Controllers are created by Router.Current. Mutating methods are meant for
// before-hooks; the router runs the hook before the controller is returned.
type Controller struct {
	nav       Navigation
	path      string
	rawQuery  string
	fragment  string
	status    Status
	route     *Route
	templates render.Registry

	layoutRegion  string
	contentRegion string
	contentKey    string

	mu      sync.RWMutex
	params  Params
	regions regionSet

	before BeforeHook
	once   sync.Once
}

// Status returns the controller's status.
func (c *Controller) Status() Status { return c.status }

// Navigation returns the navigation the controller was built for. It is the
// zero value for a loading controller.
func (c *Controller) Navigation() Navigation { return c.nav }

// Path returns the matched path, without query string and fragment.
func (c *Controller) Path() string { return c.path }

// RawQuery returns the undecoded query string of the active URL.
func (c *Controller) RawQuery() string { return c.rawQuery }

// Fragment returns the undecoded fragment of the active URL.
func (c *Controller) Fragment() string { return c.fragment }

// Route returns the matched route, or nil unless the status is StatusFound.
func (c *Controller) Route() *Route { return c.route }

// RouteName returns the name of the matched route, or "".
func (c *Controller) RouteName() string {
	if c.route == nil {
		return ""
	}
	return c.route.Name
}

// Params returns a copy of the path parameters.
func (c *Controller) Params() Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.params)
}

// Param returns one path parameter.
func (c *Controller) Param(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params[name]
}

// SetParam changes a parameter. Region data composed afterwards sees the
// new value.
func (c *Controller) SetParam(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.params == nil {
		c.params = make(Params)
	}
	c.params[name] = value
}

// AddRegionData appends a data layer to region.
func (c *Controller) AddRegionData(region string, layer DataLayer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.regions.get(region)
	r.layers = append(r.layers, layer)
}

// SetRegionTemplate sets the template name of region.
func (c *Controller) SetRegionTemplate(region, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regions.get(region).template = name
}

// RegionTemplate returns the template name of region, or "".
func (c *Controller) RegionTemplate(region string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if r, ok := c.regions[region]; ok {
		return r.template
	}
	return ""
}

// Regions returns the names of the configured regions, sorted.
func (c *Controller) Regions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.regions))
	for name := range c.regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// View returns the template and data of region. The template is nil when
// the region has no template or the registry does not know it. Data
// composes on every call, so layers added later are reflected.
func (c *Controller) View(region string) RegionView {
	var tpl render.Template
	if name := c.RegionTemplate(region); name != "" && c.templates != nil {
		if t, ok := c.templates.Lookup(name); ok {
			tpl = t
		}
	}
	return RegionView{
		Template: tpl,
		Data: func() Data {
			return c.compose(region)
		},
	}
}

// GetRegionTemplateAndData is an alias for View.
func (c *Controller) GetRegionTemplateAndData(region string) RegionView {
	return c.View(region)
}

// compose builds the data of region: the path parameters, then the status
// layer, then the region's layers. The layout region additionally gets the
// content region's view under the content key.
func (c *Controller) compose(region string) Data {
	c.mu.RLock()
	initial := make(Data, len(c.params)+1)
	for k, v := range c.params {
		initial[k] = v
	}
	layers := []DataLayer{Static(Data{StatusKey: c.status})}
	if r, ok := c.regions[region]; ok {
		layers = append(layers, r.layers...)
	}
	c.mu.RUnlock()

	data := Compose(layers, initial, region)
	if region == c.layoutRegion && region != c.contentRegion && c.contentKey != "" {
		data[c.contentKey] = c.View(c.contentRegion)
	}
	return data
}

// runBefore runs the before-hook at most once. Reads inside the hook are
// not tracked by the calling computation.
func (c *Controller) runBefore() bool {
	ran := false
	c.once.Do(func() {
		if c.before == nil {
			return
		}
		ran = true
		reactive.Untracked(func() {
			c.before(c)
		})
	})
	return ran
}
