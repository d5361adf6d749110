package router

import "maps"

// Default template names of the built-in regions.
const (
	DefaultLayoutTemplate   = "carbon__default_layout"
	DefaultContentTemplate  = "carbon__default_content"
	DefaultLoadingTemplate  = "carbon__default_loading"
	DefaultNotFoundTemplate = "carbon__default_not_found"
)

// Config is the live configuration of a Router.
type Config struct {
	// Regions are the router-level region defaults, applied to every
	// controller.
	Regions map[string]RegionConfig

	// Loading and NotFound are applied over Regions for controllers in
	// the corresponding status.
	Loading  map[string]RegionConfig
	NotFound map[string]RegionConfig

	// AutoLoad makes Start navigate to the history's current location.
	AutoLoad bool

	// LinkSelector selects the anchors InterceptLink handles.
	LinkSelector string

	// Greedy makes InterceptLink handle every same-origin anchor,
	// ignoring LinkSelector.
	Greedy bool

	// ContentRegion receives the RouteOptions.Template shorthand.
	ContentRegion string

	// LayoutRegion is the region whose data embeds the content region.
	LayoutRegion string

	// ContentKey is the layout data key holding the content region's view.
	ContentKey string

	// Extra holds application keys readable through GetConfig.
	Extra map[string]any
}

// DefaultConfig returns the configuration of a new Router.
func DefaultConfig() Config {
	return Config{
		Regions: map[string]RegionConfig{
			"layout":  {Template: DefaultLayoutTemplate},
			"content": {Template: DefaultContentTemplate},
		},
		Loading: map[string]RegionConfig{
			"content": {Template: DefaultLoadingTemplate},
		},
		NotFound: map[string]RegionConfig{
			"content": {Template: DefaultNotFoundTemplate},
		},
		AutoLoad:      true,
		LinkSelector:  "a",
		ContentRegion: "content",
		LayoutRegion:  "layout",
		ContentKey:    "yield",
	}
}

// ConfigPatch is a partial configuration for Router.Configure. nil fields
// leave the live value unchanged.
type ConfigPatch struct {
	Regions       map[string]RegionConfig
	Loading       map[string]RegionConfig
	NotFound      map[string]RegionConfig
	AutoLoad      *bool
	LinkSelector  *string
	Greedy        *bool
	ContentRegion *string
	LayoutRegion  *string
	ContentKey    *string
	Extra         map[string]any
}

// Ptr returns a pointer to v, for ConfigPatch fields.
func Ptr[T any](v T) *T {
	return &v
}

// merge applies p over c. Region maps are replaced as a whole; Extra keys
// are merged one by one.
func (c *Config) merge(p ConfigPatch) {
	if p.Regions != nil {
		c.Regions = cloneRegions(p.Regions)
	}
	if p.Loading != nil {
		c.Loading = cloneRegions(p.Loading)
	}
	if p.NotFound != nil {
		c.NotFound = cloneRegions(p.NotFound)
	}
	if p.AutoLoad != nil {
		c.AutoLoad = *p.AutoLoad
	}
	if p.LinkSelector != nil {
		c.LinkSelector = *p.LinkSelector
	}
	if p.Greedy != nil {
		c.Greedy = *p.Greedy
	}
	if p.ContentRegion != nil {
		c.ContentRegion = *p.ContentRegion
	}
	if p.LayoutRegion != nil {
		c.LayoutRegion = *p.LayoutRegion
	}
	if p.ContentKey != nil {
		c.ContentKey = *p.ContentKey
	}
	if p.Extra != nil {
		if c.Extra == nil {
			c.Extra = make(map[string]any, len(p.Extra))
		}
		maps.Copy(c.Extra, p.Extra)
	}
}

// clone returns a deep enough copy for handing out snapshots.
func (c Config) clone() Config {
	c.Regions = cloneRegions(c.Regions)
	c.Loading = cloneRegions(c.Loading)
	c.NotFound = cloneRegions(c.NotFound)
	c.Extra = maps.Clone(c.Extra)
	return c
}

// get returns the value for a configuration key. Built-in keys use the
// camel-case names of the JSON configuration; anything else is looked up
// in Extra.
func (c *Config) get(key string) (any, bool) {
	switch key {
	case "regions":
		return cloneRegions(c.Regions), true
	case "loading":
		return cloneRegions(c.Loading), true
	case "notFound":
		return cloneRegions(c.NotFound), true
	case "autoLoad":
		return c.AutoLoad, true
	case "linkSelector":
		return c.LinkSelector, true
	case "greedy":
		return c.Greedy, true
	case "contentRegion":
		return c.ContentRegion, true
	case "layoutRegion":
		return c.LayoutRegion, true
	case "contentKey":
		return c.ContentKey, true
	}
	v, ok := c.Extra[key]
	return v, ok
}
