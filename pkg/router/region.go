package router

import (
	"maps"
	"sort"

	"github.com/vango-dev/carbon/pkg/render"
)

// Data is the composed data of a region.
type Data = render.Data

// DataLayer is one entry of a region's data list: either a static map or a
// function computing data from what has been composed so far.
type DataLayer struct {
	static Data
	fn     func(acc Data, region string) Data
}

// Static returns a layer that merges data as is.
func Static(data Data) DataLayer {
	return DataLayer{static: data}
}

// Computed returns a layer that merges the result of fn. fn receives the
// data accumulated by earlier layers and the region name; it must not keep
// acc.
func Computed(fn func(acc Data, region string) Data) DataLayer {
	return DataLayer{fn: fn}
}

// IsComputed reports whether the layer was created by Computed.
func (l DataLayer) IsComputed() bool {
	return l.fn != nil
}

func (l DataLayer) apply(acc Data, region string) {
	var data Data
	if l.fn != nil {
		data = l.fn(acc, region)
	} else {
		data = l.static
	}
	maps.Copy(acc, data)
}

// Compose merges layers in order over a shallow copy of initial. Later
// layers win on shared keys.
func Compose(layers []DataLayer, initial Data, region string) Data {
	acc := make(Data, len(initial)+4)
	maps.Copy(acc, initial)
	for _, l := range layers {
		l.apply(acc, region)
	}
	return acc
}

// RegionConfig configures one region, at router level (defaults) or route
// level (overrides).
type RegionConfig struct {
	// Template is the template name. Empty keeps the inherited template.
	Template string

	// Data layers, appended after inherited layers.
	Data []DataLayer
}

// region is the per-controller state of a region.
type region struct {
	template string
	layers   []DataLayer
}

// regionSet is the region map of a controller.
type regionSet map[string]*region

func (s regionSet) get(name string) *region {
	r, ok := s[name]
	if !ok {
		r = &region{}
		s[name] = r
	}
	return r
}

// apply layers cfg over the set: a non-empty template replaces the current
// one and data layers are appended.
func (s regionSet) apply(cfg map[string]RegionConfig) {
	for _, name := range sortedKeys(cfg) {
		rc := cfg[name]
		r := s.get(name)
		if rc.Template != "" {
			r.template = rc.Template
		}
		r.layers = append(r.layers, rc.Data...)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneRegions(src map[string]RegionConfig) map[string]RegionConfig {
	if src == nil {
		return nil
	}
	dst := make(map[string]RegionConfig, len(src))
	for name, rc := range src {
		rc.Data = append([]DataLayer(nil), rc.Data...)
		dst[name] = rc
	}
	return dst
}
