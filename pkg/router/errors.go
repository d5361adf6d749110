package router

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is.
var (
	ErrRouteNotFound    = errors.New("route not found")
	ErrMissingParameter = errors.New("missing route parameter")
	ErrAmbiguousRegion  = errors.New("ambiguous region")
)

// RouteNotFoundError is returned when a URL is requested for an unknown
// route name.
type RouteNotFoundError struct {
	Name string
}

func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("route %q not found", e.Name)
}

// Is reports whether target is ErrRouteNotFound.
func (e *RouteNotFoundError) Is(target error) bool {
	return target == ErrRouteNotFound
}

// MissingParameterError is returned when a pattern parameter has no value
// after merging route defaults.
type MissingParameterError struct {
	Route string
	Param string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("route %q: missing parameter %q", e.Route, e.Param)
}

// Is reports whether target is ErrMissingParameter.
func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}

// AmbiguousRegionError is returned when a route gives a bare template but
// the router has no content region to apply it to.
type AmbiguousRegionError struct {
	Route string
}

func (e *AmbiguousRegionError) Error() string {
	return fmt.Sprintf("route %q: template given without a region and no content region is configured", e.Route)
}

// Is reports whether target is ErrAmbiguousRegion.
func (e *AmbiguousRegionError) Is(target error) bool {
	return target == ErrAmbiguousRegion
}
