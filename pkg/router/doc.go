// Package router maps URLs to named routes and builds the view model of the
// active route.
//
// # Routes
//
// Routes are registered with a name and a URL template. Placeholders in
// braces become path parameters:
//
//	r := router.New(router.WithTemplates(reg))
//	r.Add("home", "/", router.RouteOptions{Template: "home"})
//	r.Add("user", "/users/{id}", router.RouteOptions{
//	    Template: "users/show",
//	    Before: func(c *router.Controller) {
//	        c.AddRegionData("content", router.Static(router.Data{"user": load(c.Param("id"))}))
//	    },
//	})
//
// Matching tries routes in registration order and takes the first match.
// Register specific patterns before general ones.
//
// # Regions
//
// A Controller holds named regions, each with a template name and a list of
// data layers. The router-level defaults (Config.Regions) apply to every
// controller; a matched route's regions are layered on top. A region's data
// is composed on read: path parameters first, then the status layer
// ({"carbon_status": status}), then the region's layers in order. Later
// layers win, so route data can mask a path parameter of the same name.
//
// The layout region's data also carries the content region's view under
// Config.ContentKey ("yield"), which html templates render with
// {{ view .yield }}.
//
// # Navigation
//
// GoURL and Go change the active URL. Current returns the Controller for
// it and runs the route's before-hook exactly once per navigation:
//
//	r.GoURL("/users/123")
//	c := r.Current()        // hook runs here
//	c = r.Current()         // cached, hook does not run again
//
// Current subscribes the running reactive.Computation, so a computation
// rendering the current route re-runs on every navigation. Pass
// NonReactive() to read without subscribing.
package router
