// Package preview serves a route manifest and its templates for local
// development.
//
// A GET request renders the page region (the layout region, or the content
// region without a layout) of the requested path with a fresh router, and
// answers 404 for unmatched paths and 302 when a before-hook redirects.
//
// Each page then opens a WebSocket session on /_carbon/ws. The session owns
// a router whose history forwards pushes to the browser, and a reactive
// computation that re-renders the page whenever the router navigates:
//
//	browser                     server
//	{"type":"click",...}   ->   Router.InterceptLink
//	                       <-   {"type":"push","url":"http://.../users/2"}
//	                       <-   {"type":"render","html":"...","status":"found"}
//
// Reload re-reads the templates and re-renders every session.
package preview
