package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://carbon.vango.dev/docs/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Router errors (C001-C099)

	"C001": {
		Category: CategoryRouter,
		Message:  "Unknown route",
		Detail:   "No route with this name has been added to the router.",
		DocURL:   docBase + "C001",
	},
	"C002": {
		Category: CategoryRouter,
		Message:  "Missing route parameter",
		Detail:   "A URL was built with checking enabled, but a parameter the pattern needs had no value and no default.",
		DocURL:   docBase + "C002",
	},
	"C003": {
		Category: CategoryRouter,
		Message:  "Ambiguous region definition",
		Detail:   "A route may give a top-level template and data, or a regions map, but not both.",
		DocURL:   docBase + "C003",
	},
	"C004": {
		Category: CategoryPattern,
		Message:  "Invalid route pattern",
		Detail:   "Route patterns are literal text with {name} placeholders. A name may not contain '/' or '{' and may appear only once.",
		DocURL:   docBase + "C004",
	},

	// Project errors (C100-C199)

	"C101": {
		Category: CategoryConfig,
		Message:  "Invalid carbon.json",
		Detail:   "The project configuration could not be parsed.",
		DocURL:   docBase + "C101",
	},
	"C102": {
		Category: CategoryConfig,
		Message:  "carbon.json not found",
		Detail:   "No carbon.json was found in this directory or any parent directory.",
		DocURL:   docBase + "C102",
	},
	"C103": {
		Category: CategoryManifest,
		Message:  "Invalid route manifest",
		Detail:   "The routes file could not be parsed or one of its routes was rejected by the router.",
		DocURL:   docBase + "C103",
	},

	// Template errors (C200-C299)

	"C201": {
		Category: CategoryTemplate,
		Message:  "Template load failed",
		Detail:   "The template directory or bucket could not be read, or a template failed to parse.",
		DocURL:   docBase + "C201",
	},
	"C202": {
		Category: CategoryCLI,
		Message:  "Preview server failed",
		Detail:   "The preview server stopped with an error.",
		DocURL:   docBase + "C202",
	},
	"C203": {
		Category: CategoryCLI,
		Message:  "Unknown scaffold",
		Detail:   "carbon init was asked for a scaffold that does not exist.",
		DocURL:   docBase + "C203",
	},
	"C204": {
		Category: CategoryCLI,
		Message:  "Project already exists",
		Detail:   "The target directory already holds a carbon.json.",
		DocURL:   docBase + "C204",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
