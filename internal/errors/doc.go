// Package errors provides the structured errors printed by the carbon CLI.
//
// Each error has a code (e.g., "C001") registered with a category, a short
// message, an explanation and a documentation URL. Router and pattern errors
// are mapped to their codes with FromRouterError:
//
//	if err := r.Add(name, path, opts); err != nil {
//	    return errors.FromRouterError(err, "C103").WithLocation("routes.yaml", 0)
//	}
//
// Format renders a colored multi-line report, FormatCompact a single line
// and FormatJSON a machine-readable object for --json output.
package errors
