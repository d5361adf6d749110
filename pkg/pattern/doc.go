// Package pattern compiles URL templates into matchers.
//
// A template is a path with placeholders in braces:
//
//	/users/{id}          → matches /users/42, Params{"id": "42"}
//	/prefix-{x}/{y}      → matches /prefix-1/2
//	/files/{}/{}         → anonymous placeholders are named "0", "1"
//	/literal/{{braces}}  → matches /literal/{braces}
//
// A placeholder never matches an empty string and never spans a '/'.
// The same template syntax drives Build, which turns parameters back into a
// URL, and Format, a general-purpose placeholder formatter.
package pattern
