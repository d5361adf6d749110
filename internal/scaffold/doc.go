// Package scaffold creates new Carbon projects.
//
// A scaffold is a set of files: carbon.json, a route manifest and the
// templates it names. File contents are text/template sources using [[ ]]
// delimiters, so the html/template actions of the generated templates pass
// through untouched.
//
// # Available Scaffolds
//
//   - minimal: one route and one template
//   - site: a layout, several pages, a redirect and a custom not-found page
//
// # Usage
//
//	s, err := scaffold.Get("site")
//	if err != nil {
//	    return err
//	}
//	if err := s.Create(dir, scaffold.Config{Name: "docs"}); err != nil {
//	    return err
//	}
package scaffold
