package router

import (
	"fmt"
	"html/template"
)

// TemplateFuncs returns template functions bound to r:
//
//	{{ url "user" "id" .id }}     URL of a route, "" if it cannot be built
//	{{ isActive "user" }}         whether the current route is named "user"
//	{{ param "id" }}              a parameter of the current controller
//
// The functions read the router non-reactively.
func (r *Router) TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"url": func(name string, pairs ...any) (string, error) {
			params, err := pairParams(pairs)
			if err != nil {
				return "", err
			}
			return r.URL(name, params)
		},
		"isActive": func(name string) bool {
			return r.Current(NonReactive()).RouteName() == name
		},
		"param": func(name string) string {
			return r.Current(NonReactive()).Param(name)
		},
	}
}

func pairParams(pairs []any) (Params, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("url: odd number of key/value arguments")
	}
	params := make(Params, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("url: key %v is not a string", pairs[i])
		}
		if pairs[i+1] != nil {
			params[key] = fmt.Sprint(pairs[i+1])
		}
	}
	return params, nil
}
