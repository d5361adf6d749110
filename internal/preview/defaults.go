package preview

import (
	"github.com/vango-dev/carbon/pkg/render"
	"github.com/vango-dev/carbon/pkg/router"
)

// builtinSources define the router's default templates. Project templates
// with the same names replace them.
func builtinSources() []render.Source {
	return []render.Source{
		{
			Name: router.DefaultLayoutTemplate,
			Text: `<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{ with .title }}{{ . }}{{ else }}carbon{{ end }}</title></head>
<body>{{ view .yield }}</body>
</html>`,
		},
		{
			Name: router.DefaultContentTemplate,
			Text: `<p>This route has no content template.</p>`,
		},
		{
			Name: router.DefaultLoadingTemplate,
			Text: `<p>Loading...</p>`,
		},
		{
			Name: router.DefaultNotFoundTemplate,
			Text: `<h1>Not found</h1>`,
		},
	}
}
