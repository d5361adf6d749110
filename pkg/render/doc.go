// Package render turns router regions into HTML.
//
// The router only knows templates by name. A Registry resolves those names to
// Templates; HTML is a Registry backed by html/template whose sources come
// from an fs.FS (LoadFS) or an S3 bucket (S3Source). Region renders one region
// of anything that exposes regions, typically a *router.Controller:
//
//	reg := render.NewHTML(r.TemplateFuncs())
//	if err := reg.LoadFS(os.DirFS("templates")); err != nil {
//	    return err
//	}
//	r := router.New(router.WithTemplates(reg))
//	...
//	err := render.Region(w, r.Current(), "layout")
//
// Inside a layout template the content region is available as a View under
// the configured content key; the "view" template function renders it:
//
//	<main>{{ view .yield }}</main>
package render
