package scaffold

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/vango-dev/carbon/internal/config"
	"github.com/vango-dev/carbon/internal/errors"
)

// Config contains the values substituted into scaffold files.
type Config struct {
	// Name is the project name, used for page titles.
	Name string

	// Origin is written to carbon.json when set.
	Origin string

	// Port is the preview port (default: config.DefaultPort).
	Port int
}

// Scaffold is a named set of project files.
type Scaffold struct {
	Name        string
	Description string

	// Files maps slash-separated relative paths to their sources.
	Files map[string]string
}

var scaffolds = map[string]*Scaffold{
	"minimal": minimal(),
	"site":    site(),
}

// Get returns a scaffold by name.
func Get(name string) (*Scaffold, error) {
	s, ok := scaffolds[name]
	if !ok {
		return nil, errors.New("C203").
			WithDetail("No scaffold named '" + name + "'").
			WithSuggestion("Available scaffolds: " + strings.Join(List(), ", "))
	}
	return s, nil
}

// List returns the scaffold names, sorted.
func List() []string {
	names := make([]string, 0, len(scaffolds))
	for name := range scaffolds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Paths returns the relative paths of the scaffold's files, sorted.
func (s *Scaffold) Paths() []string {
	paths := make([]string, 0, len(s.Files))
	for p := range s.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Create writes the scaffold into dir. It refuses to overwrite a project
// that already has a carbon.json.
func (s *Scaffold) Create(dir string, cfg Config) error {
	if config.Exists(dir) {
		return errors.New("C204").
			WithDetail(filepath.Join(dir, config.ConfigFileName) + " already exists")
	}
	if cfg.Port == 0 {
		cfg.Port = config.DefaultPort
	}
	if cfg.Name == "" {
		cfg.Name = filepath.Base(dir)
	}

	for _, rel := range s.Paths() {
		tmpl, err := template.New(rel).Delims("[[", "]]").Parse(s.Files[rel])
		if err != nil {
			return errors.Newf(errors.CategoryCLI, "invalid scaffold file %s: %v", rel, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return errors.Newf(errors.CategoryCLI, "scaffold file %s: %v", rel, err)
		}

		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return err
		}
	}
	return nil
}

const carbonJSON = `{
[[- if .Origin ]]
  "origin": "[[ .Origin ]]",
[[- end ]]
  "manifest": "routes.yaml",
  "templates": "templates",
  "preview": {
    "port": [[ .Port ]],
    "watch": true
  }
}
`

func minimal() *Scaffold {
	return &Scaffold{
		Name:        "minimal",
		Description: "One route and one template",
		Files: map[string]string{
			"carbon.json": carbonJSON,
			"routes.yaml": `routes:
  - name: home
    path: /
    template: home
    data:
      title: "[[ .Name ]]"
`,
			"templates/home.html": `<h1>{{ .title }}</h1>
<p>Add routes to routes.yaml and templates to this directory.</p>
`,
		},
	}
}

func site() *Scaffold {
	return &Scaffold{
		Name:        "site",
		Description: "A layout with pages, a redirect and a not-found page",
		Files: map[string]string{
			"carbon.json": carbonJSON,
			"routes.yaml": `regions:
  layout:
    template: layout
    data:
      site: "[[ .Name ]]"

routes:
  - name: home
    path: /
    template: home
    data:
      title: Home

  - name: about
    path: /about
    template: about
    data:
      title: About

  - name: post
    path: /posts/{slug}
    template: post
    defaults:
      slug: welcome
    data:
      title: "Post {slug}"

  # Old links keep working.
  - name: blog
    path: /blog/{slug}
    redirect: /posts/{slug}
`,
			"templates/layout.html": `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{ .site }}</title>
</head>
<body>
  <nav>
    <a href="{{ url "home" }}"{{ if isActive "home" }} class="active"{{ end }}>Home</a>
    <a href="{{ url "about" }}"{{ if isActive "about" }} class="active"{{ end }}>About</a>
    <a href="{{ url "post" }}"{{ if isActive "post" }} class="active"{{ end }}>Latest post</a>
  </nav>
  <main>{{ view .yield }}</main>
</body>
</html>
`,
			"templates/home.html": `<h1>{{ .title }}</h1>
<p>Read the <a href="{{ url "post" "slug" "welcome" }}">welcome post</a>.</p>
`,
			"templates/about.html": `<h1>{{ .title }}</h1>
<p>Built with Carbon.</p>
`,
			"templates/post.html": `<article>
  <h1>{{ .title }}</h1>
</article>
`,
			"templates/carbon__default_not_found.html": `<h1>Page not found</h1>
<p><a href="{{ url "home" }}">Back home</a></p>
`,
		},
	}
}
