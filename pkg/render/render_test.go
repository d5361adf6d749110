package render

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"
)

type staticRegions map[string]View

func (s staticRegions) View(region string) View { return s[region] }

func TestMapRegistry(t *testing.T) {
	m := NewMap(Text("a", "A"))
	m.Set(Text("b", "B"))

	if _, ok := m.Lookup("missing"); ok {
		t.Error("Lookup(missing) should report false")
	}
	tpl, ok := m.Lookup("b")
	if !ok || tpl.Name() != "b" {
		t.Fatalf("Lookup(b) = %v, %v", tpl, ok)
	}
	if got := strings.Join(m.Names(), ","); got != "a,b" {
		t.Errorf("Names() = %q", got)
	}
}

func TestViewRender(t *testing.T) {
	calls := 0
	v := View{
		Template: Func("greet", func(w io.Writer, data Data) error {
			_, err := io.WriteString(w, "hi "+data["who"].(string))
			return err
		}),
		Data: func() Data {
			calls++
			return Data{"who": "there"}
		},
	}
	if got := v.String(); got != "hi there" {
		t.Errorf("String() = %q", got)
	}
	if calls != 1 {
		t.Errorf("data composed %d times, want 1", calls)
	}

	if err := (View{}).Render(io.Discard); !errors.Is(err, ErrNoTemplate) {
		t.Errorf("Render without template = %v, want ErrNoTemplate", err)
	}
}

func TestRegion(t *testing.T) {
	src := staticRegions{
		"content": {Template: Text("c", "content!")},
	}
	var buf bytes.Buffer
	if err := Region(&buf, src, "content"); err != nil {
		t.Fatalf("Region() error: %v", err)
	}
	if buf.String() != "content!" {
		t.Errorf("Region() wrote %q", buf.String())
	}
	if err := Region(&buf, src, "layout"); !errors.Is(err, ErrNoTemplate) {
		t.Errorf("Region(layout) = %v, want ErrNoTemplate", err)
	}
}

func TestHTMLLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"layout.html":       {Data: []byte(`<body>{{ template "partials/nav" . }}<main>{{ view .yield }}</main></body>`)},
		"partials/nav.tmpl": {Data: []byte(`<nav>{{ .title }}</nav>`)},
		"users/show.gohtml": {Data: []byte(`<h1>{{ .id }}</h1>`)},
		"README.md":         {Data: []byte(`ignored`)},
		"assets/app.css":    {Data: []byte(`ignored`)},
	}

	h := NewHTML(template.FuncMap{"upper": strings.ToUpper})
	if err := h.LoadFS(fsys); err != nil {
		t.Fatalf("LoadFS() error: %v", err)
	}
	if got := strings.Join(h.Names(), ","); got != "layout,partials/nav,users/show" {
		t.Errorf("Names() = %q", got)
	}

	show, ok := h.Lookup("users/show")
	if !ok {
		t.Fatal("users/show not found")
	}
	layout, ok := h.Lookup("layout")
	if !ok {
		t.Fatal("layout not found")
	}

	content := View{Template: show, Data: func() Data { return Data{"id": "<42>"} }}
	var buf bytes.Buffer
	err := layout.Render(&buf, Data{"title": "Users", "yield": content})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	want := `<body><nav>Users</nav><main><h1>&lt;42&gt;</h1></main></body>`
	if buf.String() != want {
		t.Errorf("Render() = %q, want %q", buf.String(), want)
	}

	if _, ok := h.Lookup(""); ok {
		t.Error("Lookup(\"\") should report false")
	}
	if _, ok := h.Lookup("nope"); ok {
		t.Error("Lookup(nope) should report false")
	}
}

func TestHTMLFuncs(t *testing.T) {
	h := NewHTML(template.FuncMap{"upper": strings.ToUpper})
	if err := h.Load([]Source{{Name: "x", Text: `{{ upper .v }}`}}); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	tpl, _ := h.Lookup("x")
	var buf bytes.Buffer
	if err := tpl.Render(&buf, Data{"v": "abc"}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "ABC" {
		t.Errorf("Render() = %q", buf.String())
	}
}

func TestHTMLLoadFailureKeepsPreviousSet(t *testing.T) {
	h := NewHTML()
	if err := h.Load([]Source{{Name: "ok", Text: "ok"}}); err != nil {
		t.Fatal(err)
	}
	if err := h.Load([]Source{{Name: "bad", Text: "{{ .x "}}); err == nil {
		t.Fatal("Load() should fail on a parse error")
	}
	if _, ok := h.Lookup("ok"); !ok {
		t.Error("previous template set was dropped after a failed Load")
	}
}

func TestTemplateName(t *testing.T) {
	tests := []struct {
		path, prefix, want string
		ok                 bool
	}{
		{"layout.html", "", "layout", true},
		{"templates/users/show.tmpl", "templates/", "users/show", true},
		{"notes.txt", "", "", false},
		{".html", "", "", false},
	}
	for _, tt := range tests {
		got, ok := TemplateName(tt.path, tt.prefix)
		if got != tt.want || ok != tt.ok {
			t.Errorf("TemplateName(%q, %q) = %q, %v", tt.path, tt.prefix, got, ok)
		}
	}
}

func TestReadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"a.html":     {Data: []byte("A")},
		"b/c.tmpl":   {Data: []byte("C")},
		"b/skip.txt": {Data: []byte("x")},
	}
	sources, err := ReadFS(fsys)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 || sources[0].Name != "a" || sources[1].Name != "b/c" || sources[1].Text != "C" {
		t.Errorf("ReadFS() = %+v", sources)
	}

	sub, _ := fs.Sub(fsys, "missing")
	if _, err := ReadFS(sub); err == nil {
		t.Error("ReadFS() of a missing directory should fail")
	}
}

func TestHTMLFuncsAfterCreate(t *testing.T) {
	h := NewHTML()
	if err := h.Load([]Source{{Name: "x", Text: `{{ shout .v }}`}}); err == nil {
		t.Fatal("Load() should fail before shout is defined")
	}
	h.Funcs(template.FuncMap{"shout": func(s string) string { return s + "!" }})
	if err := h.Load([]Source{{Name: "x", Text: `{{ shout .v }}`}}); err != nil {
		t.Fatal(err)
	}
	tpl, _ := h.Lookup("x")
	var buf bytes.Buffer
	if err := tpl.Render(&buf, Data{"v": "hey"}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "hey!" {
		t.Errorf("Render() = %q", buf.String())
	}
}
