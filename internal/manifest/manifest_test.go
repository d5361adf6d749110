package manifest

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/carbon/internal/errors"
	"github.com/vango-dev/carbon/pkg/router"
)

const sample = `
regions:
  sidebar:
    template: default_sidebar
routes:
  - name: home
    path: /
    template: home
    data:
      title: Home
  - name: user
    path: /users/{id}
    layout: app_layout
    template: user_show
    defaults:
      id: "1"
    data:
      title: "User {id}"
      admin: false
    regions:
      sidebar:
        template: user_sidebar
  - name: old-user
    path: /u/{id}
    redirect: /users/{id}
`

func parseSample(t *testing.T) *Manifest {
	t.Helper()
	m, err := Parse("routes.yaml", strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return m
}

func TestParse(t *testing.T) {
	m := parseSample(t)

	if len(m.Routes) != 3 {
		t.Fatalf("routes = %d, want 3", len(m.Routes))
	}
	names := []string{m.Routes[0].Name, m.Routes[1].Name, m.Routes[2].Name}
	if strings.Join(names, ",") != "home,user,old-user" {
		t.Errorf("order = %v", names)
	}
	if m.Routes[1].Line != 11 {
		t.Errorf("user line = %d, want 11", m.Routes[1].Line)
	}
	if m.Routes[1].Defaults["id"] != "1" || m.Routes[1].Layout != "app_layout" {
		t.Errorf("user = %+v", m.Routes[1])
	}
	if m.Regions["sidebar"].Template != "default_sidebar" {
		t.Errorf("regions = %+v", m.Regions)
	}
}

func TestParseEmpty(t *testing.T) {
	m, err := Parse("routes.yaml", strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Routes) != 0 {
		t.Errorf("routes = %v", m.Routes)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
		wantText string
	}{
		{
			name:     "missing name",
			input:    "routes:\n  - path: /a\n",
			wantLine: 2,
			wantText: "needs a name",
		},
		{
			name:     "missing path",
			input:    "routes:\n  - name: a\n",
			wantLine: 2,
			wantText: "has no path",
		},
		{
			name:     "duplicate",
			input:    "routes:\n  - name: a\n    path: /a\n  - name: a\n    path: /b\n",
			wantLine: 4,
			wantText: "declared twice",
		},
		{
			name:     "unknown top-level field",
			input:    "routez: []\n",
			wantLine: 1,
		},
		{
			name:     "bad yaml",
			input:    "routes:\n  - name: [\n",
			wantLine: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("routes.yaml", strings.NewReader(tt.input))
			var ce *errors.CarbonError
			if !stderrors.As(err, &ce) {
				t.Fatalf("error = %v, want *CarbonError", err)
			}
			if ce.Code != "C103" {
				t.Errorf("Code = %s", ce.Code)
			}
			if tt.wantLine > 0 && (ce.Location == nil || ce.Location.Line != tt.wantLine) {
				t.Errorf("Location = %v, want line %d", ce.Location, tt.wantLine)
			}
			if tt.wantText != "" && !strings.Contains(ce.Detail, tt.wantText) {
				t.Errorf("Detail = %q", ce.Detail)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")

	if _, err := Load(path); err == nil {
		t.Fatal("Load of a missing file should fail")
	}
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Routes) != 3 {
		t.Errorf("routes = %d", len(m.Routes))
	}
}

func TestApply(t *testing.T) {
	r := router.New()
	if err := parseSample(t).Apply(r); err != nil {
		t.Fatal(err)
	}

	if got := r.Table().Len(); got != 3 {
		t.Fatalf("table has %d routes, want 3", got)
	}
	if u, _ := r.URL("user", nil); u != "/users/1" {
		t.Errorf("URL(user) = %q, want default id", u)
	}

	r.GoURL("/users/7")
	c := r.Current()
	if c.RouteName() != "user" {
		t.Fatalf("route = %q", c.RouteName())
	}
	if got := c.RegionTemplate("layout"); got != "app_layout" {
		t.Errorf("layout template = %q", got)
	}
	if got := c.RegionTemplate("content"); got != "user_show" {
		t.Errorf("content template = %q", got)
	}
	if got := c.RegionTemplate("sidebar"); got != "user_sidebar" {
		t.Errorf("sidebar template = %q", got)
	}

	data := c.View("content").Data()
	if data["title"] != "User 7" {
		t.Errorf("title = %v, want formatted placeholder", data["title"])
	}
	if data["admin"] != false {
		t.Errorf("admin = %v", data["admin"])
	}

	r.GoURL("/")
	if got := r.Current().RegionTemplate("sidebar"); got != "default_sidebar" {
		t.Errorf("home sidebar = %q, want router-level default", got)
	}
}

func TestApplyRedirect(t *testing.T) {
	r := router.New()
	if err := parseSample(t).Apply(r); err != nil {
		t.Fatal(err)
	}

	r.GoURL("/u/9")
	c := r.Current()
	if c.RouteName() != "user" || c.Param("id") != "9" {
		t.Errorf("redirect landed on %q id=%q", c.RouteName(), c.Param("id"))
	}
}

func TestApplyErrors(t *testing.T) {
	t.Run("invalid pattern", func(t *testing.T) {
		m, err := Parse("routes.yaml", strings.NewReader("routes:\n  - name: a\n    path: /{x}/{x}\n"))
		if err != nil {
			t.Fatal(err)
		}
		err = m.Apply(router.New())
		var ce *errors.CarbonError
		if !stderrors.As(err, &ce) || ce.Code != "C004" {
			t.Fatalf("error = %v, want C004", err)
		}
		if ce.Location == nil || ce.Location.String() != "routes.yaml:2" {
			t.Errorf("Location = %v", ce.Location)
		}
	})

	t.Run("layout without layout region", func(t *testing.T) {
		m, err := Parse("routes.yaml", strings.NewReader("routes:\n  - name: a\n    path: /a\n    layout: x\n"))
		if err != nil {
			t.Fatal(err)
		}
		r := router.New(router.WithConfig(router.ConfigPatch{LayoutRegion: router.Ptr("")}))
		var ce *errors.CarbonError
		if err := m.Apply(r); !stderrors.As(err, &ce) || ce.Code != "C103" {
			t.Errorf("error = %v, want C103", err)
		}
	})
}
