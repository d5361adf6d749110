package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/carbon/internal/errors"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Preview.Port != DefaultPort {
		t.Errorf("Preview.Port = %d, want %d", cfg.Preview.Port, DefaultPort)
	}
	if cfg.Preview.Host != DefaultHost {
		t.Errorf("Preview.Host = %q, want %q", cfg.Preview.Host, DefaultHost)
	}
	if cfg.Manifest != DefaultManifest || cfg.Templates != DefaultTemplates {
		t.Errorf("paths = %q, %q", cfg.Manifest, cfg.Templates)
	}
	if !cfg.Preview.Watch {
		t.Error("Preview.Watch should default to true")
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	var ce *errors.CarbonError
	if !stderrors.As(err, &ce) || ce.Code != "C102" {
		t.Fatalf("missing config error = %v, want C102", err)
	}

	writeConfig(t, tmpDir, `{
  "origin": "https://example.com/",
  "manifest": "app/routes.yaml",
  "templates": "s3://bucket/tpl",
  "preview": {"host": "0.0.0.0", "port": 8080, "watch": false},
  "router": {"linkSelector": "a.nav", "greedy": true, "extra": {"theme": "dark"}}
}
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Origin != "https://example.com" {
		t.Errorf("Origin = %q (trailing slash should be trimmed)", cfg.Origin)
	}
	if cfg.Preview.Port != 8080 || cfg.Preview.Host != "0.0.0.0" || cfg.Preview.Watch {
		t.Errorf("Preview = %+v", cfg.Preview)
	}
	if cfg.ManifestPath() != filepath.Join(tmpDir, "app/routes.yaml") {
		t.Errorf("ManifestPath() = %q", cfg.ManifestPath())
	}
	if !cfg.TemplatesOnS3() || cfg.TemplateSource() != "s3://bucket/tpl" {
		t.Errorf("TemplateSource() = %q", cfg.TemplateSource())
	}
	if cfg.Dir() != tmpDir || cfg.Path() != filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("Dir/Path = %q, %q", cfg.Dir(), cfg.Path())
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeConfig(t, tmpDir, "{\n  \"origin\": \"x\",\n  oops\n}\n")

	_, err := LoadFile(path)
	var ce *errors.CarbonError
	if !stderrors.As(err, &ce) {
		t.Fatalf("error = %v, want *CarbonError", err)
	}
	if ce.Code != "C101" {
		t.Errorf("Code = %s, want C101", ce.Code)
	}
	if ce.Location == nil || ce.Location.Line != 3 {
		t.Errorf("Location = %v, want line 3", ce.Location)
	}
}

func TestApplyDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"preview": {"watch": true}}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Preview.Port != DefaultPort || cfg.Preview.Host != DefaultHost {
		t.Errorf("Preview = %+v", cfg.Preview)
	}
	if cfg.Manifest != DefaultManifest || cfg.Templates != DefaultTemplates {
		t.Errorf("Manifest/Templates = %q, %q", cfg.Manifest, cfg.Templates)
	}
	if cfg.TemplatesOnS3() || cfg.TemplateSource() != filepath.Join(tmpDir, DefaultTemplates) {
		t.Errorf("TemplateSource() = %q", cfg.TemplateSource())
	}
}

func TestValidate(t *testing.T) {
	same := "main"
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"negative port", func(c *Config) { c.Preview.Port = -1 }, true},
		{"port too high", func(c *Config) { c.Preview.Port = 70000 }, true},
		{"relative origin", func(c *Config) { c.Origin = "example.com" }, true},
		{"absolute origin", func(c *Config) { c.Origin = "http://example.com" }, false},
		{"same regions", func(c *Config) {
			c.Router.ContentRegion = &same
			c.Router.LayoutRegion = &same
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := New()
	if err := cfg.Save(); err == nil {
		t.Error("Save without a path should fail")
	}

	selector := "a.nav"
	cfg.Origin = "https://example.com"
	cfg.Preview.Watch = false
	cfg.Router.LinkSelector = &selector

	path := filepath.Join(tmpDir, ConfigFileName)
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasSuffix(string(data), "}\n") {
		t.Error("saved file should end with a newline")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Origin != cfg.Origin || loaded.Preview.Watch {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
	if loaded.Router.LinkSelector == nil || *loaded.Router.LinkSelector != "a.nav" {
		t.Errorf("Router.LinkSelector = %v", loaded.Router.LinkSelector)
	}

	loaded.Preview.Port = 4000
	if err := loaded.Save(); err != nil {
		t.Fatal(err)
	}
	again, _ := LoadFile(path)
	if again.Preview.Port != 4000 {
		t.Errorf("Save() did not write to the loaded path")
	}
}

func TestPreviewAddress(t *testing.T) {
	cfg := New()
	cfg.Preview.Port = 8080
	if got := cfg.PreviewAddress(); got != "localhost:8080" {
		t.Errorf("PreviewAddress() = %q", got)
	}
	if got := cfg.PreviewURL(); got != "http://localhost:8080" {
		t.Errorf("PreviewURL() = %q", got)
	}
}

func TestRouterPatch(t *testing.T) {
	greedy := true
	key := "body"
	cfg := New()
	cfg.Router.Greedy = &greedy
	cfg.Router.ContentKey = &key
	cfg.Router.Extra = map[string]any{"theme": "dark"}

	p := cfg.RouterPatch()
	if p.Greedy == nil || !*p.Greedy || p.ContentKey == nil || *p.ContentKey != "body" {
		t.Errorf("patch = %+v", p)
	}
	if p.AutoLoad != nil || p.LinkSelector != nil {
		t.Error("unset fields should stay nil")
	}
	if p.Extra["theme"] != "dark" {
		t.Errorf("Extra = %v", p.Extra)
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{}`)

	nested := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	root, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatal(err)
	}
	if root != tmpDir {
		t.Errorf("FindProjectRoot() = %q, want %q", root, tmpDir)
	}
	if !Exists(tmpDir) || Exists(nested) {
		t.Error("Exists() reported the wrong directories")
	}
}
