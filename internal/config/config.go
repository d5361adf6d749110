package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vango-dev/carbon/internal/errors"
	"github.com/vango-dev/carbon/pkg/router"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "carbon.json"

	// DefaultPort is the default preview server port.
	DefaultPort = 3000

	// DefaultHost is the default preview server host.
	DefaultHost = "localhost"

	// DefaultManifest is the default route manifest path.
	DefaultManifest = "routes.yaml"

	// DefaultTemplates is the default template directory.
	DefaultTemplates = "templates"
)

// Config represents carbon.json.
type Config struct {
	// Origin is stripped from absolute URLs before matching. Empty means the
	// preview server's own origin.
	Origin string `json:"origin,omitempty"`

	// Manifest is the path to the YAML route manifest.
	Manifest string `json:"manifest,omitempty"`

	// Templates is a template directory or an s3://bucket/prefix URL.
	Templates string `json:"templates,omitempty"`

	// Preview contains preview server settings.
	Preview PreviewConfig `json:"preview,omitempty"`

	// Router overrides the router's default configuration.
	Router RouterConfig `json:"router,omitempty"`

	configPath string
}

// PreviewConfig contains preview server settings.
type PreviewConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// Watch reloads templates when files under the template directory change.
	Watch bool `json:"watch"`
}

// RouterConfig mirrors router.ConfigPatch. Nil fields keep the router's
// defaults.
type RouterConfig struct {
	AutoLoad      *bool   `json:"autoLoad,omitempty"`
	LinkSelector  *string `json:"linkSelector,omitempty"`
	Greedy        *bool   `json:"greedy,omitempty"`
	ContentRegion *string `json:"contentRegion,omitempty"`
	LayoutRegion  *string `json:"layoutRegion,omitempty"`
	ContentKey    *string `json:"contentKey,omitempty"`

	// Extra keys are readable through Router.GetConfig.
	Extra map[string]any `json:"extra,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Manifest:  DefaultManifest,
		Templates: DefaultTemplates,
		Preview: PreviewConfig{
			Host:  DefaultHost,
			Port:  DefaultPort,
			Watch: true,
		},
	}
}

// Load reads carbon.json from the specified directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C102").
				WithDetail("No carbon.json found in " + filepath.Dir(path)).
				WithSuggestion("Create carbon.json or pass --config")
		}
		return nil, errors.New("C101").Wrap(err).WithLocation(path, 0)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("C101").
			Wrap(err).
			WithLocation(path, jsonErrorLine(data, err)).
			WithSuggestion("Check that carbon.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		if ce, ok := err.(*errors.CarbonError); ok {
			ce.WithLocation(path, 0)
		}
		return nil, err
	}
	return cfg, nil
}

// jsonErrorLine converts the byte offset of a syntax error to a line number.
func jsonErrorLine(data []byte, err error) int {
	var offset int64
	switch e := err.(type) {
	case *json.SyntaxError:
		offset = e.Offset
	case *json.UnmarshalTypeError:
		offset = e.Offset
	default:
		return 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return strings.Count(string(data[:offset]), "\n") + 1
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("C101").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C101").Wrap(err).WithLocation(path, 0)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

func (c *Config) applyDefaults() {
	if c.Manifest == "" {
		c.Manifest = DefaultManifest
	}
	if c.Templates == "" {
		c.Templates = DefaultTemplates
	}
	if c.Preview.Host == "" {
		c.Preview.Host = DefaultHost
	}
	if c.Preview.Port == 0 {
		c.Preview.Port = DefaultPort
	}
	c.Origin = strings.TrimSuffix(c.Origin, "/")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Preview.Port < 0 || c.Preview.Port > 65535 {
		return errors.New("C101").
			WithDetail("preview.port must be between 0 and 65535")
	}
	if c.Origin != "" && !strings.Contains(c.Origin, "://") {
		return errors.New("C101").
			WithDetail("origin must be an absolute URL such as https://example.com").
			WithExample(`"origin": "https://example.com"`)
	}
	if c.Router.ContentRegion != nil && c.Router.LayoutRegion != nil &&
		*c.Router.ContentRegion != "" && *c.Router.ContentRegion == *c.Router.LayoutRegion {
		return errors.New("C101").
			WithDetail("router.contentRegion and router.layoutRegion must name different regions")
	}
	return nil
}

// PreviewAddress returns the listen address of the preview server.
func (c *Config) PreviewAddress() string {
	return c.Preview.Host + ":" + strconv.Itoa(c.Preview.Port)
}

// PreviewURL returns the base URL of the preview server.
func (c *Config) PreviewURL() string {
	return "http://" + c.PreviewAddress()
}

// ManifestPath returns the absolute path to the route manifest.
func (c *Config) ManifestPath() string {
	return c.resolve(c.Manifest)
}

// TemplateSource returns the template location. S3 URLs are returned as is;
// directories are resolved against the config directory.
func (c *Config) TemplateSource() string {
	if strings.HasPrefix(c.Templates, "s3://") {
		return c.Templates
	}
	return c.resolve(c.Templates)
}

// TemplatesOnS3 reports whether templates are loaded from a bucket.
func (c *Config) TemplatesOnS3() bool {
	return strings.HasPrefix(c.Templates, "s3://")
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// RouterPatch converts the router section to a router.ConfigPatch.
func (c *Config) RouterPatch() router.ConfigPatch {
	return router.ConfigPatch{
		AutoLoad:      c.Router.AutoLoad,
		LinkSelector:  c.Router.LinkSelector,
		Greedy:        c.Router.Greedy,
		ContentRegion: c.Router.ContentRegion,
		LayoutRegion:  c.Router.LayoutRegion,
		ContentKey:    c.Router.ContentKey,
		Extra:         c.Router.Extra,
	}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the one holding carbon.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("C102").
				WithDetail("No carbon.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or its nearest ancestor holding carbon.json.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}
	return Load(root)
}
