// Package config loads statica.json, the project configuration for the
// statica CLI and the mirror builder defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/statica-dev/statica/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "statica.json"

	// DefaultOutput is the default mirror output directory.
	DefaultOutput = "dist"

	// DefaultPreviewPort is the default preview server port.
	DefaultPreviewPort = 4000

	// DefaultPreviewHost is the default preview server host.
	DefaultPreviewHost = "localhost"
)

// Config represents the complete statica.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// BaseURL is the fully-qualified site base URL, e.g.
	// "https://example.com". Required before building a mirror.
	BaseURL string `json:"baseUrl,omitempty"`

	// Locales are the locales to materialize; the first is the default
	// locale, served without a path prefix.
	Locales []string `json:"locales,omitempty"`

	// Output is the mirror output directory.
	Output string `json:"output,omitempty"`

	// IndexDocument is the file the root URL maps to.
	IndexDocument string `json:"indexDocument,omitempty"`

	// DefaultExtension is appended to extensionless paths.
	DefaultExtension string `json:"defaultExtension,omitempty"`

	// ExcludeTypes are content-type names skipped during enumeration.
	ExcludeTypes []string `json:"excludeTypes,omitempty"`

	// Preview configures the preview server.
	Preview PreviewConfig `json:"preview,omitempty"`

	// configPath stores the path the config was loaded from.
	configPath string
}

// PreviewConfig configures the preview server.
type PreviewConfig struct {
	// Port is the port to serve the preview on.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Output:           DefaultOutput,
		IndexDocument:    "index.html",
		DefaultExtension: ".html",
		Preview: PreviewConfig{
			Port: DefaultPreviewPort,
			Host: DefaultPreviewHost,
		},
	}
}

// Load reads statica.json from the specified directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFromWorkingDir searches upward from the working directory for
// statica.json and loads the first one found.
func LoadFromWorkingDir() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	for {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, errors.New(errors.CategoryConfig, "no "+ConfigFileName+" found").
				WithSuggestion("create " + ConfigFileName + " at the project root")
		}
		dir = parent
	}
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.CategoryConfig, "no %s in %s", ConfigFileName, filepath.Dir(path)).
				WithSuggestion("create " + ConfigFileName + " at the project root")
		}
		return nil, errors.New(errors.CategoryConfig, "read "+path).Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CategoryConfig, "parse "+path).
			WithSuggestion("check that " + ConfigFileName + " is valid JSON").
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.IndexDocument == "" {
		c.IndexDocument = "index.html"
	}
	if c.DefaultExtension == "" {
		c.DefaultExtension = ".html"
	}
	if c.Preview.Port == 0 {
		c.Preview.Port = DefaultPreviewPort
	}
	if c.Preview.Host == "" {
		c.Preview.Host = DefaultPreviewHost
	}
}

// Validate checks that the configuration can drive a mirror build.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New(errors.CategoryConfig, "baseUrl is not set").
			WithSuggestion(`set "baseUrl" in ` + ConfigFileName + `, e.g. "https://example.com"`)
	}
	return nil
}

// DefaultLocale returns the first configured locale, or "".
func (c *Config) DefaultLocale() string {
	if len(c.Locales) == 0 {
		return ""
	}
	return c.Locales[0]
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return "."
	}
	return filepath.Dir(c.configPath)
}

// OutputPath returns the output directory resolved against the config
// file's directory.
func (c *Config) OutputPath() string {
	if filepath.IsAbs(c.Output) {
		return c.Output
	}
	return filepath.Join(c.Dir(), c.Output)
}

// PreviewAddress returns the host:port the preview server binds to.
func (c *Config) PreviewAddress() string {
	return fmt.Sprintf("%s:%d", c.Preview.Host, c.Preview.Port)
}
