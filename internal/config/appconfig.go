// Package config provides configuration management for loadtracker.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for a new configuration.
const (
	DefaultUpdatePath     = "/Loads/Update"
	DefaultRowPath        = "/Loads/Row"
	DefaultTablePath      = "/Loads"
	DefaultHubPath        = "/hubs/loadtracker"
	DefaultPollInterval   = 10 * time.Second
	DefaultRequestTimeout = 15 * time.Second
	DefaultMessageLimit   = 800
)

const (
	appConfigDir  = ".config/loadtracker"
	appConfigFile = "config.yaml"
	prefsFile     = "prefs.db"
)

// AppConfig is stored in ~/.config/loadtracker/config.yaml
type AppConfig struct {
	// Server is the base URL of the load server
	Server string `yaml:"server"`
	// Customer is the group whose loads are shown
	Customer string `yaml:"customer"`

	UpdatePath string `yaml:"update_path,omitempty"`
	RowPath    string `yaml:"row_path,omitempty"`
	TablePath  string `yaml:"table_path,omitempty"`
	HubPath    string `yaml:"hub_path,omitempty"`

	// PrefsDB is the column preference database, defaults next to this file
	PrefsDB string `yaml:"prefs_db,omitempty"`

	PollInterval   time.Duration `yaml:"poll_interval,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
	MessageLimit   int           `yaml:"message_limit,omitempty"`

	ReadOnly bool `yaml:"read_only,omitempty"`
}

// Default returns a configuration with every optional field set.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset optional fields.
func (c *AppConfig) ApplyDefaults() {
	if c.UpdatePath == "" {
		c.UpdatePath = DefaultUpdatePath
	}
	if c.RowPath == "" {
		c.RowPath = DefaultRowPath
	}
	if c.TablePath == "" {
		c.TablePath = DefaultTablePath
	}
	if c.HubPath == "" {
		c.HubPath = DefaultHubPath
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.MessageLimit == 0 {
		c.MessageLimit = DefaultMessageLimit
	}
	if c.PrefsDB == "" {
		if dir := appConfigDirPath(); dir != "" {
			c.PrefsDB = filepath.Join(dir, prefsFile)
		}
	}
}

// LoadAppConfig loads the app configuration from ~/.config/loadtracker/config.yaml
func LoadAppConfig() (*AppConfig, error) {
	path := AppConfigPath()
	if path == "" {
		return nil, errors.New("getting home directory: no home directory")
	}
	return LoadAppConfigFrom(path)
}

// LoadAppConfigFrom loads the app configuration from path.
func LoadAppConfigFrom(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the user's config file
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s - run 'loadtracker init' or create it manually", ErrConfigNotFound, path)
		}

		return nil, fmt.Errorf("reading app config: %w", err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing app config: %w", err)
	}

	cfg.PrefsDB = expandHome(cfg.PrefsDB)
	cfg.ApplyDefaults()

	return &cfg, nil
}

// SaveAppConfig saves the app configuration to ~/.config/loadtracker/config.yaml
func SaveAppConfig(cfg *AppConfig) error {
	path := AppConfigPath()
	if path == "" {
		return errors.New("getting home directory: no home directory")
	}
	return SaveAppConfigTo(path, cfg)
}

// SaveAppConfigTo saves the app configuration to path.
func SaveAppConfigTo(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := marshalYAML(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	content := fmt.Sprintf("# loadtracker app configuration\n# Server connection and polling settings\n\n%s", string(data))

	// Use 0600 permissions to restrict access to owner only
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// AppConfigPath returns the path where the app config is stored.
// Returns an empty string if the home directory cannot be determined.
func AppConfigPath() string {
	dir := appConfigDirPath()
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, appConfigFile)
}

func appConfigDirPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, appConfigDir)
}

// UpdateURL is the endpoint that receives saved edits.
func (c *AppConfig) UpdateURL() (string, error) { return c.resolve(c.UpdatePath) }

// RowURL is the single-row fetch endpoint.
func (c *AppConfig) RowURL() (string, error) { return c.resolve(c.RowPath) }

// TableURL is the full-table fetch endpoint.
func (c *AppConfig) TableURL() (string, error) { return c.resolve(c.TablePath) }

// HubURL is the push channel endpoint with a websocket scheme.
func (c *AppConfig) HubURL() (string, error) {
	raw, err := c.resolve(c.HubPath)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing hub url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	return u.String(), nil
}

func (c *AppConfig) resolve(path string) (string, error) {
	base, err := url.Parse(strings.TrimSpace(c.Server))
	if err != nil {
		return "", fmt.Errorf("parsing server url: %w", err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parsing path %q: %w", path, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func marshalYAML(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	if err := enc.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
