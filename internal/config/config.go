package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// API contains the recipe backend endpoints.
type API struct {
	ListURL        string `toml:"list_url"`
	CreateURL      string `toml:"create_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// UI contains timing for the interactive catalog.
type UI struct {
	SubmitCooldownMS int `toml:"submit_cooldown_ms"`
	PageCooldownMS   int `toml:"page_cooldown_ms"`
	ToastMS          int `toml:"toast_ms"`
	PreviewCacheSize int `toml:"preview_cache_size"`
}

// Images contains limits for attached image files.
type Images struct {
	MaxSourceBytes int64 `toml:"max_source_bytes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Server contains configuration for the local development backend.
type Server struct {
	Bind             string `toml:"bind"`
	DataDir          string `toml:"data_dir"`
	PublicURL        string `toml:"public_url"`
	PageSize         int    `toml:"page_size"`
	MaxUploadBytes   int64  `toml:"max_upload_bytes"`
	PolicyTTLSeconds int    `toml:"policy_ttl_seconds"`
}

// Config encapsulates all configuration values for reci.
type Config struct {
	StateDir string  `toml:"state_dir"`
	API      API     `toml:"api"`
	UI       UI      `toml:"ui"`
	Images   Images  `toml:"images"`
	Logging  Logging `toml:"logging"`
	Server   Server  `toml:"server"`
}

// Environment variables that override the endpoint settings.
const (
	EnvListURL   = "RECI_GET_RECIPES_URL"
	EnvCreateURL = "RECI_POST_RECIPE_URL"
)

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the resolved path and whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

// Configured reports whether both endpoints are known.
func (c *Config) Configured() bool {
	return c.API.ListURL != "" && c.API.CreateURL != ""
}

// RequireEndpoints returns an error naming the missing endpoint settings.
func (c *Config) RequireEndpoints() error {
	var missing []string
	if c.API.ListURL == "" {
		missing = append(missing, "api.list_url ("+EnvListURL+")")
	}
	if c.API.CreateURL == "" {
		missing = append(missing, "api.create_url ("+EnvCreateURL+")")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing %s; run 'reci' interactively or 'reci config init'", strings.Join(missing, ", "))
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c *Config) SubmitCooldown() time.Duration {
	return time.Duration(c.UI.SubmitCooldownMS) * time.Millisecond
}

func (c *Config) PageCooldown() time.Duration {
	return time.Duration(c.UI.PageCooldownMS) * time.Millisecond
}

func (c *Config) ToastDuration() time.Duration {
	return time.Duration(c.UI.ToastMS) * time.Millisecond
}

func (c *Config) PolicyTTL() time.Duration {
	return time.Duration(c.Server.PolicyTTLSeconds) * time.Second
}

// LogPath is the log file used while the terminal UI owns stdout.
func (c *Config) LogPath() string {
	return filepath.Join(c.StateDir, "reci.log")
}

// EnsureDirectories creates the state directory.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.StateDir, 0o700); err != nil {
		return fmt.Errorf("create directory %q: %w", c.StateDir, err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Save writes cfg to path as TOML.
func Save(path string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
