package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if strings.TrimSpace(c.StateDir) == "" {
		c.StateDir = defaultStateDir
	}
	if c.StateDir, err = expandPath(c.StateDir); err != nil {
		return fmt.Errorf("state_dir: %w", err)
	}
	c.normalizeAPI()
	c.normalizeUI()
	if c.Images.MaxSourceBytes <= 0 {
		c.Images.MaxSourceBytes = defaultMaxSourceBytes
	}
	c.normalizeLogging()
	return c.normalizeServer()
}

func (c *Config) normalizeAPI() {
	if value, ok := os.LookupEnv(EnvListURL); ok && strings.TrimSpace(value) != "" {
		c.API.ListURL = value
	}
	if value, ok := os.LookupEnv(EnvCreateURL); ok && strings.TrimSpace(value) != "" {
		c.API.CreateURL = value
	}
	c.API.ListURL = strings.TrimSpace(c.API.ListURL)
	c.API.CreateURL = strings.TrimSpace(c.API.CreateURL)
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizeUI() {
	if c.UI.SubmitCooldownMS <= 0 {
		c.UI.SubmitCooldownMS = defaultSubmitCooldownMS
	}
	if c.UI.PageCooldownMS <= 0 {
		c.UI.PageCooldownMS = defaultPageCooldownMS
	}
	if c.UI.ToastMS <= 0 {
		c.UI.ToastMS = defaultToastMS
	}
	if c.UI.PreviewCacheSize <= 0 {
		c.UI.PreviewCacheSize = defaultPreviewCacheSize
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}

func (c *Config) normalizeServer() error {
	var err error
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if strings.TrimSpace(c.Server.DataDir) == "" {
		c.Server.DataDir = defaultServerDataDir
	}
	if c.Server.DataDir, err = expandPath(c.Server.DataDir); err != nil {
		return fmt.Errorf("server.data_dir: %w", err)
	}
	c.Server.PublicURL = strings.TrimRight(strings.TrimSpace(c.Server.PublicURL), "/")
	if c.Server.PublicURL == "" {
		c.Server.PublicURL = "http://" + c.Server.Bind
	}
	if c.Server.PageSize == 0 {
		c.Server.PageSize = defaultPageSize
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.Server.PolicyTTLSeconds <= 0 {
		c.Server.PolicyTTLSeconds = defaultPolicyTTLSeconds
	}
	return nil
}
