package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable. Missing endpoints are not an
// error here; commands that need them call RequireEndpoints.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateServer()
}

func (c *Config) validateAPI() error {
	for name, value := range map[string]string{
		"api.list_url":   c.API.ListURL,
		"api.create_url": c.API.CreateURL,
	} {
		if value == "" {
			continue
		}
		if err := ValidateEndpoint(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// ValidateEndpoint checks that value is an absolute http(s) URL.
func ValidateEndpoint(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", value, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", value)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", value)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "off":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, off (got %q)", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.PageSize < 1 || c.Server.PageSize > 100 {
		return errors.New("server.page_size must be between 1 and 100")
	}
	if err := ValidateEndpoint(c.Server.PublicURL); err != nil {
		return fmt.Errorf("server.public_url: %w", err)
	}
	return nil
}
