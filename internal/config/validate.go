package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePlex(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePlex() error {
	if c.Plex.URL != "" {
		parsed, err := url.Parse(c.Plex.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("plex.url %q is not a valid URL", c.Plex.URL)
		}
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.Workers > 64 {
		return errors.New("sync.workers must be 64 or fewer")
	}
	if c.Sync.ParallelThreshold < c.Sync.LazyLookupThreshold {
		return errors.New("sync.parallel_threshold must not be below sync.lazy_lookup_threshold")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
