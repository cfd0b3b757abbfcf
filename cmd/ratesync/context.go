package main

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"ratesync/internal/config"
	"ratesync/internal/plex"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	cacheOnce sync.Once
	cache     *plex.ConnectionCache
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) connectionCache() (*plex.ConnectionCache, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Plex.Token) == "" {
		return nil, errors.New("plex token is not configured (set plex.token or export PLEX_TOKEN)")
	}
	c.cacheOnce.Do(func() {
		timeout := time.Duration(cfg.Plex.ConnectTimeoutSeconds) * time.Second
		c.cache = plex.NewConnectionCache(cfg.Plex.Token, timeout)
	})
	return c.cache, nil
}

// connect returns a client for the configured server: a direct URL when one
// is set, otherwise the named (or first) owned server via plex.tv discovery.
func (c *commandContext) connect(ctx context.Context) (*plex.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	cache, err := c.connectionCache()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Plex.URL) != "" {
		return cache.DirectClient(ctx, cfg.Plex.URL)
	}
	return cache.Connect(ctx, cfg.Plex.Server)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
