package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrFeedURLMissing reports that no feed URL is configured.
var ErrFeedURLMissing = errors.New("feed.url is required")

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateRPC(); err != nil {
		return err
	}
	if err := c.validateJellyfin(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

// ValidateDaemon applies the stricter checks needed to run the pipeline.
func (c *Config) ValidateDaemon() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Feed.URL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("%w. Set MOVER_FEED_URL env var or edit %s (create with 'mover config init')", ErrFeedURLMissing, defaultPath)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WatchDir == "" {
		return errors.New("paths.watch_dir must be set")
	}
	if c.Paths.SaveDir == "" {
		return errors.New("paths.save_dir must be set")
	}
	if c.Paths.WatchDir == c.Paths.SaveDir {
		return errors.New("paths.watch_dir and paths.save_dir must differ")
	}
	return nil
}

func (c *Config) validateFeed() error {
	if c.Feed.URL != "" {
		if err := validateHTTPURL("feed.url", c.Feed.URL); err != nil {
			return err
		}
	}
	if c.Feed.PollInterval <= 0 {
		return errors.New("feed.poll_interval must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateRPC() error {
	if err := validateHTTPURL("rpc.url", c.RPC.URL); err != nil {
		return err
	}
	if (c.RPC.Username == "") != (c.RPC.Password == "") {
		return errors.New("rpc.username and rpc.password must be set together")
	}
	if c.RPC.RequestTimeout <= 0 {
		return errors.New("rpc.request_timeout must be positive (seconds)")
	}
	if c.RPC.MaxConflictRetries < 1 || c.RPC.MaxConflictRetries > maxConflictRetriesUpperBound {
		return fmt.Errorf("rpc.max_conflict_retries must be between 1 and %d", maxConflictRetriesUpperBound)
	}
	return nil
}

func (c *Config) validateJellyfin() error {
	if !c.Jellyfin.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Jellyfin.URL) == "" {
		return errors.New("jellyfin.url must be set when jellyfin.enabled is true")
	}
	if strings.TrimSpace(c.Jellyfin.APIKey) == "" {
		return errors.New("jellyfin.api_key must be set when jellyfin.enabled is true")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func validateHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", key, value)
	}
	return nil
}
