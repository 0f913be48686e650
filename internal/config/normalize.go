package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLibrary()
	c.normalizeFeed()
	c.normalizeRPC()
	c.normalizeJellyfin()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WatchDir, err = expandPath(strings.TrimSpace(c.Paths.WatchDir)); err != nil {
		return fmt.Errorf("paths.watch_dir: %w", err)
	}
	if c.Paths.SaveDir, err = expandPath(strings.TrimSpace(c.Paths.SaveDir)); err != nil {
		return fmt.Errorf("paths.save_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

// Library directories stay relative to the save root; an empty value is kept
// as-is so that the matching media kind is left in place.
func (c *Config) normalizeLibrary() {
	c.Library.MoviesDir = strings.Trim(strings.TrimSpace(c.Library.MoviesDir), "/")
	c.Library.TVDir = strings.Trim(strings.TrimSpace(c.Library.TVDir), "/")
}

func (c *Config) normalizeFeed() {
	c.Feed.URL = strings.TrimSpace(c.Feed.URL)
	if c.Feed.URL == "" {
		if value, ok := os.LookupEnv("MOVER_FEED_URL"); ok {
			c.Feed.URL = strings.TrimSpace(value)
		}
	}
	if c.Feed.PollInterval == 0 {
		c.Feed.PollInterval = defaultPollInterval
	}
}

func (c *Config) normalizeRPC() {
	c.RPC.URL = strings.TrimSpace(c.RPC.URL)
	if c.RPC.URL == "" {
		c.RPC.URL = defaultRPCURL
	}
	c.RPC.Username = strings.TrimSpace(c.RPC.Username)
	if c.RPC.Password == "" {
		if value, ok := os.LookupEnv("MOVER_RPC_PASSWORD"); ok {
			c.RPC.Password = value
		}
	}
	if c.RPC.RequestTimeout == 0 {
		c.RPC.RequestTimeout = defaultRPCRequestTimeout
	}
}

func (c *Config) normalizeJellyfin() {
	if c.Jellyfin.APIKey == "" {
		if value, ok := os.LookupEnv("JELLYFIN_API_KEY"); ok {
			c.Jellyfin.APIKey = strings.TrimSpace(value)
		}
	}
	c.Jellyfin.URL = strings.TrimSpace(c.Jellyfin.URL)
	c.Jellyfin.APIKey = strings.TrimSpace(c.Jellyfin.APIKey)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
