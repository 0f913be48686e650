// Package config loads, normalizes, and validates mover configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MOVER_FEED_URL and MOVER_RPC_PASSWORD. The Config type centralizes every
// knob the daemon and CLI need: the watch and library directories, the feed,
// the Transmission endpoint and the optional media-server and notification
// integrations.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
