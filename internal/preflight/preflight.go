package preflight

import (
	"context"

	"mover/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Network checks are skipped when local is true.
func RunAll(ctx context.Context, cfg *config.Config, local bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Watch directory", cfg.Paths.WatchDir),
		CheckDirectoryAccess("Save directory", cfg.Paths.SaveDir),
	}
	if local {
		return results
	}

	results = append(results, CheckRPC(ctx, cfg.RPC.URL, cfg.RPC.Username, cfg.RPC.Password))
	if cfg.Feed.URL != "" {
		results = append(results, CheckFeed(ctx, cfg.Feed.URL))
	}
	if cfg.Jellyfin.Enabled {
		results = append(results, CheckJellyfin(ctx, cfg.Jellyfin.URL, cfg.Jellyfin.APIKey))
	}
	return results
}
