package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"mover/internal/config"
	"mover/internal/daemon"
	"mover/internal/logging"
	"mover/internal/notifications"
	"mover/internal/services/jellyfin"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the mover daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.ValidateDaemon(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logCfg := *cfg
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		logCfg.Logging.Level = level
	}
	runID := time.Now().UTC().Format("20060102T150405.000Z")
	base, logPath, err := logging.NewFromConfig(&logCfg, runID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger := base.With(logging.String(logging.FieldRunID, uuid.NewString()))

	logConfigSnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update mover.log link: %v\n", err)
	}
	logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)
	pidPath := filepath.Join(cfg.Paths.StateDir, "mover.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	daemonOpts := []daemon.Option{daemon.WithNotifier(notifications.NewService(cfg))}
	if refresher := jellyfin.NewConfiguredService(cfg); refresher != nil {
		daemonOpts = append(daemonOpts, daemon.WithRefresher(refresher))
	}
	d, err := daemon.New(cfg, logger, daemonOpts...)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that no other instance holds the lock and that state_dir is writable"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("mover daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, logging.CurrentLogName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("watch_dir", cfg.Paths.WatchDir),
		logging.String("save_dir", cfg.Paths.SaveDir),
		logging.String("movies_dir", cfg.Library.MoviesDir),
		logging.String("tv_dir", cfg.Library.TVDir),
		logging.String("rpc_url", cfg.RPC.URL),
		logging.Duration("poll_interval", cfg.PollInterval()),
		logging.Bool("jellyfin_enabled", cfg.Jellyfin.Enabled),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
	)
}
