package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	runLogPrefix = "mover-"
	runLogSuffix = ".log"
	// CurrentLogName is the pointer to the active run log inside the log dir.
	CurrentLogName = "mover.log"
)

// RunLogName returns the per-run log file name for runID.
func RunLogName(runID string) string {
	if runID == "" {
		return CurrentLogName
	}
	return runLogPrefix + runID + runLogSuffix
}

// PruneRunLogs deletes mover-<runID>.log files in logDir whose modification
// time is older than retentionDays. The active run log, the file the
// mover.log pointer resolves to, and the pointer itself are never removed.
// A retentionDays of 0 disables pruning. It returns the removed paths in
// lexical (run) order.
func PruneRunLogs(logger *slog.Logger, logDir string, retentionDays int, active string) []string {
	logDir = strings.TrimSpace(logDir)
	if retentionDays <= 0 || logDir == "" {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	keep := map[string]bool{}
	if active != "" {
		keep[absPath(active)] = true
	}
	if target, err := filepath.EvalSymlinks(filepath.Join(logDir, CurrentLogName)); err == nil {
		keep[absPath(target)] = true
	}

	candidates, err := filepath.Glob(filepath.Join(logDir, runLogPrefix+"*"+runLogSuffix))
	if err != nil {
		return nil
	}
	sort.Strings(candidates)

	var removed []string
	for _, path := range candidates {
		path = absPath(path)
		if keep[path] {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "run log prune failed; file remains", "log_retention_failed",
				String(FieldPath, path),
				Error(err),
				String(FieldErrorHint, "check ownership of paths.log_dir"),
				String(FieldImpact, "old run log stays on disk"),
			)
			continue
		}
		removed = append(removed, path)
	}
	if len(removed) > 0 && logger != nil {
		logger.Info("run logs pruned",
			Int("count", len(removed)),
			Int("retention_days", retentionDays),
			String(FieldEventType, "log_pruned"),
		)
	}
	return removed
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
