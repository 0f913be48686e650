package watcher

import (
	"context"
	"log/slog"
	"os"

	"mover/internal/logging"
)

// PathBuffer is the capacity of the channel between Watcher and Placer.
const PathBuffer = 16

// Watcher filters Source events and forwards actionable paths.
type Watcher struct {
	source Source
	out    chan<- string
	logger *slog.Logger
	exists func(string) bool
}

// New constructs a Watcher forwarding to out.
func New(source Source, out chan<- string, logger *slog.Logger) *Watcher {
	return &Watcher{
		source: source,
		out:    out,
		logger: logging.NewComponentLogger(logger, "watcher"),
		exists: pathExists,
	}
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Actionable reports whether an event should trigger placement: a creation or
// modification whose every path currently exists.
func Actionable(ev Event, exists func(string) bool) bool {
	if ev.Kind != KindCreate && ev.Kind != KindModify {
		return false
	}
	if len(ev.Paths) == 0 {
		return false
	}
	for _, path := range ev.Paths {
		if !exists(path) {
			return false
		}
	}
	return true
}

// Run forwards actionable paths until ctx is cancelled or the source closes.
// Source errors are logged and observation continues.
func (w *Watcher) Run(ctx context.Context) error {
	events := w.source.Events()
	errs := w.source.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !Actionable(ev, w.exists) {
				continue
			}
			for _, path := range ev.Paths {
				w.logger.Debug("path changed",
					logging.String(logging.FieldPath, path),
					logging.String("kind", ev.Kind.String()))
				select {
				case w.out <- path:
				case <-ctx.Done():
					return nil
				}
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logging.WarnWithContext(w.logger, "filesystem watch error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check inotify limits (fs.inotify.max_user_watches)"),
				logging.String(logging.FieldImpact, "some completed downloads may not be placed automatically"),
			)
		}
	}
}
