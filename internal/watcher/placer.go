package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/google/uuid"

	"mover/internal/classify"
	"mover/internal/logging"
	"mover/internal/relocate"
)

// Relocator places a single path in the library.
type Relocator interface {
	Relocate(src string) (relocate.Placement, error)
}

// Recorder stores placement outcomes.
type Recorder interface {
	RecordPlacement(ctx context.Context, source, destination string, placeErr error) error
}

// Notifier announces finished placements.
type Notifier interface {
	NotifyPlaced(ctx context.Context, title, destination string) error
}

// Refresher asks a media server to rescan its library.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// PlacerOptions carries the optional collaborators of a Placer.
type PlacerOptions struct {
	Recorder  Recorder
	Notifier  Notifier
	Refresher Refresher
	Logger    *slog.Logger
}

// Placer relocates every path received from a Watcher.
type Placer struct {
	paths     <-chan string
	relocator Relocator
	recorder  Recorder
	notifier  Notifier
	refresher Refresher
	logger    *slog.Logger
	exists    func(string) bool
}

// NewPlacer constructs a Placer.
func NewPlacer(paths <-chan string, relocator Relocator, opts PlacerOptions) *Placer {
	return &Placer{
		paths:     paths,
		relocator: relocator,
		recorder:  opts.Recorder,
		notifier:  opts.Notifier,
		refresher: opts.Refresher,
		logger:    logging.NewComponentLogger(opts.Logger, "placer"),
		exists:    pathExists,
	}
}

// Run places paths until ctx is cancelled or the channel closes. Failures
// affect only the path being placed.
func (p *Placer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-p.paths:
			if !ok {
				return nil
			}
			p.place(ctx, path)
		}
	}
}

func (p *Placer) place(ctx context.Context, path string) {
	logger := p.logger.With(
		logging.String(logging.FieldCorrelationID, uuid.NewString()),
		logging.String(logging.FieldPath, path),
	)

	// Earlier placements may have moved this path already.
	if !p.exists(path) {
		logger.Debug("path no longer exists; skipped")
		return
	}

	placement, err := p.relocator.Relocate(path)
	switch {
	case err == nil:
	case errors.Is(err, classify.ErrNoTarget):
		logger.Debug("no library directory for path; skipped", logging.Error(err))
		return
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("path vanished before placement; skipped", logging.Error(err))
		return
	case errors.Is(err, classify.ErrUnclassifiable):
		logging.WarnWithContext(logger, "path could not be classified", "path_unclassifiable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "rename the download so a show name precedes the SNN marker"),
			logging.String(logging.FieldImpact, "download stays in the watch directory"),
		)
		p.record(ctx, logger, path, "", err)
		return
	default:
		logging.WarnWithContext(logger, "placement failed", "placement_failed",
			logging.Error(err),
			logging.String("destination", placement.Destination),
			logging.String(logging.FieldErrorHint, "check save_dir permissions and free space"),
			logging.String(logging.FieldImpact, "download stays in the watch directory"),
		)
		p.record(ctx, logger, path, placement.Destination, err)
		return
	}

	p.record(ctx, logger, path, placement.Destination, nil)

	if p.notifier != nil {
		title := placement.Classification.DisplayTitle()
		if nerr := p.notifier.NotifyPlaced(ctx, title, placement.Destination); nerr != nil {
			logger.Debug("placement notification failed", logging.Error(nerr))
		}
	}
	if p.refresher != nil {
		if rerr := p.refresher.Refresh(ctx); rerr != nil {
			logging.WarnWithContext(logger, "library refresh failed", "library_refresh_failed",
				logging.Error(rerr),
				logging.String(logging.FieldErrorHint, "check jellyfin.url and jellyfin.api_key"),
				logging.String(logging.FieldImpact, "new media appears after the next scheduled scan"),
			)
		}
	}
}

func (p *Placer) record(ctx context.Context, logger *slog.Logger, source, destination string, placeErr error) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordPlacement(ctx, source, destination, placeErr); err != nil {
		logging.WarnWithContext(logger, "failed to record placement history", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "placement missing from mover history"),
		)
	}
}
