// Package relocate moves completed downloads into the media library.
package relocate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mover/internal/classify"
	"mover/internal/fileutil"
	"mover/internal/logging"
)

// Placement describes a completed relocation.
type Placement struct {
	Source         string
	Destination    string
	IsDir          bool
	Classification classify.Classification
	// Cleaned reports whether the source was removed after copying.
	Cleaned bool
}

// Relocator copies paths below SaveDir according to their classification and
// removes the source afterwards.
type Relocator struct {
	SaveDir string
	Roots   classify.Roots
	logger  *slog.Logger
}

// New constructs a Relocator.
func New(saveDir string, roots classify.Roots, logger *slog.Logger) *Relocator {
	return &Relocator{
		SaveDir: saveDir,
		Roots:   roots,
		logger:  logging.NewComponentLogger(logger, "relocate"),
	}
}

// Plan classifies src and computes its destination without touching the
// filesystem beyond a stat of src.
func (r *Relocator) Plan(src string) (Placement, error) {
	info, err := os.Stat(src)
	if err != nil {
		return Placement{}, fmt.Errorf("stat source: %w", err)
	}
	c, err := classify.Classify(src)
	if err != nil {
		return Placement{}, err
	}
	target, err := classify.Target(c, info.IsDir(), r.Roots)
	if err != nil {
		return Placement{}, err
	}
	return Placement{
		Source:         src,
		Destination:    filepath.Join(r.SaveDir, target),
		IsDir:          info.IsDir(),
		Classification: c,
	}, nil
}

// Relocate copies src to its library destination and deletes the source.
// Copy failures are returned and leave the source in place. A failed delete
// after a successful copy is logged and the placement is still reported.
func (r *Relocator) Relocate(src string) (Placement, error) {
	p, err := r.Plan(src)
	if err != nil {
		return Placement{}, err
	}

	if p.IsDir {
		if err := os.MkdirAll(p.Destination, 0o755); err != nil {
			return p, fmt.Errorf("create destination: %w", err)
		}
		if err := fileutil.CopyTree(p.Source, p.Destination); err != nil {
			return p, fmt.Errorf("copy directory: %w", err)
		}
		err = os.RemoveAll(p.Source)
		p.Cleaned = r.cleanup(p, err)
	} else {
		if err := os.MkdirAll(filepath.Dir(p.Destination), 0o755); err != nil {
			return p, fmt.Errorf("create destination parent: %w", err)
		}
		if err := fileutil.CopyFileVerified(p.Source, p.Destination); err != nil {
			return p, fmt.Errorf("copy file: %w", err)
		}
		err = os.Remove(p.Source)
		p.Cleaned = r.cleanup(p, err)
	}

	r.logger.Info("path placed in library",
		logging.String(logging.FieldEventType, "path_placed"),
		logging.String(logging.FieldPath, p.Source),
		logging.String("destination", p.Destination),
		logging.String("kind", p.Classification.Kind.String()),
		logging.Bool("source_removed", p.Cleaned),
	)
	return p, nil
}

func (r *Relocator) cleanup(p Placement, err error) bool {
	if err == nil {
		return true
	}
	logging.WarnWithContext(r.logger, "source removal failed after copy", "source_cleanup_failed",
		logging.String(logging.FieldPath, p.Source),
		logging.String("destination", p.Destination),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "remove the source manually once the library copy is confirmed"),
		logging.String(logging.FieldImpact, "download remains in the watch directory"),
	)
	return false
}
