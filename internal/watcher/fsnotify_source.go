package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"mover/internal/logging"
)

// FSNotifySource is a recursive Source backed by fsnotify. Directories
// created below the root are added as they appear.
type FSNotifySource struct {
	root    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	events chan Event
	errors chan error
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewFSNotifySource starts watching root and every directory below it.
func NewFSNotifySource(root string, logger *slog.Logger) (*FSNotifySource, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	s := &FSNotifySource{
		root:    root,
		watcher: w,
		logger:  logging.NewComponentLogger(logger, "fsnotify"),
		events:  make(chan Event),
		errors:  make(chan error),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if err := s.addTree(root); err != nil {
		_ = w.Close()
		return nil, err
	}
	go s.loop()
	return s, nil
}

// Events implements Source.
func (s *FSNotifySource) Events() <-chan Event { return s.events }

// Errors implements Source.
func (s *FSNotifySource) Errors() <-chan error { return s.errors }

// Close stops the source and releases the inotify handle.
func (s *FSNotifySource) Close() error {
	var err error
	s.once.Do(func() {
		close(s.quit)
		err = s.watcher.Close()
		<-s.done
	})
	return err
}

func (s *FSNotifySource) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return fmt.Errorf("watch %q: %w", root, walkErr)
			}
			// Entries may vanish between listing and stat.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := s.watcher.Add(path); err != nil {
			if path == root {
				return fmt.Errorf("watch %q: %w", root, err)
			}
			s.logger.Debug("could not watch subdirectory", logging.String(logging.FieldPath, path), logging.Error(err))
		}
		return nil
	})
}

func (s *FSNotifySource) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := s.addTree(ev.Name); err != nil {
						s.logger.Debug("could not watch new directory", logging.String(logging.FieldPath, ev.Name), logging.Error(err))
					}
				}
			}
			select {
			case s.events <- Event{Kind: translate(ev.Op), Paths: []string{ev.Name}}:
			case <-s.quit:
				return
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				err = fmt.Errorf("%w: some events under %s were dropped", err, s.root)
			}
			select {
			case s.errors <- err:
			case <-s.quit:
				return
			}
		}
	}
}

func translate(op fsnotify.Op) Kind {
	switch {
	case op.Has(fsnotify.Create):
		return KindCreate
	case op.Has(fsnotify.Write):
		return KindModify
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return KindRemove
	case op.Has(fsnotify.Chmod):
		return KindOther
	default:
		return KindAny
	}
}
