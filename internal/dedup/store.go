package dedup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"mover/internal/logging"
)

// Store answers membership queries for previously seen keys.
type Store interface {
	// CheckAndMark reports whether key was already present. A fresh key is
	// inserted and persisted before CheckAndMark returns false.
	CheckAndMark(key string) (bool, error)
	// Restore loads persisted state.
	Restore() error
}

// placeholder is written when no snapshot exists yet.
var placeholder = []string{""}

// LinkStore is a Store backed by a JSON array file.
type LinkStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
	links  map[string]struct{}
}

// NewLinkStore creates a store persisted at path. Call Restore before use.
func NewLinkStore(path string, logger *slog.Logger) *LinkStore {
	return &LinkStore{
		path:   path,
		logger: logging.NewComponentLogger(logger, "dedup"),
		links:  make(map[string]struct{}),
	}
}

// Path returns the snapshot location.
func (s *LinkStore) Path() string {
	return s.path
}

// CheckAndMark implements Store.
func (s *LinkStore) CheckAndMark(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[key]; ok {
		return true, nil
	}
	s.links[key] = struct{}{}
	if err := s.save(); err != nil {
		return false, fmt.Errorf("persist seen links: %w", err)
	}
	s.logger.Debug("link marked seen",
		logging.String(logging.FieldLink, key),
		logging.Int("seen_count", len(s.links)))
	return false, nil
}

// Restore implements Store. A missing snapshot is created with a placeholder
// entry so the file exists for later runs.
func (s *LinkStore) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read seen links: %w", err)
		}
		s.links = make(map[string]struct{}, len(placeholder))
		for _, link := range placeholder {
			s.links[link] = struct{}{}
		}
		if err := s.save(); err != nil {
			return fmt.Errorf("create seen links: %w", err)
		}
		s.logger.Info("seen link snapshot created",
			logging.String(logging.FieldPath, s.path),
			logging.String(logging.FieldEventType, "dedup_snapshot_created"))
		return nil
	}

	var links []string
	if len(data) > 0 {
		if err := json.Unmarshal(data, &links); err != nil {
			return fmt.Errorf("parse seen links: %w", err)
		}
	}
	s.links = make(map[string]struct{}, len(links))
	for _, link := range links {
		s.links[link] = struct{}{}
	}
	s.logger.Debug("loaded seen links",
		logging.Int("entry_count", len(s.links)),
		logging.String(logging.FieldPath, s.path))
	return nil
}

// Links returns the non-empty remembered links in sorted order.
func (s *LinkStore) Links() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.links))
	for link := range s.links {
		if link != "" {
			out = append(out, link)
		}
	}
	sort.Strings(out)
	return out
}

// save writes the whole set to disk atomically. Callers hold s.mu.
func (s *LinkStore) save() error {
	links := make([]string, 0, len(s.links))
	for link := range s.links {
		links = append(links, link)
	}
	sort.Strings(links)

	data, err := json.MarshalIndent(links, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal seen links: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
