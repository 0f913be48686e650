package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"mover/internal/classify"
	"mover/internal/relocate"
	"mover/internal/testsupport"
)

type placementRecord struct {
	source      string
	destination string
	err         error
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []placementRecord
}

func (f *fakeRecorder) RecordPlacement(_ context.Context, source, destination string, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, placementRecord{source, destination, err})
	return nil
}

type fakeNotifier struct{ titles []string }

func (f *fakeNotifier) NotifyPlaced(_ context.Context, title, _ string) error {
	f.titles = append(f.titles, title)
	return nil
}

type fakeRefresher struct{ calls int }

func (f *fakeRefresher) Refresh(context.Context) error {
	f.calls++
	return nil
}

type failingRelocator struct {
	inner  Relocator
	failOn string
}

func (f failingRelocator) Relocate(src string) (relocate.Placement, error) {
	if filepath.Base(src) == f.failOn {
		return relocate.Placement{}, errors.New("no space left on device")
	}
	return f.inner.Relocate(src)
}

func runPlacer(t *testing.T, p *Placer, paths chan string) {
	t.Helper()
	close(paths)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestPlacerPlacesAndContinuesAfterFailures(t *testing.T) {
	base := t.TempDir()
	watch := filepath.Join(base, "done")
	save := filepath.Join(base, "library")
	episode := filepath.Join(watch, "Show.Name.S02E05.mkv")
	broken := filepath.Join(watch, "Broken.mkv")
	odd := filepath.Join(watch, "S01E01.mkv")
	movie := filepath.Join(watch, "Some.Movie.2020")
	for _, path := range []string{episode, broken, odd} {
		testsupport.WriteText(t, path, filepath.Base(path))
	}
	testsupport.WriteText(t, filepath.Join(movie, "movie.mkv"), "feature")

	rel := failingRelocator{
		inner:  relocate.New(save, classify.Roots{MoviesDir: "movie", TVDir: "tv"}, nil),
		failOn: "Broken.mkv",
	}
	rec := &fakeRecorder{}
	notifier := &fakeNotifier{}
	refresher := &fakeRefresher{}

	paths := make(chan string, PathBuffer)
	for _, path := range []string{episode, broken, odd, movie, filepath.Join(movie, "movie.mkv")} {
		paths <- path
	}
	p := NewPlacer(paths, rel, PlacerOptions{Recorder: rec, Notifier: notifier, Refresher: refresher})
	runPlacer(t, p, paths)

	if _, err := os.Stat(filepath.Join(save, "tv", "Show.Name", "02", "Show.Name.S02E05.mkv")); err != nil {
		t.Fatalf("episode not placed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(save, "movie", "Some.Movie.2020", "movie.mkv")); err != nil {
		t.Fatalf("movie not placed: %v", err)
	}
	if _, err := os.Stat(broken); err != nil {
		t.Fatalf("failed placement must keep source: %v", err)
	}
	if _, err := os.Stat(odd); err != nil {
		t.Fatalf("unclassifiable source must stay: %v", err)
	}

	// The nested movie file vanished with its directory and is skipped silently.
	if len(rec.entries) != 4 {
		t.Fatalf("expected 4 history entries, got %+v", rec.entries)
	}
	failures := 0
	for _, entry := range rec.entries {
		if entry.err != nil {
			failures++
		}
	}
	if failures != 2 {
		t.Fatalf("expected 2 failed entries, got %d", failures)
	}
	if len(notifier.titles) != 2 || notifier.titles[0] != "Show Name S02" {
		t.Fatalf("unexpected notifications %v", notifier.titles)
	}
	if refresher.calls != 2 {
		t.Fatalf("expected 2 refreshes, got %d", refresher.calls)
	}
}

func TestPlacerSkipsMissingRootQuietly(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "done", "Film.mkv")
	testsupport.WriteText(t, src, "x")

	rec := &fakeRecorder{}
	paths := make(chan string, 1)
	paths <- src
	p := NewPlacer(paths, relocate.New(filepath.Join(base, "library"), classify.Roots{TVDir: "tv"}, nil), PlacerOptions{Recorder: rec})
	runPlacer(t, p, paths)

	if len(rec.entries) != 0 {
		t.Fatalf("no-target paths should not be recorded, got %+v", rec.entries)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source should be untouched: %v", err)
	}
}
