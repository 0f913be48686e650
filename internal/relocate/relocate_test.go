package relocate

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"mover/internal/classify"
	"mover/internal/testsupport"
)

func newRelocator(t *testing.T, roots classify.Roots) (*Relocator, string, string) {
	t.Helper()
	base := t.TempDir()
	watch := filepath.Join(base, "done")
	save := filepath.Join(base, "library")
	testsupport.MkdirAll(t, watch)
	return New(save, roots, nil), watch, save
}

func TestRelocateEpisodeDirectory(t *testing.T) {
	r, watch, save := newRelocator(t, classify.Roots{MoviesDir: "movie", TVDir: "tv"})
	src := filepath.Join(watch, "Show.Name.S02")
	testsupport.WriteText(t, filepath.Join(src, "Show.Name.S02E01.mkv"), "e1")
	testsupport.WriteText(t, filepath.Join(src, "Subs", "e1.srt"), "subs")

	p, err := r.Relocate(src)
	if err != nil {
		t.Fatalf("Relocate: %v", err)
	}
	wantDest := filepath.Join(save, "tv", "Show.Name", "02")
	if p.Destination != wantDest || !p.IsDir || !p.Cleaned {
		t.Fatalf("unexpected placement %+v", p)
	}
	for rel, want := range map[string]string{"Show.Name.S02E01.mkv": "e1", filepath.Join("Subs", "e1.srt"): "subs"} {
		got, err := os.ReadFile(filepath.Join(wantDest, rel))
		if err != nil || string(got) != want {
			t.Fatalf("%s = %q, %v", rel, got, err)
		}
	}
	if _, err := os.Stat(src); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("source should be removed, stat err=%v", err)
	}
}

func TestRelocateEpisodeFile(t *testing.T) {
	r, watch, save := newRelocator(t, classify.Roots{TVDir: "tv"})
	src := filepath.Join(watch, "Show.Name.S02E05.mkv")
	testsupport.WriteText(t, src, "episode")

	p, err := r.Relocate(src)
	if err != nil {
		t.Fatalf("Relocate: %v", err)
	}
	want := filepath.Join(save, "tv", "Show.Name", "02", "Show.Name.S02E05.mkv")
	if p.Destination != want {
		t.Fatalf("destination = %q, want %q", p.Destination, want)
	}
	if got, err := os.ReadFile(want); err != nil || string(got) != "episode" {
		t.Fatalf("placed file = %q, %v", got, err)
	}
	if _, err := os.Stat(src); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("source should be removed, stat err=%v", err)
	}
}

func TestRelocateMovieDirectory(t *testing.T) {
	r, watch, save := newRelocator(t, classify.Roots{MoviesDir: "movie"})
	src := filepath.Join(watch, "Some.Movie.2020")
	testsupport.WriteText(t, filepath.Join(src, "movie.mkv"), "feature")

	if _, err := r.Relocate(src); err != nil {
		t.Fatalf("Relocate: %v", err)
	}
	if got, err := os.ReadFile(filepath.Join(save, "movie", "Some.Movie.2020", "movie.mkv")); err != nil || string(got) != "feature" {
		t.Fatalf("placed file = %q, %v", got, err)
	}
}

func TestRelocateWithoutRootLeavesSource(t *testing.T) {
	r, watch, _ := newRelocator(t, classify.Roots{MoviesDir: "movie"})
	src := filepath.Join(watch, "Show.S01E01.mkv")
	testsupport.WriteText(t, src, "x")

	if _, err := r.Relocate(src); !errors.Is(err, classify.ErrNoTarget) {
		t.Fatalf("Relocate error = %v, want ErrNoTarget", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source should be untouched: %v", err)
	}
}

func TestRelocateMissingSource(t *testing.T) {
	r, watch, _ := newRelocator(t, classify.Roots{MoviesDir: "movie", TVDir: "tv"})
	if _, err := r.Relocate(filepath.Join(watch, "gone.mkv")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Relocate error = %v, want fs.ErrNotExist", err)
	}
}

func TestRelocateCopyFailureKeepsSource(t *testing.T) {
	r, watch, save := newRelocator(t, classify.Roots{MoviesDir: "movie"})
	// A regular file where the movie directory should be blocks the copy.
	testsupport.WriteText(t, filepath.Join(save, "movie"), "blocker")
	src := filepath.Join(watch, "Film.mkv")
	testsupport.WriteText(t, src, "x")

	if _, err := r.Relocate(src); err == nil {
		t.Fatal("expected copy failure")
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source should remain after failed copy: %v", err)
	}
}
