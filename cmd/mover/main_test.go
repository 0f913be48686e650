package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"mover/internal/daemon"
	"mover/internal/dedup"
	"mover/internal/history"
	"mover/internal/testsupport"
	"mover/internal/transmission"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env.configPath, "config", "validate", "--daemon")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Feed configured: yes")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err = runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestClassifyCommand(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithLibraryDirs("movies", ""))
	out, err := runCLI(t, env.configPath, "classify", "/srv/done/Some.Movie.2020.mkv", "/srv/done/Show.Name.S03E01.mkv", "S01")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	requireContains(t, out, filepath.Join(env.cfg.Paths.SaveDir, "movies", "Some.Movie.2020.mkv"))
	requireContains(t, out, "left in place")
	requireContains(t, out, "cannot be classified")
}

func TestSeenCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env.configPath, "seen")
	if err != nil {
		t.Fatalf("seen: %v", err)
	}
	requireContains(t, out, "No seen links recorded yet")

	store := dedup.NewLinkStore(env.cfg.SeenPath(), nil)
	if err := store.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, err := store.CheckAndMark("https://example.com/a.torrent"); err != nil {
		t.Fatalf("CheckAndMark: %v", err)
	}

	out, err = runCLI(t, env.configPath, "seen", "--json")
	if err != nil {
		t.Fatalf("seen --json: %v", err)
	}
	var links []string
	if err := json.Unmarshal([]byte(out), &links); err != nil {
		t.Fatalf("decode: %v (%q)", err, out)
	}
	if len(links) != 1 || links[0] != "https://example.com/a.torrent" {
		t.Fatalf("unexpected links %v", links)
	}
}

func TestHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenHistory(t, env.cfg)
	ctx := context.Background()
	if err := store.RecordSubmission(ctx, "https://example.com/a.torrent", nil); err != nil {
		t.Fatalf("RecordSubmission: %v", err)
	}
	if err := store.RecordPlacement(ctx, "/srv/done/x.mkv", "/mnt/movie/x.mkv", errors.New("disk full")); err != nil {
		t.Fatalf("RecordPlacement: %v", err)
	}

	out, err := runCLI(t, env.configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "example.com/a.torrent")
	requireContains(t, out, "failed: disk full")

	out, err = runCLI(t, env.configPath, "history", "--kind", "placement", "--json")
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var entries []historyJSON
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != string(history.KindPlacement) {
		t.Fatalf("unexpected entries %+v", entries)
	}

	if _, err := runCLI(t, env.configPath, "history", "--kind", "bogus"); err == nil {
		t.Fatal("expected unknown kind error")
	}
}

func newRPCServer(t *testing.T, respond func(method string) string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(transmission.SessionHeader) != "sid" {
			w.Header().Set(transmission.SessionHeader, "sid")
			w.WriteHeader(http.StatusConflict)
			return
		}
		var req transmission.Request
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = io.WriteString(w, respond(req.Method))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubmitCommand(t *testing.T) {
	srv := newRPCServer(t, func(method string) string {
		if method != "torrent-add" {
			t.Errorf("unexpected method %q", method)
		}
		return `{"result":"success","arguments":{"torrent-duplicate":{"id":7,"name":"Show","hashString":"h"}}}`
	})
	env := setupCLITestEnv(t, testsupport.WithRPCURL(srv.URL))

	out, err := runCLI(t, env.configPath, "submit", "https://example.com/a.torrent")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	requireContains(t, out, "Torrent already present: Show (id 7)")
}

func TestTorrentGetCommand(t *testing.T) {
	srv := newRPCServer(t, func(method string) string {
		if method != "torrent-get" {
			return `{"result":"success","arguments":{}}`
		}
		return `{"result":"success","arguments":{"torrents":[{"id":3,"name":"Movie","percentDone":0.5}]}}`
	})
	env := setupCLITestEnv(t, testsupport.WithRPCURL(srv.URL))

	out, err := runCLI(t, env.configPath, "torrent", "get", "3")
	if err != nil {
		t.Fatalf("torrent get: %v", err)
	}
	requireContains(t, out, "Movie")
	requireContains(t, out, "50.0%")

	out, err = runCLI(t, env.configPath, "torrent", "stop", "3")
	if err != nil {
		t.Fatalf("torrent stop: %v", err)
	}
	requireContains(t, out, "torrent-stop: success")
}

func TestStatusLocal(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := runCLI(t, env.configPath, "status", "--local")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "not running")
	requireContains(t, out, "Watch directory:")
	if strings.Contains(out, "ERROR") {
		t.Fatalf("unexpected failed check: %q", out)
	}
}

func TestStatusShowsDaemonTasks(t *testing.T) {
	env := setupCLITestEnv(t)
	lock := flock.New(env.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("lock: %v (locked=%v)", err, locked)
	}
	t.Cleanup(func() { _ = lock.Unlock() })

	snap := daemon.StatusSnapshot{
		PID:       4242,
		Running:   true,
		StartedAt: time.Now().Add(-time.Minute).UTC(),
		UpdatedAt: time.Now().UTC(),
		Tasks: []daemon.TaskRecord{
			{Name: daemon.TaskDedup, State: daemon.TaskFailed, Error: "save links: rename failed"},
			{Name: daemon.TaskFeed, State: daemon.TaskRunning},
		},
	}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	testsupport.WriteText(t, env.cfg.StatusPath(), string(data))

	out, err := runCLI(t, env.configPath, "status", "--local")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "running (pid 4242")
	requireContains(t, out, "== Tasks ==")
	requireContains(t, out, "[ERROR] failed: save links: rename failed")
	requireContains(t, out, "[OK] running")
	if strings.Contains(out, "not running") {
		t.Fatalf("daemon reported as stopped: %q", out)
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := runCLI(t, env.configPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "not configured")
}

func TestLogsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteText(t, filepath.Join(env.cfg.Paths.LogDir, "mover.log"), "first\nsecond\nthird\n")

	out, err := runCLI(t, env.configPath, "logs", "-n", "2")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "second\nthird\n" {
		t.Fatalf("unexpected output %q", out)
	}
}
