package history_test

import (
	"context"
	"errors"
	"testing"

	"mover/internal/history"
	"mover/internal/testsupport"
)

func TestRecordAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	if err := store.RecordSubmission(ctx, "https://example.com/a.torrent", nil); err != nil {
		t.Fatalf("RecordSubmission: %v", err)
	}
	if err := store.RecordSubmission(ctx, "https://example.com/b.torrent", errors.New("connection refused")); err != nil {
		t.Fatalf("RecordSubmission: %v", err)
	}
	if err := store.RecordPlacement(ctx, "/srv/done/Film.mkv", "/mnt/movie/Film.mkv", nil); err != nil {
		t.Fatalf("RecordPlacement: %v", err)
	}

	entries, err := store.List(ctx, history.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	newest := entries[0]
	if newest.Kind != history.KindPlacement || newest.Destination != "/mnt/movie/Film.mkv" || newest.Status != history.StatusOK {
		t.Fatalf("unexpected newest entry %+v", newest)
	}
	failed := entries[1]
	if failed.Status != history.StatusFailed || failed.Detail != "connection refused" {
		t.Fatalf("unexpected failed entry %+v", failed)
	}
	if failed.ID == "" || failed.ID == newest.ID {
		t.Fatalf("entries need distinct ids: %q %q", failed.ID, newest.ID)
	}

	subs, err := store.List(ctx, history.ListOptions{Kind: history.KindSubmission, Limit: 1})
	if err != nil {
		t.Fatalf("List submissions: %v", err)
	}
	if len(subs) != 1 || subs[0].Subject != "https://example.com/b.torrent" {
		t.Fatalf("unexpected filtered entries %+v", subs)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.RecordSubmission(context.Background(), "link", nil); err != nil {
		t.Fatalf("RecordSubmission: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := testsupport.MustOpenHistory(t, cfg)
	entries, err := second.List(context.Background(), history.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after reopen, got %d", len(entries))
	}
}
