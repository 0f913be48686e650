package transmission

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestSubmitRetriesOnceAfterConflict(t *testing.T) {
	var calls atomic.Int32
	var firstAccepted atomic.Int32
	var sawToken atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.Header.Get(SessionHeader) != "token-1" {
			w.Header().Set(SessionHeader, "token-1")
			w.WriteHeader(http.StatusConflict)
			return
		}
		sawToken.Store(r.Header.Get(SessionHeader))
		firstAccepted.CompareAndSwap(0, n)
		_, _ = io.WriteString(w, `{"result":"success","arguments":{}}`)
	}))
	defer srv.Close()

	client := New(Options{URL: srv.URL, HTTPClient: srv.Client()})
	body, err := client.Submit(context.Background(), Add{Filename: "https://example.com/a.torrent"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if string(body) != `{"result":"success","arguments":{}}` {
		t.Fatalf("unexpected body %q", body)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 requests, got %d", calls.Load())
	}
	if firstAccepted.Load() != 2 {
		t.Fatalf("expected the retry to be the first accepted request, got call %d", firstAccepted.Load())
	}
	if sawToken.Load() != "token-1" || client.SessionID() != "token-1" {
		t.Fatalf("session token not adopted: saw=%v stored=%q", sawToken.Load(), client.SessionID())
	}

	// The stored token is reused without another handshake.
	if _, err := client.Submit(context.Background(), Get{}); err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 requests total, got %d", calls.Load())
	}
}

func TestSubmitBoundsRepeatedConflicts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set(SessionHeader, "rotating")
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	for _, retries := range []int{1, 3} {
		calls.Store(0)
		client := New(Options{URL: srv.URL, HTTPClient: srv.Client(), MaxConflictRetries: retries})
		_, err := client.Submit(context.Background(), Start{})
		if !errors.Is(err, ErrSessionConflict) {
			t.Fatalf("retries=%d: error = %v, want ErrSessionConflict", retries, err)
		}
		if got := int(calls.Load()); got != retries+1 {
			t.Fatalf("retries=%d: expected %d requests, got %d", retries, retries+1, got)
		}
	}
}

func TestSubmitReturnsBodyForOtherStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "engine exploded")
	}))
	defer srv.Close()

	client := New(Options{URL: srv.URL, HTTPClient: srv.Client()})
	body, err := client.Submit(context.Background(), Stop{IDs: []string{"1"}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if string(body) != "engine exploded" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestSubmitTransportFailureNotRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := New(Options{URL: url})
	if _, err := client.Submit(context.Background(), Verify{}); err == nil || errors.Is(err, ErrSessionConflict) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestSubmitSendsWireFormatAndAuth(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			t.Errorf("basic auth = %q %q %v", user, pass, ok)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = io.WriteString(w, `{"result":"success"}`)
	}))
	defer srv.Close()

	client := New(Options{URL: srv.URL, Username: "admin", Password: "secret", HTTPClient: srv.Client()})
	if _, err := client.Submit(context.Background(), Reannounce{IDs: []string{"7", "9"}}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.Method != "torrent-reannounce" || len(got.Arguments.IDs) != 2 || got.Arguments.IDs[1] != "9" {
		t.Fatalf("unexpected request %+v", got)
	}
	if len(got.Arguments.Fields) != len(StandardFields) {
		t.Fatalf("expected standard fields, got %v", got.Arguments.Fields)
	}
}
