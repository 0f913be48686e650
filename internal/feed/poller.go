package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"mover/internal/dedup"
	"mover/internal/logging"
)

const userAgent = "Mover-Go/0.1.0"

// HTTPDoer describes the HTTP client used to fetch the feed.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Poller.
type Options struct {
	URL      string
	Interval time.Duration
	Client   HTTPDoer
	Decoder  Decoder
	// Requests and DedupDone connect the poller to a dedup.Responder.
	Requests  chan<- dedup.Request
	DedupDone <-chan struct{}
	// Approved receives fresh links in feed order.
	Approved chan<- string
	Logger   *slog.Logger
}

// Poller periodically fetches a feed and forwards fresh links.
type Poller struct {
	url       string
	interval  time.Duration
	client    HTTPDoer
	decoder   Decoder
	requests  chan<- dedup.Request
	dedupDone <-chan struct{}
	approved  chan<- string
	logger    *slog.Logger
}

// NewPoller constructs a Poller. A zero interval defaults to one hour.
func NewPoller(opts Options) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	decoder := opts.Decoder
	if decoder == nil {
		decoder = NewGofeedDecoder()
	}
	return &Poller{
		url:       opts.URL,
		interval:  interval,
		client:    client,
		decoder:   decoder,
		requests:  opts.Requests,
		dedupDone: opts.DedupDone,
		approved:  opts.Approved,
		logger:    logging.NewComponentLogger(opts.Logger, "feed"),
	}
}

// Run polls immediately and then once per interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	forwarded, err := p.Poll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.WarnWithContext(p.logger, "feed poll failed; will retry next interval", "feed_poll_failed",
			logging.String("url", p.url),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check feed.url and network connectivity"),
			logging.String(logging.FieldImpact, "new releases are picked up on the next poll"),
			logging.Duration("next_poll_in", p.interval),
		)
		return
	}
	p.logger.Info("feed polled",
		logging.String(logging.FieldEventType, "feed_polled"),
		logging.Int("forwarded", forwarded),
	)
}

// Poll runs one fetch/parse/filter cycle and returns the number of links
// forwarded. Per-item dedup failures are logged and skipped.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	items, err := p.fetch(ctx)
	if err != nil {
		return 0, err
	}

	forwarded := 0
	for _, item := range items {
		if item.Link == "" {
			p.logger.Debug("feed item without link skipped", logging.String("title", item.Title))
			continue
		}

		seen, err := dedup.Ask(ctx, p.requests, p.dedupDone, item.Link)
		if err != nil {
			if ctx.Err() != nil {
				return forwarded, ctx.Err()
			}
			logging.WarnWithContext(p.logger, "dedup lookup failed; link skipped", "dedup_lookup_failed",
				logging.String(logging.FieldLink, item.Link),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check daemon logs for the dedup responder error"),
				logging.String(logging.FieldImpact, "link is not submitted this poll"),
			)
			continue
		}
		if seen {
			continue
		}

		select {
		case p.approved <- item.Link:
			forwarded++
			p.logger.Debug("link approved", logging.String(logging.FieldLink, item.Link))
		case <-ctx.Done():
			return forwarded, ctx.Err()
		}
	}
	return forwarded, nil
}

func (p *Poller) fetch(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch feed: %w", &StatusError{Code: resp.StatusCode})
	}

	items, err := p.decoder.Decode(resp.Body)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// StatusError reports a non-2xx feed response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// IsStatusError reports whether err carries a StatusError.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
