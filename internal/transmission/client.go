package transmission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"mover/internal/config"
	"mover/internal/logging"
)

// SessionHeader carries the anti-CSRF session token.
const SessionHeader = "X-Transmission-Session-Id"

// ErrSessionConflict is returned when the daemon keeps rejecting the session
// token after the configured number of retries.
var ErrSessionConflict = errors.New("transmission session conflict")

// HTTPDoer describes the HTTP client used by the RPC client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	URL      string
	Username string
	Password string
	// MaxConflictRetries bounds how many times a 409 is answered with a
	// retry. Values below 1 are treated as 1.
	MaxConflictRetries int
	HTTPClient         HTTPDoer
	Logger             *slog.Logger
}

// Client submits actions to a Transmission RPC endpoint. It is safe for
// concurrent use.
type Client struct {
	url        string
	username   string
	password   string
	maxRetries int
	http       HTTPDoer
	logger     *slog.Logger

	mu        sync.Mutex
	sessionID string
}

// New constructs a Client.
func New(opts Options) *Client {
	retries := opts.MaxConflictRetries
	if retries < 1 {
		retries = 1
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		url:        strings.TrimSpace(opts.URL),
		username:   opts.Username,
		password:   opts.Password,
		maxRetries: retries,
		http:       client,
		logger:     logging.NewComponentLogger(opts.Logger, "transmission"),
	}
}

// NewFromConfig builds a Client from the [rpc] configuration section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.RPC.RequestTimeout) * time.Second
	return New(Options{
		URL:                cfg.RPC.URL,
		Username:           cfg.RPC.Username,
		Password:           cfg.RPC.Password,
		MaxConflictRetries: cfg.RPC.MaxConflictRetries,
		HTTPClient:         &http.Client{Timeout: timeout},
		Logger:             logger,
	})
}

// SessionID returns the current session token.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Client) setSessionID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = id
}

// Submit posts action and returns the raw response body. Any status other than
// 409 is returned as-is; callers inspect the body for the RPC result.
func (c *Client) Submit(ctx context.Context, action Action) ([]byte, error) {
	rpcReq := action.Request()
	method := rpcReq.Method
	payload, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, fmt.Errorf("encode rpc request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.post(ctx, payload)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}

		if resp.StatusCode == http.StatusConflict {
			token := resp.Header.Get(SessionHeader)
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			c.setSessionID(token)
			if attempt >= c.maxRetries {
				return nil, fmt.Errorf("%s: %w after %d retries", method, ErrSessionConflict, attempt)
			}
			c.logger.Debug("rpc session token refreshed",
				logging.String("method", method),
				logging.Int("attempt", attempt+1))
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: read response: %w", method, err)
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			c.logger.Debug("rpc returned non-success status",
				logging.String("method", method),
				logging.Int("status", resp.StatusCode))
		}
		return body, nil
	}
}

func (c *Client) post(ctx context.Context, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SessionHeader, c.SessionID())
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send rpc request: %w", err)
	}
	return resp, nil
}
