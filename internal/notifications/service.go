package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mover/internal/config"
)

const userAgent = "Mover-Go/0.1.0"

// Service defines the notification surface exposed to daemon components.
type Service interface {
	NotifySubmitted(ctx context.Context, link string) error
	NotifyPlaced(ctx context.Context, title, destination string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// HTTPDoer describes the HTTP client used to reach ntfy.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return NewNtfyService(topic, cfg.Notifications, &http.Client{Timeout: timeout})
}

// NewNtfyService returns an ntfy-backed service publishing to endpoint. The
// event toggles in opts decide which notifications are sent.
func NewNtfyService(endpoint string, opts config.Notifications, client HTTPDoer) Service {
	return &ntfyService{
		endpoint:    strings.TrimSpace(endpoint),
		client:      client,
		submissions: opts.Submissions,
		placements:  opts.Placements,
		errors:      opts.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      HTTPDoer
	submissions bool
	placements  bool
	errors      bool
}

func (n *ntfyService) NotifySubmitted(ctx context.Context, link string) error {
	if !n.submissions {
		return nil
	}
	data := payload{
		title:   "Mover - Torrent Added",
		message: fmt.Sprintf("📥 Submitted: %s", strings.TrimSpace(link)),
		tags:    []string{"mover", "torrent", "added"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPlaced(ctx context.Context, title, destination string) error {
	if !n.placements {
		return nil
	}
	message := fmt.Sprintf("✅ Added to library: %s", strings.TrimSpace(title))
	if destination = strings.TrimSpace(destination); destination != "" {
		message = fmt.Sprintf("%s\nPath: %s", message, destination)
	}
	data := payload{
		title:   "Mover - Library Updated",
		message: message,
		tags:    []string{"mover", "library", "added"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Mover - Error",
		message:  builder.String(),
		tags:     []string{"mover", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Mover - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"mover", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil || n.endpoint == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// NewNoop returns a Service that discards every notification.
func NewNoop() Service { return noopService{} }

type noopService struct{}

func (noopService) NotifySubmitted(context.Context, string) error      { return nil }
func (noopService) NotifyPlaced(context.Context, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error   { return nil }
func (noopService) TestNotification(context.Context) error             { return nil }
