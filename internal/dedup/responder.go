package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"mover/internal/logging"
)

// RequestBuffer is the capacity of the request channel between pollers and
// the responder.
const RequestBuffer = 1

// ErrResponderStopped is returned by Ask when the responder is no longer
// answering.
var ErrResponderStopped = errors.New("dedup responder stopped")

// Request asks whether Key has been seen. The responder sends exactly one
// answer on Reply, or closes it when the answer could not be persisted.
type Request struct {
	Key   string
	Reply chan<- bool
}

// Responder is the single owner of a Store.
type Responder struct {
	store    Store
	requests <-chan Request
	logger   *slog.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// NewResponder creates a responder serving requests against store.
func NewResponder(store Store, requests <-chan Request, logger *slog.Logger) *Responder {
	return &Responder{
		store:    store,
		requests: requests,
		logger:   logging.NewComponentLogger(logger, "dedup"),
		done:     make(chan struct{}),
	}
}

// Done is closed once Run returns.
func (r *Responder) Done() <-chan struct{} {
	return r.done
}

// Run serves requests one at a time until ctx is cancelled or the request
// channel is closed. A persistence failure closes the pending reply, stops the
// responder and is returned.
func (r *Responder) Run(ctx context.Context) error {
	defer r.stopOnce.Do(func() { close(r.done) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case req, ok := <-r.requests:
			if !ok {
				return nil
			}
			seen, err := r.store.CheckAndMark(req.Key)
			if err != nil {
				if req.Reply != nil {
					close(req.Reply)
				}
				logging.ErrorWithContext(r.logger, "dedup responder stopped", "dedup_persist_failed",
					logging.String(logging.FieldLink, req.Key),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check state_dir permissions and free space"),
					logging.String(logging.FieldImpact, "new feed links are no longer submitted until restart"),
				)
				return fmt.Errorf("check %q: %w", req.Key, err)
			}
			if req.Reply != nil {
				req.Reply <- seen
			}
		}
	}
}

// Ask performs one request/reply round trip. It returns ErrResponderStopped
// when the responder terminated before answering.
func Ask(ctx context.Context, requests chan<- Request, done <-chan struct{}, key string) (bool, error) {
	reply := make(chan bool, 1)

	select {
	case requests <- Request{Key: key, Reply: reply}:
	case <-done:
		return false, ErrResponderStopped
	case <-ctx.Done():
		return false, ctx.Err()
	}

	select {
	case seen, ok := <-reply:
		if !ok {
			return false, ErrResponderStopped
		}
		return seen, nil
	case <-done:
		// The answer may have been sent just before the responder stopped.
		select {
		case seen, ok := <-reply:
			if ok {
				return seen, nil
			}
		default:
		}
		return false, ErrResponderStopped
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
