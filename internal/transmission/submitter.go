package transmission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mover/internal/logging"
)

// LinkBuffer is the capacity of the approved-link channel feeding a Submitter.
const LinkBuffer = 20

// RPC is the subset of Client used by Submitter.
type RPC interface {
	Submit(ctx context.Context, action Action) ([]byte, error)
}

// Recorder stores submission outcomes.
type Recorder interface {
	RecordSubmission(ctx context.Context, link string, submitErr error) error
}

// Notifier announces successful submissions.
type Notifier interface {
	NotifySubmitted(ctx context.Context, link string) error
}

// Submitter adds every approved link as a torrent.
type Submitter struct {
	rpc      RPC
	links    <-chan string
	recorder Recorder
	notifier Notifier
	logger   *slog.Logger
}

// NewSubmitter constructs a Submitter. recorder and notifier may be nil.
func NewSubmitter(rpc RPC, links <-chan string, recorder Recorder, notifier Notifier, logger *slog.Logger) *Submitter {
	return &Submitter{
		rpc:      rpc,
		links:    links,
		recorder: recorder,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "submitter"),
	}
}

// Run consumes links until ctx is cancelled or the channel is closed. A failed
// submission is logged and the next link is processed.
func (s *Submitter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case link, ok := <-s.links:
			if !ok {
				return nil
			}
			s.submit(ctx, link)
		}
	}
}

func (s *Submitter) submit(ctx context.Context, link string) {
	body, err := s.rpc.Submit(ctx, Add{Filename: link})
	if err == nil {
		err = checkAdd(body)
	}
	s.record(ctx, link, err)

	if err != nil {
		hint := "verify the Transmission daemon is reachable at rpc.url"
		if errors.Is(err, ErrSessionConflict) {
			hint = "raise rpc.max_conflict_retries or check for a proxy rewriting session headers"
		}
		logging.WarnWithContext(s.logger, "torrent submission failed", "torrent_submit_failed",
			logging.String(logging.FieldLink, link),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "link is marked seen and will not be retried"),
		)
		return
	}

	s.logger.Info("torrent submitted",
		logging.String(logging.FieldEventType, "torrent_submitted"),
		logging.String(logging.FieldLink, link),
	)
	if s.notifier != nil {
		if nerr := s.notifier.NotifySubmitted(ctx, link); nerr != nil {
			s.logger.Debug("submission notification failed", logging.Error(nerr))
		}
	}
}

// checkAdd inspects the body for an RPC level failure. Bodies that are not
// JSON are passed through unchanged.
func checkAdd(body []byte) error {
	resp, err := ParseResponse(body)
	if err != nil {
		return nil
	}
	if resp.Result != "" && resp.Result != ResultSuccess {
		return fmt.Errorf("torrent-add: %s", resp.Result)
	}
	return nil
}

func (s *Submitter) record(ctx context.Context, link string, submitErr error) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordSubmission(ctx, link, submitErr); err != nil {
		logging.WarnWithContext(s.logger, "failed to record submission history", "history_write_failed",
			logging.String(logging.FieldLink, link),
			logging.Error(err),
			logging.String(logging.FieldImpact, "submission missing from mover history"),
		)
	}
}
