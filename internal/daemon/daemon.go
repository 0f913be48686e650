package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"mover/internal/classify"
	"mover/internal/config"
	"mover/internal/dedup"
	"mover/internal/feed"
	"mover/internal/history"
	"mover/internal/logging"
	"mover/internal/notifications"
	"mover/internal/preflight"
	"mover/internal/relocate"
	"mover/internal/transmission"
	"mover/internal/watcher"
)

// Task names as reported by Status.
const (
	TaskDedup     = "dedup-responder"
	TaskFeed      = "feed-poller"
	TaskWatch     = "fs-watcher"
	TaskPlacer    = "placer"
	TaskSubmitter = "submitter"
)

// TaskState describes the lifecycle of one daemon task.
type TaskState string

const (
	TaskPending TaskState = "pending"
	TaskRunning TaskState = "running"
	TaskStopped TaskState = "stopped"
	TaskFailed  TaskState = "failed"
)

// TaskStatus reports one task's state and terminal error.
type TaskStatus struct {
	Name  string
	State TaskState
	Err   error
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	LockFilePath string
	SeenPath     string
	Tasks        []TaskStatus
}

// Option customizes daemon collaborators, mainly for tests.
type Option func(*Daemon)

// WithSource replaces the fsnotify watch source.
func WithSource(src watcher.Source) Option {
	return func(d *Daemon) { d.source = src }
}

// WithRPC replaces the Transmission client.
func WithRPC(rpc transmission.RPC) Option {
	return func(d *Daemon) { d.rpc = rpc }
}

// WithFeedClient replaces the HTTP client used to fetch the feed.
func WithFeedClient(client feed.HTTPDoer) Option {
	return func(d *Daemon) { d.feedClient = client }
}

// WithNotifier sets the notification service.
func WithNotifier(n notifications.Service) Option {
	return func(d *Daemon) {
		if n != nil {
			d.notifier = n
		}
	}
}

// WithHistory records submissions and placements in store.
func WithHistory(store *history.Store) Option {
	return func(d *Daemon) { d.history = store }
}

// WithRefresher triggers a library refresh after each placement.
func WithRefresher(r watcher.Refresher) Option {
	return func(d *Daemon) { d.refresher = r }
}

// Daemon coordinates the background tasks and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	baseLogger *slog.Logger

	lockPath string
	lock     *flock.Flock

	source     watcher.Source
	rpc        transmission.RPC
	feedClient feed.HTTPDoer
	notifier   notifications.Service
	history    *history.Store
	refresher  watcher.Refresher

	ownsHistory bool
	ownsSource  bool
	store       *dedup.LinkStore

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu        sync.Mutex
	tasks     []*TaskStatus
	startedAt time.Time
	statusMu  sync.Mutex
}

// New constructs a daemon. The returned daemon is idle until Start.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		baseLogger: logger,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
		notifier:   notifications.NewNoop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start acquires the instance lock, restores persisted state and launches the
// background tasks. It returns once every task has been started.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !ok {
		return errors.New("another mover daemon instance is already running")
	}

	if err := d.prepare(ctx); err != nil {
		d.release()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.startedAt = time.Now().UTC()
	d.running.Store(true)
	d.launch(runCtx)
	d.publishStatus()
	d.logger.Info("daemon started",
		logging.String("watch_dir", d.cfg.Paths.WatchDir),
		logging.String("save_dir", d.cfg.Paths.SaveDir),
		logging.String(logging.FieldEventType, "daemon_start"),
	)
	return nil
}

func (d *Daemon) prepare(ctx context.Context) error {
	for _, result := range preflight.RunAll(ctx, d.cfg, false) {
		if result.Passed {
			d.logger.Debug("preflight check passed", logging.String("check", result.Name), logging.String("detail", result.Detail))
			continue
		}
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "verify the configured directories and endpoints"),
			logging.String(logging.FieldImpact, "the affected stage may fail until the dependency recovers"),
		)
	}

	d.store = dedup.NewLinkStore(d.cfg.SeenPath(), d.baseLogger)
	if err := d.store.Restore(); err != nil {
		return fmt.Errorf("restore seen links: %w", err)
	}

	if d.history == nil {
		store, err := history.Open(d.cfg)
		if err != nil {
			return err
		}
		d.history = store
		d.ownsHistory = true
	}

	if d.source == nil {
		source, err := watcher.NewFSNotifySource(d.cfg.Paths.WatchDir, d.baseLogger)
		if err != nil {
			return fmt.Errorf("watch %s: %w", d.cfg.Paths.WatchDir, err)
		}
		d.source = source
		d.ownsSource = true
	}
	if d.rpc == nil {
		d.rpc = transmission.NewFromConfig(d.cfg, d.baseLogger)
	}
	return nil
}

func (d *Daemon) launch(ctx context.Context) {
	requests := make(chan dedup.Request, dedup.RequestBuffer)
	links := make(chan string, transmission.LinkBuffer)
	paths := make(chan string, watcher.PathBuffer)

	responder := dedup.NewResponder(d.store, requests, d.baseLogger)
	poller := feed.NewPoller(feed.Options{
		URL:       d.cfg.Feed.URL,
		Interval:  d.cfg.PollInterval(),
		Client:    d.feedClient,
		Requests:  requests,
		DedupDone: responder.Done(),
		Approved:  links,
		Logger:    d.baseLogger,
	})
	watch := watcher.New(d.source, paths, d.baseLogger)

	placerOpts := watcher.PlacerOptions{
		Recorder: d.history,
		Notifier: d.notifier,
		Logger:   d.baseLogger,
	}
	if d.refresher != nil {
		placerOpts.Refresher = d.refresher
	}
	relocator := relocate.New(d.cfg.Paths.SaveDir, classify.Roots{
		MoviesDir: d.cfg.Library.MoviesDir,
		TVDir:     d.cfg.Library.TVDir,
	}, d.baseLogger)
	placer := watcher.NewPlacer(paths, relocator, placerOpts)
	submitter := transmission.NewSubmitter(d.rpc, links, d.history, d.notifier, d.baseLogger)

	d.mu.Lock()
	d.tasks = nil
	d.mu.Unlock()
	d.runTask(ctx, TaskDedup, responder.Run)
	d.runTask(ctx, TaskFeed, poller.Run)
	d.runTask(ctx, TaskWatch, watch.Run)
	d.runTask(ctx, TaskPlacer, placer.Run)
	d.runTask(ctx, TaskSubmitter, submitter.Run)
}

// runTask starts fn in its own goroutine. A task that returns an error is
// reported and left stopped; sibling tasks are not cancelled.
func (d *Daemon) runTask(ctx context.Context, name string, fn func(context.Context) error) {
	status := &TaskStatus{Name: name, State: TaskRunning}
	d.mu.Lock()
	d.tasks = append(d.tasks, status)
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		err := fn(ctx)

		d.mu.Lock()
		status.Err = err
		if err != nil {
			status.State = TaskFailed
		} else {
			status.State = TaskStopped
		}
		d.mu.Unlock()
		if d.running.Load() {
			d.publishStatus()
		}

		if err == nil {
			d.logger.Debug("task stopped", logging.String("task", name))
			return
		}
		logging.ErrorWithContext(d.logger, "task stopped", "task_failed",
			logging.String("task", name),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "restart the daemon after resolving the error"),
		)
		if notifyErr := d.notifier.NotifyError(context.WithoutCancel(ctx), err, name); notifyErr != nil {
			d.logger.Debug("error notification failed", logging.Error(notifyErr))
		}
	}()
}

// Stop cancels the background tasks, waits for them to exit and releases the
// instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
	}
	if d.source != nil {
		if err := d.source.Close(); err != nil {
			d.logger.Debug("close watch source", logging.Error(err))
		}
		if d.ownsSource {
			d.source = nil
			d.ownsSource = false
		}
	}
	d.wg.Wait()
	d.running.Store(false)
	d.publishStatus()
	d.release()
	d.logger.Info("daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

func (d *Daemon) release() {
	if d.ownsHistory && d.history != nil {
		if err := d.history.Close(); err != nil {
			d.logger.Debug("close history", logging.Error(err))
		}
		d.history = nil
		d.ownsHistory = false
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Debug("release daemon lock", logging.Error(err))
	}
}

// Close stops the daemon if it is running.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Wait blocks until every task has returned.
func (d *Daemon) Wait() {
	d.wg.Wait()
}

// SeenLinks returns the links currently recorded in the seen store.
func (d *Daemon) SeenLinks() []string {
	if d.store == nil {
		return nil
	}
	return d.store.Links()
}

// Status returns the daemon runtime status.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	tasks := make([]TaskStatus, 0, len(d.tasks))
	for _, task := range d.tasks {
		tasks = append(tasks, *task)
	}
	d.mu.Unlock()
	return Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
		SeenPath:     d.cfg.SeenPath(),
		Tasks:        tasks,
	}
}
