package core

// controller.go owns the page state of one browser session.
//
// Every transition goes through Controller methods while holding c.mu. The
// two slow parts, parsing an upload and running the pipeline, happen outside
// the lock; the in-flight stage set before them keeps a second upload or run
// from starting in between.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUploadDisabled = errors.New("upload disabled while processing")
	ErrNoGrid         = errors.New("no spreadsheet loaded")
	ErrNotIdle        = errors.New("processing already started")
	ErrNotComplete    = errors.New("processing not complete")
)

// DefaultReadingProgress is the progress shown while a file is parsed.
const DefaultReadingProgress = 20

// ParseFunc converts uploaded bytes into a Grid.
type ParseFunc func(data []byte) (Grid, error)

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	Pipeline        *Pipeline
	Limiter         *RunLimiter
	Parse           ParseFunc
	ReadingProgress int
	RunTimeout      time.Duration
}

// Controller is the single writer of a session's State.
type Controller struct {
	id   string
	opts ControllerOptions

	// ctx bounds background runs; cancelled when the session is evicted.
	ctx    context.Context
	cancel context.CancelFunc

	updates *Broadcaster

	mu       sync.Mutex
	state    State
	done     chan struct{}
	lastSeen time.Time
}

// NewController creates a controller in the idle stage.
func NewController(parent context.Context, id string, opts ControllerOptions) *Controller {
	if opts.Parse == nil {
		opts.Parse = ParseWorkbook
	}
	if opts.Limiter == nil {
		opts.Limiter = NewRunLimiter(DefaultMaxConcurrentRuns, DefaultMaxWaitTime)
	}
	if opts.Pipeline == nil {
		opts.Pipeline = SimulatedPipeline(2*time.Second, 2*time.Second, time.Second)
	}
	if opts.ReadingProgress <= 0 {
		opts.ReadingProgress = DefaultReadingProgress
	}

	ctx, cancel := context.WithCancel(parent)

	return &Controller{
		id:       id,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		updates:  NewBroadcaster(),
		state:    NewState(),
		lastSeen: time.Now(),
	}
}

// ID returns the session id.
func (c *Controller) ID() string {
	return c.id
}

// Updates returns the broadcaster pinged on every state change.
func (c *Controller) Updates() *Broadcaster {
	return c.updates
}

func (c *Controller) logger() *slog.Logger {
	return slog.Default().With("session_id", c.id)
}

// Snapshot returns a copy of the current state with expired toasts removed.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastSeen = time.Now()
	c.state.pruneToasts(c.lastSeen)

	s := c.state
	s.Toasts = append([]Toast(nil), c.state.Toasts...)
	if c.state.File != nil {
		f := *c.state.File
		s.File = &f
	}
	return s
}

// SelectFile stores the file, parses it and updates the state with the result.
// It returns ErrUploadDisabled, leaving the state untouched, while work is in
// flight. A parse failure is not returned: it moves the session to StageError
// and keeps any previously loaded grid.
func (c *Controller) SelectFile(ctx context.Context, file UploadedFile, data []byte) error {
	c.mu.Lock()
	if c.state.UploadDisabled() {
		c.mu.Unlock()
		return ErrUploadDisabled
	}
	if err := c.state.enter(StageReading); err != nil {
		c.mu.Unlock()
		return err
	}
	c.state.File = &file
	c.state.ErrorMessage = ""
	c.state.Progress = c.opts.ReadingProgress
	c.lastSeen = time.Now()
	c.mu.Unlock()
	c.updates.Broadcast()

	log := c.logger().With("file", file.Name, "size", file.Size)
	start := time.Now()
	grid, err := c.opts.Parse(data)

	c.mu.Lock()
	if err != nil {
		msg := MapError(err)
		_ = c.state.enter(StageError)
		c.state.ErrorMessage = msg.Message
		c.state.pushToast(toastReadFailed())
		c.mu.Unlock()
		c.updates.Broadcast()

		log.WarnContext(ctx, "spreadsheet parse failed", "error", err, "code", msg.Code)
		return nil
	}

	_ = c.state.enter(StageIdle)
	c.state.Grid = grid
	c.state.TotalItems = grid.ItemCount()
	c.state.Progress = 0
	c.state.pushToast(toastFileLoaded(c.state.TotalItems))
	c.mu.Unlock()
	c.updates.Broadcast()

	log.InfoContext(ctx, "spreadsheet loaded",
		"rows", grid.RowCount(),
		"items", grid.ItemCount(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// StartProcessing begins a pipeline run in the background and returns its id.
// The run keeps going after ctx is done; it is bounded by RunTimeout and by
// the session's lifetime.
func (c *Controller) StartProcessing(ctx context.Context) (string, error) {
	c.mu.Lock()
	err := c.checkCanProcess()
	c.mu.Unlock()
	if err != nil {
		return "", err
	}

	if err := c.opts.Limiter.Acquire(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	// Another request may have started a run while we waited for a slot.
	if err := c.checkCanProcess(); err != nil {
		c.mu.Unlock()
		c.opts.Limiter.Release()
		return "", err
	}

	if err := c.state.enter(StageSourceA); err != nil {
		c.mu.Unlock()
		c.opts.Limiter.Release()
		return "", err
	}
	runID := uuid.New().String()
	c.state.RunID = runID
	c.state.Progress = progressStart
	c.state.ItemsProcessed = 0
	c.state.ErrorMessage = ""
	c.lastSeen = time.Now()

	job := Job{
		RunID:      runID,
		FileName:   c.state.FileName(),
		Grid:       c.state.Grid,
		TotalItems: c.state.TotalItems,
	}
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()
	c.updates.Broadcast()

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if c.opts.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(c.ctx, c.opts.RunTimeout)
	} else {
		runCtx, cancel = context.WithCancel(c.ctx)
	}

	c.logger().InfoContext(ctx, "processing started", "run_id", runID, "items", job.TotalItems)

	go c.run(runCtx, cancel, job, done)

	return runID, nil
}

func (c *Controller) checkCanProcess() error {
	if c.state.Grid == nil {
		return ErrNoGrid
	}
	if c.state.Stage != StageIdle {
		return fmt.Errorf("%w: stage is %s", ErrNotIdle, c.state.Stage)
	}
	return nil
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, job Job, done chan struct{}) {
	defer close(done)
	defer c.opts.Limiter.Release()
	defer cancel()

	log := c.logger().With("run_id", job.RunID)
	start := time.Now()

	err := c.opts.Pipeline.Run(ctx, job, c.checkpoint)
	if err != nil {
		msg := MapError(err)

		c.mu.Lock()
		_ = c.state.enter(StageError)
		c.state.ErrorMessage = msg.Message
		c.state.pushToast(toastProcessingFailed(msg))
		c.mu.Unlock()
		c.updates.Broadcast()

		log.Error("processing failed", "error", err, "code", msg.Code,
			"duration_ms", time.Since(start).Milliseconds())
		return
	}

	log.Info("processing complete", "items", job.TotalItems,
		"duration_ms", time.Since(start).Milliseconds())
}

// checkpoint applies the progress reached after stage finished.
func (c *Controller) checkpoint(stage Stage) {
	cp, ok := checkpoints[stage]
	if !ok {
		return
	}

	c.mu.Lock()
	if err := c.state.enter(cp.next); err != nil {
		c.mu.Unlock()
		c.logger().Error("checkpoint rejected", "error", err)
		return
	}
	c.state.advance(cp.progress)
	if cp.itemsDone {
		c.state.ItemsProcessed = c.state.TotalItems
	}
	if cp.next == StageComplete {
		c.state.pushToast(toastProcessingComplete())
	}
	c.mu.Unlock()
	c.updates.Broadcast()
}

// RequestDownload acknowledges a download request for a completed run.
// No file is produced.
func (c *Controller) RequestDownload(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.CanDownload() {
		stage := c.state.Stage
		c.mu.Unlock()
		return fmt.Errorf("%w: stage is %s", ErrNotComplete, stage)
	}
	c.state.pushToast(toastDownloadStarted())
	c.lastSeen = time.Now()
	runID := c.state.RunID
	c.mu.Unlock()
	c.updates.Broadcast()

	c.logger().InfoContext(ctx, "download requested", "run_id", runID)
	return nil
}

// Wait blocks until the current run, if any, has finished.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether a pipeline run is in progress.
func (c *Controller) Running() bool {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Busy reports whether a file is being read or a run is in progress.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	inFlight := c.state.Stage.InFlight()
	c.mu.Unlock()
	return inFlight || c.Running()
}

// LastSeen returns when the session was last read or changed.
func (c *Controller) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Close cancels any run and disconnects subscribers.
func (c *Controller) Close() {
	c.cancel()
	c.updates.Close()
}
