package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	SourceAName string
	SourceBName string

	SourceADelay     time.Duration
	SourceBDelay     time.Duration
	ConsolidateDelay time.Duration
	RunTimeout       time.Duration
	ReadingProgress  int

	MaxConcurrentRuns int
	MaxWaitTime       time.Duration

	// SessionTTL is how long an untouched session is kept (default: 2h).
	SessionTTL time.Duration

	// Steps replaces the simulated steps when set.
	Steps []Step

	// Parse replaces ParseWorkbook when set.
	Parse ParseFunc
}

// Service owns the page controllers of all browser sessions.
type Service struct {
	opts      Options
	pipeline  *Pipeline
	limiter   *RunLimiter
	checklist Checklist

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*Controller
}

// NewService creates a Service. It fails only when custom steps do not form
// a valid pipeline.
func NewService(opts Options) (*Service, error) {
	if opts.SourceAName == "" {
		opts.SourceAName = "ORSE"
	}
	if opts.SourceBName == "" {
		opts.SourceBName = "SIMAPI"
	}
	if opts.SourceADelay <= 0 {
		opts.SourceADelay = 2 * time.Second
	}
	if opts.SourceBDelay <= 0 {
		opts.SourceBDelay = 2 * time.Second
	}
	if opts.ConsolidateDelay <= 0 {
		opts.ConsolidateDelay = time.Second
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 2 * time.Hour
	}

	pipeline := SimulatedPipeline(opts.SourceADelay, opts.SourceBDelay, opts.ConsolidateDelay)
	if len(opts.Steps) > 0 {
		p, err := NewPipeline(opts.Steps...)
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		pipeline = p
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		opts:      opts,
		pipeline:  pipeline,
		limiter:   NewRunLimiter(opts.MaxConcurrentRuns, opts.MaxWaitTime),
		checklist: NewChecklist(opts.SourceAName, opts.SourceBName),
		ctx:       ctx,
		cancel:    cancel,
		sessions:  make(map[string]*Controller),
	}, nil
}

// Checklist returns the processing checklist shown in the status panel.
func (s *Service) Checklist() Checklist {
	return s.checklist
}

// SourceNames returns the display names of the two reference sources.
func (s *Service) SourceNames() (string, string) {
	return s.opts.SourceAName, s.opts.SourceBName
}

// Limiter returns the shared run limiter.
func (s *Service) Limiter() *RunLimiter {
	return s.limiter
}

// Session returns the controller for id, creating it on first use.
func (s *Service) Session(id string) *Controller {
	s.mu.RLock()
	c, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.sessions[id]; ok {
		return c
	}
	c = NewController(s.ctx, id, ControllerOptions{
		Pipeline:        s.pipeline,
		Limiter:         s.limiter,
		Parse:           s.opts.Parse,
		ReadingProgress: s.opts.ReadingProgress,
		RunTimeout:      s.opts.RunTimeout,
	})
	s.sessions[id] = c
	slog.Debug("session created", "session_id", id)
	return c
}

// SubscriberCount returns the number of open update streams across sessions.
func (s *Service) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.sessions {
		n += c.Updates().Len()
	}
	return n
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// WaitForRuns blocks until every pipeline run has finished or ctx is done.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Close cancels all runs and disconnects every subscriber.
func (s *Service) Close() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.sessions {
		c.Close()
		delete(s.sessions, id)
	}
}
