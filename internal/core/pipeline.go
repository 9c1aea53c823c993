package core

// pipeline.go defines the processing run as an ordered list of steps.
//
// The stage sequence and progress checkpoints are fixed; only what satisfies
// each step changes. The default steps are timed placeholders for the
// Source-A lookup, the Source-B lookup and the consolidation. A real
// implementation replaces a step's Run func and may return an error, which
// moves the session to StageError.

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPipeline is returned when steps do not match the run's stage order.
var ErrInvalidPipeline = errors.New("invalid pipeline")

// Job is the immutable input of one processing run.
type Job struct {
	RunID      string
	FileName   string
	Grid       Grid
	TotalItems int
}

// StepFunc performs the work of one stage.
type StepFunc func(ctx context.Context, job Job) error

// Step binds a StepFunc to the stage it runs in.
type Step struct {
	Stage Stage
	Run   StepFunc
}

// checkpoint is the state applied after a step succeeds.
type checkpoint struct {
	next      Stage
	progress  int
	itemsDone bool
}

// Progress values at each point of a run.
const (
	progressStart = 25
)

// runStages is the required step order.
var runStages = []Stage{StageSourceA, StageSourceB, StageConsolidating}

var checkpoints = map[Stage]checkpoint{
	StageSourceA:       {next: StageSourceB, progress: 50},
	StageSourceB:       {next: StageConsolidating, progress: 75, itemsDone: true},
	StageConsolidating: {next: StageComplete, progress: 100},
}

// Pipeline runs steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline validates that steps cover source-a, source-b and
// consolidating in that order.
func NewPipeline(steps ...Step) (*Pipeline, error) {
	if len(steps) != len(runStages) {
		return nil, fmt.Errorf("%w: want %d steps, got %d", ErrInvalidPipeline, len(runStages), len(steps))
	}
	for i, s := range steps {
		if s.Stage != runStages[i] {
			return nil, fmt.Errorf("%w: step %d is %s, want %s", ErrInvalidPipeline, i, s.Stage, runStages[i])
		}
		if s.Run == nil {
			return nil, fmt.Errorf("%w: step %s has no Run func", ErrInvalidPipeline, s.Stage)
		}
	}
	return &Pipeline{steps: steps}, nil
}

// DelayStep returns a step that waits d and does nothing else.
func DelayStep(stage Stage, d time.Duration) Step {
	return Step{
		Stage: stage,
		Run: func(ctx context.Context, _ Job) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		},
	}
}

// SimulatedPipeline returns the placeholder pipeline with the given delays.
func SimulatedPipeline(sourceA, sourceB, consolidate time.Duration) *Pipeline {
	return &Pipeline{steps: []Step{
		DelayStep(StageSourceA, sourceA),
		DelayStep(StageSourceB, sourceB),
		DelayStep(StageConsolidating, consolidate),
	}}
}

// StepError records which stage failed.
type StepError struct {
	Stage Stage
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Stage, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Run executes each step and calls done after it succeeds.
// It stops at the first failing step or when ctx is done.
func (p *Pipeline) Run(ctx context.Context, job Job, done func(Stage)) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Stage: step.Stage, Err: err}
		}
		if err := step.Run(ctx, job); err != nil {
			return &StepError{Stage: step.Stage, Err: err}
		}
		done(step.Stage)
	}
	return nil
}
