package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipeline_Validation(t *testing.T) {
	noop := func(context.Context, Job) error { return nil }

	tests := []struct {
		name  string
		steps []Step
		ok    bool
	}{
		{"valid", []Step{{StageSourceA, noop}, {StageSourceB, noop}, {StageConsolidating, noop}}, true},
		{"too few", []Step{{StageSourceA, noop}}, false},
		{"wrong order", []Step{{StageSourceB, noop}, {StageSourceA, noop}, {StageConsolidating, noop}}, false},
		{"nil run", []Step{{StageSourceA, noop}, {StageSourceB, nil}, {StageConsolidating, noop}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPipeline(tt.steps...)
			if tt.ok {
				require.NoError(t, err)
				assert.NotNil(t, p)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidPipeline)
		})
	}
}

func TestPipeline_RunOrder(t *testing.T) {
	var ran, done []Stage
	record := func(s Stage) StepFunc {
		return func(context.Context, Job) error {
			ran = append(ran, s)
			return nil
		}
	}

	p, err := NewPipeline(
		Step{StageSourceA, record(StageSourceA)},
		Step{StageSourceB, record(StageSourceB)},
		Step{StageConsolidating, record(StageConsolidating)},
	)
	require.NoError(t, err)

	require.NoError(t, p.Run(context.Background(), Job{}, func(s Stage) { done = append(done, s) }))

	want := []Stage{StageSourceA, StageSourceB, StageConsolidating}
	assert.Equal(t, want, ran)
	assert.Equal(t, want, done)
}

func TestPipeline_StopsAtFailingStep(t *testing.T) {
	boom := errors.New("source unavailable")
	var done []Stage

	p, err := NewPipeline(
		DelayStep(StageSourceA, 0),
		Step{StageSourceB, func(context.Context, Job) error { return boom }},
		Step{StageConsolidating, func(context.Context, Job) error {
			t.Fatal("consolidating must not run")
			return nil
		}},
	)
	require.NoError(t, err)

	err = p.Run(context.Background(), Job{}, func(s Stage) { done = append(done, s) })

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StageSourceB, stepErr.Stage)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []Stage{StageSourceA}, done)
}

func TestDelayStep_HonorsContext(t *testing.T) {
	step := DelayStep(StageSourceA, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := step.Run(ctx, Job{})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
