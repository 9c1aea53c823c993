package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecklist_IndexOf(t *testing.T) {
	c := NewChecklist("ORSE", "SIMAPI")

	assert.Equal(t, 0, c.IndexOf(StageReading))
	assert.Equal(t, 1, c.IndexOf(StageSourceA))
	assert.Equal(t, 3, c.IndexOf(StageConsolidating))
	assert.Equal(t, -1, c.IndexOf(StageComplete))
	assert.Equal(t, -1, c.IndexOf(StageError))
	assert.Equal(t, -1, c.IndexOf(StageIdle))
	assert.Equal(t, "Consultando ORSE", c[1].Label)
	assert.Equal(t, "Consultando SIMAPI", c[2].Label)
}

func TestBuildStatus_IdleHidden(t *testing.T) {
	s := State{
		Stage:          StageIdle,
		Progress:       80,
		ItemsProcessed: 4,
		TotalItems:     9,
		ErrorMessage:   "ignored",
	}

	v := BuildStatus(NewChecklist("A", "B"), s)

	assert.False(t, v.Visible)
	assert.Empty(t, v.Steps)
}

func TestBuildStatus_InFlight(t *testing.T) {
	c := NewChecklist("ORSE", "SIMAPI")

	tests := []struct {
		stage Stage
		want  []StepState
	}{
		{StageReading, []StepState{StepActive, StepPending, StepPending, StepPending}},
		{StageSourceA, []StepState{StepComplete, StepActive, StepPending, StepPending}},
		{StageSourceB, []StepState{StepComplete, StepComplete, StepActive, StepPending}},
		{StageConsolidating, []StepState{StepComplete, StepComplete, StepComplete, StepActive}},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			v := BuildStatus(c, State{Stage: tt.stage, Progress: 50, TotalItems: 3})

			require.True(t, v.InFlight())
			require.Len(t, v.Steps, 4)
			for i, want := range tt.want {
				assert.Equal(t, want, v.Steps[i].State, "step %d", i)
			}
			assert.True(t, v.ShowCounter)
		})
	}
}

func TestBuildStatus_CounterHiddenWithoutItems(t *testing.T) {
	v := BuildStatus(NewChecklist("A", "B"), State{Stage: StageSourceA})
	assert.False(t, v.ShowCounter)
}

func TestBuildStatus_Counter(t *testing.T) {
	v := BuildStatus(NewChecklist("A", "B"), State{Stage: StageConsolidating, ItemsProcessed: 1500, TotalItems: 1500})
	assert.Equal(t, "Itens processados: 1.500 de 1.500", v.Counter())
}

func TestBuildStatus_Terminal(t *testing.T) {
	c := NewChecklist("A", "B")

	done := BuildStatus(c, State{Stage: StageComplete, Progress: 100})
	assert.True(t, done.Visible)
	assert.True(t, done.Complete)
	assert.False(t, done.InFlight())
	assert.Empty(t, done.Steps)

	failed := BuildStatus(c, State{Stage: StageError, ErrorMessage: "falhou"})
	assert.True(t, failed.Failed)
	assert.Equal(t, "falhou", failed.ErrorMessage)
	assert.Empty(t, failed.Steps)
}
