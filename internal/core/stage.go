package core

// Stage is one phase of the upload-then-process flow.
type Stage string

const (
	StageIdle          Stage = "idle"
	StageReading       Stage = "reading"
	StageSourceA       Stage = "source-a"
	StageSourceB       Stage = "source-b"
	StageConsolidating Stage = "consolidating"
	StageComplete      Stage = "complete"
	StageError         Stage = "error"
)

// transitions lists the stages reachable from each stage.
// The flow is forward-only; error is reachable from every in-flight stage.
var transitions = map[Stage][]Stage{
	StageIdle:          {StageReading, StageSourceA},
	StageReading:       {StageIdle, StageError},
	StageSourceA:       {StageSourceB, StageError},
	StageSourceB:       {StageConsolidating, StageError},
	StageConsolidating: {StageComplete, StageError},
	StageComplete:      {StageReading},
	StageError:         {StageReading},
}

// CanTransition reports whether the state machine allows moving from one stage to another.
func CanTransition(from, to Stage) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// InFlight reports whether work is running for this stage. The upload
// target is disabled while a stage is in flight. Error is not in flight:
// uploading a new file is how a user recovers from a failed run, so the
// target stays enabled there on purpose.
func (s Stage) InFlight() bool {
	switch s {
	case StageReading, StageSourceA, StageSourceB, StageConsolidating:
		return true
	}
	return false
}

// Terminal reports whether the stage ends a run.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError
}

func (s Stage) String() string {
	return string(s)
}
