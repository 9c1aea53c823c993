package core

import "fmt"

// StepState is the display state of one checklist entry.
type StepState string

const (
	StepComplete StepState = "complete"
	StepActive   StepState = "active"
	StepPending  StepState = "pending"
)

// ChecklistItem labels one in-flight stage.
type ChecklistItem struct {
	Stage Stage
	Label string
}

// Checklist is the ordered list of stages shown while processing.
type Checklist []ChecklistItem

// NewChecklist builds the four-step checklist using the configured source names.
func NewChecklist(sourceA, sourceB string) Checklist {
	return Checklist{
		{Stage: StageReading, Label: "Leitura da planilha"},
		{Stage: StageSourceA, Label: "Consultando " + sourceA},
		{Stage: StageSourceB, Label: "Consultando " + sourceB},
		{Stage: StageConsolidating, Label: "Consolidando dados"},
	}
}

// IndexOf returns the position of stage in the checklist, or -1.
func (c Checklist) IndexOf(stage Stage) int {
	for i, item := range c {
		if item.Stage == stage {
			return i
		}
	}
	return -1
}

// StatusStep is one rendered checklist line.
type StatusStep struct {
	Label string    `json:"label"`
	State StepState `json:"state"`
}

// StatusView is the input of the processing status panel.
type StatusView struct {
	Visible  bool
	Stage    Stage
	Progress int

	Steps          []StatusStep
	ShowCounter    bool
	ItemsProcessed int
	TotalItems     int

	Complete     bool
	Failed       bool
	ErrorMessage string
}

// InFlight reports whether the progress bar and checklist are shown.
func (v StatusView) InFlight() bool {
	return v.Visible && !v.Complete && !v.Failed
}

// Counter returns the "Itens processados" line.
func (v StatusView) Counter() string {
	return fmt.Sprintf("Itens processados: %s de %s",
		FormatCount(v.ItemsProcessed), FormatCount(v.TotalItems))
}

// BuildStatus derives the status panel from a state snapshot.
// Nothing is visible while idle.
func BuildStatus(c Checklist, s State) StatusView {
	if s.Stage == StageIdle {
		return StatusView{Stage: StageIdle}
	}

	v := StatusView{
		Visible:        true,
		Stage:          s.Stage,
		Progress:       s.Progress,
		ItemsProcessed: s.ItemsProcessed,
		TotalItems:     s.TotalItems,
	}

	if s.Stage.Terminal() {
		v.Complete = s.Stage == StageComplete
		v.Failed = s.Stage == StageError
		if v.Failed {
			v.ErrorMessage = s.ErrorMessage
		}
		return v
	}

	current := c.IndexOf(s.Stage)
	v.Steps = make([]StatusStep, len(c))
	for i, item := range c {
		state := StepPending
		switch {
		case item.Stage == s.Stage:
			state = StepActive
		case current >= 0 && i < current:
			state = StepComplete
		}
		v.Steps[i] = StatusStep{Label: item.Label, State: state}
	}
	v.ShowCounter = s.TotalItems > 0

	return v
}
