package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when a stage change is not allowed.
var ErrInvalidTransition = errors.New("invalid stage transition")

// UploadedFile describes the selected file. It is kept for display only.
type UploadedFile struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// State is everything the page shows for one session. Only the owning
// Controller writes it; callers get copies from Controller.Snapshot.
type State struct {
	File           *UploadedFile `json:"file,omitempty"`
	Grid           Grid          `json:"-"`
	Stage          Stage         `json:"stage"`
	Progress       int           `json:"progress"`
	ItemsProcessed int           `json:"items_processed"`
	TotalItems     int           `json:"total_items"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	RunID          string        `json:"run_id,omitempty"`
	Toasts         []Toast       `json:"toasts"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewState returns the initial idle state.
func NewState() State {
	return State{Stage: StageIdle, UpdatedAt: time.Now()}
}

// UploadDisabled reports whether the upload target rejects new files.
func (s State) UploadDisabled() bool {
	return s.Stage.InFlight()
}

// CanProcess reports whether a processing run may start.
func (s State) CanProcess() bool {
	return s.Grid != nil && s.Stage == StageIdle
}

// CanDownload reports whether the consolidated download is offered.
func (s State) CanDownload() bool {
	return s.Stage == StageComplete
}

// FileName returns the selected file's name, or "" when none.
func (s State) FileName() string {
	if s.File == nil {
		return ""
	}
	return s.File.Name
}

// enter moves the state to stage, enforcing the transition table.
func (s *State) enter(stage Stage) error {
	if !CanTransition(s.Stage, stage) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Stage, stage)
	}
	s.Stage = stage
	s.UpdatedAt = time.Now()
	return nil
}

// advance raises progress. Progress never moves backwards inside a run.
func (s *State) advance(progress int) {
	if progress > 100 {
		progress = 100
	}
	if progress > s.Progress {
		s.Progress = progress
	}
}

func (s *State) pushToast(t Toast) {
	s.Toasts = append(s.Toasts, t)
}

// pruneToasts drops notifications older than ToastTTL.
func (s *State) pruneToasts(now time.Time) {
	kept := s.Toasts[:0]
	for _, t := range s.Toasts {
		if now.Sub(t.CreatedAt) < ToastTTL {
			kept = append(kept, t)
		}
	}
	s.Toasts = kept
}
