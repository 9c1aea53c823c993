// Package templates renders the page and its live-updated fragments as templ
// components.
package templates

//go:generate templ generate

import "github.com/JonMunkholm/orcaflow/internal/core"

// DatastarScript is the client runtime that consumes the /updates stream.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

// AlertID is the element replaced by ErrorAlert and AlertSlot.
const AlertID = "alert"

// AppView is everything the #app fragment needs.
type AppView struct {
	State   core.State
	Preview *core.Preview
	Status  core.StatusView

	SourceA string
	SourceB string
}

// NewAppView derives the preview and status panels from a state snapshot.
func NewAppView(s core.State, checklist core.Checklist, sourceA, sourceB string) AppView {
	return AppView{
		State:   s,
		Preview: core.BuildPreview(s.Grid, s.FileName()),
		Status:  core.BuildStatus(checklist, s),
		SourceA: sourceA,
		SourceB: sourceB,
	}
}
