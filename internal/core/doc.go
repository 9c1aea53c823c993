// Package core implements the spreadsheet intake and processing flow.
//
// It holds all domain logic independent of the HTTP layer: parsing a
// workbook into a Grid, the per-session page state machine, the processing
// pipeline and the derived preview and status views.
//
// # Flow
//
//  1. The web layer resolves the browser session to a [Controller] through
//     [Service.Session].
//  2. [Controller.SelectFile] moves the session to StageReading, parses the
//     first sheet with [ParseWorkbook] and returns to StageIdle, or to
//     StageError when the file cannot be read.
//  3. [Controller.StartProcessing] takes a [RunLimiter] slot and runs the
//     [Pipeline] in the background: source-a (25%), source-b (50%),
//     consolidating (75%), complete (100%).
//  4. Every change pings the session's [Broadcaster]; subscribers re-read
//     [Controller.Snapshot] and re-render.
//
// # Views
//
// [BuildPreview] and [BuildStatus] are pure functions of a [State] snapshot.
// Templates render their results and never see the controller.
//
// # Steps
//
// The default steps only wait. A step doing real work is a [Step] with the
// same stage and a different Run func:
//
//	svc, err := core.NewService(core.Options{Steps: []core.Step{
//	    {Stage: core.StageSourceA, Run: querySourceA},
//	    {Stage: core.StageSourceB, Run: querySourceB},
//	    core.DelayStep(core.StageConsolidating, time.Second),
//	}})
//
// A step error ends the run in StageError with a mapped [UserMessage].
package core
