package drapto

import (
	draptolib "github.com/five82/drapto"
)

// reporter forwards the Drapto callbacks an encode cares about. Summaries
// that only matter to Drapto's own terminal UI are dropped.
type reporter struct {
	callback func(ProgressUpdate)
}

func newReporter(callback func(ProgressUpdate)) *reporter {
	return &reporter{callback: callback}
}

func (r *reporter) Hardware(draptolib.HardwareSummary)             {}
func (r *reporter) Initialization(draptolib.InitializationSummary) {}
func (r *reporter) CropResult(draptolib.CropSummary)               {}
func (r *reporter) EncodingConfig(draptolib.EncodingConfigSummary) {}
func (r *reporter) EncodingStarted(uint64)                         {}
func (r *reporter) ValidationComplete(draptolib.ValidationSummary) {}
func (r *reporter) BatchStarted(draptolib.BatchStartInfo)          {}
func (r *reporter) FileProgress(draptolib.FileProgressContext)     {}
func (r *reporter) BatchComplete(draptolib.BatchSummary)           {}

func (r *reporter) StageProgress(s draptolib.StageProgress) {
	update := ProgressUpdate{
		Type:    EventStageProgress,
		Percent: float64(s.Percent),
		Stage:   s.Stage,
		Message: s.Message,
	}
	if s.ETA != nil {
		update.ETA = *s.ETA
	}
	r.callback(update)
}

func (r *reporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	r.callback(ProgressUpdate{
		Type:    EventEncodingProgress,
		Percent: float64(s.Percent),
		Stage:   "encoding",
		Speed:   float64(s.Speed),
		FPS:     float64(s.FPS),
		ETA:     s.ETA,
	})
}

func (r *reporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.callback(ProgressUpdate{
		Type:    EventEncodingComplete,
		Percent: 100,
		Message: s.OutputPath,
	})
}

func (r *reporter) Warning(message string) {
	r.callback(ProgressUpdate{Type: EventWarning, Warning: message})
}

func (r *reporter) Error(e draptolib.ReporterError) {
	detail := joinNonEmpty(": ", e.Title, e.Message)
	if e.Suggestion != "" {
		detail = joinNonEmpty(" ", detail, "("+e.Suggestion+")")
	}
	r.callback(ProgressUpdate{Type: EventError, Err: detail})
}

func (r *reporter) OperationComplete(message string) {
	r.callback(ProgressUpdate{Type: EventStageProgress, Stage: "complete", Message: message})
}

var _ draptolib.Reporter = (*reporter)(nil)
