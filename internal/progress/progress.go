// Package progress emits the machine-readable step events the chat-bot
// front-end renders as live progress. One flat event per line.
package progress

import "github.com/rs/zerolog"

// Step identifies one discrete point in a sync run.
type Step string

const (
	StepBrowserLaunch    Step = "browser_launch"
	StepPageLoad         Step = "page_load"
	StepFormFill         Step = "form_fill"
	StepFormSubmit       Step = "form_submit"
	StepSecondFactorWait Step = "second_factor_wait"
	StepSecondFactorOK   Step = "second_factor_ok"
	StepAccountResolve   Step = "account_resolve"
	StepFetchChunk       Step = "fetch_chunk"
	StepTransform        Step = "transform"
	StepUploadBatch      Step = "upload_batch"
	StepResult           Step = "result"
)

// Reporter receives step events as a run progresses. Implementations must
// keep each event independently parseable; consumers read them line by line.
type Reporter interface {
	Event(step Step, message string, fields map[string]any)
}

// LogReporter writes each event as a single structured log line.
type LogReporter struct {
	log zerolog.Logger
}

// NewLogReporter creates a Reporter backed by the given logger.
func NewLogReporter(log zerolog.Logger) *LogReporter {
	return &LogReporter{log: log}
}

func (r *LogReporter) Event(step Step, message string, fields map[string]any) {
	ev := r.log.Info().Str("step", string(step))
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(message)
}

// Nop discards all events. Used by tests and the dry CLI paths.
type Nop struct{}

func (Nop) Event(Step, string, map[string]any) {}
