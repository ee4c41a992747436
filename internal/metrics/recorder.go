package metrics

import "time"

// OutcomeLabel enumerates document conversion outcomes.
type OutcomeLabel string

const (
	OutcomeConverted OutcomeLabel = "converted"
	OutcomeUnchanged OutcomeLabel = "unchanged" // no citation resolved
	OutcomeFailed    OutcomeLabel = "failed"
)

// Recorder defines observability hooks for document conversion.
type Recorder interface {
	IncCitations(resolved, unbound int)
	IncDocumentOutcome(outcome OutcomeLabel)
	ObserveConvertDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncCitations(int, int)                {}
func (NoopRecorder) IncDocumentOutcome(OutcomeLabel)      {}
func (NoopRecorder) ObserveConvertDuration(time.Duration) {}
