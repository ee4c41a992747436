package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/vancouver/internal/foundation/errors"
)

const namespace = "vancouver"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg             *prom.Registry
	citations       *prom.CounterVec
	documents       *prom.CounterVec
	convertDuration prom.Histogram
}

// NewPrometheusRecorder constructs and registers the metrics on reg (a fresh
// registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		citations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "citations_total",
			Help:      "Citation markers seen, by whether a definition was found",
		}, []string{"result"}),
		documents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed by outcome",
		}, []string{"outcome"}),
		convertDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "convert_duration_seconds",
			Help:      "Time to convert one document to HTML",
			Buckets:   prom.DefBuckets,
		}),
	}
	reg.MustRegister(pr.citations, pr.documents, pr.convertDuration)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) IncCitations(resolved, unbound int) {
	if p == nil {
		return
	}
	p.citations.WithLabelValues("resolved").Add(float64(resolved))
	p.citations.WithLabelValues("unbound").Add(float64(unbound))
}

func (p *PrometheusRecorder) IncDocumentOutcome(outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.documents.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveConvertDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.convertDuration.Observe(d.Seconds())
}

// WriteTextfile writes the registry to path in the Prometheus text format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write metrics textfile").
			WithContext("path", path).Build()
	}
	return nil
}
