package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncCitations(3, 1)
	pr.IncCitations(2, 0)
	pr.IncDocumentOutcome(OutcomeConverted)
	pr.IncDocumentOutcome(OutcomeUnchanged)
	pr.IncDocumentOutcome(OutcomeConverted)
	pr.ObserveConvertDuration(15 * time.Millisecond)

	require.InDelta(t, 5, testutil.ToFloat64(pr.citations.WithLabelValues("resolved")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.citations.WithLabelValues("unbound")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(pr.documents.WithLabelValues("converted")), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 3)
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncDocumentOutcome(OutcomeFailed)

	path := filepath.Join(t.TempDir(), "vancouver.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `vancouver_documents_total{outcome="failed"} 1`)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncCitations(1, 1)
	r.IncDocumentOutcome(OutcomeConverted)
	r.ObserveConvertDuration(time.Second)
}
