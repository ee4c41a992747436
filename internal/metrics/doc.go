// Package metrics records citation and conversion counters.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics never need nil checks at call sites:
//
//	rec := metrics.NewPrometheusRecorder(reg)
//	r, err := reader.New(cfg, reader.WithRecorder(rec))
//
// The CLI can dump the registry in the Prometheus text format with
// WriteTextfile, for node_exporter's textfile collector.
package metrics
