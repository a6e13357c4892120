// Package metrics records tracker metrics behind a small Recorder interface.
//
// Components hold a Recorder and never check for nil: NoopRecorder is the
// default and PrometheusRecorder is swapped in when metrics are enabled.
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	router.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
