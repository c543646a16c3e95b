// Package metrics records Prometheus metrics for a glean run.
//
// A CLI process has no scrape endpoint, so each Recorder owns a private
// registry and the CLI writes it to a node_exporter textfile when
// --metrics-file is set. All Recorder methods are safe to call on a nil
// receiver, which is how metrics are switched off.
package metrics
