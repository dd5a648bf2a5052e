// Package metrics defines the observability sinks of the coordination core.
// A Sink records cache activity; sinks may also implement MutationRecorder and
// ProgressRecorder, which MultiSink and Collector detect by type assertion.
// Sinks are built from configuration through the factory registry and several
// configured sinks are combined into a MultiSink automatically.
package metrics
