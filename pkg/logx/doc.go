// Package logx is logbridge's logging engine wrapper.
//
// zerolog renders every log call once as a JSON line. A Context decodes that
// line into a Record and hands it to each registered sink whose filter accepts
// the record's level:
//   - ConsoleSink (human-friendly zerolog console output)
//   - FileSink (JSON lines, level range switchable at runtime via TrySetVerbose)
//   - EventSink (in-process observers, e.g. a live log viewer)
//   - MetricsSink (Prometheus counters per level)
//
// There is no package-level engine state: callers create a Context, pass it
// around and Close it on shutdown. Internal failures are reported on the
// Context's diagnostic logger, never through its own sinks.
package logx
