// Package observability provides an OpenTelemetry metrics extension that
// records system-wide lifecycle counters: job enqueue, completion,
// failure, retry, and buffer flush outcomes.
//
// For per-execution latency and tracing, see the middleware package:
// middleware.Metrics() and middleware.Tracing().
package observability
