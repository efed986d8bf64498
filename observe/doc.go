// Package observe provides observability primitives for report operations.
//
// An Observer bundles an OpenTelemetry tracer and meter with a structured
// logger backed by github.com/apex/log. Middleware wraps a single report
// operation (a metric, a display or a response computation) with a span,
// execution metrics and a log line. NewCacheMetrics reports memoization hits
// and misses through the same meter.
package observe
