// Package metric provides Prometheus metrics for fp4.
//
//   - prometheus.go: the registry, auth outcome counters and the /metrics handler
//   - collector.go: a collector reading database pool statistics on scrape
//
// Metrics are exposed at /metrics in Prometheus text format.
package metric
