// Package metric provides Prometheus metrics for LinkHub.
//
// The client counts authentication outcomes, session self-heals, guard
// decisions and notification admissions. Metrics are exposed by
// `linkhub watch --metrics-address` at /metrics.
package metric
