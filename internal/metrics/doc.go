// Package metrics pushes a one-shot summary of each run to a Prometheus
// Pushgateway. The program never serves metrics itself.
package metrics
