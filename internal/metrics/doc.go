// Package metrics scores simulation runs. Every metric observes whole frames and
// implements sim.Metric.
package metrics
