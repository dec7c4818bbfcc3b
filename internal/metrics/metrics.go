// Package metrics holds Prometheus instruments that are used across the
// console.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Backend registry calls by operation and outcome.",
		}, []string{"op", "outcome"})

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Latency of backend registry calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"})

	RegisteredDatabases = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "registered_databases",
			Help: "Number of database instances currently held in the registry.",
		})

	ActiveNotifications = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_notifications",
			Help: "Number of notifications currently visible to the operator.",
		})

	CreateRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "create_requests_total",
			Help: "Creation intents by final outcome.",
		}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		BackendRequestsTotal,
		BackendRequestDuration,
		RegisteredDatabases,
		ActiveNotifications,
		CreateRequestsTotal,
	)
}
