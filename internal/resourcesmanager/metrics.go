// Package resourcesmanager implements the core of the server: one
// ResourcesManager per (plugin, resourceType), aggregating the task-list
// runtime, dependency store, ready registry and adapter factory into the
// CRUD + observable-aggregate surface a resource manager exposes.
package resourcesmanager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	adaptersGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resourced_manager_adapters",
			Help: "Number of installed resource adapters per manager.",
		},
		[]string{"plugin", "resource_type"},
	)

	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resourced_manager_operations_total",
			Help: "Total number of create/delete/start/stop operations, by outcome.",
		},
		[]string{"plugin", "resource_type", "operation", "outcome"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resourced_manager_operation_duration_seconds",
			Help:    "Duration of create/delete/start/stop TaskLists from Start to settle.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"plugin", "resource_type", "operation"},
	)

	initErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resourced_manager_init_errors_total",
			Help: "Per-resource InitErrors observed during manager init.",
		},
		[]string{"plugin", "resource_type"},
	)
)
