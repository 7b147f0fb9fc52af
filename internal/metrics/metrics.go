package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logward_ingest_events_total",
			Help: "Total number of events received on the ingest endpoint",
		},
		[]string{"log_type", "status"},
	)

	// Sweep metrics
	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logward_sweep_runs_total",
			Help: "Total number of background sweep cycles",
		},
		[]string{"sweep", "status"},
	)

	SweepSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logward_sweep_skipped_total",
			Help: "Sweep cycles skipped because the previous run was still in flight",
		},
		[]string{"sweep"},
	)

	AlertsRaised = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logward_alerts_raised_total",
			Help: "Alerts created by the failed-login correlation sweep",
		},
	)

	RowsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logward_retention_rows_deleted_total",
			Help: "Rows removed by the retention sweep",
		},
		[]string{"table"},
	)
)
