package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/qgrid-team/qgrid/grid"
)

const (
	metricsNamespace = "qgrid"
	subsystem        = "session"
)

var (
	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "active",
			Help:      "Number of open editing sessions",
		},
	)

	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "operations_total",
			Help:      "Total number of session operations",
		},
		[]string{"op", "result"}, // result: "ok", "rejected", "error"
	)
)

func observeOperation(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case grid.IsRejection(err):
		result = "rejected"
	default:
		result = "error"
	}
	operationsTotal.WithLabelValues(op, result).Inc()
}
