package backend

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/qgrid-team/qgrid/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	metricsNamespace = "qgrid"
	subsystem        = "backend"
	tracerName       = "qgrid/backend"
)

var (
	backendCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "calls_total",
			Help:      "Total number of simulator and propagator calls",
		},
		[]string{"backend", "op", "status"}, // status: "success", "failure", "timeout"
	)

	backendCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "call_duration_seconds",
			Help:      "Time taken by external simulator and propagator calls",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"backend", "op"},
	)

	propagateCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "propagate_cache_total",
			Help:      "Total number of propagate cache lookups",
		},
		[]string{"result"}, // result: "hit", "miss"
	)
)

func callStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, core.ErrorExternalServiceTimeout):
		return "timeout"
	}
	return "failure"
}

func observeBackendCall(backend, op string, err error) {
	backendCallsTotal.WithLabelValues(backend, op, callStatus(err)).Inc()
}

func startSpan(ctx context.Context, name string, layers int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name,
		trace.WithAttributes(attribute.Int("layers", layers)),
	)
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, callStatus(err))
}
