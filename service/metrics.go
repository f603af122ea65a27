package service

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("department_service.service")

var (
	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "departments_operation_duration_seconds",
		Help:    "Duration of department operations",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"operation", "outcome"})

	rowsShifted = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "departments_rows_shifted",
		Help:    "Rows touched by the index updates of one mutation",
		Buckets: []float64{0, 1, 10, 100, 1000, 10000, 100000},
	}, []string{"operation"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "departments_cache_lookups_total",
		Help: "Read cache lookups by result",
	}, []string{"result"})
)

// track opens a span for op and returns the function that closes it and
// records the operation's duration and outcome
func track(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := tracer.Start(ctx, "DepartmentService."+op, trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(err error) {
		operationDuration.WithLabelValues(op, outcome(err)).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
