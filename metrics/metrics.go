// Package metrics holds the Prometheus collectors for the HTTP API and model calls.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/santiagomed/blendgen/llm"
)

const namespace = "blendgen"

// Metrics is a set of collectors registered on one registry. Tests create
// their own so collectors never clash with the default registry.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ModelCallsTotal     *prometheus.CounterVec
	ModelCallDuration   *prometheus.HistogramVec
	ParseErrorsTotal    prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 15, 30, 60, 120},
			},
			[]string{"method", "path"},
		),
		ModelCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "model",
				Name:      "calls_total",
				Help:      "Total number of model calls",
			},
			[]string{"operation", "status"},
		),
		ModelCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "model",
				Name:      "call_duration_seconds",
				Help:      "Model call duration in seconds",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"operation"},
		),
		ParseErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "recommendation",
				Name:      "parse_errors_total",
				Help:      "Recommendation responses that could not be parsed",
			},
		),
	}
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ModelCallsTotal,
		m.ModelCallDuration,
		m.ParseErrorsTotal,
	)
	return m
}

type operationKey struct{}

// WithOperation tags ctx with the operation name recorded by InstrumentClient.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

func operationFrom(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey{}).(string); ok {
		return op
	}
	return "unknown"
}

type instrumentedClient struct {
	next    llm.LlmClient
	metrics *Metrics
}

// InstrumentClient counts and times every call made through next.
func (m *Metrics) InstrumentClient(next llm.LlmClient) llm.LlmClient {
	return &instrumentedClient{next: next, metrics: m}
}

func (c *instrumentedClient) GetCompletion(ctx context.Context, prompt string) (string, error) {
	op := operationFrom(ctx)
	start := time.Now()
	res, err := c.next.GetCompletion(ctx, prompt)
	c.metrics.ModelCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.ModelCallsTotal.WithLabelValues(op, status).Inc()
	return res, err
}
