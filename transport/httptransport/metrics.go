package httptransport

import (
	"errors"
	"time"

	"github.com/dogmatiq/rpcpost"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a Prometheus collector that records the number and duration of
// exchanges performed by one or more transports.
//
// It must be registered with a Prometheus registry to be exported.
type Metrics struct {
	exchanges *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

var _ prometheus.Collector = (*Metrics)(nil)

// Label values for the "outcome" label.
const (
	outcomeSuccess         = "success"
	outcomeSerialization   = "serialization_error"
	outcomeTransport       = "transport_error"
	outcomeTimeout         = "timeout"
	outcomeDeserialization = "deserialization_error"
)

// NewMetrics returns a new collector. If namespace is empty, "rpcpost" is used.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "rpcpost"
	}

	return &Metrics{
		exchanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "exchanges_total",
				Help:      "The number of JSON-RPC exchanges performed over HTTP.",
			},
			[]string{"shape", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "exchange_duration_seconds",
				Help:      "The time taken to perform JSON-RPC exchanges over HTTP.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"shape"},
		),
	}
}

// Describe sends the descriptors of each metric to ch.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.exchanges.Describe(ch)
	m.duration.Describe(ch)
}

// Collect sends each metric to ch.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.exchanges.Collect(ch)
	m.duration.Collect(ch)
}

// observe records a completed exchange. It does nothing if m is nil.
func (m *Metrics) observe(x exchange, err error, d time.Duration) {
	if m == nil {
		return
	}

	m.exchanges.WithLabelValues(x.Shape, outcomeOf(err)).Inc()
	m.duration.WithLabelValues(x.Shape).Observe(d.Seconds())
}

// outcomeOf returns the "outcome" label value for an exchange that produced
// err.
func outcomeOf(err error) string {
	if err == nil {
		return outcomeSuccess
	}

	var terr *rpcpost.TransportError
	if !errors.As(err, &terr) {
		return outcomeTransport
	}

	switch terr.Kind {
	case rpcpost.KindSerialization:
		return outcomeSerialization
	case rpcpost.KindDeserialization:
		return outcomeDeserialization
	}

	if terr.IsTimeout {
		return outcomeTimeout
	}

	return outcomeTransport
}
