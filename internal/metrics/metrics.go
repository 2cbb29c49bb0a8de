// Package metrics holds the prometheus collectors of one splitledger
// invocation and pushes them to a Pushgateway when one is configured.
package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Job is the Pushgateway job name.
const Job = "splitledger"

// Metrics groups the collectors registered on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	// RemoteRequests observes ledger HTTP round trips by path and status.
	RemoteRequests *prometheus.HistogramVec

	// Invocations counts operations by command and outcome.
	Invocations *prometheus.CounterVec
}

// New creates the collectors and registers them.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RemoteRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "splitledger",
			Name:      "remote_request_duration_seconds",
			Help:      "Duration of requests to the ledger service.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "status"}),
		Invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitledger",
			Name:      "invocations_total",
			Help:      "Operations run, by command and outcome.",
		}, []string{"command", "outcome"}),
	}
	m.Registry.MustRegister(m.RemoteRequests, m.Invocations)
	return m
}

// ObserveRemote records one ledger round trip. status is 0 when no
// response was received.
func (m *Metrics) ObserveRemote(path string, status int, elapsed time.Duration) {
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	m.RemoteRequests.WithLabelValues(path, label).Observe(elapsed.Seconds())
}

// CountInvocation records the outcome of one operation.
func (m *Metrics) CountInvocation(command string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Invocations.WithLabelValues(command, outcome).Inc()
}

// Push sends the registry to the Pushgateway at url.
func (m *Metrics) Push(ctx context.Context, url string) error {
	if err := push.New(url, Job).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
