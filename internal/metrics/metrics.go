// Package metrics counts collaborator traffic: HTTP requests, retries and
// chain reads.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "premint"

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

type Metrics struct {
	requestsTotal          *prometheus.CounterVec
	requestDurationSeconds *prometheus.HistogramVec
	retriesTotal           *prometheus.CounterVec
	chainReadsTotal        *prometheus.CounterVec
	mintFeeFallbacksTotal  prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "HTTP requests sent to collaborators",
		}, []string{"client", "op", "outcome"}),
		requestDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http_client",
			Name:      "request_duration_seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			Help:      "Histogram of collaborator request durations",
		}, []string{"client", "op"}),
		retriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http_client",
			Name:      "retries_total",
			Help:      "Requests repeated after a retryable failure",
		}, []string{"client", "op"}),
		chainReadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "chain",
			Name:      "reads_total",
			Help:      "Read-only contract calls",
		}, []string{"method", "outcome"}),
		mintFeeFallbacksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "chain",
			Name:      "mint_fee_fallbacks_total",
			Help:      "Mint fee reads that fell back to the default fee",
		}),
	}
}

// NewNoop returns metrics bound to a private registry nobody scrapes.
func NewNoop() *Metrics {
	return New(prometheus.NewRegistry())
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

func (m *Metrics) RecordRequest(client, op string, took time.Duration, err error) {
	m.requestsTotal.WithLabelValues(client, op, outcome(err)).Inc()
	m.requestDurationSeconds.WithLabelValues(client, op).Observe(took.Seconds())
}

func (m *Metrics) RecordRetry(client, op string) {
	m.retriesTotal.WithLabelValues(client, op).Inc()
}

func (m *Metrics) RecordChainRead(method string, err error) {
	m.chainReadsTotal.WithLabelValues(method, outcome(err)).Inc()
}

func (m *Metrics) RecordMintFeeFallback() {
	m.mintFeeFallbacksTotal.Inc()
}

// Summarize flattens the counters of g into "name{labels}" -> value, sorted by
// key. Histograms report their sample count.
func Summarize(g prometheus.Gatherer) ([]string, map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	values := make(map[string]float64)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, pair := range metric.GetLabel() {
				labels = append(labels, pair.GetName()+"="+pair.GetValue())
			}
			key := family.GetName()
			if len(labels) > 0 {
				key += "{" + strings.Join(labels, ",") + "}"
			}

			switch {
			case metric.GetCounter() != nil:
				values[key] = metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				values[key] = float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, values, nil
}
