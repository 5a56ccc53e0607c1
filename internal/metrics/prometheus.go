package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cleverdash"

type Prom struct {
	reg *prometheus.Registry

	MetricValue      *prometheus.GaugeVec
	MetricFailures   *prometheus.CounterVec
	ContractCalls    *prometheus.CounterVec
	SnapshotBlock    prometheus.Gauge
	SnapshotDuration prometheus.Histogram
}

func NewProm() *Prom {
	reg := prometheus.NewRegistry()
	p := &Prom{
		reg: reg,
		MetricValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "metric_value",
			Help:      "Latest decimal value of a dashboard metric",
		}, []string{"key"}),
		MetricFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metric_failures_total",
			Help:      "Dashboard metrics rendered as unavailable, by error kind",
		}, []string{"key", "kind"}),
		ContractCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contract_calls_total",
			Help:      "Read-only contract calls by method and result",
		}, []string{"method", "result"}),
		SnapshotBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_block",
			Help:      "Block number the last snapshot was pinned to",
		}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_duration_seconds",
			Help:      "Time spent computing a full dashboard snapshot",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(p.MetricValue, p.MetricFailures, p.ContractCalls, p.SnapshotBlock, p.SnapshotDuration)
	return p
}

func (p *Prom) Handler() http.Handler { return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{}) }

// Implement Provider
func (p *Prom) SetMetricValue(key string, value float64) {
	p.MetricValue.WithLabelValues(key).Set(value)
}

func (p *Prom) IncMetricFailure(key, kind string) {
	p.MetricFailures.WithLabelValues(key, kind).Inc()
}

func (p *Prom) IncContractCall(method, result string) {
	p.ContractCalls.WithLabelValues(method, result).Inc()
}

func (p *Prom) SetSnapshotBlock(block uint64) {
	p.SnapshotBlock.Set(float64(block))
}

func (p *Prom) ObserveSnapshot(seconds float64) {
	p.SnapshotDuration.Observe(seconds)
}
