package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the pipeline collectors on a private registry so runs can
// be pushed to a Pushgateway without the process-wide defaults.
type Metrics struct {
	Registry *prometheus.Registry

	transmissions   *prometheus.CounterVec
	bits            *prometheus.CounterVec
	bitErrors       *prometheus.CounterVec
	unresolvedBytes *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	repairs         *prometheus.CounterVec
	lastBER         *prometheus.GaugeVec
	recoveryRatio   prometheus.Histogram
}

var labels = []string{"modulation", "channel"}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		transmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phychain_transmissions_total",
			Help: "Framed streams sent through the channel",
		}, labels),
		bits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phychain_bits_total",
			Help: "Data bits sent through the channel",
		}, labels),
		bitErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phychain_bit_errors_total",
			Help: "Data bits received in error",
		}, labels),
		unresolvedBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phychain_unresolved_bytes_total",
			Help: "Payload bytes the FEC could not settle",
		}, labels),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phychain_fallbacks_total",
			Help: "Decodes that returned the placeholder image",
		}, labels),
		repairs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phychain_repairs_total",
			Help: "Decoded images whose dark regions were filled",
		}, labels),
		lastBER: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "phychain_last_ber",
			Help: "Bit error rate of the most recent transmission",
		}, labels),
		recoveryRatio: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "phychain_recovery_ratio",
			Help:    "Estimated share of each image that was recovered",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}
}

func (m *Metrics) observe(modulation, channel string, r Report) {
	lv := []string{modulation, channel}
	bits := float64(r.FramedBytes * 8)
	m.transmissions.WithLabelValues(lv...).Inc()
	m.bits.WithLabelValues(lv...).Add(bits)
	m.bitErrors.WithLabelValues(lv...).Add(r.BER * bits)
	m.unresolvedBytes.WithLabelValues(lv...).Add(float64(r.Result.Diagnostics.UnresolvedBytes))
	if !r.Result.Success {
		m.fallbacks.WithLabelValues(lv...).Inc()
	}
	if r.Result.Repair.Applied {
		m.repairs.WithLabelValues(lv...).Inc()
	}
	m.lastBER.WithLabelValues(lv...).Set(r.BER)
	m.recoveryRatio.Observe(r.RecoveryRatio)
}

// Push sends the registry to a Pushgateway under job, grouped by run.
func (m *Metrics) Push(url, job, runID string) error {
	return push.New(url, job).
		Gatherer(m.Registry).
		Grouping("run", runID).
		Push()
}
