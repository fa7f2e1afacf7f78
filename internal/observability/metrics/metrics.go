package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the const labels stamped onto every instrument.
type Config struct {
	ServiceName string
	Environment string
}

const (
	WebhookResultAccepted         = "accepted"
	WebhookResultInvalidSignature = "invalid_signature"
	WebhookResultIgnored          = "ignored"
	WebhookResultDropped          = "dropped"
)

// Metrics captures classification-pipeline health signals.
type Metrics struct {
	sweepRuns        prometheus.Counter
	sweepDuration    prometheus.Observer
	sweepLoopLag     prometheus.Observer
	customersScanned prometheus.Counter
	classifications  *prometheus.CounterVec
	webhookEvents    *prometheus.CounterVec
	platformRequests *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// Default returns the singleton metrics registry.
func Default() *Metrics {
	return WithConfig(Config{})
}

// WithConfig returns the singleton metrics registry using config labels.
func WithConfig(cfg Config) *Metrics {
	metricsOnce.Do(func() {
		metrics = newMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return metrics
}

// ResetForTest resets the metrics singleton for tests.
func ResetForTest() {
	metricsOnce = sync.Once{}
	metrics = nil
}

func newMetrics(registerer prometheus.Registerer, cfg Config) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "viptagger"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	sweepRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "viptagger_sweep_runs_total",
		Help:        "Full-catalog classification sweeps started.",
		ConstLabels: constLabels,
	})
	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "viptagger_sweep_duration_seconds",
		Help:        "Wall time of a full classification sweep.",
		Buckets:     []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		ConstLabels: constLabels,
	})
	sweepLoopLag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "viptagger_sweep_loop_lag_seconds",
		Help:        "How far behind schedule a sweep started.",
		Buckets:     []float64{0.1, 1, 10, 60, 300, 1800},
		ConstLabels: constLabels,
	})
	customersScanned := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "viptagger_customers_scanned_total",
		Help:        "Customers examined across all sweeps.",
		ConstLabels: constLabels,
	})
	classifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "viptagger_classifications_total",
		Help:        "Classification results by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "viptagger_webhook_events_total",
		Help:        "Order webhook deliveries by handling result.",
		ConstLabels: constLabels,
	}, []string{"result"})
	platformRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "viptagger_platform_requests_total",
		Help:        "Outbound commerce API requests by operation and result.",
		ConstLabels: constLabels,
	}, []string{"operation", "result"})

	for _, collector := range []prometheus.Collector{
		sweepRuns,
		sweepDuration,
		sweepLoopLag,
		customersScanned,
		classifications,
		webhookEvents,
		platformRequests,
	} {
		registerer.MustRegister(collector)
	}

	return &Metrics{
		sweepRuns:        sweepRuns,
		sweepDuration:    sweepDuration,
		sweepLoopLag:     sweepLoopLag,
		customersScanned: customersScanned,
		classifications:  classifications,
		webhookEvents:    webhookEvents,
		platformRequests: platformRequests,
	}
}

func (m *Metrics) IncSweepRun() {
	if m == nil {
		return
	}
	m.sweepRuns.Inc()
}

func (m *Metrics) ObserveSweepDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveSweepLoopLag(d time.Duration) {
	if m == nil || d <= 0 {
		return
	}
	m.sweepLoopLag.Observe(d.Seconds())
}

func (m *Metrics) AddCustomersScanned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.customersScanned.Add(float64(n))
}

func (m *Metrics) IncClassification(outcome string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(strings.TrimSpace(outcome)).Inc()
}

func (m *Metrics) IncWebhookEvent(result string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(strings.TrimSpace(result)).Inc()
}

func (m *Metrics) IncPlatformRequest(operation, result string) {
	if m == nil {
		return
	}
	m.platformRequests.WithLabelValues(strings.TrimSpace(operation), strings.TrimSpace(result)).Inc()
}
