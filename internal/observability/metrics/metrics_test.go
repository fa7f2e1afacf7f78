package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestClassificationCounterCarriesConstLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapRegistry(registry)
	defer restore()

	ResetForTest()
	m := WithConfig(Config{ServiceName: "viptagger", Environment: "test"})

	m.IncClassification("newly_tagged")
	m.IncClassification("newly_tagged")
	m.IncClassification("failed")
	m.IncWebhookEvent(WebhookResultInvalidSignature)
	m.AddCustomersScanned(3)

	require.Equal(t, float64(2), counterValue(t, registry, "viptagger_classifications_total", map[string]string{
		"service": "viptagger",
		"env":     "test",
		"outcome": "newly_tagged",
	}))
	require.Equal(t, float64(1), counterValue(t, registry, "viptagger_webhook_events_total", map[string]string{
		"service": "viptagger",
		"env":     "test",
		"result":  WebhookResultInvalidSignature,
	}))
	require.Equal(t, float64(3), counterValue(t, registry, "viptagger_customers_scanned_total", map[string]string{
		"service": "viptagger",
		"env":     "test",
	}))
}

func swapRegistry(registry *prometheus.Registry) func() {
	oldRegisterer := prometheus.DefaultRegisterer
	oldGatherer := prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
	return func() {
		prometheus.DefaultRegisterer = oldRegisterer
		prometheus.DefaultGatherer = oldGatherer
		ResetForTest()
	}
}

func counterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := registry.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if matchLabels(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func matchLabels(metric *dto.Metric, labels map[string]string) bool {
	got := map[string]string{}
	for _, pair := range metric.GetLabel() {
		got[pair.GetName()] = pair.GetValue()
	}
	for k, v := range labels {
		if got[k] != v {
			return false
		}
	}
	return true
}
