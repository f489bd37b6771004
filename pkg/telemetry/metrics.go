package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus counters for the webhook pipeline.
type Metrics struct {
	webhookDeliveries *prometheus.CounterVec
	webhookDuration   *prometheus.HistogramVec
	signatureFailures *prometheus.CounterVec
	receiptDeliveries *prometheus.CounterVec
}

// NewMetricsWithRegisterer registers pipeline metrics on registerer; a nil
// registerer leaves them unregistered.
func NewMetricsWithRegisterer(registerer prometheus.Registerer) *Metrics {
	return NewMetricsWithOptions(registerer, Options{})
}

// Options shapes the exported series.
type Options struct {
	// Namespace prefixes every series. Empty means formpay.
	Namespace string
	// MaxLatency is the top latency bucket. Below 10ms the Prometheus
	// defaults are kept.
	MaxLatency time.Duration
}

// NewMetricsWithOptions registers pipeline metrics under opts.Namespace.
func NewMetricsWithOptions(registerer prometheus.Registerer, opts Options) *Metrics {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "formpay"
	}
	buckets := prometheus.DefBuckets
	if opts.MaxLatency > 10*time.Millisecond {
		buckets = prometheus.ExponentialBucketsRange(0.005, opts.MaxLatency.Seconds(), 12)
	}

	webhookDeliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_delivery_total",
		Help:      "Webhook delivery outcomes.",
	}, []string{"outcome", "event_type"})

	webhookDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "webhook_delivery_duration_seconds",
		Help:      "Webhook processing latency.",
		Buckets:   buckets,
	}, []string{"outcome"})

	signatureFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_signature_failures_total",
		Help:      "Rejected webhook deliveries by verification failure reason.",
	}, []string{"reason"})

	receiptDeliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "receipt_delivery_total",
		Help:      "Receipt notification outcomes.",
	}, []string{"status"})

	if registerer != nil {
		registerer.MustRegister(
			webhookDeliveries,
			webhookDuration,
			signatureFailures,
			receiptDeliveries,
		)
	}

	return &Metrics{
		webhookDeliveries: webhookDeliveries,
		webhookDuration:   webhookDuration,
		signatureFailures: signatureFailures,
		receiptDeliveries: receiptDeliveries,
	}
}

// RecordWebhookDelivery records a processed delivery and its latency.
func (m *Metrics) RecordWebhookDelivery(outcome, eventType string, duration time.Duration) {
	if m == nil {
		return
	}
	outcomeLabel := sanitizeLabel(outcome)
	m.webhookDeliveries.WithLabelValues(outcomeLabel, sanitizeLabel(eventType)).Inc()
	m.webhookDuration.WithLabelValues(outcomeLabel).Observe(duration.Seconds())
}

// RecordSignatureFailure counts a rejected delivery. A sustained rate of
// invalid_signature usually means the signing secret is misconfigured.
func (m *Metrics) RecordSignatureFailure(reason string) {
	if m == nil {
		return
	}
	m.signatureFailures.WithLabelValues(sanitizeLabel(reason)).Inc()
}

// RecordReceiptDelivery counts receipt outcomes (sent, skipped, failed).
func (m *Metrics) RecordReceiptDelivery(status string) {
	if m == nil {
		return
	}
	m.receiptDeliveries.WithLabelValues(sanitizeLabel(status)).Inc()
}

func sanitizeLabel(val string) string {
	if val == "" {
		return "unknown"
	}
	return val
}
