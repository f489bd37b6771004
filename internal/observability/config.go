package observability

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/smallbiznis/formpay/internal/config"
)

// Config holds the logging, tracing and metrics settings for the payment
// pipeline. Values come from the environment, falling back to the app config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64

	// MetricsNamespace prefixes every Prometheus series the service exports.
	MetricsNamespace string
	// WebhookTimeout bounds the webhook latency histogram. Deliveries slower
	// than this were cut off by the handler anyway.
	WebhookTimeout time.Duration
}

type envSettings struct {
	Environment    string  `env:"DEPLOYMENT_ENV"`
	Version        string  `env:"SERVICE_VERSION"`
	LogLevel       string  `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string  `env:"LOG_FORMAT" envDefault:"json"`
	OtelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OtlpEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtlpProtocol   string  `env:"OTEL_EXPORTER_OTLP_PROTOCOL" envDefault:"grpc"`
	TracesProtocol string  `env:"OTEL_EXPORTER_OTLP_TRACES_PROTOCOL"`
	SamplingRatio  float64 `env:"OTEL_SAMPLING_RATIO" envDefault:"0.1"`
	Namespace      string  `env:"METRICS_NAMESPACE" envDefault:"formpay"`
}

const defaultNamespace = "formpay"

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// LoadConfig reads observability settings. An invalid metrics namespace is
// rejected since Prometheus would panic on registration.
func LoadConfig(cfg config.Config) (Config, error) {
	settings, err := env.ParseAs[envSettings]()
	if err != nil {
		return Config{}, fmt.Errorf("parse observability config: %w", err)
	}

	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = defaultNamespace
	}

	protocol := settings.OtlpProtocol
	if strings.TrimSpace(settings.TracesProtocol) != "" {
		protocol = settings.TracesProtocol
	}

	namespace := strings.TrimSpace(settings.Namespace)
	if namespace == "" {
		namespace = defaultNamespace
	}
	if !namespacePattern.MatchString(namespace) {
		return Config{}, fmt.Errorf("invalid METRICS_NAMESPACE %q", namespace)
	}

	ratio := settings.SamplingRatio
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	webhookTimeout := cfg.Payment.WebhookTimeout
	if webhookTimeout <= 0 {
		webhookTimeout = 10 * time.Second
	}

	return Config{
		ServiceName:          serviceName,
		Environment:          firstNonEmpty(settings.Environment, cfg.Environment),
		Version:              firstNonEmpty(settings.Version, cfg.AppVersion),
		LogLevel:             normalize(settings.LogLevel),
		LogFormat:            normalize(settings.LogFormat),
		OtelEnabled:          settings.OtelEnabled,
		OtelExporterEndpoint: firstNonEmpty(settings.OtlpEndpoint, cfg.OTLPEndpoint),
		OtelExporterProtocol: normalize(protocol),
		OtelSamplingRatio:    ratio,
		MetricsNamespace:     namespace,
		WebhookTimeout:       webhookTimeout,
	}, nil
}

// Debug reports whether verbose logging should be on.
func (c Config) Debug() bool {
	if normalize(c.LogLevel) == "debug" {
		return true
	}
	switch normalize(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
