package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// StripeConfig carries the payment provider credentials.
type StripeConfig struct {
	SecretKey         string        `env:"STRIPE_SECRET_KEY"`
	WebhookSecret     string        `env:"STRIPE_WEBHOOK_SECRET"`
	WebhookTolerance  time.Duration `env:"STRIPE_WEBHOOK_TOLERANCE" envDefault:"5m"`
	APIBaseURL        string        `env:"STRIPE_API_BASE_URL"`
	MaxNetworkRetries int64         `env:"STRIPE_MAX_NETWORK_RETRIES" envDefault:"2"`
}

var ErrMissingWebhookSecret = errors.New("stripe webhook secret is required")

// LoadStripe parses provider settings from the environment.
func LoadStripe() (StripeConfig, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[StripeConfig]()
	if err != nil {
		return StripeConfig{}, fmt.Errorf("parse stripe config: %w", err)
	}
	cfg.SecretKey = strings.TrimSpace(cfg.SecretKey)
	cfg.WebhookSecret = strings.TrimSpace(cfg.WebhookSecret)
	if cfg.WebhookSecret == "" {
		return StripeConfig{}, ErrMissingWebhookSecret
	}
	if cfg.WebhookTolerance <= 0 {
		cfg.WebhookTolerance = 5 * time.Minute
	}
	if cfg.MaxNetworkRetries < 0 {
		cfg.MaxNetworkRetries = 0
	}
	return cfg, nil
}
