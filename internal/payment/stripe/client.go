package stripe

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/formpay/internal/config"
	stripego "github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
)

const providerTimeout = 12 * time.Second

// Client is the process-wide handle to the payment provider. It is built once
// at startup and passed to every component that talks to the provider.
type Client struct {
	api           *stripego.Client
	webhookSecret string
	tolerance     time.Duration
}

// NewClient builds a provider client from explicit configuration. The stripe
// package-level key is never set.
func NewClient(cfg config.StripeConfig, log *zap.Logger) (*Client, error) {
	secret := strings.TrimSpace(cfg.WebhookSecret)
	if secret == "" {
		return nil, config.ErrMissingWebhookSecret
	}
	tolerance := cfg.WebhookTolerance
	if tolerance <= 0 {
		return nil, errors.New("stripe webhook tolerance must be positive")
	}

	backendCfg := &stripego.BackendConfig{
		HTTPClient:        &http.Client{Timeout: providerTimeout},
		MaxNetworkRetries: stripego.Int64(cfg.MaxNetworkRetries),
	}
	if base := strings.TrimSpace(cfg.APIBaseURL); base != "" {
		backendCfg.URL = stripego.String(strings.TrimRight(base, "/"))
	}
	if log != nil {
		backendCfg.LeveledLogger = log.Named("stripe").Sugar()
	}

	api := stripego.NewClient(strings.TrimSpace(cfg.SecretKey),
		stripego.WithBackends(stripego.NewBackendsWithConfig(backendCfg)),
	)

	return &Client{
		api:           api,
		webhookSecret: secret,
		tolerance:     tolerance,
	}, nil
}

func (c *Client) WebhookSecret() string {
	return c.webhookSecret
}

func (c *Client) Tolerance() time.Duration {
	return c.tolerance
}
