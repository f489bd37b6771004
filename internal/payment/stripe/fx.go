package stripe

import (
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.stripe",
	fx.Provide(
		NewClient,
		fx.Annotate(NewVerifier, fx.As(new(paymentdomain.SignatureVerifier))),
		fx.Annotate(NewParser, fx.As(new(paymentdomain.EventParser))),
		func(c *Client) paymentdomain.IntentProvider { return c },
	),
)
