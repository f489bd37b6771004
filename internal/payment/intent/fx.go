package intent

import "go.uber.org/fx"

var Module = fx.Module("payment.intent",
	fx.Provide(NewService),
)
