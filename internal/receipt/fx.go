package receipt

import (
	"github.com/smallbiznis/formpay/internal/receipt/domain"
	"github.com/smallbiznis/formpay/internal/receipt/repository"
	"github.com/smallbiznis/formpay/internal/receipt/service"
	"go.uber.org/fx"
)

var Module = fx.Module("receipt",
	fx.Provide(
		repository.New,
		fx.Annotate(service.New, fx.As(new(domain.Notifier))),
	),
)
