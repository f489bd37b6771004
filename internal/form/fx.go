package form

import (
	"github.com/smallbiznis/formpay/internal/form/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("form",
	fx.Provide(repository.New),
)
