package analytics

import (
	"context"

	"github.com/smallbiznis/formpay/internal/analytics/domain"
	"github.com/smallbiznis/formpay/internal/analytics/repository"
	"github.com/smallbiznis/formpay/internal/analytics/service"
	"github.com/smallbiznis/formpay/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("analytics",
	fx.Provide(
		provideRepository,
		fx.Annotate(service.NewRecorder, fx.As(new(domain.Recorder))),
		fx.Annotate(service.NewQueryService, fx.As(new(domain.QueryService))),
	),
)

type repositoryParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	DB        *gorm.DB
	Log       *zap.Logger
}

func provideRepository(p repositoryParams) (domain.Repository, error) {
	if p.Config.Storage.Backend != config.StorageBackendBolt {
		return repository.NewGorm(p.DB), nil
	}

	store, err := repository.OpenBolt(p.Config.Storage.BoltPath)
	if err != nil {
		return nil, err
	}
	p.Log.Info("analytics storage: bolt", zap.String("path", p.Config.Storage.BoltPath))
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return repository.NewBolt(store), nil
}

