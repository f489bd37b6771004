package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/formpay/internal/analytics"
	analyticsdomain "github.com/smallbiznis/formpay/internal/analytics/domain"
	"github.com/smallbiznis/formpay/internal/clock"
	"github.com/smallbiznis/formpay/internal/config"
	"github.com/smallbiznis/formpay/internal/form"
	"github.com/smallbiznis/formpay/internal/migration"
	"github.com/smallbiznis/formpay/internal/observability"
	obsmiddleware "github.com/smallbiznis/formpay/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/formpay/internal/observability/metrics"
	obstracing "github.com/smallbiznis/formpay/internal/observability/tracing"
	"github.com/smallbiznis/formpay/internal/payment/intent"
	"github.com/smallbiznis/formpay/internal/payment/stripe"
	"github.com/smallbiznis/formpay/internal/payment/webhook"
	"github.com/smallbiznis/formpay/internal/providers"
	"github.com/smallbiznis/formpay/internal/ratelimit"
	"github.com/smallbiznis/formpay/internal/receipt"
	"github.com/smallbiznis/formpay/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	config.Module,
	clock.Module,
	db.Module,
	migration.Module,
	fx.Provide(registerGin),
	providers.Module,
	form.Module,
	analytics.Module,
	receipt.Module,
	stripe.Module,
	intent.Module,
	webhook.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

// WebhookProcessor runs a raw provider delivery through the payment pipeline.
type WebhookProcessor interface {
	Process(ctx context.Context, payload []byte, signatureHeader string) (webhook.Result, error)
}

// IntentCreator mints payment intents for checkout.
type IntentCreator interface {
	CreateIntent(ctx context.Context, req intent.Request) (intent.Response, error)
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	webhooks      WebhookProcessor
	intents       IntentCreator
	analytics     analyticsdomain.QueryService
	intentLimiter *ratelimit.IntentLimiter
	obsMetrics    *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Webhooks      *webhook.Service
	Intents       *intent.Service
	Analytics     analyticsdomain.QueryService
	IntentLimiter *ratelimit.IntentLimiter `optional:"true"`
	ObsMetrics    *obsmetrics.Metrics      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		webhooks:      p.Webhooks,
		intents:       p.Intents,
		analytics:     p.Analytics,
		intentLimiter: p.IntentLimiter,
		obsMetrics:    p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Payment Webhooks --------
	api.POST("/webhook", s.HandlePaymentWebhook)

	// -------- Checkout --------
	api.POST("/create-payment-intent", s.IntentRateLimit(), s.CreatePaymentIntent)

	// -------- Analytics --------
	api.POST("/analytics/:formId", s.GetFormAnalytics)
	api.GET("/analytics/:formId", s.GetFormAnalytics)
}
