package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/formpay/internal/analytics/domain"
	"github.com/smallbiznis/formpay/internal/analytics/rollup"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type QueryParams struct {
	fx.In

	Repo domain.Repository
	Log  *zap.Logger
}

type QueryService struct {
	repo domain.Repository
	log  *zap.Logger
}

func NewQueryService(p QueryParams) *QueryService {
	return &QueryService{
		repo: p.Repo,
		log:  p.Log.Named("analytics.query"),
	}
}

func (s *QueryService) Query(ctx context.Context, formID string, dateRange domain.DateRange) (domain.QueryResult, error) {
	formID = strings.TrimSpace(formID)
	if formID == "" {
		return domain.QueryResult{}, domain.ErrInvalidFormID
	}
	if dateRange.Start != nil && dateRange.End != nil && dateRange.End.Before(*dateRange.Start) {
		return domain.QueryResult{}, domain.ErrInvalidDateRange
	}

	records, err := s.repo.ListSucceeded(ctx, formID, dateRange)
	if err != nil {
		return domain.QueryResult{}, err
	}

	result := rollup.Compute(records)
	s.log.Debug("analytics query",
		zap.String("form_id", formID),
		zap.Int("records", len(records)),
		zap.Int("buckets", len(result.DailyData)),
	)
	return result, nil
}

var _ domain.QueryService = (*QueryService)(nil)
