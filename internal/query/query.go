package query

import (
	"context"

	"go.uber.org/zap"

	"github.com/hamed0406/apimonitor/internal/domain"
	"github.com/hamed0406/apimonitor/internal/repo"
)

// MaxLimit is both the default and the largest page Recent returns.
const MaxLimit = 100

// Service is the read side handed to external callers.
type Service struct {
	Logger *zap.Logger
	Store  repo.Reader
}

func New(logger *zap.Logger, store repo.Reader) *Service {
	return &Service{Logger: logger, Store: store}
}

// Recent returns up to limit observations, newest first. A non-positive
// limit means MaxLimit and larger values are capped to it. A failing read
// is logged and answered with an empty list.
func (s *Service) Recent(ctx context.Context, limit int) []domain.Observation {
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}
	obs, err := s.Store.Recent(ctx, limit)
	if err != nil {
		s.Logger.Warn("query_recent_failed", zap.Int("limit", limit), zap.Error(err))
		return []domain.Observation{}
	}
	return obs
}
