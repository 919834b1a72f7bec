package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/serenemind/clinic-api/internal/model"
	"github.com/serenemind/clinic-api/internal/repository"
	"github.com/serenemind/clinic-api/pkg/cache"
)

// Financial aggregates are cached briefly; the ledger changes slowly
// and the summary query scans every payment row.
const summaryTTL = 5 * time.Minute

type Service struct {
	payments repository.PaymentRepository
	cache    cache.Cache
}

func NewService(payments repository.PaymentRepository, c cache.Cache) *Service {
	return &Service{payments: payments, cache: c}
}

func (s *Service) FinancialSummary(ctx context.Context, startDate, endDate string) (*model.PaymentSummary, error) {
	key := fmt.Sprintf("report:financial:%s:%s", startDate, endDate)

	if cached, err := s.cache.Get(ctx, key); err == nil {
		var summary model.PaymentSummary
		if err := json.Unmarshal(cached, &summary); err == nil {
			return &summary, nil
		}
		// Unreadable entry; fall through and recompute.
		if err := s.cache.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to evict bad cache entry")
		}
	}

	summary, err := s.payments.Summary(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(summary); err == nil {
		if err := s.cache.Set(ctx, key, encoded, summaryTTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to cache financial summary")
		}
	}
	return summary, nil
}

// Detailed returns the filtered ledger rows alongside their aggregate,
// uncached: detail views must reflect the ledger as-is.
func (s *Service) Detailed(ctx context.Context, filters *model.PaymentFilters) (*model.PaymentReport, error) {
	payments, err := s.payments.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	summary, err := s.payments.Summary(ctx, filters.StartDate, filters.EndDate)
	if err != nil {
		return nil, err
	}

	return &model.PaymentReport{Payments: payments, Summary: summary}, nil
}

// InvalidateFinancialSummary drops the unbounded-range cache entry.
// Ranged entries age out on their own.
func (s *Service) InvalidateFinancialSummary(ctx context.Context) {
	if err := s.cache.Delete(ctx, "report:financial::"); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate financial summary cache")
	}
}
