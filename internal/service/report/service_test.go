package report

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serenemind/clinic-api/internal/model"
	"github.com/serenemind/clinic-api/pkg/cache"
)

type countingPaymentRepo struct {
	summaryCalls int
}

func (c *countingPaymentRepo) Create(_ context.Context, _ *model.Payment) error  { return nil }
func (c *countingPaymentRepo) Update(_ context.Context, _ *model.Payment) error  { return nil }
func (c *countingPaymentRepo) SoftDelete(_ context.Context, _ uuid.UUID) error   { return nil }
func (c *countingPaymentRepo) Get(_ context.Context, _ uuid.UUID) (*model.Payment, error) {
	return nil, nil
}
func (c *countingPaymentRepo) List(_ context.Context, _ *model.PaymentFilters) ([]*model.Payment, error) {
	return nil, nil
}
func (c *countingPaymentRepo) Categories(_ context.Context) (*model.PaymentCategories, error) {
	return nil, nil
}

func (c *countingPaymentRepo) Summary(_ context.Context, startDate, endDate string) (*model.PaymentSummary, error) {
	c.summaryCalls++
	return &model.PaymentSummary{
		TotalIncome:   1200,
		TotalExpenses: 300,
		NetIncome:     900,
		StartDate:     startDate,
		EndDate:       endDate,
	}, nil
}

func TestFinancialSummary_Cached(t *testing.T) {
	repo := &countingPaymentRepo{}
	svc := NewService(repo, cache.NewMemoryCache())

	first, err := svc.FinancialSummary(context.Background(), "2025-01-01", "2025-01-31")
	require.NoError(t, err)
	assert.Equal(t, 900.0, first.NetIncome)

	second, err := svc.FinancialSummary(context.Background(), "2025-01-01", "2025-01-31")
	require.NoError(t, err)
	assert.Equal(t, first.TotalIncome, second.TotalIncome)

	assert.Equal(t, 1, repo.summaryCalls, "second call should hit the cache")
}

func TestFinancialSummary_DistinctRangesDistinctEntries(t *testing.T) {
	repo := &countingPaymentRepo{}
	svc := NewService(repo, cache.NewMemoryCache())

	_, err := svc.FinancialSummary(context.Background(), "2025-01-01", "2025-01-31")
	require.NoError(t, err)
	_, err = svc.FinancialSummary(context.Background(), "2025-02-01", "2025-02-28")
	require.NoError(t, err)

	assert.Equal(t, 2, repo.summaryCalls)
}
