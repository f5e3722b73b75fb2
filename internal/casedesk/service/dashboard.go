package service

import (
	"context"
	"math"

	"github.com/aussiebroadwan/casedesk/internal/casedesk/domain"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/policy"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/store"
	"github.com/aussiebroadwan/casedesk/pkg/jwtx"
	"github.com/aussiebroadwan/casedesk/pkg/metricsx"
)

type DashboardService struct {
	Store   store.Store
	Metrics *metricsx.Metrics
}

// Summary reports case counts and the mean time from creation to close, in
// hours rounded to two decimals. AgentsOnline is not tracked and is always 0.
func (s *DashboardService) Summary(ctx context.Context, p jwtx.Principal) (domain.DashboardSummary, error) {
	if _, err := authorize(ctx, s.Metrics, p, policy.ViewDashboard); err != nil {
		return domain.DashboardSummary{}, err
	}

	open, err := s.Store.Cases().CountByStatus(ctx, domain.StatusOpen)
	if err != nil {
		return domain.DashboardSummary{}, err
	}

	closed, err := s.Store.Cases().ListClosedCases(ctx)
	if err != nil {
		return domain.DashboardSummary{}, err
	}

	return domain.DashboardSummary{
		OpenCases:              open,
		ClosedCases:            len(closed),
		AvgResolutionTimeHours: averageResolutionHours(closed),
	}, nil
}

func averageResolutionHours(closed []domain.Case) float64 {
	var (
		total float64
		n     int
	)
	for _, c := range closed {
		if c.ClosedAt == nil {
			continue
		}
		total += c.ClosedAt.Sub(c.CreatedAt).Seconds()
		n++
	}
	if n == 0 {
		return 0
	}

	hours := total / float64(n) / 3600
	return math.Round(hours*100) / 100
}
