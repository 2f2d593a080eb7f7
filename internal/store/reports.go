package store

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"onepocket/internal/api"
	"onepocket/internal/cache"
	"onepocket/internal/core"
)

const (
	reportCacheSize = 64
	reportCacheTTL  = 5 * time.Minute
)

// ReportService fetches server-computed monthly reports through a small
// TTL cache. Concurrent identical fetches are collapsed; any expense or
// budget mutation invalidates everything cached.
type ReportService struct {
	api api.ReportAPI

	summaries   *cache.LRUCache[core.MonthlySummary]
	comparisons *cache.LRUCache[[]core.MonthlySummary]
	months      *cache.LRUCache[[]string]
	group       singleflight.Group
}

func NewReportService(reportAPI api.ReportAPI) *ReportService {
	return &ReportService{
		api:         reportAPI,
		summaries:   cache.NewLRUCache[core.MonthlySummary](reportCacheSize, reportCacheTTL),
		comparisons: cache.NewLRUCache[[]core.MonthlySummary](reportCacheSize, reportCacheTTL),
		months:      cache.NewLRUCache[[]string](1, reportCacheTTL),
	}
}

// MonthlySummary returns the report for one YYYY-MM month.
func (s *ReportService) MonthlySummary(ctx context.Context, month string) (core.MonthlySummary, error) {
	if cached, ok := s.summaries.Get(month); ok {
		return cached, nil
	}

	v, err, _ := s.group.Do("summary:"+month, func() (any, error) {
		summary, err := s.api.MonthlySummary(ctx, month)
		if err != nil {
			return core.MonthlySummary{}, err
		}
		s.summaries.Set(month, summary)
		return summary, nil
	})
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly summary %s: %w", month, err)
	}
	return v.(core.MonthlySummary), nil
}

// MonthlyComparison returns summaries for the n trailing months, most recent
// first.
func (s *ReportService) MonthlyComparison(ctx context.Context, months int) ([]core.MonthlySummary, error) {
	key := fmt.Sprintf("comparison:%d", months)
	if cached, ok := s.comparisons.Get(key); ok {
		return cached, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		comparison, err := s.api.MonthlyComparison(ctx, months)
		if err != nil {
			return nil, err
		}
		s.comparisons.Set(key, comparison)
		return comparison, nil
	})
	if err != nil {
		return nil, fmt.Errorf("monthly comparison over %d months: %w", months, err)
	}
	return v.([]core.MonthlySummary), nil
}

// AvailableMonths lists the months with historical data, most recent first.
func (s *ReportService) AvailableMonths(ctx context.Context) ([]string, error) {
	const key = "months"
	if cached, ok := s.months.Get(key); ok {
		return cached, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		months, err := s.api.AvailableMonths(ctx)
		if err != nil {
			return nil, err
		}
		s.months.Set(key, months)
		return months, nil
	})
	if err != nil {
		return nil, fmt.Errorf("available months: %w", err)
	}
	return v.([]string), nil
}

// Invalidate drops every cached report. Wired as the onChange hook of the
// expense and budget stores.
func (s *ReportService) Invalidate() {
	s.summaries.Clear()
	s.comparisons.Clear()
	s.months.Clear()
}

// Caches exposes the internal caches for cleanup registration.
func (s *ReportService) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.summaries, s.comparisons, s.months}
}
