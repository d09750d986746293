package service

import (
	"context"
	"time"

	"ops-insights-go/internal/aggregator"
	"ops-insights-go/internal/snapshot"
	"ops-insights-go/internal/types"
)

const (
	delaysDomain = "delays"
	pnlDomain    = "pnl"
	npsDomain    = "nps"
)

// MetricsService covers the simpler dashboard domains: agent delays,
// profit-and-loss and NPS.
type MetricsService struct {
	repo *snapshot.Repo
}

func NewMetricsService(repo *snapshot.Repo) *MetricsService {
	return &MetricsService{repo: repo}
}

func (s *MetricsService) IngestDelays(ctx context.Context, date string, records []types.DelayRecord) (*types.DelaySnapshot, error) {
	overall, agents := aggregator.DelayStats(records)
	snap := &types.DelaySnapshot{
		Date:        date,
		Overall:     overall,
		Agents:      agents,
		LastUpdated: time.Now().UTC(),
	}
	if err := s.repo.SaveDaily(ctx, delaysDomain, date, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// IngestPnL folds a new file's rows into the date's existing snapshot.
// Volume, revenue and cost sum; the first non-zero service fee sticks.
func (s *MetricsService) IngestPnL(ctx context.Context, date string, rows []aggregator.PnLRow) (*types.PnLSnapshot, error) {
	services := aggregator.BuildPnL(rows)

	var existing types.PnLSnapshot
	if s.repo.LoadDate(ctx, pnlDomain, date, &existing) {
		services = aggregator.MergePnL(existing.Services, services)
	}
	revenue, cost, gross := aggregator.Totals(services)
	snap := &types.PnLSnapshot{
		Date:         date,
		Services:     services,
		TotalRevenue: revenue,
		TotalCost:    cost,
		GrossProfit:  gross,
		LastUpdated:  time.Now().UTC(),
	}
	if err := s.repo.SaveDaily(ctx, pnlDomain, date, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *MetricsService) IngestNPS(ctx context.Context, date string, scores []int) (*types.NPSSnapshot, error) {
	promoters, passives, detractors, score := aggregator.NPS(scores)
	snap := &types.NPSSnapshot{
		Date:        date,
		Responses:   promoters + passives + detractors,
		Promoters:   promoters,
		Passives:    passives,
		Detractors:  detractors,
		Score:       score,
		LastUpdated: time.Now().UTC(),
	}
	if err := s.repo.SaveDaily(ctx, npsDomain, date, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *MetricsService) LatestDelays(ctx context.Context) *types.DelaySnapshot {
	var snap types.DelaySnapshot
	if !s.repo.LoadLatest(ctx, delaysDomain, &snap) {
		return nil
	}
	return &snap
}

func (s *MetricsService) DelaysForDate(ctx context.Context, date string) *types.DelaySnapshot {
	var snap types.DelaySnapshot
	if !s.repo.LoadDate(ctx, delaysDomain, date, &snap) {
		return nil
	}
	return &snap
}

func (s *MetricsService) LatestPnL(ctx context.Context) *types.PnLSnapshot {
	var snap types.PnLSnapshot
	if !s.repo.LoadLatest(ctx, pnlDomain, &snap) {
		return nil
	}
	return &snap
}

func (s *MetricsService) PnLForDate(ctx context.Context, date string) *types.PnLSnapshot {
	var snap types.PnLSnapshot
	if !s.repo.LoadDate(ctx, pnlDomain, date, &snap) {
		return nil
	}
	return &snap
}

func (s *MetricsService) LatestNPS(ctx context.Context) *types.NPSSnapshot {
	var snap types.NPSSnapshot
	if !s.repo.LoadLatest(ctx, npsDomain, &snap) {
		return nil
	}
	return &snap
}

func (s *MetricsService) NPSForDate(ctx context.Context, date string) *types.NPSSnapshot {
	var snap types.NPSSnapshot
	if !s.repo.LoadDate(ctx, npsDomain, date, &snap) {
		return nil
	}
	return &snap
}
