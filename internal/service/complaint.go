// Package service orchestrates the pipelines: lock, resolve, dedup,
// aggregate, persist. All I/O brackets the pure computation; nothing in
// resolver/dedup/aggregator touches storage.
package service

import (
	"context"
	"errors"
	"time"

	"ops-insights-go/internal/aggregator"
	"ops-insights-go/internal/dedup"
	"ops-insights-go/internal/ingest"
	"ops-insights-go/internal/lock"
	"ops-insights-go/internal/logger"
	"ops-insights-go/internal/resolver"
	"ops-insights-go/internal/snapshot"
	"ops-insights-go/internal/types"
)

// ErrLocked reports that another operation holds the resource.
var ErrLocked = errors.New("resource is being processed by another operation")

// ErrLockStorage reports that the lock backend itself was unreachable.
var ErrLockStorage = errors.New("lock storage unavailable")

const complaintsDomain = "complaints"

type ComplaintService struct {
	repo    *snapshot.Repo
	locker  lock.Locker
	lockTTL time.Duration
}

func NewComplaintService(repo *snapshot.Repo, locker lock.Locker, lockTTL time.Duration) *ComplaintService {
	return &ComplaintService{repo: repo, locker: locker, lockTTL: lockTTL}
}

// IngestDaily stores the day's raw complaints and writes the snapshot
// recomputed over them. Re-ingesting a date replaces its snapshot.
func (s *ComplaintService) IngestDaily(ctx context.Context, date string, records []types.RawRecord) (*types.ComplaintSnapshot, error) {
	log := logger.New().WithComponent("complaints").WithField("date", date)

	res := s.locker.Acquire(ctx, complaintsDomain+"/"+date, s.lockTTL)
	switch res.Status {
	case lock.StatusAcquired:
		defer s.locker.Release(ctx, res.Token)
	case lock.StatusStorageUnavailable:
		return nil, ErrLockStorage
	default:
		return nil, ErrLocked
	}

	snap := buildComplaintSnapshot(date, records)
	log.WithField("total_sales", snap.TotalSales).Info("complaint aggregation complete")

	if err := s.repo.SaveRawComplaints(ctx, date, records); err != nil {
		return nil, err
	}
	if err := s.repo.SaveDaily(ctx, complaintsDomain, date, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// RebuildFromHistory recomputes the aggregate over every stored raw
// complaint upload and republishes it under the given date.
func (s *ComplaintService) RebuildFromHistory(ctx context.Context, date string) (*types.ComplaintSnapshot, error) {
	records, err := s.repo.LoadAllRawComplaints(ctx)
	if err != nil {
		return nil, err
	}
	snap := buildComplaintSnapshot(date, records)
	if err := s.repo.SaveDaily(ctx, complaintsDomain, date, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *ComplaintService) Latest(ctx context.Context) *types.ComplaintSnapshot {
	var snap types.ComplaintSnapshot
	if !s.repo.LoadLatest(ctx, complaintsDomain, &snap) {
		return nil
	}
	return &snap
}

func (s *ComplaintService) ForDate(ctx context.Context, date string) *types.ComplaintSnapshot {
	var snap types.ComplaintSnapshot
	if !s.repo.LoadDate(ctx, complaintsDomain, date, &snap) {
		return nil
	}
	return &snap
}

func buildComplaintSnapshot(date string, records []types.RawRecord) *types.ComplaintSnapshot {
	entities := resolver.Resolve(records)
	complaints := unifyComplaints(records, entities)
	aggs := aggregator.BuildServiceAggregates(dedup.Deduplicate(complaints))

	total := 0
	for _, a := range aggs {
		total += a.UniqueSales
	}
	return &types.ComplaintSnapshot{
		Date:        date,
		Services:    aggs,
		TotalSales:  total,
		LastUpdated: time.Now().UTC(),
	}
}

// unifyComplaints rewrites each complaint's identifiers with the ones
// its resolved entity settled on, so groups keyed by (service, contract,
// client, maid) do not split across asymmetrically-identified uploads.
func unifyComplaints(records []types.RawRecord, entities []types.ResolvedEntity) []dedup.Complaint {
	owner := map[string]types.ResolvedEntity{}
	for _, e := range entities {
		for _, id := range e.MergedIDs {
			owner[id] = e
		}
	}

	log := logger.New().WithComponent("complaints")
	var out []dedup.Complaint
	for _, r := range records {
		service, ok := ingest.MapComplaintType(r.ComplaintType)
		if !ok {
			log.WithField("complaint_type", r.ComplaintType).Warn("dropping record with unmapped complaint type")
			continue
		}
		c := dedup.Complaint{
			Service:  service,
			Contract: r.ContractID,
			Client:   r.ClientID,
			Maid:     r.MaidID,
			Date:     r.Date,
		}
		if ids := resolver.SplitSubIDs(r.ConversationID); len(ids) > 0 {
			if e, found := owner[ids[0]]; found {
				c.Contract, c.Client, c.Maid = e.ContractID, e.ClientID, e.MaidID
			}
		}
		out = append(out, c)
	}
	return out
}
