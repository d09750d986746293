// Package snapshot persists and retrieves the daily metric documents.
// Each domain snapshot is written twice: once under its dated key and
// once as latest.json so readers never have to list the dated keys.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ops-insights-go/internal/blob"
	"ops-insights-go/internal/logger"
	"ops-insights-go/internal/types"
)

const rawComplaintsPrefix = "complaints/raw/"

type Repo struct {
	store blob.Store
}

func NewRepo(store blob.Store) *Repo {
	return &Repo{store: store}
}

func dailyKey(domain, date string) string {
	return domain + "/daily/" + date + ".json"
}

func latestKey(domain string) string {
	return domain + "/latest.json"
}

// SaveDaily writes the document to <domain>/daily/<date>.json and
// duplicates it to <domain>/latest.json. Writes are unconditional
// overwrites; re-ingesting a date replaces the old snapshot. Failures
// here do propagate, unlike reads.
func (r *Repo) SaveDaily(ctx context.Context, domain, date string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s snapshot: %w", domain, err)
	}
	if _, err := r.store.Put(ctx, dailyKey(domain, date), data); err != nil {
		return err
	}
	_, err = r.store.Put(ctx, latestKey(domain), data)
	return err
}

// LoadLatest reads <domain>/latest.json into out. Absence and storage
// failure both read as "no data": found=false, nil error.
func (r *Repo) LoadLatest(ctx context.Context, domain string, out any) bool {
	return r.load(ctx, latestKey(domain), out)
}

// LoadDate reads one dated snapshot; same absence semantics as LoadLatest.
func (r *Repo) LoadDate(ctx context.Context, domain, date string, out any) bool {
	return r.load(ctx, dailyKey(domain, date), out)
}

func (r *Repo) load(ctx context.Context, key string, out any) bool {
	log := logger.New().WithComponent("snapshot").WithField("key", key)
	data, err := r.fetchKey(ctx, key)
	if err != nil {
		if !errors.Is(err, blob.ErrNotFound) {
			log.WithError(err).Warn("snapshot read failed, treating as absent")
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.WithError(err).Warn("snapshot decode failed, treating as absent")
		return false
	}
	return true
}

// SaveRawComplaints stores a day's uploaded complaint rows so the
// nightly rebuild can recompute aggregates from full history.
func (r *Repo) SaveRawComplaints(ctx context.Context, date string, records []types.RawRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal raw complaints: %w", err)
	}
	_, err = r.store.Put(ctx, rawComplaintsPrefix+date+".json", data)
	return err
}

// LoadAllRawComplaints re-reads the entire stored complaint history.
// Individual blobs that fail to fetch or decode are skipped and logged.
func (r *Repo) LoadAllRawComplaints(ctx context.Context) ([]types.RawRecord, error) {
	log := logger.New().WithComponent("snapshot")
	infos, err := r.store.List(ctx, rawComplaintsPrefix)
	if err != nil {
		return nil, fmt.Errorf("list raw complaints: %w", err)
	}
	var out []types.RawRecord
	for _, info := range infos {
		data, err := r.store.Fetch(ctx, info.URL)
		if err != nil {
			log.WithError(err).WithField("path", info.Pathname).Warn("skipping unreadable history blob")
			continue
		}
		var records []types.RawRecord
		if err := json.Unmarshal(data, &records); err != nil {
			log.WithError(err).WithField("path", info.Pathname).Warn("skipping undecodable history blob")
			continue
		}
		out = append(out, records...)
	}
	return out, nil
}

// ClearPrefix deletes every blob under the prefix. This is the only
// deletion path the service has.
func (r *Repo) ClearPrefix(ctx context.Context, prefix string) (int, error) {
	infos, err := r.store.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, info := range infos {
		if err := r.store.Del(ctx, info.URL); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// TrendReader adapts dated snapshot reads into a per-day value lookup.
// pick extracts the tracked value from one decoded snapshot.
func (r *Repo) TrendReader(ctx context.Context, domain string, pick func(raw json.RawMessage) (int, bool)) func(date string) (int, bool) {
	return func(date string) (int, bool) {
		var raw json.RawMessage
		if !r.LoadDate(ctx, domain, date, &raw) {
			return 0, false
		}
		return pick(raw)
	}
}

func (r *Repo) fetchKey(ctx context.Context, key string) ([]byte, error) {
	infos, err := r.store.List(ctx, key)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Pathname == key {
			return r.store.Fetch(ctx, info.URL)
		}
	}
	return nil, blob.ErrNotFound
}
