package service

import (
	"context"
	"encoding/json"
	"time"

	"ops-insights-go/internal/aggregator"
	"ops-insights-go/internal/classifier"
	"ops-insights-go/internal/logger"
	"ops-insights-go/internal/resolver"
	"ops-insights-go/internal/snapshot"
	"ops-insights-go/internal/types"
)

const chatsDomain = "chats"

type ChatService struct {
	repo *snapshot.Repo
	cls  *classifier.Classifier
}

func NewChatService(repo *snapshot.Repo, cls *classifier.Classifier) *ChatService {
	return &ChatService{repo: repo, cls: cls}
}

// AnalyzeDaily classifies transcripts that arrived without tags, resolves
// the records into entities and publishes the day's chat metrics.
func (s *ChatService) AnalyzeDaily(ctx context.Context, date string, records []types.RawRecord) (*types.ChatSnapshot, error) {
	log := logger.New().WithComponent("chats").WithField("date", date)

	records = s.enrich(ctx, records)
	entities := resolver.Resolve(records)

	frustrated, confused := 0, 0
	for _, e := range entities {
		if e.Frustrated {
			frustrated++
		}
		if e.Confused {
			confused++
		}
	}
	drivers := aggregator.Drivers(entities, func(e types.ResolvedEntity) bool { return e.Frustrated })

	snap := &types.ChatSnapshot{
		Date:          date,
		TotalChats:    len(entities),
		FrustratedPct: aggregator.Percentage(frustrated, len(entities)),
		ConfusedPct:   aggregator.Percentage(confused, len(entities)),
		TopDrivers:    drivers,
		MainIssue:     aggregator.MainIssue(drivers),
		LastUpdated:   time.Now().UTC(),
	}

	if end, err := time.Parse(types.DateLayout, date); err == nil {
		read := s.repo.TrendReader(ctx, chatsDomain, func(raw json.RawMessage) (int, bool) {
			var prior types.ChatSnapshot
			if json.Unmarshal(raw, &prior) != nil {
				return 0, false
			}
			return prior.FrustratedPct, true
		})
		snap.Trend = aggregator.TrendSeries(end, read)
	}

	log.WithField("frustrated_pct", snap.FrustratedPct).Info("chat analysis complete")
	if err := s.repo.SaveDaily(ctx, chatsDomain, date, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *ChatService) Latest(ctx context.Context) *types.ChatSnapshot {
	var snap types.ChatSnapshot
	if !s.repo.LoadLatest(ctx, chatsDomain, &snap) {
		return nil
	}
	return &snap
}

func (s *ChatService) ForDate(ctx context.Context, date string) *types.ChatSnapshot {
	var snap types.ChatSnapshot
	if !s.repo.LoadDate(ctx, chatsDomain, date, &snap) {
		return nil
	}
	return &snap
}

// enrich fills tags and flags from the classifier for records that came
// in bare. Classification failures leave the record as uploaded.
func (s *ChatService) enrich(ctx context.Context, records []types.RawRecord) []types.RawRecord {
	if s.cls == nil {
		return records
	}
	var pending []int
	var transcripts []string
	for i, r := range records {
		if r.Transcript != "" && len(r.IssueTags) == 0 && !r.Frustrated && !r.Confused {
			pending = append(pending, i)
			transcripts = append(transcripts, r.Transcript)
		}
	}
	if len(pending) == 0 {
		return records
	}

	out := append([]types.RawRecord(nil), records...)
	for _, res := range s.cls.ClassifyBatch(ctx, transcripts) {
		if res.Err != nil {
			continue
		}
		i := pending[res.Index]
		out[i].ComplaintType = res.Classification.ComplaintType
		out[i].IssueTags = res.Classification.IssueTags
		out[i].Phrases = res.Classification.Phrases
		out[i].Frustrated = res.Classification.Frustrated
		out[i].Confused = res.Classification.Confused
	}
	return out
}
