// Package classifier runs batch LLM classification of conversation
// transcripts. Batches fan out over a bounded worker pool and settle:
// each item carries its own result or error, and one failure never
// aborts the rest of the batch.
package classifier

import (
	"context"
	"sync"

	"ops-insights-go/internal/logger"
)

// DefaultConcurrency bounds the worker pool when the config leaves it unset.
const DefaultConcurrency = 10

// Classification is the structured result for one transcript.
type Classification struct {
	ComplaintType string   `json:"complaint_type"`
	IssueTags     []string `json:"issue_tags"`
	Phrases       []string `json:"phrases"`
	Frustrated    bool     `json:"frustrated"`
	Confused      bool     `json:"confused"`
	Summary       string   `json:"summary"`
}

// ItemResult pairs one input index with its outcome.
type ItemResult struct {
	Index          int
	Classification Classification
	Err            error
}

// Config wires the LLM gateway. Clients are constructed once at startup
// and injected; nothing here is lazily memoized.
type Config struct {
	GatewayURL  string
	APIKey      string
	Model       string
	Concurrency int
	UseMock     bool
}

type Classifier struct {
	cfg Config
}

func New(cfg Config) *Classifier {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Classifier{cfg: cfg}
}

// ClassifyBatch classifies every transcript, at most cfg.Concurrency in
// flight at once. Results come back indexed in input order; failed
// items report individually through ItemResult.Err.
func (c *Classifier) ClassifyBatch(ctx context.Context, transcripts []string) []ItemResult {
	log := logger.New().WithComponent("classifier")
	results := make([]ItemResult, len(transcripts))

	sem := make(chan struct{}, c.cfg.Concurrency)
	var wg sync.WaitGroup
	for i, tr := range transcripts {
		wg.Add(1)
		go func(i int, tr string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			cls, err := c.classifyOne(ctx, tr)
			results[i] = ItemResult{Index: i, Classification: cls, Err: err}
			if err != nil {
				log.WithError(err).WithField("index", i).Warn("transcript classification failed")
			}
		}(i, tr)
	}
	wg.Wait()

	return results
}
