package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"ops-insights-go/internal/logger"
)

const (
	remoteTimeout    = 5 * time.Second
	remoteRetries    = 2
	remoteRetryDelay = time.Second
)

// remoteOverlay carries the subset of config that can be managed
// centrally. Zero values leave the env-derived value in place.
type remoteOverlay struct {
	LLMModel            string `json:"llm_model"`
	ClassifyConcurrency int    `json:"classify_concurrency"`
	LockWaitSeconds     int    `json:"lock_wait_seconds"`
}

// applyRemote fetches the overlay with a fixed-delay bounded retry.
// Remote config is optional: any failure logs and leaves the local
// values untouched.
func applyRemote(cfg *Config) {
	log := logger.New().WithComponent("config").WithField("url", cfg.RemoteCfgURL)

	var overlay remoteOverlay
	op := func() error {
		client := &http.Client{Timeout: remoteTimeout}
		resp, err := client.Get(cfg.RemoteCfgURL)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("remote config status %d: %s", resp.StatusCode, body))
		}
		return json.Unmarshal(body, &overlay)
	}
	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(remoteRetryDelay), remoteRetries)
	if err := backoff.Retry(op, bo); err != nil {
		log.WithError(err).Warn("remote config unavailable, using local values")
		return
	}

	if overlay.LLMModel != "" {
		cfg.LLMModel = overlay.LLMModel
	}
	if overlay.ClassifyConcurrency > 0 {
		cfg.ClassifyConcurrency = overlay.ClassifyConcurrency
	}
	if overlay.LockWaitSeconds > 0 {
		cfg.LockWaitSeconds = overlay.LockWaitSeconds
	}
	log.Info("remote config applied")
}
