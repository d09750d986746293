package config

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyRemoteOverlay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"llm_model":"gpt-x","classify_concurrency":4}`))
	}))
	defer srv.Close()

	cfg := &Config{RemoteCfgURL: srv.URL, LLMModel: "local", ClassifyConcurrency: 10, LockWaitSeconds: 10}
	applyRemote(cfg)
	assert.Equal(t, "gpt-x", cfg.LLMModel)
	assert.Equal(t, 4, cfg.ClassifyConcurrency)
	assert.Equal(t, 10, cfg.LockWaitSeconds) // absent in overlay, untouched
}

func TestApplyRemoteFailureKeepsLocalValues(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := &Config{RemoteCfgURL: srv.URL, LLMModel: "local"}
	applyRemote(cfg)
	assert.Equal(t, "local", cfg.LLMModel)
	assert.Equal(t, int32(1), calls.Load()) // 4xx is permanent, no retry
}
