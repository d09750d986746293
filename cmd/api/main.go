package main

import (
	"fmt"
	"net/http"
	"time"

	"ops-insights-go/internal/api"
	"ops-insights-go/internal/blob"
	"ops-insights-go/internal/classifier"
	"ops-insights-go/internal/config"
	"ops-insights-go/internal/job"
	"ops-insights-go/internal/lock"
	"ops-insights-go/internal/logger"
	"ops-insights-go/internal/service"
	"ops-insights-go/internal/snapshot"
)

func main() {
	log := logger.New()
	log.WithField("service", "ops-insights-go").Info("starting service")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	var store blob.Store
	if cfg.BlobBaseURL != "" {
		store = blob.NewHTTPStore(cfg.BlobBaseURL, cfg.BlobToken)
	} else {
		log.Warn("BLOB_BASE_URL not set, snapshots held in memory only")
		store = blob.NewMemStore()
	}
	repo := snapshot.NewRepo(store)

	var locker lock.Locker
	if cfg.BlobBaseURL != "" {
		locker = lock.NewBlobLocker(store, cfg.LockWait())
	} else {
		locker = lock.NewMemoryLocker(cfg.LockWait())
	}

	cls := classifier.New(classifier.Config{
		GatewayURL:  cfg.LLMGatewayURL,
		APIKey:      cfg.LLMAPIKey,
		Model:       cfg.LLMModel,
		Concurrency: cfg.ClassifyConcurrency,
		UseMock:     cfg.UseMockLLM,
	})

	complaints := service.NewComplaintService(repo, locker, cfg.LockTTL())
	chats := service.NewChatService(repo, cls)
	metrics := service.NewMetricsService(repo)

	cronJobs, err := job.StartRebuild(complaints)
	if err != nil {
		log.WithError(err).Fatal("failed to schedule nightly rebuild")
	}
	defer cronJobs.Stop()

	router := api.NewRouter(api.NewHandler(complaints, chats, metrics, repo), cfg.APIToken)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}
