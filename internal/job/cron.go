// Package job schedules the nightly complaint-aggregate rebuild so the
// dashboard reflects the full raw history even when a day's upload
// arrived out of order.
package job

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"ops-insights-go/internal/logger"
	"ops-insights-go/internal/service"
	"ops-insights-go/internal/types"
)

// RebuildSpec runs at 02:00 every day.
const RebuildSpec = "0 2 * * *"

// StartRebuild registers the nightly rebuild and starts the scheduler.
// The returned cron can be stopped on shutdown.
func StartRebuild(complaints *service.ComplaintService) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(RebuildSpec, func() { RunRebuild(complaints) })
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// RunRebuild recomputes today's complaint aggregate from every stored
// raw upload. Failures are logged; the next run retries from scratch.
func RunRebuild(complaints *service.ComplaintService) {
	log := logger.New().WithComponent("job")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	date := time.Now().UTC().Format(types.DateLayout)
	snap, err := complaints.RebuildFromHistory(ctx, date)
	if err != nil {
		log.WithField("date", date).WithField("error", err.Error()).Error("nightly rebuild failed")
		return
	}
	log.WithField("date", date).WithField("total_sales", snap.TotalSales).Info("nightly rebuild complete")
}
