package jobs

import (
	"context"
	"time"

	"github.com/fenilmodi00/soho-stock-backend/services"
	"github.com/sirupsen/logrus"
)

// SohoSweepJob runs the SoHo availability sweep on a fixed schedule. The same
// sweep can also be triggered manually over HTTP.
type SohoSweepJob struct {
	SweepService *services.SohoSweepService
	Interval     time.Duration
}

func NewSohoSweepJob(sweepService *services.SohoSweepService, interval time.Duration) *SohoSweepJob {
	return &SohoSweepJob{
		SweepService: sweepService,
		Interval:     interval,
	}
}

func (j *SohoSweepJob) Start() {
	logrus.Infof("Starting SoHo Sweep Job (runs every %v)...", j.Interval)
	ticker := time.NewTicker(j.Interval)

	go func() {
		// Run immediately on start
		j.Run()

		for range ticker.C {
			j.Run()
		}
	}()
}

func (j *SohoSweepJob) Run() {
	startTime := time.Now()
	logrus.Info("Running SoHo Sweep Job...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	summary, err := j.SweepService.Run(ctx)
	if err != nil {
		logrus.Errorf("SoHo Sweep Job failed: %v", err)
		return
	}

	if summary.Message != "" {
		logrus.Infof("SoHo Sweep Job: %s", summary.Message)
		return
	}

	duration := time.Since(startTime)
	logrus.Infof("SoHo Sweep Job completed: updated %d products across %d outcomes (took %v)",
		summary.UpdatedCount, len(summary.Details), duration)
}
