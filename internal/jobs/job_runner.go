package jobs

import (
	"fmt"
	"time"

	"rentoo/internal/config"
	"rentoo/internal/logger"
	"rentoo/internal/metrics"
	"rentoo/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	rentals service.RentalService
	config  *config.Config
	metrics *metrics.Server
	now     func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(rentals service.RentalService, cfg *config.Config, m *metrics.Server) *JobRunner {
	return &JobRunner{
		rentals: rentals,
		config:  cfg,
		metrics: m,
		now:     time.Now,
	}
}

// Config returns the configuration the jobs were created with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func() error) (err error) {
	log := logger.WithMethod(jobName)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
		jr.metrics.IncrementJobRun(jobName, err)
	}()

	log.Info("Starting job")
	if err = jobFunc(); err != nil {
		log.Error("Job failed", "error", err, "duration", time.Since(start))
		return err
	}
	log.Info("Job completed", "duration", time.Since(start))
	return nil
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() error {
	return jr.StartDueRentals()
}
