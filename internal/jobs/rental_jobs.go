package jobs

import (
	"context"
	"time"

	"rentoo/internal/logger"
)

const (
	startDueRentalsJob = "StartDueRentals"
	jobTimeout         = 5 * time.Minute
)

// StartDueRentals moves confirmed rentals whose start date has arrived to
// in_progress. The calendar day is taken in UTC.
func (jr *JobRunner) StartDueRentals() error {
	return jr.runWithRecovery(startDueRentalsJob, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		started, err := jr.rentals.StartDue(ctx, jr.now().UTC())
		logger.Info("Started due rentals", "count", started)
		return err
	})
}
