/**
 * @description
 * Scheduled job implementations for the affiliate payout service.
 */
package app

import (
	"context"
	"log/slog"
)

// SettlementRunner is the interface the cron jobs drive.
type SettlementRunner interface {
	RunSettlement(ctx context.Context) (*SettlementResult, error)
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	runner SettlementRunner
	logger *slog.Logger
}

// NewJobs creates a new Jobs runner.
func NewJobs(runner SettlementRunner, logger *slog.Logger) *Jobs {
	return &Jobs{runner: runner, logger: logger}
}

// RunWeeklySettlement executes the weekly affiliate settlement batch.
func (j *Jobs) RunWeeklySettlement() {
	j.logger.Info("starting weekly affiliate settlement job")
	ctx := context.Background()

	result, err := j.runner.RunSettlement(ctx)
	if err != nil {
		j.logger.Error("affiliate settlement job failed", "error", err)
		return
	}

	j.logger.Info("weekly affiliate settlement job finished",
		"period_start", result.Period.Start,
		"period_end", result.Period.End,
		"processed", result.Processed,
		"successful", result.Successful,
		"failed", result.Failed,
	)
}
