package jobs

import (
	"rentease-backend/internal/config"
	"rentease-backend/internal/logger"
	"rentease-backend/internal/repository/postgres"
	"rentease-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store    *postgres.Store
	payments service.PaymentService
	config   *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store *postgres.Store, payments service.PaymentService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:    store,
		payments: payments,
		config:   cfg,
	}
}

// Config exposes the configuration for scheduler wiring
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAllJobs runs every scheduled job once (for manual execution)
func (jr *JobRunner) RunAllJobs() {
	jr.ReconcilePendingPayments()
	jr.ExpireStalePayments()
}
