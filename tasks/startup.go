package tasks

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/mirakyc/onboarding/utils/logger"
)

// StartCronJobs starts the warmup scan and schedules the recurring jobs
func StartCronJobs(jobs *Jobs) *gocron.Scheduler {
	scheduler := gocron.NewScheduler(time.Local)

	StartWithdrawalsWarmup(jobs)

	// Refresh the contract balance every 5 minutes
	_, err := scheduler.Every(5).Minutes().Do(jobs.RefreshContractBalance)
	if err != nil {
		logger.Errorf("StartCronJobs for RefreshContractBalance: %v", err)
	}

	// Rescan withdrawals every 10 minutes, after the warmup scan
	_, err = scheduler.Every(10).Minutes().WaitForSchedule().Do(jobs.RefreshWithdrawalTotals)
	if err != nil {
		logger.Errorf("StartCronJobs for RefreshWithdrawalTotals: %v", err)
	}

	// Reconcile pending transactions every 2 minutes
	_, err = scheduler.Every(2).Minutes().Do(jobs.ReconcilePendingTransactions)
	if err != nil {
		logger.Errorf("StartCronJobs for ReconcilePendingTransactions: %v", err)
	}

	// Start scheduler
	scheduler.StartAsync()
	return scheduler
}
