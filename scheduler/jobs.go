package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/rizalgs/adimology/models"
)

// Start starts all scheduled jobs
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	// Run the watchlist analysis daily after market close
	s.cron.Every(1).Day().At(s.batchTime).Do(func() {
		if isTradingDay(time.Now()) {
			s.runDailyBatch()
		}
	})

	// Cleanup old job logs weekly on Sunday at 01:00
	s.cron.Every(1).Week().Sunday().At("01:00").Do(func() {
		s.cleanupOldLogs()
	})

	s.cron.StartAsync()
	log.Println("Scheduler started successfully")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// runDailyBatch executes the watchlist analysis job
func (s *Scheduler) runDailyBatch() {
	log.Println("Daily analysis triggered by scheduler")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	result, err := s.runner.Run(ctx)
	if err != nil {
		log.Printf("Scheduled daily analysis failed: %v", err)
		return
	}

	log.Printf("Scheduled daily analysis completed: processed=%d failed=%d skipped=%d",
		result.Processed, result.Failed, result.Skipped)
}

// cleanupOldLogs removes job logs older than 90 days
func (s *Scheduler) cleanupOldLogs() {
	log.Println("Cleaning up old job logs...")

	cutoff := time.Now().AddDate(0, 0, -90)
	if err := s.db.Where("started_at < ?", cutoff).Delete(&models.JobLog{}).Error; err != nil {
		log.Printf("Error cleaning up job logs: %v", err)
		return
	}

	log.Println("Cleanup completed")
}

// isTradingDay checks whether IDX is open on the given day
func isTradingDay(t time.Time) bool {
	return t.Weekday() != time.Saturday && t.Weekday() != time.Sunday
}
