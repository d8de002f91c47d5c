package scheduler

import (
	"time"

	"github.com/rizalgs/adimology/services/batch"
	"github.com/go-co-op/gocron"
	"gorm.io/gorm"
)

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron      *gocron.Scheduler
	db        *gorm.DB
	runner    *batch.Runner
	batchTime string
}

// NewScheduler creates a new scheduler instance. batchTime is "HH:MM" in
// Jakarta time; the daily batch runs after market close.
func NewScheduler(db *gorm.DB, runner *batch.Runner, batchTime string) *Scheduler {
	location, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		location = time.UTC
	}

	return &Scheduler{
		cron:      gocron.NewScheduler(location),
		db:        db,
		runner:    runner,
		batchTime: batchTime,
	}
}
