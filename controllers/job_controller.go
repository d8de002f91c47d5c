package controllers

import (
	"net/http"
	"strconv"

	"github.com/rizalgs/adimology/models"
	"github.com/rizalgs/adimology/services/batch"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// JobController exposes the batch job's trigger and log endpoints
type JobController struct {
	db     *gorm.DB
	runner *batch.Runner
}

// NewJobController creates a job controller
func NewJobController(db *gorm.DB, runner *batch.Runner) *JobController {
	return &JobController{db: db, runner: runner}
}

// RunDailyAnalysis triggers the daily batch. Used both by the scheduled
// serverless cron and by the manual retry button.
// POST /api/cron/daily-analysis
// POST /api/v1/jobs/daily-analysis/run
func (jc *JobController) RunDailyAnalysis(c *gin.Context) {
	if jc.runner.IsRunning() {
		c.JSON(http.StatusConflict, gin.H{"error": "Batch already in progress"})
		return
	}

	result, err := jc.runner.Run(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		payload := gin.H{"error": err.Error()}
		if result != nil {
			payload["result"] = result
		}
		c.JSON(status, payload)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetJobLogs returns recent job runs, newest first
// GET /api/v1/jobs/logs?limit=20
func (jc *JobController) GetJobLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var logs []models.JobLog
	if err := jc.db.Order("started_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch job logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": logs})
}
