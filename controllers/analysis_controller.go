package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rizalgs/adimology/services/analysis"
	"github.com/rizalgs/adimology/services/story"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AnalysisController serves bandar analysis records and stories
type AnalysisController struct {
	store   *analysis.Store
	stories *story.Service
}

// NewAnalysisController creates an analysis controller
func NewAnalysisController(db *gorm.DB) *AnalysisController {
	return &AnalysisController{
		store:   analysis.NewStore(db),
		stories: story.NewService(db),
	}
}

// GetAnalyses returns analysis records for a trading date
// GET /api/v1/analyses?date=YYYY-MM-DD&page=1&limit=50
func (ac *AnalysisController) GetAnalyses(c *gin.Context) {
	dateStr := c.DefaultQuery("date", time.Now().Format("2006-01-02"))
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, expected YYYY-MM-DD"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	result, err := ac.store.ListByDate(date, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch analyses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": result.Records,
		"pagination": gin.H{
			"page":  result.Page,
			"limit": result.Limit,
			"total": result.Total,
		},
	})
}

// GetSymbolHistory returns recent analysis rows for one symbol
// GET /api/v1/analyses/:symbol?limit=30
func (ac *AnalysisController) GetSymbolHistory(c *gin.Context) {
	symbol := c.Param("symbol")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))

	records, err := ac.store.HistoryBySymbol(symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No analyses found for symbol"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}

// GetStories returns generated narrative stories
// GET /api/v1/stories?symbol=BBCA&limit=20
func (ac *AnalysisController) GetStories(c *gin.Context) {
	symbol := c.Query("symbol")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	stories, err := ac.stories.List(symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stories})
}
