package routes

import (
	"github.com/rizalgs/adimology/controllers"
	"github.com/rizalgs/adimology/middleware"
	"github.com/rizalgs/adimology/services/batch"
	"github.com/rizalgs/adimology/services/brokerflow"
	"github.com/rizalgs/adimology/services/realtime"
	"github.com/rizalgs/adimology/services/stockbit"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes sets up all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, sb *stockbit.Client, bf *brokerflow.Client, runner *batch.Runner, hub *realtime.Hub) {
	// Initialize controllers
	analysisController := controllers.NewAnalysisController(db)
	marketController := controllers.NewMarketController(sb, bf)
	jobController := controllers.NewJobController(db, runner)
	adminController := controllers.NewAdminController(db)

	// API v1 group
	api := router.Group("/api/v1")
	{
		// Analysis routes
		analyses := api.Group("/analyses")
		{
			analyses.GET("", analysisController.GetAnalyses)
			analyses.GET("/:symbol", analysisController.GetSymbolHistory)
		}

		// Story routes
		api.GET("/stories", analysisController.GetStories)

		// Market data proxy routes
		market := api.Group("/market")
		{
			market.GET("/:symbol/orderbook", marketController.GetOrderbook)
			market.GET("/:symbol/keystats", marketController.GetKeystats)
			market.GET("/:symbol/detector", marketController.GetMarketDetector)
		}

		// Broker-flow panel
		api.GET("/brokers/:symbol/flow", marketController.GetBrokerFlow)

		// Job routes
		jobs := api.Group("/jobs")
		{
			jobs.GET("/logs", jobController.GetJobLogs)
			jobs.POST("/daily-analysis/run", middleware.JWTAuthMiddleware(), jobController.RunDailyAnalysis)
		}

		// Operator login
		api.POST("/admin/login", adminController.Login)
	}

	// Scheduled serverless trigger
	router.POST("/api/cron/daily-analysis", middleware.CronAuthMiddleware(), jobController.RunDailyAnalysis)

	// Realtime quote stream
	if hub != nil {
		router.GET("/ws/quotes", func(c *gin.Context) {
			hub.HandleWebSocket(c.Writer, c.Request)
		})
	}
}
