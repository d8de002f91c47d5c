package handler

import (
	"net/http"

	"github.com/rizalgs/adimology/config"
	"github.com/rizalgs/adimology/models"
	"github.com/rizalgs/adimology/routes"
	"github.com/rizalgs/adimology/services/batch"
	"github.com/rizalgs/adimology/services/brokerflow"
	"github.com/rizalgs/adimology/services/stockbit"

	"github.com/gin-gonic/gin"
)

var router *gin.Engine

func init() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("Failed to load configuration")
	}

	// Initialize database
	db, err := config.InitDB()
	if err != nil {
		panic("Failed to connect to database")
	}

	// Run migrations
	models.MigrateAnalysisModels(db)
	models.MigrateSessionModels(db)

	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	// Initialize router
	router = gin.New()
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(corsMiddleware())

	// Upstream clients. No scheduler, quote hub or snapshot archive on the
	// serverless runtime; the batch runs via the cron endpoint.
	tokens := stockbit.NewTokenProvider(db, cfg.StockbitToken)
	sbClient := stockbit.NewClient(cfg.StockbitBaseURL, tokens)
	bfClient := brokerflow.NewClient(cfg.BrokerFlowURL, cfg.BrokerFlowAPIKey)
	runner := batch.NewRunner(db, sbClient, nil, cfg.WatchlistGroup)

	// Setup routes
	routes.SetupRoutes(router, db, sbClient, bfClient, runner, nil)
}

// Handler is the Vercel serverless function handler
func Handler(w http.ResponseWriter, r *http.Request) {
	router.ServeHTTP(w, r)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
