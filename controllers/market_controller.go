package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rizalgs/adimology/services/brokerflow"
	"github.com/rizalgs/adimology/services/stockbit"
	"github.com/gin-gonic/gin"
)

// MarketController proxies upstream market data for the dashboard panels
type MarketController struct {
	stockbit   *stockbit.Client
	brokerFlow *brokerflow.Client
}

// NewMarketController creates a market controller
func NewMarketController(sb *stockbit.Client, bf *brokerflow.Client) *MarketController {
	return &MarketController{
		stockbit:   sb,
		brokerFlow: bf,
	}
}

// GetOrderbook returns the live order book for a symbol
// GET /api/v1/market/:symbol/orderbook
func (mc *MarketController) GetOrderbook(c *gin.Context) {
	symbol := c.Param("symbol")

	orderbook, err := mc.stockbit.Orderbook(c.Request.Context(), symbol)
	if err != nil {
		mc.upstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orderbook})
}

// GetKeystats returns valuation key statistics for a symbol
// GET /api/v1/market/:symbol/keystats
func (mc *MarketController) GetKeystats(c *gin.Context) {
	symbol := c.Param("symbol")

	keystats, err := mc.stockbit.Keystats(c.Request.Context(), symbol)
	if err != nil {
		mc.upstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": keystats})
}

// GetMarketDetector returns broker buy/sell aggregates for a symbol.
// Unlike the batch pipeline this path treats an empty broker dataset as a
// hard failure.
// GET /api/v1/market/:symbol/detector?days=30
func (mc *MarketController) GetMarketDetector(c *gin.Context) {
	symbol := c.Param("symbol")
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days < 1 || days > 365 {
		days = 30
	}

	to := time.Now()
	from := to.AddDate(0, 0, -days)

	summary, err := mc.stockbit.MarketDetector(c.Request.Context(), symbol, from, to)
	if err != nil {
		if errors.Is(err, stockbit.ErrNoBrokerData) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		mc.upstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

// GetBrokerFlow returns the third-party broker-flow panel data
// GET /api/v1/brokers/:symbol/flow?days=5
func (mc *MarketController) GetBrokerFlow(c *gin.Context) {
	symbol := c.Param("symbol")
	days, _ := strconv.Atoi(c.DefaultQuery("days", "5"))

	flow, err := mc.brokerFlow.FlowSummary(c.Request.Context(), symbol, days)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": flow})
}

// upstreamError maps Stockbit failures onto API responses. Token expiry is
// surfaced with a distinguished code so the dashboard can prompt a re-login.
func (mc *MarketController) upstreamError(c *gin.Context, err error) {
	if errors.Is(err, stockbit.ErrTokenExpired) || errors.Is(err, stockbit.ErrNoToken) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "token_expired",
			"message": "Stockbit session expired, please refresh the token",
		})
		return
	}

	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
