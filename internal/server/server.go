// Package server exposes the asset registry to operators over HTTP.
// Mutating routes sit behind the admin guard; reads are unrestricted.
package server

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/halcyonex/assetadmin/internal/auth"
	"github.com/halcyonex/assetadmin/internal/registry"
)

// Server is the admin HTTP server over one registry.
type Server struct {
	engine   *gin.Engine
	registry registry.Registry
	logger   *zap.Logger
}

// New builds the router. gatherer may be nil to disable /metrics.
func New(reg registry.Registry, guard auth.Guard, logger *zap.Logger, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		registry: reg,
		logger:   logger.Named("server"),
	}

	engine := gin.New()
	engine.Use(ginzap.Ginzap(s.logger, time.RFC3339, true))
	engine.Use(ginzap.RecoveryWithZap(s.logger, true))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := engine.Group("/v1")

	reads := v1.Group("")
	{
		reads.GET("/assets/:id", s.getAsset)
		reads.GET("/assets/:id/trade-props", s.getTradeProps)
		reads.GET("/assets/:id/reference-prices", s.getReferencePrices)
		reads.GET("/assets/:id/market-open", s.getMarketOpen)
		reads.GET("/markets/:id/liquidity", s.getMarketLiquidity)
		reads.GET("/chains", s.getAllowedChains)
	}

	admin := v1.Group("", guard.Middleware())
	{
		admin.POST("/assets", s.createAsset)
		admin.PUT("/assets/:id/timed-market", s.createTimedMarketAsset)
		admin.POST("/assets/batch", s.batchUpdate)

		admin.PATCH("/assets/:id/liquidity", s.setMinLiquidity)
		admin.PATCH("/assets/:id/whitelist", s.setWhitelisted)
		admin.PATCH("/assets/:id/chain-addresses", s.setChainAddresses)
		admin.PATCH("/assets/:id/listing-stage", s.setListingStage)
		admin.PATCH("/assets/:id/oracle-sources", s.setOracleSources)
		admin.PATCH("/assets/:id/trade-props/:flag", s.setTradeProp)
		admin.PATCH("/assets/:id/risk-props", s.setRiskProps)
		admin.PATCH("/assets/:id/spread", s.setSpreadConfig)
		admin.PATCH("/assets/:id/deviation", s.setDeviationConfig)
		admin.PATCH("/assets/:id/timed-market/symbol", s.setTimedMarketSymbol)
		admin.PATCH("/assets/:id/timed-market/window", s.setTimedMarketWindow)
	}

	s.engine = engine
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("admin API listening", zap.String("addr", addr))
	return s.engine.Run(addr)
}
