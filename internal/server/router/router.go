package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/aquafarm/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(stock *handlers.StockHandler, livestock *handlers.LivestockHandler, feeding *handlers.FeedingHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.POST("/warehouses", stock.CreateWarehouse)
	r.GET("/warehouses", stock.ListWarehouses)
	r.GET("/warehouses/:id", stock.GetWarehouse)
	r.POST("/warehouses/:id/adjustments", stock.Adjust)
	r.GET("/warehouses/:id/movements", stock.History)
	r.POST("/transfers", stock.Transfer)

	r.POST("/ponds", livestock.CreatePond)
	r.GET("/ponds/:id", livestock.GetPond)
	r.POST("/ponds/:id/stocking", livestock.StockPond)
	r.POST("/ponds/:id/biometry", livestock.RecordBiometry)
	r.POST("/ponds/:id/mortality", livestock.RecordMortality)
	r.GET("/ponds/:id/biomass", livestock.Biomass)

	r.GET("/ponds/:id/ration", feeding.Ration)
	r.POST("/ponds/:id/feedings", feeding.RecordFeeding)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
