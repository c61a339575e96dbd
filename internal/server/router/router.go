package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fournil/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(prod *handlers.ProductionHandler, webhook *handlers.WebhookHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.POST("/orders", prod.CreateOrder)
	r.GET("/orders", prod.ListActiveOrders)
	r.GET("/orders/:id/progress", prod.GetProgress)
	r.GET("/orders/:id/steps", prod.ListStageLogs)
	r.POST("/orders/:id/steps", prod.StartStage)

	r.POST("/steps/:id/complete", prod.CompleteStage)
	r.POST("/steps/:id/batches", prod.RecordBatch)
	r.GET("/steps/:id/batches", prod.ListBatches)

	r.PUT("/batches/:id", prod.UpdateBatch)
	r.DELETE("/batches/:id", prod.DeleteBatch)

	r.GET("/webhook", webhook.Verify)
	r.POST("/webhook", webhook.Receive)
	r.POST("/send-message", webhook.SendMessage)

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
