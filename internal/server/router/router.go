package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/salesboard/internal/server/handlers"
)

const requestIDHeader = "X-Request-ID"

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Calendar *handlers.CalendarHandler
	Day      *handlers.DayHandler
	Product  *handlers.ProductHandler
	Export   *handlers.ExportHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	cal := api.Group("/calendar")
	cal.GET("", h.Calendar.Render)
	cal.POST("/navigate", h.Calendar.Navigate)
	cal.PUT("/view", h.Calendar.SetView)
	cal.POST("/click", h.Calendar.Click)

	day := api.Group("/days/:date")
	day.GET("", h.Day.Get)
	day.POST("/entry", h.Day.CreateEntry)
	day.POST("/items", h.Day.AddItem)
	day.POST("/items/:index/edit", h.Day.BeginEdit)
	day.DELETE("/items/:itemID", h.Day.DeleteItem)
	day.DELETE("/rows/:index", h.Day.DeleteRow)
	day.PATCH("/draft", h.Day.UpdateDraft)
	day.POST("/draft/commit", h.Day.CommitDraft)
	day.DELETE("/draft", h.Day.DiscardDraft)

	api.DELETE("/entries/:id", h.Day.DeleteEntry)

	api.GET("/products", h.Product.List)
	api.POST("/products", h.Product.Create)

	api.GET("/reports/monthly", h.Export.Monthly)

	inv := api.Group("/inventory")
	inv.GET("/export", h.Export.Export)
	inv.GET("/import-template", h.Export.ImportTemplate)
	inv.POST("/import", h.Export.Import)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

// requestIDMiddleware keeps an incoming X-Request-ID or assigns a new one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
