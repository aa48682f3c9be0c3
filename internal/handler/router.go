package handler

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NewRouter wires the API routes.
func NewRouter(qh *QueryHandler, ws *WSHandler, logger *log.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))
	r.Use(corsMiddleware())

	api := r.Group("/api")
	{
		// Query APIs
		api.GET("/find", qh.Find)
		api.GET("/ancestor", qh.Ancestor)
		api.GET("/child", qh.Child)
		api.GET("/children", qh.Children)
		api.GET("/parent", qh.Parent)
		api.GET("/report", qh.Report)
		api.GET("/ws", ws.HandleWS)

		// Root management APIs
		api.GET("/roots", qh.GetRoots)
		api.POST("/roots", qh.AddRoot)
		api.DELETE("/roots", qh.RemoveRoot)
	}

	return r
}

// requestLogger tags each request with an ID and logs it once it completes.
func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Set("requestID", id)

		start := time.Now()
		c.Next()

		logger.Debug("request",
			"id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
