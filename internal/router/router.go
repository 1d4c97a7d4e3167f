// Package router wires the gin engine: CORS, request tracing, recovery,
// and the seven recommendation endpoints behind a single Handler.
package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/dig"

	"github.com/nyx-moment/moment/internal/handler"
	"github.com/nyx-moment/moment/internal/middleware"
)

// RouterParams is the dig constructor signature for NewRouter.
type RouterParams struct {
	dig.In

	Handler *handler.Handler
}

// NewRouter builds the gin engine serving the recommendation flow.
func NewRouter(params RouterParams) *gin.Engine {
	r := gin.New()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.TracingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	RegisterRecommendationRoutes(r, params.Handler)

	return r
}

// RegisterRecommendationRoutes registers the fixed seven-endpoint
// recommendation flow.
func RegisterRecommendationRoutes(r *gin.Engine, h *handler.Handler) {
	r.POST("/start", h.Start)
	r.POST("/answer/:sessionId", h.Answer)
	r.POST("/refine/:sessionId", h.Refine)
	r.POST("/adjust/:sessionId", h.Adjust)
	r.POST("/interaction/:sessionId", h.Interaction)
	r.GET("/moment/:sessionId", h.Moment)
	r.GET("/domains", h.Domains)
}
