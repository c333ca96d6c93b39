// Package routes defines the HTTP routes for the PM Assistant Service.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pmservice/assistant-service/internal/api/handlers"
	"github.com/pmservice/assistant-service/internal/api/middleware"
)

// BasePath is the prefix of every API route.
const BasePath = "/api/v1/pm-assistant"

// Config holds the dependencies for setting up routes.
type Config struct {
	HealthHandler     *handlers.HealthHandler
	AuthHandler       *handlers.AuthHandler
	SessionHandler    *handlers.SessionHandler
	ThreadsHandler    *handlers.ThreadsHandler
	MessagesHandler   *handlers.MessagesHandler
	ArtifactsHandler  *handlers.ArtifactsHandler
	TelemetryHandler  *handlers.TelemetryHandler
	AuthMiddleware    *middleware.AuthMiddleware
	SessionMiddleware *middleware.SessionMiddleware
}

// Setup configures all routes on the Gin engine.
func Setup(r *gin.Engine, cfg *Config) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group(BasePath)
	{
		// Health check routes (no auth required)
		v1.GET("/health", cfg.HealthHandler.Health)
		v1.GET("/ready", cfg.HealthHandler.Ready)
		v1.GET("/live", cfg.HealthHandler.Live)

		v1.GET("/auth/login", cfg.AuthHandler.Login)

		protected := v1.Group("")
		protected.Use(cfg.AuthMiddleware.Authenticate(), cfg.SessionMiddleware.Load())

		protected.GET("/auth/me", cfg.AuthHandler.Me)

		session := protected.Group("/session")
		{
			session.GET("", cfg.SessionHandler.GetSession)
			session.PUT("", cfg.SessionHandler.UpdateSession)
			session.DELETE("", cfg.SessionHandler.DeleteSession)
			session.GET("/active-thread", cfg.SessionHandler.GetActiveThread)
			session.PUT("/active-thread", cfg.SessionHandler.SetActiveThread)
		}

		threads := protected.Group("/threads")
		{
			threads.POST("", cfg.ThreadsHandler.CreateThread)
			threads.GET("", cfg.ThreadsHandler.ListThreads)

			thread := threads.Group("/:threadId")
			thread.GET("", cfg.ThreadsHandler.GetThread)
			thread.PATCH("", cfg.ThreadsHandler.UpdateThread)
			thread.DELETE("", cfg.ThreadsHandler.DeleteThread)

			thread.GET("/messages", cfg.MessagesHandler.GetMessages)
			thread.POST("/messages", cfg.MessagesHandler.SendMessage)
			thread.DELETE("/messages", cfg.MessagesHandler.ClearMessages)

			thread.POST("/email-drafts", cfg.ArtifactsHandler.AddEmailDraft)
			thread.POST("/action-plans", cfg.ArtifactsHandler.AddActionPlan)
		}

		telemetry := protected.Group("/telemetry")
		{
			telemetry.GET("/metrics", cfg.TelemetryHandler.SessionMetrics)
			telemetry.GET("/summary", cfg.TelemetryHandler.Summary)
			telemetry.GET("/activity", cfg.TelemetryHandler.Activity)
			telemetry.GET("/performance", cfg.TelemetryHandler.Performance)
		}
	}

	r.NoRoute(middleware.NotFound())
	r.NoMethod(middleware.MethodNotAllowed())
}

// SetupWithMiddleware sets up routes with common middleware.
func SetupWithMiddleware(r *gin.Engine, cfg *Config, loggingMw *middleware.LoggingMiddleware, errorMw *middleware.ErrorMiddleware, cors middleware.CORSConfig) {
	r.Use(errorMw.Recovery())
	r.Use(middleware.NewCORSMiddleware(cors))
	r.Use(loggingMw.RequestLogger())
	r.Use(loggingMw.Logger())
	r.Use(middleware.Metrics())

	Setup(r, cfg)
}
