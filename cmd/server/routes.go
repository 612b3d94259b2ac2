package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/huangang/modsentry/backend/internal/handlers"
	"github.com/huangang/modsentry/backend/internal/middleware"
	"github.com/huangang/modsentry/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(ctx context.Context, r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	r.GET("/health", svc.healthHandler.CheckHealth)
	if svc.cfg.Metrics.Enabled {
		r.GET(svc.cfg.Metrics.Path, handlers.Metrics(svc.metrics.Registry()))
	}

	api := r.Group("/api")
	{
		api.POST("/auth/login", svc.authHandler.Login)

		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentModerator)
			protected.POST("/auth/logout", svc.authHandler.Logout)

			// Live results
			protected.GET("/events/moderation", svc.sseHandler.StreamResults)

			// Content
			submit := []gin.HandlerFunc{svc.contentHandler.Submit}
			if rl := svc.cfg.RateLimit; rl.Enabled {
				submit = append([]gin.HandlerFunc{middleware.RateLimit(ctx, rl.RequestsPerSecond, rl.Burst)}, submit...)
			}
			protected.POST("/content", submit...)
			protected.GET("/content/:id", svc.contentHandler.Get)
			protected.GET("/content/:id/predictions", svc.contentHandler.Predictions)
			protected.POST("/content/:id/send-to-review", svc.contentHandler.SendToReview)
			protected.POST("/content/:id/requeue", svc.contentHandler.Requeue)
			protected.GET("/queue/stats", svc.contentHandler.QueueStats)

			// Reviews
			protected.GET("/content/:id/reviews", svc.reviewHandler.ListForContent)
			protected.POST("/content/:id/reviews", svc.reviewHandler.Label)
			protected.POST("/content/:id/reviews/open", svc.reviewHandler.Create)
			protected.GET("/reviews/pending", svc.reviewHandler.Pending)
			protected.GET("/reviews/:id", svc.reviewHandler.Get)
			protected.PUT("/reviews/:id/gold", svc.reviewHandler.SubmitGold)

			// Read-only views of tuning state
			protected.GET("/settings", svc.settingsHandler.Get)
			protected.GET("/wordlist", svc.wordlistHandler.List)
			protected.GET("/model/status", svc.modelHandler.Status)
			protected.GET("/model/versions", svc.modelHandler.Versions)

			admin := protected.Group("")
			admin.Use(middleware.AdminRequired())
			{
				admin.POST("/queue/reset-stuck", svc.contentHandler.ResetStuck)

				admin.PUT("/settings/thresholds", svc.settingsHandler.UpdateThresholds)
				admin.POST("/settings/thresholds/adapt", svc.settingsHandler.AdaptThresholds)
				admin.PATCH("/settings/retraining", svc.settingsHandler.UpdateRetraining)

				admin.POST("/wordlist", svc.wordlistHandler.Create)
				admin.PUT("/wordlist/:id", svc.wordlistHandler.Update)
				admin.DELETE("/wordlist/:id", svc.wordlistHandler.Delete)

				admin.POST("/model/train", svc.modelHandler.Train)
				admin.POST("/model/retrain", svc.modelHandler.Retrain)
				admin.POST("/model/reload", svc.modelHandler.Reload)
				admin.POST("/model/versions/:version/activate", svc.modelHandler.Activate)

				admin.GET("/system-logs", svc.systemLogHandler.List)
				admin.POST("/system-logs/cleanup", svc.systemLogHandler.Cleanup)
			}
		}
	}
}
