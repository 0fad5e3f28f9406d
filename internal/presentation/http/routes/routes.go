// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kirtipatel215/IMS-sub000/internal/application/container"
	"github.com/kirtipatel215/IMS-sub000/internal/presentation/http/handlers"
	"github.com/kirtipatel215/IMS-sub000/internal/presentation/http/middleware"
	"github.com/kirtipatel215/IMS-sub000/pkg/config"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(c *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Uploaded media is served straight from disk.
	r.Static(config.MediaBaseURL, config.MediaRoot)

	sessionHandlers := handlers.NewSessionHandlers(c.SessionService, c.Logger)
	dashboardHandlers := handlers.NewDashboardHandlers(c.DashboardService, c.SessionService, c.Logger)
	requestHandlers := handlers.NewRequestHandlers(c.RequestService, c.SessionService, c.Logger)
	certificateHandlers := handlers.NewCertificateHandlers(c.CertificateService, c.SessionService, c.Logger)
	opportunityHandlers := handlers.NewOpportunityHandlers(c.OpportunityService, c.SessionService, c.Logger)
	uploadHandlers := handlers.NewUploadHandlers(c.UploadService, c.SessionService, c.Logger)
	realtimeHandlers := handlers.NewRealtimeHandlers(c.Broadcaster, c.SessionService, c.Logger)

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "degraded": c.Degraded})
	})

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.GET("/me", sessionHandlers.GetMe)
			auth.PUT("/me", sessionHandlers.PutMe)
			auth.POST("/events", sessionHandlers.PostAuthEvent)
			auth.POST("/admin-login", sessionHandlers.PostAdminLogin)
		}

		api.GET("/dashboard/stats", dashboardHandlers.GetStats)

		requests := api.Group("/requests")
		{
			requests.GET("", requestHandlers.GetMine)
			requests.GET("/pending", requestHandlers.GetPending)
			requests.POST("", requestHandlers.PostSubmit)
			requests.POST("/:id/withdraw", requestHandlers.PostWithdraw)
			requests.POST("/:id/review", requestHandlers.PostReview)
		}

		certificates := api.Group("/certificates")
		{
			certificates.GET("", certificateHandlers.GetMine)
			certificates.POST("", certificateHandlers.PostIssue)
		}

		opportunities := api.Group("/opportunities")
		{
			opportunities.GET("", opportunityHandlers.GetActive)
			opportunities.POST("", opportunityHandlers.PostListing)
			opportunities.POST("/:id/close", opportunityHandlers.PostClose)
		}

		api.POST("/uploads", uploadHandlers.PostUpload)
	}

	r.GET("/ws", realtimeHandlers.GetStream)

	return r
}
