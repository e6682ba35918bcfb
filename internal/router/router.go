package router

import (
	"fmt"
	"net/http"

	"github.com/anangai/civic-portal-backend/config"
	"github.com/anangai/civic-portal-backend/internal/app/controller"
	apperrors "github.com/anangai/civic-portal-backend/internal/errors"
	"github.com/anangai/civic-portal-backend/internal/metrics"
	"github.com/anangai/civic-portal-backend/internal/middleware"
	"github.com/anangai/civic-portal-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

type Router struct {
	applicationController *controller.ApplicationController
	accountController     *controller.AccountController
	discoveryController   *controller.DiscoveryController
	uploadController      *controller.UploadController
	eventsController      *controller.EventsController
	authMiddleware        *middleware.AuthMiddleware
	rateLimiter           *middleware.RateLimiter
	config                *config.Config
}

func NewRouter(
	applicationController *controller.ApplicationController,
	accountController *controller.AccountController,
	discoveryController *controller.DiscoveryController,
	uploadController *controller.UploadController,
	eventsController *controller.EventsController,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *Router {
	return &Router{
		applicationController: applicationController,
		accountController:     accountController,
		discoveryController:   discoveryController,
		uploadController:      uploadController,
		eventsController:      eventsController,
		authMiddleware:        authMiddleware,
		rateLimiter:           rateLimiter,
		config:                cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Recovered from panic", fmt.Errorf("%v", recovered), map[string]interface{}{
			"path": c.Request.URL.Path,
		})
		apperrors.InternalError(c, "")
		c.Abort()
	}))
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	// multipart bodies beyond this spill to temp files
	router.MaxMultipartMemory = r.config.Storage.MaxUploadSize

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.NoRoute(func(c *gin.Context) {
		apperrors.NotFound(c, apperrors.ResourceNotFound, "Route not found")
	})

	limited := r.rateLimiter.Middleware()

	api := router.Group("/api")
	{
		// onboarding
		api.POST("/submit-application", limited, r.applicationController.Submit)
		api.POST("/finalize-account", limited, r.accountController.FinalizeAccount)
		api.POST("/register", limited, r.accountController.Register)
		api.POST("/signup", limited, r.accountController.Signup)
		api.POST("/login", limited, r.accountController.Login)
		api.POST("/upload-license", limited, r.accountController.UploadLicense)

		api.GET("/dashboard-data/:email", r.accountController.Dashboard)
		api.GET("/user", r.accountController.GetUser)
		api.PATCH("/user/progress", r.accountController.UpdateProgress)
		api.GET("/businesses", r.accountController.ListBusinesses)
		api.GET("/uploads/:filename", r.uploadController.Serve)

		discovery := api.Group("/discovery")
		{
			discovery.GET("/categories", r.discoveryController.Categories)
			discovery.GET("/data", r.discoveryController.Data)
		}

		api.POST("/admin/login", limited, r.applicationController.AdminLogin)

		admin := api.Group("/admin")
		admin.Use(r.authMiddleware.RequireAdmin())
		{
			admin.GET("/applications", r.applicationController.List)
			admin.POST("/applications/approve", r.applicationController.Approve)
			admin.POST("/applications/reject", r.applicationController.Reject)

			admin.GET("/pending", r.accountController.PendingUsers)
			admin.POST("/approve", r.accountController.ApproveUser)
			admin.POST("/reject", r.accountController.RejectUser)

			admin.GET("/events", r.eventsController.Stream)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
