package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/fgts-api/internal/api/handlers"
	"github.com/nexconsult/fgts-api/internal/api/middleware"
	"github.com/nexconsult/fgts-api/internal/config"
	"github.com/nexconsult/fgts-api/internal/models"
	"github.com/nexconsult/fgts-api/internal/services"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Server represents the HTTP server
type Server struct {
	Router      *gin.Engine
	config      *config.Config
	logger      *logrus.Logger
	services    *services.Container
	rateLimiter *middleware.RateLimiter
}

// NewServer creates a new HTTP server
func NewServer(services *services.Container) *Server {
	server := &Server{
		config:   services.GetConfig(),
		logger:   services.GetLogger(),
		services: services,
	}

	server.setupRouter()
	return server
}

// setupRouter configures the router with all routes and middleware
func (s *Server) setupRouter() {
	s.Router = gin.New()
	s.Router.MaxMultipartMemory = s.config.Server.MaxUploadSize

	s.Router.Use(middleware.RequestID())
	s.Router.Use(middleware.Logger(s.logger))
	s.Router.Use(middleware.Recovery(s.logger))
	s.Router.Use(middleware.CORS(s.config.Security.CORS))
	s.Router.Use(middleware.Security())

	s.rateLimiter = middleware.NewRateLimiter(s.config.Security.RateLimit)

	// Health and metrics (no auth, no rate limiting)
	healthHandler := handlers.NewHealthHandler(s.services, s.logger)
	s.Router.GET("/health", healthHandler.GetHealth)
	s.Router.GET("/health/ready", healthHandler.GetReadiness)
	s.Router.GET("/health/live", healthHandler.GetLiveness)
	s.Router.GET("/metrics", handlers.NewMetricsHandler(s.services, s.rateLimiter, s.logger).GetMetrics)

	// Provider callbacks
	s.Router.POST("/webhook", handlers.NewWebhookHandler(s.services.WebhookService, s.logger).Receive)

	if !s.config.IsProduction() {
		s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		s.Router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})
	}

	v1 := s.Router.Group("/api/v1")
	v1.Use(s.rateLimiter.Middleware())
	v1.Use(middleware.Auth(s.services.UserService, s.logger))
	{
		consultaHandler := handlers.NewConsultaHandler(s.services.ConsultationService, s.logger)
		consultas := v1.Group("/consultas")
		{
			consultas.POST("", consultaHandler.Consult)
			consultas.GET("/:documentNumber/status", consultaHandler.Status)
		}

		batchHandler := handlers.NewBatchHandler(s.services.BatchService, s.config.Server.MaxUploadSize, s.logger)
		lotes := v1.Group("/lotes")
		{
			lotes.POST("", batchHandler.Upload)
			lotes.GET("", batchHandler.List)
			lotes.GET("/:loteId", batchHandler.Get)
			lotes.GET("/:loteId/download", batchHandler.Download)
		}

		userHandler := handlers.NewUserHandler(s.services.UserService, s.logger)
		v1.GET("/users/:userId/role", userHandler.GetRole)

		admin := v1.Group("/admin", middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/users", userHandler.Create)
			admin.GET("/users", userHandler.List)
			admin.GET("/users/:userId", userHandler.Get)
			admin.PUT("/users/:userId/role", userHandler.UpdateRole)
			admin.DELETE("/users/:userId", userHandler.Delete)
		}
	}

	s.Router.HandleMethodNotAllowed = true

	s.Router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:     "Not Found",
			Message:   "The requested resource was not found",
			Code:      models.ErrorCodeNotFound,
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
	})

	s.Router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{
			Error:     "Method Not Allowed",
			Message:   "The requested method is not allowed for this resource",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
	})
}

// Shutdown drains running batches while httpServer keeps serving provider
// callbacks, then stops accepting connections. Batches still running at the
// deadline are abandoned.
func (s *Server) Shutdown(ctx context.Context, httpServer *http.Server) error {
	if err := s.services.Drain(ctx); err != nil {
		s.logger.WithError(err).Warn("Batches still running at shutdown deadline")
	}

	defer s.Close()
	return httpServer.Shutdown(ctx)
}

// Close stops background work owned by the server
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
