package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/yungbote/certifytrack-backend/internal/domain"
	httpH "github.com/yungbote/certifytrack-backend/internal/http/handlers"
	httpMW "github.com/yungbote/certifytrack-backend/internal/http/middleware"
	"github.com/yungbote/certifytrack-backend/internal/observability"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
	"github.com/yungbote/certifytrack-backend/internal/platform/storage"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *httpMW.AuthMiddleware
	CORSOrigins    []string
	ServiceName    string
	Tracing        bool
	Metrics        *observability.Metrics

	// UploadsDir is served under storage.LocalRoute when set.
	UploadsDir string

	HealthHandler      *httpH.HealthHandler
	AuthHandler        *httpH.AuthHandler
	BatchHandler       *httpH.BatchHandler
	EnrollmentHandler  *httpH.EnrollmentHandler
	TaskHandler        *httpH.TaskHandler
	SubmissionHandler  *httpH.SubmissionHandler
	CertificateHandler *httpH.CertificateHandler
	UploadHandler      *httpH.UploadHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}
	if cfg.UploadsDir != "" {
		r.StaticFS(storage.LocalRoute, http.Dir(cfg.UploadsDir))
	}

	api := r.Group("/api")
	am := cfg.AuthMiddleware

	// Public
	public := api.Group("")
	public.Use(am.OptionalAuth())
	{
		if cfg.AuthHandler != nil {
			public.POST("/auth/register", cfg.AuthHandler.Register)
			public.POST("/auth/login", cfg.AuthHandler.Login)
		}
		if cfg.BatchHandler != nil {
			public.GET("/batches", cfg.BatchHandler.List)
			public.GET("/batches/:id", cfg.BatchHandler.Get)
		}
		if cfg.CertificateHandler != nil {
			public.GET("/certificates/verify", cfg.CertificateHandler.Verify)
		}
	}

	// Authenticated
	protected := api.Group("")
	protected.Use(am.RequireAuth())
	{
		if cfg.AuthHandler != nil {
			protected.GET("/me", cfg.AuthHandler.Me)
		}
		if cfg.EnrollmentHandler != nil {
			protected.POST("/batches/:id/enroll", cfg.EnrollmentHandler.Enroll)
			protected.GET("/batches/:id/enrollment", cfg.EnrollmentHandler.Get)
			protected.GET("/batches/:id/progress", cfg.EnrollmentHandler.Progress)
			protected.GET("/enrollments", cfg.EnrollmentHandler.ListMine)
		}
		if cfg.TaskHandler != nil {
			protected.GET("/batches/:id/tasks", cfg.TaskHandler.ListForBatch)
			protected.GET("/batches/:id/days", cfg.TaskHandler.Days)
			protected.GET("/tasks/:id", cfg.TaskHandler.Get)
			protected.POST("/tasks/:id/complete", cfg.TaskHandler.Complete)
			protected.DELETE("/tasks/:id/complete", cfg.TaskHandler.Uncomplete)
		}
		if cfg.SubmissionHandler != nil {
			protected.POST("/submissions", cfg.SubmissionHandler.Create)
			protected.GET("/submissions", cfg.SubmissionHandler.List)
			protected.GET("/submissions/:id", cfg.SubmissionHandler.Get)
			protected.PUT("/submissions/:id", cfg.SubmissionHandler.Update)
			protected.DELETE("/submissions/:id", cfg.SubmissionHandler.Delete)
		}
		if cfg.CertificateHandler != nil {
			protected.GET("/batches/:id/certificate", cfg.CertificateHandler.Get)
			protected.GET("/batches/:id/certificate.png", cfg.CertificateHandler.PNG)
		}
		if cfg.UploadHandler != nil {
			protected.POST("/uploads", cfg.UploadHandler.Upload)
		}
	}

	// Admin
	admin := api.Group("/admin")
	admin.Use(am.RequireAuth(), am.RequireRole(types.RoleAdmin))
	{
		if cfg.BatchHandler != nil {
			admin.POST("/batches", cfg.BatchHandler.Create)
			admin.POST("/batches/import", cfg.BatchHandler.Import)
			admin.PUT("/batches/:id", cfg.BatchHandler.Update)
			admin.DELETE("/batches/:id", cfg.BatchHandler.Delete)
		}
		if cfg.TaskHandler != nil {
			admin.GET("/batches/:id/tasks", cfg.TaskHandler.ListForBatch)
			admin.POST("/tasks", cfg.TaskHandler.Create)
			admin.PUT("/tasks/:id", cfg.TaskHandler.Update)
			admin.DELETE("/tasks/:id", cfg.TaskHandler.Delete)
		}
		if cfg.EnrollmentHandler != nil {
			admin.GET("/enrollments", cfg.EnrollmentHandler.ListForBatch)
			admin.DELETE("/enrollments/:id", cfg.EnrollmentHandler.Delete)
		}
		if cfg.SubmissionHandler != nil {
			admin.GET("/submissions", cfg.SubmissionHandler.List)
			admin.POST("/submissions/:id/review", cfg.SubmissionHandler.Review)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   gin.H{"message": "route not found", "code": "not_found"},
		})
	})
	return r
}
