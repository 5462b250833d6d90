package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Onebillie/onebillconvo-sub004/internal/handler"
	"github.com/Onebillie/onebillconvo-sub004/internal/middleware"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	businesses port.BusinessRepository,
	allowedOrigins []string,
	healthH *handler.HealthHandler,
	ingestH *handler.IngestHandler,
	parseH *handler.ParseResultHandler,
	submissionH *handler.SubmissionHandler,
	workflowH *handler.WorkflowHandler,
	endpointH *handler.WebhookEndpointHandler,
	profileH *handler.ProfileHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	// All API routes are tenant-scoped via the X-Business-ID header.
	v1 := r.Group("/api/v1")
	v1.Use(middleware.BusinessContext(businesses))

	// Ingestion
	v1.POST("/ingest", ingestH.Ingest)

	// Parse results
	parses := v1.Group("/parse-results")
	parses.GET("", parseH.List)
	parses.GET("/:id", parseH.GetByID)
	parses.POST("/:id/requeue", parseH.Requeue)

	// Submissions. Export is registered before the id route so gin does
	// not treat "export" as an id parameter.
	subs := v1.Group("/submissions")
	subs.GET("", submissionH.List)
	subs.GET("/export", submissionH.Export)
	subs.GET("/:id", submissionH.GetByID)

	// Workflows
	workflows := v1.Group("/workflows")
	workflows.POST("", workflowH.Create)
	workflows.GET("", workflowH.List)
	workflows.GET("/:id", workflowH.GetByID)
	workflows.DELETE("/:id", workflowH.Delete)
	workflows.POST("/:id/trigger", workflowH.Trigger)

	v1.GET("/executions/:id", workflowH.GetExecution)
	v1.GET("/executions/:id/audit", workflowH.ExecutionAudit)

	// Webhook endpoints
	endpoints := v1.Group("/webhook-endpoints")
	endpoints.POST("", endpointH.Create)
	endpoints.GET("", endpointH.List)
	endpoints.DELETE("/:id", endpointH.Delete)

	// Pipeline profile
	v1.GET("/pipeline-profile", profileH.Get)
	v1.PUT("/pipeline-profile", profileH.Update)

	return r
}
