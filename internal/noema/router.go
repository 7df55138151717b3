package noema

import (
	"github.com/gin-gonic/gin"

	"github.com/corvid-labs/noema/internal/noema/handler/middleware"
	v1 "github.com/corvid-labs/noema/internal/noema/handler/v1"
	"github.com/corvid-labs/noema/internal/noema/orchestrator"
	llmService "github.com/corvid-labs/noema/internal/noema/service/llm/domain/service"
)

// routerDeps holds the dependencies needed for route registration.
type routerDeps struct {
	orch          *orchestrator.Orchestrator
	llmManager    llmService.ModelManager
	authConfig    *middleware.AuthConfig
	gatewayConfig *GatewayConfig
}

func initRouter(g *gin.Engine, deps *routerDeps) {
	installMiddleware(g, deps)
	installController(g, deps)
}

func installMiddleware(g *gin.Engine, deps *routerDeps) {
	g.Use(gin.Recovery())

	if deps.authConfig != nil {
		g.Use(middleware.BearerAuth(deps.authConfig))
	}
}

func installController(g *gin.Engine, deps *routerDeps) {
	modelHandler := v1.NewModelHandler(deps.llmManager)
	orchHandler := v1.NewOrchestratorHandler(deps.orch)
	healthHandler := v1.NewHealthHandler(deps.orch)
	versionHandler := v1.NewVersionHandler()

	g.GET("/healthz", healthHandler.Get)
	g.GET("/version", versionHandler.Get)

	apiV1 := g.Group("/v1")
	{
		// OpenAI-compatible model listing, kept so existing clients can
		// discover the configured providers.
		apiV1.GET("/models", modelHandler.List)

		// Learning session orchestration.
		apiV1.POST("/orchestrate", orchHandler.Orchestrate)
		apiV1.GET("/sessions/:id", orchHandler.Get)
		apiV1.DELETE("/sessions/:id", orchHandler.Cancel)
		apiV1.GET("/sessions/:id/events", orchHandler.Events)
		apiV1.POST("/sessions/:id/stages/:name", orchHandler.ExecuteStage)
	}
}
