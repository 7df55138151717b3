package noema

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	"github.com/corvid-labs/noema/internal/noema/agents"
	"github.com/corvid-labs/noema/internal/noema/config"
	"github.com/corvid-labs/noema/internal/noema/linkgraph"
	"github.com/corvid-labs/noema/internal/noema/llm"
	"github.com/corvid-labs/noema/internal/noema/orchestrator"
	"github.com/corvid-labs/noema/internal/noema/promptctx"
	llmEntity "github.com/corvid-labs/noema/internal/noema/service/llm/domain/entity"
	llmService "github.com/corvid-labs/noema/internal/noema/service/llm/domain/service"
	"github.com/corvid-labs/noema/internal/noema/service/mcp"
	"github.com/corvid-labs/noema/internal/noema/service/plugin"
	"github.com/corvid-labs/noema/internal/noema/service/plugin/builtin"
	"github.com/corvid-labs/noema/internal/noema/service/plugin/prompt"
	"github.com/corvid-labs/noema/internal/noema/toolloop"
	"github.com/corvid-labs/noema/internal/noema/vault"
	"github.com/corvid-labs/noema/pkg/logger"
	"github.com/corvid-labs/noema/pkg/safego"
)

// apiServer holds every long-lived collaborator the process needs, wired
// once at startup and torn down in reverse order on shutdown.
type apiServer struct {
	httpServer      *http.Server
	pluginFramework *plugin.Framework
	mcpModule       *mcp.Module
	orch            *orchestrator.Orchestrator
}

type preparedAPIServer struct {
	*apiServer
}

// createAPIServer builds the vault, link graph, LLM client, plugin
// framework, MCP bridge, tool loop, and orchestrator, then wires the HTTP
// router on top of them.
func createAPIServer(cfg *config.Config) (*apiServer, error) {
	ctx := context.Background()

	store, err := vault.NewStore(cfg.VaultOptions.Root)
	if err != nil {
		return nil, fmt.Errorf("open vault store: %w", err)
	}

	notes, err := store.List()
	if err != nil {
		return nil, fmt.Errorf("list vault notes: %w", err)
	}

	linkEngine := linkgraph.New(cfg.LinkOptions.DensityK)
	linkEngine.Rebuild(notes)
	logger.Info("[noema] link graph built from %d notes", len(notes))

	llmClient, err := llm.New(ctx, cfg.ModelOptions)
	if err != nil {
		return nil, fmt.Errorf("initialize LLM client: %w", err)
	}
	logger.Info("[noema] LLM client initialized")

	pluginCfg := &plugin.Config{
		SlotConfig: plugin.SlotConfig{
			"vault": cfg.PluginOptions.Slots.Vault,
		},
		RuntimeAPI: plugin.NewRuntimeAPI(&modelManagerAdapter{llmClient.Manager()}),
	}
	pluginFramework := pluginCfg.Complete().New()

	// The prompt pipeline is attached before Init() so plugins that
	// implement PromptProvider get their sections registered automatically.
	promptPipeline := prompt.NewDefaultPipeline()
	pluginFramework.SetPromptPipeline(promptPipeline)

	if cfg.PluginOptions.Enabled {
		inTreeRegistry := builtin.NewInTreeRegistry(cfg.PluginOptions, store, linkEngine)
		if err := inTreeRegistry.ApplyTo(pluginFramework); err != nil {
			return nil, fmt.Errorf("register in-tree plugins: %w", err)
		}
		if err := pluginFramework.Init(); err != nil {
			return nil, fmt.Errorf("initialize plugin framework: %w", err)
		}
		if err := pluginFramework.Start(ctx); err != nil {
			return nil, fmt.Errorf("start plugin framework: %w", err)
		}
		logger.Info("[noema] plugin framework initialized (%d plugins loaded)", pluginFramework.Registry().Len())
	} else {
		logger.Info("[noema] plugin framework disabled (plugins.enabled=false), skipping plugin loading")
	}

	mcpFileCfg, err := mcp.LoadMCPConfig(cfg.MCPOptions.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("load MCP config from %q: %w", cfg.MCPOptions.ConfigFile, err)
	}
	mcpModule, err := (&mcp.Config{MCPConfig: mcpFileCfg}).Complete().New(ctx)
	if err != nil {
		return nil, fmt.Errorf("create MCP module: %w", err)
	}
	logger.Info("[noema] MCP module initialized (%d servers configured)", len(mcpFileCfg.MCPServers))

	mcpDefs := mcp.ToolDefinitions(mcpModule.Manager)
	mcpNames := make(map[string]bool, len(mcpDefs))
	for _, def := range mcpDefs {
		mcpNames[def.Name] = true
		pluginFramework.Registry().RegisterExternalTool("mcp", def)
	}

	defaultRef := llmEntity.ModelRef{
		ProviderID: cfg.ModelOptions.DefaultProvider,
		ModelID:    cfg.ModelOptions.DefaultModel,
	}

	estimator := promptctx.NewTokenEstimator(cfg.ContextOptions.CharsPerToken)
	pruner := promptctx.NewPruner(estimator, promptctx.DefaultPrunerConfig())
	builder := promptctx.NewBuilder(estimator, pruner, cfg.ContextOptions.ExternalizeBodyChars)

	windowGuard := promptctx.NewWindowGuard(llmClient.Manager(), cfg.ContextOptions.DefaultWindowTokens)
	window := windowGuard.Resolve(ctx, defaultRef)

	loop := toolloop.New(llmClient, pluginFramework.Registry(), cfg.ToolLoopOptions.MaxDepth)

	catalogueTools, promptTools := toolCatalogue(pluginFramework.Registry(), mcpNames)

	preamble, err := promptPipeline.Assemble(ctx, &prompt.PromptContext{
		Mode:      prompt.PromptModeFull,
		Tools:     promptTools,
		ModelName: defaultRef.String(),
		Now:       time.Now(),
	})
	if err != nil {
		logger.Warn("[noema] prompt pipeline assembly error: %v", err)
	}

	deps := agents.Deps{
		Builder: builder,
		Tools:   catalogueTools,
		Window:  window,
		Loop:    loop,
		Options: llm.CompletionOptions{
			ModelRef:    defaultRef,
			MaxRetries:  cfg.RetryOptions.MaxAttempts,
			BaseBackoff: cfg.RetryOptions.BaseDelay(),
		},
		Engine:         linkEngine,
		Store:          store,
		PromptPreamble: preamble,
	}

	assembler := orchestrator.NewVaultAssembler(store, linkEngine)
	assembler.TierConfig = promptctx.TierConfig{
		ThresholdFull:    cfg.ContextOptions.ThresholdFull,
		ThresholdSummary: cfg.ContextOptions.ThresholdSummary,
		ThresholdTitle:   cfg.ContextOptions.ThresholdTitle,
		MaxFull:          cfg.ContextOptions.MaxFull,
		MaxSummary:       cfg.ContextOptions.MaxSummary,
		MaxTitle:         cfg.ContextOptions.MaxTitle,
	}
	orchCfg := orchestrator.Config{
		MaxConcurrent:      cfg.SessionOptions.MaxConcurrent,
		TTL:                time.Duration(cfg.SessionOptions.TTLSeconds) * time.Second,
		ProgressBufferSize: cfg.SessionOptions.ProgressBufferSize,
		MaxPathLength:      cfg.SessionOptions.MaxPathLength,
		StorePath:          cfg.SessionOptions.StorePath,
	}
	orch := orchestrator.New(deps, assembler, orchCfg)

	gatewayCfg := DefaultGatewayConfig()
	gatewayCfg.Auth.Token = cfg.ServerOptions.BearerToken
	gatewayCfg.Auth.Enabled = cfg.ServerOptions.BearerToken != ""

	r := gin.New()
	initRouter(r, &routerDeps{
		orch:          orch,
		llmManager:    llmClient.Manager(),
		authConfig:    &gatewayCfg.Auth,
		gatewayConfig: gatewayCfg,
	})
	if cfg.ServerOptions.EnablePprof {
		pprof.Register(r)
		logger.Info("[noema] pprof routes registered under /debug/pprof")
	}

	addr := fmt.Sprintf("%s:%d", cfg.ServerOptions.BindAddress, cfg.ServerOptions.BindPort)
	return &apiServer{
		httpServer:      &http.Server{Addr: addr, Handler: r},
		pluginFramework: pluginFramework,
		mcpModule:       mcpModule,
		orch:            orch,
	}, nil
}

// toolCatalogue renders the registry's tools into the two shapes the
// Context Manager (promptctx) and the prompt pipeline each need, tagging
// entries registered by the MCP bridge so ToolingSection can group them
// separately from built-in plugin tools.
func toolCatalogue(registry *plugin.Registry, mcpNames map[string]bool) ([]promptctx.ToolSummary, []prompt.ToolSummary) {
	tools := registry.GetTools()
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	catalogue := make([]promptctx.ToolSummary, 0, len(names))
	promptSummaries := make([]prompt.ToolSummary, 0, len(names))
	for _, name := range names {
		def := tools[name]
		catalogue = append(catalogue, promptctx.ToolSummary{Name: def.Name, Description: def.Description})
		source := "plugin"
		if mcpNames[name] {
			source = "mcp"
		}
		promptSummaries = append(promptSummaries, prompt.ToolSummary{
			Name:        def.Name,
			Description: def.Description,
			Source:      source,
		})
	}
	return catalogue, promptSummaries
}

func (s *apiServer) PrepareRun() preparedAPIServer {
	return preparedAPIServer{s}
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM, then closes
// the orchestrator (stopping its reaper and session store; stages already
// running are not waited for), stops the plugin framework, closes the MCP
// connections, and shuts the HTTP server down before returning.
func (s preparedAPIServer) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	safego.Go(ctx, func() {
		logger.Info("[noema] listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	})

	select {
	case <-ctx.Done():
		logger.Info("[noema] shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.orch.Close()
	if s.pluginFramework != nil {
		if err := s.pluginFramework.Stop(shutdownCtx); err != nil {
			logger.Warn("[noema] plugin framework stop error: %v", err)
		}
	}
	if s.mcpModule != nil {
		if err := s.mcpModule.Close(); err != nil {
			logger.Warn("[noema] MCP module close error: %v", err)
		}
	}

	return s.httpServer.Shutdown(shutdownCtx)
}

// --- ModelManager adapter ---
//
// Bridges the plugin package's string-based ModelManager (string provider
// and model IDs, decoupled from the LLM domain package) to the concrete
// entity-based llm ModelManager.
type modelManagerAdapter struct {
	llmManager llmService.ModelManager
}

var _ plugin.ModelManager = (*modelManagerAdapter)(nil)

func (m modelManagerAdapter) GetChatModel(ctx context.Context, provideID, modelID string) (model.BaseChatModel, error) {
	ref := llmEntity.ModelRef{ProviderID: provideID, ModelID: modelID}
	return m.llmManager.GetChatModel(ctx, ref)
}

func (m modelManagerAdapter) GetDefaultChatModel(ctx context.Context) (model.BaseChatModel, error) {
	return m.llmManager.GetDefaultChatModel(ctx)
}
