package promptctx

import (
	"context"

	llmEntity "github.com/corvid-labs/noema/internal/noema/service/llm/domain/entity"
	llmService "github.com/corvid-labs/noema/internal/noema/service/llm/domain/service"
	"github.com/corvid-labs/noema/pkg/logger"
)

// Window constants, adapted from the teacher's context-window guard.
const (
	HardMinimumWindow = 16_000
	WarnWindow        = 32_000
	DefaultWindow     = 200_000
)

// WindowInfo holds the resolved context-window budget for a turn.
type WindowInfo struct {
	WindowSize    int
	ReserveTokens int
	UsableTokens  int
}

// WindowGuard resolves the effective context window for a model, enforcing
// a hard minimum and warning on small windows.
type WindowGuard struct {
	manager       llmService.ModelManager
	defaultWindow int
}

// NewWindowGuard creates a guard backed by the given model manager.
func NewWindowGuard(manager llmService.ModelManager, defaultWindow int) *WindowGuard {
	if defaultWindow <= 0 {
		defaultWindow = DefaultWindow
	}
	return &WindowGuard{manager: manager, defaultWindow: defaultWindow}
}

// Resolve determines the usable token budget for ref.
func (g *WindowGuard) Resolve(ctx context.Context, ref llmEntity.ModelRef) WindowInfo {
	windowSize := g.defaultWindow
	reserveTokens := 4096

	if g.manager != nil {
		if model, err := g.manager.GetModelByRef(ctx, ref); err == nil && model != nil {
			if model.ContextWindow > 0 {
				windowSize = model.ContextWindow
			}
			if model.MaxTokens > 0 {
				reserveTokens = model.MaxTokens
			}
		}
	}

	if windowSize < HardMinimumWindow {
		logger.WarnX("[promptctx] resolved window below hard minimum", "windowSize", windowSize, "hardMinimum", HardMinimumWindow)
		windowSize = HardMinimumWindow
	} else if windowSize < WarnWindow {
		logger.WarnX("[promptctx] resolved window below warn threshold", "windowSize", windowSize, "warnThreshold", WarnWindow)
	}

	if reserveTokens > windowSize/2 {
		reserveTokens = windowSize / 2
	}

	return WindowInfo{
		WindowSize:    windowSize,
		ReserveTokens: reserveTokens,
		UsableTokens:  windowSize - reserveTokens,
	}
}
