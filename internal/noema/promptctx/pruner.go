package promptctx

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/corvid-labs/noema/pkg/logger"
)

// Pruner fits a message list within a token budget by soft-trimming, then
// hard-clearing, old tool results. Adapted from the teacher's two-stage
// context pruner; protected messages (the most recent assistant turns) are
// never touched.
type Pruner struct {
	estimator *TokenEstimator
	config    PrunerConfig
}

// PrunerConfig holds tunable pruning thresholds.
type PrunerConfig struct {
	SoftTrimRatio      float64
	HardClearRatio     float64
	SoftTrimHeadChars  int
	SoftTrimTailChars  int
	KeepLastAssistants int
}

// DefaultPrunerConfig returns the defaults used when none are supplied.
func DefaultPrunerConfig() PrunerConfig {
	return PrunerConfig{
		SoftTrimRatio:      0.3,
		HardClearRatio:     0.5,
		SoftTrimHeadChars:  1500,
		SoftTrimTailChars:  1500,
		KeepLastAssistants: 3,
	}
}

// NewPruner creates a Pruner, filling in any zero-valued config fields.
func NewPruner(estimator *TokenEstimator, config PrunerConfig) *Pruner {
	if config.SoftTrimRatio <= 0 {
		config.SoftTrimRatio = 0.3
	}
	if config.HardClearRatio <= 0 {
		config.HardClearRatio = 0.5
	}
	if config.SoftTrimHeadChars <= 0 {
		config.SoftTrimHeadChars = 1500
	}
	if config.SoftTrimTailChars <= 0 {
		config.SoftTrimTailChars = 1500
	}
	if config.KeepLastAssistants <= 0 {
		config.KeepLastAssistants = 3
	}
	return &Pruner{estimator: estimator, config: config}
}

// PruneResult holds the outcome of a pruning pass.
type PruneResult struct {
	Messages        []*schema.Message
	EstimatedTokens int
	SoftTrimmed     int
	HardCleared     int
}

// Prune fits messages within usableTokens, returning copies — the input
// slice and its messages are never mutated.
func (p *Pruner) Prune(messages []*schema.Message, usableTokens int) PruneResult {
	if usableTokens <= 0 || len(messages) == 0 {
		return PruneResult{Messages: messages, EstimatedTokens: p.estimator.EstimateMessages(messages)}
	}

	estimated := p.estimator.EstimateMessages(messages)
	ratio := float64(estimated) / float64(usableTokens)
	if ratio <= p.config.SoftTrimRatio {
		return PruneResult{Messages: messages, EstimatedTokens: estimated}
	}

	pruned := deepCopyMessages(messages)
	protectFrom := p.findProtectionBoundary(pruned)

	var result PruneResult
	if ratio > p.config.SoftTrimRatio {
		result.SoftTrimmed = p.applySoftTrim(pruned, protectFrom)
		estimated = p.estimator.EstimateMessages(pruned)
		ratio = float64(estimated) / float64(usableTokens)
		logger.Debug("[promptctx] after soft-trim: %d tokens (ratio=%.2f), trimmed %d", estimated, ratio, result.SoftTrimmed)
	}
	if ratio > p.config.HardClearRatio {
		result.HardCleared = p.applyHardClear(pruned, protectFrom)
		estimated = p.estimator.EstimateMessages(pruned)
		logger.Debug("[promptctx] after hard-clear: %d tokens, cleared %d", estimated, result.HardCleared)
	}

	result.Messages = pruned
	result.EstimatedTokens = estimated
	return result
}

func (p *Pruner) applySoftTrim(messages []*schema.Message, protectFrom int) int {
	trimmed := 0
	maxKeep := p.config.SoftTrimHeadChars + p.config.SoftTrimTailChars
	for i := 0; i < protectFrom; i++ {
		msg := messages[i]
		if msg.Role != schema.Tool {
			continue
		}
		runes := []rune(msg.Content)
		if len(runes) <= maxKeep {
			continue
		}
		head := string(runes[:p.config.SoftTrimHeadChars])
		tail := string(runes[len(runes)-p.config.SoftTrimTailChars:])
		msg.Content = fmt.Sprintf("%s\n\n... [%d characters truncated] ...\n\n%s", head, len(runes)-maxKeep, tail)
		trimmed++
	}
	return trimmed
}

func (p *Pruner) applyHardClear(messages []*schema.Message, protectFrom int) int {
	cleared := 0
	for i := 0; i < protectFrom; i++ {
		msg := messages[i]
		if msg.Role != schema.Tool {
			continue
		}
		if strings.HasPrefix(msg.Content, "[old tool result cleared]") {
			continue
		}
		msg.Content = "[old tool result cleared]"
		cleared++
	}
	return cleared
}

func (p *Pruner) findProtectionBoundary(messages []*schema.Message) int {
	assistantCount := 0
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == schema.Assistant {
			assistantCount++
			if assistantCount >= p.config.KeepLastAssistants {
				return i
			}
		}
	}
	return 0
}

func deepCopyMessages(messages []*schema.Message) []*schema.Message {
	result := make([]*schema.Message, len(messages))
	for i, msg := range messages {
		cp := *msg
		result[i] = &cp
	}
	return result
}
