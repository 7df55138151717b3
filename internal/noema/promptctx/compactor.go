package promptctx

import (
	"context"
	"fmt"
	"strings"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/corvid-labs/noema/pkg/logger"
)

// Compactor summarizes old history with the LLM when it grows past a
// threshold of the usable window, replacing the summarized span with a
// short summary while keeping the most recent turns verbatim. Large tool
// results inside the summarized span are externalized to a file reference
// instead of being dropped, so the information is never silently lost —
// only moved out of the hot context (§4.5's "lossless" compaction).
type Compactor struct {
	estimator           *TokenEstimator
	compactionThreshold float64
	keepRecentTurns     int
}

// CompactorConfig configures compaction thresholds.
type CompactorConfig struct {
	CompactionThreshold float64
	KeepRecentTurns     int
}

// DefaultCompactorConfig returns the default thresholds.
func DefaultCompactorConfig() CompactorConfig {
	return CompactorConfig{CompactionThreshold: 0.8, KeepRecentTurns: 3}
}

// NewCompactor creates a Compactor.
func NewCompactor(estimator *TokenEstimator, cfg CompactorConfig) *Compactor {
	if cfg.CompactionThreshold <= 0 {
		cfg.CompactionThreshold = 0.8
	}
	if cfg.KeepRecentTurns <= 0 {
		cfg.KeepRecentTurns = 3
	}
	return &Compactor{estimator: estimator, compactionThreshold: cfg.CompactionThreshold, keepRecentTurns: cfg.KeepRecentTurns}
}

// ShouldCompact reports whether history has grown past the threshold.
func (c *Compactor) ShouldCompact(history []*schema.Message, window WindowInfo) bool {
	if len(history) == 0 {
		return false
	}
	estimated := c.estimator.EstimateMessages(history)
	return float64(estimated)/float64(window.UsableTokens) > c.compactionThreshold
}

// CompactResult is the outcome of a compaction pass.
type CompactResult struct {
	Summary      string
	KeptFrom     int      // index into the original history where verbatim retention starts
	Externalized []string // placeholder references written in place of large tool results
}

// Externalizer persists a large tool result out-of-band (e.g. as a vault
// note or scratch file) and returns a short reference string to embed in
// the compacted history in its place.
type Externalizer func(ctx context.Context, content string) (reference string, err error)

// Compact summarizes history[:splitPoint] with chatModel, externalizing any
// individual tool result over externalizeChars before it enters the
// summarization prompt, and returns the summary plus the verbatim tail.
func (c *Compactor) Compact(
	ctx context.Context,
	history []*schema.Message,
	chatModel einoModel.BaseChatModel,
	window WindowInfo,
	externalizeChars int,
	externalize Externalizer,
) (CompactResult, error) {
	if len(history) == 0 {
		return CompactResult{}, fmt.Errorf("promptctx: no history to compact")
	}

	splitIdx := c.findSplitPoint(history)
	if splitIdx <= 0 {
		return CompactResult{}, fmt.Errorf("promptctx: not enough history to compact (%d messages)", len(history))
	}

	toSummarize := make([]*schema.Message, len(history[:splitIdx]))
	copy(toSummarize, history[:splitIdx])

	var externalized []string
	if externalizeChars > 0 && externalize != nil {
		for i, msg := range toSummarize {
			if msg.Role != schema.Tool || len([]rune(msg.Content)) <= externalizeChars {
				continue
			}
			ref, err := externalize(ctx, msg.Content)
			if err != nil {
				logger.Warn("[promptctx] externalize failed for message %d: %v", i, err)
				continue
			}
			externalized = append(externalized, ref)
			cp := *msg
			cp.Content = fmt.Sprintf("[tool result externalized, %d chars, see %s]", len([]rune(msg.Content)), ref)
			toSummarize[i] = &cp
		}
	}

	summaryBudget := window.UsableTokens / 5
	if summaryBudget < 1000 {
		summaryBudget = 1000
	}

	summary, err := c.summarizeChunk(ctx, chatModel, toSummarize, "", summaryBudget)
	if err != nil {
		return CompactResult{}, fmt.Errorf("promptctx: summarization failed: %w", err)
	}

	return CompactResult{Summary: summary, KeptFrom: splitIdx, Externalized: externalized}, nil
}

func (c *Compactor) findSplitPoint(messages []*schema.Message) int {
	turnsFound := 0
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == schema.User {
			turnsFound++
			if turnsFound >= c.keepRecentTurns {
				return i
			}
		}
	}
	if len(messages) > 1 {
		return len(messages) - 1
	}
	return 0
}

func (c *Compactor) summarizeChunk(ctx context.Context, chatModel einoModel.BaseChatModel, messages []*schema.Message, existingSummary string, maxTokens int) (string, error) {
	var b strings.Builder
	b.WriteString("Summarize the following conversation concisely, preserving key decisions, facts, tool results still relevant, and user preferences.\n")
	fmt.Fprintf(&b, "Keep the summary under %d tokens.\n\n", maxTokens)
	if existingSummary != "" {
		b.WriteString("Previous summary:\n")
		b.WriteString(existingSummary)
		b.WriteString("\n\n---\n\nNew messages:\n\n")
	}
	for _, msg := range messages {
		content := msg.Content
		if runes := []rune(content); len(runes) > 2000 {
			content = string(runes[:1000]) + "\n...[truncated]...\n" + string(runes[len(runes)-500:])
		}
		fmt.Fprintf(&b, "[%s]: %s\n\n", msg.Role, content)
	}

	resp, err := chatModel.Generate(ctx, []*schema.Message{
		{Role: schema.System, Content: "You are a precise conversation summarizer. Output only the summary, no preamble."},
		{Role: schema.User, Content: b.String()},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}
