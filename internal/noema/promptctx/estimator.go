// Package promptctx implements the Context Manager (C5): five-section
// prompt assembly (static prefix, tool catalogue, tiered note block, user
// state, append-only history), token estimation, context-window pruning,
// and lossless history compaction with file-reference externalisation.
package promptctx

import "github.com/cloudwego/eino/schema"

// TokenEstimator approximates token counts with a character-based
// heuristic, since the corpus carries no local tokenizer. Adapted from the
// teacher's context-runtime token estimator; same ~3.5 chars/token ratio.
type TokenEstimator struct {
	charsPerToken float64
}

const (
	defaultCharsPerToken = 3.5
	perMessageOverhead   = 4
)

// NewTokenEstimator builds an estimator. ratio <= 0 uses the default.
func NewTokenEstimator(charsPerToken float64) *TokenEstimator {
	if charsPerToken <= 0 {
		charsPerToken = defaultCharsPerToken
	}
	return &TokenEstimator{charsPerToken: charsPerToken}
}

// EstimateString estimates the token count of a raw string.
func (te *TokenEstimator) EstimateString(s string) int {
	if len(s) == 0 {
		return 0
	}
	runeCount := 0
	for range s {
		runeCount++
	}
	return int(float64(runeCount)/te.charsPerToken) + 1
}

// EstimateMessage estimates the token count of a single message, including
// tool-call framing overhead.
func (te *TokenEstimator) EstimateMessage(msg *schema.Message) int {
	if msg == nil {
		return 0
	}
	tokens := perMessageOverhead
	tokens += te.EstimateString(msg.Content)
	tokens += te.EstimateString(msg.Name)
	for _, tc := range msg.ToolCalls {
		tokens += te.EstimateString(tc.Function.Name)
		tokens += te.EstimateString(tc.Function.Arguments)
		tokens += 4
	}
	return tokens
}

// EstimateMessages sums EstimateMessage over a slice.
func (te *TokenEstimator) EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, msg := range msgs {
		total += te.EstimateMessage(msg)
	}
	return total
}
