// Package llm exposes the LLM Client (C4) contract: complete(messages,
// options) -> {content, usage}. It is a thin facade over the domain-level
// provider registry, model manager, and fallback executor, adding the
// bounded-retry-with-backoff policy those layers do not themselves apply.
package llm

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/corvid-labs/noema/internal/noema/service/llm/domain/entity"
	"github.com/corvid-labs/noema/internal/noema/service/llm/domain/service"
	"github.com/corvid-labs/noema/internal/noema/service/llm/provider"
	"github.com/corvid-labs/noema/internal/noema/service/llm/store/inmemory"
	"github.com/corvid-labs/noema/internal/pkg/options"
	"github.com/corvid-labs/noema/pkg/logger"
)

// CompletionOptions configures a single completion call.
type CompletionOptions struct {
	ModelRef entity.ModelRef
	Fallback []entity.ModelRef
	Params   *entity.LLMParams

	// MaxRetries bounds retries of the same candidate before moving to the
	// next fallback candidate. 0 means no extra retries (one attempt).
	MaxRetries int

	// BaseBackoff is the initial retry delay; doubled each retry and
	// jittered by up to +/-25%.
	BaseBackoff time.Duration
}

// CompletionResult is the result returned to callers (C6/C7/C8).
type CompletionResult struct {
	Content   string
	ToolCalls []entity.ToolCallResult
	Usage     *entity.TokenUsage
	Ref       entity.ModelRef
}

// Client is the process-wide entry point for chat completion.
type Client struct {
	manager  service.ModelManager
	fallback *service.FallbackExecutor
	registry *provider.Registry
}

// New builds a Client from ModelOptions, wiring the in-tree provider
// registry, in-memory model/provider stores, and the fallback executor.
// Mirrors the teacher's Config -> Complete() -> New() module wiring.
func New(ctx context.Context, opts *options.ModelOptions) (*Client, error) {
	if opts == nil {
		opts = options.NewModelOptions()
	}

	registry := provider.NewInTreeRegistry()
	logger.Info("[llm] provider registry initialized with %d plugins", registry.Len())

	modelStore := inmemory.NewModelStore()
	providerStore := inmemory.NewProviderStore()

	manager := service.NewModelManager(opts, modelStore, providerStore, registry)
	if err := manager.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("llm: initialize model manager: %w", err)
	}

	return &Client{
		manager:  manager,
		fallback: service.NewFallbackExecutor(modelStore, manager),
		registry: registry,
	}, nil
}

// Complete runs a chat completion over messages, retrying the active
// candidate with backoff+jitter on retryable errors before moving on to
// the next fallback candidate (see entity.FailoverReason.ShouldFailover).
// Non-retryable 4xx-class errors (format errors) fail fast without burning
// the retry budget.
func (c *Client) Complete(ctx context.Context, messages []*schema.Message, opts CompletionOptions) (*CompletionResult, error) {
	cfg := entity.FallbackConfig{
		Primary:        opts.ModelRef,
		Fallbacks:      opts.Fallback,
		SkipOnCooldown: true,
	}

	backoff := opts.BaseBackoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}

	run := func(ctx context.Context, cm einoModel.BaseChatModel) (*schema.Message, error) {
		var lastErr error
		for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
			msg, err := cm.Generate(ctx, messages)
			if err == nil {
				return msg, nil
			}
			lastErr = err
			reason := entity.ClassifyError(err)
			if !reason.IsRetryable() || attempt == opts.MaxRetries {
				return nil, err
			}
			if sleepErr := sleepWithJitter(ctx, backoff*(1<<attempt)); sleepErr != nil {
				return nil, sleepErr
			}
		}
		return nil, lastErr
	}

	result := service.RunWithFallback(ctx, c.fallback, cfg, opts.Params, run, nil)
	if !result.OK {
		return nil, result.AllFailedError()
	}

	return &CompletionResult{
		Content:   result.Value.Content,
		ToolCalls: toolCallsFromSchema(result.Value),
		Usage:     usageFromSchema(result.Value),
		Ref:       result.Ref,
	}, nil
}

// Manager exposes the underlying ModelManager for callers (e.g. the
// orchestrator's startup health check) that need registry introspection.
func (c *Client) Manager() service.ModelManager {
	return c.manager
}

func sleepWithJitter(ctx context.Context, d time.Duration) error {
	jitter := time.Duration(rand.Int63n(int64(d)/2+1)) - d/4
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d + jitter):
		return nil
	}
}

func toolCallsFromSchema(msg *schema.Message) []entity.ToolCallResult {
	if msg == nil || len(msg.ToolCalls) == 0 {
		return nil
	}
	out := make([]entity.ToolCallResult, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		out = append(out, entity.ToolCallResult{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}

// usageFromSchema prefers the provider-reported usage (ResponseMeta.Usage);
// providers that omit it fall back to a character-based estimate so callers
// always get a usable token count for context-window accounting (C5).
func usageFromSchema(msg *schema.Message) *entity.TokenUsage {
	if msg == nil {
		return nil
	}
	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		u := msg.ResponseMeta.Usage
		return &entity.TokenUsage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	completion := estimateTokens(msg.Content)
	return &entity.TokenUsage{
		CompletionTokens: completion,
		TotalTokens:      completion,
	}
}

// estimateTokens is the same ~3.5-chars-per-token heuristic the context
// runtime's TokenEstimator uses, inlined here to avoid a dependency from
// C4 onto C5.
func estimateTokens(s string) int {
	if s == "" {
		return 0
	}
	runeCount := 0
	for range s {
		runeCount++
	}
	return int(float64(runeCount)/3.5) + 1
}
