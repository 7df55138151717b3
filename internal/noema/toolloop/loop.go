// Package toolloop drives a bounded sequence of LLM calls interleaved with
// structured tool invocations parsed from the model's own output. It never
// recurses: the depth ceiling is enforced by an ordinary for loop, so stack
// usage stays flat regardless of how deep a conversation goes.
package toolloop

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/corvid-labs/noema/internal/noema/llm"
	"github.com/corvid-labs/noema/internal/noema/service/plugin"
	"github.com/corvid-labs/noema/internal/noema/toolloop/errno"
	"github.com/corvid-labs/noema/pkg/logger"
)

const DefaultMaxDepth = 5

// Completer is the subset of the LLM Client the loop depends on. Satisfied
// by *llm.Client; accepting the interface keeps the loop testable with a
// stub model.
type Completer interface {
	Complete(ctx context.Context, messages []*schema.Message, opts llm.CompletionOptions) (*llm.CompletionResult, error)
}

// Invocation records one dispatched tool call for the caller's audit trail.
type Invocation struct {
	AgentName   string
	AgentType   string
	Query       string
	Args        map[string]string
	Observation string
	Err         error
}

// Result is the outcome of one Run call.
type Result struct {
	FinalAnswer  string
	History      []*schema.Message
	Invocations  []Invocation
	DepthReached int
}

// Loop dispatches TOOL_REQUEST blocks against a shared, name-keyed tool
// registry and drives the LLM until it stops asking for tools or the depth
// ceiling is hit.
type Loop struct {
	client   Completer
	registry *plugin.Registry
	maxDepth int
}

// New creates a Loop. maxDepth <= 0 selects DefaultMaxDepth.
func New(client Completer, registry *plugin.Registry, maxDepth int) *Loop {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Loop{client: client, registry: registry, maxDepth: maxDepth}
}

// Run calls the LLM with messages, dispatching any tool requests the model
// emits, until it produces a plain answer or the depth ceiling forces one.
func (l *Loop) Run(ctx context.Context, messages []*schema.Message, opts llm.CompletionOptions) (Result, error) {
	history := make([]*schema.Message, len(messages))
	copy(history, messages)

	var invocations []Invocation

	for depth := 0; ; depth++ {
		if depth >= l.maxDepth {
			logger.Warn("[toolloop] depth %d reached ceiling %d, forcing final answer", depth, l.maxDepth)
			history = append(history, &schema.Message{Role: schema.User, Content: "The tool-call budget for this turn is exhausted. Answer now using only what you already know, without requesting any further tools."})
			final, err := l.client.Complete(ctx, history, opts)
			if err != nil {
				return Result{History: history, Invocations: invocations, DepthReached: depth}, fmt.Errorf("toolloop: forced final answer call: %w", err)
			}
			history = append(history, &schema.Message{Role: schema.Assistant, Content: final.Content})
			return Result{FinalAnswer: final.Content, History: history, Invocations: invocations, DepthReached: depth}, nil
		}

		resp, err := l.client.Complete(ctx, history, opts)
		if err != nil {
			return Result{History: history, Invocations: invocations, DepthReached: depth}, fmt.Errorf("toolloop: llm call at depth %d: %w", depth, err)
		}

		requests := ParseRequests(resp.Content)
		if len(requests) == 0 {
			history = append(history, &schema.Message{Role: schema.Assistant, Content: resp.Content})
			return Result{FinalAnswer: resp.Content, History: history, Invocations: invocations, DepthReached: depth}, nil
		}

		observations := make([]string, 0, len(requests))
		for _, r := range requests {
			switch v := r.(type) {
			case *Request:
				obs, err := l.dispatch(ctx, v)
				inv := Invocation{AgentName: v.AgentName, AgentType: v.AgentType, Query: v.Query, Args: v.Args, Observation: obs, Err: err}
				invocations = append(invocations, inv)
				if err != nil {
					observations = append(observations, fmt.Sprintf("tool %q failed: %s", v.AgentName, err.Error()))
				} else {
					observations = append(observations, fmt.Sprintf("tool %q result: %s", v.AgentName, obs))
				}
			case *ParseError:
				invocations = append(invocations, Invocation{Err: v})
				observations = append(observations, fmt.Sprintf("tool request parse error: %s", v.Error()))
			}
		}

		history = append(history, &schema.Message{Role: schema.Assistant, Content: resp.Content})
		history = append(history, &schema.Message{Role: schema.User, Content: strings.Join(observations, "\n\n")})
	}
}

func (l *Loop) dispatch(ctx context.Context, req *Request) (string, error) {
	tools := l.registry.GetTools()
	tool, ok := tools[req.AgentName]
	if !ok {
		return "", fmt.Errorf("%w: %q", errno.ErrUnknownTool, req.AgentName)
	}

	params := make(map[string]interface{}, len(req.Args)+1)
	for k, v := range req.Args {
		params[k] = v
	}
	if req.Query != "" {
		params["query"] = req.Query
	}

	result, err := tool.Handler(ctx, params)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v", result), nil
}
