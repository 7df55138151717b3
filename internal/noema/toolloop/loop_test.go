package toolloop

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/corvid-labs/noema/internal/noema/llm"
	"github.com/corvid-labs/noema/internal/noema/service/plugin"
)

type stubPlugin struct{ tools []plugin.ToolDefinition }

func (s *stubPlugin) Name() string                    { return "stub-tools" }
func (s *stubPlugin) Tools() []plugin.ToolDefinition { return s.tools }

func newTestRegistry(t *testing.T, tools ...plugin.ToolDefinition) *plugin.Registry {
	t.Helper()
	fw := (&plugin.Config{}).Complete().New()
	err := fw.RegisterFactory(
		plugin.Definition{ID: "stub-tools", Name: "stub-tools", Kind: "general"},
		func(args plugin.PluginArgs, handle plugin.Handle) (plugin.Plugin, error) {
			return &stubPlugin{tools: tools}, nil
		},
		nil,
	)
	if err != nil {
		t.Fatalf("register factory: %v", err)
	}
	if err := fw.Init(); err != nil {
		t.Fatalf("init framework: %v", err)
	}
	return fw.Registry()
}

// scriptedCompleter returns each of its responses in order, one per call.
type scriptedCompleter struct {
	responses []string
	calls     int
}

func (s *scriptedCompleter) Complete(_ context.Context, _ []*schema.Message, _ llm.CompletionOptions) (*llm.CompletionResult, error) {
	if s.calls >= len(s.responses) {
		return nil, errors.New("scriptedCompleter: out of responses")
	}
	content := s.responses[s.calls]
	s.calls++
	return &llm.CompletionResult{Content: content}, nil
}

func okTool(result string) plugin.ToolDefinition {
	return plugin.ToolDefinition{
		Name: "echo_tool",
		Handler: func(_ context.Context, params map[string]interface{}) (interface{}, error) {
			return result, nil
		},
	}
}

func TestLoopReturnsImmediatelyWithNoToolRequest(t *testing.T) {
	registry := newTestRegistry(t)
	completer := &scriptedCompleter{responses: []string{"the answer is 4"}}
	loop := New(completer, registry, 5)

	result, err := loop.Run(context.Background(), []*schema.Message{{Role: schema.User, Content: "what is 2+2"}}, llm.CompletionOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FinalAnswer != "the answer is 4" {
		t.Fatalf("unexpected final answer: %q", result.FinalAnswer)
	}
	if result.DepthReached != 0 {
		t.Fatalf("expected depth 0, got %d", result.DepthReached)
	}
	if len(result.Invocations) != 0 {
		t.Fatalf("expected no invocations, got %d", len(result.Invocations))
	}
}

func TestLoopDispatchesToolAndReturnsFinalAnswer(t *testing.T) {
	registry := newTestRegistry(t, okTool("ok"))
	toolRequest := "<<<[TOOL_REQUEST]>>>\n" +
		"agentType: 「始」tool「末」\n" +
		"agent_name: 「始」echo_tool「末」\n" +
		"query: 「始」ping「末」\n" +
		"<<<[END_TOOL_REQUEST]>>>\n"
	completer := &scriptedCompleter{responses: []string{toolRequest, "final answer"}}
	loop := New(completer, registry, 5)

	result, err := loop.Run(context.Background(), []*schema.Message{{Role: schema.User, Content: "do something"}}, llm.CompletionOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FinalAnswer != "final answer" {
		t.Fatalf("unexpected final answer: %q", result.FinalAnswer)
	}
	if len(result.Invocations) != 1 || result.Invocations[0].Observation != "ok" {
		t.Fatalf("unexpected invocations: %+v", result.Invocations)
	}
	if result.DepthReached != 1 {
		t.Fatalf("expected depth 1, got %d", result.DepthReached)
	}
}

func TestLoopForcesFinalAnswerAtDepthCeiling(t *testing.T) {
	registry := newTestRegistry(t, okTool("ok"))
	toolRequest := "<<<[TOOL_REQUEST]>>>\n" +
		"agent_name: 「始」echo_tool「末」\n" +
		"query: 「始」again「末」\n" +
		"<<<[END_TOOL_REQUEST]>>>\n"
	// With max_depth=3: calls at depth 0,1,2 all request tools, the
	// depth-3 call is the forced final answer - 4 LLM calls total.
	responses := []string{toolRequest, toolRequest, toolRequest, "forced final"}
	completer := &scriptedCompleter{responses: responses}
	loop := New(completer, registry, 3)

	result, err := loop.Run(context.Background(), []*schema.Message{{Role: schema.User, Content: "loop forever"}}, llm.CompletionOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FinalAnswer != "forced final" {
		t.Fatalf("unexpected final answer: %q", result.FinalAnswer)
	}
	if completer.calls != 4 {
		t.Fatalf("expected exactly 4 LLM calls, got %d", completer.calls)
	}
	if result.DepthReached != 3 {
		t.Fatalf("expected DepthReached 3, got %d", result.DepthReached)
	}
}

func TestLoopForcedFinalCallNeverRequestsTools(t *testing.T) {
	registry := newTestRegistry(t, okTool("ok"))
	toolRequest := "<<<[TOOL_REQUEST]>>>\n" +
		"agent_name: 「始」echo_tool「末」\n" +
		"query: 「始」again「末」\n" +
		"<<<[END_TOOL_REQUEST]>>>\n"
	// The model always asks for a tool, even on the forced-final call. With
	// max_depth=3 that's exactly 4 calls: three dispatched tool requests at
	// depth 0,1,2, then one forced call at depth 3 whose content is taken
	// as the final answer regardless of its shape.
	completer := &scriptedCompleter{responses: []string{toolRequest, toolRequest, toolRequest, toolRequest}}
	loop := New(completer, registry, 3)

	result, err := loop.Run(context.Background(), []*schema.Message{{Role: schema.User, Content: "loop forever"}}, llm.CompletionOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completer.calls != 4 {
		t.Fatalf("expected exactly 4 LLM calls, got %d", completer.calls)
	}
	if result.DepthReached != 3 {
		t.Fatalf("expected DepthReached 3, got %d", result.DepthReached)
	}
	if result.FinalAnswer != toolRequest {
		t.Fatalf("expected forced call's raw content as final answer, got %q", result.FinalAnswer)
	}
	// Only the three dispatched requests before the ceiling produce
	// invocations; the forced call's tool request is never dispatched.
	if len(result.Invocations) != 3 {
		t.Fatalf("expected 3 invocations, got %d", len(result.Invocations))
	}
}

func TestLoopUnknownToolReportedAsObservation(t *testing.T) {
	registry := newTestRegistry(t)
	toolRequest := "<<<[TOOL_REQUEST]>>>\n" +
		"agent_name: 「始」does_not_exist「末」\n" +
		"query: 「始」x「末」\n" +
		"<<<[END_TOOL_REQUEST]>>>\n"
	completer := &scriptedCompleter{responses: []string{toolRequest, "ok after error"}}
	loop := New(completer, registry, 5)

	result, err := loop.Run(context.Background(), []*schema.Message{{Role: schema.User, Content: "x"}}, llm.CompletionOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Invocations) != 1 || result.Invocations[0].Err == nil {
		t.Fatalf("expected a failed invocation, got %+v", result.Invocations)
	}
	found := false
	for _, msg := range result.History {
		if msg.Role == schema.User && (strings.Contains(msg.Content, "failed") || strings.Contains(msg.Content, "unknown")) {
			found = true
		}
	}
	if !found {
		t.Fatal("expected unknown-tool failure text to appear in history as an observation")
	}
}
