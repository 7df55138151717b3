package promptctx

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func newTestBuilder() *Builder {
	est := NewTokenEstimator(0)
	pruner := NewPruner(est, DefaultPrunerConfig())
	return NewBuilder(est, pruner, 200)
}

func TestBuildOrdersSections(t *testing.T) {
	b := newTestBuilder()
	input := BuildInput{
		StaticPrefix: "You are a learning assistant.",
		Tools:        []ToolSummary{{Name: "zzz", Description: "last"}, {Name: "aaa", Description: "first"}},
		Notes:        []TieredNote{{Slug: "bayes", Title: "Bayes", Tier: TierFull, Body: "short body"}},
		State:        UserState{Goal: "learn probability"},
		History:      []*schema.Message{{Role: schema.User, Content: "hi"}, {Role: schema.Assistant, Content: "hello"}},
		UserInput:    "explain bayes theorem",
	}

	result := b.Build(context.Background(), input, WindowInfo{WindowSize: 50000, UsableTokens: 40000})

	if len(result.Messages) < 6 {
		t.Fatalf("expected at least 6 messages, got %d: %+v", len(result.Messages), result.Messages)
	}
	if !strings.Contains(result.Messages[0].Content, "learning assistant") {
		t.Fatalf("expected static prefix first, got %q", result.Messages[0].Content)
	}
	catalogue := result.Messages[1].Content
	if strings.Index(catalogue, "aaa") > strings.Index(catalogue, "zzz") {
		t.Fatalf("expected tool catalogue sorted by name, got %q", catalogue)
	}
	last := result.Messages[len(result.Messages)-1]
	if last.Content != "explain bayes theorem" || last.Role != schema.User {
		t.Fatalf("expected user input last, got %+v", last)
	}
}

func TestBuildExternalizesOversizedFullTierNote(t *testing.T) {
	b := newTestBuilder()
	bigBody := strings.Repeat("x", 500)
	input := BuildInput{
		Notes: []TieredNote{{Slug: "huge", Title: "Huge", Tier: TierFull, Body: bigBody}},
	}

	result := b.Build(context.Background(), input, WindowInfo{WindowSize: 50000, UsableTokens: 40000})

	if len(result.Externalized) != 1 || result.Externalized[0] != "huge" {
		t.Fatalf("expected huge to be externalized, got %v", result.Externalized)
	}
	found := false
	for _, msg := range result.Messages {
		if strings.Contains(msg.Content, "read_note") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a read_note reference in the assembled notes section")
	}
}

func TestRenderToolCatalogueDeterministicOrder(t *testing.T) {
	out := renderToolCatalogue([]ToolSummary{{Name: "neighbors"}, {Name: "keyword_match"}, {Name: "shortest_path"}})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 { // header + 3 tools
		t.Fatalf("unexpected line count: %v", lines)
	}
	if !strings.Contains(lines[1], "keyword_match") || !strings.Contains(lines[2], "neighbors") || !strings.Contains(lines[3], "shortest_path") {
		t.Fatalf("expected alphabetical order, got %v", lines)
	}
}
