package agents

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/corvid-labs/noema/internal/noema/linkgraph"
	"github.com/corvid-labs/noema/internal/noema/llm"
	"github.com/corvid-labs/noema/internal/noema/promptctx"
	"github.com/corvid-labs/noema/internal/noema/service/plugin"
	"github.com/corvid-labs/noema/internal/noema/toolloop"
	"github.com/corvid-labs/noema/internal/noema/vault"
)

type scriptedCompleter struct {
	response string
}

func (s *scriptedCompleter) Complete(_ context.Context, _ []*schema.Message, _ llm.CompletionOptions) (*llm.CompletionResult, error) {
	if s.response == "" {
		return nil, errors.New("scriptedCompleter: no response configured")
	}
	return &llm.CompletionResult{Content: s.response}, nil
}

func newTestDeps(t *testing.T, response string) Deps {
	t.Helper()
	est := promptctx.NewTokenEstimator(0)
	pruner := promptctx.NewPruner(est, promptctx.DefaultPrunerConfig())
	builder := promptctx.NewBuilder(est, pruner, 2000)
	registry := (&plugin.Config{}).Complete().New().Registry()
	loop := toolloop.New(&scriptedCompleter{response: response}, registry, 5)

	dir := t.TempDir()
	store, err := vault.NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	engine := linkgraph.New(10)

	return Deps{
		Builder: builder,
		Window:  promptctx.WindowInfo{WindowSize: 50000, UsableTokens: 40000},
		Loop:    loop,
		Options: llm.CompletionOptions{},
		Engine:  engine,
		Store:   store,
	}
}

func TestPriestessParsesFencedJSON(t *testing.T) {
	response := "Here is my assessment.\n```json\n" +
		`{"known_slugs":["a"],"unknown_slugs":["b"],"cognitive_load_flags":[],"rationale":"ok"}` +
		"\n```\n"
	deps := newTestDeps(t, response)

	result, err := Run(context.Background(), Priestess, deps, Input{Query: "explain b"}, nil, promptctx.UserState{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Priestess == nil || result.Priestess.KnownSlugs[0] != "a" || result.Priestess.UnknownSlugs[0] != "b" {
		t.Fatalf("unexpected result: %+v", result.Priestess)
	}
}

func TestHermitRejectsPathExceedingMaxLength(t *testing.T) {
	response := "```json\n" + `{"path":["a","b","c"],"rationale":"chain"}` + "\n```"
	deps := newTestDeps(t, response)

	_, err := Run(context.Background(), Hermit, deps, Input{
		Query:         "plan",
		Priestess:     &PriestessResult{KnownSlugs: []string{"a"}},
		MaxPathLength: 2,
	}, nil, promptctx.UserState{})
	if err == nil {
		t.Fatal("expected path-too-long error")
	}
}

func TestHermitOutOfOrderWithoutPriestess(t *testing.T) {
	deps := newTestDeps(t, "```json\n{}\n```")
	_, err := Run(context.Background(), Hermit, deps, Input{Query: "plan"}, nil, promptctx.UserState{})
	if err == nil {
		t.Fatal("expected out-of-order error when priestess result missing")
	}
}

func TestEmpressPersistsDraftsAndUpdatesLinkGraph(t *testing.T) {
	deps := newTestDeps(t, "")
	drafts := []DraftNote{
		{Slug: "bayes", Title: "Bayes", Tags: []string{"stats"}, Body: "intro to bayes, see [[prior]]"},
	}

	result, err := Run(context.Background(), Empress, deps, Input{Magician: &MagicianResult{Drafts: drafts}}, nil, promptctx.UserState{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Empress.CreatedSlugs) != 1 || result.Empress.CreatedSlugs[0] != "bayes" {
		t.Fatalf("expected bayes to be a created slug, got %+v", result.Empress)
	}

	if _, err := os.Stat(filepath.Join(deps.Store.Root(), "bayes.md")); err != nil {
		t.Fatalf("expected note file on disk: %v", err)
	}
	if outgoing := deps.Engine.Outgoing("bayes"); len(outgoing) != 0 {
		t.Fatalf("expected dangling link to 'prior' to not appear in outgoing (no such note), got %v", outgoing)
	}
	dangling := deps.Engine.Dangling()
	if _, ok := dangling["prior"]; !ok {
		t.Fatalf("expected 'prior' to be tracked as a dangling link, got %+v", dangling)
	}
}
