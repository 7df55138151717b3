package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/corvid-labs/noema/internal/noema/agents"
	"github.com/corvid-labs/noema/internal/noema/linkgraph"
	"github.com/corvid-labs/noema/internal/noema/llm"
	"github.com/corvid-labs/noema/internal/noema/orchestrator/errno"
	"github.com/corvid-labs/noema/internal/noema/promptctx"
	"github.com/corvid-labs/noema/internal/noema/service/plugin"
	"github.com/corvid-labs/noema/internal/noema/toolloop"
	"github.com/corvid-labs/noema/internal/noema/vault"
)

// queuedCompleter returns one canned response per call, in order, so a test
// can script an entire Priestess->Hermit->Magician->Justice run. Empress
// makes no LLM call (see agents.runEmpress), so its queue never needs an
// entry.
type queuedCompleter struct {
	mu        sync.Mutex
	responses []string
}

func (q *queuedCompleter) Complete(_ context.Context, _ []*schema.Message, _ llm.CompletionOptions) (*llm.CompletionResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.responses) == 0 {
		return nil, errors.New("queuedCompleter: exhausted")
	}
	resp := q.responses[0]
	q.responses = q.responses[1:]
	return &llm.CompletionResult{Content: resp}, nil
}

const (
	priestessFixture = "```json\n" + `{"known_slugs":["a"],"unknown_slugs":["b"],"cognitive_load_flags":[],"rationale":"ok"}` + "\n```"
	hermitFixture    = "```json\n" + `{"path":["b"],"rationale":"ok"}` + "\n```"
	magicianFixture  = "```json\n" + `{"drafts":[{"slug":"b","title":"B","tags":["x"],"body":"See [[a]] for background."}]}` + "\n```"
	justiceFixture   = "```json\n" + `{"questions":[{"prompt":"what is b?","target_slug":"b"}]}` + "\n```"
)

// fakeAssembler hands back an empty context block; the orchestrator tests
// exercise session/stage sequencing, not note ranking (covered in
// linkgraph/promptctx tests).
type fakeAssembler struct{}

func (fakeAssembler) Assemble(_ context.Context, _ agents.Kind, input agents.Input) ([]promptctx.TieredNote, promptctx.UserState) {
	return nil, promptctx.UserState{Goal: input.Query}
}

func newTestOrchestrator(t *testing.T, responses []string, cfg Config) *Orchestrator {
	t.Helper()

	est := promptctx.NewTokenEstimator(0)
	pruner := promptctx.NewPruner(est, promptctx.DefaultPrunerConfig())
	builder := promptctx.NewBuilder(est, pruner, 2000)
	registry := (&plugin.Config{}).Complete().New().Registry()
	loop := toolloop.New(&queuedCompleter{responses: responses}, registry, 5)

	dir := t.TempDir()
	store, err := vault.NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Write("a", vault.FrontMatter{Title: "A"}, "Already known."); err != nil {
		t.Fatalf("seed note: %v", err)
	}
	engine := linkgraph.New(10)
	notes, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	engine.Rebuild(notes)

	deps := agents.Deps{
		Builder: builder,
		Window:  promptctx.WindowInfo{WindowSize: 50000, UsableTokens: 40000},
		Loop:    loop,
		Options: llm.CompletionOptions{},
		Engine:  engine,
		Store:   store,
	}

	return New(deps, fakeAssembler{}, cfg)
}

func drainUntilTerminal(t *testing.T, o *Orchestrator, sessionID string, timeout time.Duration) Snapshot {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		snap, err := o.Get(sessionID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		switch snap.Status {
		case SessionCompleted, SessionError, SessionCancelled:
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for session %s to finish, last status %s", sessionID, snap.Status)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestOrchestrateRunsAllFiveStagesInOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GCInterval = time.Hour
	o := newTestOrchestrator(t, []string{priestessFixture, hermitFixture, magicianFixture, justiceFixture}, cfg)
	defer o.Close()

	id, err := o.Orchestrate(context.Background(), "teach me b")
	if err != nil {
		t.Fatalf("orchestrate: %v", err)
	}

	snap := drainUntilTerminal(t, o, id, 2*time.Second)
	if snap.Status != SessionCompleted {
		t.Fatalf("expected session completed, got %s (stages: %+v)", snap.Status, snap.Stages)
	}
	for i, want := range []agents.Kind{agents.Priestess, agents.Hermit, agents.Magician, agents.Justice, agents.Empress} {
		st := snap.Stages[i]
		if st.Status != StageCompleted {
			t.Fatalf("stage %s: expected completed, got %s (err=%s)", want, st.Status, st.Err)
		}
		if st.Result == nil || st.Result.Kind != want {
			t.Fatalf("stage %d: expected result kind %s, got %+v", i, want, st.Result)
		}
	}
	if snap.Progress != 1 {
		t.Fatalf("expected overall progress 1, got %v", snap.Progress)
	}
}

func TestExecuteAgentRejectsStageOutOfOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GCInterval = time.Hour
	o := newTestOrchestrator(t, []string{priestessFixture, hermitFixture}, cfg)
	defer o.Close()

	id, err := o.Start(context.Background(), "teach me b")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Hermit before Priestess has ever run.
	if _, err := o.ExecuteAgent(context.Background(), id, agents.Hermit, "", nil); !errors.Is(err, errno.ErrStageOutOfOrder) {
		t.Fatalf("expected ErrStageOutOfOrder, got %v", err)
	}

	if _, err := o.ExecuteAgent(context.Background(), id, agents.Priestess, "", nil); err != nil {
		t.Fatalf("priestess: %v", err)
	}

	// Priestess again, now that Hermit is next.
	if _, err := o.ExecuteAgent(context.Background(), id, agents.Priestess, "", nil); !errors.Is(err, errno.ErrStageOutOfOrder) {
		t.Fatalf("expected ErrStageOutOfOrder on replay, got %v", err)
	}

	if _, err := o.ExecuteAgent(context.Background(), id, agents.Hermit, "", nil); err != nil {
		t.Fatalf("hermit: %v", err)
	}
}

func TestOrchestrateRejectsWhenAtMaxConcurrent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConcurrent = 1
	cfg.GCInterval = time.Hour
	// Only the first orchestrate's four stages get canned answers; the
	// second call must be rejected before it ever touches the completer.
	o := newTestOrchestrator(t, []string{priestessFixture, hermitFixture, magicianFixture, justiceFixture}, cfg)
	defer o.Close()

	if _, err := o.Orchestrate(context.Background(), "first"); err != nil {
		t.Fatalf("first orchestrate: %v", err)
	}
	if _, err := o.Orchestrate(context.Background(), "second"); !errors.Is(err, errno.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
}

func TestGetUnknownSessionReturnsNotFound(t *testing.T) {
	o := newTestOrchestrator(t, nil, DefaultConfig())
	defer o.Close()

	if _, err := o.Get("does-not-exist"); !errors.Is(err, errno.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCancelMarksSessionCancelledAndIsIdempotent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GCInterval = time.Hour
	o := newTestOrchestrator(t, []string{priestessFixture}, cfg)
	defer o.Close()

	id, err := o.Start(context.Background(), "teach me b")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := o.Cancel(id); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	snap, err := o.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snap.Status != SessionCancelled {
		t.Fatalf("expected cancelled, got %s", snap.Status)
	}

	// Cancelling an already-terminal session is a no-op, not an error.
	if err := o.Cancel(id); err != nil {
		t.Fatalf("second cancel: %v", err)
	}

	// A terminal session rejects further stage execution.
	if _, err := o.ExecuteAgent(context.Background(), id, agents.Priestess, "", nil); !errors.Is(err, errno.ErrSessionTerminal) {
		t.Fatalf("expected ErrSessionTerminal, got %v", err)
	}
}

func TestReapRemovesExpiredTerminalSessions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTL = time.Millisecond
	cfg.GCInterval = time.Hour // advance manually via reap()
	o := newTestOrchestrator(t, []string{priestessFixture}, cfg)
	defer o.Close()

	id, err := o.Start(context.Background(), "teach me b")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := o.Cancel(id); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	o.reap()

	if _, err := o.Get(id); !errors.Is(err, errno.ErrSessionNotFound) {
		t.Fatalf("expected reaped session to be gone, got err=%v", err)
	}
}
