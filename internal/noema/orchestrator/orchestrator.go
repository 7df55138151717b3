// Package orchestrator implements the Agent Orchestrator (C8): a five-stage
// state machine (Priestess -> Hermit -> Magician -> Justice -> Empress)
// that sequences the learning pipeline's agents over a session registry,
// streaming progress over a bounded, drop-oldest push channel.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corvid-labs/noema/internal/noema/agents"
	"github.com/corvid-labs/noema/internal/noema/orchestrator/boltstore"
	"github.com/corvid-labs/noema/internal/noema/orchestrator/errno"
	noemajson "github.com/corvid-labs/noema/pkg/json"
	"github.com/corvid-labs/noema/pkg/logger"
	"github.com/corvid-labs/noema/pkg/safego"
)

// Config bounds the Orchestrator's resource usage, sourced from the
// sessions.* configuration surface (§6).
type Config struct {
	MaxConcurrent      int
	TTL                time.Duration
	ProgressBufferSize int
	MaxPathLength      int
	GCInterval         time.Duration
	// StorePath, if set, persists every session snapshot to a BoltDB file
	// so sessions survive a process restart (§6, sessions.store-path).
	// Empty keeps the registry purely in-memory.
	StorePath string
}

// DefaultConfig mirrors options.NewSessionOptions()'s defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:      10,
		TTL:                60 * time.Minute,
		ProgressBufferSize: 64,
		MaxPathLength:      20,
		GCInterval:         time.Minute,
	}
}

// Orchestrator owns the session registry and drives the five-stage
// pipeline. One process-wide instance is shared by every HTTP request.
type Orchestrator struct {
	cfg       Config
	deps      agents.Deps
	assembler ContextAssembler

	mu       sync.Mutex
	sessions map[string]*Session
	store    *boltstore.Store

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates an Orchestrator and starts its background session-reaper. If
// cfg.StorePath is set, it also opens the BoltDB session store and reloads
// any sessions persisted by a prior run.
func New(deps agents.Deps, assembler ContextAssembler, cfg Config) *Orchestrator {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 60 * time.Minute
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = time.Minute
	}
	o := &Orchestrator{
		cfg:       cfg,
		deps:      deps,
		assembler: assembler,
		sessions:  make(map[string]*Session),
		stopCh:    make(chan struct{}),
	}

	if cfg.StorePath != "" {
		store, err := boltstore.Open(cfg.StorePath)
		if err != nil {
			logger.Warn("[orchestrator] session store disabled, failed to open %q: %v", cfg.StorePath, err)
		} else {
			o.store = store
			o.reload()
		}
	}

	safego.Go(context.Background(), func() { o.gcLoop() })
	return o
}

// reload repopulates the in-memory registry from persisted snapshots. A
// session that was still running when the process stopped can't resume
// mid-stage (the in-flight LLM call and tool-loop state aren't
// serializable), so it's surfaced as errored rather than silently dropped.
func (o *Orchestrator) reload() {
	n := 0
	err := o.store.ForEach(func(id string, raw []byte) error {
		var snap Snapshot
		if err := noemajson.Unmarshal(raw, &snap); err != nil {
			logger.Warn("[orchestrator] dropping unreadable persisted session %s: %v", id, err)
			return nil
		}
		o.sessions[id] = sessionFromSnapshot(snap, o.cfg.ProgressBufferSize)
		n++
		return nil
	})
	if err != nil {
		logger.Warn("[orchestrator] session reload error: %v", err)
		return
	}
	logger.Info("[orchestrator] reloaded %d persisted sessions from %s", n, o.cfg.StorePath)
}

// persist writes sess's current snapshot to the BoltDB store, if one is
// configured. Best-effort: a write failure is logged, not returned, since
// the in-memory registry remains the source of truth for a live process.
func (o *Orchestrator) persist(sess *Session) {
	if o.store == nil {
		return
	}
	sess.mu.Lock()
	snap := sess.snapshotLocked()
	sess.mu.Unlock()
	if err := o.store.Put(snap.ID, snap); err != nil {
		logger.Warn("[orchestrator] failed to persist session %s: %v", snap.ID, err)
	}
}

// Close stops the background reaper and, if a session store is configured,
// closes it. Idempotent.
func (o *Orchestrator) Close() {
	o.stopOnce.Do(func() {
		close(o.stopCh)
		if o.store != nil {
			if err := o.store.Close(); err != nil {
				logger.Warn("[orchestrator] error closing session store: %v", err)
			}
		}
	})
}

func (o *Orchestrator) gcLoop() {
	ticker := time.NewTicker(o.cfg.GCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-o.stopCh:
			return
		case <-ticker.C:
			o.reap()
		}
	}
}

func (o *Orchestrator) reap() {
	cutoff := time.Now().Add(-o.cfg.TTL)
	var expired []*Session

	o.mu.Lock()
	for id, s := range o.sessions {
		s.mu.Lock()
		stale := s.terminal() && s.UpdatedAt.Before(cutoff)
		s.mu.Unlock()
		if stale {
			expired = append(expired, s)
			delete(o.sessions, id)
		}
	}
	o.mu.Unlock()

	for _, s := range expired {
		s.hub.closeAll()
		if o.store != nil {
			if err := o.store.Delete(s.ID); err != nil {
				logger.Warn("[orchestrator] failed to delete persisted session %s: %v", s.ID, err)
			}
		}
		logger.Info("[orchestrator] reaped expired session %s", s.ID)
	}
}

// activeCountLocked counts non-terminal sessions. Caller must hold o.mu.
func (o *Orchestrator) activeCountLocked() int {
	n := 0
	for _, s := range o.sessions {
		s.mu.Lock()
		if !s.terminal() {
			n++
		}
		s.mu.Unlock()
	}
	return n
}

// Counts reports the number of active (non-terminal) and total sessions
// currently held in the registry, for health reporting.
func (o *Orchestrator) Counts() (active, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeCountLocked(), len(o.sessions)
}

// Start creates a new, idle learning session without running any stage.
// Use ExecuteAgent to advance it one stage at a time.
func (o *Orchestrator) Start(_ context.Context, query string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.activeCountLocked() >= o.cfg.MaxConcurrent {
		return "", errno.ErrSessionBusy
	}

	id := uuid.NewString()
	sess := newSession(id, query, o.cfg.ProgressBufferSize)
	sess.Input.MaxPathLength = o.cfg.MaxPathLength
	o.sessions[id] = sess
	o.persist(sess)
	return id, nil
}

// Orchestrate creates a session and asynchronously runs all five stages to
// completion (or to the first error/cancellation).
func (o *Orchestrator) Orchestrate(_ context.Context, query string) (string, error) {
	o.mu.Lock()
	if o.activeCountLocked() >= o.cfg.MaxConcurrent {
		o.mu.Unlock()
		return "", errno.ErrSessionBusy
	}
	id := uuid.NewString()
	sess := newSession(id, query, o.cfg.ProgressBufferSize)
	sess.Input.MaxPathLength = o.cfg.MaxPathLength
	runCtx, cancel := context.WithCancel(context.Background())
	sess.cancel = cancel
	o.sessions[id] = sess
	o.mu.Unlock()
	o.persist(sess)

	safego.Go(runCtx, func() { o.runAll(runCtx, sess) })
	return id, nil
}

func (o *Orchestrator) runAll(ctx context.Context, sess *Session) {
	for k := agents.First; ; {
		if ctx.Err() != nil {
			o.markCancelled(sess)
			return
		}
		if _, err := o.runStage(ctx, sess, k); err != nil {
			return // runStage already recorded the error transition
		}
		next, ok := k.Next()
		if !ok {
			return
		}
		k = next
	}
}

// ExecuteAgent advances sess's next stage explicitly (the "execute_agent"
// operation, §4.8), optionally overriding the query text and/or supplying
// learner answers for the Justice stage.
func (o *Orchestrator) ExecuteAgent(ctx context.Context, sessionID string, kind agents.Kind, query string, learnerAnswers []string) (agents.Result, error) {
	sess, err := o.lookup(sessionID)
	if err != nil {
		return agents.Result{}, err
	}

	sess.mu.Lock()
	if sess.terminal() {
		sess.mu.Unlock()
		return agents.Result{}, errno.ErrSessionTerminal
	}
	if sess.StageIndex >= len(sess.Stages) || agents.Kind(sess.StageIndex) != kind {
		sess.mu.Unlock()
		return agents.Result{}, errno.ErrStageOutOfOrder
	}
	if sess.Stages[sess.StageIndex].Status == StageRunning {
		sess.mu.Unlock()
		return agents.Result{}, errno.ErrStageRunning
	}
	if query != "" {
		sess.Input.Query = query
	}
	if len(learnerAnswers) > 0 {
		sess.Input.LearnerAnswers = learnerAnswers
	}
	sess.mu.Unlock()

	return o.runStage(ctx, sess, kind)
}

// runStage runs exactly one stage of sess, updating its record and
// publishing the corresponding events. It is the single choke point both
// ExecuteAgent and the async Orchestrate loop use, so "exactly one stage
// running per session" (§3 invariant) only needs enforcing here.
func (o *Orchestrator) runStage(ctx context.Context, sess *Session, kind agents.Kind) (agents.Result, error) {
	sess.mu.Lock()
	record := sess.Stages[kind]
	if record.Status == StageRunning {
		sess.mu.Unlock()
		return agents.Result{}, errno.ErrStageRunning
	}
	now := time.Now()
	record.Status = StageRunning
	record.StartedAt = &now
	record.Progress = 0
	sess.UpdatedAt = now
	input := sess.Input
	sess.mu.Unlock()

	sess.hub.publish(Event{Type: EventStatus, SessionID: sess.ID, Data: map[string]string{"kind": "stage-started", "stage": kind.String()}, Timestamp: now})

	notes, state := o.assembler.Assemble(ctx, kind, input)
	result, runErr := agents.Run(ctx, kind, o.deps, input, notes, state)

	sess.mu.Lock()
	end := time.Now()
	sess.UpdatedAt = end

	if runErr != nil {
		record.Status = StageError
		record.EndedAt = &end
		record.Err = runErr.Error()
		sess.Status = SessionError
		sess.hub.publish(Event{Type: EventError, SessionID: sess.ID, Data: map[string]string{"stage": kind.String(), "message": runErr.Error()}, Timestamp: end})
		sess.mu.Unlock()
		o.persist(sess)
		return agents.Result{}, fmt.Errorf("orchestrator: stage %s: %w", kind, runErr)
	}

	record.Status = StageCompleted
	record.Progress = 1
	record.EndedAt = &end
	result.Kind = kind
	record.Result = &result
	applyResult(&sess.Input, result)

	sess.hub.publish(Event{Type: EventResult, SessionID: sess.ID, Data: map[string]string{"stage": kind.String()}, Timestamp: end})
	sess.hub.publish(Event{Type: EventProgress, SessionID: sess.ID, Data: overallProgressLocked(snapshotStages(sess.Stages)), Timestamp: end})

	if next, ok := kind.Next(); ok {
		sess.StageIndex = int(next)
		sess.hub.publish(Event{Type: EventStatus, SessionID: sess.ID, Data: map[string]string{"kind": "stage-completed", "stage": kind.String()}, Timestamp: end})
	} else {
		sess.StageIndex = len(sess.Stages)
		sess.Status = SessionCompleted
		sess.hub.publish(Event{Type: EventStatus, SessionID: sess.ID, Data: map[string]string{"kind": "session-completed"}, Timestamp: end})
	}

	sess.mu.Unlock()
	o.persist(sess)
	return result, nil
}

func snapshotStages(stages []*StageRecord) []StageRecord {
	out := make([]StageRecord, len(stages))
	for i, s := range stages {
		out[i] = *s
	}
	return out
}

// applyResult folds one stage's result into the running Input so the next
// stage's Run call sees every predecessor's output, per §4.7's per-stage
// input contract.
func applyResult(input *agents.Input, result agents.Result) {
	switch result.Kind {
	case agents.Priestess:
		input.Priestess = result.Priestess
	case agents.Hermit:
		input.Hermit = result.Hermit
	case agents.Magician:
		input.Magician = result.Magician
	case agents.Justice:
		input.Justice = result.Justice
	}
}

// Get returns a point-in-time snapshot of a session.
func (o *Orchestrator) Get(sessionID string) (Snapshot, error) {
	sess, err := o.lookup(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshotLocked(), nil
}

// Subscribe returns a channel of events for sessionID plus an unsubscribe
// function the caller must invoke when done listening.
func (o *Orchestrator) Subscribe(sessionID string) (<-chan Event, func(), error) {
	sess, err := o.lookup(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, unsub := sess.hub.subscribe()
	return ch, unsub, nil
}

// Cancel transitions a non-terminal session to cancelled and abandons its
// in-flight LLM call. Writes Empress already committed are not rolled back
// (§5, "Cancellation").
func (o *Orchestrator) Cancel(sessionID string) error {
	sess, err := o.lookup(sessionID)
	if err != nil {
		return err
	}
	o.markCancelled(sess)
	return nil
}

func (o *Orchestrator) markCancelled(sess *Session) {
	sess.mu.Lock()
	already := sess.terminal()
	if !already {
		sess.Status = SessionCancelled
		sess.UpdatedAt = time.Now()
	}
	cancel := sess.cancel
	sess.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !already {
		sess.hub.publish(Event{Type: EventStatus, SessionID: sess.ID, Data: map[string]string{"kind": "session-cancelled"}, Timestamp: time.Now()})
		o.persist(sess)
	}
}

func (o *Orchestrator) lookup(sessionID string) (*Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, ok := o.sessions[sessionID]
	if !ok {
		return nil, errno.ErrSessionNotFound
	}
	return sess, nil
}
