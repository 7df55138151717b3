package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/corvid-labs/noema/internal/noema/agents"
)

// StageStatus is one stage's lifecycle state within a session.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageCompleted StageStatus = "completed"
	StageError     StageStatus = "error"
)

// SessionStatus is the session's overall lifecycle state.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionError     SessionStatus = "error"
	SessionCancelled SessionStatus = "cancelled"
)

// StageRecord is one stage's externally-visible bookkeeping: name, status,
// progress, timing, and its immutable result once completed.
type StageRecord struct {
	Name      string
	Status    StageStatus
	Progress  float64
	StartedAt *time.Time
	EndedAt   *time.Time
	Result    *agents.Result
	Err       string
}

// EventType is one of the four push-channel event categories the external
// contract (§6) defines.
type EventType string

const (
	EventProgress EventType = "progress"
	EventStatus   EventType = "status"
	EventResult   EventType = "result"
	EventError    EventType = "error"
)

// Event is a single push-channel notification for one session.
type Event struct {
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Session is one end-to-end execution of the five-stage pipeline (§3,
// "Learning Session"). All mutation goes through the owning Orchestrator,
// which holds sess.mu for the duration of any state change.
type Session struct {
	mu sync.Mutex

	ID         string
	Query      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	StageIndex int // index into Stages of the next stage to run
	Status     SessionStatus
	Stages     []*StageRecord // always len 5, ordered Priestess..Empress
	Events     []Event        // not appended to; events reach callers only through the progress hub's subscribers

	Input agents.Input // accumulates each stage's result as the pipeline advances

	cancel context.CancelFunc
	hub    *progressHub
}

func newSession(id, query string, progressBuf int) *Session {
	stages := make([]*StageRecord, 0, 5)
	for k := agents.First; ; {
		stages = append(stages, &StageRecord{Name: k.String(), Status: StagePending})
		next, ok := k.Next()
		if !ok {
			break
		}
		k = next
	}
	now := nowFunc()
	return &Session{
		ID:        id,
		Query:     query,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    SessionRunning,
		Stages:    stages,
		Input:     agents.Input{Query: query},
		hub:       newProgressHub(progressBuf),
	}
}

// sessionFromSnapshot rebuilds a Session from a persisted Snapshot on
// reload. A session still StageRunning when the process stopped can't
// resume (its in-flight LLM/tool-loop state wasn't serialized), so it and
// its running stage are surfaced as errored instead.
func sessionFromSnapshot(snap Snapshot, progressBuf int) *Session {
	stages := make([]*StageRecord, len(snap.Stages))
	input := agents.Input{Query: snap.Query}
	for i := range snap.Stages {
		st := snap.Stages[i]
		if st.Status == StageRunning {
			st.Status = StageError
			st.Err = "orchestrator: interrupted by process restart"
		}
		stages[i] = &st
		if st.Result != nil {
			applyResult(&input, *st.Result)
		}
	}

	status := snap.Status
	if status == SessionRunning {
		status = SessionError
	}

	return &Session{
		ID:         snap.ID,
		Query:      snap.Query,
		CreatedAt:  snap.CreatedAt,
		UpdatedAt:  snap.UpdatedAt,
		StageIndex: snap.StageIndex,
		Status:     status,
		Stages:     stages,
		Input:      input,
		hub:        newProgressHub(progressBuf),
	}
}

// Snapshot is an immutable, lock-free copy of a Session safe to hand to a
// caller outside the Orchestrator.
type Snapshot struct {
	ID         string
	Query      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	StageIndex int
	Status     SessionStatus
	Stages     []StageRecord
	Progress   float64
}

func (s *Session) snapshotLocked() Snapshot {
	stages := make([]StageRecord, len(s.Stages))
	for i, st := range s.Stages {
		stages[i] = *st
	}
	return Snapshot{
		ID:         s.ID,
		Query:      s.Query,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
		StageIndex: s.StageIndex,
		Status:     s.Status,
		Stages:     stages,
		Progress:   overallProgressLocked(stages),
	}
}

func overallProgressLocked(stages []StageRecord) float64 {
	if len(stages) == 0 {
		return 0
	}
	var sum float64
	for _, st := range stages {
		sum += st.Progress
	}
	return sum / float64(len(stages))
}

func (s *Session) terminal() bool {
	switch s.Status {
	case SessionCompleted, SessionError, SessionCancelled:
		return true
	default:
		return false
	}
}

// nowFunc is overridable by tests; production always uses time.Now.
var nowFunc = time.Now
