package v1

import (
	"errors"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/corvid-labs/noema/internal/noema/agents"
	"github.com/corvid-labs/noema/internal/noema/orchestrator"
	orcherrno "github.com/corvid-labs/noema/internal/noema/orchestrator/errno"
	"github.com/corvid-labs/noema/internal/pkg/core"
	"github.com/corvid-labs/noema/pkg/errorx"
	noemajson "github.com/corvid-labs/noema/pkg/json"
)

// OrchestratorHandler exposes the learning-session pipeline over HTTP:
// start/inspect/cancel a session, advance one stage explicitly, and stream
// its progress events as SSE.
type OrchestratorHandler struct {
	orch *orchestrator.Orchestrator
}

func NewOrchestratorHandler(orch *orchestrator.Orchestrator) *OrchestratorHandler {
	return &OrchestratorHandler{orch: orch}
}

// Orchestrate handles POST /v1/orchestrate: creates a session and runs all
// five stages to completion in the background.
func (h *OrchestratorHandler) Orchestrate(c *gin.Context) {
	var req OrchestrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrBind, "bind orchestrate request"), nil)
		return
	}

	id, err := h.orch.Orchestrate(c.Request.Context(), req.Query)
	if err != nil {
		core.WriteResponse(c, toCodedError(err), nil)
		return
	}
	core.WriteResponse(c, nil, OrchestrateResponse{SessionID: id})
}

// Get handles GET /v1/sessions/:id.
func (h *OrchestratorHandler) Get(c *gin.Context) {
	id := c.Param("id")
	snap, err := h.orch.Get(id)
	if err != nil {
		core.WriteResponse(c, toCodedError(err), nil)
		return
	}
	core.WriteResponse(c, nil, toSessionView(snap))
}

// Cancel handles DELETE /v1/sessions/:id.
func (h *OrchestratorHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if err := h.orch.Cancel(id); err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrSessionCancel, "cancel session %q", id), nil)
		return
	}
	core.WriteResponse(c, nil, gin.H{"id": id, "cancelled": true})
}

// ExecuteStage handles POST /v1/sessions/:id/stages/:name: advances exactly
// one named stage, rejecting out-of-order or concurrent requests.
func (h *OrchestratorHandler) ExecuteStage(c *gin.Context) {
	id := c.Param("id")
	name := c.Param("name")

	kind, ok := agents.ParseKind(name)
	if !ok {
		core.WriteResponse(c, errorx.WithCode(ErrValidation, "unknown stage %q", name), nil)
		return
	}

	var req ExecuteStageRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			core.WriteResponse(c, errorx.WrapC(err, ErrBind, "bind execute-stage request"), nil)
			return
		}
	}

	result, err := h.orch.ExecuteAgent(c.Request.Context(), id, kind, req.Query, req.LearnerAnswers)
	if err != nil {
		core.WriteResponse(c, toCodedError(err), nil)
		return
	}
	core.WriteResponse(c, nil, result)
}

// Events handles GET /v1/sessions/:id/events: an SSE stream of progress,
// status, result, and error events for one session.
func (h *OrchestratorHandler) Events(c *gin.Context) {
	id := c.Param("id")
	ch, unsub, err := h.orch.Subscribe(id)
	if err != nil {
		core.WriteResponse(c, toCodedError(err), nil)
		return
	}
	defer unsub()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	w := c.Writer
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				sse.Encode(w, sse.Event{Event: "done", Data: "{}"})
				w.Flush()
				return
			}
			data, err := noemajson.Marshal(event)
			if err != nil {
				continue
			}
			sse.Encode(w, sse.Event{Event: string(event.Type), Data: string(data)})
			w.Flush()
		}
	}
}

func toSessionView(snap orchestrator.Snapshot) SessionView {
	stages := make([]StageView, len(snap.Stages))
	for i, st := range snap.Stages {
		stages[i] = StageView{
			Name:      st.Name,
			Status:    string(st.Status),
			Progress:  st.Progress,
			StartedAt: st.StartedAt,
			EndedAt:   st.EndedAt,
			Error:     st.Err,
		}
		if st.Result != nil {
			stages[i].Result = st.Result
		}
	}
	return SessionView{
		ID:         snap.ID,
		Query:      snap.Query,
		Status:     string(snap.Status),
		StageIndex: snap.StageIndex,
		Progress:   snap.Progress,
		Stages:     stages,
		CreatedAt:  snap.CreatedAt,
		UpdatedAt:  snap.UpdatedAt,
	}
}

func toCodedError(err error) *errorx.CodedError {
	switch {
	case errors.Is(err, orcherrno.ErrSessionNotFound):
		return errorx.WrapC(err, ErrSessionNotFound, "session lookup")
	case errors.Is(err, orcherrno.ErrSessionBusy):
		return errorx.WrapC(err, ErrSessionBusy, "start session")
	case errors.Is(err, orcherrno.ErrSessionTerminal), errors.Is(err, orcherrno.ErrStageOutOfOrder), errors.Is(err, orcherrno.ErrStageRunning):
		return errorx.WrapC(err, ErrStageExecute, "execute stage")
	default:
		return errorx.WrapC(err, ErrOrchestrate, "orchestrate")
	}
}

