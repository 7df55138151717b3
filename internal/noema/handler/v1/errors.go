package v1

import (
	"net/http"

	"github.com/corvid-labs/noema/pkg/errorx"
)

// Handler error codes.
// Code format: 10GGNN
//   - 10: module prefix (v1 handler)
//   - GG: resource group (00=common, 03=session, 04=model)
//   - NN: sequential error number within the group

const (
	// Common request errors (100xxx).
	ErrBind       = 100001
	ErrValidation = 100002

	// Orchestrator/session errors (1003xx).
	ErrSessionNotFound = 100301
	ErrSessionBusy     = 100302
	ErrOrchestrate     = 100303
	ErrStageExecute    = 100304
	ErrSessionCancel   = 100305

	// Model errors (1004xx).
	ErrModelList = 100401
)

func init() {
	// Common.
	errorx.MustRegister(newCoder(ErrBind, http.StatusBadRequest, "Request body binding failed"))
	errorx.MustRegister(newCoder(ErrValidation, http.StatusBadRequest, "Request validation failed"))

	// Orchestrator/session.
	errorx.MustRegister(newCoder(ErrSessionNotFound, http.StatusNotFound, "Session not found"))
	errorx.MustRegister(newCoder(ErrSessionBusy, http.StatusTooManyRequests, "Too many concurrent learning sessions"))
	errorx.MustRegister(newCoder(ErrOrchestrate, http.StatusInternalServerError, "Orchestration failed"))
	errorx.MustRegister(newCoder(ErrStageExecute, http.StatusInternalServerError, "Stage execution failed"))
	errorx.MustRegister(newCoder(ErrSessionCancel, http.StatusInternalServerError, "Failed to cancel session"))

	// Model.
	errorx.MustRegister(newCoder(ErrModelList, http.StatusInternalServerError, "Failed to list models"))
}

type coder struct {
	code int
	http int
	msg  string
}

func newCoder(code, httpStatus int, msg string) *coder {
	return &coder{code: code, http: httpStatus, msg: msg}
}

func (c *coder) Code() int         { return c.code }
func (c *coder) HTTPStatus() int   { return c.http }
func (c *coder) String() string    { return c.msg }
func (c *coder) Reference() string { return "" }
