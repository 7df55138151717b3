// Package errorx is a small coded-error registry: every error surfaced to
// an HTTP caller carries a stable numeric code, an HTTP status, and a
// default message, looked up through a process-wide registry so handlers
// never hand-format status codes at the call site.
//
// Reconstructed locally (stdlib only) because the call-site convention —
// Coder/MustRegister/WrapC/WithCode — comes from the unfetchable
// github.com/kiosk404/eidolon module; no third-party library in the
// corpus covers this concern, so there is nothing to wire instead.
package errorx

import (
	"fmt"
	"net/http"
	"sync"
)

// Coder describes one registered error code.
type Coder interface {
	Code() int
	HTTPStatus() int
	String() string
	Reference() string
}

var (
	mu       sync.RWMutex
	registry = map[int]Coder{}
)

// Register adds c to the registry, returning an error if its code already
// has a registrant.
func Register(c Coder) error {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[c.Code()]; exists {
		return fmt.Errorf("errorx: code %d already registered", c.Code())
	}
	registry[c.Code()] = c
	return nil
}

// MustRegister is Register, panicking on a duplicate code. Intended for
// package init() blocks, where a duplicate is a programming error.
func MustRegister(c Coder) {
	if err := Register(c); err != nil {
		panic(err)
	}
}

// ByCode looks up a registered Coder, falling back to an internal-error
// Coder if code was never registered.
func ByCode(code int) Coder {
	mu.RLock()
	defer mu.RUnlock()
	if c, ok := registry[code]; ok {
		return c
	}
	return unknownCoder{code: code}
}

// CodedError pairs a registered code with a caller-supplied detail message
// and, optionally, the underlying error it wraps.
type CodedError struct {
	Coder   Coder
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CodedError) Unwrap() error { return e.Cause }

// WithCode builds a CodedError with no wrapped cause, formatting message
// like fmt.Sprintf.
func WithCode(code int, format string, args ...interface{}) *CodedError {
	return &CodedError{Coder: ByCode(code), Message: fmt.Sprintf(format, args...)}
}

// WrapC wraps err under code, formatting the detail message like
// fmt.Sprintf. A nil err still produces a CodedError (useful for
// converting a plain validation failure into a coded one).
func WrapC(err error, code int, format string, args ...interface{}) *CodedError {
	return &CodedError{Coder: ByCode(code), Message: fmt.Sprintf(format, args...), Cause: err}
}

type unknownCoder struct{ code int }

func (u unknownCoder) Code() int         { return u.code }
func (u unknownCoder) HTTPStatus() int   { return http.StatusInternalServerError }
func (u unknownCoder) String() string    { return "internal error" }
func (u unknownCoder) Reference() string { return "" }
