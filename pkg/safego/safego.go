// Package safego runs goroutines with panic recovery so a bug in one
// background stage (a session's agent loop, a compaction pass, an MCP
// reconnect) cannot take the whole process down with it.
package safego

import (
	"context"
	"runtime/debug"

	"github.com/corvid-labs/noema/pkg/logger"
)

// Go runs fn in a new goroutine. A panic inside fn is recovered and logged
// with its stack trace instead of crashing the process. ctx is accepted for
// call-site symmetry with the rest of the codebase (cancellation is fn's
// responsibility); it is not used, and the recovered log line carries only
// the panic value and the stack.
func Go(ctx context.Context, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorX("recovered panic in background goroutine",
					"panic", r,
					"stack", string(debug.Stack()))
			}
		}()
		_ = ctx
		fn()
	}()
}
