// Package errno holds the Orchestrator's sentinel errors.
package errno

import "errors"

var (
	// ErrSessionNotFound is returned by Get/Subscribe/ExecuteAgent/Cancel
	// for an unknown or already-GC'd session ID.
	ErrSessionNotFound = errors.New("orchestrator: session not found")
	// ErrSessionBusy is returned by Start/Orchestrate when the configured
	// maximum number of concurrently active sessions is already in use.
	ErrSessionBusy = errors.New("orchestrator: too many concurrent sessions")
	// ErrSessionTerminal is returned when an operation requires a session
	// still in flight but it has already completed, errored, or been
	// cancelled.
	ErrSessionTerminal = errors.New("orchestrator: session already finished")
	// ErrStageOutOfOrder is returned by ExecuteAgent when the requested
	// stage is not the session's next expected stage.
	ErrStageOutOfOrder = errors.New("orchestrator: stage requested out of order")
	// ErrStageRunning is returned when a second stage is requested for a
	// session that already has one in flight.
	ErrStageRunning = errors.New("orchestrator: a stage is already running for this session")
)
