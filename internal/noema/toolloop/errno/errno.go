// Package errno holds the tool-call loop's sentinel errors.
package errno

import "errors"

var (
	// ErrMalformedBlock is returned when a TOOL_REQUEST block is missing its
	// closing delimiter or a required field.
	ErrMalformedBlock = errors.New("toolloop: malformed tool request block")
	// ErrUnknownTool is returned when a block names a tool not present in
	// the registry.
	ErrUnknownTool = errors.New("toolloop: unknown tool")
	// ErrDepthExceeded marks that the configured recursion ceiling was hit;
	// the loop logs this and forces a final answer rather than failing.
	ErrDepthExceeded = errors.New("toolloop: depth exceeded")
)
