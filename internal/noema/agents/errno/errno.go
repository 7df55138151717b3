// Package errno holds the agent pipeline's sentinel errors.
package errno

import "errors"

var (
	// ErrPathTooLong is returned by the Hermit stage when the planned
	// learning path exceeds the configured maximum length.
	ErrPathTooLong = errors.New("agents: learning path exceeds max_path_length")
	// ErrResultParse is returned when a stage's model output could not be
	// parsed into its expected structured result.
	ErrResultParse = errors.New("agents: failed to parse stage result")
	// ErrOutOfOrder is returned when a stage is run without its required
	// predecessor result.
	ErrOutOfOrder = errors.New("agents: stage run out of order")
)
