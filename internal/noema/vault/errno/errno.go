// Package errno holds the vault's sentinel errors, classified by kind
// rather than by Go type.
package errno

import "errors"

var (
	// ErrNotFound is returned when a slug has no corresponding note.
	ErrNotFound = errors.New("vault: note not found")
	// ErrPathEscape is returned when a resolved path would leave the vault root.
	ErrPathEscape = errors.New("vault: path escapes vault root")
	// ErrEmptySlug is returned by operations given a blank slug.
	ErrEmptySlug = errors.New("vault: slug must not be empty")
)
