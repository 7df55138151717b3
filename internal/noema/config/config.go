package config

import (
	"github.com/corvid-labs/noema/internal/noema/options"
)

// Config is the fully-resolved running configuration of the noemad process.
type Config struct {
	*options.Options
}

// CreateConfigFromOptions builds a Config from parsed Options. Kept as its
// own step (rather than using Options directly) so validation/derivation
// added later has one place to live.
func CreateConfigFromOptions(opts *options.Options) (*Config, error) {
	return &Config{opts}, nil
}
