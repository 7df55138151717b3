package options

import "github.com/spf13/pflag"

// SessionOptions configures the Agent Orchestrator's session registry.
type SessionOptions struct {
	// MaxConcurrent caps how many non-terminal learning sessions may exist
	// at once; further starts are rejected with a "session busy" error.
	MaxConcurrent int `json:"max-concurrent" mapstructure:"max-concurrent"`
	// TTLSeconds is how long a completed or cancelled session is kept
	// before the garbage collector reclaims it.
	TTLSeconds int `json:"ttl-seconds" mapstructure:"ttl-seconds"`
	// ProgressBufferSize bounds the per-session progress channel. Once full,
	// the oldest buffered event is dropped to make room for the newest.
	ProgressBufferSize int `json:"progress-buffer-size" mapstructure:"progress-buffer-size"`
	// StorePath, when set, switches the session store from in-memory to a
	// BoltDB file so sessions survive a restart.
	StorePath string `json:"store-path" mapstructure:"store-path"`
	// MaxPathLength bounds how long a Hermit-proposed learning path may be
	// before the stage fails with ErrPathTooLong.
	MaxPathLength int `json:"max-path-length" mapstructure:"max-path-length"`
}

func NewSessionOptions() *SessionOptions {
	return &SessionOptions{
		MaxConcurrent:      10,
		TTLSeconds:         3600,
		ProgressBufferSize: 64,
		MaxPathLength:      20,
	}
}

func (o *SessionOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.MaxConcurrent, "sessions.max-concurrent", o.MaxConcurrent, "Maximum concurrently running learning sessions.")
	fs.IntVar(&o.TTLSeconds, "sessions.ttl-seconds", o.TTLSeconds, "Seconds a finished session is retained before GC.")
	fs.IntVar(&o.ProgressBufferSize, "sessions.progress-buffer-size", o.ProgressBufferSize, "Bounded size of each session's progress channel.")
	fs.StringVar(&o.StorePath, "sessions.store-path", o.StorePath, "Optional BoltDB file for persisting sessions across restarts.")
	fs.IntVar(&o.MaxPathLength, "sessions.max-path-length", o.MaxPathLength, "Maximum notes allowed in a Hermit-proposed learning path.")
}
