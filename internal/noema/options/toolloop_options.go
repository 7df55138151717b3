package options

import "github.com/spf13/pflag"

// ToolLoopOptions configures the bounded tool-call loop every agent runs
// through (§4.6, §6 tool_loop.*).
type ToolLoopOptions struct {
	// MaxDepth caps how many tool-call round trips a single agent turn may
	// take before the loop forces a final answer.
	MaxDepth int `json:"max-depth" mapstructure:"max-depth"`
}

func NewToolLoopOptions() *ToolLoopOptions {
	return &ToolLoopOptions{MaxDepth: 5}
}

func (o *ToolLoopOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.MaxDepth, "tool-loop.max-depth", o.MaxDepth, "Maximum tool-call round trips per agent turn.")
}
