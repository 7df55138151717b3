package options

import (
	"time"

	"github.com/spf13/pflag"
)

// RetryOptions configures retry and backoff for LLM completion calls
// (§4.4, §6 retry.*).
type RetryOptions struct {
	// MaxAttempts bounds retries of the same candidate before the client
	// fails over to the next model in the fallback chain.
	MaxAttempts int `json:"max-attempts" mapstructure:"max-attempts"`
	// BaseDelayMs is the initial backoff delay in milliseconds; doubled
	// each retry with jitter applied.
	BaseDelayMs int `json:"base-delay-ms" mapstructure:"base-delay-ms"`
}

func NewRetryOptions() *RetryOptions {
	return &RetryOptions{MaxAttempts: 2, BaseDelayMs: 500}
}

func (o *RetryOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.MaxAttempts, "retry.max-attempts", o.MaxAttempts, "Maximum retries of a single model candidate before failover.")
	fs.IntVar(&o.BaseDelayMs, "retry.base-delay-ms", o.BaseDelayMs, "Initial retry backoff, in milliseconds, doubled per attempt.")
}

// BaseDelay returns BaseDelayMs as a time.Duration.
func (o *RetryOptions) BaseDelay() time.Duration {
	return time.Duration(o.BaseDelayMs) * time.Millisecond
}
