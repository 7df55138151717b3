package options

import (
	genericoptions "github.com/corvid-labs/noema/internal/pkg/options"
	"github.com/corvid-labs/noema/pkg/json"
	"github.com/spf13/pflag"
)

// Options aggregates every configurable surface of the noemad process.
// Mirrors the vault/models/plugins/mcp/server/sessions sections of the
// on-disk configuration file.
type Options struct {
	ServerOptions   *ServerOptions                 `json:"server"    mapstructure:"server"`
	VaultOptions    *VaultOptions                  `json:"vault"     mapstructure:"vault"`
	ModelOptions    *genericoptions.ModelOptions   `json:"models"    mapstructure:"models"`
	PluginOptions   *genericoptions.PluginsOptions `json:"plugins"   mapstructure:"plugins"`
	MCPOptions      *MCPOptions                    `json:"mcp"       mapstructure:"mcp"`
	SessionOptions  *SessionOptions                `json:"sessions" mapstructure:"sessions"`
	ContextOptions  *ContextOptions                `json:"context"   mapstructure:"context"`
	LinkOptions     *LinkOptions                   `json:"links"     mapstructure:"links"`
	ToolLoopOptions *ToolLoopOptions               `json:"tool_loop" mapstructure:"tool_loop"`
	RetryOptions    *RetryOptions                  `json:"retry"     mapstructure:"retry"`
}

// NamedFlagSets groups related pflag.FlagSets under a name, the way the
// generated --help output separates "vault", "models", "mcp" etc.
type NamedFlagSets struct {
	order []string
	sets  map[string]*pflag.FlagSet
}

// FlagSet returns the flag set with the given name, creating it on first use.
func (n *NamedFlagSets) FlagSet(name string) *pflag.FlagSet {
	if n.sets == nil {
		n.sets = map[string]*pflag.FlagSet{}
	}
	if _, ok := n.sets[name]; !ok {
		n.sets[name] = pflag.NewFlagSet(name, pflag.ContinueOnError)
		n.order = append(n.order, name)
	}
	return n.sets[name]
}

// FlagSets returns every registered flag set in registration order.
func (n *NamedFlagSets) FlagSets() []*pflag.FlagSet {
	result := make([]*pflag.FlagSet, 0, len(n.order))
	for _, name := range n.order {
		result = append(result, n.sets[name])
	}
	return result
}

func (o *Options) Flags() (fss NamedFlagSets) {
	o.ServerOptions.AddFlags(fss.FlagSet("server"))
	o.VaultOptions.AddFlags(fss.FlagSet("vault"))
	o.ModelOptions.AddFlags(fss.FlagSet("models"))
	o.PluginOptions.AddFlags(fss.FlagSet("plugins"))
	o.MCPOptions.AddFlags(fss.FlagSet("mcp"))
	o.SessionOptions.AddFlags(fss.FlagSet("sessions"))
	o.ContextOptions.AddFlags(fss.FlagSet("context"))
	o.LinkOptions.AddFlags(fss.FlagSet("links"))
	o.ToolLoopOptions.AddFlags(fss.FlagSet("tool_loop"))
	o.RetryOptions.AddFlags(fss.FlagSet("retry"))
	return fss
}

func NewOptions() *Options {
	return &Options{
		ServerOptions:   NewServerOptions(),
		VaultOptions:    NewVaultOptions(),
		ModelOptions:    genericoptions.NewModelOptions(),
		PluginOptions:   genericoptions.NewPluginsOptions(),
		MCPOptions:      NewMCPOptions(),
		SessionOptions:  NewSessionOptions(),
		ContextOptions:  NewContextOptions(),
		LinkOptions:     NewLinkOptions(),
		ToolLoopOptions: NewToolLoopOptions(),
		RetryOptions:    NewRetryOptions(),
	}
}

func (o *Options) String() string {
	data, _ := json.MarshalIndent(o, "", "  ")
	return string(data)
}

// Validate runs every section's Validate() and aggregates the errors.
func (o *Options) Validate() []error {
	var errs []error
	errs = append(errs, o.VaultOptions.Validate()...)
	errs = append(errs, o.ModelOptions.Validate()...)
	errs = append(errs, o.PluginOptions.Validate()...)
	if err := o.MCPOptions.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// Complete fills in defaults derived from other fields. Currently a no-op
// placeholder kept for the Config -> Complete() -> New() wiring convention.
func (o *Options) Complete() error {
	return nil
}
