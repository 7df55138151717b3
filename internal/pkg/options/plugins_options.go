package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// PluginsOptions holds the top-level configuration for plugin system.
// Aligned with the plugin system configuration file.
type PluginsOptions struct {
	// Enabled controls whether the plugin system is enabled. (default: true)
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// Allow is accepted but not read: no allow-list filtering is applied
	// when plugins load.
	Allow []string `json:"allow" mapstructure:"allow"`
	// Deny is accepted but not read: no deny-list filtering is applied
	// when plugins load.
	Deny []string `json:"deny" mapstructure:"deny"`
	// Slots controls which plugin occupies each exclusive slot.
	// For example. {"vault": "vault-tools"}.
	// Special value "none" disables all plugins of the kind
	Slots PluginSlotsConfig `json:"slots" mapstructure:"slots"`
	// Entries holds per-plugin configuration.
	// Key is the plugin ID. (e.g. "vault-tools", "diagnostics")
	Entries map[string]PluginEntryConfig `json:"entries" mapstructure:"entries"`
}

// PluginSlotsConfig maps slot kind -> desired Plugin ID
// Aligned with the plugin system configuration file.
type PluginSlotsConfig struct {
	Vault string `json:"vault" mapstructure:"vault"`
}

// PluginEntryConfig holds per-plugin configuration.
// Aligned with the plugin system configuration file.
type PluginEntryConfig struct {
	Enabled *bool                  `json:"enabled,omitempty" mapstructure:"enabled"`
	Config  map[string]interface{} `json:"config,omitempty" mapstructure:"config"`
}

// NewPluginsOptions returns a new instance of PluginsOptions.
func NewPluginsOptions() *PluginsOptions {
	return &PluginsOptions{
		Enabled: true,
		Allow:   []string{},
		Deny:    []string{},
		Slots: PluginSlotsConfig{
			Vault: "vault-tools",
		},
		Entries: make(map[string]PluginEntryConfig),
	}
}

// Validate checks PluginsOptions fields.
func (o *PluginsOptions) Validate() []error {
	var errs []error

	// Validate slot values.
	if o.Slots.Vault != "" && o.Slots.Vault != "none" {
		// Valid plugin IDs are DNS-compatible
		for _, c := range o.Slots.Vault {
			if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_') {
				errs = append(errs, fmt.Errorf("invalid character %q in vault slot name", c))
				break
			}
		}
	}

	return errs
}

// AddFlags adds flags for the plugins options.
// Only global-level switches are exposed as CLI flags.
// Per-plugin configuration is done via the plugin's own configuration file.
func (o *PluginsOptions) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Enabled, "plugins.enabled", o.Enabled, "Enable the plugin system.")
	fs.StringVar(&o.Slots.Vault, "plugins.slots.vault", o.Slots.Vault, "Vault tool-provider slot name for plugins.")
}
