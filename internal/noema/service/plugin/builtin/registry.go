package builtin

import (
	"github.com/corvid-labs/noema/internal/noema/linkgraph"
	"github.com/corvid-labs/noema/internal/noema/service/plugin"
	"github.com/corvid-labs/noema/internal/noema/service/plugin/builtin/vaulttools"
	"github.com/corvid-labs/noema/internal/noema/vault"
	genericoptions "github.com/corvid-labs/noema/internal/pkg/options"
)

// NewInTreeRegistry creates a new in-tree plugin registry with the default
// plugins. Configuration is sourced from PluginsOptions
// (plugins.entries.vault-tools.config).
//
// The default plugins are:
//   - vault-tools: keyword_match, neighbors, shortest_path,
//     multi_shortest_paths, and read_note over the note vault and link graph.
func NewInTreeRegistry(opts *genericoptions.PluginsOptions, store *vault.Store, engine *linkgraph.Engine) *plugin.InTreeRegistry {
	registry := plugin.NewInTreeRegistry()

	registry.Register(
		vaulttools.PluginDefinition(),
		vaulttools.Factory,
		plugin.PluginArgs{
			"store":  store,
			"engine": engine,
			"config": resolveVaultToolsConfig(opts),
		})

	return registry
}

// resolveVaultToolsConfig resolves the vault-tools plugin config from the
// given options.
func resolveVaultToolsConfig(opts *genericoptions.PluginsOptions) *vaulttools.Config {
	cfg := vaulttools.DefaultConfig()
	if opts == nil {
		return cfg
	}
	entry, ok := opts.Entries[vaulttools.PluginName]
	if !ok || entry.Config == nil {
		return cfg
	}

	if v, ok := entry.Config["default_limit"]; ok {
		if n, ok := v.(int); ok {
			cfg.DefaultLimit = n
		}
	}
	if v, ok := entry.Config["default_max_depth"]; ok {
		if n, ok := v.(int); ok {
			cfg.DefaultMaxDepth = n
		}
	}
	if v, ok := entry.Config["default_radius"]; ok {
		if n, ok := v.(int); ok {
			cfg.DefaultRadius = n
		}
	}
	return cfg
}
