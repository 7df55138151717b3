// Package vaulttools is the in-tree plugin exposing the Link Engine and Note
// Store as agent-callable tools: keyword_match, neighbors, shortest_path,
// multi_shortest_paths, and read_note. It occupies the "vault" plugin slot,
// replacing the memory-core slot the framework shipped with originally.
package vaulttools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/corvid-labs/noema/internal/noema/linkgraph"
	"github.com/corvid-labs/noema/internal/noema/service/plugin"
	"github.com/corvid-labs/noema/internal/noema/vault"
)

// PluginName is this plugin's registration ID.
const PluginName = "vault-tools"

// Config configures the vault-tools plugin.
type Config struct {
	DefaultLimit    int
	DefaultMaxDepth int
	DefaultRadius   int
}

// DefaultConfig returns the default tool-level limits.
func DefaultConfig() *Config {
	return &Config{DefaultLimit: 10, DefaultMaxDepth: 5, DefaultRadius: 2}
}

// PluginDefinition returns this plugin's static metadata.
func PluginDefinition() plugin.Definition {
	return plugin.Definition{
		ID:          PluginName,
		Name:        "Vault Tools",
		Kind:        "vault",
		Description: "Link Engine and Note Store tools: keyword_match, neighbors, shortest_path, multi_shortest_paths, read_note",
	}
}

// Factory creates the plugin instance. args must carry "store" (*vault.Store),
// "engine" (*linkgraph.Engine), and optionally "config" (*Config).
func Factory(args plugin.PluginArgs, _ plugin.Handle) (plugin.Plugin, error) {
	store, ok := args["store"].(*vault.Store)
	if !ok || store == nil {
		return nil, fmt.Errorf("vaulttools: factory requires a *vault.Store under args[%q]", "store")
	}
	engine, ok := args["engine"].(*linkgraph.Engine)
	if !ok || engine == nil {
		return nil, fmt.Errorf("vaulttools: factory requires a *linkgraph.Engine under args[%q]", "engine")
	}
	cfg, _ := args["config"].(*Config)
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Plugin{store: store, engine: engine, cfg: cfg}, nil
}

// Plugin implements plugin.Plugin and plugin.ToolProvider.
type Plugin struct {
	store  *vault.Store
	engine *linkgraph.Engine
	cfg    *Config
}

var _ plugin.ToolProvider = (*Plugin)(nil)

func (p *Plugin) Name() string { return PluginName }

// Tools returns the five Link-Engine/Note-Store-backed tools.
func (p *Plugin) Tools() []plugin.ToolDefinition {
	return []plugin.ToolDefinition{
		p.keywordMatchTool(),
		p.neighborsTool(),
		p.shortestPathTool(),
		p.multiShortestPathsTool(),
		p.readNoteTool(),
	}
}

func (p *Plugin) keywordMatchTool() plugin.ToolDefinition {
	return plugin.ToolDefinition{
		Name:        "keyword_match",
		Description: "Rank vault notes by tag, title, and body token overlap with a free-text query.",
		Parameters: []plugin.ParameterDef{
			{Name: "query", Type: "string", Description: "search text", Required: true},
			{Name: "limit", Type: "number", Description: "max results"},
		},
		Handler: func(_ context.Context, params map[string]interface{}) (interface{}, error) {
			query, _ := params["query"].(string)
			if strings.TrimSpace(query) == "" {
				return nil, fmt.Errorf("keyword_match: query is required")
			}
			limit := intParam(params, "limit", p.cfg.DefaultLimit)
			matches := p.engine.KeywordMatch(query, limit)
			if len(matches) == 0 {
				return "no matching notes", nil
			}
			var b strings.Builder
			for _, m := range matches {
				fmt.Fprintf(&b, "%s (score %.2f)\n", m.Slug, m.Score)
			}
			return b.String(), nil
		},
	}
}

func (p *Plugin) neighborsTool() plugin.ToolDefinition {
	return plugin.ToolDefinition{
		Name:        "neighbors",
		Description: "Breadth-first expansion over outgoing and incoming links up to a given radius.",
		Parameters: []plugin.ParameterDef{
			{Name: "slug", Type: "string", Description: "origin note slug", Required: true},
			{Name: "radius", Type: "number", Description: "max hop distance"},
		},
		Handler: func(_ context.Context, params map[string]interface{}) (interface{}, error) {
			slug, _ := params["slug"].(string)
			if strings.TrimSpace(slug) == "" {
				return nil, fmt.Errorf("neighbors: slug is required")
			}
			radius := intParam(params, "radius", p.cfg.DefaultRadius)
			distances := p.engine.Neighbors(slug, radius)
			if len(distances) == 0 {
				return fmt.Sprintf("no neighbors found for %q within radius %d", slug, radius), nil
			}
			var b strings.Builder
			for _, d := range distances {
				fmt.Fprintf(&b, "%s (distance %d)\n", d.Slug, d.Distance)
			}
			return b.String(), nil
		},
	}
}

func (p *Plugin) shortestPathTool() plugin.ToolDefinition {
	return plugin.ToolDefinition{
		Name:        "shortest_path",
		Description: "Bidirectional BFS shortest path between two notes, tie-broken lexicographically.",
		Parameters: []plugin.ParameterDef{
			{Name: "from", Type: "string", Description: "source slug", Required: true},
			{Name: "to", Type: "string", Description: "destination slug", Required: true},
			{Name: "max_depth", Type: "number", Description: "max path length"},
		},
		Handler: func(_ context.Context, params map[string]interface{}) (interface{}, error) {
			from, _ := params["from"].(string)
			to, _ := params["to"].(string)
			if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
				return nil, fmt.Errorf("shortest_path: both from and to are required")
			}
			maxDepth := intParam(params, "max_depth", p.cfg.DefaultMaxDepth)
			path := p.engine.ShortestPath(from, to, maxDepth)
			if len(path) == 0 {
				return fmt.Sprintf("no path found between %q and %q within depth %d", from, to, maxDepth), nil
			}
			return strings.Join(path, " -> "), nil
		},
	}
}

func (p *Plugin) multiShortestPathsTool() plugin.ToolDefinition {
	return plugin.ToolDefinition{
		Name:        "multi_shortest_paths",
		Description: "Compute a context backbone connecting a set of notes: pairwise shortest paths plus one-hop expansion around intersection notes.",
		Parameters: []plugin.ParameterDef{
			{Name: "slugs", Type: "string", Description: "comma-separated slugs", Required: true},
			{Name: "max_depth", Type: "number", Description: "max path length per pair"},
		},
		Handler: func(_ context.Context, params map[string]interface{}) (interface{}, error) {
			raw, _ := params["slugs"].(string)
			set := splitCSV(raw)
			if len(set) < 2 {
				return nil, fmt.Errorf("multi_shortest_paths: slugs must list at least two comma-separated slugs")
			}
			maxDepth := intParam(params, "max_depth", p.cfg.DefaultMaxDepth)
			backbone := p.engine.MultiShortestPaths(set, maxDepth)
			return fmt.Sprintf("backbone: %s\nintersections: %s", strings.Join(backbone.Slugs, ", "), strings.Join(backbone.Intersections, ", ")), nil
		},
	}
}

func (p *Plugin) readNoteTool() plugin.ToolDefinition {
	return plugin.ToolDefinition{
		Name:        "read_note",
		Description: "Read a note's full body by slug. Used to dereference notes the context builder externalised for size.",
		Parameters: []plugin.ParameterDef{
			{Name: "slug", Type: "string", Description: "note slug", Required: true},
		},
		Handler: func(_ context.Context, params map[string]interface{}) (interface{}, error) {
			slug, _ := params["slug"].(string)
			if strings.TrimSpace(slug) == "" {
				return nil, fmt.Errorf("read_note: slug is required")
			}
			note, err := p.store.Read(slug)
			if err != nil {
				return nil, fmt.Errorf("read_note: %w", err)
			}
			return fmt.Sprintf("# %s\n\n%s", note.Title(), note.Body), nil
		},
	}
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	switch t := v.(type) {
	case int:
		return t
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return fallback
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
