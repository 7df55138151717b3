package mcp

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"

	"github.com/corvid-labs/noema/internal/noema/service/plugin"
	noemajson "github.com/corvid-labs/noema/pkg/json"
)

// ToolDefinitions adapts every tool exposed by manager's connected MCP
// servers into plugin.ToolDefinition so they join the same deterministic
// catalogue as the built-in vault tools. Parameter schemas are left to the
// MCP server's own Info() description; the catalogue only renders name and
// description (§4.5), so no schema translation is needed here.
func ToolDefinitions(manager Manager) []plugin.ToolDefinition {
	if manager == nil {
		return nil
	}
	tools := manager.GetAllTools()
	defs := make([]plugin.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		def, ok := adaptTool(t)
		if ok {
			defs = append(defs, def)
		}
	}
	return defs
}

func adaptTool(t tool.BaseTool) (plugin.ToolDefinition, bool) {
	invokable, ok := t.(tool.InvokableTool)
	if !ok {
		return plugin.ToolDefinition{}, false
	}

	info, err := t.Info(context.Background())
	if err != nil || info == nil {
		return plugin.ToolDefinition{}, false
	}

	return plugin.ToolDefinition{
		Name:        info.Name,
		Description: info.Desc,
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			argsJSON, err := noemajson.Marshal(params)
			if err != nil {
				return nil, fmt.Errorf("marshal mcp tool arguments: %w", err)
			}
			result, err := invokable.InvokableRun(ctx, string(argsJSON))
			if err != nil {
				return nil, fmt.Errorf("invoke mcp tool %q: %w", info.Name, err)
			}
			return result, nil
		},
	}, true
}
