// ABOUTME: Scene object resolution MCP tool handlers
// ABOUTME: Implements resolve_guids and resolve_ids over the batched resolver
package handlers

import (
	"context"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/formsync/models"
	"github.com/harperreed/formsync/resolver"
)

type ResolveHandlers struct {
	resolver *resolver.Resolver
}

func NewResolveHandlers(r *resolver.Resolver) *ResolveHandlers {
	return &ResolveHandlers{resolver: r}
}

type ResolveGUIDsInput struct {
	GUIDs []string `json:"guids" jsonschema:"Stable object GUIDs to map to scene object ids"`
}

type ResolveGUIDsOutput struct {
	IDs     map[string]uint32 `json:"ids"`
	Missing []string          `json:"missing,omitempty"`
}

func (h *ResolveHandlers) ResolveGUIDs(ctx context.Context, _ *mcp.CallToolRequest, input ResolveGUIDsInput) (*mcp.CallToolResult, ResolveGUIDsOutput, error) {
	if len(input.GUIDs) == 0 {
		return nil, ResolveGUIDsOutput{}, fmt.Errorf("guids is required")
	}

	ids, err := h.resolver.MapGUIDsToIDs(ctx, input.GUIDs)
	if err != nil {
		return nil, ResolveGUIDsOutput{}, fmt.Errorf("failed to resolve guids: %w", err)
	}

	out := ResolveGUIDsOutput{IDs: ids}
	seen := make(map[string]bool, len(input.GUIDs))
	for _, guid := range input.GUIDs {
		if _, ok := ids[guid]; !ok && !seen[guid] {
			out.Missing = append(out.Missing, guid)
		}
		seen[guid] = true
	}
	return nil, out, nil
}

type ResolveIDsInput struct {
	IDs []uint32 `json:"ids" jsonschema:"Scene object ids to resolve"`
}

type ResolveIDsOutput struct {
	Objects []models.FormObject `json:"objects"`
}

func (h *ResolveHandlers) ResolveIDs(ctx context.Context, _ *mcp.CallToolRequest, input ResolveIDsInput) (*mcp.CallToolResult, ResolveIDsOutput, error) {
	if len(input.IDs) == 0 {
		return nil, ResolveIDsOutput{}, fmt.Errorf("ids is required")
	}

	objects, err := h.resolver.IDsToObjects(ctx, input.IDs)
	if err != nil {
		return nil, ResolveIDsOutput{}, fmt.Errorf("failed to resolve ids: %w", err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].ID < objects[j].ID })
	if objects == nil {
		objects = []models.FormObject{}
	}
	return nil, ResolveIDsOutput{Objects: objects}, nil
}
