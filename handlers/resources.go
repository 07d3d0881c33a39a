// ABOUTME: MCP resource handlers exposing the local forms snapshot
// ABOUTME: Read-only access to templates, their forms and form history via formsync:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/formsync/db"
)

const scheme = "formsync://"

// ReadResource serves formsync://templates, formsync://templates/{id},
// formsync://forms/{id} and formsync://history/{formId}.
func (h *FormHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, scheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", scheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, scheme), "/")
	switch {
	case parts[0] == "templates" && len(parts) == 1:
		templates, err := h.templates.List(ctx, h.projectID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch templates: %w", err)
		}
		out := make([]TemplateOutput, 0, len(templates))
		for _, t := range templates {
			out = append(out, templateToOutput(t))
		}
		return jsonResource(uri, out)

	case parts[0] == "templates" && len(parts) == 2:
		t, err := h.templates.Get(ctx, h.projectID, parts[1])
		if err != nil {
			return nil, fmt.Errorf("failed to fetch template: %w", err)
		}
		stored, err := h.forms.List(ctx, h.projectID, db.FormQuery{TemplateID: t.ID})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch forms: %w", err)
		}
		for _, sf := range stored {
			t.Forms = append(t.Forms, sf.Form)
		}
		return jsonResource(uri, t)

	case parts[0] == "forms" && len(parts) == 2:
		sf, err := h.forms.Get(ctx, h.projectID, parts[1])
		if err != nil {
			return nil, fmt.Errorf("failed to fetch form: %w", err)
		}
		out, err := formToOutput(*sf)
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, out)

	case parts[0] == "history" && len(parts) == 2:
		if h.history == nil {
			return nil, fmt.Errorf("form history is not available")
		}
		entries, err := h.history.List(h.projectID, parts[1])
		if err != nil {
			return nil, fmt.Errorf("failed to fetch history: %w", err)
		}
		return jsonResource(uri, entries)

	default:
		return nil, fmt.Errorf("unknown resource: %s", uri)
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
