// ABOUTME: Registers every forms tool on an MCP server
// ABOUTME: Resolution tools are only offered when a scene resolver is available
package handlers

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register adds the tools to server. res may be nil.
func Register(server *mcp.Server, fh *FormHandlers, ch *CodecHandlers, res *ResolveHandlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_templates",
		Description: "List form templates of the project, filtered by name, kind and aggregate state",
	}, fh.ListTemplates)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_forms",
		Description: "List forms with their fields, filtered by template, object, name and workflow state",
	}, fh.ListForms)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_form_fields",
		Description: "Replace the fields of a form from edited items and recalculate its workflow state",
	}, fh.UpdateFormFields)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "evaluate_form",
		Description: "Compute the workflow state (new, ongoing, finished) a set of items would give a form",
	}, ch.EvaluateForm)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "convert_items",
		Description: "Convert form items into the persisted field representation",
	}, ch.ConvertItems)

	if res == nil {
		return
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_guids",
		Description: "Map stable object GUIDs to numeric object ids of the loaded scene",
	}, res.ResolveGUIDs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_ids",
		Description: "Look up scene objects (GUID, name, position) by numeric object id",
	}, res.ResolveIDs)
}

// RegisterResources adds the snapshot resources to server.
func RegisterResources(server *mcp.Server, fh *FormHandlers) {
	server.AddResource(&mcp.Resource{
		URI:      scheme + "templates",
		Name:     "templates",
		MIMEType: "application/json",
	}, fh.ReadResource)

	for _, tpl := range []struct{ uri, name string }{
		{scheme + "templates/{id}", "template"},
		{scheme + "forms/{id}", "form"},
		{scheme + "history/{formId}", "form history"},
	} {
		server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: tpl.uri,
			Name:        tpl.name,
			MIMEType:    "application/json",
		}, fh.ReadResource)
	}
}
