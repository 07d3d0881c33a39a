// ABOUTME: Form and template MCP tool handlers over the local snapshot
// ABOUTME: Implements list_templates, list_forms and update_form_fields
package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/formsync/codec"
	"github.com/harperreed/formsync/db"
	"github.com/harperreed/formsync/forms"
	"github.com/harperreed/formsync/models"
	"github.com/harperreed/formsync/workflow"
)

// FieldSaver pushes edited field values to the server.
type FieldSaver interface {
	SaveFields(ctx context.Context, ref forms.FormRef, form models.Form) (*models.Form, error)
}

type FormHandlers struct {
	projectID string
	templates *db.TemplatesRepository
	forms     *db.FormsRepository
	history   *db.HistoryStore
	saver     FieldSaver
}

// NewFormHandlers serves the snapshot of projectID. history and saver are
// optional; without a saver edits stay local.
func NewFormHandlers(database *sql.DB, projectID string, history *db.HistoryStore, saver FieldSaver) *FormHandlers {
	return &FormHandlers{
		projectID: projectID,
		templates: db.NewTemplatesRepository(database),
		forms:     db.NewFormsRepository(database),
		history:   history,
		saver:     saver,
	}
}

type ListTemplatesInput struct {
	Name   string   `json:"name,omitempty" jsonschema:"Case-insensitive substring of the template title"`
	Kinds  []string `json:"kinds,omitempty" jsonschema:"Template kinds to include (search, location); default all"`
	States []string `json:"states,omitempty" jsonschema:"Aggregate states to include (new, ongoing, finished); default all"`
}

type ListTemplatesOutput struct {
	Templates []TemplateOutput `json:"templates"`
}

func (h *FormHandlers) ListTemplates(ctx context.Context, _ *mcp.CallToolRequest, input ListTemplatesInput) (*mcp.CallToolResult, ListTemplatesOutput, error) {
	filters, err := buildFilters(input.Name, input.States, input.Kinds)
	if err != nil {
		return nil, ListTemplatesOutput{}, err
	}

	templates, err := h.templates.List(ctx, h.projectID)
	if err != nil {
		return nil, ListTemplatesOutput{}, fmt.Errorf("failed to list templates: %w", err)
	}

	out := ListTemplatesOutput{Templates: []TemplateOutput{}}
	for _, t := range filters.ApplyTemplates(templates) {
		out.Templates = append(out.Templates, templateToOutput(t))
	}
	return nil, out, nil
}

type ListFormsInput struct {
	TemplateID string   `json:"template_id,omitempty" jsonschema:"Only forms of this template"`
	ObjectGUID string   `json:"object_guid,omitempty" jsonschema:"Only forms attached to this scene object"`
	Name       string   `json:"name,omitempty" jsonschema:"Case-insensitive substring of the form title"`
	States     []string `json:"states,omitempty" jsonschema:"Workflow states to include (new, ongoing, finished); default all"`
	Limit      int      `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50)"`
}

type ListFormsOutput struct {
	Forms []FormOutput `json:"forms"`
	Total int          `json:"total"`
}

func (h *FormHandlers) ListForms(ctx context.Context, _ *mcp.CallToolRequest, input ListFormsInput) (*mcp.CallToolResult, ListFormsOutput, error) {
	filters, err := buildFilters(input.Name, input.States, nil)
	if err != nil {
		return nil, ListFormsOutput{}, err
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	stored, err := h.forms.List(ctx, h.projectID, db.FormQuery{
		TemplateID: input.TemplateID,
		ObjectGUID: input.ObjectGUID,
	})
	if err != nil {
		return nil, ListFormsOutput{}, fmt.Errorf("failed to list forms: %w", err)
	}

	out := ListFormsOutput{Forms: []FormOutput{}}
	for _, sf := range stored {
		if !filters.FormPasses(sf.Form) {
			continue
		}
		out.Total++
		if len(out.Forms) >= limit {
			continue
		}
		fo, err := formToOutput(sf)
		if err != nil {
			return nil, ListFormsOutput{}, err
		}
		out.Forms = append(out.Forms, fo)
	}
	return nil, out, nil
}

type UpdateFormFieldsInput struct {
	FormID string            `json:"form_id" jsonschema:"Form ID (required)"`
	Items  []models.FormItem `json:"items" jsonschema:"Edited items; replaces every field of the form"`
}

func (h *FormHandlers) UpdateFormFields(ctx context.Context, _ *mcp.CallToolRequest, input UpdateFormFieldsInput) (*mcp.CallToolResult, FormOutput, error) {
	if input.FormID == "" {
		return nil, FormOutput{}, fmt.Errorf("form_id is required")
	}

	sf, err := h.forms.Get(ctx, h.projectID, input.FormID)
	if err != nil {
		return nil, FormOutput{}, fmt.Errorf("failed to find form: %w", err)
	}

	fields, err := codec.ToFormFields(input.Items)
	if err != nil {
		return nil, FormOutput{}, err
	}
	if err := workflow.SetFields(&sf.Form, fields); err != nil {
		return nil, FormOutput{}, err
	}

	if h.saver != nil {
		ref := forms.FormRef{TemplateID: sf.TemplateID, FormID: sf.Form.ID, ObjectGUID: sf.ObjectGUID}
		saved, err := h.saver.SaveFields(ctx, ref, sf.Form)
		if err != nil {
			return nil, FormOutput{}, err
		}
		if saved != nil {
			sf.Form = *saved
			workflow.Recalculate(&sf.Form)
		}
	}

	if err := h.forms.Upsert(ctx, h.projectID, *sf); err != nil {
		return nil, FormOutput{}, err
	}
	h.record(sf.Form)

	out, err := formToOutput(*sf)
	if err != nil {
		return nil, FormOutput{}, err
	}
	return nil, out, nil
}

// record appends a history snapshot. The edit already succeeded, so a
// failure here is only logged.
func (h *FormHandlers) record(form models.Form) {
	if h.history == nil {
		return
	}
	ts := form.ModifiedOn.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	err := h.history.Append(h.projectID, models.HistoryEntry{Timestamp: ts, Form: form})
	if err != nil && !errors.Is(err, db.ErrHistoryImmutable) {
		log.WithPrefix("handlers").Warn("failed to record form history", "form", form.ID, "err", err)
	}
}

func buildFilters(name string, states, kinds []string) (forms.Filters, error) {
	f := forms.DefaultFilters()
	f.Name = name

	if len(states) > 0 {
		f.New, f.Ongoing, f.Finished = false, false, false
		for _, s := range states {
			switch models.WorkflowState(s) {
			case models.StateNew:
				f.New = true
			case models.StateOngoing:
				f.Ongoing = true
			case models.StateFinished:
				f.Finished = true
			default:
				return forms.Filters{}, fmt.Errorf("invalid state: %s (valid: new, ongoing, finished)", s)
			}
		}
	}

	if len(kinds) > 0 {
		f.Search, f.Location = false, false
		for _, k := range kinds {
			switch models.TemplateType(k) {
			case models.TemplateSearch:
				f.Search = true
			case models.TemplateLocation:
				f.Location = true
			default:
				return forms.Filters{}, fmt.Errorf("invalid kind: %s (valid: search, location)", k)
			}
		}
	}
	return f, nil
}
