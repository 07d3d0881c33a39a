// ABOUTME: Output shapes shared by the MCP tools
// ABOUTME: Fields are exposed in their wire form so every kind can be listed
package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/harperreed/formsync/db"
	"github.com/harperreed/formsync/models"
)

// FieldOutput mirrors the persisted JSON form of a field.
type FieldOutput struct {
	ID       string   `json:"id,omitempty"`
	Type     string   `json:"type"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Value    any      `json:"value,omitempty"`
	Options  []string `json:"options,omitempty"`
	Multiple bool     `json:"multiple,omitempty"`
}

type FormOutput struct {
	ID         string        `json:"id"`
	TemplateID string        `json:"template_id"`
	ObjectGUID string        `json:"object_guid,omitempty"`
	Title      string        `json:"title"`
	State      string        `json:"state"`
	IsFinal    bool          `json:"is_final,omitempty"`
	Placed     bool          `json:"placed,omitempty"`
	Fields     []FieldOutput `json:"fields"`
	ModifiedAt string        `json:"modified_at,omitempty"`
}

type TemplateOutput struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	State    string `json:"state"`
	New      int    `json:"new"`
	Ongoing  int    `json:"ongoing"`
	Finished int    `json:"finished"`
	Readonly bool   `json:"readonly,omitempty"`
}

func fieldsToOutput(fields []models.FormField) ([]FieldOutput, error) {
	out := make([]FieldOutput, 0, len(fields))
	for _, f := range fields {
		data, err := json.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %s: %w", f.ID, err)
		}
		var fo FieldOutput
		if err := json.Unmarshal(data, &fo); err != nil {
			return nil, err
		}
		out = append(out, fo)
	}
	return out, nil
}

func formToOutput(sf db.StoredForm) (FormOutput, error) {
	fields, err := fieldsToOutput(sf.Form.Fields)
	if err != nil {
		return FormOutput{}, err
	}
	out := FormOutput{
		ID:         sf.Form.ID,
		TemplateID: sf.TemplateID,
		ObjectGUID: sf.ObjectGUID,
		Title:      sf.Form.Title,
		State:      string(sf.Form.State),
		IsFinal:    sf.Form.IsFinal,
		Placed:     sf.Form.HasTransform(),
		Fields:     fields,
	}
	if ts := sf.Form.ModifiedOn.Timestamp; !ts.IsZero() {
		out.ModifiedAt = ts.Format("2006-01-02T15:04:05Z07:00")
	}
	return out, nil
}

func templateToOutput(t models.Template) TemplateOutput {
	return TemplateOutput{
		ID:       t.ID,
		Title:    t.Title,
		Type:     string(t.Type),
		State:    string(t.State.Overall()),
		New:      t.State.New,
		Ongoing:  t.State.Ongoing,
		Finished: t.State.Finished,
		Readonly: t.Readonly,
	}
}
