// ABOUTME: Wire-facing form fields and UI-facing form items
// ABOUTME: FormField carries a kind-specific value that is encoded under a single "value" key
package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// FieldType tags the wire shape of a form field.
type FieldType string

const (
	FieldText       FieldType = "text"
	FieldNumber     FieldType = "number"
	FieldRadioGroup FieldType = "radioGroup"
	FieldCheckbox   FieldType = "checkbox"
	FieldTextArea   FieldType = "textArea"
	FieldSelect     FieldType = "select"
	FieldFile       FieldType = "file"
	FieldLabel      FieldType = "label"
)

// FormField is one field as persisted by the API. Exactly one of the value
// members is meaningful, chosen by Type:
//
//	text, radioGroup, textArea, label  Text
//	number                             Number
//	checkbox                           Checked
//	select                             Selected
//	file                               Files
type FormField struct {
	ID       string
	Type     FieldType
	Label    string
	Required bool

	Text     *string
	Number   *float64
	Checked  *bool
	Selected []string
	Files    []string

	Options  []string
	Multiple bool
}

type wireField struct {
	ID       string          `json:"id,omitempty"`
	Type     FieldType       `json:"type"`
	Label    string          `json:"label"`
	Required bool            `json:"required"`
	Value    json.RawMessage `json:"value,omitempty"`
	Options  []string        `json:"options,omitempty"`
	Multiple bool            `json:"multiple,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (f FormField) MarshalJSON() ([]byte, error) {
	w := wireField{
		ID:       f.ID,
		Type:     f.Type,
		Label:    f.Label,
		Required: f.Required,
		Options:  f.Options,
		Multiple: f.Multiple,
	}

	var value interface{}
	switch f.Type {
	case FieldText, FieldRadioGroup, FieldTextArea, FieldLabel:
		if f.Text != nil {
			value = *f.Text
		}
	case FieldNumber:
		if f.Number != nil {
			value = *f.Number
		}
	case FieldCheckbox:
		if f.Checked != nil {
			value = *f.Checked
		}
	case FieldSelect:
		if f.Selected != nil {
			value = f.Selected
		}
	case FieldFile:
		if f.Files != nil {
			value = f.Files
		}
	default:
		return nil, fmt.Errorf("unknown field type %q", f.Type)
	}

	if value != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		w.Value = raw
	}

	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FormField) UnmarshalJSON(data []byte) error {
	var w wireField
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*f = FormField{
		ID:       w.ID,
		Type:     w.Type,
		Label:    w.Label,
		Required: w.Required,
		Options:  w.Options,
		Multiple: w.Multiple,
	}

	if len(w.Value) == 0 || string(w.Value) == "null" {
		return nil
	}

	switch w.Type {
	case FieldText, FieldRadioGroup, FieldTextArea, FieldLabel:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return fmt.Errorf("field %q: %w", w.ID, err)
		}
		f.Text = &s
	case FieldNumber:
		var n float64
		if err := json.Unmarshal(w.Value, &n); err != nil {
			return fmt.Errorf("field %q: %w", w.ID, err)
		}
		f.Number = &n
	case FieldCheckbox:
		var b bool
		if err := json.Unmarshal(w.Value, &b); err != nil {
			return fmt.Errorf("field %q: %w", w.ID, err)
		}
		f.Checked = &b
	case FieldSelect:
		sel := []string{}
		if err := json.Unmarshal(w.Value, &sel); err != nil {
			return fmt.Errorf("field %q: %w", w.ID, err)
		}
		f.Selected = sel
	case FieldFile:
		files := []string{}
		if err := json.Unmarshal(w.Value, &files); err != nil {
			return fmt.Errorf("field %q: %w", w.ID, err)
		}
		f.Files = files
	default:
		return fmt.Errorf("unknown field type %q", w.Type)
	}

	return nil
}

// ItemType tags the UI shape of a form item.
type ItemType string

const (
	ItemCheckbox     ItemType = "checkbox"
	ItemYesNo        ItemType = "yesNo"
	ItemTrafficLight ItemType = "trafficLight"
	ItemDropdown     ItemType = "dropdown"
	ItemInput        ItemType = "input"
	ItemText         ItemType = "text"
)

// FormItem is the editable representation of a field. An empty or nil Value
// means the item is unanswered.
type FormItem struct {
	ID       string   `json:"id"`
	Type     ItemType `json:"type"`
	Title    string   `json:"title"`
	Required bool     `json:"required"`
	Relevant *bool    `json:"relevant,omitempty"`
	Value    []string `json:"value,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// ErrRequiredRelevant is returned when a required item is marked irrelevant.
var ErrRequiredRelevant = errors.New("required items are always relevant")

// MarkIrrelevant flags a non-required item as not relevant and clears its answer.
func (i *FormItem) MarkIrrelevant() error {
	if i.Required {
		return ErrRequiredRelevant
	}
	relevant := false
	i.Relevant = &relevant
	i.Value = nil
	return nil
}

// IsRelevant reports whether the item still counts for the form.
func (i *FormItem) IsRelevant() bool {
	return i.Relevant == nil || *i.Relevant
}
