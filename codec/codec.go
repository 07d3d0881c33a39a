// ABOUTME: Bidirectional mapping between UI form items and wire form fields
// ABOUTME: Order preserving and 1:1 on index; unknown kinds are programmer errors
package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/formsync/models"
)

// TrafficLightOptions are attached to every traffic light radio group.
var TrafficLightOptions = []string{"green", "yellow", "red"}

const (
	yes = "yes"
	no  = "no"
)

// UnknownKindError reports an item or field type the codec has no mapping
// for. It means the template definition and the client disagree on schema.
type UnknownKindError struct {
	Index int
	Kind  string
	Field bool
}

func (e *UnknownKindError) Error() string {
	side := "item"
	if e.Field {
		side = "field"
	}
	return fmt.Sprintf("codec: unknown form %s type %q at index %d", side, e.Kind, e.Index)
}

// ToFormFields converts form items into their wire fields.
func ToFormFields(items []models.FormItem) ([]models.FormField, error) {
	fields := make([]models.FormField, len(items))
	for i, item := range items {
		field, err := toFormField(item)
		if err != nil {
			return nil, &UnknownKindError{Index: i, Kind: string(item.Type)}
		}
		fields[i] = field
	}
	return fields, nil
}

// ToFormItems converts wire fields into editable form items.
func ToFormItems(fields []models.FormField) ([]models.FormItem, error) {
	items := make([]models.FormItem, len(fields))
	for i, field := range fields {
		item, err := toFormItem(field)
		if err != nil {
			return nil, &UnknownKindError{Index: i, Kind: string(field.Type), Field: true}
		}
		items[i] = item
	}
	return items, nil
}

// MustToFormFields is ToFormFields for callers holding a validated template.
func MustToFormFields(items []models.FormItem) []models.FormField {
	fields, err := ToFormFields(items)
	if err != nil {
		panic(err)
	}
	return fields
}

// MustToFormItems is ToFormItems for callers holding a validated template.
func MustToFormItems(fields []models.FormField) []models.FormItem {
	items, err := ToFormItems(fields)
	if err != nil {
		panic(err)
	}
	return items
}

var errUnmapped = errors.New("unmapped kind")

func toFormField(item models.FormItem) (models.FormField, error) {
	field := models.FormField{
		ID:       item.ID,
		Label:    item.Title,
		Required: item.Required,
	}

	switch item.Type {
	case models.ItemInput:
		field.Type = models.FieldText
		field.Text = firstValue(item.Value)
	case models.ItemTrafficLight:
		field.Type = models.FieldRadioGroup
		field.Options = copyStrings(TrafficLightOptions)
		field.Text = firstValue(item.Value)
	case models.ItemYesNo:
		field.Type = models.FieldCheckbox
		field.Checked = parseYesNo(item.Value)
	case models.ItemDropdown:
		field.Type = models.FieldSelect
		field.Options = copyStrings(item.Options)
		field.Selected = copyStrings(item.Value)
	case models.ItemCheckbox:
		field.Type = models.FieldSelect
		field.Multiple = true
		field.Options = copyStrings(item.Options)
		field.Selected = copyStrings(item.Value)
		if field.Selected == nil {
			field.Selected = []string{}
		}
	case models.ItemText:
		field.Type = models.FieldLabel
		field.Required = true
		field.Text = firstValue(item.Value)
	default:
		return models.FormField{}, errUnmapped
	}

	return field, nil
}

func toFormItem(field models.FormField) (models.FormItem, error) {
	item := models.FormItem{
		ID:       field.ID,
		Title:    field.Label,
		Required: field.Required,
	}

	switch field.Type {
	case models.FieldText:
		item.Type = models.ItemInput
		item.Value = valueOf(field.Text)
	case models.FieldRadioGroup:
		item.Type = models.ItemTrafficLight
		item.Value = valueOf(field.Text)
	case models.FieldCheckbox:
		item.Type = models.ItemYesNo
		if field.Checked != nil {
			if *field.Checked {
				item.Value = []string{yes}
			} else {
				item.Value = []string{no}
			}
		}
	case models.FieldSelect:
		if field.Multiple {
			item.Type = models.ItemCheckbox
		} else {
			item.Type = models.ItemDropdown
		}
		item.Options = copyStrings(field.Options)
		item.Value = copyStrings(field.Selected)
	case models.FieldLabel:
		item.Type = models.ItemText
		item.Required = true
		item.Value = valueOf(field.Text)
	case models.FieldNumber, models.FieldTextArea, models.FieldFile:
		// TODO: number, textArea and file fields have no item kind yet.
		return models.FormItem{}, errUnmapped
	default:
		return models.FormItem{}, errUnmapped
	}

	return item, nil
}

// firstValue maps an item answer to a single string. A cleared answer (empty
// but non-nil) becomes "", an absent one stays absent.
func firstValue(value []string) *string {
	if value == nil {
		return nil
	}
	s := ""
	if len(value) > 0 {
		s = value[0]
	}
	return &s
}

// valueOf is the inverse of firstValue.
func valueOf(s *string) []string {
	if s == nil {
		return nil
	}
	if *s == "" {
		return []string{}
	}
	return []string{*s}
}

func parseYesNo(value []string) *bool {
	if len(value) == 0 {
		return nil
	}
	var b bool
	switch strings.ToLower(strings.TrimSpace(value[0])) {
	case yes:
		b = true
	case no:
		b = false
	default:
		return nil
	}
	return &b
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
