// ABOUTME: Completion state evaluation for forms
// ABOUTME: Derives new/ongoing/finished from field values and required flags
package workflow

import (
	"math"

	"github.com/harperreed/formsync/models"
)

// CalculateFormState derives the workflow state of a form from its fields in
// a single pass. Nothing filled is new, every required field filled is
// finished, anything else is ongoing. A required label can never be filled,
// so a form containing one stops at ongoing.
func CalculateFormState(fields []models.FormField) models.WorkflowState {
	anyFilled := false
	allRequiredFilled := true

	for _, field := range fields {
		filled := IsFilled(field)
		anyFilled = anyFilled || filled

		if field.Required {
			allRequiredFilled = allRequiredFilled && filled
		}
	}

	switch {
	case !anyFilled:
		return models.StateNew
	case allRequiredFilled:
		return models.StateFinished
	default:
		return models.StateOngoing
	}
}

// IsFilled reports whether a field holds an answer. Labels and files never
// count as filled.
func IsFilled(field models.FormField) bool {
	switch field.Type {
	case models.FieldText, models.FieldRadioGroup, models.FieldTextArea:
		return field.Text != nil && *field.Text != ""
	case models.FieldNumber:
		return field.Number != nil && !math.IsNaN(*field.Number)
	case models.FieldCheckbox:
		return field.Checked != nil
	case models.FieldSelect:
		return len(field.Selected) > 0
	default:
		return false
	}
}

// Recalculate refreshes the cached state of a form after its fields changed.
func Recalculate(form *models.Form) models.WorkflowState {
	form.State = CalculateFormState(form.Fields)
	return form.State
}

// Summarize counts forms per workflow state.
func Summarize(forms []models.Form) models.TemplateState {
	var summary models.TemplateState
	for _, form := range forms {
		summary.Add(form.State)
	}
	return summary
}

// SetFields applies a field edit to a form and keeps its state in step.
func SetFields(form *models.Form, fields []models.FormField) error {
	if err := form.EditFields(fields); err != nil {
		return err
	}
	Recalculate(form)
	return nil
}
