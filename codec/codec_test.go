// ABOUTME: Tests for the form item and form field codec
// ABOUTME: Validates the mapping table, round trips and unknown kind failures
package codec

import (
	"errors"
	"testing"

	"github.com/harperreed/formsync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip_NonTextKinds(t *testing.T) {
	items := []models.FormItem{
		{ID: "1", Type: models.ItemInput, Title: "Comment", Required: true, Value: []string{"cracked"}},
		{ID: "2", Type: models.ItemInput, Title: "Empty comment", Value: nil},
		{ID: "3", Type: models.ItemTrafficLight, Title: "Condition", Value: []string{"yellow"}},
		{ID: "4", Type: models.ItemYesNo, Title: "Accessible", Required: true, Value: []string{"yes"}},
		{ID: "5", Type: models.ItemYesNo, Title: "Damaged", Value: []string{"no"}},
		{ID: "6", Type: models.ItemDropdown, Title: "Material", Options: []string{"steel", "wood"}, Value: []string{"wood"}},
		{ID: "7", Type: models.ItemCheckbox, Title: "Defects", Options: []string{"rust", "dent", "crack"}, Value: []string{"rust", "crack"}},
	}

	for _, item := range items {
		t.Run(item.Title, func(t *testing.T) {
			fields, err := ToFormFields([]models.FormItem{item})
			require.NoError(t, err)
			back, err := ToFormItems(fields)
			require.NoError(t, err)
			require.Len(t, back, 1)

			assert.Equal(t, item.Type, back[0].Type)
			assert.Equal(t, item.Title, back[0].Title)
			assert.Equal(t, item.Required, back[0].Required)
			assert.Equal(t, item.Value, back[0].Value)
			assert.Equal(t, item.ID, back[0].ID)
		})
	}
}

func TestToFormFields_MappingTable(t *testing.T) {
	fields, err := ToFormFields([]models.FormItem{
		{Type: models.ItemInput, Value: []string{}},
		{Type: models.ItemTrafficLight},
		{Type: models.ItemYesNo, Value: []string{"YES"}},
		{Type: models.ItemDropdown, Options: []string{"a", "b"}},
		{Type: models.ItemCheckbox, Options: []string{"a", "b"}},
		{Type: models.ItemText, Title: "Heading", Required: false, Value: []string{"Read this first"}},
	})
	require.NoError(t, err)
	require.Len(t, fields, 6)

	assert.Equal(t, models.FieldText, fields[0].Type)
	require.NotNil(t, fields[0].Text)
	assert.Equal(t, "", *fields[0].Text)

	assert.Equal(t, models.FieldRadioGroup, fields[1].Type)
	assert.Equal(t, []string{"green", "yellow", "red"}, fields[1].Options)
	assert.Nil(t, fields[1].Text)

	assert.Equal(t, models.FieldCheckbox, fields[2].Type)
	require.NotNil(t, fields[2].Checked)
	assert.True(t, *fields[2].Checked)

	assert.Equal(t, models.FieldSelect, fields[3].Type)
	assert.False(t, fields[3].Multiple)
	assert.Equal(t, []string{"a", "b"}, fields[3].Options)

	assert.Equal(t, models.FieldSelect, fields[4].Type)
	assert.True(t, fields[4].Multiple)
	assert.NotNil(t, fields[4].Selected)
	assert.Empty(t, fields[4].Selected)

	assert.Equal(t, models.FieldLabel, fields[5].Type)
	assert.True(t, fields[5].Required)
	assert.Equal(t, "Read this first", *fields[5].Text)
}

func TestToFormItems_LabelAlwaysRequired(t *testing.T) {
	text := "Safety notice"
	items, err := ToFormItems([]models.FormField{{Type: models.FieldLabel, Label: "Notice", Text: &text}})
	require.NoError(t, err)
	assert.Equal(t, models.ItemText, items[0].Type)
	assert.True(t, items[0].Required)
	assert.Equal(t, []string{"Safety notice"}, items[0].Value)
}

func TestToFormItems_CaseInsensitiveYesNo(t *testing.T) {
	fields := MustToFormFields([]models.FormItem{{Type: models.ItemYesNo, Value: []string{"No"}}})
	items := MustToFormItems(fields)
	assert.Equal(t, []string{"no"}, items[0].Value)

	fields = MustToFormFields([]models.FormItem{{Type: models.ItemYesNo, Value: []string{"maybe"}}})
	assert.Nil(t, fields[0].Checked)
}

func TestPreservesOrder(t *testing.T) {
	items := []models.FormItem{
		{ID: "c", Type: models.ItemCheckbox},
		{ID: "a", Type: models.ItemInput},
		{ID: "b", Type: models.ItemYesNo},
	}
	fields := MustToFormFields(items)
	for i := range items {
		assert.Equal(t, items[i].ID, fields[i].ID)
	}
}

func TestUnknownKinds(t *testing.T) {
	_, err := ToFormFields([]models.FormItem{{Type: models.ItemInput}, {Type: "slider"}})
	var kindErr *UnknownKindError
	require.True(t, errors.As(err, &kindErr))
	assert.Equal(t, 1, kindErr.Index)
	assert.Equal(t, "slider", kindErr.Kind)
	assert.False(t, kindErr.Field)

	n := 3.0
	_, err = ToFormItems([]models.FormField{{Type: models.FieldNumber, Number: &n}})
	require.True(t, errors.As(err, &kindErr))
	assert.True(t, kindErr.Field)
	assert.Contains(t, err.Error(), "number")

	assert.Panics(t, func() {
		MustToFormItems([]models.FormField{{Type: models.FieldFile}})
	})
}
