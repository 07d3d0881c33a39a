// ABOUTME: Seed data for the development API server
// ABOUTME: Reads a JSON fixture or builds a small demo project
package web

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/formsync/models"
)

// Seed is the content of one project.
type Seed struct {
	Templates   []models.Template        `json:"templates"`
	Objects     []models.FormObject      `json:"objects,omitempty"`
	ObjectForms map[string][]models.Form `json:"objectForms,omitempty"`
	Assets      []string                 `json:"assets,omitempty"`
}

// ReadSeed decodes a seed fixture file.
func ReadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("failed to read seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("failed to decode seed %s: %w", path, err)
	}
	return seed, nil
}

// Load adds seed to projectID.
func (s *Server) Load(projectID string, seed Seed) {
	for _, t := range seed.Templates {
		s.AddTemplate(projectID, t)
	}
	s.AddObjects(projectID, seed.Objects...)
	for guid, forms := range seed.ObjectForms {
		for _, f := range forms {
			s.AddObjectForm(projectID, guid, f)
		}
	}
	if len(seed.Assets) > 0 {
		s.SetAssets(seed.Assets...)
	}
}

// DemoSeed is a location template with two placed hazards and a search
// template over two pumps.
func DemoSeed() Seed {
	now := time.Now().UTC()
	text := func(v string) *string { return &v }
	scale := 1.0
	fields := func(desc *string) []models.FormField {
		return []models.FormField{
			{ID: "desc", Type: models.FieldText, Label: "Description", Required: true, Text: desc},
			{ID: "ok", Type: models.FieldCheckbox, Label: "Resolved"},
		}
	}

	return Seed{
		Assets: []string{"pin.glb", "warning-sign.glb"},
		Objects: []models.FormObject{
			{ID: 101, GUID: "pump-1", Name: "Pump 1", Position: models.Vec3{X: 4, Y: 2}},
			{ID: 102, GUID: "pump-2", Name: "Pump 2", Position: models.Vec3{X: 9, Y: 2}},
		},
		Templates: []models.Template{
			{
				ID: "hazards", Title: "Hazards", Type: models.TemplateLocation, Marker: "warning-sign.glb",
				Fields:    fields(nil),
				CreatedOn: models.Stamp{Timestamp: now},
				Forms: []models.Form{
					{ID: "hazard-1", Title: "Loose cable", Fields: fields(text("trip hazard")), State: models.StateOngoing,
						Location: &models.Vec3{X: 1, Y: 2}, Rotation: &models.Quat{W: 1}, Scale: &scale,
						ModifiedOn: models.Stamp{Timestamp: now}},
					{ID: "hazard-2", Title: "Open hatch", Fields: fields(nil), State: models.StateNew,
						Location: &models.Vec3{X: 5, Y: 5}, Rotation: &models.Quat{W: 1}, Scale: &scale,
						ModifiedOn: models.Stamp{Timestamp: now}},
				},
			},
			{
				ID: "pump-audit", Title: "Pump audit", Type: models.TemplateSearch,
				Fields:  fields(nil),
				Objects: []models.FormObject{{ID: 101, GUID: "pump-1"}, {ID: 102, GUID: "pump-2"}},
			},
		},
		ObjectForms: map[string][]models.Form{
			"pump-1": {{ID: "audit-1", Title: "Pump 1", Fields: fields(nil), State: models.StateNew, ModifiedOn: models.Stamp{Timestamp: now}}},
		},
	}
}
