// ABOUTME: Project scoped view of the client implementing the core interfaces
// ABOUTME: Object queries, transform commits, form saves and optimistic creates
package api

import (
	"context"

	"github.com/harperreed/formsync/assets"
	"github.com/harperreed/formsync/forms"
	"github.com/harperreed/formsync/models"
	"github.com/harperreed/formsync/resolver"
	"github.com/harperreed/formsync/transform"
)

var (
	_ forms.TemplateSource   = (*Client)(nil)
	_ assets.IndexFetcher    = (*Client)(nil)
	_ resolver.ObjectQuerier = (*Project)(nil)
	_ transform.Committer    = (*Project)(nil)
)

// Project binds a client to one project.
type Project struct {
	client *Client
	id     string
}

func (c *Client) Project(projectID string) *Project {
	return &Project{client: c, id: projectID}
}

func (p *Project) ID() string {
	return p.id
}

func (p *Project) ObjectsByIDs(ctx context.Context, ids []uint32) ([]models.FormObject, error) {
	return p.client.QueryObjects(ctx, p.id, ids)
}

func (p *Project) IDsByGUIDs(ctx context.Context, guids []string) (map[string]uint32, error) {
	return p.client.QueryGUIDs(ctx, p.id, guids)
}

// CommitTransform saves the transform of a location form.
func (p *Project) CommitTransform(ctx context.Context, d transform.Draft) error {
	loc, rot, scale := d.Location, d.Rotation, d.Scale
	_, err := p.client.UpdateLocationForm(ctx, p.id, d.TemplateID, d.FormID, models.FormPatch{
		Location: &loc,
		Rotation: &rot,
		Scale:    &scale,
	})
	return err
}

// SaveFields saves the field values of a form.
func (p *Project) SaveFields(ctx context.Context, ref forms.FormRef, form models.Form) (*models.Form, error) {
	fields := form.Fields
	patch := models.FormPatch{Fields: &fields}
	if ref.ObjectGUID != "" {
		return p.client.UpdateObjectForm(ctx, p.id, ref.ObjectGUID, form.ID, patch)
	}
	return p.client.UpdateLocationForm(ctx, p.id, ref.TemplateID, form.ID, patch)
}

// CreatePlaced sends a form created by forms.Model.Place and reconciles the
// tentative id. When the server rejects it the local form is removed.
func (p *Project) CreatePlaced(ctx context.Context, model *forms.Model, placed forms.PlaceResult) (string, error) {
	id, err := p.client.CreateLocationForm(ctx, p.id, placed.Ref.TemplateID, placed.Form)
	if err != nil {
		model.RejectCreated(placed.Ref.TemplateID, placed.Form.ID)
		return "", err
	}
	if err := model.ConfirmCreated(placed.Ref.TemplateID, placed.Form.ID, id); err != nil {
		return "", err
	}
	return id, nil
}
