// ABOUTME: Typed calls for every forms API endpoint
// ABOUTME: Writes invalidate the entity tag together with the containing list tags
package api

import (
	"context"
	"net/http"

	"github.com/harperreed/formsync/models"
)

// TemplateIDs lists the template ids of a project.
func (c *Client) TemplateIDs(ctx context.Context, projectID string) ([]string, error) {
	var ids []string
	err := c.getCached(ctx, c.endpoint("projects", projectID, "templates", "ids"), &ids,
		IDListTag, ListTag(projectID))
	return ids, err
}

// Template fetches one template.
func (c *Client) Template(ctx context.Context, projectID, templateID string) (*models.Template, error) {
	var t models.Template
	if err := c.getCached(ctx, c.endpoint("projects", projectID, "templates", templateID), &t,
		TemplateTag(projectID, templateID), ListTag(projectID)); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTemplate patches the editable attributes of a template.
func (c *Client) UpdateTemplate(ctx context.Context, projectID string, t *models.Template) (*models.Template, error) {
	var out models.Template
	err := c.mutate(ctx, http.MethodPatch, c.endpoint("projects", projectID, "templates", t.ID), t, &out,
		TemplateTag(projectID, t.ID), ListTag(projectID))
	if err != nil {
		return nil, saveError("update template", err)
	}
	return &out, nil
}

// DeleteTemplate removes a template with all of its forms.
func (c *Client) DeleteTemplate(ctx context.Context, projectID, templateID string) error {
	err := c.mutate(ctx, http.MethodDelete, c.endpoint("projects", projectID, "templates", templateID), nil, nil,
		TemplateTag(projectID, templateID), IDListTag, ListTag(projectID))
	return saveError("delete template", err)
}

// CreateTemplate creates a template and returns its id.
func (c *Client) CreateTemplate(ctx context.Context, projectID string, t *models.Template) (string, error) {
	if err := t.Validate(); err != nil {
		return "", saveError("create template", err)
	}
	var id string
	err := c.mutate(ctx, http.MethodPost, c.endpoint("projects", projectID, "forms"), t, &id,
		IDListTag, ListTag(projectID))
	if err != nil {
		return "", saveError("create template", err)
	}
	return id, nil
}

type createLocationRequest struct {
	TemplateID string      `json:"templateId"`
	Form       models.Form `json:"form"`
}

// CreateLocationForm creates a placed form and returns the id assigned by
// the server.
func (c *Client) CreateLocationForm(ctx context.Context, projectID, templateID string, form models.Form) (string, error) {
	var id string
	err := c.mutate(ctx, http.MethodPost, c.endpoint("projects", projectID, "location"),
		createLocationRequest{TemplateID: templateID, Form: form}, &id,
		TemplateTag(projectID, templateID), ListTag(projectID))
	if err != nil {
		return "", saveError("create form", err)
	}
	return id, nil
}

func (c *Client) LocationForm(ctx context.Context, projectID, templateID, formID string) (*models.Form, error) {
	var f models.Form
	if err := c.getCached(ctx, c.endpoint("projects", projectID, "location", templateID, formID), &f,
		FormTag(projectID, formID), TemplateTag(projectID, templateID)); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) UpdateLocationForm(ctx context.Context, projectID, templateID, formID string, patch models.FormPatch) (*models.Form, error) {
	var f models.Form
	err := c.mutate(ctx, http.MethodPatch, c.endpoint("projects", projectID, "location", templateID, formID), patch, &f,
		FormTag(projectID, formID), TemplateTag(projectID, templateID), ListTag(projectID))
	if err != nil {
		return nil, saveError("update form", err)
	}
	return &f, nil
}

func (c *Client) DeleteLocationForm(ctx context.Context, projectID, templateID, formID string) error {
	err := c.mutate(ctx, http.MethodDelete, c.endpoint("projects", projectID, "location", templateID, formID), nil, nil,
		FormTag(projectID, formID), TemplateTag(projectID, templateID), ListTag(projectID))
	return saveError("delete form", err)
}

// ObjectForms lists the forms attached to a scene object.
func (c *Client) ObjectForms(ctx context.Context, projectID, guid string) ([]models.Form, error) {
	target := c.endpoint("projects", projectID, "objects", guid, "forms")
	if data, ok := c.cache.Get(target); ok {
		var forms []models.Form
		if err := decode(data, &forms); err != nil {
			return nil, err
		}
		return forms, nil
	}

	data, err := c.send(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	var forms []models.Form
	if err := decode(data, &forms); err != nil {
		return nil, err
	}
	tags := []string{ListTag(projectID)}
	for _, f := range forms {
		tags = append(tags, FormTag(projectID, f.ID))
	}
	c.cache.Put(target, data, tags...)
	return forms, nil
}

func (c *Client) ObjectForm(ctx context.Context, projectID, guid, formID string) (*models.Form, error) {
	var f models.Form
	if err := c.getCached(ctx, c.endpoint("projects", projectID, "objects", guid, "forms", formID), &f,
		FormTag(projectID, formID)); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) UpdateObjectForm(ctx context.Context, projectID, guid, formID string, patch models.FormPatch) (*models.Form, error) {
	var f models.Form
	err := c.mutate(ctx, http.MethodPatch, c.endpoint("projects", projectID, "objects", guid, "forms", formID), patch, &f,
		FormTag(projectID, formID), ListTag(projectID))
	if err != nil {
		return nil, saveError("update form", err)
	}
	return &f, nil
}

type objectQuery struct {
	IDs   []uint32 `json:"ids,omitempty"`
	GUIDs []string `json:"guids,omitempty"`
}

// QueryObjects resolves one batch of numeric ids. Scene objects are
// immutable for a loaded scene so the result is not tag cached.
func (c *Client) QueryObjects(ctx context.Context, projectID string, ids []uint32) ([]models.FormObject, error) {
	data, err := c.send(ctx, http.MethodPost, c.endpoint("projects", projectID, "objects", "query"), objectQuery{IDs: ids})
	if err != nil {
		return nil, err
	}
	var out []models.FormObject
	if err := decode(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// QueryGUIDs resolves one batch of GUIDs to numeric ids.
func (c *Client) QueryGUIDs(ctx context.Context, projectID string, guids []string) (map[string]uint32, error) {
	data, err := c.send(ctx, http.MethodPost, c.endpoint("projects", projectID, "objects", "query"), objectQuery{GUIDs: guids})
	if err != nil {
		return nil, err
	}
	out := make(map[string]uint32)
	if err := decode(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchAssetIndex loads the marker mesh names.
func (c *Client) FetchAssetIndex(ctx context.Context) ([]string, error) {
	target := c.assetsURL
	if target == "" {
		target = c.endpoint("assets", "index.json")
	}
	data, err := c.send(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := decode(data, &names); err != nil {
		return nil, err
	}
	return names, nil
}
