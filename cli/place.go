// ABOUTME: Place and move commands for location forms
// ABOUTME: Drives the pick gesture and the transform draft against a recording scene
package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/harperreed/formsync/api"
	"github.com/harperreed/formsync/config"
	"github.com/harperreed/formsync/forms"
	"github.com/harperreed/formsync/models"
	"github.com/harperreed/formsync/scene"
	"github.com/harperreed/formsync/transform"
)

// Workspace is a loaded project with a scene attached, as one editing
// session of the viewer sees it.
type Workspace struct {
	Model   *forms.Model
	Session *scene.Session
	Engine  *scene.RecordingEngine
	Drafts  *transform.Store
	Picker  *transform.Picker
	Project *api.Project
}

// OpenWorkspace loads every template of projectID and attaches a recording
// scene to it.
func OpenWorkspace(ctx context.Context, client *api.Client, projectID string, cacheLimit int) (*Workspace, error) {
	model := forms.NewModel()
	res, err := model.LoadAllTemplates(ctx, client, projectID)
	if err != nil {
		return nil, err
	}
	if res.Failed > 0 {
		log.Warn("some templates failed to load", "failed", res.Failed)
	}

	project := client.Project(projectID)
	engine := scene.NewRecordingEngine()
	session := scene.NewSession(projectID, engine, project, client, cacheLimit)
	return &Workspace{
		Model:   model,
		Session: session,
		Engine:  engine,
		Drafts:  transform.NewStore(),
		Picker:  transform.NewPicker(engine),
		Project: project,
	}, nil
}

// Place creates a location form at point in templateID, the way a click on
// the model does with nothing selected. It returns the server id.
func (w *Workspace) Place(ctx context.Context, templateID string, point models.Vec3) (string, error) {
	w.Model.SelectTemplate(templateID)
	w.Model.Deselect()

	if err := w.Picker.Start(ctx); err != nil {
		return "", err
	}
	defer func() { _ = w.Picker.Stop(ctx) }()

	w.Engine.Picks = append(w.Engine.Picks, scene.PickResult{Hit: true, Position: point})
	hit, err := w.Engine.Pick(ctx, 0, 0)
	if err != nil {
		return "", err
	}
	placed, err := w.Model.Place(hit.Position, w.Drafts)
	if err != nil {
		return "", err
	}
	if !placed.Created {
		return "", fmt.Errorf("expected a new form, moved %s instead", placed.Ref.FormID)
	}

	id, err := w.Project.CreatePlaced(ctx, w.Model, placed)
	if err != nil {
		return "", err
	}
	w.renderMarkers(ctx)
	return id, nil
}

// Edit is a set of transform changes; nil members are left alone.
type Edit struct {
	Location map[transform.Axis]float64
	Angles   map[transform.Angle]float64
	Scale    *float64
}

// rotation merges the edited angles into the current rotation of the draft.
func (e Edit) rotation(drafts *transform.Store) transform.Euler {
	var current transform.Euler
	if d, ok := drafts.Current(); ok {
		current = transform.QuatToEuler(d.Rotation)
	}
	for angle, v := range e.Angles {
		switch angle {
		case transform.Roll:
			current.Roll = v
		case transform.Pitch:
			current.Pitch = v
		case transform.Yaw:
			current.Yaw = v
		}
	}
	return current
}

// Move opens a draft for a location form, applies edit and closes it,
// which saves the change. It returns the rounded transform that was saved.
func (w *Workspace) Move(ctx context.Context, templateID, formID string, edit Edit) (transform.View, error) {
	ref := forms.FormRef{TemplateID: templateID, FormID: formID}
	var form *models.Form
	for _, f := range w.Model.TemplateLocationForms(templateID) {
		if f.ID == formID {
			form = &f
			break
		}
	}
	if form == nil {
		return transform.View{}, fmt.Errorf("%w: %s/%s", forms.ErrUnknownForm, templateID, formID)
	}
	if err := w.Model.Select(ref); err != nil {
		return transform.View{}, err
	}
	w.Drafts.Open(templateID, *form)

	for _, axis := range []transform.Axis{transform.AxisX, transform.AxisY, transform.AxisZ} {
		v, ok := edit.Location[axis]
		if !ok {
			continue
		}
		if err := w.Drafts.SetAxis(axis, v); err != nil {
			w.Drafts.Discard()
			return transform.View{}, err
		}
	}
	if len(edit.Angles) > 0 {
		if err := w.Drafts.SetRotation(edit.rotation(w.Drafts)); err != nil {
			w.Drafts.Discard()
			return transform.View{}, err
		}
	}
	if edit.Scale != nil {
		if err := w.Drafts.SetScale(*edit.Scale); err != nil {
			w.Drafts.Discard()
			return transform.View{}, err
		}
	}

	view, err := w.Drafts.Display()
	if err != nil {
		return transform.View{}, err
	}
	w.renderMarkers(ctx)
	if err := w.Drafts.Close(ctx, w.Project, w.Picker); err != nil {
		return view, err
	}
	return view, nil
}

func (w *Workspace) renderMarkers(ctx context.Context) {
	if _, err := w.Session.Catalog.Load(ctx); err != nil {
		log.Debug("marker assets unavailable", "err", err)
		return
	}
	_ = w.Engine.ModifyRenderState(ctx, w.Model.MarkerObjects(w.Session.Catalog, w.Drafts))
	for set, ids := range w.Model.Highlights(w.Session.Catalog) {
		_ = w.Engine.SetHighlight(ctx, set, ids)
	}
}

// PlaceCommand creates a location form at a point
func PlaceCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("place", flag.ExitOnError)
	x := fs.Float64("x", 0, "X coordinate")
	y := fs.Float64("y", 0, "Y coordinate")
	z := fs.Float64("z", 0, "Z coordinate")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: formsync place <template-id> --x <x> --y <y> --z <z>")
	}

	client, err := NewClient(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	ws, err := OpenWorkspace(ctx, client, cfg.ProjectID, cfg.Resolver.CacheLimit)
	if err != nil {
		return err
	}
	id, err := ws.Place(ctx, fs.Arg(0), models.Vec3{X: *x, Y: *y, Z: *z})
	if err != nil {
		return saveFailure(err)
	}
	fmt.Printf("Created form %s at %.2f, %.2f, %.2f\n", id, *x, *y, *z)
	return nil
}

// MoveCommand edits the transform of a location form
func MoveCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("move", flag.ExitOnError)
	fs.Float64("x", 0, "X coordinate")
	fs.Float64("y", 0, "Y coordinate")
	fs.Float64("z", 0, "Z coordinate")
	fs.Float64("roll", 0, "Roll in degrees")
	fs.Float64("pitch", 0, "Pitch in degrees")
	fs.Float64("yaw", 0, "Yaw in degrees")
	fs.Float64("scale", 1, "Uniform scale")
	_ = fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: formsync move <template-id> <form-id> [--x] [--y] [--z] [--roll] [--pitch] [--yaw] [--scale]")
	}

	edit, err := editFromFlags(fs)
	if err != nil {
		return err
	}

	client, err := NewClient(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	ws, err := OpenWorkspace(ctx, client, cfg.ProjectID, cfg.Resolver.CacheLimit)
	if err != nil {
		return err
	}
	view, err := ws.Move(ctx, fs.Arg(0), fs.Arg(1), edit)
	if err != nil {
		return saveFailure(err)
	}
	fmt.Printf("Location: %.2f, %.2f, %.2f\n", view.Location.X, view.Location.Y, view.Location.Z)
	fmt.Printf("Rotation: roll %.3f, pitch %.3f, yaw %.3f\n", view.Rotation.Roll, view.Rotation.Pitch, view.Rotation.Yaw)
	fmt.Printf("Scale:    %.3f\n", view.Scale)
	return nil
}

// editFromFlags only includes the flags given on the command line.
func editFromFlags(fs *flag.FlagSet) (Edit, error) {
	edit := Edit{
		Location: make(map[transform.Axis]float64),
		Angles:   make(map[transform.Angle]float64),
	}
	var err error
	fs.Visit(func(f *flag.Flag) {
		v, perr := strconv.ParseFloat(f.Value.String(), 64)
		if perr != nil {
			err = fmt.Errorf("invalid --%s: %w", f.Name, perr)
			return
		}
		switch f.Name {
		case "x", "y", "z":
			edit.Location[transform.Axis(f.Name)] = v
		case "roll", "pitch", "yaw":
			edit.Angles[transform.Angle(f.Name)] = v
		case "scale":
			edit.Scale = &v
		}
	})
	return edit, err
}

func saveFailure(err error) error {
	if msg, ok := api.UserMessage(err); ok {
		return fmt.Errorf("%s (%w)", msg, err)
	}
	return err
}
