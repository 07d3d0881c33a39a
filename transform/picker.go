// ABOUTME: Pick-new-location mode on the rendering engine
// ABOUTME: Stopping always restores the default object visibility
package transform

import (
	"context"
	"errors"
	"sync"

	"github.com/harperreed/formsync/scene"
)

// Picker toggles the engine pick mode used to choose a new draft location.
type Picker struct {
	engine scene.Engine

	mu     sync.Mutex
	active bool
}

func NewPicker(engine scene.Engine) *Picker {
	return &Picker{engine: engine}
}

func (p *Picker) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Picker) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return nil
	}
	if err := p.engine.SetPickMode(ctx, true); err != nil {
		return err
	}
	p.active = true
	return nil
}

// Stop leaves pick mode. It is a no-op when the picker is not active.
func (p *Picker) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return nil
	}
	p.active = false
	if err := p.engine.SetPickMode(ctx, false); err != nil {
		return errors.Join(err, p.engine.RestoreVisibility(ctx))
	}
	return p.engine.RestoreVisibility(ctx)
}

// PickLocation picks the screen point and, on a hit, moves the draft there
// and leaves pick mode. It reports whether anything was hit.
func (p *Picker) PickLocation(ctx context.Context, store *Store, x, y float64) (bool, error) {
	res, err := p.engine.Pick(ctx, x, y)
	if err != nil {
		return false, err
	}
	if !res.Hit {
		return false, nil
	}
	if err := store.SetLocation(res.Position); err != nil {
		return false, err
	}
	return true, p.Stop(ctx)
}
