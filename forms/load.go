// ABOUTME: Concurrent loading of every template of a project
// ABOUTME: Per-template failures are logged and skipped; cancellation aborts all fetches
package forms

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/harperreed/formsync/models"
)

// TemplateSource fetches templates from the server.
type TemplateSource interface {
	TemplateIDs(ctx context.Context, projectID string) ([]string, error)
	Template(ctx context.Context, projectID, templateID string) (*models.Template, error)
}

// LoadResult summarises a LoadAllTemplates call.
type LoadResult struct {
	Loaded int
	Failed int
}

// LoadAllTemplates fetches every template of a project, one request per
// template, and stores each as it arrives. Template counts are small so the
// requests are not throttled here. When ctx is cancelled all outstanding
// requests are aborted and ctx.Err() is returned.
func (m *Model) LoadAllTemplates(ctx context.Context, src TemplateSource, projectID string) (LoadResult, error) {
	ids, err := src.TemplateIDs(ctx, projectID)
	if err != nil {
		return LoadResult{}, fmt.Errorf("list templates: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]bool, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			t, err := src.Template(ctx, projectID, id)
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
					m.logger.Warn("failed to load template", "project", projectID, "template", id, "err", err)
				}
				return nil
			}
			m.PutTemplate(*t)
			results[i] = true
			return nil
		})
	}
	_ = g.Wait()

	var res LoadResult
	for _, ok := range results {
		if ok {
			res.Loaded++
		} else {
			res.Failed++
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}
