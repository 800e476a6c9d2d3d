package provider

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// ErrFormNotFound is wrapped when a requested form id is not in the catalog.
var ErrFormNotFound = errors.New("provider: form not found")

// Catalog is everything a host needs to show the portal landing view.
type Catalog struct {
	Forms       []schema.FormSchema
	Submissions SubmissionList
}

// Form looks up a form by id.
func (c Catalog) Form(formID string) (schema.FormSchema, bool) {
	for _, form := range c.Forms {
		if form.FormID == formID {
			return form, true
		}
	}
	return schema.FormSchema{}, false
}

// Bootstrap fetches forms and submissions concurrently. The first failure
// cancels the other request.
func (c *Client) Bootstrap(ctx context.Context) (Catalog, error) {
	var catalog Catalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		forms, err := c.FetchForms(gctx)
		if err != nil {
			return err
		}
		catalog.Forms = forms
		return nil
	})
	g.Go(func() error {
		list, err := c.FetchSubmissions(gctx)
		if err != nil {
			return err
		}
		catalog.Submissions = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}
