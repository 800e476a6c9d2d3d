package provider

import (
	"context"
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// FetchForms loads the form catalog, applies the configured normalizers in
// order and validates each form.
func (c *Client) FetchForms(ctx context.Context) ([]schema.FormSchema, error) {
	target, err := c.resolve(c.paths.Forms)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	forms, err := schema.DecodeForms(body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode form catalog", goerr.V("url", target.String()))
	}

	out := make([]schema.FormSchema, 0, len(forms))
	for _, form := range forms {
		for _, normalize := range c.normalizers {
			form = normalize(form)
		}
		if err := schema.Validate(form); err != nil {
			return nil, goerr.Wrap(err, "provider returned an invalid form", goerr.V("form_id", form.FormID))
		}
		out = append(out, form)
	}
	return out, nil
}

// FetchForm returns the form with the given id from the catalog.
func (c *Client) FetchForm(ctx context.Context, formID string) (schema.FormSchema, error) {
	forms, err := c.FetchForms(ctx)
	if err != nil {
		return schema.FormSchema{}, err
	}
	for _, form := range forms {
		if form.FormID == formID {
			return form, nil
		}
	}
	return schema.FormSchema{}, goerr.Wrap(ErrFormNotFound, "form not in catalog", goerr.V("form_id", formID))
}
