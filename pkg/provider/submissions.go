package provider

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tidwall/gjson"

	"github.com/goliatone/go-formengine/pkg/state"
)

// SubmissionList is the tabular listing of past submissions.
type SubmissionList struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"data"`
}

// Receipt acknowledges a submission.
type Receipt struct {
	ID string `json:"id"`
}

// FetchSubmissions loads the submissions table. Rows may be served under
// either "data" or "rows".
func (c *Client) FetchSubmissions(ctx context.Context) (SubmissionList, error) {
	target, err := c.resolve(c.paths.Submissions)
	if err != nil {
		return SubmissionList{}, err
	}
	body, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return SubmissionList{}, err
	}
	if !gjson.ValidBytes(body) {
		return SubmissionList{}, goerr.New("submissions payload is not json", goerr.V("url", target.String()))
	}

	var list SubmissionList
	if columns := gjson.GetBytes(body, "columns"); columns.IsArray() {
		for _, col := range columns.Array() {
			list.Columns = append(list.Columns, col.String())
		}
	}

	rows := gjson.GetBytes(body, "data")
	if !rows.Exists() {
		rows = gjson.GetBytes(body, "rows")
	}
	if rows.IsArray() {
		if err := json.Unmarshal([]byte(rows.Raw), &list.Rows); err != nil {
			return SubmissionList{}, goerr.Wrap(err, "failed to decode submission rows", goerr.V("url", target.String()))
		}
	}
	if list.Rows == nil {
		list.Rows = []map[string]any{}
	}
	return list, nil
}

// Submit posts the full value mapping.
func (c *Client) Submit(ctx context.Context, values state.Values) (Receipt, error) {
	target, err := c.resolve(c.paths.Submit)
	if err != nil {
		return Receipt{}, err
	}
	body, err := c.do(ctx, http.MethodPost, target, values.Map())
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{ID: gjson.GetBytes(body, "id").String()}, nil
}

// SubmitHandler adapts Submit to engine submit handlers. onReceipt, when
// non-nil, receives the provider acknowledgement.
func (c *Client) SubmitHandler(onReceipt func(Receipt)) func(context.Context, state.Values) error {
	return func(ctx context.Context, values state.Values) error {
		receipt, err := c.Submit(ctx, values)
		if err != nil {
			return err
		}
		if onReceipt != nil {
			onReceipt(receipt)
		}
		return nil
	}
}
