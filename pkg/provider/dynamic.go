package provider

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
)

var _ engine.OptionsFetcher = (*Client)(nil)

// FetchOptions requests dyn.Endpoint with dyn.Method (GET when blank) and a
// single query parameter value. A JSON array response becomes the option
// list; any other payload yields an empty list.
func (c *Client) FetchOptions(ctx context.Context, dyn schema.DynamicOptions, value state.Value) ([]string, error) {
	target, err := c.resolve(dyn.Endpoint)
	if err != nil {
		return nil, err
	}
	query := target.Query()
	query.Set("value", value.Text())
	target.RawQuery = query.Encode()

	method := strings.ToUpper(strings.TrimSpace(dyn.Method))
	if method == "" {
		method = http.MethodGet
	}

	body, err := c.do(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	return parseOptions(body, c.logger, dyn.Endpoint), nil
}

func parseOptions(body []byte, logger *slog.Logger, endpoint string) []string {
	if !gjson.ValidBytes(body) {
		logger.Warn("dynamic options payload is not json", slog.String("endpoint", endpoint))
		return []string{}
	}
	payload := gjson.ParseBytes(body)
	if !payload.IsArray() {
		return []string{}
	}
	items := payload.Array()
	options := make([]string, 0, len(items))
	for _, item := range items {
		options = append(options, item.String())
	}
	return options
}
