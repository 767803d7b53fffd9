package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/tasjeel-app/tasjeel/pkg/config"
	appErrors "github.com/tasjeel-app/tasjeel/pkg/errors"
)

// Query narrows a collection operation to rows matching every equality
// filter, optionally ordered and limited.
type Query struct {
	Filters    map[string]string
	OrderBy    string
	Descending bool
	Limit      int
}

// Eq returns a query matching a single column value.
func Eq(column, value string) Query {
	return Query{Filters: map[string]string{column: value}}
}

func (q Query) encode() string {
	values := url.Values{}
	columns := make([]string, 0, len(q.Filters))
	for column := range q.Filters {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	for _, column := range columns {
		values.Set(column, "eq."+q.Filters[column])
	}
	if q.OrderBy != "" {
		direction := ".asc"
		if q.Descending {
			direction = ".desc"
		}
		values.Set("order", q.OrderBy+direction)
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// RowClient performs collection-scoped CRUD against the remote row
// store. Rows travel as raw JSON; typed decoding is the repository's
// concern.
type RowClient struct {
	client
	tokens TokenSource
}

// NewRowClient constructs a RowClient. tokens may be nil for stores
// that accept anonymous reads.
func NewRowClient(cfg config.RemoteConfig, tokens TokenSource, logger *zap.Logger) *RowClient {
	return &RowClient{client: newClient(cfg, logger), tokens: tokens}
}

func (c *RowClient) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken()
}

// Select returns every row matching the query.
func (c *RowClient) Select(ctx context.Context, collection string, q Query) ([]json.RawMessage, error) {
	data, err := c.do(ctx, http.MethodGet, "/rest/v1/"+collection+q.encode(), c.token(), nil, appErrors.ErrFetch)
	if err != nil {
		return nil, err
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetch.Code, appErrors.ErrFetch.Status, "decode rows")
	}
	return rows, nil
}

// SelectOne returns the single matching row, or NotFound when the
// result set is empty. More than one match is a store contract breach.
func (c *RowClient) SelectOne(ctx context.Context, collection string, q Query) (json.RawMessage, error) {
	q.Limit = 2
	rows, err := c.Select(ctx, collection, q)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, appErrors.ErrNotFound
	case 1:
		return rows[0], nil
	}
	return nil, appErrors.Clone(appErrors.ErrFetch, "query matched more than one row")
}

// Insert writes one row and returns the canonical server copy.
func (c *RowClient) Insert(ctx context.Context, collection string, row interface{}) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/rest/v1/"+collection, c.token(), row, appErrors.ErrFetch)
}

// Update patches matching rows with the supplied columns and returns
// the canonical post-update row.
func (c *RowClient) Update(ctx context.Context, collection string, q Query, fields map[string]interface{}) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPatch, "/rest/v1/"+collection+q.encode(), c.token(), fields, appErrors.ErrFetch)
}

// Delete removes matching rows. Deleting rows that are already gone is
// not an error at this layer; the store answers 204 either way.
func (c *RowClient) Delete(ctx context.Context, collection string, q Query) error {
	_, err := c.do(ctx, http.MethodDelete, "/rest/v1/"+collection+q.encode(), c.token(), nil, appErrors.ErrFetch)
	return err
}
