package datadog

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	ddapi "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"github.com/rmayhew/ddq/apperr"
	"github.com/rmayhew/ddq/config"
	"github.com/rmayhew/ddq/timeexpr"
)

// Command is one typed query against the API. The set of variants is
// closed; each one knows how to build its own request.
type Command interface {
	build(cfg *config.Config, now time.Time) (*Request, error)
}

// Request fully specifies one HTTP call. It is built once per
// invocation and replayed unchanged on every retry attempt.
type Request struct {
	Method  string
	URL     string
	Header  map[string]string
	Query   url.Values
	Body    []byte
	Timeout time.Duration
}

// LogsCommand searches logs via POST /api/v2/logs/events/search.
type LogsCommand struct {
	Query  string
	From   string
	To     string
	Limit  int32
	Sort   string
	Cursor string
}

func (c *LogsCommand) build(cfg *config.Config, now time.Time) (*Request, error) {
	from, err := timeexpr.Parse(c.From, now)
	if err != nil {
		return nil, apperr.Usagef("invalid --from: %v", err)
	}
	to, err := timeexpr.Parse(c.To, now)
	if err != nil {
		return nil, apperr.Usagef("invalid --to: %v", err)
	}
	order, err := sortOrder(c.Sort)
	if err != nil {
		return nil, err
	}

	sort := datadogV2.LogsSort(order)
	page := datadogV2.LogsListRequestPage{Limit: ddapi.PtrInt32(c.Limit)}
	if c.Cursor != "" {
		page.Cursor = ddapi.PtrString(c.Cursor)
	}
	body := datadogV2.LogsListRequest{
		Filter: &datadogV2.LogsQueryFilter{
			Query: ddapi.PtrString(c.Query),
			From:  ddapi.PtrString(from.Format(time.RFC3339)),
			To:    ddapi.PtrString(to.Format(time.RFC3339)),
		},
		Sort: sort.Ptr(),
		Page: &page,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, apperr.Internalf("encoding logs request body: %v", err)
	}

	u, err := resolveURL(cfg.BaseURL, "/api/v2/logs/events/search")
	if err != nil {
		return nil, err
	}
	return &Request{
		Method:  http.MethodPost,
		URL:     u,
		Header:  baseHeaders(cfg),
		Body:    raw,
		Timeout: cfg.Retry.Timeout,
	}, nil
}

// MetricsCommand evaluates a metrics expression via GET /api/v1/query.
type MetricsCommand struct {
	Query string
	From  string
	To    string
}

func (c *MetricsCommand) build(cfg *config.Config, now time.Time) (*Request, error) {
	from, err := timeexpr.Parse(c.From, now)
	if err != nil {
		return nil, apperr.Usagef("invalid --from: %v", err)
	}
	to, err := timeexpr.Parse(c.To, now)
	if err != nil {
		return nil, apperr.Usagef("invalid --to: %v", err)
	}
	if !to.After(from) {
		return nil, apperr.Usagef("invalid metrics time window: --to must be greater than --from")
	}

	u, err := resolveURL(cfg.BaseURL, "/api/v1/query")
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("query", c.Query)
	query.Set("from", strconv.FormatInt(from.Unix(), 10))
	query.Set("to", strconv.FormatInt(to.Unix(), 10))
	return &Request{
		Method:  http.MethodGet,
		URL:     u,
		Header:  baseHeaders(cfg),
		Query:   query,
		Timeout: cfg.Retry.Timeout,
	}, nil
}

// EventsCommand lists events via GET /api/v2/events.
type EventsCommand struct {
	Query string // empty means no filter[query] parameter
	From  string
	To    string
	Limit int32
	Sort  string
}

func (c *EventsCommand) build(cfg *config.Config, now time.Time) (*Request, error) {
	from, err := timeexpr.Parse(c.From, now)
	if err != nil {
		return nil, apperr.Usagef("invalid --from: %v", err)
	}
	to, err := timeexpr.Parse(c.To, now)
	if err != nil {
		return nil, apperr.Usagef("invalid --to: %v", err)
	}
	order, err := sortOrder(c.Sort)
	if err != nil {
		return nil, err
	}

	u, err := resolveURL(cfg.BaseURL, "/api/v2/events")
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("filter[from]", from.Format(time.RFC3339))
	query.Set("filter[to]", to.Format(time.RFC3339))
	query.Set("page[limit]", strconv.FormatInt(int64(c.Limit), 10))
	query.Set("sort", order)
	if c.Query != "" {
		query.Set("filter[query]", c.Query)
	}
	return &Request{
		Method:  http.MethodGet,
		URL:     u,
		Header:  baseHeaders(cfg),
		Query:   query,
		Timeout: cfg.Retry.Timeout,
	}, nil
}

// RawCommand replays an arbitrary API call verbatim.
type RawCommand struct {
	Method string
	Path   string   // path under the base URL, or a full http(s) URL
	Params []string // repeated key=value pairs
	Body   []byte   // optional, must be valid JSON
}

func (c *RawCommand) build(cfg *config.Config, _ time.Time) (*Request, error) {
	method, err := normalizeMethod(c.Method)
	if err != nil {
		return nil, err
	}
	u, err := resolveURL(cfg.BaseURL, c.Path)
	if err != nil {
		return nil, err
	}
	query, err := parseQueryParams(c.Params)
	if err != nil {
		return nil, err
	}
	if c.Body != nil && !json.Valid(c.Body) {
		return nil, apperr.Usagef("invalid JSON passed to --body for raw request")
	}
	return &Request{
		Method:  method,
		URL:     u,
		Header:  baseHeaders(cfg),
		Query:   query,
		Body:    c.Body,
		Timeout: cfg.Retry.Timeout,
	}, nil
}

func baseHeaders(cfg *config.Config) map[string]string {
	return map[string]string{
		"DD-API-KEY":         cfg.APIKey,
		"DD-APPLICATION-KEY": cfg.AppKey,
		"Content-Type":       "application/json",
		"Accept":             "application/json",
	}
}

// sortOrder maps the CLI's asc/desc to the API's timestamp sort values.
func sortOrder(sort string) (string, error) {
	switch strings.ToLower(sort) {
	case "asc":
		return "timestamp", nil
	case "desc":
		return "-timestamp", nil
	default:
		return "", apperr.Usagef("invalid sort %q, use asc or desc", sort)
	}
}

// normalizeMethod uppercases the method and rejects anything that is
// not a plain HTTP token.
func normalizeMethod(method string) (string, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(method))
	if cleaned == "" {
		return "", apperr.Usagef("invalid HTTP method %q", method)
	}
	for _, r := range cleaned {
		if r < 'A' || r > 'Z' {
			return "", apperr.Usagef("invalid HTTP method %q", method)
		}
	}
	return cleaned, nil
}

// resolveURL joins a path onto the base URL. Full http(s) URLs pass
// through untouched so raw commands can target anything.
func resolveURL(base, path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		if _, err := url.Parse(path); err != nil {
			return "", apperr.Usagef("invalid raw URL %q: %v", path, err)
		}
		return path, nil
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	full := base + path
	if _, err := url.Parse(full); err != nil {
		return "", apperr.Usagef("invalid Datadog URL built from %q: %v", full, err)
	}
	return full, nil
}

func parseQueryParams(pairs []string) (url.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	values := url.Values{}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, apperr.Usagef("invalid query param %q, expected key=value", pair)
		}
		if key == "" {
			return nil, apperr.Usagef("query param key cannot be empty in %q", pair)
		}
		values.Add(key, value)
	}
	return values, nil
}
