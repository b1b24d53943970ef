// Package clockify talks to a Clockify-compatible time-tracking REST API and
// resolves configured names to the service's identifiers.
package clockify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/xolan/tpsheet/internal/apperr"
)

const (
	// DefaultTimeout bounds each request.
	DefaultTimeout = 5 * time.Second
	// DefaultPageSize is the page size requested from list endpoints.
	DefaultPageSize = 200

	// MaxPages bounds how many pages one list call follows.
	MaxPages = 1000

	apiKeyHeader = "X-Api-Key"
	maxErrorBody = 512
)

// ErrPagination is wrapped when a list endpoint never returns a short page.
var ErrPagination = errors.New("pagination did not terminate")

// Client is a thin typed wrapper over the REST API. Every call blocks until
// the response arrives or the per-request timeout fires.
type Client struct {
	baseURL  *url.URL
	apiKey   string
	http     *http.Client
	timeout  time.Duration
	pageSize int
	log      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the timeout applied to each request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithPageSize sets the page size used by list endpoints.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewHTTPClient builds the transport used by default, with dial and header
// timeouts kept inside the per-request budget.
func NewHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
	}
	return &http.Client{Transport: tr}
}

// New builds a client for baseURL (e.g. https://api.clockify.me/api/v1).
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperr.Validation("create api client", baseURL, errors.New("base URL must be an absolute http(s) URL"))
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperr.Validation("create api client", "api_key", errors.New("API key is not set"))
	}

	c := &Client{
		baseURL:  u,
		apiKey:   apiKey,
		timeout:  DefaultTimeout,
		pageSize: DefaultPageSize,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = NewHTTPClient(c.timeout)
	}
	return c, nil
}

// CurrentUser returns the account the API key belongs to.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, "get current user", http.MethodGet, "/user", nil, nil, &u)
	return u, err
}

// Projects lists every project in the workspace.
func (c *Client) Projects(ctx context.Context, workspaceID string) ([]NamedEntity, error) {
	path := "/workspaces/" + url.PathEscape(workspaceID) + "/projects"
	return listAll[NamedEntity](ctx, c, "list projects", path, nil)
}

// Tasks lists every task of a project.
func (c *Client) Tasks(ctx context.Context, workspaceID, projectID string) ([]NamedEntity, error) {
	path := "/workspaces/" + url.PathEscape(workspaceID) + "/projects/" + url.PathEscape(projectID) + "/tasks"
	return listAll[NamedEntity](ctx, c, "list tasks", path, nil)
}

// Tags lists every tag in the workspace.
func (c *Client) Tags(ctx context.Context, workspaceID string) ([]NamedEntity, error) {
	path := "/workspaces/" + url.PathEscape(workspaceID) + "/tags"
	return listAll[NamedEntity](ctx, c, "list tags", path, nil)
}

// TimeEntries lists the user's entries within [start, end].
func (c *Client) TimeEntries(ctx context.Context, workspaceID, userID string, start, end time.Time) ([]TimeEntry, error) {
	path := "/workspaces/" + url.PathEscape(workspaceID) + "/user/" + url.PathEscape(userID) + "/time-entries"
	q := url.Values{}
	q.Set("start", FormatTime(start))
	q.Set("end", FormatTime(end))
	return listAll[TimeEntry](ctx, c, "list time entries", path, q)
}

// DeleteTimeEntry removes one entry.
func (c *Client) DeleteTimeEntry(ctx context.Context, workspaceID, entryID string) error {
	path := "/workspaces/" + url.PathEscape(workspaceID) + "/time-entries/" + url.PathEscape(entryID)
	return c.do(ctx, "delete time entry", http.MethodDelete, path, nil, nil, nil)
}

// CreateTimeEntry posts a new entry and returns it as stored.
func (c *Client) CreateTimeEntry(ctx context.Context, workspaceID string, req TimeEntryRequest) (TimeEntry, error) {
	path := "/workspaces/" + url.PathEscape(workspaceID) + "/time-entries"
	var created TimeEntry
	err := c.do(ctx, "create time entry", http.MethodPost, path, nil, req, &created)
	return created, err
}

// listAll pages through a list endpoint until a short page comes back. A
// page identical to the one before it, or more than MaxPages pages, means the
// server is ignoring the page parameter.
func listAll[T any](ctx context.Context, c *Client, op, path string, query url.Values) ([]T, error) {
	var all, prev []T
	for page := 1; page <= MaxPages; page++ {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("page-size", strconv.Itoa(c.pageSize))

		var batch []T
		if err := c.do(ctx, op, http.MethodGet, path, q, nil, &batch); err != nil {
			return nil, err
		}
		if len(batch) < c.pageSize {
			return append(all, batch...), nil
		}
		if page > 1 && reflect.DeepEqual(batch, prev) {
			return nil, &apperr.RemoteError{Op: op, Method: http.MethodGet, Path: path,
				Err: fmt.Errorf("page %d repeats page %d: %w", page, page-1, ErrPagination)}
		}
		all = append(all, batch...)
		prev = batch
	}
	return nil, &apperr.RemoteError{Op: op, Method: http.MethodGet, Path: path,
		Err: fmt.Errorf("still full after %d pages: %w", MaxPages, ErrPagination)}
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("clockify.request_failed", "method", method, "path", path, "err", err)
		return &apperr.RemoteError{Op: op, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperr.RemoteError{Op: op, Method: method, Path: path, Status: resp.StatusCode, Err: err}
	}
	c.log.Debug("clockify.request",
		"method", method, "path", path, "status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apperr.RemoteError{
			Op:     op,
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   truncate(strings.TrimSpace(string(data)), maxErrorBody),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &apperr.RemoteError{
			Op:     op,
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   truncate(string(data), maxErrorBody),
			Err:    fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
