// internal/backend/client.go
//
// HTTP client for the database registry service.
//
// Context
// -------
// Every operator intent maps to exactly one call here.  The client builds
// resource paths, encodes JSON bodies, and classifies replies into three
// outcomes: success, conflict, or failure.  It never mutates a registry;
// callers do that after a confirmed success.
//
// Conflict
// --------
// The registry answers a create for an instance that already exists with
// 304 Not Modified.  That status is mapped to ErrConflict and must stay
// distinct from generic failures.
//
// Notes
// -----
//   - Each call is timed and counted under its op label in Prometheus.
//   - Oxford commas, two spaces after periods.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/dbconsole/internal/metrics"
)

// ErrConflict is returned by CreateDatabase when the instance already exists.
var ErrConflict = errors.New("Database already exists")

// Options configures a Client.
type Options struct {
	BaseURL       string
	TemplatesPath string
	DatabasesPath string
	Timeout       time.Duration
}

// Client talks to the registry service.
type Client struct {
	baseURL       string
	templatesPath string
	databasesPath string
	httpClient    *http.Client
	log           *zap.SugaredLogger
}

// New creates a registry client.  A nil logger falls back to zap.S().
func New(opts Options, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.S()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		templatesPath: opts.TemplatesPath,
		databasesPath: opts.DatabasesPath,
		httpClient:    &http.Client{Timeout: timeout},
		log:           log,
	}
}

// DatabasePath builds {dbPath}/{template}/{name} with escaped segments.
func DatabasePath(dbPath, template, name string) string {
	return strings.TrimRight(dbPath, "/") + "/" + url.PathEscape(template) + "/" + url.PathEscape(name)
}

// ListTemplates fetches every available template.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	var out templatesResponse
	if _, err := c.request(ctx, "list_templates", http.MethodGet, c.templatesPath, nil, &out); err != nil {
		return nil, err
	}
	return out.Templates, nil
}

// ListDatabases fetches the list view of every provisioned instance.
func (c *Client) ListDatabases(ctx context.Context) ([]Database, error) {
	var out databasesResponse
	if _, err := c.request(ctx, "list_databases", http.MethodGet, c.databasesPath, nil, &out); err != nil {
		return nil, err
	}
	return out.Databases, nil
}

// ReadDatabase fetches the full record of db, connection details included.
func (c *Client) ReadDatabase(ctx context.Context, db Database) (Detail, error) {
	var wire detailWire
	path := DatabasePath(c.databasesPath, db.Template, db.Name)
	if _, err := c.request(ctx, "read", http.MethodGet, path, nil, &wire); err != nil {
		return Detail{}, err
	}
	return wire.detail(db), nil
}

// CreateDatabase provisions a new instance.  It returns ErrConflict when
// the registry reports the instance already exists.
func (c *Client) CreateDatabase(ctx context.Context, req CreateRequest) error {
	path := DatabasePath(c.databasesPath, req.Template, req.Name)
	_, err := c.request(ctx, "create", http.MethodPost, path, req, nil)
	return err
}

// DeleteDatabase destroys db.
func (c *Client) DeleteDatabase(ctx context.Context, db Database) error {
	path := DatabasePath(c.databasesPath, db.Template, db.Name)
	_, err := c.request(ctx, "delete", http.MethodDelete, path, nil, nil)
	return err
}

// request performs an HTTP request, classifies the status, and decodes the
// JSON response into result when one is expected.
func (c *Client) request(ctx context.Context, op, method, path string, body, result any) (status int, err error) {
	start := time.Now()
	defer func() {
		metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		metrics.BackendRequestsTotal.WithLabelValues(op, string(Classify(err))).Inc()
		c.log.Debugw("backend call",
			"op", op,
			"method", method,
			"path", path,
			"status", status,
			"elapsed", time.Since(start),
			"err", err,
		)
	}()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal %s body: %w", op, err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read %s response: %w", op, err)
	}

	if resp.StatusCode == http.StatusNotModified {
		if method == http.MethodPost {
			return resp.StatusCode, ErrConflict
		}
		return resp.StatusCode, nil
	}

	if resp.StatusCode >= 300 {
		return resp.StatusCode, newAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s response: %w", op, err)
		}
	}
	return resp.StatusCode, nil
}
