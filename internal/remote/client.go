// Package remote talks to a schemagen sync server over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/tordrt/schemagen/internal/schema"
)

// ErrTransport matches every failed request
var ErrTransport = errors.New("transport error")

// TransportError describes a failed request: either the round trip failed
// (Err is set) or the server answered with a non-2xx status
type TransportError struct {
	Endpoint string
	Status   int
	Body     string
	Err      error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request %s failed: %s", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("request %s failed: HTTP error status %d: %s", e.Endpoint, e.Status, e.Body)
}

func (e *TransportError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrTransport, e.Err}
	}
	return []error{ErrTransport}
}

// Ack is the reply to a write
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// NodePosition is the canvas position of one entity
type NodePosition struct {
	ID       string          `json:"id"`
	Position schema.Position `json:"position"`
}

// Layout is the visual part of a project
type Layout struct {
	DatabaseID string         `json:"databaseId,omitempty"`
	Nodes      []NodePosition `json:"nodes"`
}

// LayoutOf extracts the entity positions of a project
func LayoutOf(p *schema.Project, databaseID string) Layout {
	l := Layout{DatabaseID: databaseID, Nodes: []NodePosition{}}
	for _, e := range p.Collections {
		if e == nil || (databaseID != "" && e.DatabaseID != databaseID) {
			continue
		}
		l.Nodes = append(l.Nodes, NodePosition{ID: e.ID, Position: e.Position})
	}
	return l
}

const defaultTimeout = 30 * time.Second

// Client calls the sync endpoints
type Client struct {
	BaseURL    string
	Headers    map[string]string
	HTTPClient *http.Client
	Logger     *zap.SugaredLogger
}

// New creates a client for the server at baseURL
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// FetchSchema returns the server's project
func (c *Client) FetchSchema(ctx context.Context) (*schema.Document, error) {
	var doc schema.Document
	if err := c.do(ctx, http.MethodGet, "/api/schema", nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveSchema replaces the server's project
func (c *Client) SaveSchema(ctx context.Context, doc *schema.Document) (*Ack, error) {
	var ack Ack
	if err := c.do(ctx, http.MethodPost, "/api/sync", doc, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// SaveLayout sends entity positions only
func (c *Client) SaveLayout(ctx context.Context, layout Layout) (*Ack, error) {
	var ack Ack
	if err := c.do(ctx, http.MethodPost, "/api/save-layout", layout, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// FetchLiveDB introspects one of the server's configured connections
func (c *Client) FetchLiveDB(ctx context.Context, databaseID string) (*schema.Document, error) {
	var doc schema.Document
	if err := c.do(ctx, http.MethodGet, "/api/live-db/"+url.PathEscape(databaseID), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// FetchDatabases lists the connections the server can introspect
func (c *Client) FetchDatabases(ctx context.Context) ([]schema.Database, error) {
	var dbs []schema.Database
	if err := c.do(ctx, http.MethodGet, "/api/databases", nil, &dbs); err != nil {
		return nil, err
	}
	return dbs, nil
}

func (c *Client) logger() *zap.SugaredLogger {
	if c.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return c.Logger
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request for %s: %w", endpoint, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		c.logger().Warnw("request failed", "endpoint", endpoint, "error", err)
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		buf, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger().Warnw("request rejected", "endpoint", endpoint, "status", resp.StatusCode)
		return &TransportError{Endpoint: endpoint, Status: resp.StatusCode, Body: strings.TrimSpace(string(buf))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
