package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tordrt/schemagen/internal/schema"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(srv.URL + "/")
	c.Logger = zaptest.NewLogger(t).Sugar()
	return c
}

func TestFetchSchema(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/schema", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Token"))
		_, _ = w.Write([]byte(`{"version":1,"databases":[{"id":"db-main","name":"MainDB"}],"activeDatabaseId":"db-main","collections":[{"id":"1","data":{"label":"Users"}}],"edges":[]}`))
	})
	c.Headers = map[string]string{"X-Token": "secret"}

	doc, err := c.FetchSchema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Version)
	require.Len(t, doc.Collections, 1)
	assert.Equal(t, "Users", doc.Collections[0].Data.Label)
}

func TestWrites(t *testing.T) {
	tests := []struct {
		name string
		path string
		call func(c *Client) (*Ack, error)
		key  string
	}{
		{
			name: "sync",
			path: "/api/sync",
			call: func(c *Client) (*Ack, error) {
				return c.SaveSchema(context.Background(), &schema.Document{Version: 1, Project: *schema.NewProject()})
			},
			key: "collections",
		},
		{
			name: "layout",
			path: "/api/save-layout",
			call: func(c *Client) (*Ack, error) {
				return c.SaveLayout(context.Background(), Layout{Nodes: []NodePosition{{ID: "1"}}})
			},
			key: "nodes",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				var body map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Contains(t, body, tt.key)
				_, _ = w.Write([]byte(`{"success":true}`))
			})
			ack, err := tt.call(c)
			require.NoError(t, err)
			assert.True(t, ack.Success)
		})
	}
}

func TestFetchLiveDBEscapesID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/live-db/a%2Fb", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"collections":[],"edges":[]}`))
	})
	doc, err := c.FetchLiveDB(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Empty(t, doc.Collections)
}

func TestFetchDatabases(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"shop","name":"shop"}]`))
	})
	dbs, err := c.FetchDatabases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []schema.Database{{ID: "shop", Name: "shop"}}, dbs)
}

func TestTransportErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		_, err := c.FetchSchema(context.Background())
		require.ErrorIs(t, err, ErrTransport)
		var te *TransportError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, http.StatusInternalServerError, te.Status)
		assert.Equal(t, "boom", te.Body)
	})

	t.Run("bad json", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{`))
		})
		_, err := c.FetchDatabases(context.Background())
		require.ErrorIs(t, err, ErrTransport)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		_, err := New(srv.URL).FetchSchema(context.Background())
		require.ErrorIs(t, err, ErrTransport)
	})

	t.Run("cancelled", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.FetchSchema(ctx)
		require.ErrorIs(t, err, context.Canceled)
		require.ErrorIs(t, err, ErrTransport)
	})
}

func TestLayoutOf(t *testing.T) {
	p := schema.NewProject()
	p.Collections = []*schema.Entity{
		{ID: "1", DatabaseID: "a", Position: schema.Position{X: 1}},
		{ID: "2", DatabaseID: "b", Position: schema.Position{Y: 2}},
	}
	assert.Equal(t, []NodePosition{{ID: "2", Position: schema.Position{Y: 2}}}, LayoutOf(p, "b").Nodes)
	assert.Len(t, LayoutOf(p, "").Nodes, 2)
}
