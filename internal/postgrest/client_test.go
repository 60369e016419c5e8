package postgrest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	method string
	uri    string
	header http.Header
	body   string
}

func newServer(t *testing.T, status int, response string) (*Client, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		got.method = r.Method
		got.uri = r.URL.RequestURI()
		got.header = r.Header.Clone()
		got.body = string(data)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "k3y", 5*time.Second), got
}

func TestQuery_Encode(t *testing.T) {
	q := NewQuery().Eq("client_id", "7").Order("created_at", true).Select("*")
	assert.Equal(t, "client_id=eq.7&order=created_at.desc&select=*", q.Encode())
	assert.True(t, q.HasFilter())

	assert.Equal(t, "", (*Query)(nil).Encode())
	assert.False(t, NewQuery().Select("id", "nombre").HasFilter())
	assert.Equal(t, "select=id,nombre", NewQuery().Select("id", "nombre").Encode())
}

func TestSelect_SendsAuthAndDecodes(t *testing.T) {
	c, got := newServer(t, http.StatusOK, `[{"id":1},{"id":2}]`)

	var rows []map[string]interface{}
	err := c.Select(context.Background(), "clientes", NewQuery().Order("created_at", true), &rows)
	require.NoError(t, err)

	assert.Len(t, rows, 2)
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/rest/v1/clientes?order=created_at.desc", got.uri)
	assert.Equal(t, "k3y", got.header.Get("apikey"))
	assert.Equal(t, "Bearer k3y", got.header.Get("Authorization"))
}

func TestInsert_AsksForRepresentation(t *testing.T) {
	c, got := newServer(t, http.StatusCreated, `[{"id":9,"title":"Website"}]`)

	var rows []map[string]interface{}
	err := c.Insert(context.Background(), "proyectos", map[string]string{"title": "Website"}, &rows)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "return=representation", got.header.Get("Prefer"))
	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
	assert.JSONEq(t, `{"title":"Website"}`, got.body)
}

func TestUpdate_MinimalAndFiltered(t *testing.T) {
	c, got := newServer(t, http.StatusNoContent, "")

	err := c.Update(context.Background(), "facturas",
		NewQuery().Eq("project_id", "3"), map[string]string{"status": "Paid"}, nil)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, got.method)
	assert.Equal(t, "/rest/v1/facturas?project_id=eq.3", got.uri)
	assert.Equal(t, "return=minimal", got.header.Get("Prefer"))
	assert.JSONEq(t, `{"status":"Paid"}`, got.body)
}

func TestUpdateDelete_RefuseUnfiltered(t *testing.T) {
	c, got := newServer(t, http.StatusNoContent, "")

	assert.Error(t, c.Update(context.Background(), "facturas", NewQuery(), map[string]string{}, nil))
	assert.Error(t, c.Delete(context.Background(), "facturas", nil))
	assert.Empty(t, got.method, "no request should be sent")
}

func TestErrors_AreTyped(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"unauthorized", http.StatusUnauthorized, func(t *testing.T, err error) {
			assert.True(t, IsAuthError(err))
		}},
		{"forbidden", http.StatusForbidden, func(t *testing.T, err error) {
			assert.True(t, IsAuthError(err))
		}},
		{"conflict", http.StatusConflict, func(t *testing.T, err error) {
			assert.True(t, IsConflict(err))
			assert.False(t, IsAuthError(err))
		}},
		{"server error", http.StatusInternalServerError, func(t *testing.T, err error) {
			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, se.Body, "boom")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newServer(t, tt.status, `{"message":"boom"}`)
			err := c.Delete(context.Background(), "clientes", NewQuery().Eq("id", "1"))
			require.Error(t, err)
			assert.Equal(t, tt.status, StatusCode(err))
			tt.check(t, err)
		})
	}
}

func TestStatusCode_NetworkError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "k", time.Second)
	err := c.Select(context.Background(), "clientes", nil, &[]interface{}{})
	require.Error(t, err)
	assert.Zero(t, StatusCode(err))
}

func TestUpload_MultipartWithUpsert(t *testing.T) {
	var (
		gotPath, gotUpsert, gotType, gotName string
		gotData                              []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUpsert = r.Header.Get("x-upsert")
		f, h, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotData, _ = io.ReadAll(f)
		gotType = h.Header.Get("Content-Type")
		gotName = h.Filename
		_ = json.NewEncoder(w).Encode(map[string]string{"Key": "logos/acme.png"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second)
	err := c.Upload(context.Background(), "logos", "acme.png", "image/png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/logos/acme.png", gotPath)
	assert.Equal(t, "true", gotUpsert)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "acme.png", gotName)
	assert.Equal(t, "PNGDATA", string(gotData))

	assert.Equal(t, srv.URL+"/storage/v1/object/public/logos/acme.png", c.PublicURL("logos", "acme.png"))
}

func TestUpload_EscapesObjectName(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second)
	err := c.Upload(context.Background(), "logos", "logo #1?.png", "image/png", strings.NewReader("x"))
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/logos/logo #1?.png", gotPath)
	assert.Equal(t,
		srv.URL+"/storage/v1/object/public/logos/logo%20%231%3F.png",
		c.PublicURL("logos", "logo #1?.png"))
}
