package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

const (
	restPrefix    = "/rest/v1/"
	storagePrefix = "/storage/v1/object/"
)

// Client is a thin HTTP client for a PostgREST data API and its companion
// object storage API. Every request carries the static API key both as
// the apikey header and as a Bearer token. Requests are never retried.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new client. The baseURL is the project root
// (e.g., https://xyz.supabase.co); timeout bounds each request.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the project root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Select performs GET /rest/v1/{table}?{query} and unmarshals the JSON
// array into result.
func (c *Client) Select(
	ctx context.Context,
	table string,
	q *Query,
	result interface{},
) error {
	return c.do(ctx, http.MethodGet, tablePath(table, q), nil, nil, result)
}

// Insert performs POST /rest/v1/{table} and asks the store to return the
// inserted rows, which are unmarshaled into result when it is non-nil.
func (c *Client) Insert(
	ctx context.Context,
	table string,
	body interface{},
	result interface{},
) error {
	return c.do(ctx, http.MethodPost, tablePath(table, nil), body, representation(result), result)
}

// Update performs PATCH /rest/v1/{table}?{query} with a partial body.
// The query must carry at least one filter.
func (c *Client) Update(
	ctx context.Context,
	table string,
	q *Query,
	body interface{},
	result interface{},
) error {
	if !q.HasFilter() {
		return fmt.Errorf("refusing unfiltered update on %s", table)
	}
	return c.do(ctx, http.MethodPatch, tablePath(table, q), body, representation(result), result)
}

// Delete performs DELETE /rest/v1/{table}?{query}. The query must carry
// at least one filter.
func (c *Client) Delete(
	ctx context.Context,
	table string,
	q *Query,
) error {
	if !q.HasFilter() {
		return fmt.Errorf("refusing unfiltered delete on %s", table)
	}
	return c.do(ctx, http.MethodDelete, tablePath(table, q), nil, nil, nil)
}

// Upload stores r under bucket/name as a multipart form upload. An object
// with the same name is overwritten.
func (c *Client) Upload(
	ctx context.Context,
	bucket string,
	name string,
	contentType string,
	r io.Reader,
) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating upload part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("copying upload body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing upload body: %w", err)
	}

	path := objectPath(bucket, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("x-upsert", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return checkStatus(http.MethodPost, path, resp.StatusCode, respBody)
}

// PublicURL returns the URL an uploaded object is served from.
func (c *Client) PublicURL(bucket, name string) string {
	return c.baseURL + storagePrefix + "public/" + url.PathEscape(bucket) + "/" + url.PathEscape(name)
}

// objectPath escapes bucket and name so characters such as '#' or '?'
// stay part of the object key.
func objectPath(bucket, name string) string {
	return storagePrefix + url.PathEscape(bucket) + "/" + url.PathEscape(name)
}

// do is the core HTTP method that builds the request, sets auth headers,
// and handles JSON (de)serialization.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	headers map[string]string,
	result interface{},
) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	c.authorize(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("reading response body: %w", readErr)
	}

	if err := checkStatus(method, path, resp.StatusCode, respBody); err != nil {
		return err
	}

	// No content to parse (e.g. 204 or Prefer: return=minimal).
	if result == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf(
			"unmarshaling response from %s %s: %w",
			method, path, err,
		)
	}

	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

// checkStatus maps a non-2xx status to a typed error.
func checkStatus(method, path string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	statusErr := StatusError{
		Method: method,
		Path:   path,
		Status: status,
		Body:   strings.TrimSpace(string(body)),
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{
			Status:  status,
			Message: fmt.Sprintf("store rejected the API key on %s %s", method, path),
		}
	case http.StatusConflict:
		return &ConflictError{StatusError: statusErr}
	default:
		return &statusErr
	}
}

func tablePath(table string, q *Query) string {
	path := restPrefix + table
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	return path
}

// representation asks the store to echo affected rows when the caller
// wants them back.
func representation(result interface{}) map[string]string {
	if result == nil {
		return map[string]string{"Prefer": "return=minimal"}
	}
	return map[string]string{"Prefer": "return=representation"}
}
