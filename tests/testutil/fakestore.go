package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// TestAPIKey is the key the fake store accepts.
const TestAPIKey = "test-api-key"

// Row is one record in a fake table.
type Row map[string]interface{}

type childLink struct {
	table  string
	column string
}

// FakeStore is an in-process PostgREST and object storage server backed by
// in-memory tables. Rows get sequential integer ids and increasing
// created_at stamps. Deleting a client removes its projects and deleting a
// project removes its invoices, as the hosted schema's foreign keys do.
type FakeStore struct {
	server *httptest.Server

	mu       sync.Mutex
	tables   map[string][]Row
	nextID   int
	clock    time.Time
	objects  map[string][]byte
	types    map[string]string
	failures map[string]int
	requests map[string]int
	unique   map[string]string
	children map[string]childLink
}

// NewFakeStore starts a fake store that is shut down with the test.
func NewFakeStore(t *testing.T) *FakeStore {
	t.Helper()

	f := &FakeStore{
		tables:   make(map[string][]Row),
		nextID:   1,
		clock:    time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		objects:  make(map[string][]byte),
		types:    make(map[string]string),
		failures: make(map[string]int),
		requests: make(map[string]int),
		unique:   map[string]string{"facturas": "number"},
		children: map[string]childLink{
			"clientes":  {table: "proyectos", column: "client_id"},
			"proyectos": {table: "facturas", column: "project_id"},
		},
	}

	r := chi.NewRouter()
	r.Use(f.count, f.authenticate, f.injectFailures)
	r.Get("/rest/v1/{table}", f.handleSelect)
	r.Post("/rest/v1/{table}", f.handleInsert)
	r.Patch("/rest/v1/{table}", f.handleUpdate)
	r.Delete("/rest/v1/{table}", f.handleDelete)
	r.Post("/storage/v1/object/{bucket}/{name}", f.handleUpload)

	f.server = httptest.NewServer(r)
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the base URL of the fake store.
func (f *FakeStore) URL() string {
	return f.server.URL
}

// Seed inserts row into table as-is and returns its id.
func (f *FakeStore) Seed(table string, row Row) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.stamp(row)
	f.tables[table] = append(f.tables[table], stored)
	return fmt.Sprint(stored["id"])
}

// Rows returns a copy of every row in table in insertion order.
func (f *FakeStore) Rows(table string) []Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Row, 0, len(f.tables[table]))
	for _, r := range f.tables[table] {
		out = append(out, copyRow(r))
	}
	return out
}

// Object returns an uploaded object and its content type.
func (f *FakeStore) Object(bucket, name string) ([]byte, string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := bucket + "/" + name
	data, ok := f.objects[key]
	return data, f.types[key], ok
}

// Fail makes every request with method against table (or "storage")
// answer status until Recover is called.
func (f *FakeStore) Fail(method, table string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+table] = status
}

// Recover clears all injected failures.
func (f *FakeStore) Recover() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = make(map[string]int)
}

// Requests returns how many requests with method hit target, a table
// name or "storage". An empty method counts every method.
func (f *FakeStore) Requests(method, target string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if method != "" {
		return f.requests[method+" "+target]
	}
	n := 0
	for k, v := range f.requests {
		if strings.HasSuffix(k, " "+target) {
			n += v
		}
	}
	return n
}

// TotalRequests returns how many requests reached the server.
func (f *FakeStore) TotalRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.requests {
		n += v
	}
	return n
}

// stamp assigns an id and created_at when row lacks them. Callers hold mu.
func (f *FakeStore) stamp(row Row) Row {
	stored := copyRow(row)
	if _, ok := stored["id"]; !ok {
		stored["id"] = f.nextID
		f.nextID++
	}
	if _, ok := stored["created_at"]; !ok {
		f.clock = f.clock.Add(time.Second)
		stored["created_at"] = f.clock.Format(time.RFC3339)
	}
	return stored
}

func target(r *http.Request) string {
	if strings.HasPrefix(r.URL.Path, "/storage/") {
		return "storage"
	}
	return strings.TrimPrefix(r.URL.Path, "/rest/v1/")
}

func (f *FakeStore) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests[r.Method+" "+target(r)]++
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeStore) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != TestAPIKey ||
			r.Header.Get("Authorization") != "Bearer "+TestAPIKey {
			writeError(w, http.StatusUnauthorized, "Invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeStore) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status, ok := f.failures[r.Method+" "+target(r)]
		f.mu.Unlock()
		if ok {
			writeError(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeStore) handleSelect(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	var rows []Row
	for _, row := range f.tables[table] {
		if matches(row, filters) {
			rows = append(rows, copyRow(row))
		}
	}
	f.mu.Unlock()

	if order := r.URL.Query().Get("order"); order != "" {
		col, dir, _ := strings.Cut(order, ".")
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := fmt.Sprint(rows[i][col]), fmt.Sprint(rows[j][col])
			if dir == "desc" {
				return a > b
			}
			return a < b
		})
	}

	if rows == nil {
		rows = []Row{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (f *FakeStore) handleInsert(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	incoming, err := decodeRows(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	if col, ok := f.unique[table]; ok {
		for _, in := range incoming {
			for _, existing := range f.tables[table] {
				if fmt.Sprint(existing[col]) == fmt.Sprint(in[col]) {
					f.mu.Unlock()
					writeError(w, http.StatusConflict,
						fmt.Sprintf("duplicate key value violates unique constraint on %s", col))
					return
				}
			}
		}
	}
	created := make([]Row, 0, len(incoming))
	for _, in := range incoming {
		delete(in, "id")
		stored := f.stamp(in)
		f.tables[table] = append(f.tables[table], stored)
		created = append(created, copyRow(stored))
	}
	f.mu.Unlock()

	if wantsRepresentation(r) {
		writeJSON(w, http.StatusCreated, created)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (f *FakeStore) handleUpdate(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	filters, err := parseFilters(r.URL.Query())
	if err != nil || len(filters) == 0 {
		writeError(w, http.StatusBadRequest, "update requires a filter")
		return
	}
	var patch Row
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	delete(patch, "id")

	f.mu.Lock()
	var updated []Row
	for _, row := range f.tables[table] {
		if !matches(row, filters) {
			continue
		}
		for k, v := range patch {
			row[k] = v
		}
		updated = append(updated, copyRow(row))
	}
	f.mu.Unlock()

	if wantsRepresentation(r) {
		if updated == nil {
			updated = []Row{}
		}
		writeJSON(w, http.StatusOK, updated)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeStore) handleDelete(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	filters, err := parseFilters(r.URL.Query())
	if err != nil || len(filters) == 0 {
		writeError(w, http.StatusBadRequest, "delete requires a filter")
		return
	}

	f.mu.Lock()
	f.deleteWhere(table, filters)
	f.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// deleteWhere removes matching rows and cascades to child tables.
// Callers hold mu.
func (f *FakeStore) deleteWhere(table string, filters map[string]string) {
	var kept []Row
	var removed []string
	for _, row := range f.tables[table] {
		if matches(row, filters) {
			removed = append(removed, fmt.Sprint(row["id"]))
			continue
		}
		kept = append(kept, row)
	}
	f.tables[table] = kept

	child, ok := f.children[table]
	if !ok {
		return
	}
	for _, id := range removed {
		f.deleteWhere(child.table, map[string]string{child.column: id})
	}
}

func (f *FakeStore) handleUpload(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	name := chi.URLParam(r, "name")

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := bucket + "/" + name
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.objects[key]; exists && r.Header.Get("x-upsert") != "true" {
		writeError(w, http.StatusBadRequest, "The resource already exists")
		return
	}
	f.objects[key] = data
	f.types[key] = header.Header.Get("Content-Type")

	writeJSON(w, http.StatusOK, map[string]string{"Key": key})
}

func parseFilters(q url.Values) (map[string]string, error) {
	filters := make(map[string]string)
	for col, vals := range q {
		if col == "select" || col == "order" {
			continue
		}
		v := vals[0]
		if !strings.HasPrefix(v, "eq.") {
			return nil, fmt.Errorf("unsupported filter %s=%s", col, v)
		}
		filters[col] = strings.TrimPrefix(v, "eq.")
	}
	return filters, nil
}

func matches(row Row, filters map[string]string) bool {
	for col, want := range filters {
		if fmt.Sprint(row[col]) != want {
			return false
		}
	}
	return true
}

func decodeRows(body io.Reader) ([]Row, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, err
	}
	if len(raw) > 0 && raw[0] == '[' {
		var rows []Row
		err := json.Unmarshal(raw, &rows)
		return rows, err
	}
	var row Row
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	return []Row{row}, nil
}

func wantsRepresentation(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Prefer"), "return=representation")
}

func copyRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
