package store

import (
	"context"
	"fmt"
	"io"

	"github.com/nhle/workpad/internal/model"
	"github.com/nhle/workpad/internal/postgrest"
)

// createdAtColumn orders every listing.
const createdAtColumn = "created_at"

// RemoteStore implements Store against a PostgREST API.
type RemoteStore struct {
	client *postgrest.Client
	tables model.TableConfig
	bucket string
}

// NewRemoteStore wraps a PostgREST client. Empty table names or bucket
// fall back to the hosted defaults.
func NewRemoteStore(c *postgrest.Client, tables model.TableConfig, bucket string) *RemoteStore {
	if tables.Clients == "" {
		tables.Clients = "clientes"
	}
	if tables.Projects == "" {
		tables.Projects = "proyectos"
	}
	if tables.Invoices == "" {
		tables.Invoices = "facturas"
	}
	if bucket == "" {
		bucket = "logos"
	}
	return &RemoteStore{client: c, tables: tables, bucket: bucket}
}

// UploadLogo stores an image in the logo bucket and returns its public URL.
func (s *RemoteStore) UploadLogo(
	ctx context.Context,
	name string,
	contentType string,
	r io.Reader,
) (string, error) {
	if err := s.client.Upload(ctx, s.bucket, name, contentType, r); err != nil {
		return "", fmt.Errorf("uploading logo %s: %w", name, err)
	}
	return s.client.PublicURL(s.bucket, name), nil
}

// byID builds the point-lookup filter shared by get, update and delete.
func byID(id string) *postgrest.Query {
	return postgrest.NewQuery().Eq("id", id)
}

// newestFirst builds the ordering every listing uses.
func newestFirst() *postgrest.Query {
	return postgrest.NewQuery().Select("*").Order(createdAtColumn, true)
}

func byProject(projectID string) *postgrest.Query {
	return postgrest.NewQuery().Eq("project_id", projectID)
}
