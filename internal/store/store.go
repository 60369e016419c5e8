package store

import (
	"context"
	"errors"
	"io"

	"github.com/nhle/workpad/internal/model"
)

var (
	// ErrNotFound is returned by point lookups that match no record.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when an insert violates a uniqueness rule.
	ErrConflict = errors.New("conflicting record")
)

// ProjectFilter narrows project listings. A nil ClientID lists all.
type ProjectFilter struct {
	ClientID *string
}

// InvoiceFilter narrows invoice listings. A nil ProjectID lists all.
type InvoiceFilter struct {
	ProjectID *string
}

// Store defines persistence for clients, projects and invoices. Listings
// are ordered by creation time, newest first.
type Store interface {
	// === Clients ===

	ListClients(ctx context.Context) ([]model.Client, error)
	GetClientByID(ctx context.Context, id string) (*model.Client, error)
	CreateClient(ctx context.Context, client model.Client) (*model.Client, error)
	UpdateClient(ctx context.Context, client model.Client) error
	DeleteClient(ctx context.Context, id string) error

	// === Projects ===

	ListProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error)
	GetProjectByID(ctx context.Context, id string) (*model.Project, error)
	CreateProject(ctx context.Context, project model.Project) (*model.Project, error)
	UpdateProject(ctx context.Context, project model.Project) error
	DeleteProject(ctx context.Context, id string) error

	// === Invoices ===

	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, error)
	GetInvoiceByID(ctx context.Context, id string) (*model.Invoice, error)
	CreateInvoice(ctx context.Context, invoice model.Invoice) (*model.Invoice, error)
	UpdateInvoice(ctx context.Context, invoice model.Invoice) error
	DeleteInvoice(ctx context.Context, id string) error

	// MarkInvoicesPaid sets every invoice of the project to Paid in a
	// single bulk update.
	MarkInvoicesPaid(ctx context.Context, projectID string) error

	// === Logos ===

	// UploadLogo stores an image under name and returns its public URL.
	UploadLogo(ctx context.Context, name string, contentType string, r io.Reader) (string, error)
}
