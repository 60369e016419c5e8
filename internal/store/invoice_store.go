package store

import (
	"context"
	"fmt"

	"github.com/nhle/workpad/internal/model"
	"github.com/nhle/workpad/internal/postgrest"
)

// ListInvoices retrieves invoices matching the filter, newest first.
func (s *RemoteStore) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, error) {
	q := newestFirst()
	if filter.ProjectID != nil {
		q.Eq("project_id", *filter.ProjectID)
	}

	var rows []invoiceRow
	if err := s.client.Select(ctx, s.tables.Invoices, q, &rows); err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	return invoicesFromRows(rows), nil
}

// GetInvoiceByID retrieves a single invoice by ID.
func (s *RemoteStore) GetInvoiceByID(ctx context.Context, id string) (*model.Invoice, error) {
	var rows []invoiceRow
	if err := s.client.Select(ctx, s.tables.Invoices, byID(id).Select("*"), &rows); err != nil {
		return nil, fmt.Errorf("getting invoice %s: %w", id, err)
	}
	invoices := invoicesFromRows(rows)
	if len(invoices) == 0 {
		return nil, fmt.Errorf("invoice %s: %w", id, ErrNotFound)
	}
	return &invoices[0], nil
}

// CreateInvoice inserts a new invoice under its project. A uniqueness
// violation on the number is reported as ErrConflict.
func (s *RemoteStore) CreateInvoice(ctx context.Context, invoice model.Invoice) (*model.Invoice, error) {
	if invoice.ProjectID == "" {
		return nil, fmt.Errorf("invoice must belong to a project")
	}

	body := invoiceInsert{
		invoicePayload: newInvoicePayload(invoice),
		Number:         invoice.Number,
		ProjectID:      invoice.ProjectID,
	}
	var rows []invoiceRow
	if err := s.client.Insert(ctx, s.tables.Invoices, body, &rows); err != nil {
		if postgrest.IsConflict(err) {
			return nil, fmt.Errorf("creating invoice %s: %w: %w", invoice.Number, ErrConflict, err)
		}
		return nil, fmt.Errorf("creating invoice %s: %w", invoice.Number, err)
	}
	if created := invoicesFromRows(rows); len(created) > 0 {
		return &created[0], nil
	}
	return &invoice, nil
}

// UpdateInvoice overwrites amount, date and status. The number and the
// owning project are never changed.
func (s *RemoteStore) UpdateInvoice(ctx context.Context, invoice model.Invoice) error {
	err := s.client.Update(ctx, s.tables.Invoices, byID(invoice.ID), newInvoicePayload(invoice), nil)
	if err != nil {
		return fmt.Errorf("updating invoice %s: %w", invoice.ID, err)
	}
	return nil
}

// DeleteInvoice removes an invoice.
func (s *RemoteStore) DeleteInvoice(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, s.tables.Invoices, byID(id)); err != nil {
		return fmt.Errorf("deleting invoice %s: %w", id, err)
	}
	return nil
}

// MarkInvoicesPaid issues one PATCH matching every invoice of the project.
// Repeating it leaves the same final state.
func (s *RemoteStore) MarkInvoicesPaid(ctx context.Context, projectID string) error {
	if projectID == "" {
		return fmt.Errorf("marking invoices paid: empty project id")
	}
	q := byProject(projectID)
	body := statusPatch{Status: model.InvoiceStatusPaid}
	if err := s.client.Update(ctx, s.tables.Invoices, q, body, nil); err != nil {
		return fmt.Errorf("marking invoices of project %s paid: %w", projectID, err)
	}
	return nil
}
