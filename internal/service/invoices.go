package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/workpad/internal/model"
	"github.com/nhle/workpad/internal/store"
)

// maxNumberAttempts bounds inserts of a generated invoice number that keeps
// colliding with an existing one.
const maxNumberAttempts = 3

// dateLayout is the store's calendar date format.
const dateLayout = "2006-01-02"

// NewInvoiceNumber returns "INV-" followed by eight uppercase hex digits
// taken from a random UUID.
func NewInvoiceNumber() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "INV-" + strings.ToUpper(hex[:8])
}

// ListInvoices returns all invoices, newest first.
func (s *Service) ListInvoices(ctx context.Context) []model.Invoice {
	return s.listInvoices(ctx, store.InvoiceFilter{})
}

// ListInvoicesByProject returns the invoices of one project, newest first.
func (s *Service) ListInvoicesByProject(ctx context.Context, projectID string) []model.Invoice {
	return s.listInvoices(ctx, store.InvoiceFilter{ProjectID: &projectID})
}

func (s *Service) listInvoices(ctx context.Context, f store.InvoiceFilter) []model.Invoice {
	invoices, err := s.store.ListInvoices(ctx, f)
	if err != nil {
		attrs := []any{}
		if f.ProjectID != nil {
			attrs = append(attrs, "project_id", *f.ProjectID)
		}
		s.fail("list invoices", err, attrs...)
		return []model.Invoice{}
	}
	return invoices
}

// GetInvoice returns the invoice with id, or nil.
func (s *Service) GetInvoice(ctx context.Context, id string) *model.Invoice {
	inv, err := s.store.GetInvoiceByID(ctx, id)
	if err != nil {
		s.fail("get invoice", err, "id", id)
		return nil
	}
	return inv
}

// CreateInvoice inserts an invoice under in.ProjectID. The amount is
// checked before anything is sent. When no number is given one is
// generated, and regenerated if the store reports it is already taken.
func (s *Service) CreateInvoice(ctx context.Context, in InvoiceInput) bool {
	inv, err := invoiceFromInput(in, true)
	if err != nil {
		s.reject("create invoice", err, "project_id", in.ProjectID)
		return false
	}
	if inv.Date == "" {
		inv.Date = s.now().Format(dateLayout)
	}

	generated := inv.Number == ""
	for attempt := 1; ; attempt++ {
		if generated {
			inv.Number = s.newNumber()
		}

		created, err := s.store.CreateInvoice(ctx, inv)
		if err == nil {
			s.logger.Info("invoice created",
				"id", created.ID, "number", created.Number, "project_id", created.ProjectID)
			return true
		}

		if generated && errors.Is(err, store.ErrConflict) && attempt < maxNumberAttempts {
			s.logger.Debug("invoice number taken, retrying", "number", inv.Number, "attempt", attempt)
			continue
		}
		s.fail("create invoice", err, "project_id", inv.ProjectID, "number", inv.Number)
		return false
	}
}

// UpdateInvoice overwrites amount, date and status of invoice id. Number
// and project never change.
func (s *Service) UpdateInvoice(ctx context.Context, id string, in InvoiceInput) bool {
	inv, err := invoiceFromInput(in, false)
	if err != nil {
		s.reject("update invoice", err, "id", id)
		return false
	}
	inv.ID = id

	if err := s.store.UpdateInvoice(ctx, inv); err != nil {
		s.fail("update invoice", err, "id", id)
		return false
	}
	return true
}

// DeleteInvoice removes invoice id.
func (s *Service) DeleteInvoice(ctx context.Context, id string) bool {
	if err := s.store.DeleteInvoice(ctx, id); err != nil {
		s.fail("delete invoice", err, "id", id)
		return false
	}
	return true
}

// MarkInvoicesPaid sets every invoice of projectID to Paid. Running it
// again has no further effect.
func (s *Service) MarkInvoicesPaid(ctx context.Context, projectID string) bool {
	if err := s.store.MarkInvoicesPaid(ctx, projectID); err != nil {
		s.fail("mark invoices paid", err, "project_id", projectID)
		return false
	}
	return true
}
