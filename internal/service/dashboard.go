package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/workpad/internal/model"
)

// Dashboard reads clients, projects and invoices concurrently and
// aggregates them. Each read degrades to empty on its own.
func (s *Service) Dashboard(ctx context.Context) model.Stats {
	var (
		clients  []model.Client
		projects []model.Project
		invoices []model.Invoice
	)

	var g errgroup.Group
	g.Go(func() error {
		clients = s.ListClients(ctx)
		return nil
	})
	g.Go(func() error {
		projects = s.ListProjects(ctx)
		return nil
	})
	g.Go(func() error {
		invoices = s.ListInvoices(ctx)
		return nil
	})
	_ = g.Wait()

	return ComputeStats(clients, projects, invoices)
}

// ComputeStats aggregates counts and revenue. Revenue sums every invoice
// regardless of status; PaidRevenue and OutstandingRevenue split out Paid
// and Pending.
func ComputeStats(clients []model.Client, projects []model.Project, invoices []model.Invoice) model.Stats {
	stats := model.Stats{
		Clients:  len(clients),
		Projects: len(projects),
		Invoices: len(invoices),
	}
	for _, inv := range invoices {
		stats.Revenue += inv.Amount
		switch inv.Status {
		case model.InvoiceStatusPaid:
			stats.PaidRevenue += inv.Amount
		case model.InvoiceStatusPending:
			stats.OutstandingRevenue += inv.Amount
		}
	}
	return stats
}

// ClientOverview loads a client and its projects concurrently. The client
// is nil if it could not be read.
func (s *Service) ClientOverview(ctx context.Context, id string) (*model.Client, []model.Project) {
	var (
		client   *model.Client
		projects []model.Project
	)

	var g errgroup.Group
	g.Go(func() error {
		client = s.GetClient(ctx, id)
		return nil
	})
	g.Go(func() error {
		projects = s.ListProjectsByClient(ctx, id)
		return nil
	})
	_ = g.Wait()

	return client, projects
}

// ProjectOverview loads a project and its invoices concurrently.
func (s *Service) ProjectOverview(ctx context.Context, id string) (*model.Project, []model.Invoice) {
	var (
		project  *model.Project
		invoices []model.Invoice
	)

	var g errgroup.Group
	g.Go(func() error {
		project = s.GetProject(ctx, id)
		return nil
	})
	g.Go(func() error {
		invoices = s.ListInvoicesByProject(ctx, id)
		return nil
	})
	_ = g.Wait()

	return project, invoices
}
