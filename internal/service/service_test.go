package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/workpad/internal/logger"
	"github.com/nhle/workpad/internal/model"
	"github.com/nhle/workpad/internal/service"
	"github.com/nhle/workpad/internal/sync"
	"github.com/nhle/workpad/tests/testutil"
)

func TestCreateClient_ThenList(t *testing.T) {
	ctx := context.Background()
	svc, _ := testutil.NewTestService(t)

	ok := svc.CreateClient(ctx, service.ClientInput{Name: "Acme", Email: "Acme Billing <a@b.co>"})
	require.True(t, ok)

	clients := svc.ListClients(ctx)
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme", clients[0].Name)
	assert.Equal(t, "a@b.co", clients[0].Email)
	assert.NotEmpty(t, clients[0].ID)
}

func TestCreateClient_InvalidInputSendsNothing(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)

	assert.False(t, svc.CreateClient(ctx, service.ClientInput{}))
	assert.False(t, svc.CreateClient(ctx, service.ClientInput{Name: "Acme", Phone: "123"}))
	assert.Zero(t, f.TotalRequests())
}

func TestReads_DegradeToEmpty(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	f.Seed("clientes", testutil.Row{"nombre": "Acme"})
	f.Fail("GET", "clientes", 500)

	clients := svc.ListClients(ctx)
	assert.NotNil(t, clients)
	assert.Empty(t, clients)
	assert.Nil(t, svc.GetClient(ctx, "1"))
	assert.Nil(t, svc.GetProject(ctx, "404"))
	assert.Nil(t, svc.GetInvoice(ctx, "404"))
}

func TestSentinelLocation_IsAbsent(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	id := f.Seed("clientes", testutil.Row{"nombre": "Acme", "lat": 0, "lng": 0})

	c := svc.GetClient(ctx, id)
	require.NotNil(t, c)
	assert.False(t, c.Location.Valid)
	_, ok := c.MapURL()
	assert.False(t, ok)
}

func TestAcmeScenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := testutil.NewTestService(t)

	require.True(t, svc.CreateClient(ctx, service.ClientInput{Name: "Acme"}))
	clients := svc.ListClients(ctx)
	require.Len(t, clients, 1)
	acme := clients[0]

	require.True(t, svc.CreateProject(ctx, service.ProjectInput{
		ClientID: acme.ID,
		Title:    "Website",
		Price:    "1200",
	}))
	projects := svc.ListProjectsByClient(ctx, acme.ID)
	require.Len(t, projects, 1)
	website := projects[0]
	assert.Equal(t, model.ProjectStatusPending, website.Status)
	assert.Equal(t, 0, website.Progress())

	require.True(t, svc.CreateInvoice(ctx, service.InvoiceInput{
		ProjectID: website.ID,
		Number:    "INV-0001",
		Amount:    "500",
		Status:    model.InvoiceStatusPending,
	}))

	res := svc.UpdateProject(ctx, website.ID, service.ProjectInput{
		Title:  "Website",
		Price:  "1200",
		Status: model.ProjectStatusCompleted,
	})
	assert.True(t, res.Saved)
	assert.Equal(t, service.CascadeApplied, res.Cascade)

	project, invoices := svc.ProjectOverview(ctx, website.ID)
	require.NotNil(t, project)
	assert.Equal(t, 100, project.Progress())
	assert.Equal(t, acme.ID, project.ClientID)
	require.Len(t, invoices, 1)
	assert.Equal(t, "INV-0001", invoices[0].Number)
	assert.Equal(t, model.InvoiceStatusPaid, invoices[0].Status)

	stats := svc.Dashboard(ctx)
	assert.Equal(t, 1, stats.Clients)
	assert.Equal(t, 1, stats.Projects)
	assert.Equal(t, 500.0, stats.Revenue)
	assert.Equal(t, 500.0, stats.PaidRevenue)
	assert.Zero(t, stats.OutstandingRevenue)
}

func TestMarkInvoicesPaid_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	f.Seed("facturas", testutil.Row{"number": "A", "project_id": "7", "status": "Pending", "amount": 10})
	f.Seed("facturas", testutil.Row{"number": "B", "project_id": "7", "status": "Pending", "amount": 20})

	require.True(t, svc.MarkInvoicesPaid(ctx, "7"))
	first := svc.ListInvoicesByProject(ctx, "7")
	require.True(t, svc.MarkInvoicesPaid(ctx, "7"))
	second := svc.ListInvoicesByProject(ctx, "7")

	assert.Equal(t, first, second)
	for _, inv := range second {
		assert.Equal(t, model.InvoiceStatusPaid, inv.Status)
	}
}

func TestCreateInvoice_BadAmountSendsNothing(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)

	assert.False(t, svc.CreateInvoice(ctx, service.InvoiceInput{ProjectID: "1", Amount: "abc"}))
	assert.False(t, svc.CreateInvoice(ctx, service.InvoiceInput{ProjectID: "1", Amount: ""}))
	assert.Zero(t, f.TotalRequests())
}

func TestCreateInvoice_Defaults(t *testing.T) {
	ctx := context.Background()
	clock := func() time.Time { return time.Date(2025, 3, 9, 15, 0, 0, 0, time.Local) }
	svc, f := testutil.NewTestService(t, service.WithClock(clock))

	require.True(t, svc.CreateInvoice(ctx, service.InvoiceInput{ProjectID: "1", Amount: "99.5"}))

	rows := f.Rows("facturas")
	require.Len(t, rows, 1)
	assert.Regexp(t, `^INV-[0-9A-F]{8}$`, rows[0]["number"])
	assert.Equal(t, "2025-03-09", rows[0]["date"])
	assert.Equal(t, "Pending", rows[0]["status"])
	assert.Equal(t, 99.5, rows[0]["amount"])
	assert.Equal(t, "1", rows[0]["project_id"])
}

func TestCreateInvoice_RetriesGeneratedNumberOnConflict(t *testing.T) {
	ctx := context.Background()
	numbers := []string{"INV-DUP", "INV-DUP", "INV-FRESH"}
	next := func() string {
		n := numbers[0]
		numbers = numbers[1:]
		return n
	}
	svc, f := testutil.NewTestService(t, service.WithNumberGenerator(next))
	f.Seed("facturas", testutil.Row{"number": "INV-DUP", "project_id": "1"})

	require.True(t, svc.CreateInvoice(ctx, service.InvoiceInput{ProjectID: "1", Amount: "10"}))
	assert.Equal(t, 3, f.Requests("POST", "facturas"))

	rows := f.Rows("facturas")
	require.Len(t, rows, 2)
	assert.Equal(t, "INV-FRESH", rows[1]["number"])
}

func TestCreateInvoice_GivesUpAfterThreeConflicts(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t, service.WithNumberGenerator(func() string { return "INV-DUP" }))
	f.Seed("facturas", testutil.Row{"number": "INV-DUP", "project_id": "1"})

	assert.False(t, svc.CreateInvoice(ctx, service.InvoiceInput{ProjectID: "1", Amount: "10"}))
	assert.Equal(t, 3, f.Requests("POST", "facturas"))
}

func TestCreateInvoice_CallerNumberIsNotRegenerated(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	f.Seed("facturas", testutil.Row{"number": "INV-0001", "project_id": "1"})

	assert.False(t, svc.CreateInvoice(ctx, service.InvoiceInput{ProjectID: "1", Number: "INV-0001", Amount: "10"}))
	assert.Equal(t, 1, f.Requests("POST", "facturas"))
}

func TestUpdateInvoice_KeepsNumberAndProject(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	id := f.Seed("facturas", testutil.Row{"number": "INV-0001", "project_id": "3", "amount": 10, "status": "Pending"})

	require.True(t, svc.UpdateInvoice(ctx, id, service.InvoiceInput{
		ProjectID: "99",
		Number:    "INV-9999",
		Amount:    "25",
		Date:      "2025-04-01",
		Status:    model.InvoiceStatusCancelled,
	}))

	inv := svc.GetInvoice(ctx, id)
	require.NotNil(t, inv)
	assert.Equal(t, "INV-0001", inv.Number)
	assert.Equal(t, "3", inv.ProjectID)
	assert.Equal(t, 25.0, inv.Amount)
	assert.Equal(t, "2025-04-01", inv.Date)
	assert.Equal(t, model.InvoiceStatusCancelled, inv.Status)
}

func TestDashboard_LegacyRevenue(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	f.Seed("facturas", testutil.Row{"number": "A", "amount": 100, "status": "Paid"})
	f.Seed("facturas", testutil.Row{"number": "B", "amount": "bad", "status": "Pending"})
	f.Seed("facturas", testutil.Row{"number": "C", "amount": 50, "status": "Cancelled"})

	stats := svc.Dashboard(ctx)
	assert.Equal(t, 3, stats.Invoices)
	assert.Equal(t, 150.0, stats.Revenue)
	assert.Equal(t, 100.0, stats.PaidRevenue)
	assert.Zero(t, stats.OutstandingRevenue)
}

func TestDashboard_DegradesPerCollection(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	f.Seed("clientes", testutil.Row{"nombre": "Acme"})
	f.Seed("facturas", testutil.Row{"number": "A", "amount": 40, "status": "Pending"})
	f.Fail("GET", "clientes", 503)

	stats := svc.Dashboard(ctx)
	assert.Zero(t, stats.Clients)
	assert.Equal(t, 1, stats.Invoices)
	assert.Equal(t, 40.0, stats.OutstandingRevenue)
}

func TestDeleteClient_CascadesThroughStore(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	clientID := f.Seed("clientes", testutil.Row{"nombre": "Acme"})
	projectID := f.Seed("proyectos", testutil.Row{"title": "Website", "client_id": clientID})
	f.Seed("facturas", testutil.Row{"number": "INV-0001", "project_id": projectID, "amount": 5})

	require.True(t, svc.DeleteClient(ctx, clientID))

	assert.Nil(t, svc.GetClient(ctx, clientID))
	assert.Empty(t, svc.ListProjectsByClient(ctx, clientID))
	assert.Empty(t, svc.ListInvoicesByProject(ctx, projectID))
}

func TestUpdateProject_FailedWriteSkipsCascade(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	id := f.Seed("proyectos", testutil.Row{"title": "Website", "client_id": "1"})
	f.Fail("PATCH", "proyectos", 500)

	res := svc.UpdateProject(ctx, id, service.ProjectInput{Title: "Website", Status: model.ProjectStatusCompleted})
	assert.False(t, res.Saved)
	assert.Equal(t, service.CascadeSkipped, res.Cascade)
	assert.Zero(t, f.Requests("PATCH", "facturas"))
}

func TestUpdateProject_NotCompletedSkipsCascade(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	id := f.Seed("proyectos", testutil.Row{"title": "Website", "client_id": "1"})

	res := svc.UpdateProject(ctx, id, service.ProjectInput{Title: "Website", Status: model.ProjectStatusInProgress})
	assert.True(t, res.Saved)
	assert.Equal(t, service.CascadeSkipped, res.Cascade)
	assert.Zero(t, f.Requests("PATCH", "facturas"))
}

func TestUpdateProject_RejectsNaNPrice(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)

	res := svc.UpdateProject(ctx, "1", service.ProjectInput{Title: "Website", Price: "a lot"})
	assert.False(t, res.Saved)
	assert.Zero(t, f.TotalRequests())
}

func TestCascadeFailure_QueuedAndDrained(t *testing.T) {
	ctx := context.Background()
	queue := testutil.NewTestOutbox(t)
	svc, f := testutil.NewTestService(t, service.WithCascadeQueue(queue))

	projectID := f.Seed("proyectos", testutil.Row{"title": "Website", "client_id": "1", "status": "In Progress"})
	f.Seed("facturas", testutil.Row{"number": "INV-0001", "project_id": projectID, "status": "Pending", "amount": 10})
	f.Fail("PATCH", "facturas", 503)

	res := svc.SetProjectStatus(ctx, projectID, model.ProjectStatusCompleted)
	assert.True(t, res.Saved)
	assert.Equal(t, service.CascadeQueued, res.Cascade)

	n, err := queue.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, model.InvoiceStatusPending, svc.ListInvoicesByProject(ctx, projectID)[0].Status)

	f.Recover()
	d := sync.New(queue, testutil.NewTestRemoteStore(f), time.Minute, logger.Discard())
	drained := d.DrainOnce(ctx)
	require.NoError(t, drained.Error)
	assert.Equal(t, 1, drained.Replayed)

	n, err = queue.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, model.InvoiceStatusPaid, svc.ListInvoicesByProject(ctx, projectID)[0].Status)
}

func TestCascadeFailure_WithoutQueue(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	projectID := f.Seed("proyectos", testutil.Row{"title": "Website", "client_id": "1"})
	f.Fail("PATCH", "facturas", 503)

	res := svc.SetProjectStatus(ctx, projectID, model.ProjectStatusCompleted)
	assert.True(t, res.Saved)
	assert.Equal(t, service.CascadeFailed, res.Cascade)
}

func TestSetProjectStatus_KeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	id := f.Seed("proyectos", testutil.Row{"title": "Website", "client_id": "1", "price": 300, "deadline": "2025-06-01"})

	res := svc.SetProjectStatus(ctx, id, model.ProjectStatusInProgress)
	require.True(t, res.Saved)

	p := svc.GetProject(ctx, id)
	require.NotNil(t, p)
	assert.Equal(t, 50, p.Progress())
	assert.Equal(t, 300.0, p.Price)
	assert.Equal(t, "2025-06-01", p.Deadline)

	assert.False(t, svc.SetProjectStatus(ctx, id, "Done").Saved)
}

func writeLogo(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("PNGDATA"), 0o644))
	return path
}

func TestCreateClient_UploadsLocalLogo(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	path := writeLogo(t, "acme.png")

	require.True(t, svc.CreateClient(ctx, service.ClientInput{Name: "Acme", Logo: "file://" + path}))

	data, ct, ok := f.Object("logos", "acme.png")
	require.True(t, ok)
	assert.Equal(t, "PNGDATA", string(data))
	assert.Equal(t, "image/png", ct)

	clients := svc.ListClients(ctx)
	require.Len(t, clients, 1)
	assert.Equal(t, f.URL()+"/storage/v1/object/public/logos/acme.png", clients[0].LogoURL)
}

func TestCreateClient_UploadFailureStillCreates(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	f.Fail("POST", "storage", 500)

	require.True(t, svc.CreateClient(ctx, service.ClientInput{Name: "Acme", Logo: writeLogo(t, "acme.png")}))

	clients := svc.ListClients(ctx)
	require.Len(t, clients, 1)
	assert.Empty(t, clients[0].LogoURL)
}

func TestUpdateClient_RemoteLogoPassesThrough(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	id := f.Seed("clientes", testutil.Row{"nombre": "Acme"})

	require.True(t, svc.UpdateClient(ctx, id, service.ClientInput{
		Name:     "Acme",
		Logo:     "https://cdn.example.com/acme.png",
		Location: model.NewGeoPoint(40.4, -3.7),
	}))
	assert.Zero(t, f.Requests("", "storage"))

	c := svc.GetClient(ctx, id)
	require.NotNil(t, c)
	assert.Equal(t, "https://cdn.example.com/acme.png", c.LogoURL)
	assert.True(t, c.Location.Valid)
}

func TestUpdateClient_UploadFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	id := f.Seed("clientes", testutil.Row{"nombre": "Acme", "logo_url": "https://cdn.example.com/old.png"})
	f.Fail("POST", "storage", 500)

	assert.False(t, svc.UpdateClient(ctx, id, service.ClientInput{Name: "Acme 2", Logo: writeLogo(t, "new.png")}))

	c := svc.GetClient(ctx, id)
	require.NotNil(t, c)
	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, "https://cdn.example.com/old.png", c.LogoURL)
}

func TestClientOverview(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	id := f.Seed("clientes", testutil.Row{"nombre": "Acme"})
	f.Seed("proyectos", testutil.Row{"title": "A", "client_id": id})
	f.Seed("proyectos", testutil.Row{"title": "B", "client_id": id})
	f.Seed("proyectos", testutil.Row{"title": "C", "client_id": "other"})

	c, projects := svc.ClientOverview(ctx, id)
	require.NotNil(t, c)
	require.Len(t, projects, 2)
	assert.Equal(t, "B", projects[0].Title)
}

func TestDeleteProjectAndInvoice(t *testing.T) {
	ctx := context.Background()
	svc, f := testutil.NewTestService(t)
	projectID := f.Seed("proyectos", testutil.Row{"title": "Website", "client_id": "1"})
	invoiceID := f.Seed("facturas", testutil.Row{"number": "A", "project_id": "9"})
	f.Seed("facturas", testutil.Row{"number": "B", "project_id": projectID})

	require.True(t, svc.DeleteInvoice(ctx, invoiceID))
	require.True(t, svc.DeleteProject(ctx, projectID))
	assert.Empty(t, svc.ListInvoices(ctx))
	assert.Empty(t, svc.ListProjects(ctx))

	f.Fail("DELETE", "proyectos", 500)
	assert.False(t, svc.DeleteProject(ctx, projectID))
}
