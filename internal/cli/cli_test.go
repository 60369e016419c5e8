package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nhle/workpad/internal/cli"
	"github.com/nhle/workpad/internal/logger"
	"github.com/nhle/workpad/internal/service"
	"github.com/nhle/workpad/internal/sync"
	"github.com/nhle/workpad/tests/testutil"
)

// newHarness returns a Bootstrapper backed by a fake store and an
// in-memory outbox.
func newHarness(t *testing.T) (cli.Bootstrapper, *testutil.FakeStore) {
	t.Helper()

	queue := testutil.NewTestOutbox(t)
	svc, f := testutil.NewTestService(t, service.WithCascadeQueue(queue))
	drainer := sync.New(queue, testutil.NewTestRemoteStore(f), time.Minute, logger.Discard())

	boot := func(ctx context.Context, opts cli.Options) (*cli.Deps, error) {
		return &cli.Deps{
			Logger:  logger.Discard(),
			Service: svc,
			Outbox:  queue,
			Drainer: drainer,
		}, nil
	}
	return boot, f
}

func run(t *testing.T, boot cli.Bootstrapper, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCmd(boot)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "json", "yaml"} {
		f, err := cli.ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, cli.Format(s), f)
	}

	f, err := cli.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, cli.FormatTable, f)

	_, err = cli.ParseFormat("xml")
	assert.Error(t, err)
}

func TestClients_AddThenListJSON(t *testing.T) {
	boot, _ := newHarness(t)

	_, err := run(t, boot, "clients", "add",
		"--name", "Acme Corp", "--email", "ops@acme.io", "--location", "40.5,-3.25")
	require.NoError(t, err)

	out, err := run(t, boot, "clients", "list", "-o", "json")
	require.NoError(t, err)

	var clients []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &clients))
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme Corp", clients[0]["name"])
	assert.Equal(t, "ops@acme.io", clients[0]["email"])
	assert.Equal(t, map[string]interface{}{"lat": 40.5, "lng": -3.25}, clients[0]["location"])
}

func TestClients_SearchFilters(t *testing.T) {
	boot, f := newHarness(t)
	f.Seed("clientes", testutil.Row{"nombre": "Acme Corp"})
	f.Seed("clientes", testutil.Row{"nombre": "Globex", "email": "hi@globex.com"})

	out, err := run(t, boot, "clients", "list", "--search", "GLOBEX", "-o", "json")
	require.NoError(t, err)

	var clients []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &clients))
	require.Len(t, clients, 1)
	assert.Equal(t, "Globex", clients[0]["name"])
}

func TestClients_AddInvalidSendsNothing(t *testing.T) {
	boot, f := newHarness(t)

	_, err := run(t, boot, "clients", "add", "--name", "Acme", "--email", "not-an-email")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
	assert.Zero(t, f.TotalRequests())
}

func TestProjects_ListYAML(t *testing.T) {
	boot, f := newHarness(t)
	clientID := f.Seed("clientes", testutil.Row{"nombre": "Acme"})
	f.Seed("proyectos", testutil.Row{"title": "Website", "client_id": clientID, "status": "In Progress", "price": 1200})

	out, err := run(t, boot, "projects", "list", "--client", clientID, "-o", "yaml")
	require.NoError(t, err)

	var projects []map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "Website", projects[0]["title"])
	assert.Equal(t, "In Progress", projects[0]["status"])
}

func TestComplete_MarksInvoicesPaid(t *testing.T) {
	boot, f := newHarness(t)
	projectID := f.Seed("proyectos", testutil.Row{"title": "Website", "client_id": "1", "status": "In Progress"})
	f.Seed("facturas", testutil.Row{"number": "INV-0001", "project_id": projectID, "amount": 500, "status": "Pending"})

	out, err := run(t, boot, "complete", projectID, "-o", "json")
	require.NoError(t, err)

	var res map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, true, res["ok"])
	assert.Equal(t, "applied", res["cascade"])
	assert.Equal(t, "Paid", f.Rows("facturas")[0]["status"])
}

func TestComplete_QueuedThenDrained(t *testing.T) {
	boot, f := newHarness(t)
	projectID := f.Seed("proyectos", testutil.Row{"title": "Website", "client_id": "1"})
	f.Seed("facturas", testutil.Row{"number": "INV-0001", "project_id": projectID, "amount": 500, "status": "Pending"})
	f.Fail("PATCH", "facturas", 503)

	out, err := run(t, boot, "complete", projectID)
	require.NoError(t, err)
	assert.Contains(t, out, "queued")

	out, err = run(t, boot, "outbox", "list", "-o", "json")
	require.NoError(t, err)
	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)

	f.Recover()
	out, err = run(t, boot, "outbox", "drain", "-o", "json")
	require.NoError(t, err)
	var report map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, float64(1), report["replayed"])
	assert.Equal(t, float64(0), report["remaining"])
	assert.Equal(t, "Paid", f.Rows("facturas")[0]["status"])
}

func TestProjectsStatus_RejectsUnknownStatus(t *testing.T) {
	boot, f := newHarness(t)

	_, err := run(t, boot, "projects", "status", "1", "Done")
	require.Error(t, err)
	assert.Zero(t, f.TotalRequests())
}

func TestInvoices_AddGeneratesNumber(t *testing.T) {
	boot, f := newHarness(t)
	projectID := f.Seed("proyectos", testutil.Row{"title": "Website", "client_id": "1"})

	_, err := run(t, boot, "invoices", "add", "--project", projectID, "--amount", "250.5")
	require.NoError(t, err)

	rows := f.Rows("facturas")
	require.Len(t, rows, 1)
	assert.Regexp(t, `^INV-[0-9A-F]{8}$`, rows[0]["number"])
	assert.Equal(t, "Pending", rows[0]["status"])
}

func TestInvoices_AddBadAmountSendsNothing(t *testing.T) {
	boot, f := newHarness(t)

	_, err := run(t, boot, "invoices", "add", "--project", "1", "--amount", "five hundred")
	require.Error(t, err)
	assert.Zero(t, f.TotalRequests())
}

func TestDashboard_Table(t *testing.T) {
	boot, f := newHarness(t)
	f.Seed("clientes", testutil.Row{"nombre": "Acme"})
	f.Seed("facturas", testutil.Row{"number": "A", "amount": 500, "status": "Paid"})
	f.Seed("facturas", testutil.Row{"number": "B", "amount": 100, "status": "Pending"})

	out, err := run(t, boot, "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Revenue")
	assert.Contains(t, out, "600.00")
	assert.Contains(t, out, "500.00")
	assert.Contains(t, out, "100.00")
}

func TestUnknownOutputFormat(t *testing.T) {
	boot, _ := newHarness(t)

	_, err := run(t, boot, "dashboard", "-o", "xml")
	assert.Error(t, err)
}
