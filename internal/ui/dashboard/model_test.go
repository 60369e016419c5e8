package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/workpad/internal/model"
	"github.com/nhle/workpad/tests/testutil"
)

func TestViewBeforeLoad(t *testing.T) {
	m := New(nil, 120, 30)
	assert.Contains(t, m.View(), "Loading...")
	assert.NotContains(t, m.View(), "Revenue")
}

func TestViewRendersCards(t *testing.T) {
	m := New(nil, 120, 30)
	m, cmd := m.Update(statsLoadedMsg{stats: model.Stats{
		Clients:            2,
		Projects:           3,
		Invoices:           4,
		Revenue:            1000,
		PaidRevenue:        600,
		OutstandingRevenue: 250,
	}})
	assert.Nil(t, cmd)

	view := m.View()
	for _, label := range []string{"Clients", "Projects", "Invoices", "Revenue", "Paid", "Outstanding"} {
		assert.Contains(t, view, label)
	}
	assert.Contains(t, view, "$1000.00")
	assert.Contains(t, view, "$600.00")
	assert.Contains(t, view, "$250.00")
	assert.NotContains(t, view, "Loading...")
}

func TestLoadReadsStore(t *testing.T) {
	svc, fake := testutil.NewTestService(t)
	clientID := fake.Seed("clientes", testutil.Row{"nombre": "Acme"})
	projectID := fake.Seed("proyectos", testutil.Row{"client_id": clientID, "title": "Website", "status": "Pending"})
	fake.Seed("facturas", testutil.Row{"number": "A", "project_id": projectID, "amount": 600, "status": "Paid"})
	fake.Seed("facturas", testutil.Row{"number": "B", "project_id": projectID, "amount": 250, "status": "Pending"})

	m := New(svc, 120, 30)
	msg := m.Load()()
	require.IsType(t, statsLoadedMsg{}, msg)

	m, _ = m.Update(msg)
	stats := m.Stats()
	assert.Equal(t, 1, stats.Clients)
	assert.Equal(t, 1, stats.Projects)
	assert.Equal(t, 2, stats.Invoices)
	assert.InDelta(t, 850, stats.Revenue, 0.001)
	assert.InDelta(t, 600, stats.PaidRevenue, 0.001)
	assert.Contains(t, m.View(), "$850.00")
}
