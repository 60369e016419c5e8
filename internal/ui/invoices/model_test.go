package invoices

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/workpad/internal/keys"
	"github.com/nhle/workpad/internal/model"
	"github.com/nhle/workpad/tests/testutil"
)

// tickMsg stands in for the messages the app broadcasts to every screen.
type tickMsg struct{}

func seedProject(t *testing.T, fake *testutil.FakeStore) string {
	t.Helper()
	clientID := fake.Seed("clientes", testutil.Row{"nombre": "Acme"})
	return fake.Seed("proyectos", testutil.Row{"client_id": clientID, "title": "Website", "status": "Pending"})
}

func TestFormSubmit_SavesOnce(t *testing.T) {
	svc, fake := testutil.NewTestService(t)
	projectID := seedProject(t, fake)

	m := New(svc, keys.DefaultKeyMap(), 100, 30)
	m, _ = m.StartCreate(projectID)
	assert.Equal(t, projectID, m.fb.projectID)
	m.fb.amount = "600"
	m.form.State = huh.StateCompleted

	m, save := m.Update(tickMsg{})
	require.NotNil(t, save)
	assert.Equal(t, modeSaving, m.mode)
	assert.True(t, m.Capturing())

	m, cmd := m.Update(tickMsg{})
	assert.Nil(t, cmd)
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Saving")

	msg := save()
	assert.Equal(t, savedMsg{ok: true}, msg)
	rows := fake.Rows("facturas")
	require.Len(t, rows, 1)
	assert.Equal(t, projectID, rows[0]["project_id"])

	m, _ = m.Update(msg)
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, "Invoice saved", m.statusMsg)
}

func TestEditFromDetailReturnsToDetail(t *testing.T) {
	svc, fake := testutil.NewTestService(t)
	projectID := seedProject(t, fake)
	id := fake.Seed("facturas", testutil.Row{"number": "INV-0001", "project_id": projectID, "amount": 500, "status": "Pending"})

	m := New(svc, keys.DefaultKeyMap(), 100, 30)
	m, _ = m.Open(id)
	inv := &model.Invoice{ID: id, ProjectID: projectID, Number: "INV-0001", Amount: 500, Status: model.InvoiceStatusPending}
	m, _ = m.Update(invoiceLoadedMsg{invoice: inv})
	m, _ = m.startForm(inv, projectID)
	m.fb.amount = "750"
	m.form.State = huh.StateCompleted

	m, save := m.Update(tickMsg{})
	require.NotNil(t, save)
	assert.Equal(t, modeSaving, m.mode)

	m, _ = m.Update(save())
	assert.Equal(t, modeDetail, m.mode)
	assert.Equal(t, "Invoice saved", m.statusMsg)
	require.Len(t, fake.Rows("facturas"), 1)
}

func TestConfirmDelete_DeletesOnce(t *testing.T) {
	svc, fake := testutil.NewTestService(t)
	projectID := seedProject(t, fake)
	id := fake.Seed("facturas", testutil.Row{"number": "INV-0001", "project_id": projectID, "amount": 500, "status": "Pending"})

	m := New(svc, keys.DefaultKeyMap(), 100, 30)
	m.current = &model.Invoice{ID: id, Number: "INV-0001"}
	m, _ = m.startConfirm()
	m.fb.confirm = true
	m.confirmForm.State = huh.StateCompleted

	m, del := m.Update(tickMsg{})
	require.NotNil(t, del)
	assert.Equal(t, modeSaving, m.mode)

	m, cmd := m.Update(tickMsg{})
	assert.Nil(t, cmd)

	msg := del()
	assert.Equal(t, deletedMsg{ok: true}, msg)
	assert.Empty(t, fake.Rows("facturas"))

	m, _ = m.Update(msg)
	assert.Equal(t, modeList, m.mode)
	assert.Nil(t, m.current)
}

func TestListShowsProjectTitles(t *testing.T) {
	m := New(nil, keys.DefaultKeyMap(), 120, 30)
	m, _ = m.Update(invoicesLoadedMsg{
		invoices: []model.Invoice{{ID: "1", ProjectID: "7", Number: "INV-0001", Amount: 600, Date: "2026-01-05", Status: model.InvoiceStatusPaid}},
		projects: []model.Project{{ID: "7", Title: "Website"}},
	})

	view := m.View()
	assert.Contains(t, view, "INV-0001")
	assert.Contains(t, view, "Website")
	assert.Contains(t, view, "$600.00")
}
