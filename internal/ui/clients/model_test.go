package clients

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

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded() Model {
	m := New(nil, keys.DefaultKeyMap(), 100, 30)
	m, _ = m.Update(clientsLoadedMsg{clients: []model.Client{
		{ID: "1", Name: "Acme Corp", Email: "ops@acme.io", Location: model.NewGeoPoint(40.5, -3.25)},
		{ID: "2", Name: "Globex"},
	}})
	return m
}

func TestSearchFiltersList(t *testing.T) {
	m := loaded()
	require.Len(t, m.visible, 2)

	m, _ = m.Update(runes("/"))
	assert.True(t, m.Capturing())

	for _, r := range "glo" {
		m, _ = m.Update(runes(string(r)))
	}
	require.Len(t, m.visible, 1)
	assert.Equal(t, "Globex", m.visible[0].Name)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Capturing())
	assert.Len(t, m.visible, 2)
}

func TestSearchMatchesEmail(t *testing.T) {
	m := loaded()
	m, _ = m.Update(runes("/"))
	for _, r := range "ACME.IO" {
		m, _ = m.Update(runes(string(r)))
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.Capturing())
	require.Len(t, m.visible, 1)
	assert.Equal(t, "1", m.visible[0].ID)
}

func TestDetailActions(t *testing.T) {
	m := loaded()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, modeDetail, m.mode)
	require.NotNil(t, m.current)

	m, _ = m.Update(overviewLoadedMsg{
		client:   &m.visible[0],
		projects: []model.Project{{ID: "5", Title: "Website", Status: model.ProjectStatusCompleted}},
	})
	view := m.View()
	assert.Contains(t, view, "Website")
	assert.Contains(t, view, "100%")

	m, _ = m.Update(runes("m"))
	assert.Contains(t, m.statusMsg, "q=40.500000,-3.250000(Acme+Corp)")

	_, cmd := m.Update(runes("a"))
	require.NotNil(t, cmd)
	assert.Equal(t, NewProjectMsg{ClientID: "1"}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, OpenProjectMsg{ProjectID: "5"}, cmd())
}

func TestMapWithoutLocation(t *testing.T) {
	m := loaded()
	m, _ = m.Update(runes("j"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, "2", m.current.ID)

	m, _ = m.Update(runes("m"))
	assert.Equal(t, "No location on file", m.statusMsg)
}

func TestFormSubmit_SavesOnce(t *testing.T) {
	svc, fake := testutil.NewTestService(t)

	m := New(svc, keys.DefaultKeyMap(), 100, 30)
	m, _ = m.startForm(nil)
	m.fb.name = "Acme Corp"
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
	require.Len(t, fake.Rows("clientes"), 1)
	assert.Equal(t, "Acme Corp", fake.Rows("clientes")[0]["nombre"])

	m, _ = m.Update(msg)
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, "Client saved", m.statusMsg)
}

func TestConfirmDelete_DeletesOnce(t *testing.T) {
	svc, fake := testutil.NewTestService(t)
	id := fake.Seed("clientes", testutil.Row{"nombre": "Acme Corp"})

	m := New(svc, keys.DefaultKeyMap(), 100, 30)
	m.current = &model.Client{ID: id, Name: "Acme Corp"}
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
	assert.Empty(t, fake.Rows("clientes"))

	m, _ = m.Update(msg)
	assert.Equal(t, modeList, m.mode)
	assert.Nil(t, m.current)
}
