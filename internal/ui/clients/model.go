package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/workpad/internal/keys"
	"github.com/nhle/workpad/internal/model"
	"github.com/nhle/workpad/internal/service"
	"github.com/nhle/workpad/internal/theme"
	"github.com/nhle/workpad/internal/ui"
)

// OpenProjectMsg asks the parent to show a project's detail.
type OpenProjectMsg struct{ ProjectID string }

// NewProjectMsg asks the parent to open the project form for a client.
type NewProjectMsg struct{ ClientID string }

// ChangedMsg signals that clients were created, updated or deleted.
type ChangedMsg struct{}

type mode int

const (
	modeList mode = iota
	modeDetail
	modeForm
	modeConfirmDelete
	modeSaving
)

type formBindings struct {
	name     string
	email    string
	phone    string
	address  string
	location string
	logo     string
	confirm  bool
}

type clientsLoadedMsg struct{ clients []model.Client }

type overviewLoadedMsg struct {
	client   *model.Client
	projects []model.Project
}

type savedMsg struct{ ok bool }
type deletedMsg struct{ ok bool }

// Model is the clients screen: a searchable list, a detail view with the
// client's projects, and the create/edit form.
type Model struct {
	mode   mode
	svc    *service.Service
	keys   *keys.KeyMap
	width  int
	height int

	all         []model.Client
	visible     []model.Client
	selectedIdx int
	search      textinput.Model
	searching   bool

	current    *model.Client
	projects   []model.Project
	projectIdx int

	editingID   string
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
}

// New creates the clients screen.
func New(svc *service.Service, k *keys.KeyMap, width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "name or email"
	ti.Prompt = "/ "
	ti.CharLimit = 80

	return Model{
		svc:    svc,
		keys:   k,
		search: ti,
		fb:     &formBindings{},
		width:  width, height: height,
	}
}

// Load refreshes the list.
func (m Model) Load() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return clientsLoadedMsg{clients: svc.ListClients(context.Background())}
	}
}

// Reload refreshes whatever the screen currently shows.
func (m Model) Reload() tea.Cmd {
	if m.mode == modeDetail && m.current != nil {
		return tea.Batch(m.Load(), m.loadOverview(m.current.ID))
	}
	return m.Load()
}

// Capturing reports whether keystrokes belong to a text field.
func (m Model) Capturing() bool {
	return m.searching || m.mode == modeForm || m.mode == modeConfirmDelete || m.mode == modeSaving
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case clientsLoadedMsg:
		m.all = msg.clients
		m.applyFilter()
		return m, nil

	case overviewLoadedMsg:
		if msg.client == nil {
			m.statusMsg = "Client not found"
			m.mode = modeList
			return m, nil
		}
		m.current = msg.client
		m.projects = msg.projects
		if m.projectIdx >= len(m.projects) {
			m.projectIdx = 0
		}
		return m, nil

	case savedMsg:
		if msg.ok {
			m.statusMsg = "Client saved"
		} else {
			m.statusMsg = "Could not save client"
		}
		return m.afterWrite()

	case deletedMsg:
		if msg.ok {
			m.statusMsg = "Client deleted with its projects and invoices"
			m.current = nil
		} else {
			m.statusMsg = "Could not delete client"
		}
		m.mode = modeList
		return m, tea.Batch(m.Load(), changed)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func (m Model) afterWrite() (Model, tea.Cmd) {
	if m.editingID != "" && m.current != nil {
		m.mode = modeDetail
		return m, tea.Batch(m.Load(), m.loadOverview(m.current.ID), changed)
	}
	m.mode = modeList
	return m, tea.Batch(m.Load(), changed)
}

func changed() tea.Msg { return ChangedMsg{} }

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		return m.handleListKey(msg)
	case modeDetail:
		return m.handleDetailKey(msg)
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.applyFilter()
		return m, nil
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *Model) applyFilter() {
	m.visible = service.SearchClients(m.all, m.search.Value())
	if m.selectedIdx >= len(m.visible) {
		m.selectedIdx = 0
	}
}

func (m Model) selected() *model.Client {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.visible) {
		return nil
	}
	c := m.visible[m.selectedIdx]
	return &c
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.visible) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.visible)
		}
	case key.Matches(msg, m.keys.Up):
		if len(m.visible) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.visible) - 1
			}
		}
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Back):
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.applyFilter()
		}
	case key.Matches(msg, m.keys.Select):
		if c := m.selected(); c != nil {
			m.statusMsg = ""
			return m.openDetail(*c)
		}
	case key.Matches(msg, m.keys.New):
		return m.startForm(nil)
	case key.Matches(msg, m.keys.Edit):
		if c := m.selected(); c != nil {
			m.current = c
			return m.startForm(c)
		}
	case key.Matches(msg, m.keys.Delete):
		if c := m.selected(); c != nil {
			m.current = c
			return m.startConfirm()
		}
	}
	return m, nil
}

func (m Model) openDetail(c model.Client) (Model, tea.Cmd) {
	m.mode = modeDetail
	m.current = &c
	m.projects = nil
	m.projectIdx = 0
	return m, m.loadOverview(c.ID)
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.current == nil {
		m.mode = modeList
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = modeList
		m.statusMsg = ""
	case key.Matches(msg, m.keys.Down):
		if len(m.projects) > 0 {
			m.projectIdx = (m.projectIdx + 1) % len(m.projects)
		}
	case key.Matches(msg, m.keys.Up):
		if len(m.projects) > 0 {
			m.projectIdx--
			if m.projectIdx < 0 {
				m.projectIdx = len(m.projects) - 1
			}
		}
	case key.Matches(msg, m.keys.Select):
		if m.projectIdx < len(m.projects) {
			id := m.projects[m.projectIdx].ID
			return m, func() tea.Msg { return OpenProjectMsg{ProjectID: id} }
		}
	case key.Matches(msg, m.keys.Add):
		id := m.current.ID
		return m, func() tea.Msg { return NewProjectMsg{ClientID: id} }
	case key.Matches(msg, m.keys.OpenMap):
		if link, ok := m.current.MapURL(); ok {
			m.statusMsg = "Map: " + link
		} else {
			m.statusMsg = "No location on file"
		}
	case key.Matches(msg, m.keys.Edit):
		return m.startForm(m.current)
	case key.Matches(msg, m.keys.Delete):
		return m.startConfirm()
	}
	return m, nil
}

func (m Model) startForm(c *model.Client) (Model, tea.Cmd) {
	*m.fb = formBindings{}
	m.editingID = ""
	if c != nil {
		m.editingID = c.ID
		m.fb.name = c.Name
		m.fb.email = c.Email
		m.fb.phone = c.Phone
		m.fb.address = c.Address
		m.fb.location = c.Location.String()
		m.fb.logo = c.LogoURL
	}
	m.form = m.buildForm()
	m.mode = modeForm
	return m, m.form.Init()
}

func (m Model) startConfirm() (Model, tea.Cmd) {
	m.fb.confirm = false
	m.confirmForm = m.buildConfirmForm()
	m.mode = modeConfirmDelete
	return m, m.confirmForm.Init()
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Email").
				Placeholder("name@example.com").
				Value(&m.fb.email).
				Validate(func(s string) error {
					_, err := service.NormalizeEmail(s)
					return err
				}),
			huh.NewInput().
				Title("Phone").
				Placeholder("+34 600 123 456").
				Value(&m.fb.phone).
				Validate(func(s string) error {
					_, err := service.NormalizePhone(s)
					return err
				}),
			huh.NewInput().
				Title("Address").
				Value(&m.fb.address),
			huh.NewInput().
				Title("Location").
				Description("lat,lng (optional)").
				Placeholder("40.4168,-3.7038").
				Value(&m.fb.location).
				Validate(func(s string) error {
					_, err := model.ParseGeoPoint(s)
					return err
				}),
			huh.NewInput().
				Title("Logo").
				Description("Image file path or URL (optional)").
				Value(&m.fb.logo),
		),
	).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

func (m Model) buildConfirmForm() *huh.Form {
	name := ""
	if m.current != nil {
		name = m.current.Name
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete client %q?", name)).
				Description("Its projects and their invoices are deleted too.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

func (m Model) returnMode() mode {
	if m.current != nil && m.editingID != "" {
		return modeDetail
	}
	return modeList
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		m.mode = modeSaving
		m.form = nil
		return m, m.saveClient()
	case huh.StateAborted:
		m.mode = m.returnMode()
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		if m.fb.confirm && m.current != nil {
			m.mode = modeSaving
			m.confirmForm = nil
			return m, m.deleteClient(m.current.ID)
		}
		m.mode = modeList
		return m, nil
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	if m.searching {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the screen.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return ui.Screen(m.width, m.height, m.form.View())
	case modeConfirmDelete:
		return ui.Screen(m.width, m.height, m.confirmForm.View())
	case modeSaving:
		return ui.Screen(m.width, m.height, theme.DimmedStyle.Render("Saving…"))
	case modeDetail:
		return ui.Screen(m.width, m.height, m.viewDetail())
	default:
		return ui.Screen(m.width, m.height, m.viewList())
	}
}

func (m Model) viewList() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Clients"))
	b.WriteString("\n")

	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n\n")
	}

	switch {
	case len(m.all) == 0:
		b.WriteString(theme.EmptyStyle.Render("No clients yet. Press 'n' to add one."))
	case len(m.visible) == 0:
		b.WriteString(theme.EmptyStyle.Render("No client matches the search."))
	default:
		for i, c := range m.visible {
			label := c.Name
			if c.Email != "" {
				label += theme.DimmedStyle.Render("  " + c.Email)
			}
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	m.writeStatus(&b)
	b.WriteString("\n\n")
	b.WriteString(theme.DimmedStyle.Render("enter open | / search | n new | e edit | d delete"))
	return b.String()
}

func (m Model) viewDetail() string {
	var b strings.Builder
	c := m.current
	if c == nil {
		return ""
	}

	b.WriteString(theme.TitleStyle.Render(c.Name))
	b.WriteString("\n")
	b.WriteString(ui.Field("Email", c.Email))
	b.WriteString(ui.Field("Phone", c.FormattedPhone()))
	b.WriteString(ui.Field("Address", c.Address))
	b.WriteString(ui.Field("Location", c.Location.String()))
	b.WriteString(ui.Field("Logo", c.LogoURL))

	b.WriteString("\n")
	b.WriteString(theme.TitleStyle.Render(fmt.Sprintf("Projects (%d)", len(m.projects))))
	b.WriteString("\n")
	if len(m.projects) == 0 {
		b.WriteString(theme.EmptyStyle.Render("No projects. Press 'a' to add one."))
		b.WriteString("\n")
	}
	barWidth := m.width / 4
	for i, p := range m.projects {
		line := fmt.Sprintf("%-28s %s %s",
			ui.Truncate(p.Title, 28),
			ui.ProgressBar(p.Status, barWidth),
			theme.ProjectStatusStyle(p.Status).Render(p.Status),
		)
		if i == m.projectIdx {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	m.writeStatus(&b)
	b.WriteString("\n\n")
	b.WriteString(theme.DimmedStyle.Render("enter open project | a add project | m map | e edit | d delete | esc back"))
	return b.String()
}

func (m Model) writeStatus(b *strings.Builder) {
	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.NoticeStyle.Render(m.statusMsg))
	}
}

func (m Model) loadOverview(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		c, projects := svc.ClientOverview(context.Background(), id)
		return overviewLoadedMsg{client: c, projects: projects}
	}
}

func (m Model) saveClient() tea.Cmd {
	svc := m.svc
	fb := *m.fb
	id := m.editingID
	return func() tea.Msg {
		// The form validated the location already.
		loc, _ := model.ParseGeoPoint(fb.location)
		in := service.ClientInput{
			Name:     fb.name,
			Email:    fb.email,
			Phone:    fb.phone,
			Address:  fb.address,
			Location: loc,
			Logo:     strings.TrimSpace(fb.logo),
		}
		ctx := context.Background()
		if id == "" {
			return savedMsg{ok: svc.CreateClient(ctx, in)}
		}
		return savedMsg{ok: svc.UpdateClient(ctx, id, in)}
	}
}

func (m Model) deleteClient(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return deletedMsg{ok: svc.DeleteClient(context.Background(), id)}
	}
}
