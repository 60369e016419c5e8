package projects

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/workpad/internal/keys"
	"github.com/nhle/workpad/internal/model"
	"github.com/nhle/workpad/internal/service"
	"github.com/nhle/workpad/internal/theme"
	"github.com/nhle/workpad/internal/ui"
)

// OpenInvoiceMsg asks the parent to show an invoice's detail.
type OpenInvoiceMsg struct{ InvoiceID string }

// NewInvoiceMsg asks the parent to open the invoice form for a project.
type NewInvoiceMsg struct{ ProjectID string }

// ChangedMsg signals that projects or their invoices were modified.
type ChangedMsg struct{}

// CascadeQueuedMsg reports that a completed project's invoices were left
// in the outbox for a later replay.
type CascadeQueuedMsg struct{ ProjectID string }

type mode int

const (
	modeList mode = iota
	modeDetail
	modeForm
	modeConfirmDelete
	modeSaving
)

type formBindings struct {
	clientID    string
	title       string
	description string
	price       string
	deadline    string
	status      string
	confirm     bool
}

type projectsLoadedMsg struct {
	projects []model.Project
	clients  []model.Client
}

type overviewLoadedMsg struct {
	project  *model.Project
	invoices []model.Invoice
}

type savedMsg struct {
	projectID string
	created   bool
	update    service.ProjectUpdate
}

type paidMsg struct{ ok bool }
type deletedMsg struct{ ok bool }

// Model is the projects screen.
type Model struct {
	mode   mode
	svc    *service.Service
	keys   *keys.KeyMap
	width  int
	height int

	projects    []model.Project
	clientNames map[string]string
	clients     []model.Client
	selectedIdx int

	current    *model.Project
	invoices   []model.Invoice
	invoiceIdx int

	editingID   string
	afterSave   mode
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
}

// New creates the projects screen.
func New(svc *service.Service, k *keys.KeyMap, width, height int) Model {
	return Model{
		svc:         svc,
		keys:        k,
		fb:          &formBindings{},
		clientNames: map[string]string{},
		width:       width, height: height,
	}
}

// Load refreshes the project list and the client names shown beside it.
func (m Model) Load() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx := context.Background()
		return projectsLoadedMsg{
			projects: svc.ListProjects(ctx),
			clients:  svc.ListClients(ctx),
		}
	}
}

// Reload refreshes whatever the screen currently shows.
func (m Model) Reload() tea.Cmd {
	if m.mode == modeDetail && m.current != nil {
		return tea.Batch(m.Load(), m.loadOverview(m.current.ID))
	}
	return m.Load()
}

// Open shows the detail of one project.
func (m Model) Open(id string) (Model, tea.Cmd) {
	m.mode = modeDetail
	m.statusMsg = ""
	m.current = &model.Project{ID: id}
	m.invoices = nil
	m.invoiceIdx = 0
	return m, m.loadOverview(id)
}

// StartCreate opens an empty project form owned by clientID, which may be
// blank to let the user pick.
func (m Model) StartCreate(clientID string) (Model, tea.Cmd) {
	m.current = nil
	return m.startForm(nil, clientID)
}

// Capturing reports whether keystrokes belong to a form or a pending
// save.
func (m Model) Capturing() bool {
	return m.mode == modeForm || m.mode == modeConfirmDelete || m.mode == modeSaving
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case projectsLoadedMsg:
		m.projects = msg.projects
		m.clients = msg.clients
		m.clientNames = make(map[string]string, len(msg.clients))
		for _, c := range msg.clients {
			m.clientNames[c.ID] = c.Name
		}
		if m.selectedIdx >= len(m.projects) {
			m.selectedIdx = 0
		}
		return m, nil

	case overviewLoadedMsg:
		if msg.project == nil {
			m.statusMsg = "Project not found"
			m.mode = modeList
			m.current = nil
			return m, nil
		}
		m.current = msg.project
		m.invoices = msg.invoices
		if m.invoiceIdx >= len(m.invoices) {
			m.invoiceIdx = 0
		}
		return m, nil

	case savedMsg:
		m.statusMsg = describeUpdate(msg.update)
		cmds := []tea.Cmd{m.Load(), changed}
		if msg.update.Cascade == service.CascadeQueued {
			id := msg.projectID
			cmds = append(cmds, func() tea.Msg { return CascadeQueuedMsg{ProjectID: id} })
		}
		inDetail := m.mode == modeDetail || (m.mode == modeSaving && m.afterSave == modeDetail)
		if msg.created || m.current == nil || !inDetail {
			m.mode = modeList
			return m, tea.Batch(cmds...)
		}
		m.mode = modeDetail
		return m, tea.Batch(append(cmds, m.loadOverview(m.current.ID))...)

	case paidMsg:
		if msg.ok {
			m.statusMsg = "All invoices marked Paid"
		} else {
			m.statusMsg = "Could not mark invoices paid"
		}
		if m.current == nil {
			return m, changed
		}
		return m, tea.Batch(m.loadOverview(m.current.ID), changed)

	case deletedMsg:
		if msg.ok {
			m.statusMsg = "Project deleted with its invoices"
			m.current = nil
		} else {
			m.statusMsg = "Could not delete project"
		}
		m.mode = modeList
		return m, tea.Batch(m.Load(), changed)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func changed() tea.Msg { return ChangedMsg{} }

// describeUpdate turns a save result into the line shown to the user.
func describeUpdate(u service.ProjectUpdate) string {
	if !u.Saved {
		return "Could not save project"
	}
	switch u.Cascade {
	case service.CascadeApplied:
		return "Project completed, invoices marked Paid"
	case service.CascadeQueued:
		return "Project completed, invoice update queued for retry"
	case service.CascadeFailed:
		return "Project completed, but its invoices could not be marked Paid"
	default:
		return "Project saved"
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
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

func (m Model) selected() *model.Project {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.projects) {
		return nil
	}
	p := m.projects[m.selectedIdx]
	return &p
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.projects) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.projects)
		}
	case key.Matches(msg, m.keys.Up):
		if len(m.projects) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.projects) - 1
			}
		}
	case key.Matches(msg, m.keys.Select):
		if p := m.selected(); p != nil {
			return m.Open(p.ID)
		}
	case key.Matches(msg, m.keys.New):
		return m.StartCreate("")
	case key.Matches(msg, m.keys.Edit):
		if p := m.selected(); p != nil {
			m.current = p
			return m.startForm(p, p.ClientID)
		}
	case key.Matches(msg, m.keys.Advance):
		if p := m.selected(); p != nil {
			return m, m.setStatus(p.ID, nextStatus(p.Status))
		}
	case key.Matches(msg, m.keys.Delete):
		if p := m.selected(); p != nil {
			m.current = p
			return m.startConfirm()
		}
	}
	return m, nil
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
		if len(m.invoices) > 0 {
			m.invoiceIdx = (m.invoiceIdx + 1) % len(m.invoices)
		}
	case key.Matches(msg, m.keys.Up):
		if len(m.invoices) > 0 {
			m.invoiceIdx--
			if m.invoiceIdx < 0 {
				m.invoiceIdx = len(m.invoices) - 1
			}
		}
	case key.Matches(msg, m.keys.Select):
		if m.invoiceIdx < len(m.invoices) {
			id := m.invoices[m.invoiceIdx].ID
			return m, func() tea.Msg { return OpenInvoiceMsg{InvoiceID: id} }
		}
	case key.Matches(msg, m.keys.Add):
		id := m.current.ID
		return m, func() tea.Msg { return NewInvoiceMsg{ProjectID: id} }
	case key.Matches(msg, m.keys.Advance):
		return m, m.setStatus(m.current.ID, nextStatus(m.current.Status))
	case key.Matches(msg, m.keys.PayAll):
		return m, m.markPaid(m.current.ID)
	case key.Matches(msg, m.keys.Edit):
		return m.startForm(m.current, m.current.ClientID)
	case key.Matches(msg, m.keys.Delete):
		return m.startConfirm()
	}
	return m, nil
}

// nextStatus cycles Pending, In Progress, Completed and back to Pending.
func nextStatus(status string) string {
	for i, s := range model.ProjectStatuses {
		if s == status {
			return model.ProjectStatuses[(i+1)%len(model.ProjectStatuses)]
		}
	}
	return model.ProjectStatusInProgress
}

func (m Model) startForm(p *model.Project, clientID string) (Model, tea.Cmd) {
	*m.fb = formBindings{clientID: clientID, status: model.ProjectStatusPending}
	m.editingID = ""
	if p != nil {
		m.editingID = p.ID
		m.fb.title = p.Title
		m.fb.description = p.Description
		m.fb.price = strconv.FormatFloat(p.Price, 'f', -1, 64)
		m.fb.deadline = p.Deadline
		m.fb.status = model.NormalizeProjectStatus(p.Status)
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

func (m Model) clientOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(m.clients)+1)
	found := false
	for _, c := range m.clients {
		opts = append(opts, huh.NewOption(c.Name, c.ID))
		if c.ID == m.fb.clientID {
			found = true
		}
	}
	if !found && m.fb.clientID != "" {
		opts = append(opts, huh.NewOption("Client "+m.fb.clientID, m.fb.clientID))
	}
	return opts
}

func (m Model) buildForm() *huh.Form {
	statusOpts := make([]huh.Option[string], 0, len(model.ProjectStatuses))
	for _, s := range model.ProjectStatuses {
		statusOpts = append(statusOpts, huh.NewOption(s, s))
	}

	fields := []huh.Field{}
	if m.editingID == "" {
		fields = append(fields,
			huh.NewSelect[string]().
				Title("Client").
				Options(m.clientOptions()...).
				Value(&m.fb.clientID).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("a client is required")
					}
					return nil
				}),
		)
	}
	fields = append(fields,
		huh.NewInput().
			Title("Title").
			Value(&m.fb.title).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("title is required")
				}
				return nil
			}),
		huh.NewText().
			Title("Description").
			Value(&m.fb.description),
		huh.NewInput().
			Title("Price").
			Placeholder("0").
			Value(&m.fb.price).
			Validate(func(s string) error {
				if math.IsNaN(service.ParsePrice(s)) {
					return fmt.Errorf("price must be a number")
				}
				return nil
			}),
		huh.NewInput().
			Title("Deadline").
			Placeholder("2025-12-31").
			Value(&m.fb.deadline),
		huh.NewSelect[string]().
			Title("Status").
			Description("Completing a project marks all its invoices Paid.").
			Options(statusOpts...).
			Value(&m.fb.status),
	)

	return huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(ui.FormWidth(m.width)).
		WithHeight(ui.FormHeight(m.height))
}

func (m Model) buildConfirmForm() *huh.Form {
	title := ""
	if m.current != nil {
		title = m.current.Title
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete project %q?", title)).
				Description("Its invoices are deleted too.").
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
		m.afterSave = m.returnMode()
		m.mode = modeSaving
		m.form = nil
		return m, m.saveProject()
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
			return m, m.deleteProject(m.current.ID)
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
	b.WriteString(theme.TitleStyle.Render("Projects"))
	b.WriteString("\n")

	if len(m.projects) == 0 {
		b.WriteString(theme.EmptyStyle.Render("No projects yet. Press 'n' to create one."))
	}
	barWidth := m.width / 5
	for i, p := range m.projects {
		line := fmt.Sprintf("%-26s %-18s %s",
			ui.Truncate(p.Title, 26),
			ui.Truncate(m.clientNames[p.ClientID], 18),
			ui.ProgressBar(p.Status, barWidth),
		)
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	m.writeStatus(&b)
	b.WriteString("\n\n")
	b.WriteString(theme.DimmedStyle.Render("enter open | n new | e edit | s advance status | d delete"))
	return b.String()
}

func (m Model) viewDetail() string {
	var b strings.Builder
	p := m.current
	if p == nil {
		return ""
	}

	b.WriteString(theme.TitleStyle.Render(p.Title))
	b.WriteString("\n")
	b.WriteString(ui.Field("Client", m.clientNames[p.ClientID]))
	b.WriteString(ui.Field("Status", theme.ProjectStatusStyle(p.Status).Render(p.Status)))
	b.WriteString(ui.Field("Progress", ui.ProgressBar(p.Status, m.width/3)))
	b.WriteString(ui.Field("Price", ui.Money(p.Price)))
	b.WriteString(ui.Field("Deadline", p.Deadline))
	b.WriteString(ui.Field("Description", p.Description))

	b.WriteString("\n")
	b.WriteString(theme.TitleStyle.Render(fmt.Sprintf("Invoices (%d)", len(m.invoices))))
	b.WriteString("\n")
	if len(m.invoices) == 0 {
		b.WriteString(theme.EmptyStyle.Render("No invoices. Press 'a' to add one."))
		b.WriteString("\n")
	}
	for i, inv := range m.invoices {
		line := fmt.Sprintf("%-14s %12s  %-10s %s",
			inv.Number, ui.Money(inv.Amount), inv.Date,
			theme.InvoiceStatusStyle(inv.Status).Render(inv.Status),
		)
		if i == m.invoiceIdx {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	m.writeStatus(&b)
	b.WriteString("\n\n")
	b.WriteString(theme.DimmedStyle.Render(
		"enter open invoice | a add invoice | s advance status | P mark paid | e edit | d delete | esc back",
	))
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
		p, invoices := svc.ProjectOverview(context.Background(), id)
		return overviewLoadedMsg{project: p, invoices: invoices}
	}
}

func (m Model) saveProject() tea.Cmd {
	svc := m.svc
	fb := *m.fb
	id := m.editingID
	return func() tea.Msg {
		in := service.ProjectInput{
			ClientID:    fb.clientID,
			Title:       fb.title,
			Description: fb.description,
			Price:       fb.price,
			Deadline:    fb.deadline,
			Status:      fb.status,
		}
		ctx := context.Background()
		if id == "" {
			ok := svc.CreateProject(ctx, in)
			return savedMsg{created: true, update: service.ProjectUpdate{Saved: ok}}
		}
		return savedMsg{projectID: id, update: svc.UpdateProject(ctx, id, in)}
	}
}

func (m Model) setStatus(id, status string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return savedMsg{projectID: id, update: svc.SetProjectStatus(context.Background(), id, status)}
	}
}

func (m Model) markPaid(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return paidMsg{ok: svc.MarkInvoicesPaid(context.Background(), id)}
	}
}

func (m Model) deleteProject(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return deletedMsg{ok: svc.DeleteProject(context.Background(), id)}
	}
}
