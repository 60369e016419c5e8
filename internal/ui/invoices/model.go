package invoices

import (
	"context"
	"fmt"
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

// OpenProjectMsg asks the parent to show the project an invoice bills.
type OpenProjectMsg struct{ ProjectID string }

// ChangedMsg signals that invoices were modified.
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
	projectID string
	number    string
	amount    string
	date      string
	status    string
	confirm   bool
}

type invoicesLoadedMsg struct {
	invoices []model.Invoice
	projects []model.Project
}

type invoiceLoadedMsg struct{ invoice *model.Invoice }
type savedMsg struct{ ok bool }
type deletedMsg struct{ ok bool }

// Model is the invoices screen.
type Model struct {
	mode   mode
	svc    *service.Service
	keys   *keys.KeyMap
	width  int
	height int

	invoices      []model.Invoice
	projects      []model.Project
	projectTitles map[string]string
	selectedIdx   int

	current     *model.Invoice
	editingID   string
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
}

// New creates the invoices screen.
func New(svc *service.Service, k *keys.KeyMap, width, height int) Model {
	return Model{
		svc:           svc,
		keys:          k,
		fb:            &formBindings{},
		projectTitles: map[string]string{},
		width:         width, height: height,
	}
}

// Load refreshes the invoice list and the project titles shown beside it.
func (m Model) Load() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx := context.Background()
		return invoicesLoadedMsg{
			invoices: svc.ListInvoices(ctx),
			projects: svc.ListProjects(ctx),
		}
	}
}

// Reload refreshes whatever the screen currently shows.
func (m Model) Reload() tea.Cmd {
	if m.mode == modeDetail && m.current != nil {
		return tea.Batch(m.Load(), m.loadInvoice(m.current.ID))
	}
	return m.Load()
}

// Open shows one invoice.
func (m Model) Open(id string) (Model, tea.Cmd) {
	m.mode = modeDetail
	m.statusMsg = ""
	m.current = &model.Invoice{ID: id}
	return m, m.loadInvoice(id)
}

// StartCreate opens an empty invoice form billing projectID, which may be
// blank to let the user pick.
func (m Model) StartCreate(projectID string) (Model, tea.Cmd) {
	m.current = nil
	return m.startForm(nil, projectID)
}

// Capturing reports whether keystrokes belong to a form.
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
	case invoicesLoadedMsg:
		m.invoices = msg.invoices
		m.projects = msg.projects
		m.projectTitles = make(map[string]string, len(msg.projects))
		for _, p := range msg.projects {
			m.projectTitles[p.ID] = p.Title
		}
		if m.selectedIdx >= len(m.invoices) {
			m.selectedIdx = 0
		}
		return m, nil

	case invoiceLoadedMsg:
		if msg.invoice == nil {
			m.statusMsg = "Invoice not found"
			m.mode = modeList
			m.current = nil
			return m, nil
		}
		m.current = msg.invoice
		return m, nil

	case savedMsg:
		if msg.ok {
			m.statusMsg = "Invoice saved"
		} else {
			m.statusMsg = "Could not save invoice"
		}
		if m.returnMode() == modeDetail {
			m.mode = modeDetail
			return m, tea.Batch(m.Load(), m.loadInvoice(m.current.ID), changed)
		}
		m.mode = modeList
		return m, tea.Batch(m.Load(), changed)

	case deletedMsg:
		if msg.ok {
			m.statusMsg = "Invoice deleted"
			m.current = nil
		} else {
			m.statusMsg = "Could not delete invoice"
		}
		m.mode = modeList
		return m, tea.Batch(m.Load(), changed)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func changed() tea.Msg { return ChangedMsg{} }

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

func (m Model) selected() *model.Invoice {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.invoices) {
		return nil
	}
	inv := m.invoices[m.selectedIdx]
	return &inv
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.invoices) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.invoices)
		}
	case key.Matches(msg, m.keys.Up):
		if len(m.invoices) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.invoices) - 1
			}
		}
	case key.Matches(msg, m.keys.Select):
		if inv := m.selected(); inv != nil {
			return m.Open(inv.ID)
		}
	case key.Matches(msg, m.keys.New):
		return m.StartCreate("")
	case key.Matches(msg, m.keys.Edit):
		if inv := m.selected(); inv != nil {
			m.current = inv
			return m.startForm(inv, inv.ProjectID)
		}
	case key.Matches(msg, m.keys.Delete):
		if inv := m.selected(); inv != nil {
			m.current = inv
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
	case key.Matches(msg, m.keys.Select):
		id := m.current.ProjectID
		return m, func() tea.Msg { return OpenProjectMsg{ProjectID: id} }
	case key.Matches(msg, m.keys.Edit):
		return m.startForm(m.current, m.current.ProjectID)
	case key.Matches(msg, m.keys.Delete):
		return m.startConfirm()
	}
	return m, nil
}

func (m Model) startForm(inv *model.Invoice, projectID string) (Model, tea.Cmd) {
	*m.fb = formBindings{projectID: projectID, status: model.InvoiceStatusPending}
	m.editingID = ""
	if inv != nil {
		m.editingID = inv.ID
		m.fb.number = inv.Number
		m.fb.amount = strconv.FormatFloat(inv.Amount, 'f', -1, 64)
		m.fb.date = inv.Date
		m.fb.status = model.NormalizeInvoiceStatus(inv.Status)
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

func (m Model) projectOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(m.projects)+1)
	found := false
	for _, p := range m.projects {
		opts = append(opts, huh.NewOption(p.Title, p.ID))
		if p.ID == m.fb.projectID {
			found = true
		}
	}
	if !found && m.fb.projectID != "" {
		opts = append(opts, huh.NewOption("Project "+m.fb.projectID, m.fb.projectID))
	}
	return opts
}

func (m Model) buildForm() *huh.Form {
	statusOpts := make([]huh.Option[string], 0, len(model.InvoiceStatuses))
	for _, s := range model.InvoiceStatuses {
		statusOpts = append(statusOpts, huh.NewOption(s, s))
	}

	fields := []huh.Field{}
	if m.editingID == "" {
		fields = append(fields,
			huh.NewSelect[string]().
				Title("Project").
				Options(m.projectOptions()...).
				Value(&m.fb.projectID).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("a project is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Number").
				Description("Leave blank to generate one").
				Placeholder("INV-…").
				Value(&m.fb.number),
		)
	}
	fields = append(fields,
		huh.NewInput().
			Title("Amount").
			Value(&m.fb.amount).
			Validate(func(s string) error {
				_, err := service.ParseAmount(s)
				return err
			}),
		huh.NewInput().
			Title("Date").
			Description("Leave blank for today").
			Placeholder("2006-01-02").
			Value(&m.fb.date),
		huh.NewSelect[string]().
			Title("Status").
			Options(statusOpts...).
			Value(&m.fb.status),
	)

	return huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(ui.FormWidth(m.width)).
		WithHeight(ui.FormHeight(m.height))
}

func (m Model) buildConfirmForm() *huh.Form {
	number := ""
	if m.current != nil {
		number = m.current.Number
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete invoice %s?", number)).
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
		return m, m.saveInvoice()
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
			return m, m.deleteInvoice(m.current.ID)
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
	b.WriteString(theme.TitleStyle.Render("Invoices"))
	b.WriteString("\n")

	if len(m.invoices) == 0 {
		b.WriteString(theme.EmptyStyle.Render("No invoices yet. Press 'n' to create one."))
	}
	for i, inv := range m.invoices {
		line := fmt.Sprintf("%-14s %-24s %12s  %-10s %s",
			inv.Number,
			ui.Truncate(m.projectTitles[inv.ProjectID], 24),
			ui.Money(inv.Amount),
			inv.Date,
			theme.InvoiceStatusStyle(inv.Status).Render(inv.Status),
		)
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.NoticeStyle.Render(m.statusMsg))
	}
	b.WriteString("\n\n")
	b.WriteString(theme.DimmedStyle.Render("enter open | n new | e edit | d delete"))
	return b.String()
}

func (m Model) viewDetail() string {
	inv := m.current
	if inv == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Invoice " + inv.Number))
	b.WriteString("\n")
	b.WriteString(ui.Field("Project", m.projectTitles[inv.ProjectID]))
	b.WriteString(ui.Field("Amount", ui.Money(inv.Amount)))
	b.WriteString(ui.Field("Date", inv.Date))
	b.WriteString(ui.Field("Status", theme.InvoiceStatusStyle(inv.Status).Render(inv.Status)))

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.NoticeStyle.Render(m.statusMsg))
	}
	b.WriteString("\n\n")
	b.WriteString(theme.DimmedStyle.Render("enter open project | e edit | d delete | esc back"))
	return b.String()
}

func (m Model) loadInvoice(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return invoiceLoadedMsg{invoice: svc.GetInvoice(context.Background(), id)}
	}
}

func (m Model) saveInvoice() tea.Cmd {
	svc := m.svc
	fb := *m.fb
	id := m.editingID
	return func() tea.Msg {
		in := service.InvoiceInput{
			ProjectID: fb.projectID,
			Number:    fb.number,
			Amount:    fb.amount,
			Date:      fb.date,
			Status:    fb.status,
		}
		ctx := context.Background()
		if id == "" {
			return savedMsg{ok: svc.CreateInvoice(ctx, in)}
		}
		return savedMsg{ok: svc.UpdateInvoice(ctx, id, in)}
	}
}

func (m Model) deleteInvoice(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return deletedMsg{ok: svc.DeleteInvoice(context.Background(), id)}
	}
}
