package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/workpad/internal/keys"
	"github.com/nhle/workpad/internal/service"
	appsync "github.com/nhle/workpad/internal/sync"
	"github.com/nhle/workpad/internal/ui"
	"github.com/nhle/workpad/internal/ui/clients"
	"github.com/nhle/workpad/internal/ui/dashboard"
	helpview "github.com/nhle/workpad/internal/ui/help"
	"github.com/nhle/workpad/internal/ui/invoices"
	"github.com/nhle/workpad/internal/ui/projects"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewDashboard ViewState = iota
	ViewClients
	ViewProjects
	ViewInvoices
	ViewHelp
)

// Model is the root Bubble Tea model that routes between the screens and
// reports the state of the cascade outbox.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	drainer      *appsync.Drainer
	keys         *keys.KeyMap
	dashboard    dashboard.Model
	clients      clients.Model
	projects     projects.Model
	invoices     invoices.Model
	helpView     helpview.Model
	ready        bool
	drainNotice  string
	authFailed   bool
}

// New creates the root model. The drainer may be nil when no outbox is
// available, in which case failed cascades are only reported.
func New(svc *service.Service, drainer *appsync.Drainer) Model {
	km := keys.DefaultKeyMap()
	return Model{
		currentView: ViewDashboard,
		drainer:     drainer,
		keys:        km,
		dashboard:   dashboard.New(svc, 80, 24),
		clients:     clients.New(svc, km, 80, 24),
		projects:    projects.New(svc, km, 80, 24),
		invoices:    invoices.New(svc, km, 80, 24),
		helpView:    helpview.New(km, 80, 24),
	}
}

// Init loads every screen and starts the outbox drainer.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.dashboard.Load(),
		m.clients.Load(),
		m.projects.Load(),
		m.invoices.Load(),
	}
	if m.drainer != nil {
		cmds = append(cmds, m.drainer.Start())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.dashboard.SetSize(w, h)
		m.clients.SetSize(w, h)
		m.projects.SetSize(w, h)
		m.invoices.SetSize(w, h)
		m.helpView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.DrainResultMsg:
		m.authFailed = msg.AuthFailed
		switch {
		case msg.AuthFailed:
			m.drainNotice = "API key rejected, queued cascades are on hold"
		case msg.Error != nil:
			m.drainNotice = fmt.Sprintf("outbox: %v", msg.Error)
		case msg.Replayed > 0:
			m.drainNotice = fmt.Sprintf("replayed %d queued cascade(s)", msg.Replayed)
		default:
			m.drainNotice = ""
		}
		cmds := []tea.Cmd{m.drainer.WaitForNextResult()}
		if msg.Replayed > 0 {
			cmds = append(cmds, m.reloadAll())
		}
		return m, tea.Batch(cmds...)

	case clients.OpenProjectMsg:
		m.currentView = ViewProjects
		var cmd tea.Cmd
		m.projects, cmd = m.projects.Open(msg.ProjectID)
		return m, cmd

	case clients.NewProjectMsg:
		m.currentView = ViewProjects
		var cmd tea.Cmd
		m.projects, cmd = m.projects.StartCreate(msg.ClientID)
		return m, cmd

	case projects.OpenInvoiceMsg:
		m.currentView = ViewInvoices
		var cmd tea.Cmd
		m.invoices, cmd = m.invoices.Open(msg.InvoiceID)
		return m, cmd

	case projects.NewInvoiceMsg:
		m.currentView = ViewInvoices
		var cmd tea.Cmd
		m.invoices, cmd = m.invoices.StartCreate(msg.ProjectID)
		return m, cmd

	case invoices.OpenProjectMsg:
		m.currentView = ViewProjects
		var cmd tea.Cmd
		m.projects, cmd = m.projects.Open(msg.ProjectID)
		return m, cmd

	case projects.CascadeQueuedMsg:
		if m.drainer == nil {
			return m, nil
		}
		return m, m.refreshOutbox()

	case outboxRefreshedMsg:
		return m, nil

	// A change on one screen can stale the others: deleting a client
	// removes projects and invoices, completing a project pays invoices.
	case clients.ChangedMsg, projects.ChangedMsg, invoices.ChangedMsg:
		return m, m.reloadOthers()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.stop()
			return m, tea.Quit
		}
		if !m.capturing() {
			if next, cmd, handled := m.handleGlobalKey(msg); handled {
				return next, cmd
			}
		}
	}

	return m.updateActiveView(msg)
}

func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stop()
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case m.currentView == ViewHelp && key.Matches(msg, m.keys.Back):
		m.currentView = m.previousView
		return m, nil, true

	case key.Matches(msg, m.keys.Dashboard):
		m.currentView = ViewDashboard
		return m, m.dashboard.Load(), true

	case key.Matches(msg, m.keys.Clients):
		m.currentView = ViewClients
		return m, nil, true

	case key.Matches(msg, m.keys.Projects):
		m.currentView = ViewProjects
		return m, nil, true

	case key.Matches(msg, m.keys.Invoices):
		m.currentView = ViewInvoices
		return m, nil, true

	case key.Matches(msg, m.keys.Refresh):
		return m, m.reloadAll(), true

	case key.Matches(msg, m.keys.DrainNow):
		if m.drainer == nil {
			return m, nil, true
		}
		m.drainNotice = "replaying queued cascades..."
		return m, m.drainer.Trigger(), true
	}
	return m, nil, false
}

// outboxRefreshedMsg re-renders the header once the queue was recounted.
type outboxRefreshedMsg struct{}

// refreshOutbox recounts the queue for the header and asks the drainer for
// an early retry.
func (m Model) refreshOutbox() tea.Cmd {
	d := m.drainer
	return func() tea.Msg {
		_ = d.Refresh(context.Background())
		d.Trigger()
		return outboxRefreshedMsg{}
	}
}

func (m Model) capturing() bool {
	switch m.currentView {
	case ViewClients:
		return m.clients.Capturing()
	case ViewProjects:
		return m.projects.Capturing()
	case ViewInvoices:
		return m.invoices.Capturing()
	}
	return false
}

func (m Model) stop() {
	if m.drainer != nil {
		m.drainer.Stop()
	}
}

func (m Model) reloadAll() tea.Cmd {
	return tea.Batch(
		m.dashboard.Load(),
		m.clients.Reload(),
		m.projects.Reload(),
		m.invoices.Reload(),
	)
}

// reloadOthers refreshes the screens that are not in front; the active
// one already reloaded itself.
func (m Model) reloadOthers() tea.Cmd {
	cmds := []tea.Cmd{m.dashboard.Load()}
	if m.currentView != ViewClients {
		cmds = append(cmds, m.clients.Reload())
	}
	if m.currentView != ViewProjects {
		cmds = append(cmds, m.projects.Reload())
	}
	if m.currentView != ViewInvoices {
		cmds = append(cmds, m.invoices.Reload())
	}
	return tea.Batch(cmds...)
}

// updateActiveView routes msg to the screen in front. Load results are
// delivered to every screen since they may arrive after a switch.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); !ok {
		var c1, c2, c3, c4 tea.Cmd
		m.dashboard, c1 = m.dashboard.Update(msg)
		m.clients, c2 = m.clients.Update(msg)
		m.projects, c3 = m.projects.Update(msg)
		m.invoices, c4 = m.invoices.Update(msg)
		return m, tea.Batch(c1, c2, c3, c4)
	}

	var cmd tea.Cmd
	switch m.currentView {
	case ViewDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case ViewClients:
		m.clients, cmd = m.clients.Update(msg)
	case ViewProjects:
		m.projects, cmd = m.projects.Update(msg)
	case ViewInvoices:
		m.invoices, cmd = m.invoices.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}
	return m, cmd
}

// View renders the frame around the active screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("WorkPad · "+m.viewTitle(), m.outboxStatus())
	statusBar := m.layout.RenderStatusBar(m.keyHints())
	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

func (m Model) viewTitle() string {
	switch m.currentView {
	case ViewClients:
		return "Clients"
	case ViewProjects:
		return "Projects"
	case ViewInvoices:
		return "Invoices"
	case ViewHelp:
		return "Help"
	default:
		return "Dashboard"
	}
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewClients:
		return m.clients.View()
	case ViewProjects:
		return m.projects.View()
	case ViewInvoices:
		return m.invoices.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return m.dashboard.View()
	}
}

func (m Model) outboxStatus() string {
	if m.drainer == nil {
		return "outbox off"
	}
	st := m.drainer.Status()
	switch {
	case st.State == appsync.DrainRunning:
		return "replaying"
	case m.authFailed:
		return "auth failed"
	case st.Pending > 0:
		return fmt.Sprintf("%d queued", st.Pending)
	case st.State == appsync.DrainError:
		return "outbox error"
	default:
		return "in sync"
	}
}

func (m Model) keyHints() string {
	if m.drainNotice != "" {
		return m.drainNotice
	}
	if m.capturing() {
		return "enter submit | esc cancel"
	}
	if m.currentView == ViewHelp {
		return "? close help | esc back"
	}
	return "q quit | ? help | 0 dashboard | 1 clients | 2 projects | 3 invoices | r reload | R replay"
}
