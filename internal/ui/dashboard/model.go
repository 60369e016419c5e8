package dashboard

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/workpad/internal/model"
	"github.com/nhle/workpad/internal/service"
	"github.com/nhle/workpad/internal/theme"
	"github.com/nhle/workpad/internal/ui"
)

type statsLoadedMsg struct {
	stats model.Stats
}

// Model is the landing screen with record counts and revenue.
type Model struct {
	svc    *service.Service
	stats  model.Stats
	loaded bool
	width  int
	height int
}

// New creates the dashboard screen.
func New(svc *service.Service, width, height int) Model {
	return Model{svc: svc, width: width, height: height}
}

// Load fetches fresh totals.
func (m Model) Load() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return statsLoadedMsg{stats: svc.Dashboard(context.Background())}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(statsLoadedMsg); ok {
		m.stats = msg.stats
		m.loaded = true
	}
	return m, nil
}

// Stats returns the last loaded totals.
func (m Model) Stats() model.Stats {
	return m.stats
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Dashboard"))
	b.WriteString("\n")

	if !m.loaded {
		b.WriteString(theme.EmptyStyle.Render("Loading..."))
		return ui.Screen(m.width, m.height, b.String())
	}

	counts := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Clients", fmt.Sprint(m.stats.Clients), theme.ColorBlue),
		card("Projects", fmt.Sprint(m.stats.Projects), theme.ColorBlue),
		card("Invoices", fmt.Sprint(m.stats.Invoices), theme.ColorBlue),
	)
	money := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Revenue", ui.Money(m.stats.Revenue), theme.ColorWhite),
		card("Paid", ui.Money(m.stats.PaidRevenue), theme.ColorGreen),
		card("Outstanding", ui.Money(m.stats.OutstandingRevenue), theme.ColorOrange),
	)
	b.WriteString(counts)
	b.WriteString("\n")
	b.WriteString(money)
	b.WriteString("\n\n")
	b.WriteString(theme.DimmedStyle.Render("Revenue counts every invoice, cancelled ones included."))
	b.WriteString("\n\n")
	b.WriteString(theme.DimmedStyle.Render("1 clients | 2 projects | 3 invoices | r reload | ? help"))

	return ui.Screen(m.width, m.height, b.String())
}

func card(label, value string, accent lipgloss.AdaptiveColor) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		theme.DimmedStyle.Render(label),
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render(value),
	)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Padding(0, 2).
		MarginRight(1).
		Width(20).
		Render(body)
}
