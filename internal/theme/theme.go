package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/workpad/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#3B82F6", Light: "#1E40AF"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#10B981", Light: "#059669"}
	ColorAmber  = lipgloss.AdaptiveColor{Dark: "#F59E0B", Light: "#92400E"}
	ColorOrange = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#D97706"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#6B7280"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#111827"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E5E7EB"}
)

// HeaderStyle is used for the application title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps detail and help content.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// TitleStyle is used for screen titles.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	MarginBottom(1)

// DimmedStyle is used for secondary text.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// EmptyStyle is used for placeholder text in empty lists.
var EmptyStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// NoticeStyle is used for transient status messages.
var NoticeStyle = lipgloss.NewStyle().
	Foreground(ColorAmber).
	Italic(true)

// ErrorStyle is used for failures shown to the user.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed).
	Bold(true)

// ProjectStatusColor returns the accent color for a project status. It is
// also used to fill progress bars.
func ProjectStatusColor(status string) lipgloss.AdaptiveColor {
	switch status {
	case model.ProjectStatusCompleted:
		return ColorGreen
	case model.ProjectStatusInProgress:
		return ColorBlue
	default:
		return ColorAmber
	}
}

// ProjectStatusStyle returns a color-coded badge style for a project status.
func ProjectStatusStyle(status string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Padding(0, 1).
		Foreground(ProjectStatusColor(status))
}

// InvoiceStatusStyle returns a color-coded style for an invoice status.
func InvoiceStatusStyle(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case model.InvoiceStatusPaid:
		return base.Foreground(ColorGreen)
	case model.InvoiceStatusCancelled:
		return base.Foreground(ColorGray).Strikethrough(true)
	default:
		return base.Foreground(ColorOrange)
	}
}
