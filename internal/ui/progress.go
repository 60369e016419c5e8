package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/workpad/internal/model"
	"github.com/nhle/workpad/internal/theme"
)

// ProgressBar renders the completion bar for a project status followed by
// its percentage.
func ProgressBar(status string, width int) string {
	if width < 10 {
		width = 10
	}
	color := theme.ProjectStatusColor(status)
	fill := color.Light
	if lipgloss.HasDarkBackground() {
		fill = color.Dark
	}

	bar := progress.New(
		progress.WithSolidFill(fill),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	pct := model.Progress(status)
	return bar.ViewAs(float64(pct)/100) + theme.DimmedStyle.Render(fmt.Sprintf(" %3d%%", pct))
}
