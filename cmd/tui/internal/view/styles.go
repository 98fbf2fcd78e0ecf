package view

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const viewfinderWidth = 48

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	faintStyle = lipgloss.NewStyle().Faint(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	totalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	viewfinderStyle = lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("205")).
			Width(viewfinderWidth).
			Align(lipgloss.Center)

	cardStyle = lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))
)

func itemTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	return s
}

// itemHeaderHeight is the height of the item table header, bottom border
// included. The table takes it out of the height it is given.
func itemHeaderHeight() int {
	return lipgloss.Height(itemTableStyles().Header.Render("x"))
}

// itemColumns fits the description column to width; zero keeps the default.
func itemColumns(width int) []table.Column {
	desc := 32
	if width > 0 {
		desc = min(max(width-56, 12), 32)
	}

	return []table.Column{
		{Title: "Descrição", Width: desc},
		{Title: "Qtd", Width: 8},
		{Title: "Unitário", Width: 12},
		{Title: "Total", Width: 12},
	}
}
