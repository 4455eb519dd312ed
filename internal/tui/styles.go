package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("237")).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(20)

	cardLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cardValueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))

	filterStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	productiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	inactiveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	chartStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	actionStyle     = lipgloss.NewStyle().Bold(true)
	fileStyle       = lipgloss.NewStyle().Italic(true)
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	spinnerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)
