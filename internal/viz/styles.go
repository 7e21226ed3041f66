package viz

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(42)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func Header(s string) string   { return headerStyle.Render(s) }
func Label(s string) string    { return labelStyle.Render(s) }
func Value(s string) string    { return valueStyle.Render(s) }
func Active(s string) string   { return activeStyle.Render(s) }
func Graph(s string) string    { return graphStyle.Render(s) }
func Stats(s string) string    { return statsStyle.Render(s) }
func Help(s string) string     { return helpStyle.Render(s) }
func ErrorMsg(s string) string { return errorStyle.Render(s) }
