package handlers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/fogprov/internal/compute"
)

var (
	listColorGreen = lipgloss.Color("#22c55e")
	listColorRed   = lipgloss.Color("#ef4444")
	listColorDim   = lipgloss.Color("#6b7280")
	listColorWhite = lipgloss.Color("#f9fafb")
)

var (
	listTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(listColorWhite)

	listDimStyle = lipgloss.NewStyle().
			Foreground(listColorDim)

	listRunningStyle = lipgloss.NewStyle().
				Foreground(listColorGreen)

	listStoppedStyle = lipgloss.NewStyle().
				Foreground(listColorRed)
)

type listRow struct {
	Node     string
	ID       string
	Status   string
	Address  string
	Recorded bool
}

// renderInstanceList produces a lipgloss-styled instance table.
func renderInstanceList(provisionerURL string, rows []listRow) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(listTitleStyle.Render("  fogprov instances: " + provisionerURL))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("  " + strings.Repeat("═", 30)))
	b.WriteString("\n\n")

	if len(rows) == 0 {
		b.WriteString(listDimStyle.Render("  No instances."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %-24s %-12s %-10s %-16s %s", "NODE", "ID", "STATUS", "ADDRESS", "RECORD")))
	b.WriteString("\n")

	for _, r := range rows {
		status := listStoppedStyle.Render(fmt.Sprintf("%-10s", r.Status))
		if r.Status == compute.StatusRunning {
			status = listRunningStyle.Render(fmt.Sprintf("%-10s", r.Status))
		}
		record := listDimStyle.Render("orphan")
		if r.Recorded {
			record = "yes"
		}
		fmt.Fprintf(&b, "  %-24s %-12s %s %-16s %s\n", r.Node, r.ID, status, r.Address, record)
	}
	return b.String()
}
