// Package cli holds A7 (the live call monitor dashboard) and A8 (the
// transcript renderer). The monitor is a read-only bubbletea view over the
// application's in-process CallRegistry — it never reaches into a live
// SessionMediator directly.
package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/retailvoice/callbridge/internal/application"
)

const monitorTickInterval = 500 * time.Millisecond

type tickMsg time.Time

// MonitorModel is the bubbletea model backing `callbridge serve --monitor`.
type MonitorModel struct {
	registry *application.CallRegistry

	headerStyle  lipgloss.Style
	rowStyle     lipgloss.Style
	activeStyle  lipgloss.Style
	endedStyle   lipgloss.Style
	infoStyle    lipgloss.Style
}

func NewMonitorModel(registry *application.CallRegistry) *MonitorModel {
	return &MonitorModel{
		registry:    registry,
		headerStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(true),
		rowStyle:    lipgloss.NewStyle().Padding(0, 1),
		activeStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("#2D7FFF")).Bold(true),
		endedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		infoStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (m *MonitorModel) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(monitorTickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	case tickMsg:
		return m, tick()
	}
	return m, nil
}

func (m *MonitorModel) View() string {
	calls := m.registry.Snapshot()
	sort.Slice(calls, func(i, j int) bool { return calls[i].StartedAt.After(calls[j].StartedAt) })

	var b strings.Builder
	b.WriteString(m.headerStyle.Render(fmt.Sprintf("%-24s %-14s %-20s %-12s %-8s", "CALL ID", "CALLER", "CUSTOMER", "STATE", "ELAPSED")))
	b.WriteString("\n")

	if len(calls) == 0 {
		b.WriteString(m.infoStyle.Render("no calls yet"))
		b.WriteString("\n")
	}

	for _, c := range calls {
		style := m.activeStyle
		elapsed := time.Since(c.StartedAt)
		if !c.EndedAt.IsZero() {
			style = m.endedStyle
			elapsed = c.EndedAt.Sub(c.StartedAt)
		}
		customer := c.CustomerName
		if !c.Identified {
			customer = "(unidentified)"
		}
		line := fmt.Sprintf("%-24s %-14s %-20s %-12s %-8s", c.CallID, c.CallerNumber, customer, c.State, elapsed.Round(time.Second))
		b.WriteString(m.rowStyle.Render(style.Render(line)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.infoStyle.Render("q to quit"))
	return b.String()
}

// Run blocks until the operator quits the monitor.
func Run(registry *application.CallRegistry) error {
	_, err := tea.NewProgram(NewMonitorModel(registry)).Run()
	return err
}
