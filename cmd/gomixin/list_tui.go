package main

import (
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/huonw/external-mixin/pkg/mixin"
)

var (
	styleBase = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			Padding(0, 1)

	styleHelp = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1)

	styleDetail = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 2)
)

type listState int

const (
	stateList listState = iota
	stateDetail
)

type listModel struct {
	table table.Model
	defs  []mixin.Definition
	state listState
}

func newListModel(defs []mixin.Definition) listModel {
	columns := []table.Column{
		{Title: "NAME", Width: 18},
		{Title: "KIND", Width: 12},
		{Title: "COMMAND", Width: 48},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(definitionRows(defs)),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("99"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return listModel{table: t, defs: defs, state: stateList}
}

func definitionRows(defs []mixin.Definition) []table.Row {
	rows := make([]table.Row, len(defs))
	for i, d := range defs {
		rows[i] = table.Row{d.Name, strategyKind(d), d.Strategy.Describe()}
	}
	return rows
}

func (m listModel) Init() tea.Cmd {
	return nil
}

func (m listModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateDetail:
		return m.updateDetail(msg)
	default:
		return m.updateList(msg)
	}
}

func (m listModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if len(m.defs) > 0 {
				m.state = stateDetail
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m listModel) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc", "enter", "q":
			m.state = stateList
		}
	}
	return m, nil
}

// selected returns the definition under the cursor.
func (m listModel) selected() (mixin.Definition, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.defs) {
		return mixin.Definition{}, false
	}
	return m.defs[idx], true
}

func (m listModel) View() string {
	title := styleTitle.Render(appName + "  extensions")
	tableView := styleBase.Render(m.table.View())

	if m.state == stateDetail {
		if def, ok := m.selected(); ok {
			detail := styleDetail.Render(describeDefinition(def))
			help := styleHelp.Render("esc / enter  back    ctrl+c  quit")
			return title + "\n" + tableView + "\n" + detail + "\n" + help
		}
	}

	help := styleHelp.Render("↑/↓  navigate    enter  details    q  quit")
	if len(m.defs) == 0 {
		help = styleHelp.Render("No extensions registered.    q  quit")
	}
	return title + "\n" + tableView + "\n" + help
}
