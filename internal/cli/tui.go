package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/flowboardhq/flowboard/pkg/topology"
)

// nodeRow is one entry in the inspect list: a node plus the stack and
// flowline information displayed alongside it.
type nodeRow struct {
	Node  topology.Node
	Tasks []topology.Task
	In    int
	Out   int
}

// buildNodeRows assembles the inspect rows from a loaded store, sorted
// by node ID for a stable listing.
func buildNodeRows(store *topology.MemStore) []nodeRow {
	nodes := store.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	rows := make([]nodeRow, 0, len(nodes))
	for _, n := range nodes {
		tasks := store.TasksForAnchor(n.ID)
		sort.Slice(tasks, func(i, j int) bool { return tasks[i].Slot < tasks[j].Slot })

		var in, out int
		for _, fl := range store.FlowlinesTouching(n.ID) {
			if fl.Target == n.ID {
				in++
			}
			if fl.Source == n.ID {
				out++
			}
		}
		rows = append(rows, nodeRow{Node: n, Tasks: tasks, In: in, Out: out})
	}
	return rows
}

// =============================================================================
// NodeListModel - Interactive node browser
// =============================================================================

// NodeListModel is the bubbletea model for browsing a diagram's nodes
// and their task stacks.
type NodeListModel struct {
	Title    string
	Rows     []nodeRow
	Cursor   int
	Offset   int
	Height   int
	Expanded bool
}

// NewNodeListModel creates a node browser over the given rows.
func NewNodeListModel(title string, rows []nodeRow) NodeListModel {
	return NodeListModel{
		Title:  title,
		Rows:   rows,
		Height: 15,
	}
}

func (m NodeListModel) Init() tea.Cmd {
	return nil
}

func (m NodeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", " ":
			m.Expanded = !m.Expanded
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m NodeListModel) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(styleDim.Render("↑/↓ navigate  ⏎ toggle tasks  q quit"))
	b.WriteString("\n\n")

	if len(m.Rows) == 0 {
		b.WriteString(styleDim.Render("  no nodes"))
		return b.String()
	}

	end := m.Offset + m.Height
	if end > len(m.Rows) {
		end = len(m.Rows)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		label := r.Node.Label
		if label == "" {
			label = r.Node.ID
		}

		start := ""
		if r.Node.Start {
			start = "●"
		}

		rows = append(rows, []string{
			cursor,
			label,
			string(r.Node.Kind),
			start,
			fmt.Sprintf("%d", len(r.Tasks)),
			fmt.Sprintf("%d/%d", r.In, r.Out),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Kind", "Start", "Tasks", "In/Out").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			return styleValue
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	if m.Expanded {
		b.WriteString(m.taskView(m.Rows[m.Cursor]))
	}

	b.WriteString("\n")
	b.WriteString(styleDim.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}

// taskView renders the selected node's task stack in slot order.
func (m NodeListModel) taskView(r nodeRow) string {
	var b strings.Builder

	if len(r.Tasks) == 0 {
		b.WriteString(styleDim.Render("  no tasks anchored here"))
		b.WriteString("\n")
		return b.String()
	}

	for _, t := range r.Tasks {
		line := fmt.Sprintf("  slot %d  %s", t.Slot, taskSummary(t))
		switch {
		case taskCompleted(t):
			b.WriteString(styleDone.Render(line))
		case taskUrgent(t):
			b.WriteString(styleUrgent.Render(line))
		default:
			b.WriteString(styleValue.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// taskSummary returns the first tag description, or the task ID when
// none of the tags carry one.
func taskSummary(t topology.Task) string {
	for _, tag := range t.Tags {
		if tag.Description != "" {
			return tag.Description
		}
	}
	return t.ID
}

func taskCompleted(t topology.Task) bool {
	for _, tag := range t.Tags {
		if tag.Completed {
			return true
		}
	}
	return false
}

func taskUrgent(t topology.Task) bool {
	for _, tag := range t.Tags {
		if tag.Category == topology.TagCategoryUrgency && tag.Option == topology.TagUrgent {
			return true
		}
	}
	return false
}
