package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gravitylab/gravita/pkg/engine"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// GroupListModel - Interactive group inspection
// =============================================================================

// GroupListModel is the bubbletea model for browsing the groups of a
// layout result. The left-hand cursor selects a group; the detail table
// shows the per-child metrics of the selection.
type GroupListModel struct {
	Result *engine.Result
	Cursor int
}

// NewGroupListModel creates a group list model over a layout result.
func NewGroupListModel(res *engine.Result) GroupListModel {
	return GroupListModel{Result: res}
}

func (m GroupListModel) Init() tea.Cmd {
	return nil
}

func (m GroupListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Result.Groups)-1 {
				m.Cursor++
			}
		}
	}
	return m, nil
}

func (m GroupListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Layout Groups"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  q quit"))
	b.WriteString("\n\n")

	if len(m.Result.Groups) == 0 {
		b.WriteString(listDimStyle.Render("  no groups laid out"))
		b.WriteString("\n")
		return b.String()
	}

	for i, g := range m.Result.Groups {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-20s %d children  padding %.1f", cursor, g.Parent, len(g.Children), g.PaddingTop)
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(groupTable(m.Result.Groups[m.Cursor]))
	b.WriteString("\n")

	for _, f := range m.Result.Failures {
		b.WriteString(StyleWarning.Render(fmt.Sprintf("  %s failed at step %d: %s", f.Parent, f.Step, f.Message)))
		b.WriteString("\n")
	}

	return b.String()
}

// groupTable renders the per-child metrics of one group as a bordered table.
func groupTable(g engine.GroupMetrics) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, 0, len(g.Children))
	for _, ch := range g.Children {
		clamped := ""
		if ch.Clamped {
			clamped = "yes"
		}
		align := string(ch.Align)
		if align == "" {
			align = "-"
		}
		rows = append(rows, []string{
			ch.ID,
			fmt.Sprintf("%.0fx%.0f", ch.Width, ch.Height),
			fmt.Sprintf("%.1f", ch.Force),
			fmt.Sprintf("%.1f/%.1f", ch.Margin.Top, ch.Margin.Bottom),
			align,
			clamped,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Child", "Size", "Force", "Margin T/B", "Align", "Clamped").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	return t.Render()
}
