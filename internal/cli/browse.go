package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/magflat/pkg/layout"
)

// detailRects is how many rectangles the detail pane lists.
const detailRects = 12

var (
	browseSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	browseDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	browsePaneStyle     = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1).
				MarginLeft(2)
)

func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <file.mag>",
		Short: "Browse the layers of a flattened cell interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, _, err := c.flatten(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(f.Cell.Layers()) == 0 {
				printInfo("%s has no layers", f.Cell.Name)
				return nil
			}
			p := tea.NewProgram(NewLayerBrowser(f.Cell), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}

// LayerBrowser is the bubbletea model of the browse command: a scrolling
// layer list with a detail pane for the layer under the cursor.
type LayerBrowser struct {
	Cell   *layout.Cell
	Layers []string
	Cursor int
	Offset int
	Height int
}

// NewLayerBrowser creates a browser over the layers of cell.
func NewLayerBrowser(cell *layout.Cell) LayerBrowser {
	return LayerBrowser{Cell: cell, Layers: cell.Layers(), Height: 15}
}

// Selected returns the layer under the cursor.
func (m LayerBrowser) Selected() string {
	if len(m.Layers) == 0 {
		return ""
	}
	return m.Layers[m.Cursor]
}

func (m LayerBrowser) Init() tea.Cmd {
	return nil
}

func (m LayerBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.Height)
		case "pgdown":
			m.move(m.Height)
		case "home", "g":
			m.move(-len(m.Layers))
		case "end", "G":
			m.move(len(m.Layers))
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		m.move(0)
	}
	return m, nil
}

// move shifts the cursor by delta, clamped to the list, and scrolls so the
// cursor stays visible.
func (m *LayerBrowser) move(delta int) {
	if len(m.Layers) == 0 {
		return
	}
	m.Cursor = min(max(m.Cursor+delta, 0), len(m.Layers)-1)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m LayerBrowser) View() string {
	var b strings.Builder

	title := m.Cell.Name
	if m.Cell.Tech != "" {
		title += " (" + m.Cell.Tech + ")"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(browseDimStyle.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.listView(), m.detailView()))
	b.WriteString("\n")
	b.WriteString(browseDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Layers))))
	return b.String()
}

func (m LayerBrowser) listView() string {
	end := min(m.Offset+m.Height, len(m.Layers))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, m.Layers[i], fmt.Sprint(m.Cell.RectCount(m.Layers[i]))})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Layer", "Rects").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return browseSelectedStyle
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func (m LayerBrowser) detailView() string {
	layer := m.Selected()
	var b strings.Builder
	b.WriteString(StyleTitle.Render(layer))
	b.WriteString("\n")

	if bounds, err := m.Cell.LayerBounds(layer); err == nil {
		b.WriteString(formatBounds(bounds))
		b.WriteString("\n")
		fmt.Fprintf(&b, "%d × %d\n", bounds.Width(), bounds.Height())
	} else {
		b.WriteString(browseDimStyle.Render("no rectangles"))
		b.WriteString("\n")
	}

	rects := m.Cell.Rects(layer)
	if len(rects) > 0 {
		b.WriteString("\n")
	}
	for i, r := range rects {
		if i == detailRects {
			b.WriteString(browseDimStyle.Render(fmt.Sprintf("… %d more", len(rects)-detailRects)))
			b.WriteString("\n")
			break
		}
		fmt.Fprintf(&b, "%d %d %d %d\n", r.XMin, r.YMin, r.XMax, r.YMax)
	}
	return browsePaneStyle.Render(strings.TrimRight(b.String(), "\n"))
}
