package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/spatialgen/pkg/catalog"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// assetPicker is the bubbletea model of "catalog pick": a scrolling list
// with multi-select.
type assetPicker struct {
	assets    []catalog.Asset
	chosen    map[int]bool
	cursor    int
	offset    int
	height    int
	confirmed bool
}

func newAssetPicker(assets []catalog.Asset) assetPicker {
	return assetPicker{assets: assets, chosen: make(map[int]bool), height: 15}
}

func (m assetPicker) Init() tea.Cmd {
	return nil
}

func (m assetPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.assets)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case " ", "x":
			if len(m.assets) > 0 {
				m.chosen[m.cursor] = !m.chosen[m.cursor]
			}
		case "a":
			all := len(m.selectedIDs()) < len(m.assets)
			for i := range m.assets {
				m.chosen[i] = all
			}
		case "enter":
			m.confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-7, 5)
	}
	return m, nil
}

func (m assetPicker) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Objects"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ confirm  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.assets))
	for i := m.offset; i < end; i++ {
		a := m.assets[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		box := "[ ]"
		if m.chosen[i] {
			box = StyleSuccess.Render("[x]")
		}
		facing := a.DefaultOrientation
		if facing == "" {
			facing = "no front"
		}
		line := fmt.Sprintf("%s%s %-24s %s", cursor, box, a.ID, listDimStyle.Render(a.Group+" · "+facing))
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	n := len(m.selectedIDs())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d selected, %d pairs", n, n*(n-1)/2)))
	return b.String()
}

// selectedIDs returns the chosen asset ids in catalog order.
func (m assetPicker) selectedIDs() []string {
	var ids []string
	for i, a := range m.assets {
		if m.chosen[i] {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
