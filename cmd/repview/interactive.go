package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/ocamlrep"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	kindStyles = map[nodeKind]lipgloss.Style{
		kindInt:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F0E68C")),
		kindString: lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		kindDouble: lipgloss.NewStyle().Foreground(lipgloss.Color("#DDA0DD")),
		kindBlock:  lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		kindOpaque: lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
	}
)

// treeNode is one field in the browser. Children are built on first
// expansion.
type treeNode struct {
	value    ocamlrep.Value
	parent   *treeNode
	children []*treeNode
	label    string
	summary  string
	kind     nodeKind
	index    int
	depth    int
	expanded bool
	loaded   bool
}

func newTreeNode(v ocamlrep.Value, parent *treeNode, index int) *treeNode {
	n := &treeNode{value: v, parent: parent, index: index}
	n.summary, n.kind = summarize(v)
	if parent != nil {
		n.depth = parent.depth + 1
		n.label = strconv.Itoa(index)
	}
	return n
}

func (n *treeNode) expandable() bool {
	return len(children(n.value)) > 0
}

func (n *treeNode) load() {
	if n.loaded {
		return
	}
	n.loaded = true
	for i, f := range children(n.value) {
		n.children = append(n.children, newTreeNode(f, n, i))
	}
}

// path returns the field indices from the root to n.
func (n *treeNode) path() []int {
	var p []int
	for ; n.parent != nil; n = n.parent {
		p = append([]int{n.index}, p...)
	}
	return p
}

type browserModel struct {
	root     *treeNode
	rows     []*treeNode
	err      error
	filename string
	jump     textinput.Model
	cursor   int
	offset   int
	height   int
	jumping  bool
}

func newBrowserModel(filename string, v ocamlrep.Value) *browserModel {
	ti := textinput.New()
	ti.Placeholder = "0.1.0"
	ti.Prompt = "path: "
	ti.Width = 40

	m := &browserModel{
		root:     newTreeNode(v, nil, 0),
		filename: filename,
		jump:     ti,
		height:   20,
	}
	m.root.load()
	m.root.expanded = true
	m.refresh()
	return m
}

// refresh rebuilds the visible rows from the expansion state.
func (m *browserModel) refresh() {
	m.rows = m.rows[:0]
	var walk func(n *treeNode)
	walk = func(n *treeNode) {
		m.rows = append(m.rows, n)
		if !n.expanded {
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(m.root)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	m.scroll()
}

func (m *browserModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m *browserModel) selectNode(target *treeNode) {
	for i, n := range m.rows {
		if n == target {
			m.cursor = i
			m.scroll()
			return
		}
	}
}

// jumpTo expands the nodes along a dotted field path and selects its end.
func (m *browserModel) jumpTo(path string) error {
	n := m.root
	for _, part := range strings.Split(strings.TrimSpace(path), ".") {
		if part == "" {
			continue
		}
		i, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("bad path segment %q", part)
		}
		n.load()
		if i < 0 || i >= len(n.children) {
			return fmt.Errorf("field %d out of range at %v", i, n.path())
		}
		n.expanded = true
		n = n.children[i]
	}
	m.refresh()
	m.selectNode(n)
	return nil
}

func (m *browserModel) Init() tea.Cmd {
	return nil
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-6, 1)
		m.scroll()

	case tea.KeyMsg:
		if m.jumping {
			switch msg.String() {
			case "enter":
				m.err = m.jumpTo(m.jump.Value())
				m.jumping = false
				m.jump.Blur()
				return m, nil
			case "esc":
				m.jumping = false
				m.jump.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.jump, cmd = m.jump.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.scroll()
			}

		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				m.scroll()
			}

		case "right", "l", "enter":
			n := m.rows[m.cursor]
			if n.expandable() && !n.expanded {
				n.load()
				n.expanded = true
				m.refresh()
			}

		case "left", "h":
			n := m.rows[m.cursor]
			if n.expanded && n.parent != nil {
				n.expanded = false
				m.refresh()
			} else if n.parent != nil {
				m.selectNode(n.parent)
			}

		case "/":
			m.err = nil
			m.jumping = true
			m.jump.SetValue("")
			return m, m.jump.Focus()
		}
	}
	return m, nil
}

func (m *browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("OCaml Value Browser"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.formatRow(m.rows[i], i == m.cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.jumping:
		b.WriteString(m.jump.View())
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	default:
		b.WriteString(helpStyle.Render(fmt.Sprintf("path %v", m.rows[m.cursor].path())))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ move • →/enter expand • ← collapse • / jump to path • q quit"))
	return b.String()
}

func (m *browserModel) formatRow(n *treeNode, selected bool) string {
	marker := "  "
	if n.expandable() {
		marker = "▸ "
		if n.expanded {
			marker = "▾ "
		}
	}
	indent := strings.Repeat("  ", n.depth)
	if selected {
		label := ""
		if n.label != "" {
			label = n.label + ": "
		}
		return indent + selectedStyle.Render(marker+label+n.summary)
	}
	label := ""
	if n.label != "" {
		label = labelStyle.Render(n.label + ": ")
	}
	return indent + marker + label + kindStyles[n.kind].Render(n.summary)
}

func runInteractive(filename string, v ocamlrep.Value) error {
	p := tea.NewProgram(newBrowserModel(filename, v), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
