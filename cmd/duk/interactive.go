package main

// Interactive mode (-i): a bubbletea REPL over the same globals/
// exprReader used by -e, one line in, one evaluated result or error
// out. Grounded on the teacher's cmd/run/interactive.go model/update/
// view shape and lipgloss palette, simplified from "browse exported
// WASM functions" down to "read one line, evaluate it" since duk5 has
// no WIT-described function list to browse.

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/goduk/duk5/api"
)

var (
	replTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	replResultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	replErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	replHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type historyEntry struct {
	input  string
	output string
	isErr  bool
}

type replModel struct {
	ctx     *api.Context
	g       *globals
	input   textinput.Model
	history []historyEntry
}

func newReplModel(ctx *api.Context, g *globals) *replModel {
	ti := textinput.New()
	ti.Placeholder = "1 + 2 * 3"
	ti.Prompt = "duk> "
	ti.Focus()
	ti.Width = 60
	return &replModel{ctx: ctx, g: g, input: ti}
}

func (m *replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			return m, tea.Quit

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			if line == ":q" || line == ":quit" {
				return m, tea.Quit
			}
			m.runLine(line)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// runLine evaluates one line of input through the same protected-call
// path evalAndPrint uses for -e, recording the result or error into the
// scrollback instead of printing to stdout directly.
func (m *replModel) runLine(line string) {
	entry := historyEntry{input: line}

	out, err := m.eval(line)
	if err != nil {
		entry.output = err.Error()
		entry.isErr = true
	} else {
		entry.output = out
	}
	m.history = append(m.history, entry)
}

func (m *replModel) eval(line string) (string, error) {
	return evalToString(m.ctx, m.g, line)
}

func (m *replModel) View() string {
	var b strings.Builder
	b.WriteString(replTitleStyle.Render("duk5 interactive"))
	b.WriteString("\n\n")

	for _, e := range m.history {
		b.WriteString("duk> ")
		b.WriteString(e.input)
		b.WriteString("\n")
		if e.isErr {
			b.WriteString(replErrorStyle.Render(e.output))
		} else {
			b.WriteString(replResultStyle.Render(e.output))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(replHelpStyle.Render("enter evaluate • :q or ctrl+c quit"))
	return b.String()
}

func runInteractive(ctx *api.Context, g *globals) error {
	p := tea.NewProgram(newReplModel(ctx, g))
	_, err := p.Run()
	return err
}
