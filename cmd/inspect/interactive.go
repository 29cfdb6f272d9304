package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wasmlink/guest-runtime/resource"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	entryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
)

type interactiveModel struct {
	sess   *session
	err    error
	input  textinput.Model
	result string
}

func newInteractiveModel(pages uint32) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "export alpha hello"
	ti.Prompt = "> "
	ti.Width = 60
	ti.Focus()

	return &interactiveModel{
		sess:  newSession(pages),
		input: ti,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.sess.close()
			return m, tea.Quit

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "q" || line == "quit" {
				m.sess.close()
				return m, tea.Quit
			}
			m.result, m.err = m.execute(line)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) execute(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}

	switch fields[0] {
	case "export":
		if len(fields) < 3 {
			return "", fmt.Errorf("usage: export <name> <payload...>")
		}
		h, err := m.sess.export(fields[1], strings.Join(fields[2:], " "))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("registered %q as handle %d", fields[1], h), nil

	case "drop":
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: drop <handle>")
		}
		h, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return "", fmt.Errorf("bad handle %q", fields[1])
		}
		if err := m.sess.release(resource.Handle(h)); err != nil {
			return "", err
		}
		return fmt.Sprintf("dropped handle %d, destructor ran", h), nil

	case "copy":
		if len(fields) < 2 {
			return "", fmt.Errorf("usage: copy <text...>")
		}
		idx, err := m.sess.copyBuffer(strings.Join(fields[1:], " "))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("copied into buffer [%d]", idx), nil

	case "free":
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: free <index>")
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			return "", fmt.Errorf("bad index %q", fields[1])
		}
		if err := m.sess.freeBuffer(idx); err != nil {
			return "", err
		}
		return fmt.Sprintf("freed buffer [%d]", idx), nil

	case "leak":
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: leak <index>")
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			return "", fmt.Errorf("bad index %q", fields[1])
		}
		ptr, count, err := m.sess.leakBuffer(idx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("leaked buffer [%d]: ptr=%d len=%d (receiver must free)", idx, ptr, count), nil

	default:
		return "", fmt.Errorf("unknown command %q (export, drop, copy, free, leak, quit)", fields[0])
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Boundary Inspector"))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Exported resources"))
	b.WriteString("\n")
	lines := m.sess.resourceLines()
	if len(lines) == 0 {
		b.WriteString(helpStyle.Render("  (none)"))
		b.WriteString("\n")
	}
	for _, l := range lines {
		b.WriteString("  " + entryStyle.Render(l) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Owned buffers"))
	b.WriteString("\n")
	lines = m.sess.bufferLines()
	if len(lines) == 0 {
		b.WriteString(helpStyle.Render("  (none)"))
		b.WriteString("\n")
	}
	for _, l := range lines {
		b.WriteString("  " + entryStyle.Render(l) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(statsStyle.Render(m.sess.statsLine()))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	} else if m.result != "" {
		b.WriteString(resultStyle.Render(m.result))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("export <name> <text> • drop <h> • copy <text> • free <i> • leak <i> • quit"))

	return b.String()
}

func runInteractive(pages uint32) error {
	p := tea.NewProgram(newInteractiveModel(pages), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
