package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/runtimediag/daclib"
	"github.com/runtimediag/daclib/com"
	"github.com/runtimediag/daclib/dac"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	iidStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90"))

	missingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type probeEntry struct {
	name      string
	iid       com.GUID
	probed    bool
	supported bool
}

type modelState int

const (
	stateSelect modelState = iota
	stateCustomIID
)

type interactiveModel struct {
	err      error
	dacPath  string
	dumpPath string
	base     uint64
	machine  uint32
	reader   *daclib.FileReader
	lib      *dac.Library
	entries  []probeEntry
	input    textinput.Model
	selected int
	state    modelState
}

func newInteractiveModel(dacPath, dumpPath string, base uint64, machine uint32) *interactiveModel {
	return &interactiveModel{
		dacPath:  dacPath,
		dumpPath: dumpPath,
		base:     base,
		machine:  machine,
		entries: []probeEntry{
			{name: "IXCLRDataProcess (primary)", iid: com.IIDIXCLRDataProcess},
			{name: "ISOSDacInterface (secondary)", iid: com.IIDISOSDacInterface},
		},
	}
}

type loadedMsg struct {
	err    error
	reader *daclib.FileReader
	lib    *dac.Library
}

type probeResultMsg struct {
	index     int
	supported bool
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadLibrary
}

func (m *interactiveModel) loadLibrary() tea.Msg {
	reader, err := daclib.OpenFileReader(m.dumpPath, m.base, m.machine, 1)
	if err != nil {
		return loadedMsg{err: err}
	}

	lib, err := dac.Load(reader, m.dacPath)
	if err != nil {
		reader.Close()
		return loadedMsg{err: err}
	}

	return loadedMsg{reader: reader, lib: lib}
}

func (m *interactiveModel) probeSelected() tea.Msg {
	idx := m.selected
	e := m.entries[idx]

	if e.iid == com.IIDIXCLRDataProcess {
		// The primary interface exists by construction.
		return probeResultMsg{index: idx, supported: true}
	}

	h, ok, err := dac.Acquire(m.lib, e.iid, dac.NewInterface)
	if err != nil || !ok {
		return probeResultMsg{index: idx, supported: false}
	}
	h.Close()
	return probeResultMsg{index: idx, supported: true}
}

func (m *interactiveModel) teardown() {
	if m.lib != nil {
		m.lib.Close()
	}
	if m.reader != nil {
		m.reader.Close()
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateCustomIID && msg.String() == "q" {
				break
			}
			m.teardown()
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelect && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelect && m.selected < len(m.entries)-1 {
				m.selected++
			}

		case "a":
			if m.state == stateSelect {
				m.input = textinput.New()
				m.input.Placeholder = "00000000-0000-0000-0000-000000000000"
				m.input.Prompt = "iid: "
				m.input.Width = 40
				m.input.Focus()
				m.state = stateCustomIID
				return m, nil
			}

		case "enter":
			switch m.state {
			case stateSelect:
				if m.lib != nil {
					return m, m.probeSelected
				}
			case stateCustomIID:
				iid, err := com.FromString(strings.TrimSpace(m.input.Value()))
				if err == nil {
					m.entries = append(m.entries, probeEntry{
						name: "custom",
						iid:  iid,
					})
					m.selected = len(m.entries) - 1
				}
				m.state = stateSelect
				return m, nil
			}

		case "esc":
			if m.state == stateCustomIID {
				m.state = stateSelect
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.reader = msg.reader
		m.lib = msg.lib

	case probeResultMsg:
		m.entries[msg.index].probed = true
		m.entries[msg.index].supported = msg.supported
	}

	if m.state == stateCustomIID {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.lib == nil {
		return "Attaching inspection library..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("DAC Inspector"))
	b.WriteString(" ")
	b.WriteString(m.dacPath)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelect:
		b.WriteString("Select a capability to probe:\n\n")
		for i, e := range m.entries {
			line := m.formatEntry(e)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter probe • a add iid • q quit"))

	case stateCustomIID:
		b.WriteString("Add an interface identifier to probe:\n\n")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter add • esc back"))
	}

	return b.String()
}

func (m *interactiveModel) formatEntry(e probeEntry) string {
	line := e.name + " " + iidStyle.Render(e.iid.String())
	if !e.probed {
		return line
	}
	if e.supported {
		return line + " " + okStyle.Render("ok")
	}
	return line + " " + missingStyle.Render("unsupported")
}

func runInteractive(dacPath, dumpPath string, base uint64, machine uint32) error {
	p := tea.NewProgram(newInteractiveModel(dacPath, dumpPath, base, machine), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
