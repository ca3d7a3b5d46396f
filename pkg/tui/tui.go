// Package tui provides a terminal user interface for structure2daw
package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/analysis"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/export"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/timecode"
)

// Timeline-inspired color scheme
var (
	markerOrange = lipgloss.Color("#FF8C1A")
	gridBlue     = lipgloss.Color("#4FC3F7")
	silverGray   = lipgloss.Color("#C0C0C0")
	darkGray     = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(markerOrange).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(markerOrange).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(gridBlue).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(markerOrange).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(markerOrange).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateExporting
	StateResult
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	Kind        export.Kind
}

var menuItems = []MenuItem{
	{Title: "Structure markers", Description: "One MIDI file with a marker per section", Kind: export.KindMarkers},
	{Title: "DAW template", Description: "Zip with the marker file and placeholder instrument tracks", Kind: export.KindTemplate},
	{Title: "Exit", Description: "Exit the application"},
}

// Model represents the TUI model
type Model struct {
	state        State
	menuIndex    int
	spinner      spinner.Model
	exporter     *export.Exporter
	result       *analysis.Result
	analysisPath string
	originalName string
	outputDir    string
	selected     MenuItem
	outputFile   string
	err          error
}

// exportDoneMsg signals export completion
type exportDoneMsg struct {
	outputFile string
	err        error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a TUI model for one analysis result. originalName is the
// audio file the analysis came from and drives the artifact names.
func New(exporter *export.Exporter, result *analysis.Result, analysisPath, originalName, outputDir string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(markerOrange)

	if originalName == "" {
		originalName = filepath.Base(analysisPath)
	}

	return Model{
		state:        StateMenu,
		spinner:      s,
		exporter:     exporter,
		result:       result,
		analysisPath: analysisPath,
		originalName: originalName,
		outputDir:    outputDir,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		case StateExporting:
			// exports cannot be cancelled; only a hard quit is honoured
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case exportDoneMsg:
		m.state = StateResult
		m.outputFile = msg.outputFile
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		if m.menuIndex == len(menuItems)-1 {
			return m, tea.Quit
		}
		m.selected = menuItems[m.menuIndex]
		m.state = StateExporting
		return m, tea.Batch(m.spinner.Tick, m.performExport())
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.outputFile = ""
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) performExport() tea.Cmd {
	exporter, result, name, dir, kind := m.exporter, m.result, m.originalName, m.outputDir, m.selected.Kind
	return func() tea.Msg {
		var done <-chan export.Outcome
		switch kind {
		case export.KindMarkers:
			done = exporter.MarkerFileAsync(result, name)
		case export.KindTemplate:
			done = exporter.TemplateArchiveAsync(result, name)
		default:
			return exportDoneMsg{err: fmt.Errorf("unsupported export: %s", kind)}
		}

		out := <-done
		if out.Err != nil {
			return exportDoneMsg{err: out.Err}
		}
		path, err := export.WriteArtifact(dir, out.Artifact)
		return exportDoneMsg{outputFile: path, err: err}
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(logo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateExporting:
		s.WriteString(m.viewExporting())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	// Footer help
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT EXPORT "))
	s.WriteString("\n\n")
	s.WriteString(m.summary())
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(gridBlue).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) summary() string {
	if m.result == nil {
		return ""
	}
	return fmt.Sprintf("%s • %.1f BPM • %d sections • ends %s",
		filepath.Base(m.analysisPath), m.result.Tempo, len(m.result.Structure), timecode.Format(m.result.End()))
}

func (m Model) viewExporting() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" EXPORTING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Building %s...\n", m.spinner.View(), strings.ToLower(m.selected.Title)))
	s.WriteString(statusStyle.Render(fmt.Sprintf("  %s → %s", filepath.Base(m.analysisPath), m.outputDir)))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Export failed: %s", m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ Export complete!"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Input:  %s\n", filepath.Base(m.analysisPath)))
		s.WriteString(fmt.Sprintf("Output: %s", m.outputFile))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func logo() string {
	return lipgloss.NewStyle().Foreground(markerOrange).Bold(true).Render(`
  ▌▌▌ STRUCTURE2DAW ▐▐▐
  ──┼────┼────┼────┼──`)
}

// Run starts the TUI application
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
