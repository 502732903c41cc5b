// Monitor command renders a live tag watch TUI.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/edgefoundry/tag-runtime/registry"
)

var (
	monitorType     string
	monitorOffset   uint32
	monitorAttrs    string
	monitorInterval time.Duration
)

var monitorCmd = &cobra.Command{
	Use:   "monitor <key>...",
	Short: "Watch tags update live",
	Long: `Monitor resolves each key through the registry and re-reads it on a
fixed interval, rendering the latest values until interrupted.

Example:
  tagmon monitor plc1/Motor1 plc1/Motor2 --type uint16 --interval 250ms`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().StringVarP(&monitorType, "type", "t", "uint32", "element type ("+valueTypesStr+")")
	monitorCmd.Flags().Uint32VarP(&monitorOffset, "offset", "o", 0, "byte offset into the tag buffer")
	monitorCmd.Flags().StringVar(&monitorAttrs, "attrs", "", "engine attribute string (default from config)")
	monitorCmd.Flags().DurationVarP(&monitorInterval, "interval", "i", 500*time.Millisecond, "refresh interval")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("monitor needs a terminal; use %q for one-shot output", "tagmon read")
	}

	m := newMonitorModel(reg, args)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

var (
	monTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	monKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	monValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	monErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	monHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type tagRow struct {
	key   string
	value string
	err   error
	at    time.Time
}

type monitorModel struct {
	reg   *registry.Registry
	keys  []string
	rows  map[string]tagRow
	spin  spinner.Model
	width int
}

type sampleMsg tagRow

type tickMsg time.Time

func newMonitorModel(reg *registry.Registry, keys []string) *monitorModel {
	rows := make(map[string]tagRow, len(keys))
	for _, k := range keys {
		rows[k] = tagRow{key: k}
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &monitorModel{reg: reg, keys: keys, rows: rows, spin: sp}
}

func (m *monitorModel) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.keys)+1)
	for _, k := range m.keys {
		cmds = append(cmds, m.sample(k))
	}
	cmds = append(cmds, tick(), m.spin.Tick)
	return tea.Batch(cmds...)
}

func tick() tea.Cmd {
	return tea.Tick(monitorInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// sample reads one key off the UI goroutine.
func (m *monitorModel) sample(key string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), monitorInterval*4)
		defer cancel()

		ref, err := m.reg.GetOrCreate(ctx, key, tagAttributes(monitorAttrs))
		if err != nil {
			return sampleMsg{key: key, err: err, at: time.Now()}
		}
		defer ref.Close()

		value, err := readTyped(ctx, ref.Entry(), monitorType, monitorOffset)
		return sampleMsg{key: key, value: value, err: err, at: time.Now()}
	}
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case sampleMsg:
		m.rows[msg.key] = tagRow(msg)

	case tickMsg:
		cmds := make([]tea.Cmd, 0, len(m.keys)+1)
		for _, k := range m.keys {
			cmds = append(cmds, m.sample(k))
		}
		cmds = append(cmds, tick())
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *monitorModel) View() string {
	s := monTitleStyle.Render("tagmon") + "\n\n"

	keyWidth := 0
	for _, k := range m.keys {
		if len(k) > keyWidth {
			keyWidth = len(k)
		}
	}

	for _, k := range m.keys {
		row := m.rows[k]
		s += monKeyStyle.Render(fmt.Sprintf("%-*s", keyWidth, k)) + "  "
		switch {
		case row.err != nil:
			s += monErrorStyle.Render(row.err.Error())
		case row.at.IsZero():
			s += m.spin.View()
		default:
			s += monValueStyle.Render(row.value)
		}
		if !row.at.IsZero() {
			s += monHelpStyle.Render("  " + row.at.Format("15:04:05.000"))
		}
		s += "\n"
	}

	s += "\n" + monHelpStyle.Render(fmt.Sprintf("refresh %s - q to quit", monitorInterval))
	return s
}
