package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MangalamGSinha/DockSuiteX/internal/model"
)

const monitorPollInterval = 700 * time.Millisecond

var (
	monitorTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	monitorMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	monitorErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	monitorOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	monitorPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type monitorModel struct {
	dir      string
	manifest *model.BatchManifest
	path     string
	loadErr  error
	width    int
	height   int
	follow   bool
	fatalErr error
}

type monitorTickMsg struct{}

type monitorLoadedMsg struct {
	manifest *model.BatchManifest
	path     string
	err      error
}

func runMonitor(args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	dir := fs.String("dir", "results", "result root (or a directory of result roots)")
	follow := fs.Bool("follow", true, "keep polling after the batch finishes")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !stdinIsTTY() {
		return errors.New("monitor requires an interactive terminal (TTY); use status --json instead")
	}

	m := monitorModel{dir: strings.TrimSpace(*dir), follow: *follow}
	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := finalModel.(monitorModel); ok {
		return fm.fatalErr
	}
	return nil
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(loadManifestCmd(m.dir), monitorTickCmd())
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case monitorLoadedMsg:
		m.manifest = msg.manifest
		m.path = msg.path
		m.loadErr = msg.err
		return m, nil
	case monitorTickMsg:
		if m.batchDone() && !m.follow {
			return m, tea.Quit
		}
		return m, tea.Batch(loadManifestCmd(m.dir), monitorTickCmd())
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "r":
			return m, loadManifestCmd(m.dir)
		}
	}
	return m, nil
}

func (m monitorModel) batchDone() bool {
	return m.manifest != nil && m.manifest.Pending == 0 && m.manifest.Running == 0
}

func (m monitorModel) View() string {
	if m.width <= 0 {
		m.width = 100
	}
	if m.height <= 0 {
		m.height = 30
	}

	header := monitorTitleStyle.Render("docksuitex monitor") + "\n" +
		monitorMutedStyle.Render("r: refresh | q: quit")

	if m.loadErr != nil && m.manifest == nil {
		body := monitorPanelStyle.Width(m.width - 2).Render(
			monitorMutedStyle.Render("waiting for a batch manifest under " + m.dir + " ...\n\n" + m.loadErr.Error()))
		return lipgloss.JoinVertical(lipgloss.Left, header, body)
	}
	if m.manifest == nil {
		return header
	}

	mf := m.manifest
	fraction := 0.0
	if mf.Total > 0 {
		fraction = float64(mf.Completed+mf.Failed) / float64(mf.Total)
	}
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(monitorClamp(m.width-8, 20, 80)))

	summary := fmt.Sprintf("batch %s | engine %s | %d workers", mf.BatchID, mf.Engine, mf.Workers)
	if m.path != "" {
		summary += "\n" + monitorMutedStyle.Render(m.path)
	}
	counts := fmt.Sprintf("%d total | %d pending | %d running | %s | %s",
		mf.Total, mf.Pending, mf.Running,
		monitorOKStyle.Render(fmt.Sprintf("%d completed", mf.Completed)),
		monitorErrorStyle.Render(fmt.Sprintf("%d failed", mf.Failed)))

	lines := []string{summary, "", bar.ViewAs(fraction), "", counts}
	if m.batchDone() {
		lines = append(lines, "", monitorOKStyle.Render("batch finished"))
	}
	top := monitorPanelStyle.Width(m.width - 2).Render(strings.Join(lines, "\n"))

	jobs := m.renderJobsPanel(m.width - 2)
	return lipgloss.JoinVertical(lipgloss.Left, header, top, jobs)
}

func (m monitorModel) renderJobsPanel(width int) string {
	mf := m.manifest
	maxRows := monitorClamp(m.height-14, 4, 20)

	// Running jobs first, then failures, then the rest.
	ordered := make([]model.BatchJob, 0, len(mf.Jobs))
	for _, status := range []string{model.StatusRunning, model.StatusFailed, model.StatusPending, model.StatusCompleted} {
		for _, j := range mf.Jobs {
			if j.Status == status {
				ordered = append(ordered, j)
			}
		}
	}

	lines := make([]string, 0, maxRows+1)
	for i, j := range ordered {
		if i >= maxRows {
			lines = append(lines, monitorMutedStyle.Render(fmt.Sprintf("... and %d more", len(ordered)-maxRows)))
			break
		}
		line := fmt.Sprintf("%-10s %s", j.Status, j.Key())
		switch j.Status {
		case model.StatusCompleted:
			line += fmt.Sprintf("  best %.3f", j.BestScore)
		case model.StatusFailed:
			line += "  " + j.ErrorKind
		}
		if len(line) > width-6 && width > 9 {
			line = line[:width-9] + "..."
		}
		switch j.Status {
		case model.StatusFailed:
			line = monitorErrorStyle.Render(line)
		case model.StatusCompleted:
			line = monitorOKStyle.Render(line)
		case model.StatusPending:
			line = monitorMutedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, monitorMutedStyle.Render("no jobs in manifest"))
	}
	return monitorPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func loadManifestCmd(dir string) tea.Cmd {
	return func() tea.Msg {
		mf, path, err := loadManifest(dir)
		if err != nil {
			return monitorLoadedMsg{err: err}
		}
		return monitorLoadedMsg{manifest: mf, path: path}
	}
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(monitorPollInterval, func(time.Time) tea.Msg {
		return monitorTickMsg{}
	})
}

func monitorClamp(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
