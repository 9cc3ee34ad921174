// Package tui provides the BubbleTea demo screen and the terminal alert surface.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/stackalert/internal/config"
	"github.com/jmylchreest/stackalert/internal/display"
	"github.com/jmylchreest/stackalert/internal/model"
)

// Rows below the canvas: status line and key bar.
const chromeRows = 2

// Model is the demo screen model.
type Model struct {
	cfg     *config.Config
	manager *display.Manager
	surface *Surface

	// Components
	help help.Model
	keys KeyMap

	// State
	width     int
	height    int
	ready     bool
	active    int
	lastShown time.Time
	number    func() int

	// Status message
	statusMsg string
	statusErr bool
}

// New creates the demo model. The surface must be the one manager renders onto.
func New(cfg *config.Config, manager *display.Manager, surface *Surface) Model {
	return Model{
		cfg:     cfg,
		manager: manager,
		surface: surface,
		help:    help.New(),
		keys:    DefaultKeyMap(),
		number:  func() int { return rand.IntN(100) + 1 },
	}
}

type frameMsg time.Time

type countMsg int

type configReloadedMsg struct {
	cfg *config.Config
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

// Init starts the frame ticker.
func (m Model) Init() tea.Cmd {
	return m.nextFrame()
}

// nextFrame schedules the next animation frame.
func (m Model) nextFrame() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.cfg.Animation.FPS), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// countAlerts reads the number of active alerts from the manager.
func (m Model) countAlerts() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	n, err := m.manager.Len(ctx)
	if err != nil {
		return nil
	}
	return countMsg(n)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.surface.Resize(msg.Width, msg.Height-chromeRows)
		return m, nil

	case frameMsg:
		m.surface.Step(time.Time(msg))
		return m, tea.Batch(m.nextFrame(), m.countAlerts)

	case countMsg:
		m.active = int(msg)
		return m, nil

	case configReloadedMsg:
		m.cfg = msg.cfg
		m.manager.UpdateConfig(msg.cfg)
		m.surface.SetConfig(msg.cfg)
		return m, func() tea.Msg {
			return statusMsg{text: "Config reloaded"}
		}

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil
	}

	return m, nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.show(model.AnchorTop)
		return m, m.countAlerts

	case key.Matches(msg, m.keys.Bottom):
		m.show(model.AnchorBottom)
		return m, m.countAlerts

	case key.Matches(msg, m.keys.CloseAll):
		m.manager.CloseAll()
		return m, func() tea.Msg {
			return statusMsg{text: "Closed all alerts"}
		}
	}

	return m, nil
}

// show posts a demo alert entering from anchor.
func (m *Model) show(anchor model.Anchor) {
	label := "Top"
	if anchor == model.AnchorBottom {
		label = "Bottom"
	}
	m.manager.Show(fmt.Sprintf("Alert from %s %d", label, m.number()), 0, anchor)
	m.lastShown = time.Now()
}

// View renders the demo screen.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	canvas := m.surface.Render(m.background())
	return canvas + "\n" + m.statusLine() + "\n" + m.help.View(m.keys)
}

// background returns the plain-text screen the alerts are drawn over.
func (m Model) background() string {
	rows := max(m.height-chromeRows, 0)
	lines := make([]string, rows)

	content := []string{
		"Stacking Alerts",
		"",
		"[t] Alert from Top",
		"",
		"[b] Alert from Bottom",
	}
	start := (rows - len(content)) / 2
	for i, text := range content {
		r := start + i
		if r < 0 || r >= rows {
			continue
		}
		lines[r] = center(text, m.width)
	}
	return strings.Join(lines, "\n")
}

// statusLine summarises the stack, or shows a transient status message.
func (m Model) statusLine() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		return statusStyle.Render(m.statusMsg)
	}

	s := fmt.Sprintf("%d/%d alerts", m.active, m.cfg.Stack.MaxAlerts)
	if m.lastShown.IsZero() {
		s += " · no alerts shown yet"
	} else {
		s += " · last shown " + humanize.Time(m.lastShown)
	}
	return style.Render(s)
}

func center(s string, width int) string {
	pad := (width - lipgloss.Width(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

// RunOptions configures the demo screen.
type RunOptions struct {
	Config     *config.Config
	ConfigPath string // Config file to watch for changes (empty = no watching)
	Logger     *slog.Logger
}

// Run starts the demo screen and blocks until it exits.
func Run(ctx context.Context, opts RunOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	loop := display.NewLoop(logger)
	loop.Start(ctx)
	defer loop.Stop()

	surface := NewSurface(loop, cfg)
	manager := display.NewManager(loop, surface, NewViewFactory(), cfg, logger)
	defer manager.Stop()

	manager.SetCloseCallback(func(alert *model.Alert, reason model.CloseReason) {
		logger.Debug("alert closed", "alert_id", alert.ID, "reason", reason)
	})

	p := tea.NewProgram(New(cfg, manager, surface), tea.WithAltScreen(), tea.WithContext(ctx))

	// Start config watcher if a path was provided
	if opts.ConfigPath != "" {
		watcher, err := config.NewWatcher(opts.ConfigPath, logger)
		if err != nil {
			logger.Warn("failed to create config watcher", "error", err)
		} else {
			watcher.SetReloadCallback(func(c *config.Config) {
				p.Send(configReloadedMsg{cfg: c})
			})
			watcher.SetErrorCallback(func(err error) {
				p.Send(statusMsg{text: "Config not reloaded: " + err.Error(), isErr: true})
			})
			if err := watcher.Start(); err != nil {
				logger.Warn("failed to start config watcher", "error", err)
			}
			defer func() { _ = watcher.Stop() }()
		}
	}

	_, err := p.Run()
	return err
}
