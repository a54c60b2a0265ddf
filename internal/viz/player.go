package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/quakeplay/internal/control"
	"github.com/san-kum/quakeplay/internal/playback"
	"github.com/san-kum/quakeplay/internal/policy"
	"github.com/san-kum/quakeplay/internal/render"
)

const (
	width            = 100
	height           = 28
	sidebarWidth     = 46
	defaultFrameRate = 30
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(sidebarWidth)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Options configure the player.
type Options struct {
	Title     string
	FrameRate int
	Theme     string
	// Notice is shown until the first key press, e.g. a failed fetch.
	Notice string
}

// Model is the bubbletea player. Playback runs on the controller's own
// scheduler; the model repaints at FrameRate and forwards keys to the
// control surface.
type Model struct {
	surface  *control.Surface
	ctrl     *playback.Controller
	view     *MapView
	bridge   *render.Bridge
	detach   func()
	keys     KeyMap
	theme    Theme
	title    string
	frame    time.Duration
	daily    []float64
	originMs int64
	notice   string
	frames   int
	showHelp bool
	quitting bool
}

func NewModel(surface *control.Surface, opts Options) Model {
	if opts.FrameRate <= 0 {
		opts.FrameRate = defaultFrameRate
	}
	if opts.Title == "" {
		opts.Title = "quakeplay"
	}
	ctrl := surface.Controller()
	view := NewMapView(width, height)
	bridge := render.NewBridge(ctrl, view)

	origin, _, ok := ctrl.Events().Bounds()
	nowMs := ctrl.Now().UnixMilli()
	if !ok {
		origin = nowMs
	}

	return Model{
		surface:  surface,
		ctrl:     ctrl,
		view:     view,
		bridge:   bridge,
		detach:   bridge.Attach(),
		keys:     DefaultKeyMap(),
		theme:    GetTheme(opts.Theme),
		title:    opts.Title,
		frame:    time.Second / time.Duration(opts.FrameRate),
		daily:    ctrl.Events().DailyCounts(origin, nowMs),
		originMs: origin,
		notice:   opts.Notice,
	}
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and repaints.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.notice = ""
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		w := msg.Width - sidebarWidth - 8
		h := msg.Height - 4
		if w > 0 && h > 0 {
			m.view.Resize(w, h)
			m.bridge.Redraw()
		}
	case TickMsg:
		if m.quitting {
			return m, nil
		}
		m.frames++
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		m.quitting = true
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, k.Play):
		m.surface.PlayButton()
	case key.Matches(msg, k.Faster):
		m.surface.Faster()
	case key.Matches(msg, k.Slower):
		m.surface.Slower()
	case key.Matches(msg, k.Loop):
		m.surface.ToggleLoop()
	case key.Matches(msg, k.Mode):
		m.surface.ToggleMode()
	case key.Matches(msg, k.Back):
		m.surface.Timeline(m.ctrl.State().CursorMs - playback.StepMs)
	case key.Matches(msg, k.Forward):
		m.surface.Timeline(m.ctrl.State().CursorMs + playback.StepMs)
	case key.Matches(msg, k.RangeDown):
		m.surface.ShiftRange(-1)
	case key.Matches(msg, k.RangeUp):
		m.surface.ShiftRange(1)
	case key.Matches(msg, k.Step):
		m.ctrl.Step()
	case key.Matches(msg, k.Theme):
		m.theme = NextTheme(m.theme.Name)
	case key.Matches(msg, k.Grid):
		m.view.ToggleGrid()
		m.bridge.Redraw()
	case key.Matches(msg, k.Help):
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// Close detaches the renderer and stops playback.
func (m Model) Close() {
	if m.detach != nil {
		m.detach()
	}
	m.ctrl.Close()
}

// View renders the TUI interface.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	st := m.ctrl.State()
	labels := m.ctrl.Labels()
	markers := m.bridge.Last()

	canvasView := canvasStyle.Render(m.view.Render(m.theme))

	var s strings.Builder
	s.WriteString(m.theme.header().Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.theme.status(st.Playing) + "\n\n")
	if m.notice != "" {
		s.WriteString(NoticeStyle.Render(m.notice) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Date") + m.theme.metric().Render(labels.Current) + "\n")
	s.WriteString(labelStyle.Render("Range") + valueStyle.Render(labels.Start+" → "+labels.End) + "\n")
	if st.Mode == playback.Window {
		s.WriteString(labelStyle.Render("Window") + valueStyle.Render(playback.FormatDate(st.WindowStartMs)+" → "+playback.FormatDate(st.WindowEndMs)) + "\n")
	}
	s.WriteString(labelStyle.Render("Speed") + valueStyle.Render(fmt.Sprintf("%s (%d ms/day)", labels.Speed, st.SpeedMs)) + "\n")
	s.WriteString(labelStyle.Render("Mode") + valueStyle.Render(st.Mode.String()) + "\n")
	s.WriteString(labelStyle.Render("Loop") + valueStyle.Render(onOff(st.Looping)) + "\n")
	nowMs := m.ctrl.Now().UnixMilli()
	s.WriteString(labelStyle.Render("Timeline") + AgeBar(m.originMs, nowMs, min(st.CursorMs, nowMs), 24, m.theme) + "\n\n")

	counts := render.Counts(markers)
	s.WriteString(labelStyle.Render("Markers") + m.theme.metric().Render(fmt.Sprintf("%d", len(markers))) + "\n")
	for _, c := range policy.Colors {
		swatch := lipgloss.NewStyle().Foreground(m.theme.Marker(c)).Render("●")
		s.WriteString(fmt.Sprintf("  %s %-7s %s\n", swatch, metricLabel.Render(bucketLabel(c)), valueStyle.Render(fmt.Sprintf("%d", counts[c]))))
	}

	if len(m.daily) > 1 {
		chart := asciigraph.Plot(m.daily, asciigraph.Height(5), asciigraph.Width(sidebarWidth-12), asciigraph.Caption("events/day"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString("\n" + ActivitySparkline(m.daily, m.originMs, st.CursorMs, sidebarWidth-8, m.theme) + "\n")

	s.WriteString(helpStyle.Render(rule(sidebarWidth-6, m.theme) + "\n" + shortHelp(m.keys.ShortHelp())))
	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return helpPanel.Render(fullHelp(m.keys.FullHelp(), m.theme)) + "\n\n" + mainView
	}
	return mainView
}

func bucketLabel(c policy.Color) string {
	switch c {
	case policy.Red:
		return "< 1h"
	case policy.Orange:
		return "< 1d"
	case policy.Yellow:
		return "< 7d"
	case policy.White:
		return "< 30d"
	}
	return c.String()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func shortHelp(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+":"+h.Desc)
	}
	return keyHint.Render(strings.Join(parts, "  "))
}

func fullHelp(bindings []key.Binding, theme Theme) string {
	var s strings.Builder
	s.WriteString(theme.metric().Render("KEYBOARD SHORTCUTS") + "\n\n")
	for _, b := range bindings {
		h := b.Help()
		s.WriteString(fmt.Sprintf("  %-8s %s\n", h.Key, metricLabel.Render(h.Desc)))
	}
	return s.String()
}

// Run starts the player full screen and blocks until it quits.
func Run(m Model) error {
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
