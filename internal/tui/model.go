// Package tui provides the Bubble Tea focus timer interface.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/focusflow/internal/chat"
	"github.com/verte-zerg/focusflow/internal/model"
	statsPkg "github.com/verte-zerg/focusflow/internal/stats"
	"github.com/verte-zerg/focusflow/internal/timer"
	"github.com/verte-zerg/focusflow/internal/topics"
)

// SessionSource loads the session log and reports writes to it.
type SessionSource interface {
	LoadAll(ctx context.Context, scope string) ([]model.Session, error)
	OnChange(key string, fn func(key string)) func()
}

// SettingsWriter persists timer preferences.
type SettingsWriter interface {
	SetSetting(ctx context.Context, key, value string) error
}

// Options configures the timer UI.
type Options struct {
	Machine  *timer.Machine
	Topics   *topics.Registry
	Sessions SessionSource
	Settings SettingsWriter
	Scope    string
	// Asker enables the chat pane when set.
	Asker    chat.Asker
	Provider string
	Sound    bool
	Theme    string
	Now      func() time.Time
	Bell     func()
}

type mode int

const (
	modeTimer mode = iota
	modeAddTopic
	modeConfirmRemove
	modeChat
)

// tickMsg drives the countdown; gen must match the live timer token.
type tickMsg struct {
	gen uint64
}

func tickCmd(gen uint64) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

// Model implements the Bubble Tea timer UI.
type Model struct {
	opts    Options
	machine *timer.Machine
	topics  *topics.Registry
	styles  styles

	width  int
	height int

	mode   mode
	token  uint64
	input  textinput.Model
	chat   *chatPane
	status string
	errMsg string

	todayMinutes int
	progress     statsPkg.Progress
	footerDirty  bool
	unsubscribe  func()
}

type styles struct {
	title    lipgloss.Style
	clock    lipgloss.Style
	focus    lipgloss.Style
	rest     lipgloss.Style
	selected lipgloss.Style
	text     lipgloss.Style
	muted    lipgloss.Style
	warn     lipgloss.Style
	err      lipgloss.Style
	footer   lipgloss.Style
	chatUser lipgloss.Style
	chatBot  lipgloss.Style
}

func newStyles(theme string) styles {
	text, muted, accent, rest, bad := "#F0F0F0", "#8C8C8C", "#C89A3A", "#4DA3FF", "#FF4D4F"
	if theme == "light" {
		text, muted, accent, rest, bad = "#1F1F1F", "#6E6E6E", "#A0661A", "#1F6FD1", "#C41D1F"
	}
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(text)),
		clock:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(text)),
		focus:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent)),
		rest:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(rest)),
		selected: lipgloss.NewStyle().Foreground(lipgloss.Color(accent)).Underline(true),
		text:     lipgloss.NewStyle().Foreground(lipgloss.Color(text)),
		muted:    lipgloss.NewStyle().Foreground(lipgloss.Color(muted)),
		warn:     lipgloss.NewStyle().Foreground(lipgloss.Color(accent)),
		err:      lipgloss.NewStyle().Foreground(lipgloss.Color(bad)),
		footer:   lipgloss.NewStyle().Foreground(lipgloss.Color(muted)),
		chatUser: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent)),
		chatBot:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(rest)),
	}
}

// NewModel constructs the timer UI.
func NewModel(opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Bell == nil {
		opts.Bell = ringBell
	}
	if opts.Scope == "" {
		opts.Scope = model.GuestScope
	}
	input := textinput.New()
	input.Prompt = "topic> "
	input.CharLimit = 60
	m := &Model{
		opts:    opts,
		machine: opts.Machine,
		topics:  opts.Topics,
		styles:  newStyles(opts.Theme),
		input:   input,
	}
	if opts.Asker != nil {
		m.chat = newChatPane(opts.Asker, opts.Provider)
	}
	m.machine.SetTopic(m.topics.Selected())
	if opts.Sessions != nil {
		m.unsubscribe = opts.Sessions.OnChange(opts.Scope, func(string) {
			m.footerDirty = true
		})
	}
	m.loadFooterStats()
	return m
}

// Close releases the session change subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	if m.footerDirty {
		m.footerDirty = false
		m.loadFooterStats()
	}
	return m, cmd
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return nil
	case tickMsg:
		return m.handleTick(msg)
	case chatReplyMsg:
		if m.chat != nil {
			m.chat.receive(msg)
		}
		return nil
	case spinner.TickMsg:
		if m.chat == nil || !m.chat.pending {
			return nil
		}
		var cmd tea.Cmd
		m.chat.spinner, cmd = m.chat.spinner.Update(msg)
		return cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.Close()
			return tea.Quit
		}
		switch m.mode {
		case modeAddTopic:
			return m.handleAddKey(msg)
		case modeConfirmRemove:
			return m.handleConfirmKey(msg)
		case modeChat:
			return m.handleChatKey(msg)
		default:
			return m.handleTimerKey(msg)
		}
	default:
		return nil
	}
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if msg.gen == 0 || msg.gen != m.token {
		return nil
	}
	events := m.machine.Tick(context.Background(), msg.gen)
	m.handleEvents(events)
	if m.machine.Running() {
		return tickCmd(m.token)
	}
	m.token = 0
	if m.machine.State().Cycle > 0 {
		m.status = ""
		m.errMsg = timer.ErrNoTopic.Error()
		return nil
	}
	m.status = "Cycle complete. Press space to start again."
	return nil
}

func (m *Model) handleEvents(events []timer.Event) {
	for _, ev := range events {
		switch ev {
		case timer.EventLowTime, timer.EventPhaseComplete:
			if m.opts.Sound {
				m.opts.Bell()
			}
		case timer.EventSessionRecorded:
			m.status = "Session saved."
			m.footerDirty = true
		}
	}
}

func (m *Model) handleTimerKey(msg tea.KeyMsg) tea.Cmd {
	ctx := context.Background()
	switch msg.String() {
	case "q":
		m.Close()
		return tea.Quit
	case " ":
		if m.machine.Running() {
			m.pause()
			return nil
		}
		return m.start()
	case "s":
		return m.start()
	case "p":
		m.pause()
	case "e":
		m.status = "Timer reset."
		m.handleEvents(m.machine.End(ctx))
		m.token = 0
	case "tab", "right":
		m.changeTopic(m.topics.Cycle(ctx, 1))
	case "shift+tab", "left":
		m.changeTopic(m.topics.Cycle(ctx, -1))
	case "a":
		if m.machine.Running() {
			m.errMsg = topics.ErrTimerRunning.Error()
			return nil
		}
		m.mode = modeAddTopic
		m.input.SetValue("")
		return m.input.Focus()
	case "d":
		if m.machine.Running() {
			m.errMsg = topics.ErrTimerRunning.Error()
			return nil
		}
		if m.topics.Selected() == "" {
			return nil
		}
		m.mode = modeConfirmRemove
	case "f":
		m.adjust(model.PhaseFocus, 1)
	case "F":
		m.adjust(model.PhaseFocus, -1)
	case "b":
		m.adjust(model.PhaseShortBreak, 1)
	case "B":
		m.adjust(model.PhaseShortBreak, -1)
	case "l":
		m.adjust(model.PhaseLongBreak, 1)
	case "L":
		m.adjust(model.PhaseLongBreak, -1)
	case "r":
		m.changeTopic(m.topics.Reload(ctx))
		m.footerDirty = true
	case "c":
		if m.chat == nil {
			m.errMsg = "chat is not configured"
			return nil
		}
		m.mode = modeChat
		return m.chat.input.Focus()
	}
	return nil
}

func (m *Model) handleAddKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeTimer
		m.input.Blur()
		return nil
	case tea.KeyEnter:
		name := m.input.Value()
		m.mode = modeTimer
		m.input.Blur()
		m.changeTopic(m.topics.Add(context.Background(), name))
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		m.mode = modeTimer
		m.changeTopic(m.topics.Remove(context.Background(), m.topics.Selected()))
	case "n", "N", "esc":
		m.mode = modeTimer
	}
	return nil
}

func (m *Model) handleChatKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeTimer
		m.chat.input.Blur()
		return nil
	case tea.KeyEnter:
		return m.chat.send(m.topics.Selected())
	}
	var cmd tea.Cmd
	m.chat.input, cmd = m.chat.input.Update(msg)
	return cmd
}

func (m *Model) start() tea.Cmd {
	m.machine.SetTopic(m.topics.Selected())
	token, err := m.machine.Start()
	if err != nil {
		m.errMsg = err.Error()
		return nil
	}
	m.errMsg = ""
	m.status = ""
	if token == m.token {
		return nil
	}
	m.token = token
	return tickCmd(token)
}

func (m *Model) pause() {
	m.machine.Pause()
	m.token = 0
}

// changeTopic applies the outcome of a registry edit.
func (m *Model) changeTopic(err error) {
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.machine.SetTopic(m.topics.Selected())
	if m.chat != nil {
		m.chat.reset()
	}
}

// adjust changes one phase length by delta minutes and persists it.
func (m *Model) adjust(phase model.Phase, delta int) {
	if m.machine.Running() {
		m.errMsg = "pause the timer to change durations"
		return
	}
	d := m.machine.State().Durations
	var key string
	var target *int
	switch phase {
	case model.PhaseFocus:
		key, target = model.SettingFocusSeconds, &d.Focus
	case model.PhaseShortBreak:
		key, target = model.SettingShortBreakSeconds, &d.ShortBreak
	default:
		key, target = model.SettingLongBreakSeconds, &d.LongBreak
	}
	next := *target + delta*60
	if next < 60 {
		next = 60
	}
	*target = next
	if err := m.machine.SetDurations(d); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	if m.opts.Settings == nil {
		return
	}
	if err := m.opts.Settings.SetSetting(context.Background(), key, strconv.Itoa(next)); err != nil {
		logErrf("failed to save %s: %v\n", key, err)
	}
}

func (m *Model) loadFooterStats() {
	if m.opts.Sessions == nil {
		return
	}
	sessions, err := m.opts.Sessions.LoadAll(context.Background(), m.opts.Scope)
	if err != nil {
		logErrf("failed to load session stats: %v\n", err)
		return
	}
	now := m.opts.Now()
	m.todayMinutes = statsPkg.TodayMinutes(sessions, now)
	m.progress = statsPkg.ComputeProgress(statsPkg.LifetimeMinutes(sessions), m.todayMinutes)
}

// View implements tea.Model.
func (m *Model) View() string {
	content := m.renderTimer()
	if m.mode == modeChat && m.chat != nil {
		width := m.width - 4
		if width > 80 {
			width = 80
		}
		height := m.height / 2
		content += "\n\n" + m.chat.render(m.styles, width, height)
	}
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderTimer() string {
	st := m.machine.State()
	phaseStyle := m.styles.rest
	if st.Phase == model.PhaseFocus || st.Phase == model.PhaseIdle {
		phaseStyle = m.styles.focus
	}
	label := strings.ToUpper(st.Phase.String())
	if st.Phase != model.PhaseIdle && !st.Running {
		label += " (paused)"
	}
	clock := formatClock(st.Remaining)
	if st.Running && st.Remaining <= timer.LowTimeSeconds {
		clock = m.styles.err.Render(clock)
	} else {
		clock = m.styles.clock.Render(clock)
	}

	lines := []string{
		m.styles.title.Render("focusflow"),
		"",
		phaseStyle.Render(label),
		clock,
		m.styles.muted.Render(cycleDots(st.Cycle)),
		"",
		m.renderTopics(),
	}
	if st.Phase != model.PhaseIdle && st.FocusTopic != "" && st.FocusTopic != m.topics.Selected() {
		lines = append(lines, m.styles.muted.Render("studying "+st.FocusTopic))
	}
	lines = append(lines, "", m.renderPrompt())
	return strings.Join(lines, "\n")
}

func (m *Model) renderTopics() string {
	names := m.topics.List()
	if len(names) == 0 {
		return m.styles.muted.Render("no topics, press a to add one")
	}
	selected := m.topics.Selected()
	parts := make([]string, 0, len(names))
	for _, name := range names {
		if name == selected {
			parts = append(parts, m.styles.selected.Render(name))
			continue
		}
		parts = append(parts, m.styles.muted.Render(name))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderPrompt() string {
	switch m.mode {
	case modeAddTopic:
		return m.input.View()
	case modeConfirmRemove:
		return m.styles.warn.Render(fmt.Sprintf("Remove %q? (y/n)", m.topics.Selected()))
	}
	if m.errMsg != "" {
		return m.styles.err.Render(m.errMsg)
	}
	if m.status != "" {
		return m.styles.text.Render(m.status)
	}
	d := m.machine.State().Durations
	return m.styles.muted.Render(fmt.Sprintf("focus %d · short %d · long %d min",
		d.Focus/60, d.ShortBreak/60, d.LongBreak/60))
}

func (m *Model) renderFooter() string {
	segments := []string{
		fmt.Sprintf("Today %d min", m.todayMinutes),
		fmt.Sprintf("Level %d · %d/%d XP", m.progress.Level, m.progress.XPIntoLevel, statsPkg.XPPerLevel),
	}
	switch m.mode {
	case modeChat:
		segments = append(segments, "enter send · esc close")
	case modeTimer:
		segments = append(segments, "space start/pause · e end · tab topic · a add · d delete · r reload · c chat · q quit")
	}
	return m.styles.footer.Render(strings.Join(segments, "  "))
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func cycleDots(cycle int) string {
	var b strings.Builder
	for i := 0; i < timer.CyclesPerLongBreak; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		if i < cycle {
			b.WriteString("●")
		} else {
			b.WriteString("○")
		}
	}
	return b.String()
}
