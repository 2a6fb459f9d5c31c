// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/focusflow/internal/stats"
	"github.com/verte-zerg/focusflow/internal/store"
)

const (
	tabOverview = iota
	tabTopics
	tabWeek
	tabBadges
	tabRecent
)

const pollInterval = 2 * time.Second

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	earnedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	lockedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// Source is what the stats view reads and clears.
type Source interface {
	stats.Source
	Revision(ctx context.Context, scope string) (store.Revision, error)
	ClearAll(ctx context.Context, scope string) (int64, error)
}

type pollMsg struct{}

// Model implements the Bubble Tea stats UI.
type Model struct {
	source Source
	scope  string
	label  string
	now    func() time.Time

	report   stats.Report
	revision store.Revision
	errMsg   string

	tabs        []string
	activeTab   int
	viewports   []viewport.Model
	topicTable  table.Model
	levelBar    progress.Model
	goalBar     progress.Model
	confirmMode bool

	width  int
	height int
}

// NewModel constructs a stats UI model for one scope. label names the scope in the header.
func NewModel(src Source, scope, label string) *Model {
	m := &Model{
		source:   src,
		scope:    scope,
		label:    label,
		now:      time.Now,
		tabs:     []string{"Overview", "Topics", "Week", "Badges", "Recent"},
		levelBar: progress.New(progress.WithSolidFill("#C89A3A"), progress.WithoutPercentage()),
		goalBar:  progress.New(progress.WithSolidFill("#52C41A"), progress.WithoutPercentage()),
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.topicTable = buildTopicTable(nil, 0, 1)
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return pollCmd()
}

func pollCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case pollMsg:
		m.pollRevision()
		return m, pollCmd()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.confirmMode {
			return m.updateConfirm(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h", "shift+tab":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "r":
			m.refreshReport()
			return m, nil
		case "x":
			m.confirmMode = true
			return m, nil
		case "g", "home":
			m.viewports[m.activeTab].GotoTop()
			return m, nil
		case "G", "end":
			m.viewports[m.activeTab].GotoBottom()
			return m, nil
		default:
			if m.activeTab == tabTopics {
				var cmd tea.Cmd
				m.topicTable, cmd = m.topicTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirmMode = false
		if _, err := m.source.ClearAll(context.Background(), m.scope); err != nil {
			m.errMsg = fmt.Sprintf("clear failed: %v", err)
			return m, nil
		}
		m.refreshReport()
	case "n", "N", "esc":
		m.confirmMode = false
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.confirmMode {
		modal := modalStyle.Render(fmt.Sprintf("Delete all %d sessions of %s?\n\ny: delete  n: keep", m.report.Sessions, m.label))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.topicTable.SetWidth(m.width)
	m.topicTable.SetHeight(maxInt(1, vpHeight-1))
	barWidth := minInt(40, maxInt(10, m.width-30))
	m.levelBar.Width = barWidth
	m.goalBar.Width = barWidth
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabTopics {
		m.topicTable.Focus()
	} else {
		m.topicTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	summary := fmt.Sprintf("Profile: %s  sessions=%d  updated %s", m.label, m.report.Sessions, m.report.GeneratedAt.Format("15:04:05"))
	return padLines(m.renderTabs(), m.width) + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("Nav: left/right  Scroll: up/down  Reload: r  Clear: x  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody() string {
	if m.activeTab == tabTopics {
		if len(m.report.Topics) == 0 {
			return "No sessions found."
		}
		return tableMutedStyle.Render(m.topicTable.View())
	}
	return m.viewports[m.activeTab].View()
}

// refreshReport reloads the log. Load errors leave a zero report on screen.
func (m *Model) refreshReport() {
	ctx := context.Background()
	report, err := stats.BuildReport(ctx, m.source, m.scope, m.now())
	m.report = report
	if err != nil {
		m.errMsg = err.Error()
	} else {
		m.errMsg = ""
	}
	if rev, err := m.source.Revision(ctx, m.scope); err == nil {
		m.revision = rev
	}
	m.topicTable.SetRows(topicRows(report.Topics))
	m.renderTabContents()
}

// pollRevision reloads when another process changed the log.
func (m *Model) pollRevision() {
	rev, err := m.source.Revision(context.Background(), m.scope)
	if err != nil || rev == m.revision {
		return
	}
	m.refreshReport()
}

func (m *Model) renderTabContents() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(m.renderOverview(width))
	m.viewports[tabWeek].SetContent(renderWeek(m.report.Week, width))
	m.viewports[tabBadges].SetContent(renderBadges(m.report.Progress))
	m.viewports[tabRecent].SetContent(renderRecent(m.report))
}

func (m *Model) renderOverview(width int) string {
	p := m.report.Progress
	cards := []string{
		metricCard("Level", fmt.Sprintf("%d (%s)", p.Level, p.Avatar)),
		metricCard("Lifetime XP", fmt.Sprintf("%d", p.LifetimeXP)),
		metricCard("Today", fmt.Sprintf("%d min", m.report.TodayMinutes)),
		metricCard("Total", fmt.Sprintf("%d min", m.report.LifetimeMinutes)),
		metricCard("Badges", fmt.Sprintf("%d/%d", p.EarnedCount(), len(p.Badges))),
	}
	var top string
	if width < 80 {
		top = strings.Join(cards, "\n")
	} else {
		top = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	bars := []string{
		fmt.Sprintf("Level %d  %s  %d XP to next level", p.Level, m.levelBar.ViewAs(float64(p.XPIntoLevel)/stats.XPPerLevel), p.XPToNextLevel),
		fmt.Sprintf("Daily goal  %s  %d/%d XP", m.goalBar.ViewAs(p.DailyGoal), p.TodayXP, stats.DailyGoalXP),
	}
	return top + "\n\n" + strings.Join(bars, "\n")
}

func renderWeek(week stats.WeekSummary, width int) string {
	var buf bytes.Buffer
	if err := stats.RenderWeek(&buf, week, stats.RenderOptions{Width: width, ForceColor: true}); err != nil {
		return fmt.Sprintf("Failed to render week: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderBadges(p stats.Progress) string {
	lines := make([]string, 0, len(p.Badges))
	for _, b := range p.Badges {
		if b.Earned {
			lines = append(lines, earnedStyle.Render("★ "+b.Label)+"  "+b.Description)
		} else {
			lines = append(lines, lockedStyle.Render("☆ "+b.Label+"  "+b.Description))
		}
	}
	return strings.Join(lines, "\n")
}

func renderRecent(report stats.Report) string {
	var buf bytes.Buffer
	if err := stats.RenderRecent(&buf, report.Recent); err != nil {
		return fmt.Sprintf("Failed to render sessions: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func buildTopicTable(topics []stats.TopicStat, width, height int) table.Model {
	columns := []table.Column{
		{Title: "Topic", Width: 24},
		{Title: "Sessions", Width: 9},
		{Title: "Minutes", Width: 8},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(topicRows(topics)),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(topicTableStyles())
	return t
}

func topicRows(topics []stats.TopicStat) []table.Row {
	rows := make([]table.Row, 0, len(topics))
	for _, t := range topics {
		rows = append(rows, table.Row{t.Topic, fmt.Sprintf("%d", t.Count), fmt.Sprintf("%d", t.Minutes)})
	}
	return rows
}

func topicTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
