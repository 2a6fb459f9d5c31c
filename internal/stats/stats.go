package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/verte-zerg/focusflow/internal/model"
)

const progressBarWidth = 20

// RenderOptions controls text rendering.
type RenderOptions struct {
	Width      int
	ForceColor bool
}

// RenderReport prints every section of the report.
func RenderReport(w io.Writer, r Report, opts RenderOptions) error {
	steps := []func() error{
		func() error { return RenderSummary(w, r) },
		func() error { return RenderTopics(w, r.Topics) },
		func() error { return RenderWeek(w, r.Week, opts) },
		func() error { return RenderBadges(w, r.Progress) },
		func() error { return RenderRecent(w, r.Recent) },
	}
	for i, step := range steps {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// RenderSummary prints the profile numbers.
func RenderSummary(w io.Writer, r Report) error {
	p := r.Progress
	lines := []string{
		"Profile",
		fmt.Sprintf("Level: %d (%s)", p.Level, p.Avatar),
		fmt.Sprintf("XP: %d/%d %s %d to next level", p.XPIntoLevel, XPPerLevel, ProgressBar(float64(p.XPIntoLevel)/XPPerLevel, progressBarWidth), p.XPToNextLevel),
		fmt.Sprintf("Today: %d min, %d/%d XP %s", r.TodayMinutes, p.TodayXP, DailyGoalXP, ProgressBar(p.DailyGoal, progressBarWidth)),
		fmt.Sprintf("Lifetime: %d min over %d sessions", r.LifetimeMinutes, r.Sessions),
		fmt.Sprintf("Badges: %d/%d", p.EarnedCount(), len(p.Badges)),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTopics prints the per-topic table.
func RenderTopics(w io.Writer, topics []TopicStat) error {
	if _, err := fmt.Fprintln(w, "Topics"); err != nil {
		return err
	}
	if len(topics) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	rows := make([][]string, 0, len(topics))
	for _, t := range topics {
		rows = append(rows, []string{t.Topic, fmt.Sprintf("%d", t.Count), fmt.Sprintf("%d", t.Minutes)})
	}
	for _, line := range formatTable([]string{"Topic", "Sessions", "Minutes"}, rows, map[int]bool{1: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderWeek prints the weekday chart and the week's topic counts.
func RenderWeek(w io.Writer, week WeekSummary, opts RenderOptions) error {
	title := fmt.Sprintf("This week (%s - %s)", week.Start.Format("Jan 2"), week.End.Add(-time.Nanosecond).Format("Jan 2"))
	bars := make([]Bar, 0, len(week.Days))
	for _, d := range week.Days {
		bars = append(bars, Bar{Label: d.Day, Value: d.Minutes})
	}
	if err := RenderBars(w, title, bars, "min", opts.Width, opts.ForceColor); err != nil {
		return err
	}
	if len(week.Topics) == 0 {
		return nil
	}
	parts := make([]string, 0, len(week.Topics))
	for _, t := range week.Topics {
		parts = append(parts, fmt.Sprintf("%s %d", t.Topic, t.Count))
	}
	_, err := fmt.Fprintf(w, "Sessions: %s\n", strings.Join(parts, ", "))
	return err
}

// RenderBadges prints the badge list.
func RenderBadges(w io.Writer, p Progress) error {
	if _, err := fmt.Fprintln(w, "Badges"); err != nil {
		return err
	}
	for _, b := range p.Badges {
		mark := "[ ]"
		if b.Earned {
			mark = "[x]"
		}
		if _, err := fmt.Fprintf(w, "%s %s: %s\n", mark, b.Label, b.Description); err != nil {
			return err
		}
	}
	return nil
}

// RenderRecent prints the most recent sessions.
func RenderRecent(w io.Writer, recent []model.Session) error {
	if _, err := fmt.Fprintln(w, "Recent sessions"); err != nil {
		return err
	}
	if len(recent) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	rows := make([][]string, 0, len(recent))
	for _, s := range recent {
		rows = append(rows, []string{
			s.Time().Format("2006-01-02 15:04"),
			s.Topic,
			FormatDuration(s.Duration),
		})
	}
	for _, line := range formatTable([]string{"When", "Topic", "Duration"}, rows, map[int]bool{2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// ProgressBar renders a fraction in [0,1] as a fixed-width bar.
func ProgressBar(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// FormatDuration renders seconds as "Xm Ys" or "Ys".
func FormatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds%60 == 0 {
		return fmt.Sprintf("%dm", seconds/60)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
