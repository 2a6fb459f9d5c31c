package stats

import (
	"math"
	"time"

	"github.com/verte-zerg/focusflow/internal/model"
)

// RecentLimit is the number of sessions shown in the recent list.
const RecentLimit = 50

// Weekdays lists the day labels of a Monday-first week.
var Weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// TopicStat aggregates the sessions of one topic.
type TopicStat struct {
	Topic   string `json:"topic" yaml:"topic"`
	Count   int    `json:"count" yaml:"count"`
	Seconds int    `json:"seconds" yaml:"seconds"`
	Minutes int    `json:"minutes" yaml:"minutes"`
}

// DayStat holds the focused minutes of one weekday.
type DayStat struct {
	Day     string `json:"day" yaml:"day"`
	Minutes int    `json:"minutes" yaml:"minutes"`
}

// WeekSummary covers the calendar week (Monday to Sunday) containing now.
type WeekSummary struct {
	Start  time.Time    `json:"start" yaml:"start"`
	End    time.Time    `json:"end" yaml:"end"`
	Topics []TopicCount `json:"topics" yaml:"topics"`
	Days   []DayStat    `json:"days" yaml:"days"`
}

// TopicCount is the number of sessions of a topic in a window.
type TopicCount struct {
	Topic string `json:"topic" yaml:"topic"`
	Count int    `json:"count" yaml:"count"`
}

// ByTopic groups sessions by topic in first-seen order. Non-positive
// durations count as one default focus phase.
func ByTopic(sessions []model.Session) []TopicStat {
	out := []TopicStat{}
	index := map[string]int{}
	for _, s := range sessions {
		seconds := s.Duration
		if seconds <= 0 {
			seconds = model.DefaultFocusSeconds
		}
		i, ok := index[s.Topic]
		if !ok {
			i = len(out)
			index[s.Topic] = i
			out = append(out, TopicStat{Topic: s.Topic})
		}
		out[i].Count++
		out[i].Seconds += seconds
	}
	for i := range out {
		out[i].Minutes = roundMinutes(out[i].Seconds)
	}
	return out
}

// WeekStart returns local midnight of the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Week summarizes the sessions inside the current week.
func Week(sessions []model.Session, now time.Time) WeekSummary {
	start := WeekStart(now)
	end := start.AddDate(0, 0, 7)
	daySeconds := make([]int, 7)
	topics := []TopicCount{}
	index := map[string]int{}
	for _, s := range sessions {
		ts := s.Time().In(now.Location())
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		i, ok := index[s.Topic]
		if !ok {
			i = len(topics)
			index[s.Topic] = i
			topics = append(topics, TopicCount{Topic: s.Topic})
		}
		topics[i].Count++
		if s.Duration > 0 {
			daySeconds[(int(ts.Weekday())+6)%7] += s.Duration
		}
	}
	days := make([]DayStat, 7)
	for i, label := range Weekdays {
		days[i] = DayStat{Day: label, Minutes: roundMinutes(daySeconds[i])}
	}
	return WeekSummary{Start: start, End: end, Topics: topics, Days: days}
}

// LifetimeMinutes returns whole focused minutes, at least 1 once anything was recorded.
func LifetimeMinutes(sessions []model.Session) int {
	return floorMinutes(sessions, time.Time{})
}

// TodayMinutes applies the LifetimeMinutes rule to sessions since local midnight.
func TodayMinutes(sessions []model.Session, now time.Time) int {
	return floorMinutes(sessions, startOfDay(now))
}

// Recent returns up to n sessions, newest first.
func Recent(sessions []model.Session, n int) []model.Session {
	if n <= 0 || n > len(sessions) {
		n = len(sessions)
	}
	out := make([]model.Session, 0, n)
	for i := len(sessions) - 1; i >= len(sessions)-n; i-- {
		out = append(out, sessions[i])
	}
	return out
}

func floorMinutes(sessions []model.Session, since time.Time) int {
	total := 0
	for _, s := range sessions {
		if s.Duration <= 0 {
			continue
		}
		if !since.IsZero() && s.Timestamp < since.UnixMilli() {
			continue
		}
		total += s.Duration
	}
	if total <= 0 {
		return 0
	}
	if total < 60 {
		return 1
	}
	return total / 60
}

func roundMinutes(seconds int) int {
	return int(math.Round(float64(seconds) / 60))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
