// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// GuestScope is the session scope used when nobody is logged in.
const GuestScope = "guest"

// Default phase lengths in seconds.
const (
	DefaultFocusSeconds      = 25 * 60
	DefaultShortBreakSeconds = 5 * 60
	DefaultLongBreakSeconds  = 15 * 60
)

// UserScope returns the session scope for a user id.
func UserScope(userID string) string {
	if userID == "" {
		return GuestScope
	}
	return "user:" + userID
}

// Phase is a timer phase.
type Phase int

// Timer phases.
const (
	PhaseIdle Phase = iota
	PhaseFocus
	PhaseShortBreak
	PhaseLongBreak
)

func (p Phase) String() string {
	switch p {
	case PhaseFocus:
		return "focus"
	case PhaseShortBreak:
		return "short break"
	case PhaseLongBreak:
		return "long break"
	default:
		return "idle"
	}
}

// Durations holds the three phase lengths in seconds.
type Durations struct {
	Focus      int
	ShortBreak int
	LongBreak  int
}

// DefaultDurations returns the classic 25/5/15 minute setup.
func DefaultDurations() Durations {
	return Durations{
		Focus:      DefaultFocusSeconds,
		ShortBreak: DefaultShortBreakSeconds,
		LongBreak:  DefaultLongBreakSeconds,
	}
}

// Validate reports whether every length is positive.
func (d Durations) Validate() error {
	if d.Focus <= 0 {
		return fmt.Errorf("focus duration must be > 0")
	}
	if d.ShortBreak <= 0 {
		return fmt.Errorf("short break duration must be > 0")
	}
	if d.LongBreak <= 0 {
		return fmt.Errorf("long break duration must be > 0")
	}
	return nil
}

// Session is one completed (or manually ended) focus interval.
type Session struct {
	Topic     string `json:"topic" yaml:"topic" db:"topic"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp" db:"timestamp_ms"`
	Duration  int    `json:"duration" yaml:"duration" db:"duration"`
}

// Time returns the record timestamp in local time.
func (s Session) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Valid reports whether the record can be stored.
func (s Session) Valid() bool {
	return s.Topic != "" && s.Duration > 0
}

// Course groups study materials.
type Course struct {
	ID          string `json:"id" yaml:"id" db:"id"`
	Title       string `json:"title" yaml:"title" db:"title"`
	Description string `json:"description" yaml:"description" db:"description"`
	CreatedAt   int64  `json:"createdAt" yaml:"created_at" db:"created_at"`
}

// Material is a link or an uploaded file attached to a course.
type Material struct {
	ID        string `json:"id" yaml:"id" db:"id"`
	CourseID  string `json:"courseId" yaml:"course_id" db:"course_id"`
	Title     string `json:"title" yaml:"title" db:"title"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty" db:"url"`
	FileName  string `json:"name,omitempty" yaml:"name,omitempty" db:"file_name"`
	MIME      string `json:"type,omitempty" yaml:"type,omitempty" db:"mime"`
	Size      int64  `json:"size,omitempty" yaml:"size,omitempty" db:"size"`
	Pages     int    `json:"pages,omitempty" yaml:"pages,omitempty" db:"pages"`
	Data      string `json:"data,omitempty" yaml:"-" db:"data"`
	CreatedAt int64  `json:"createdAt" yaml:"created_at" db:"created_at"`
}

// IsFile reports whether the material carries uploaded file data.
func (m Material) IsFile() bool {
	return m.Data != ""
}

// Settings keys shared by the CLI and the TUI.
const (
	SettingFocusSeconds      = "timer-focus-seconds"
	SettingShortBreakSeconds = "timer-short-break-seconds"
	SettingLongBreakSeconds  = "timer-long-break-seconds"
	SettingCurrentUser       = "current-user"
	SettingCurrentEmail      = "current-user-email"
)
