// Package timer implements the Pomodoro focus/break state machine.
package timer

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/verte-zerg/focusflow/internal/model"
)

// CyclesPerLongBreak is the number of focus phases before a long break.
const CyclesPerLongBreak = 4

// LowTimeSeconds is the remaining-time window that raises LowTime events.
const LowTimeSeconds = 5

// ErrNoTopic is returned when a focus phase would start without a topic.
var ErrNoTopic = errors.New("select a topic before starting")

// Recorder receives completed focus sessions.
type Recorder interface {
	Record(ctx context.Context, rec model.Session) error
}

// Event reports something that happened during Tick or End.
type Event int

// Events.
const (
	EventLowTime Event = iota + 1
	EventPhaseComplete
	EventSessionRecorded
)

// Config configures a Machine.
type Config struct {
	Durations model.Durations
	Clock     Clock
	Recorder  Recorder
	// Logf receives persistence failures; recording is best-effort.
	Logf func(format string, args ...any)
}

// State is a snapshot of the machine.
type State struct {
	Phase      model.Phase
	Remaining  int
	Cycle      int
	Running    bool
	Topic      string
	FocusTopic string
	Durations  model.Durations
}

// Machine is the timer state machine. The zero value is not usable; call New.
type Machine struct {
	mu         sync.Mutex
	clock      Clock
	recorder   Recorder
	logf       func(format string, args ...any)
	durations  model.Durations
	phase      model.Phase
	remaining  int
	cycle      int
	running    bool
	generation uint64
	topic      string
	focusTopic string
	startedAt  time.Time
}

// New returns an idle machine.
func New(cfg Config) (*Machine, error) {
	if cfg.Durations == (model.Durations{}) {
		cfg.Durations = model.DefaultDurations()
	}
	if err := cfg.Durations.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Logf == nil {
		cfg.Logf = func(string, ...any) {}
	}
	return &Machine{
		clock:     cfg.Clock,
		recorder:  cfg.Recorder,
		logf:      cfg.Logf,
		durations: cfg.Durations,
		phase:     model.PhaseIdle,
		remaining: cfg.Durations.Focus,
	}, nil
}

// SetTopic sets the topic used by the next focus phase.
func (m *Machine) SetTopic(topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topic = topic
}

// Running reports whether the countdown is active.
func (m *Machine) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// State returns a snapshot.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{
		Phase:      m.phase,
		Remaining:  m.remaining,
		Cycle:      m.cycle,
		Running:    m.running,
		Topic:      m.topic,
		FocusTopic: m.focusTopic,
		Durations:  m.durations,
	}
}

// Start resumes or begins the countdown and returns its generation token.
// Calling Start while running returns the live token unchanged.
func (m *Machine) Start() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return m.generation, nil
	}
	phase := m.phase
	if phase == model.PhaseIdle {
		phase = model.PhaseFocus
	}
	if phase == model.PhaseFocus && m.startedAt.IsZero() {
		if m.topic == "" {
			return 0, ErrNoTopic
		}
		m.focusTopic = m.topic
		m.startedAt = m.clock.Now()
	}
	m.phase = phase
	m.running = true
	m.generation++
	return m.generation, nil
}

// Pause stops the countdown and keeps the remaining time.
func (m *Machine) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	m.generation++
}

// Tick advances the countdown by one second. Stale tokens are ignored.
func (m *Machine) Tick(ctx context.Context, token uint64) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running || token != m.generation {
		return nil
	}
	m.remaining--
	if m.remaining < 0 {
		m.remaining = 0
	}
	if m.remaining > 0 {
		if m.remaining <= LowTimeSeconds {
			return []Event{EventLowTime}
		}
		return nil
	}
	return m.completeLocked(ctx)
}

func (m *Machine) completeLocked(ctx context.Context) []Event {
	events := []Event{EventPhaseComplete}
	switch m.phase {
	case model.PhaseFocus:
		if m.recordLocked(ctx) {
			events = append(events, EventSessionRecorded)
		}
		m.cycle++
		if m.cycle >= CyclesPerLongBreak {
			m.phase = model.PhaseLongBreak
			m.remaining = m.durations.LongBreak
		} else {
			m.phase = model.PhaseShortBreak
			m.remaining = m.durations.ShortBreak
		}
	case model.PhaseShortBreak:
		if m.topic == "" {
			// No topic to record against; wait in idle, keeping the cycle count.
			m.phase = model.PhaseIdle
			m.remaining = m.durations.Focus
			m.running = false
			m.generation++
			break
		}
		m.phase = model.PhaseFocus
		m.remaining = m.durations.Focus
		m.focusTopic = m.topic
		m.startedAt = m.clock.Now()
	case model.PhaseLongBreak:
		m.phase = model.PhaseIdle
		m.remaining = m.durations.Focus
		m.cycle = 0
		m.running = false
		m.generation++
	}
	return events
}

// End stops everything. An in-progress focus phase is recorded first.
func (m *Machine) End(ctx context.Context) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var events []Event
	if m.phase == model.PhaseFocus && !m.startedAt.IsZero() {
		if m.recordLocked(ctx) {
			events = append(events, EventSessionRecorded)
		}
	}
	m.phase = model.PhaseIdle
	m.remaining = m.durations.Focus
	m.cycle = 0
	m.running = false
	m.generation++
	return events
}

// SetDurations replaces the phase lengths. The remaining time follows only
// when the machine is idle (focus) or inside the matching break.
func (m *Machine) SetDurations(d model.Durations) error {
	if err := d.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old := m.durations
	m.durations = d
	switch m.phase {
	case model.PhaseIdle:
		if d.Focus != old.Focus {
			m.remaining = d.Focus
		}
	case model.PhaseShortBreak:
		if d.ShortBreak != old.ShortBreak {
			m.remaining = d.ShortBreak
		}
	case model.PhaseLongBreak:
		if d.LongBreak != old.LongBreak {
			m.remaining = d.LongBreak
		}
	}
	return nil
}

// recordLocked writes the focus session and clears the start marker.
func (m *Machine) recordLocked(ctx context.Context) bool {
	topic := m.focusTopic
	elapsed := int(math.Round(m.clock.Now().Sub(m.startedAt).Seconds()))
	if elapsed <= 0 {
		elapsed = m.durations.Focus
	}
	m.startedAt = time.Time{}
	m.focusTopic = ""
	if topic == "" || m.recorder == nil {
		return false
	}
	rec := model.Session{Topic: topic, Timestamp: m.clock.Now().UnixMilli(), Duration: elapsed}
	if err := m.recorder.Record(ctx, rec); err != nil {
		m.logf("record session: %v", err)
		return false
	}
	return true
}
