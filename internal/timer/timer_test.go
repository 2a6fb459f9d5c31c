package timer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/focusflow/internal/model"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type memRecorder struct {
	sessions []model.Session
	err      error
}

func (r *memRecorder) Record(_ context.Context, rec model.Session) error {
	if r.err != nil {
		return r.err
	}
	r.sessions = append(r.sessions, rec)
	return nil
}

func newTestMachine(t *testing.T, d model.Durations) (*Machine, *fakeClock, *memRecorder) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)}
	rec := &memRecorder{}
	m, err := New(Config{Durations: d, Clock: clock, Recorder: rec})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	m.SetTopic("Physics")
	return m, clock, rec
}

// run ticks n seconds, advancing the clock in step.
func run(m *Machine, clock *fakeClock, token uint64, n int) []Event {
	var all []Event
	for i := 0; i < n; i++ {
		clock.advance(time.Second)
		all = append(all, m.Tick(context.Background(), token)...)
	}
	return all
}

func hasEvent(events []Event, want Event) bool {
	for _, e := range events {
		if e == want {
			return true
		}
	}
	return false
}

func TestStartRequiresTopic(t *testing.T) {
	m, err := New(Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := m.Start(); !errors.Is(err, ErrNoTopic) {
		t.Fatalf("start err = %v, want ErrNoTopic", err)
	}
	if st := m.State(); st.Running || st.Phase != model.PhaseIdle || st.Remaining != model.DefaultFocusSeconds {
		t.Fatalf("state after failed start = %+v", st)
	}
}

func TestFocusCompletesIntoShortBreakAndRecords(t *testing.T) {
	m, clock, rec := newTestMachine(t, model.Durations{Focus: 10, ShortBreak: 3, LongBreak: 6})
	token, err := m.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	events := run(m, clock, token, 10)
	if !hasEvent(events, EventLowTime) || !hasEvent(events, EventPhaseComplete) || !hasEvent(events, EventSessionRecorded) {
		t.Fatalf("events = %v", events)
	}
	st := m.State()
	if st.Phase != model.PhaseShortBreak || st.Remaining != 3 || st.Cycle != 1 || !st.Running {
		t.Fatalf("state = %+v", st)
	}
	if len(rec.sessions) != 1 || rec.sessions[0].Topic != "Physics" || rec.sessions[0].Duration != 10 {
		t.Fatalf("sessions = %+v", rec.sessions)
	}
}

func TestFourthFocusLeadsToLongBreakThenIdle(t *testing.T) {
	m, clock, rec := newTestMachine(t, model.Durations{Focus: 2, ShortBreak: 1, LongBreak: 3})
	token, err := m.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 3; i++ {
		run(m, clock, token, 2)
		if st := m.State(); st.Phase != model.PhaseShortBreak {
			t.Fatalf("cycle %d phase = %v", i, st.Phase)
		}
		run(m, clock, token, 1)
		if st := m.State(); st.Phase != model.PhaseFocus {
			t.Fatalf("cycle %d phase after break = %v", i, st.Phase)
		}
	}
	run(m, clock, token, 2)
	st := m.State()
	if st.Phase != model.PhaseLongBreak || st.Cycle != 4 || st.Remaining != 3 {
		t.Fatalf("state = %+v", st)
	}
	run(m, clock, token, 3)
	st = m.State()
	if st.Phase != model.PhaseIdle || st.Cycle != 0 || st.Running || st.Remaining != 2 {
		t.Fatalf("state after long break = %+v", st)
	}
	if len(rec.sessions) != 4 {
		t.Fatalf("recorded %d sessions, want 4", len(rec.sessions))
	}
	if events := m.Tick(context.Background(), token); events != nil {
		t.Fatalf("tick after long break = %v", events)
	}
}

func TestShortBreakWithoutTopicStopsInIdle(t *testing.T) {
	m, clock, rec := newTestMachine(t, model.Durations{Focus: 2, ShortBreak: 2, LongBreak: 3})
	token, err := m.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	run(m, clock, token, 2)
	m.Pause()
	m.SetTopic("")
	token, err = m.Start()
	if err != nil {
		t.Fatalf("resume break: %v", err)
	}
	events := run(m, clock, token, 2)
	if !hasEvent(events, EventPhaseComplete) {
		t.Fatalf("events = %v", events)
	}
	st := m.State()
	if st.Phase != model.PhaseIdle || st.Running || st.Cycle != 1 || st.Remaining != 2 || st.FocusTopic != "" {
		t.Fatalf("state after break = %+v", st)
	}
	if events := run(m, clock, token, 2); events != nil {
		t.Fatalf("ticks after stop = %v", events)
	}
	if _, err := m.Start(); !errors.Is(err, ErrNoTopic) {
		t.Fatalf("start err = %v, want ErrNoTopic", err)
	}

	m.SetTopic("Chemistry")
	token, err = m.Start()
	if err != nil {
		t.Fatalf("start with topic: %v", err)
	}
	run(m, clock, token, 2)
	st = m.State()
	if st.Phase != model.PhaseShortBreak || st.Cycle != 2 {
		t.Fatalf("state after second focus = %+v", st)
	}
	if len(rec.sessions) != 2 || rec.sessions[1].Topic != "Chemistry" {
		t.Fatalf("sessions = %+v", rec.sessions)
	}
}

func TestPauseInvalidatesToken(t *testing.T) {
	m, clock, _ := newTestMachine(t, model.Durations{Focus: 10, ShortBreak: 3, LongBreak: 6})
	token, err := m.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	run(m, clock, token, 2)
	m.Pause()
	run(m, clock, token, 3)
	if st := m.State(); st.Remaining != 8 || st.Running || st.Phase != model.PhaseFocus {
		t.Fatalf("state after pause = %+v", st)
	}
	again, err := m.Start()
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if again == token {
		t.Fatalf("resume reused stale token")
	}
	same, err := m.Start()
	if err != nil || same != again {
		t.Fatalf("double start token = %d (%v), want %d", same, err, again)
	}
	run(m, clock, token, 1)
	run(m, clock, again, 1)
	if st := m.State(); st.Remaining != 7 {
		t.Fatalf("remaining = %d, want 7", st.Remaining)
	}
}

func TestEndRecordsElapsedFocus(t *testing.T) {
	m, clock, rec := newTestMachine(t, model.Durations{Focus: 1500, ShortBreak: 300, LongBreak: 900})
	token, err := m.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	run(m, clock, token, 90)
	m.Pause()
	clock.advance(30 * time.Second)
	events := m.End(context.Background())
	if !hasEvent(events, EventSessionRecorded) {
		t.Fatalf("end events = %v", events)
	}
	// Elapsed is wall time since start, pauses included.
	if len(rec.sessions) != 1 || rec.sessions[0].Duration != 120 {
		t.Fatalf("sessions = %+v", rec.sessions)
	}
	st := m.State()
	if st.Phase != model.PhaseIdle || st.Remaining != 1500 || st.Cycle != 0 || st.Running {
		t.Fatalf("state after end = %+v", st)
	}
}

func TestEndWithZeroElapsedUsesFocusLength(t *testing.T) {
	m, _, rec := newTestMachine(t, model.Durations{Focus: 600, ShortBreak: 300, LongBreak: 900})
	if _, err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	m.End(context.Background())
	if len(rec.sessions) != 1 || rec.sessions[0].Duration != 600 {
		t.Fatalf("sessions = %+v", rec.sessions)
	}
}

func TestEndOutsideFocusRecordsNothing(t *testing.T) {
	m, clock, rec := newTestMachine(t, model.Durations{Focus: 2, ShortBreak: 5, LongBreak: 6})
	token, err := m.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	run(m, clock, token, 2)
	m.End(context.Background())
	m.End(context.Background())
	if len(rec.sessions) != 1 {
		t.Fatalf("sessions = %+v", rec.sessions)
	}
}

func TestRecordFailureIsLoggedNotFatal(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	var logged []string
	m, err := New(Config{
		Durations: model.Durations{Focus: 1, ShortBreak: 1, LongBreak: 1},
		Clock:     clock,
		Recorder:  &memRecorder{err: errors.New("disk full")},
		Logf:      func(format string, _ ...any) { logged = append(logged, format) },
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	m.SetTopic("Art")
	token, err := m.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	events := run(m, clock, token, 1)
	if hasEvent(events, EventSessionRecorded) {
		t.Fatalf("unexpected recorded event")
	}
	if len(logged) != 1 {
		t.Fatalf("logged = %v", logged)
	}
	if st := m.State(); st.Phase != model.PhaseShortBreak {
		t.Fatalf("phase = %v", st.Phase)
	}
}

func TestTopicCapturedAtFocusStart(t *testing.T) {
	m, clock, rec := newTestMachine(t, model.Durations{Focus: 3, ShortBreak: 1, LongBreak: 1})
	token, err := m.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	m.SetTopic("History")
	run(m, clock, token, 3)
	if len(rec.sessions) != 1 || rec.sessions[0].Topic != "Physics" {
		t.Fatalf("sessions = %+v", rec.sessions)
	}
	run(m, clock, token, 1)
	run(m, clock, token, 3)
	if len(rec.sessions) != 2 || rec.sessions[1].Topic != "History" {
		t.Fatalf("sessions = %+v", rec.sessions)
	}
}

func TestSetDurations(t *testing.T) {
	m, clock, _ := newTestMachine(t, model.Durations{Focus: 10, ShortBreak: 4, LongBreak: 6})
	if err := m.SetDurations(model.Durations{Focus: 0, ShortBreak: 1, LongBreak: 1}); err == nil {
		t.Fatalf("expected validation error")
	}
	if err := m.SetDurations(model.Durations{Focus: 20, ShortBreak: 4, LongBreak: 6}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if st := m.State(); st.Remaining != 20 {
		t.Fatalf("idle remaining = %d, want 20", st.Remaining)
	}
	token, err := m.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	run(m, clock, token, 5)
	if err := m.SetDurations(model.Durations{Focus: 30, ShortBreak: 4, LongBreak: 6}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if st := m.State(); st.Remaining != 15 {
		t.Fatalf("focus remaining = %d, want 15", st.Remaining)
	}
	run(m, clock, token, 15)
	if err := m.SetDurations(model.Durations{Focus: 30, ShortBreak: 9, LongBreak: 6}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if st := m.State(); st.Phase != model.PhaseShortBreak || st.Remaining != 9 {
		t.Fatalf("break state = %+v", st)
	}
}
