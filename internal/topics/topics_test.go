package topics

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type memBackend struct {
	names    []string
	settings map[string]string
	saves    int
}

func newMemBackend() *memBackend {
	return &memBackend{settings: map[string]string{}}
}

func (m *memBackend) Topics(context.Context) ([]string, error) {
	return append([]string{}, m.names...), nil
}

func (m *memBackend) SaveTopics(_ context.Context, names []string) error {
	m.names = append([]string{}, names...)
	m.saves++
	return nil
}

func (m *memBackend) Setting(_ context.Context, key string) (string, bool, error) {
	v, ok := m.settings[key]
	return v, ok, nil
}

func (m *memBackend) SetSetting(_ context.Context, key, value string) error {
	m.settings[key] = value
	return nil
}

func TestOpenSeedsDefaultsOnce(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	reg, err := Open(ctx, backend, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !reflect.DeepEqual(reg.List(), DefaultTopics) {
		t.Fatalf("topics = %v", reg.List())
	}
	if reg.Selected() != DefaultTopics[0] {
		t.Fatalf("selected = %q", reg.Selected())
	}

	for _, name := range DefaultTopics {
		if err := reg.Remove(ctx, name); err != nil {
			t.Fatalf("remove %q: %v", name, err)
		}
	}
	if reg.Selected() != "" {
		t.Fatalf("selected after emptying = %q", reg.Selected())
	}
	reopened, err := Open(ctx, backend, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if len(reopened.List()) != 0 {
		t.Fatalf("emptied registry was reseeded: %v", reopened.List())
	}
}

func TestAddTrimsDeduplicatesAndSelects(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	reg, err := Open(ctx, backend, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := reg.Add(ctx, "   "); !errors.Is(err, ErrEmptyTopic) {
		t.Fatalf("blank add err = %v", err)
	}
	if err := reg.Add(ctx, "  Chemistry "); err != nil {
		t.Fatalf("add: %v", err)
	}
	if reg.Selected() != "Chemistry" {
		t.Fatalf("selected = %q", reg.Selected())
	}
	saves := backend.saves
	if err := reg.Add(ctx, "History"); err != nil {
		t.Fatalf("add existing: %v", err)
	}
	if backend.saves != saves {
		t.Fatalf("existing topic was saved again")
	}
	if reg.Selected() != "History" {
		t.Fatalf("selected = %q", reg.Selected())
	}
	if err := reg.Add(ctx, "history"); err != nil {
		t.Fatalf("add different case: %v", err)
	}
	list := reg.List()
	if list[len(list)-1] != "history" || len(list) != len(DefaultTopics)+2 {
		t.Fatalf("topics = %v", list)
	}
	if backend.settings[SelectedKey] != "history" {
		t.Fatalf("persisted selection = %q", backend.settings[SelectedKey])
	}
}

func TestRemoveSelectedPicksFirst(t *testing.T) {
	ctx := context.Background()
	reg, err := Open(ctx, newMemBackend(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := reg.Select(ctx, "Physics"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := reg.Remove(ctx, "Physics"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if reg.Selected() != "Mathematics" {
		t.Fatalf("selected = %q", reg.Selected())
	}
	if err := reg.Remove(ctx, "History"); err != nil {
		t.Fatalf("remove unselected: %v", err)
	}
	if reg.Selected() != "Mathematics" {
		t.Fatalf("selection changed to %q", reg.Selected())
	}
	if err := reg.Select(ctx, "Nope"); !errors.Is(err, ErrUnknownTopic) {
		t.Fatalf("select unknown err = %v", err)
	}
}

func TestEditsBlockedWhileRunning(t *testing.T) {
	ctx := context.Background()
	running := false
	reg, err := Open(ctx, newMemBackend(), func() bool { return running })
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	running = true
	before := reg.List()
	if err := reg.Add(ctx, "Art"); !errors.Is(err, ErrTimerRunning) {
		t.Fatalf("add err = %v", err)
	}
	if err := reg.Remove(ctx, "History"); !errors.Is(err, ErrTimerRunning) {
		t.Fatalf("remove err = %v", err)
	}
	if err := reg.Cycle(ctx, 1); !errors.Is(err, ErrTimerRunning) {
		t.Fatalf("cycle err = %v", err)
	}
	if !reflect.DeepEqual(reg.List(), before) {
		t.Fatalf("list changed while running")
	}
}

func TestCycleWraps(t *testing.T) {
	ctx := context.Background()
	reg, err := Open(ctx, newMemBackend(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := reg.Cycle(ctx, -1); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if reg.Selected() != "Languages" {
		t.Fatalf("selected = %q", reg.Selected())
	}
	if err := reg.Cycle(ctx, 2); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if reg.Selected() != "History" {
		t.Fatalf("selected = %q", reg.Selected())
	}
}
