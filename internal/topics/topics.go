// Package topics manages the user-defined list of study topics.
package topics

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Settings keys used by the registry.
const (
	SeededKey   = "topics-seeded"
	SelectedKey = "selected-topic"
)

var (
	// ErrEmptyTopic is returned when a blank name is added.
	ErrEmptyTopic = errors.New("topic name is empty")
	// ErrTimerRunning is returned when the list is edited while the timer runs.
	ErrTimerRunning = errors.New("topics cannot change while the timer is running")
	// ErrUnknownTopic is returned when selecting a topic that does not exist.
	ErrUnknownTopic = errors.New("unknown topic")
)

// DefaultTopics seeds an empty registry on first use.
var DefaultTopics = []string{"Mathematics", "History", "Physics", "Programming", "Languages"}

// Backend persists the topic list and registry settings.
type Backend interface {
	Topics(ctx context.Context) ([]string, error)
	SaveTopics(ctx context.Context, names []string) error
	Setting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Registry is an ordered, duplicate-free topic list with a selection.
type Registry struct {
	mu       sync.Mutex
	backend  Backend
	running  func() bool
	names    []string
	selected string
}

// Open loads the registry, seeding the defaults the first time.
// running reports whether the timer is active; nil means never.
func Open(ctx context.Context, backend Backend, running func() bool) (*Registry, error) {
	if running == nil {
		running = func() bool { return false }
	}
	r := &Registry{backend: backend, running: running}
	names, err := backend.Topics(ctx)
	if err != nil {
		return nil, err
	}
	_, seeded, err := backend.Setting(ctx, SeededKey)
	if err != nil {
		return nil, err
	}
	if !seeded {
		if len(names) == 0 {
			names = append([]string(nil), DefaultTopics...)
			if err := backend.SaveTopics(ctx, names); err != nil {
				return nil, err
			}
		}
		if err := backend.SetSetting(ctx, SeededKey, "1"); err != nil {
			return nil, err
		}
	}
	r.names = names
	selected, ok, err := backend.Setting(ctx, SelectedKey)
	if err != nil {
		return nil, err
	}
	if ok && r.indexOf(selected) >= 0 {
		r.selected = selected
	} else if len(names) > 0 {
		r.selected = names[0]
	}
	return r, nil
}

// List returns a copy of the ordered topics.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

// Selected returns the current selection, empty when there are no topics.
func (r *Registry) Selected() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected
}

// Add appends a topic and selects it. An existing name is only selected.
func (r *Registry) Add(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyTopic
	}
	if r.running() {
		return ErrTimerRunning
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(name) >= 0 {
		return r.selectLocked(ctx, name)
	}
	updated := append(append([]string(nil), r.names...), name)
	if err := r.backend.SaveTopics(ctx, updated); err != nil {
		return err
	}
	r.names = updated
	return r.selectLocked(ctx, name)
}

// Remove deletes a topic. Removing the selection selects the new first topic.
// Recorded sessions are not affected.
func (r *Registry) Remove(ctx context.Context, name string) error {
	if r.running() {
		return ErrTimerRunning
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(name)
	if idx < 0 {
		return nil
	}
	updated := make([]string, 0, len(r.names)-1)
	updated = append(updated, r.names[:idx]...)
	updated = append(updated, r.names[idx+1:]...)
	if err := r.backend.SaveTopics(ctx, updated); err != nil {
		return err
	}
	r.names = updated
	if r.selected != name {
		return nil
	}
	next := ""
	if len(updated) > 0 {
		next = updated[0]
	}
	return r.selectLocked(ctx, next)
}

// Select makes an existing topic current.
func (r *Registry) Select(ctx context.Context, name string) error {
	if r.running() {
		return ErrTimerRunning
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(name) < 0 {
		return ErrUnknownTopic
	}
	return r.selectLocked(ctx, name)
}

// Cycle moves the selection by delta positions, wrapping around.
func (r *Registry) Cycle(ctx context.Context, delta int) error {
	if r.running() {
		return ErrTimerRunning
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.names) == 0 {
		return nil
	}
	idx := r.indexOf(r.selected)
	if idx < 0 {
		idx = 0
	}
	n := len(r.names)
	idx = ((idx+delta)%n + n) % n
	return r.selectLocked(ctx, r.names[idx])
}

// Reload re-reads the list after an external change.
func (r *Registry) Reload(ctx context.Context) error {
	names, err := r.backend.Topics(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = names
	if r.indexOf(r.selected) < 0 {
		r.selected = ""
		if len(names) > 0 {
			r.selected = names[0]
		}
	}
	return nil
}

func (r *Registry) selectLocked(ctx context.Context, name string) error {
	r.selected = name
	return r.backend.SetSetting(ctx, SelectedKey, name)
}

func (r *Registry) indexOf(name string) int {
	for i, n := range r.names {
		if n == name {
			return i
		}
	}
	return -1
}
