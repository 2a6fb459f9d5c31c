package store

import "sync"

// TopicsKey is the change key for the topic list.
const TopicsKey = "topics"

type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func(string)
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[string]map[int]func(string))}
}

func (n *notifier) subscribe(key string, fn func(string)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	id := n.nextID
	if n.subs[key] == nil {
		n.subs[key] = make(map[int]func(string))
	}
	n.subs[key][id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs[key], id)
		if len(n.subs[key]) == 0 {
			delete(n.subs, key)
		}
	}
}

func (n *notifier) notify(key string) {
	n.mu.Lock()
	fns := make([]func(string), 0, len(n.subs[key]))
	for _, fn := range n.subs[key] {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	// Called outside the lock so observers may unsubscribe or write.
	for _, fn := range fns {
		fn(key)
	}
}
