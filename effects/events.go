package effects

import "sync"

// Lifecycle event names
const (
	EventManagerInit    = "manager-init"
	EventManagerDestroy = "manager-destroy"
	EventEffectEnabled  = "effect-enabled"
	EventEffectSkipped  = "effect-skipped"
	EventEffectFailed   = "effect-failed"
)

// Event represents a manager lifecycle event.
// Minimal and stable: name + effect and optional fields via key/values.
type Event struct {
	Name   string
	Effect string
	Fields map[string]any
}

// Publisher receives events from the manager. Implementations should
// be lightweight and non-blocking; Publish must not panic.
type Publisher interface {
	Publish(Event)
}

// NopPublisher is the default; it drops events
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

// MemoryPublisher records events in memory for tests and diagnostics
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryPublisher creates an empty in-memory publisher
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish appends the event
func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

// Events returns a copy of everything published so far
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// Named returns the recorded events with the given name
func (p *MemoryPublisher) Named(name string) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Event
	for _, e := range p.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
