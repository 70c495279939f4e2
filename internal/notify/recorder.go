package notify

import (
	"context"
	"sync"
)

// Event is one recorded notification.
type Event struct {
	Kind       string
	Operation  string
	EntityID   string
	Field      string
	Value      string
	Candidates []string
	Similar    []string
	Incoming   any
}

// Recorder captures notifications in memory. Used by tests and by callers
// that want to inspect events without a database.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) AmbiguousMatch(_ context.Context, operation string, incoming any, candidateUUIDs []string) {
	r.append(Event{Kind: "ambiguous_match", Operation: operation, Incoming: incoming, Candidates: candidateUUIDs})
}

func (r *Recorder) NewEnumEntry(_ context.Context, value string, similar []string) {
	r.append(Event{Kind: "new_enum_entry", Value: value, Similar: similar})
}

func (r *Recorder) UnknownCategory(_ context.Context, entityID, field, value string) {
	r.append(Event{Kind: "unknown_category", EntityID: entityID, Field: field, Value: value})
}

func (r *Recorder) append(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByKind returns recorded events of one kind.
func (r *Recorder) ByKind(kind string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Noop discards every notification.
type Noop struct{}

func (Noop) AmbiguousMatch(context.Context, string, any, []string)   {}
func (Noop) NewEnumEntry(context.Context, string, []string)          {}
func (Noop) UnknownCategory(context.Context, string, string, string) {}
