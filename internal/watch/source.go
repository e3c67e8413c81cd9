package watch

import (
	"context"
	"log"
	"time"

	"github.com/ironsightlabs/spectator/internal/state"
)

// Source produces a partial snapshot of the game server. A source only
// fills the fields its query surface exposes; the watcher gathers all
// sources into one view per cycle.
type Source interface {
	Name() string
	Query(ctx context.Context) (*state.Snapshot, error)
}

// Event is a derived game event as dispatched to sinks.
type Event struct {
	ID         string
	CycleID    string
	Kind       state.EventKind
	OccurredAt time.Time
	Payload    map[string]any
	Node       *state.Node
}

// Sink consumes the events derived in one poll cycle.
type Sink interface {
	HandleEvents(ctx context.Context, events []Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, events []Event) error

// HandleEvents implements Sink.
func (f SinkFunc) HandleEvents(ctx context.Context, events []Event) error {
	return f(ctx, events)
}

// LogSink returns a sink writing one line per event, for operators
// tailing the process log.
func LogSink() Sink {
	return SinkFunc(func(ctx context.Context, events []Event) error {
		for _, event := range events {
			log.Printf("event %s cycle=%s %v", event.Kind, event.CycleID, event.Payload)
		}
		return nil
	})
}
