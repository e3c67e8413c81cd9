package watch

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/ironsightlabs/spectator/internal/platform/errors"
	"github.com/ironsightlabs/spectator/internal/state"
	"github.com/ironsightlabs/spectator/internal/storage"
	"github.com/ironsightlabs/spectator/internal/telemetry"
)

const defaultPollInterval = 15 * time.Second

// ErrAlreadyRunning indicates Run was called on a watcher whose loop is active.
var ErrAlreadyRunning = apperrors.New(apperrors.CodeWatchAlreadyRunning, "watcher is already running")

// Config controls the watch loop.
type Config struct {
	// ServerName labels journal records and telemetry.
	ServerName string
	// PollInterval is the delay between cycles. Defaults to 15s.
	PollInterval time.Duration
	// Flags selects which derived event kinds reach sinks and the
	// journal. Zero means all kinds.
	Flags state.EventFlags
}

// Option configures optional watcher collaborators.
type Option func(*Watcher)

// WithJournal persists derived events to the given store.
func WithJournal(journal storage.EventStore) Option {
	return func(w *Watcher) { w.journal = journal }
}

// WithTelemetry emits operational telemetry through the given emitter.
func WithTelemetry(emitter *telemetry.Emitter) Option {
	return func(w *Watcher) { w.emitter = emitter }
}

// WithSinks registers event consumers.
func WithSinks(sinks ...Sink) Option {
	return func(w *Watcher) { w.sinks = append(w.sinks, sinks...) }
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(w *Watcher) { w.clock = clock }
}

// Watcher drives the poll-diff-dispatch cycle. It is not safe for
// concurrent use beyond the Run/Poll guard; all snapshot work happens
// on the loop goroutine.
type Watcher struct {
	cfg     Config
	sources []Source
	sinks   []Sink
	journal storage.EventStore
	emitter *telemetry.Emitter
	tracer  trace.Tracer
	clock   func() time.Time

	mu      sync.Mutex
	running bool
	current *state.Snapshot
}

// New creates a watcher polling the given sources.
func New(cfg Config, sources []Source, opts ...Option) *Watcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Flags == state.FlagsNone {
		cfg.Flags = state.FlagsAll
	}
	w := &Watcher{
		cfg:     cfg,
		sources: sources,
		tracer:  otel.Tracer("spectator/watch"),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Current returns the latest gathered snapshot, or nil before the
// first cycle. The returned snapshot is frozen once a newer one
// replaces it.
func (w *Watcher) Current() *state.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run polls until ctx is cancelled. Cycle failures are logged and
// counted but do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyRunning
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.Poll(ctx); err != nil {
			cycleFailures.Inc()
			log.Printf("watch cycle: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll runs one poll-diff-dispatch cycle.
func (w *Watcher) Poll(ctx context.Context) error {
	cycleID := uuid.NewString()
	ctx, span := w.tracer.Start(ctx, "watch.poll",
		trace.WithAttributes(attribute.String("watch.cycle_id", cycleID)))
	defer span.End()
	started := w.clock()

	snapshot, err := w.gather(ctx, cycleID)
	if err != nil {
		span.RecordError(err)
		return err
	}

	older := w.Current()
	if older != nil {
		if err := snapshot.CompareOlder(older, w.clock()); err != nil {
			span.RecordError(err)
			return err
		}
	}

	events := w.collect(snapshot, cycleID)
	playersTracked.Set(float64(snapshot.Players().Len()))
	span.SetAttributes(attribute.Int("watch.events", len(events)))

	if err := w.dispatch(ctx, cycleID, events); err != nil {
		span.RecordError(err)
		return err
	}

	// The snapshot becomes the older side of the next diff; freeze it
	// so nothing mutates the comparison baseline.
	snapshot.SetMutable(false)
	w.mu.Lock()
	w.current = snapshot
	w.mu.Unlock()

	recordCycle(w.clock().Sub(started))
	w.emit(ctx, telemetry.SeverityInfo, "watch.cycle.completed", cycleID, map[string]any{
		"events": len(events),
	})
	return nil
}

// gather queries every source and merges the partial views. A failing
// source is skipped; the cycle fails only when no source answered.
func (w *Watcher) gather(ctx context.Context, cycleID string) (*state.Snapshot, error) {
	var partials []*state.Snapshot
	for _, source := range w.sources {
		partial, err := source.Query(ctx)
		if err != nil {
			sourceFailures.WithLabelValues(source.Name()).Inc()
			w.emit(ctx, telemetry.SeverityError, "watch.source.failed", cycleID, map[string]any{
				"source": source.Name(),
				"error":  err.Error(),
			})
			continue
		}
		if partial != nil {
			partials = append(partials, partial)
		}
	}
	if len(partials) == 0 {
		return nil, apperrors.New(apperrors.CodeWatchSourceFailed, "no source produced a snapshot")
	}

	snapshot := state.New()
	snapshot.OnWarn(func(msg string, metadata map[string]string) {
		mergeWarnings.Inc()
		log.Printf("merge warning: %s (kind=%s field=%s)", msg, metadata["kind"], metadata["field"])
		attrs := make(map[string]any, len(metadata))
		for k, v := range metadata {
			attrs[k] = v
		}
		w.emit(ctx, telemetry.SeverityWarn, "watch.merge.warning", cycleID, attrs)
	})
	for _, partial := range partials {
		if err := snapshot.Merge(partial); err != nil {
			return nil, err
		}
	}
	return snapshot, nil
}

// collect drains the snapshot's event buffer into dispatchable events,
// honoring the configured kind flags and keeping derivation order.
func (w *Watcher) collect(snapshot *state.Snapshot, cycleID string) []Event {
	var events []Event
	for _, kind := range state.PublicEventKinds() {
		if !w.cfg.Flags.Contains(kind) {
			continue
		}
		list := snapshot.Events().Of(kind)
		if list == nil {
			continue
		}
		for _, node := range list.Items() {
			event := Event{
				ID:      uuid.NewString(),
				CycleID: cycleID,
				Kind:    kind,
				Payload: state.EventPayload(node),
				Node:    node,
			}
			if v, ok := node.Get("event_time"); ok {
				if at, ok := v.(time.Time); ok {
					event.OccurredAt = at
				}
			}
			events = append(events, event)
		}
	}
	return events
}

func (w *Watcher) dispatch(ctx context.Context, cycleID string, events []Event) error {
	for _, event := range events {
		eventsDerived.WithLabelValues(string(event.Kind)).Inc()
	}

	if w.journal != nil && len(events) > 0 {
		records := make([]storage.EventRecord, len(events))
		for i, event := range events {
			records[i] = storage.EventRecord{
				ID:         event.ID,
				CycleID:    cycleID,
				ServerName: w.cfg.ServerName,
				Kind:       string(event.Kind),
				OccurredAt: event.OccurredAt,
				Payload:    event.Payload,
			}
		}
		if err := w.journal.AppendEvents(ctx, records); err != nil {
			return err
		}
	}

	for _, sink := range w.sinks {
		if err := sink.HandleEvents(ctx, events); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) emit(ctx context.Context, severity telemetry.Severity, name, cycleID string, attrs map[string]any) {
	evt := storage.TelemetryEvent{
		EventName:  name,
		Severity:   string(severity),
		ServerName: w.cfg.ServerName,
		CycleID:    cycleID,
		Attributes: attrs,
	}
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		evt.TraceID = span.TraceID().String()
		evt.SpanID = span.SpanID().String()
	}
	if err := w.emitter.Emit(ctx, evt); err != nil {
		log.Printf("emit telemetry %s: %v", name, err)
	}
}
