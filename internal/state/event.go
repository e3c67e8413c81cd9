package state

import (
	"time"

	apperrors "github.com/ironsightlabs/spectator/internal/platform/errors"
)

// EventKind names one kind of state transition.
type EventKind string

// Public event kinds, in order of evaluation by the diff engine.
const (
	EventPlayerJoinServer    EventKind = "player_join_server"
	EventServerMapChanged    EventKind = "server_map_changed"
	EventServerMatchStart    EventKind = "server_match_started"
	EventServerWarmupEnded   EventKind = "server_warmup_ended"
	EventServerMatchEnded    EventKind = "server_match_ended"
	EventSquadCreated        EventKind = "squad_created"
	EventPlayerSwitchTeam    EventKind = "player_switch_team"
	EventPlayerSwitchSquad   EventKind = "player_switch_squad"
	EventSquadLeaderChange   EventKind = "squad_leader_change"
	EventPlayerChangeRole    EventKind = "player_change_role"
	EventPlayerChangeLoadout EventKind = "player_change_loadout"
	EventPlayerEnterAdminCam EventKind = "player_enter_admin_cam"
	EventPlayerMessage       EventKind = "player_message"
	EventPlayerKill          EventKind = "player_kill"
	EventPlayerTeamkill      EventKind = "player_teamkill"
	EventPlayerSuicide       EventKind = "player_suicide"
	EventObjectiveCapture    EventKind = "objective_capture"
	EventPlayerLevelUp       EventKind = "player_level_up"
	EventPlayerScoreUpdate   EventKind = "player_score_update"
	EventPlayerExitAdminCam  EventKind = "player_exit_admin_cam"
	EventPlayerLeaveServer   EventKind = "player_leave_server"
	EventSquadDisbanded      EventKind = "squad_disbanded"
)

// Private lifecycle kinds. They mark engine lifecycle transitions and
// are never admitted into a snapshot's public event buffer.
const (
	EventActivation   EventKind = "activation"
	EventIteration    EventKind = "iteration"
	EventDeactivation EventKind = "deactivation"
)

// Log-only kinds: carried by flags for log filtering but without an
// event record of their own.
const (
	EventRuleViolated       EventKind = "rule_violated"
	EventArtyAssigned       EventKind = "arty_assigned"
	EventArtyUnassigned     EventKind = "arty_unassigned"
	EventStartArtyCooldown  EventKind = "start_arty_cooldown"
	EventCancelArtyCooldown EventKind = "cancel_arty_cooldown"
	EventPlayerKicked       EventKind = "player_kicked"
)

var (
	// ErrUnknownEventKind indicates a kind with no event record.
	ErrUnknownEventKind = apperrors.New(apperrors.CodeEventKindUnknown, "unknown event kind")
	// ErrPrivateEventKind indicates a lifecycle event offered to a
	// public event buffer.
	ErrPrivateEventKind = apperrors.New(apperrors.CodeEventKindPrivate, "lifecycle events cannot enter a snapshot's event buffer")
)

type eventDef struct {
	kind    EventKind
	private bool
	schema  *Schema
}

func defineEvent(kind EventKind, private bool, fields ...string) eventDef {
	return eventDef{
		kind:    kind,
		private: private,
		schema: &Schema{
			Kind:      Kind(kind),
			ScopePath: "events." + string(kind),
			Fields:    append([]string{"event_time"}, fields...),
		},
	}
}

// publicEventOrder is the diff engine's evaluation order and the field
// order of the events buffer.
var publicEventOrder = []EventKind{
	EventPlayerJoinServer,
	EventServerMapChanged,
	EventServerMatchStart,
	EventServerWarmupEnded,
	EventServerMatchEnded,
	EventSquadCreated,
	EventPlayerSwitchTeam,
	EventPlayerSwitchSquad,
	EventSquadLeaderChange,
	EventPlayerChangeRole,
	EventPlayerChangeLoadout,
	EventPlayerEnterAdminCam,
	EventPlayerMessage,
	EventPlayerKill,
	EventPlayerTeamkill,
	EventPlayerSuicide,
	EventObjectiveCapture,
	EventPlayerLevelUp,
	EventPlayerScoreUpdate,
	EventPlayerExitAdminCam,
	EventPlayerLeaveServer,
	EventSquadDisbanded,
}

var eventDefs = map[EventKind]eventDef{
	EventPlayerJoinServer:    defineEvent(EventPlayerJoinServer, false, "player"),
	EventServerMapChanged:    defineEvent(EventServerMapChanged, false, "old", "new"),
	EventServerMatchStart:    defineEvent(EventServerMatchStart, false, "map"),
	EventServerWarmupEnded:   defineEvent(EventServerWarmupEnded, false),
	EventServerMatchEnded:    defineEvent(EventServerMatchEnded, false, "map", "score"),
	EventSquadCreated:        defineEvent(EventSquadCreated, false, "squad"),
	EventPlayerSwitchTeam:    defineEvent(EventPlayerSwitchTeam, false, "player", "old", "new"),
	EventPlayerSwitchSquad:   defineEvent(EventPlayerSwitchSquad, false, "player", "old", "new"),
	EventSquadLeaderChange:   defineEvent(EventSquadLeaderChange, false, "squad", "old", "new"),
	EventPlayerChangeRole:    defineEvent(EventPlayerChangeRole, false, "player", "old", "new"),
	EventPlayerChangeLoadout: defineEvent(EventPlayerChangeLoadout, false, "player", "old", "new"),
	EventPlayerEnterAdminCam: defineEvent(EventPlayerEnterAdminCam, false, "player"),
	EventPlayerMessage:       defineEvent(EventPlayerMessage, false, "player", "message", "channel"),
	EventPlayerKill:          defineEvent(EventPlayerKill, false, "player", "other", "weapon"),
	EventPlayerTeamkill:      defineEvent(EventPlayerTeamkill, false, "player", "other", "weapon"),
	EventPlayerSuicide:       defineEvent(EventPlayerSuicide, false, "player"),
	EventObjectiveCapture:    defineEvent(EventObjectiveCapture, false, "team", "score"),
	EventPlayerLevelUp:       defineEvent(EventPlayerLevelUp, false, "player", "old", "new"),
	EventPlayerScoreUpdate:   defineEvent(EventPlayerScoreUpdate, false, "player"),
	EventPlayerExitAdminCam:  defineEvent(EventPlayerExitAdminCam, false, "player"),
	EventPlayerLeaveServer:   defineEvent(EventPlayerLeaveServer, false, "player"),
	EventSquadDisbanded:      defineEvent(EventSquadDisbanded, false, "squad"),

	EventActivation:   defineEvent(EventActivation, true),
	EventIteration:    defineEvent(EventIteration, true),
	EventDeactivation: defineEvent(EventDeactivation, true),
}

// eventsSchema declares one collection field per public event kind.
var eventsSchema = func() *Schema {
	fields := make([]string, len(publicEventOrder))
	for i, kind := range publicEventOrder {
		fields[i] = string(kind)
	}
	return &Schema{Kind: KindEvents, ScopePath: "events", Fields: fields}
}()

// PublicEventKinds returns every public event kind in derivation order.
func PublicEventKinds() []EventKind {
	kinds := make([]EventKind, len(publicEventOrder))
	copy(kinds, publicEventOrder)
	return kinds
}

// EventPayload renders an event node's fields into a JSON-safe map.
// Links collapse to their identifying values, entity nodes to their
// key attributes; unset fields are omitted.
func EventPayload(n *Node) map[string]any {
	if n == nil {
		return nil
	}
	payload := make(map[string]any, len(n.schema.Fields))
	for _, name := range n.schema.Fields {
		raw, ok := n.Raw(name)
		if !ok {
			continue
		}
		payload[name] = payloadValue(raw)
	}
	return payload
}

func payloadValue(v any) any {
	switch value := v.(type) {
	case *Link:
		if value == nil {
			return nil
		}
		return map[string]any(value.Values)
	case *Node:
		if value == nil {
			return nil
		}
		return map[string]any(value.KeyAttributes())
	default:
		return v
	}
}

// NewEvent creates an event node of the given kind under s. The
// event_time field is stamped with the current time unless fields
// already carries one.
func NewEvent(s *Snapshot, kind EventKind, fields Fields) (*Node, error) {
	def, ok := eventDefs[kind]
	if !ok {
		return nil, apperrors.WithMetadata(apperrors.CodeEventKindUnknown,
			"unknown event kind", map[string]string{"Kind": string(kind)})
	}
	n, err := newNode(s, def.schema, fields)
	if err != nil {
		return nil, err
	}
	if !n.Has("event_time") {
		n.store("event_time", time.Now().UTC())
	}
	return n, nil
}

// EventKindOf returns the event kind of an event node, or false when
// the node is not an event.
func EventKindOf(n *Node) (EventKind, bool) {
	if n == nil {
		return "", false
	}
	kind := EventKind(n.schema.Kind)
	_, ok := eventDefs[kind]
	return kind, ok
}

// Events is a view over a snapshot's event buffer node: one ordered
// collection per public event kind.
type Events struct {
	node *Node
}

// Node returns the underlying buffer node.
func (e Events) Node() *Node { return e.node }

// Of returns the collection for kind, or nil when no event of that
// kind has been recorded or seeded.
func (e Events) Of(kind EventKind) *List {
	raw, ok := e.node.Raw(string(kind))
	if !ok {
		return nil
	}
	list, _ := raw.(*List)
	return list
}

// Init seeds an empty collection for kind so that later merges and
// compilation passes cannot overwrite it. Lifecycle kinds are refused.
func (e Events) Init(kind EventKind) error {
	def, ok := eventDefs[kind]
	if !ok {
		return ErrUnknownEventKind
	}
	if def.private {
		return ErrPrivateEventKind
	}
	if e.node.Has(string(kind)) {
		return nil
	}
	list, err := NewList(Kind(kind))
	if err != nil {
		return err
	}
	return e.node.Set(string(kind), list)
}

// Add places an event into the collection for its kind, initializing
// the collection if needed. Lifecycle events are refused.
func (e Events) Add(events ...*Node) error {
	for _, ev := range events {
		kind, ok := EventKindOf(ev)
		if !ok {
			return ErrUnknownEventKind
		}
		if eventDefs[kind].private {
			return ErrPrivateEventKind
		}
		if err := e.Init(kind); err != nil {
			return err
		}
		if err := e.Of(kind).Add(ev); err != nil {
			return err
		}
	}
	return nil
}
