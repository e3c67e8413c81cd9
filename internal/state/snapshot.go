package state

import (
	"strings"
	"time"

	apperrors "github.com/ironsightlabs/spectator/internal/platform/errors"
)

// WarnFunc receives best-effort reconciliation warnings, such as merge
// dropping a mismatched value. Wire it to telemetry or leave it nil.
type WarnFunc func(msg string, metadata map[string]string)

var snapshotSchema = &Schema{
	Kind:   KindSnapshot,
	Fields: []string{"players", "squads", "teams", "server", "events"},
}

// Snapshot is the root aggregate: one freshly captured view of the
// whole server. It owns the top-level collections, the server and
// events singletons, the link-resolution scope, and the single
// mutability flag every reachable node consults.
type Snapshot struct {
	Node
	solid bool
	warn  WarnFunc
}

// New creates an empty, mutable snapshot with its server node and
// events buffer in place.
func New() *Snapshot {
	s := &Snapshot{}
	s.Node = Node{
		schema:    snapshotSchema,
		slots:     make(map[string]slot),
		createdAt: time.Now().UTC(),
	}
	s.Node.root = s
	server, _ := newNode(s, serverSchema, nil)
	s.Node.store("server", server)
	events, _ := newNode(s, eventsSchema, nil)
	s.Node.store("events", events)
	return s
}

// OnWarn installs the warning hook for best-effort merge drops.
func (s *Snapshot) OnWarn(fn WarnFunc) { s.warn = fn }

// SetMutable freezes or unfreezes the whole aggregate. The root flag
// covers every node created against this snapshot; the accompanying
// walk stamps nodes adopted by reference from other snapshots, which
// still answer to their original root.
func (s *Snapshot) SetMutable(mutable bool) {
	s.solid = !mutable
	s.Node.setFrozen(!mutable)
}

// contains reports whether candidate is reachable from the snapshot
// root through non-link fields.
func (s *Snapshot) contains(candidate *Node) bool {
	if candidate == &s.Node {
		return true
	}
	for _, n := range s.Node.Flatten() {
		if n == candidate {
			return true
		}
	}
	return false
}

// Players returns the players collection, or nil while unset.
func (s *Snapshot) Players() *List { return s.listField("players") }

// Squads returns the squads collection, or nil while unset.
func (s *Snapshot) Squads() *List { return s.listField("squads") }

// Teams returns the teams collection, or nil while unset.
func (s *Snapshot) Teams() *List { return s.listField("teams") }

// Server returns the server singleton node.
func (s *Snapshot) Server() *Node {
	raw, _ := s.Node.Raw("server")
	n, _ := raw.(*Node)
	return n
}

// Events returns the event buffer view.
func (s *Snapshot) Events() Events {
	raw, _ := s.Node.Raw("events")
	n, _ := raw.(*Node)
	return Events{node: n}
}

func (s *Snapshot) listField(name string) *List {
	raw, ok := s.Node.Raw(name)
	if !ok {
		return nil
	}
	list, _ := raw.(*List)
	return list
}

// AddPlayers appends players to the players collection, creating it on
// first use.
func (s *Snapshot) AddPlayers(players ...*Node) error {
	return s.addTo("players", KindPlayer, players)
}

// AddSquads appends squads to the squads collection, creating it on
// first use.
func (s *Snapshot) AddSquads(squads ...*Node) error {
	return s.addTo("squads", KindSquad, squads)
}

// AddTeams appends teams to the teams collection, creating it on first
// use.
func (s *Snapshot) AddTeams(teams ...*Node) error {
	return s.addTo("teams", KindTeam, teams)
}

func (s *Snapshot) addTo(name string, kind Kind, items []*Node) error {
	list := s.listField(name)
	if list == nil {
		created, err := NewList(kind)
		if err != nil {
			return err
		}
		if err := s.Node.Set(name, created); err != nil {
			return err
		}
		list = created
	}
	for _, item := range items {
		if err := list.Add(item); err != nil {
			return err
		}
	}
	return nil
}

// SetServer replaces the server singleton.
func (s *Snapshot) SetServer(server *Node) error {
	if server == nil || server.schema.Kind != KindServer {
		return apperrors.WithMetadata(apperrors.CodeStateWrongItemKind,
			"server field only accepts a server node",
			map[string]string{"Want": "server", "Got": string(kindOf(server))})
	}
	return s.Node.Set("server", server)
}

// FindPlayer returns the first player matching filters, or nil.
func (s *Snapshot) FindPlayer(filters Fields) *Node { return s.listField("players").find(filters, false) }

// FindPlayers returns every player matching filters.
func (s *Snapshot) FindPlayers(filters Fields) *List { return s.findAll("players", filters) }

// FindSquad returns the first squad matching filters, or nil.
func (s *Snapshot) FindSquad(filters Fields) *Node { return s.listField("squads").find(filters, false) }

// FindSquads returns every squad matching filters.
func (s *Snapshot) FindSquads(filters Fields) *List { return s.findAll("squads", filters) }

// FindTeam returns the first team matching filters, or nil.
func (s *Snapshot) FindTeam(filters Fields) *Node { return s.listField("teams").find(filters, false) }

// FindTeams returns every team matching filters.
func (s *Snapshot) FindTeams(filters Fields) *List { return s.findAll("teams", filters) }

func (s *Snapshot) findAll(name string, filters Fields) *List {
	list := s.listField(name)
	if list == nil {
		return &List{}
	}
	return list.FindAll(filters)
}

// Merge merges another snapshot's observed data into this one.
func (s *Snapshot) Merge(other *Snapshot) error {
	if other == nil {
		return nil
	}
	return s.Node.Merge(&other.Node)
}

// Gather builds one aggregate by merging partial snapshots in argument
// order, skipping any that are absent. Collectors use it to combine
// data gathered from different polling endpoints.
func Gather(snapshots ...*Snapshot) (*Snapshot, error) {
	out := New()
	for _, snap := range snapshots {
		if snap == nil {
			continue
		}
		if err := out.Merge(snap); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// collectionAt walks a dotted scope path from the snapshot root down to
// a collection. An unset segment resolves to no collection, which link
// resolution treats as "nothing matched".
func (s *Snapshot) collectionAt(path string) (*List, error) {
	segments := strings.Split(path, ".")
	current := &s.Node
	for i, segment := range segments {
		raw, ok := current.Raw(segment)
		if !ok {
			return nil, nil
		}
		if i == len(segments)-1 {
			list, isList := raw.(*List)
			if !isList {
				return nil, apperrors.WithMetadata(apperrors.CodeStateNotCollection,
					"scope path does not lead to a collection",
					map[string]string{"Path": path})
			}
			return list, nil
		}
		node, isNode := raw.(*Node)
		if !isNode {
			return nil, apperrors.WithMetadata(apperrors.CodeStateNotCollection,
				"scope path segment is not a node",
				map[string]string{"Path": path, "Segment": segment})
		}
		current = node
	}
	return nil, nil
}
