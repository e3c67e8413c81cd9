package state

import (
	"fmt"
	"time"
)

// objectiveScale is the number of capture objectives in a round. The
// capture-event score message is derived from it; it is a rule of the
// game's scoring, not a tunable.
const objectiveScale = 5

// CompareOlder derives events by comparing s, the newer snapshot,
// against the previous poll cycle's snapshot. Detected transitions are
// appended to s's event buffer through the merge engine, so repeated
// calls are additive, never destructive. The older snapshot is never
// mutated and should be frozen by the caller; s must still be mutable
// because join timestamps are backfilled onto it during the pass.
//
// Phases run in a fixed order: players, squads, teams, server. Within
// a phase, events follow the iteration order of s's collections, then
// the residual order of entities that disappeared since older. A phase
// whose collection is unset on either side is skipped; partial
// snapshots are an expected operating condition.
func (s *Snapshot) CompareOlder(older *Snapshot, eventTime time.Time) error {
	if older == nil {
		return nil
	}
	if eventTime.IsZero() {
		eventTime = time.Now().UTC()
	}
	buffer, err := newNode(s, eventsSchema, nil)
	if err != nil {
		return err
	}
	emitter := &diffEmitter{
		snapshot:  s,
		events:    Events{node: buffer},
		eventTime: eventTime,
	}

	s.diffPlayers(older, emitter)
	s.diffSquads(older, emitter)
	s.diffTeams(older, emitter)
	s.diffServer(older, emitter)

	if emitter.err != nil {
		return emitter.err
	}
	return s.Events().node.Merge(buffer)
}

func (s *Snapshot) diffPlayers(older *Snapshot, emit *diffEmitter) {
	if !s.Has("players") || !older.Has("players") {
		return
	}
	remaining := older.Players().Items()
	for _, player := range s.Players().Items() {
		idx, match := findIn(remaining, player.KeyAttributes(), true)
		if match != nil {
			remaining = append(remaining[:idx], remaining[idx+1:]...)

			if player.Has("role") && match.Has("role") {
				newRole, _ := player.Get("role")
				oldRole, _ := match.Get("role")
				if !valueEqual(newRole, oldRole) {
					emit.event(EventPlayerChangeRole, Fields{
						"player": emit.link(player),
						"old":    oldRole,
						"new":    newRole,
					})
				}
			}

			if player.Has("level") && match.Has("level") {
				newLevel, _ := intField(player, "level")
				oldLevel, _ := intField(match, "level")
				// The server can report level 1 for a beat while a
				// profile is still loading; a jump from 1 is a loading
				// artifact, not a level up.
				if newLevel > oldLevel && !(oldLevel == 1 && newLevel-oldLevel > 1) {
					emit.event(EventPlayerLevelUp, Fields{
						"player": emit.link(player),
						"old":    oldLevel,
						"new":    newLevel,
					})
				}
			}
		}

		if v, ok := player.Get("joined_at"); !ok || isNil(v) {
			joined := any(player.CreatedAt())
			if match != nil {
				if mv, ok := match.Get("joined_at"); ok && !isNil(mv) {
					joined = mv
				}
			}
			emit.fail(player.Set("joined_at", joined))
		}

		if match == nil {
			emit.event(EventPlayerJoinServer, Fields{"player": emit.link(player)})
		}

		newSquad := nodeField(player, "squad")
		oldSquad := nodeField(match, "squad")
		if !sameEntity(newSquad, oldSquad) {
			emit.event(EventPlayerSwitchSquad, Fields{
				"player": emit.link(player),
				"old":    emit.linkOrNil(oldSquad),
				"new":    emit.linkOrNil(newSquad),
			})
		}

		newTeam := nodeField(player, "team")
		oldTeam := nodeField(match, "team")
		if !sameEntity(newTeam, oldTeam) {
			emit.event(EventPlayerSwitchTeam, Fields{
				"player": emit.link(player),
				"old":    emit.linkOrNil(oldTeam),
				"new":    emit.linkOrNil(newTeam),
			})
		}
	}

	for _, player := range remaining {
		// A leaver's session record disappears with them; capture the
		// final score while the match is still running.
		if serverState(older) == "in_progress" {
			emit.event(EventPlayerScoreUpdate, Fields{"player": emit.link(player)})
		}
		emit.event(EventPlayerLeaveServer, Fields{"player": emit.link(player)})
		if squad := nodeField(player, "squad"); squad != nil {
			emit.event(EventPlayerSwitchSquad, Fields{
				"player": emit.link(player),
				"old":    emit.link(squad),
				"new":    nil,
			})
		}
		if team := nodeField(player, "team"); team != nil {
			emit.event(EventPlayerSwitchTeam, Fields{
				"player": emit.link(player),
				"old":    emit.link(team),
				"new":    nil,
			})
		}
	}
}

func (s *Snapshot) diffSquads(older *Snapshot, emit *diffEmitter) {
	if !s.Has("squads") || !older.Has("squads") {
		return
	}
	remaining := older.Squads().Items()
	for _, squad := range s.Squads().Items() {
		idx, match := findIn(remaining, squad.KeyAttributes(), true)
		if match != nil {
			remaining = append(remaining[:idx], remaining[idx+1:]...)

			if squad.Has("leader") && match.Has("leader") {
				newLeader := nodeField(squad, "leader")
				oldLeader := nodeField(match, "leader")
				if !sameEntity(newLeader, oldLeader) {
					emit.event(EventSquadLeaderChange, Fields{
						"squad": emit.link(squad),
						"old":   emit.linkOrNil(oldLeader),
						"new":   emit.linkOrNil(newLeader),
					})
				}
			}
		}

		if v, ok := squad.Get("created_at"); !ok || isNil(v) {
			created := any(squad.CreatedAt())
			if match != nil {
				if mv, ok := match.Get("created_at"); ok && !isNil(mv) {
					created = mv
				}
			}
			emit.fail(squad.Set("created_at", created))
		}

		if match == nil {
			emit.event(EventSquadCreated, Fields{"squad": emit.link(squad)})
		}
	}

	for _, squad := range remaining {
		emit.event(EventSquadDisbanded, Fields{"squad": emit.link(squad)})
	}
}

func (s *Snapshot) diffTeams(older *Snapshot, emit *diffEmitter) {
	if !s.Has("teams") || !older.Has("teams") {
		return
	}
	remaining := older.Teams().Items()
	for _, team := range s.Teams().Items() {
		idx, match := findIn(remaining, team.KeyAttributes(), true)
		if match != nil {
			remaining = append(remaining[:idx], remaining[idx+1:]...)

			if team.Has("score") && match.Has("score") && serverState(older) != "warmup" {
				newScore, okNew := intField(team, "score")
				oldScore, okOld := intField(match, "score")
				if okNew && okOld && newScore > oldScore {
					emit.event(EventObjectiveCapture, Fields{
						"team":  emit.link(team),
						"score": captureMessage(team, newScore),
					})
				}
			}
		}

		if v, ok := team.Get("created_at"); !ok || isNil(v) {
			created := any(team.CreatedAt())
			if match != nil {
				if mv, ok := match.Get("created_at"); ok && !isNil(mv) {
					created = mv
				}
			}
			emit.fail(team.Set("created_at", created))
		}
	}
}

func (s *Snapshot) diffServer(older *Snapshot, emit *diffEmitter) {
	newMap := stringField(s.Server(), "map")
	oldMap := stringField(older.Server(), "map")
	if newMap != "" && oldMap != "" && newMap != oldMap {
		emit.event(EventServerMapChanged, Fields{"old": oldMap, "new": newMap})
	}
}

// captureMessage renders the running objective score from one team's
// perspective-independent tally: team 1 reads left to right, the
// opposing team mirrored.
func captureMessage(team *Node, score int) string {
	if id, ok := intField(team, "id"); ok && id == 1 {
		return fmt.Sprintf("%d - %d", score, objectiveScale-score)
	}
	return fmt.Sprintf("%d - %d", objectiveScale-score, score)
}

// diffEmitter accumulates events into the transient buffer and carries
// the first error encountered so the diff loops stay readable.
type diffEmitter struct {
	snapshot  *Snapshot
	events    Events
	eventTime time.Time
	err       error
}

func (e *diffEmitter) event(kind EventKind, fields Fields) {
	if e.err != nil {
		return
	}
	fields["event_time"] = e.eventTime
	ev, err := NewEvent(e.snapshot, kind, fields)
	if err != nil {
		e.err = err
		return
	}
	e.err = e.events.Add(ev)
}

// link builds an identifying link with fallback; on failure the
// emitter records the error and the event is dropped with it.
func (e *diffEmitter) link(n *Node) *Link {
	if e.err != nil {
		return nil
	}
	link, err := n.CreateLink(true)
	if err != nil {
		e.err = err
		return nil
	}
	return link
}

func (e *diffEmitter) linkOrNil(n *Node) any {
	if n == nil {
		return nil
	}
	return e.link(n)
}

func (e *diffEmitter) fail(err error) {
	if e.err == nil && err != nil {
		e.err = err
	}
}

// nodeField returns the resolved node value of a field, or nil when the
// holder is nil, the field is unset, or it holds something else.
func nodeField(n *Node, name string) *Node {
	if n == nil {
		return nil
	}
	v, ok := n.Get(name)
	if !ok {
		return nil
	}
	node, _ := v.(*Node)
	return node
}

// sameEntity compares two optional nodes by key-field identity.
func sameEntity(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
}

func intField(n *Node, name string) (int, bool) {
	v, ok := n.Get(name)
	if !ok {
		return 0, false
	}
	return asInt(v)
}

func stringField(n *Node, name string) string {
	if n == nil {
		return ""
	}
	v, ok := n.Get(name)
	if !ok {
		return ""
	}
	str, _ := asString(v)
	return str
}

func serverState(s *Snapshot) string {
	return stringField(s.Server(), "state")
}
