package state

import (
	"errors"
	"testing"
	"time"
)

var diffTime = time.Date(2026, 8, 30, 19, 0, 0, 0, time.UTC)

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// mustNode adapts a two-value constructor call into a single node,
// failing the test on error: mustNode(t)(NewPlayer(s, fields)).
func mustNode(t *testing.T) func(*Node, error) *Node {
	return func(n *Node, err error) *Node {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return n
	}
}

func eventCount(s *Snapshot, kind EventKind) int {
	return s.Events().Of(kind).Len()
}

func TestCompareOlderNilOlder(t *testing.T) {
	s := New()
	if err := s.CompareOlder(nil, diffTime); err != nil {
		t.Fatalf("CompareOlder(nil) = %v, want nil", err)
	}
	for _, kind := range PublicEventKinds() {
		if eventCount(s, kind) != 0 {
			t.Fatalf("unexpected %s events", kind)
		}
	}
}

func TestCompareOlderIdenticalSnapshots(t *testing.T) {
	build := func() *Snapshot {
		s := New()
		must(t, s.AddPlayers(mustNode(t)(NewPlayer(s, Fields{
			"steamid":   "76561198000000001",
			"name":      "baker",
			"level":     12,
			"role":      "rifleman",
			"joined_at": diffTime.Add(-time.Hour),
		}))))
		must(t, s.AddSquads(mustNode(t)(NewSquad(s, Fields{
			"id":         1,
			"name":       "Able",
			"created_at": diffTime.Add(-time.Hour),
		}))))
		must(t, s.AddTeams(mustNode(t)(NewTeam(s, Fields{
			"id":         1,
			"name":       "Allies",
			"score":      2,
			"created_at": diffTime.Add(-time.Hour),
		}))))
		must(t, s.Server().Set("map", "FOY"))
		must(t, s.Server().Set("state", "in_progress"))
		return s
	}

	older := build()
	older.SetMutable(false)
	newer := build()
	must(t, newer.CompareOlder(older, diffTime))

	for _, kind := range PublicEventKinds() {
		if got := eventCount(newer, kind); got != 0 {
			t.Errorf("%s: got %d events, want 0", kind, got)
		}
	}
}

func TestCompareOlderLevelUpGuard(t *testing.T) {
	tests := []struct {
		name       string
		oldLevel   int
		newLevel   int
		wantEvents int
	}{
		{"normal level up", 5, 6, 1},
		{"jump from loading placeholder", 1, 50, 0},
		{"single step from level one", 1, 2, 1},
		{"level decrease", 6, 5, 0},
		{"no change", 5, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			older := New()
			must(t, older.AddPlayers(mustNode(t)(NewPlayer(older, Fields{
				"steamid":   "76561198000000001",
				"name":      "baker",
				"level":     tt.oldLevel,
				"joined_at": diffTime.Add(-time.Hour),
			}))))
			older.SetMutable(false)

			newer := New()
			must(t, newer.AddPlayers(mustNode(t)(NewPlayer(newer, Fields{
				"steamid":   "76561198000000001",
				"name":      "baker",
				"level":     tt.newLevel,
				"joined_at": diffTime.Add(-time.Hour),
			}))))
			must(t, newer.CompareOlder(older, diffTime))

			if got := eventCount(newer, EventPlayerLevelUp); got != tt.wantEvents {
				t.Fatalf("level up events = %d, want %d", got, tt.wantEvents)
			}
			if tt.wantEvents == 1 {
				ev := newer.Events().Of(EventPlayerLevelUp).At(0)
				if old, _ := ev.Get("old"); old != tt.oldLevel {
					t.Errorf("old = %v, want %d", old, tt.oldLevel)
				}
				if level, _ := ev.Get("new"); level != tt.newLevel {
					t.Errorf("new = %v, want %d", level, tt.newLevel)
				}
			}
		})
	}
}

func TestCompareOlderJoinBackfillsJoinedAt(t *testing.T) {
	older := New()
	must(t, older.AddPlayers())
	older.SetMutable(false)

	newer := New()
	player := mustNode(t)(NewPlayer(newer, Fields{
		"steamid": "76561198000000001",
		"name":    "baker",
	}))
	must(t, newer.AddPlayers(player))
	must(t, newer.CompareOlder(older, diffTime))

	joins := newer.Events().Of(EventPlayerJoinServer)
	if joins.Len() != 1 {
		t.Fatalf("join events = %d, want 1", joins.Len())
	}
	ev := joins.At(0)
	if ts, _ := ev.Get("event_time"); !ts.(time.Time).Equal(diffTime) {
		t.Errorf("event_time = %v, want %v", ts, diffTime)
	}
	resolved, ok := ev.Get("player")
	if !ok {
		t.Fatal("player field did not resolve")
	}
	if resolved.(*Node) != player {
		t.Error("player link did not resolve to the joined player")
	}

	joined, ok := player.Get("joined_at")
	if !ok {
		t.Fatal("joined_at was not backfilled")
	}
	if !joined.(time.Time).Equal(player.CreatedAt()) {
		t.Errorf("joined_at = %v, want creation time %v", joined, player.CreatedAt())
	}
}

func TestCompareOlderJoinKeepsOlderJoinedAt(t *testing.T) {
	joinedAt := diffTime.Add(-2 * time.Hour)

	older := New()
	must(t, older.AddPlayers(mustNode(t)(NewPlayer(older, Fields{
		"steamid":   "76561198000000001",
		"name":      "baker",
		"joined_at": joinedAt,
	}))))
	older.SetMutable(false)

	newer := New()
	player := mustNode(t)(NewPlayer(newer, Fields{
		"steamid": "76561198000000001",
		"name":    "baker",
	}))
	must(t, newer.AddPlayers(player))
	must(t, newer.CompareOlder(older, diffTime))

	if eventCount(newer, EventPlayerJoinServer) != 0 {
		t.Error("matched player should not produce a join event")
	}
	joined, ok := player.Get("joined_at")
	if !ok || !joined.(time.Time).Equal(joinedAt) {
		t.Errorf("joined_at = %v, want carried-over %v", joined, joinedAt)
	}
}

func TestCompareOlderRoleChange(t *testing.T) {
	tests := []struct {
		name       string
		oldRole    any
		newRole    any
		wantEvents int
	}{
		{"role changed", "rifleman", "medic", 1},
		{"role unchanged", "rifleman", "rifleman", 0},
		{"old role unknown", nil, "medic", 0},
		{"new role unknown", "rifleman", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			older := New()
			fields := Fields{"steamid": "1", "name": "baker", "joined_at": diffTime}
			if tt.oldRole != nil {
				fields["role"] = tt.oldRole
			}
			must(t, older.AddPlayers(mustNode(t)(NewPlayer(older, fields))))
			older.SetMutable(false)

			newer := New()
			fields = Fields{"steamid": "1", "name": "baker", "joined_at": diffTime}
			if tt.newRole != nil {
				fields["role"] = tt.newRole
			}
			must(t, newer.AddPlayers(mustNode(t)(NewPlayer(newer, fields))))
			must(t, newer.CompareOlder(older, diffTime))

			if got := eventCount(newer, EventPlayerChangeRole); got != tt.wantEvents {
				t.Fatalf("role change events = %d, want %d", got, tt.wantEvents)
			}
			if tt.wantEvents == 1 {
				ev := newer.Events().Of(EventPlayerChangeRole).At(0)
				if old, _ := ev.Get("old"); old != tt.oldRole {
					t.Errorf("old = %v, want %v", old, tt.oldRole)
				}
				if role, _ := ev.Get("new"); role != tt.newRole {
					t.Errorf("new = %v, want %v", role, tt.newRole)
				}
			}
		})
	}
}

func TestCompareOlderSquadSwitch(t *testing.T) {
	older := New()
	must(t, older.AddSquads(mustNode(t)(NewSquad(older, Fields{
		"id": 1, "name": "Able", "created_at": diffTime,
	}))))
	must(t, older.AddPlayers(mustNode(t)(NewPlayer(older, Fields{
		"steamid":   "1",
		"name":      "baker",
		"joined_at": diffTime,
		"squad":     NewLink("squads", map[string]any{"name": "Able"}),
	}))))
	older.SetMutable(false)

	newer := New()
	must(t, newer.AddSquads(mustNode(t)(NewSquad(newer, Fields{
		"id": 2, "name": "Baker", "created_at": diffTime,
	}))))
	must(t, newer.AddPlayers(mustNode(t)(NewPlayer(newer, Fields{
		"steamid":   "1",
		"name":      "baker",
		"joined_at": diffTime,
		"squad":     NewLink("squads", map[string]any{"name": "Baker"}),
	}))))
	must(t, newer.CompareOlder(older, diffTime))

	switches := newer.Events().Of(EventPlayerSwitchSquad)
	if switches.Len() != 1 {
		t.Fatalf("squad switch events = %d, want 1", switches.Len())
	}
	ev := switches.At(0)
	old, _ := ev.Get("old")
	if name, _ := old.(*Node).Get("name"); name != "Able" {
		t.Errorf("old squad = %v, want Able", name)
	}
	next, _ := ev.Get("new")
	if name, _ := next.(*Node).Get("name"); name != "Baker" {
		t.Errorf("new squad = %v, want Baker", name)
	}
}

func TestCompareOlderLeftovers(t *testing.T) {
	older := New()
	must(t, older.AddSquads(mustNode(t)(NewSquad(older, Fields{
		"id": 1, "name": "Able", "created_at": diffTime,
	}))))
	must(t, older.AddPlayers(mustNode(t)(NewPlayer(older, Fields{
		"steamid":   "1",
		"name":      "baker",
		"joined_at": diffTime,
		"squad":     NewLink("squads", map[string]any{"name": "Able"}),
	}))))
	must(t, older.Server().Set("state", "in_progress"))
	older.SetMutable(false)

	newer := New()
	must(t, newer.AddPlayers())
	must(t, newer.AddSquads())
	must(t, newer.CompareOlder(older, diffTime))

	if got := eventCount(newer, EventPlayerScoreUpdate); got != 1 {
		t.Errorf("score update events = %d, want 1", got)
	}
	if got := eventCount(newer, EventPlayerLeaveServer); got != 1 {
		t.Errorf("leave events = %d, want 1", got)
	}
	if got := eventCount(newer, EventSquadDisbanded); got != 1 {
		t.Errorf("squad disbanded events = %d, want 1", got)
	}

	switches := newer.Events().Of(EventPlayerSwitchSquad)
	if switches.Len() != 1 {
		t.Fatalf("squad switch events = %d, want 1", switches.Len())
	}
	ev := switches.At(0)
	// The old squad no longer exists in the newer snapshot, so the link
	// has to resolve through its fallback.
	old, ok := ev.Get("old")
	if !ok {
		t.Fatal("old squad did not resolve")
	}
	if name, _ := old.(*Node).Get("name"); name != "Able" {
		t.Errorf("old squad = %v, want Able fallback", name)
	}
	if next, _ := ev.Get("new"); next != nil {
		t.Errorf("new squad = %v, want nil", next)
	}
}

func TestCompareOlderLeftoverWithEmbeddedKeyNode(t *testing.T) {
	older := New()
	team := mustNode(t)(NewTeam(older, Fields{"id": 1, "name": "Allies"}))
	// The squad carries its team by value, so its key fields include a
	// node that is part of the older tree.
	must(t, older.AddSquads(mustNode(t)(NewSquad(older, Fields{
		"id":   7,
		"name": "Able",
		"team": team,
	}))))
	must(t, older.Server().Set("state", "warmup"))
	older.SetMutable(false)

	newer := New()
	must(t, newer.AddSquads())
	if err := newer.CompareOlder(older, diffTime); err != nil {
		t.Fatalf("CompareOlder = %v, want nil", err)
	}

	disbanded := newer.Events().Of(EventSquadDisbanded)
	if disbanded.Len() != 1 {
		t.Fatalf("squad disbanded events = %d, want 1", disbanded.Len())
	}
	resolved, ok := disbanded.At(0).Get("squad")
	if !ok {
		t.Fatal("squad link did not resolve through its fallback")
	}
	if name, _ := resolved.(*Node).Get("name"); name != "Able" {
		t.Errorf("squad name = %v, want Able", name)
	}
}

func TestCompareOlderSquadTeamRepresentationStable(t *testing.T) {
	older := New()
	team := mustNode(t)(NewTeam(older, Fields{"id": 1, "name": "Allies"}))
	must(t, older.AddSquads(mustNode(t)(NewSquad(older, Fields{
		"id":         7,
		"name":       "Able",
		"team":       team,
		"created_at": diffTime,
	}))))
	older.SetMutable(false)

	// A fresh poll reports the same squad with its team by link rather
	// than by value. That is still the same squad, not a churn.
	newer := New()
	must(t, newer.AddSquads(mustNode(t)(NewSquad(newer, Fields{
		"id":         7,
		"name":       "Able",
		"team":       NewLink("teams", map[string]any{"id": 1, "name": "Allies"}),
		"created_at": diffTime,
	}))))
	must(t, newer.CompareOlder(older, diffTime))

	if got := eventCount(newer, EventSquadCreated); got != 0 {
		t.Errorf("squad created events = %d, want 0", got)
	}
	if got := eventCount(newer, EventSquadDisbanded); got != 0 {
		t.Errorf("squad disbanded events = %d, want 0", got)
	}
}

func TestCompareOlderLeaveOutsideMatch(t *testing.T) {
	older := New()
	must(t, older.AddPlayers(mustNode(t)(NewPlayer(older, Fields{
		"steamid": "1", "name": "baker", "joined_at": diffTime,
	}))))
	must(t, older.Server().Set("state", "warmup"))
	older.SetMutable(false)

	newer := New()
	must(t, newer.AddPlayers())
	must(t, newer.CompareOlder(older, diffTime))

	if got := eventCount(newer, EventPlayerScoreUpdate); got != 0 {
		t.Errorf("score update events = %d, want 0 outside a running match", got)
	}
	if got := eventCount(newer, EventPlayerLeaveServer); got != 1 {
		t.Errorf("leave events = %d, want 1", got)
	}
}

func TestCompareOlderSquadLeaderChange(t *testing.T) {
	tests := []struct {
		name       string
		oldLeader  any
		newLeader  any
		wantEvents int
	}{
		{
			name:       "leader changed",
			oldLeader:  NewLink("players", map[string]any{"name": "able"}),
			newLeader:  NewLink("players", map[string]any{"name": "baker"}),
			wantEvents: 1,
		},
		{
			name:       "older leader unknown",
			oldLeader:  nil,
			newLeader:  NewLink("players", map[string]any{"name": "baker"}),
			wantEvents: 0,
		},
		{
			name:       "leader unchanged",
			oldLeader:  NewLink("players", map[string]any{"name": "baker"}),
			newLeader:  NewLink("players", map[string]any{"name": "baker"}),
			wantEvents: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			older := New()
			must(t, older.AddPlayers(
				mustNode(t)(NewPlayer(older, Fields{"steamid": "1", "name": "able", "joined_at": diffTime})),
				mustNode(t)(NewPlayer(older, Fields{"steamid": "2", "name": "baker", "joined_at": diffTime})),
			))
			fields := Fields{"id": 1, "name": "Able", "created_at": diffTime}
			if tt.oldLeader != nil {
				fields["leader"] = tt.oldLeader
			}
			must(t, older.AddSquads(mustNode(t)(NewSquad(older, fields))))
			older.SetMutable(false)

			newer := New()
			must(t, newer.AddPlayers(
				mustNode(t)(NewPlayer(newer, Fields{"steamid": "1", "name": "able", "joined_at": diffTime})),
				mustNode(t)(NewPlayer(newer, Fields{"steamid": "2", "name": "baker", "joined_at": diffTime})),
			))
			must(t, newer.AddSquads(mustNode(t)(NewSquad(newer, Fields{
				"id": 1, "name": "Able", "created_at": diffTime, "leader": tt.newLeader,
			}))))
			must(t, newer.CompareOlder(older, diffTime))

			if got := eventCount(newer, EventSquadLeaderChange); got != tt.wantEvents {
				t.Fatalf("leader change events = %d, want %d", got, tt.wantEvents)
			}
		})
	}
}

func TestCompareOlderSquadCreatedAndBackfill(t *testing.T) {
	older := New()
	must(t, older.AddSquads())
	older.SetMutable(false)

	newer := New()
	squad := mustNode(t)(NewSquad(newer, Fields{"id": 1, "name": "Able"}))
	must(t, newer.AddSquads(squad))
	must(t, newer.CompareOlder(older, diffTime))

	if got := eventCount(newer, EventSquadCreated); got != 1 {
		t.Fatalf("squad created events = %d, want 1", got)
	}
	created, ok := squad.Get("created_at")
	if !ok || !created.(time.Time).Equal(squad.CreatedAt()) {
		t.Errorf("created_at = %v, want creation time %v", created, squad.CreatedAt())
	}
}

func TestCompareOlderObjectiveCapture(t *testing.T) {
	tests := []struct {
		name        string
		teamID      int
		oldScore    int
		newScore    int
		serverState string
		wantEvents  int
		wantMessage string
	}{
		{"team one captures", 1, 2, 3, "in_progress", 1, "3 - 2"},
		{"team two captures mirrored", 2, 2, 3, "in_progress", 1, "2 - 3"},
		{"warmup scores ignored", 1, 2, 3, "warmup", 0, ""},
		{"score decrease ignored", 1, 3, 2, "in_progress", 0, ""},
		{"score unchanged", 1, 2, 2, "in_progress", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			older := New()
			must(t, older.AddTeams(mustNode(t)(NewTeam(older, Fields{
				"id": tt.teamID, "name": "team", "score": tt.oldScore, "created_at": diffTime,
			}))))
			must(t, older.Server().Set("state", tt.serverState))
			older.SetMutable(false)

			newer := New()
			must(t, newer.AddTeams(mustNode(t)(NewTeam(newer, Fields{
				"id": tt.teamID, "name": "team", "score": tt.newScore, "created_at": diffTime,
			}))))
			must(t, newer.CompareOlder(older, diffTime))

			captures := newer.Events().Of(EventObjectiveCapture)
			if captures.Len() != tt.wantEvents {
				t.Fatalf("capture events = %d, want %d", captures.Len(), tt.wantEvents)
			}
			if tt.wantEvents == 1 {
				if msg, _ := captures.At(0).Get("score"); msg != tt.wantMessage {
					t.Errorf("score message = %q, want %q", msg, tt.wantMessage)
				}
			}
		})
	}
}

func TestCompareOlderTeamCreatedAtBackfill(t *testing.T) {
	older := New()
	must(t, older.AddTeams())
	older.SetMutable(false)

	newer := New()
	team := mustNode(t)(NewTeam(newer, Fields{"id": 1, "name": "Allies"}))
	must(t, newer.AddTeams(team))
	must(t, newer.CompareOlder(older, diffTime))

	created, ok := team.Get("created_at")
	if !ok || !created.(time.Time).Equal(team.CreatedAt()) {
		t.Errorf("created_at = %v, want creation time %v", created, team.CreatedAt())
	}
}

func TestCompareOlderMapChanged(t *testing.T) {
	tests := []struct {
		name       string
		oldMap     string
		newMap     string
		wantEvents int
	}{
		{"map changed", "FOY", "STALINGRAD", 1},
		{"map unchanged", "FOY", "FOY", 0},
		{"old map unknown", "", "FOY", 0},
		{"new map unknown", "FOY", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			older := New()
			if tt.oldMap != "" {
				must(t, older.Server().Set("map", tt.oldMap))
			}
			older.SetMutable(false)

			newer := New()
			if tt.newMap != "" {
				must(t, newer.Server().Set("map", tt.newMap))
			}
			must(t, newer.CompareOlder(older, diffTime))

			if got := eventCount(newer, EventServerMapChanged); got != tt.wantEvents {
				t.Fatalf("map changed events = %d, want %d", got, tt.wantEvents)
			}
			if tt.wantEvents == 1 {
				ev := newer.Events().Of(EventServerMapChanged).At(0)
				if old, _ := ev.Get("old"); old != tt.oldMap {
					t.Errorf("old = %v, want %q", old, tt.oldMap)
				}
				if next, _ := ev.Get("new"); next != tt.newMap {
					t.Errorf("new = %v, want %q", next, tt.newMap)
				}
			}
		})
	}
}

func TestCompareOlderSkipsUnsetPhases(t *testing.T) {
	older := New()
	older.SetMutable(false)

	newer := New()
	must(t, newer.AddPlayers(mustNode(t)(NewPlayer(newer, Fields{
		"steamid": "1", "name": "baker", "joined_at": diffTime,
	}))))
	must(t, newer.CompareOlder(older, diffTime))

	if got := eventCount(newer, EventPlayerJoinServer); got != 0 {
		t.Errorf("join events = %d, want 0 when older never observed players", got)
	}
}

func TestCompareOlderRequiresMutableNewer(t *testing.T) {
	older := New()
	must(t, older.AddPlayers())
	older.SetMutable(false)

	newer := New()
	must(t, newer.AddPlayers(mustNode(t)(NewPlayer(newer, Fields{
		"steamid": "1", "name": "baker",
	}))))
	newer.SetMutable(false)

	err := newer.CompareOlder(older, diffTime)
	if !errors.Is(err, ErrImmutable) {
		t.Fatalf("CompareOlder on frozen snapshot = %v, want %v", err, ErrImmutable)
	}
}
