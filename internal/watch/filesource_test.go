package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsightlabs/spectator/internal/state"
)

const sampleDump = `{
  "server": {"name": "test server", "map": "FOY", "state": "in_progress"},
  "teams": [
    {"id": 1, "name": "Allies"},
    {"id": 2, "name": "Axis"}
  ],
  "squads": [
    {"id": 1, "name": "Able", "team": {"name": "Allies"}}
  ],
  "players": [
    {
      "steamid": "76561198000000001",
      "name": "baker",
      "team": {"name": "Allies"},
      "squad": {"name": "Able"}
    }
  ]
}`

func writeDump(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dump: %v", err)
	}
	return path
}

func TestFileSourceQuery(t *testing.T) {
	source := NewFileSource(writeDump(t, sampleDump))
	snap, err := source.Query(context.Background())
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if got := snap.Players().Len(); got != 1 {
		t.Fatalf("expected 1 player, got %d", got)
	}
	if got := snap.Teams().Len(); got != 2 {
		t.Fatalf("expected 2 teams, got %d", got)
	}
	server := snap.Server()
	if v, _ := server.Get("map"); v != "FOY" {
		t.Fatalf("expected map FOY, got %v", v)
	}

	// Player references resolve lazily against the same snapshot.
	player := snap.FindPlayer(state.Fields{"name": "baker"})
	if player == nil {
		t.Fatal("expected to find baker")
	}
	teamValue, ok := player.Get("team")
	if !ok {
		t.Fatal("expected team to resolve")
	}
	team, isNode := teamValue.(*state.Node)
	if !isNode {
		t.Fatalf("expected team node, got %T", teamValue)
	}
	if v, _ := team.Get("name"); v != "Allies" {
		t.Fatalf("expected Allies, got %v", v)
	}
}

func TestFileSourcePartialDump(t *testing.T) {
	source := NewFileSource(writeDump(t, `{"players": [{"name": "baker"}]}`))
	snap, err := source.Query(context.Background())
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if snap.Players().Len() != 1 {
		t.Fatalf("expected 1 player, got %d", snap.Players().Len())
	}
	if snap.Has("teams") {
		t.Fatal("expected teams to stay unset")
	}
}

func TestFileSourceErrors(t *testing.T) {
	missing := NewFileSource(filepath.Join(t.TempDir(), "absent.json"))
	if _, err := missing.Query(context.Background()); err == nil {
		t.Fatal("expected error for missing dump")
	}

	invalid := NewFileSource(writeDump(t, "{not json"))
	if _, err := invalid.Query(context.Background()); err == nil {
		t.Fatal("expected error for invalid dump")
	}
}
