package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	apperrors "github.com/ironsightlabs/spectator/internal/platform/errors"
	"github.com/ironsightlabs/spectator/internal/state"
)

// stateDump is the on-disk document an external poller writes. Absent
// sections stay unset on the snapshot, so a dump may cover any subset
// of the server state.
type stateDump struct {
	Server  map[string]any   `json:"server"`
	Players []map[string]any `json:"players"`
	Squads  []map[string]any `json:"squads"`
	Teams   []map[string]any `json:"teams"`
}

// FileSource reads a JSON state dump on every query. It decouples the
// watcher from the game server protocol: any poller that can write the
// dump format feeds the diff engine.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading dumps from path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name implements Source.
func (f *FileSource) Name() string { return "file:" + f.path }

// Query implements Source. Entity references in the dump (a player's
// squad or team, a squad's leader) become lazy links resolved against
// the gathered snapshot.
func (f *FileSource) Query(ctx context.Context) (*state.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeWatchSourceFailed, "read state dump", err)
	}
	var dump stateDump
	if err := json.Unmarshal(raw, &dump); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeWatchSourceFailed, "decode state dump", err)
	}
	return buildSnapshot(&dump)
}

func buildSnapshot(dump *stateDump) (*state.Snapshot, error) {
	snap := state.New()

	if dump.Server != nil {
		server, err := state.NewServer(snap, dumpFields(dump.Server, nil))
		if err != nil {
			return nil, fmt.Errorf("build server: %w", err)
		}
		if err := snap.SetServer(server); err != nil {
			return nil, err
		}
	}
	for i, fields := range dump.Teams {
		team, err := state.NewTeam(snap, dumpFields(fields, nil))
		if err != nil {
			return nil, fmt.Errorf("build team %d: %w", i, err)
		}
		if err := snap.AddTeams(team); err != nil {
			return nil, err
		}
	}
	for i, fields := range dump.Squads {
		squad, err := state.NewSquad(snap, dumpFields(fields, map[string]string{
			"team":   "teams",
			"leader": "players",
		}))
		if err != nil {
			return nil, fmt.Errorf("build squad %d: %w", i, err)
		}
		if err := snap.AddSquads(squad); err != nil {
			return nil, err
		}
	}
	for i, fields := range dump.Players {
		player, err := state.NewPlayer(snap, dumpFields(fields, map[string]string{
			"team":  "teams",
			"squad": "squads",
		}))
		if err != nil {
			return nil, fmt.Errorf("build player %d: %w", i, err)
		}
		if err := snap.AddPlayers(player); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// dumpFields converts a decoded JSON object into node fields. Fields
// named in linkPaths hold entity references: their object values turn
// into lazy links against the named collection.
func dumpFields(raw map[string]any, linkPaths map[string]string) state.Fields {
	fields := make(state.Fields, len(raw))
	for name, value := range raw {
		if path, ok := linkPaths[name]; ok {
			if ref, isObject := value.(map[string]any); isObject {
				fields[name] = state.NewLink(path, ref)
				continue
			}
		}
		fields[name] = value
	}
	return fields
}
