package state

// Schemas for the concrete entity kinds tracked from a game server.
// Key fields are listed in preference order: the first non-unset value
// establishes identity when matching records across snapshots.
var (
	playerSchema = &Schema{
		Kind:      KindPlayer,
		ScopePath: "players",
		Fields: []string{
			"steamid", "name", "id", "ip", "team", "squad", "role",
			"loadout", "level", "kills", "deaths", "assists", "alive",
			"score", "location", "ping", "is_vip", "joined_at",
			"is_spectator",
		},
		KeyFields: []string{"steamid", "id", "name"},
	}

	playerScoreSchema = &Schema{
		Kind:      KindPlayerScore,
		ScopePath: "players.score",
		Fields:    []string{"combat", "offense", "defense", "support"},
	}

	squadSchema = &Schema{
		Kind:      KindSquad,
		ScopePath: "squads",
		Fields: []string{
			"id", "leader", "creator", "name", "type", "private",
			"team", "players", "created_at",
		},
		KeyFields: []string{"id", "name", "team"},
	}

	teamSchema = &Schema{
		Kind:      KindTeam,
		ScopePath: "teams",
		Fields: []string{
			"id", "leader", "name", "squads", "players", "lives",
			"score", "created_at",
		},
		KeyFields: []string{"id", "name"},
	}

	serverSchema = &Schema{
		Kind:      KindServer,
		ScopePath: "server",
		Fields: []string{
			"name", "map", "gamemode", "next_map", "next_gamemode",
			"round_start", "round_end", "state", "queue_length",
			"ranked", "tickrate", "online_since", "settings",
		},
		KeyFields: []string{"name"},
	}

	serverSettingsSchema = &Schema{
		Kind:      KindServerSettings,
		ScopePath: "server.settings",
		Fields: []string{
			"rotation", "require_password", "password", "max_players",
			"max_queue_length", "max_vip_slots", "time_dilation",
			"idle_kick_time", "idle_kick_enabled", "ping_threshold",
			"ping_threshold_enabled", "team_switch_cooldown",
			"team_switch_cooldown_enabled", "auto_balance_threshold",
			"auto_balance_enabled", "vote_kick_enabled", "chat_filter",
			"chat_filter_enabled",
		},
	}
)

// NewPlayer creates a detached player node under s.
func NewPlayer(s *Snapshot, fields Fields) (*Node, error) {
	return newNode(s, playerSchema, fields)
}

// NewPlayerScore creates a player score breakdown node under s.
func NewPlayerScore(s *Snapshot, fields Fields) (*Node, error) {
	return newNode(s, playerScoreSchema, fields)
}

// NewSquad creates a detached squad node under s.
func NewSquad(s *Snapshot, fields Fields) (*Node, error) {
	return newNode(s, squadSchema, fields)
}

// NewTeam creates a detached team node under s.
func NewTeam(s *Snapshot, fields Fields) (*Node, error) {
	return newNode(s, teamSchema, fields)
}

// NewServer creates a server node under s. Assign it with SetServer.
func NewServer(s *Snapshot, fields Fields) (*Node, error) {
	return newNode(s, serverSchema, fields)
}

// NewServerSettings creates a server settings node under s.
func NewServerSettings(s *Snapshot, fields Fields) (*Node, error) {
	return newNode(s, serverSettingsSchema, fields)
}
