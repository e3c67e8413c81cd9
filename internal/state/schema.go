package state

// Kind identifies the concrete entity type of a Node. Nodes of
// different kinds never compare equal and never merge.
type Kind string

// Entity kinds.
const (
	KindSnapshot       Kind = "snapshot"
	KindPlayer         Kind = "player"
	KindPlayerScore    Kind = "player_score"
	KindSquad          Kind = "squad"
	KindTeam           Kind = "team"
	KindServer         Kind = "server"
	KindServerSettings Kind = "server_settings"
	KindEvents         Kind = "events"
)

// Fields maps field names to values. It is used both to populate nodes
// at construction time and to express match filters.
type Fields map[string]any

// Schema fixes the shape of a Node: its kind, the dotted path where
// nodes of this kind live under a Snapshot, the declared field names,
// and the ordered key fields used for identity matching.
type Schema struct {
	Kind      Kind
	ScopePath string
	Fields    []string
	KeyFields []string
}

func (s *Schema) declares(name string) bool {
	for _, f := range s.Fields {
		if f == name {
			return true
		}
	}
	return false
}
