package state

import "math/bits"

// EventFlags is a bitset selecting event kinds, used by consumers to
// filter an event stream.
type EventFlags uint32

// One bit per event kind. Bit positions are part of the stored-filter
// contract and must not be reordered.
const (
	FlagPlayerJoinServer EventFlags = 1 << iota
	FlagServerMapChanged
	FlagServerMatchStart
	FlagServerWarmupEnded
	FlagServerMatchEnded
	FlagSquadCreated
	FlagPlayerSwitchTeam
	FlagPlayerSwitchSquad
	FlagSquadLeaderChange
	FlagPlayerChangeRole
	FlagPlayerChangeLoadout
	FlagPlayerEnterAdminCam
	FlagPlayerMessage
	FlagPlayerKill
	FlagPlayerTeamkill
	FlagPlayerSuicide
	FlagPlayerLevelUp
	FlagPlayerExitAdminCam
	FlagPlayerLeaveServer
	FlagSquadDisbanded
	FlagObjectiveCapture
	FlagRuleViolated
	FlagArtyAssigned
	FlagArtyUnassigned
	FlagStartArtyCooldown
	FlagCancelArtyCooldown
	FlagPlayerScoreUpdate
	FlagPlayerKicked

	flagsEnd
)

// Named unions for common consumer filters.
const (
	FlagsNone EventFlags = 0
	FlagsAll  EventFlags = flagsEnd - 1

	FlagsConnections = FlagPlayerJoinServer | FlagPlayerLeaveServer
	FlagsGameStates  = FlagServerMapChanged | FlagServerMatchStart |
		FlagServerWarmupEnded | FlagServerMatchEnded | FlagObjectiveCapture
	FlagsTeams     = FlagPlayerSwitchTeam
	FlagsSquads    = FlagPlayerSwitchSquad | FlagSquadCreated | FlagSquadDisbanded | FlagSquadLeaderChange
	FlagsDeaths    = FlagPlayerKill | FlagPlayerTeamkill | FlagPlayerSuicide
	FlagsMessages  = FlagPlayerMessage
	FlagsAdminCam  = FlagPlayerEnterAdminCam | FlagPlayerExitAdminCam
	FlagsRoles     = FlagPlayerChangeRole | FlagPlayerChangeLoadout | FlagPlayerLevelUp
	FlagsScores    = FlagPlayerScoreUpdate
	FlagsModifiers = FlagRuleViolated | FlagArtyAssigned | FlagArtyUnassigned |
		FlagStartArtyCooldown | FlagCancelArtyCooldown | FlagPlayerKicked
)

var kindFlags = map[EventKind]EventFlags{
	EventPlayerJoinServer:    FlagPlayerJoinServer,
	EventServerMapChanged:    FlagServerMapChanged,
	EventServerMatchStart:    FlagServerMatchStart,
	EventServerWarmupEnded:   FlagServerWarmupEnded,
	EventServerMatchEnded:    FlagServerMatchEnded,
	EventSquadCreated:        FlagSquadCreated,
	EventPlayerSwitchTeam:    FlagPlayerSwitchTeam,
	EventPlayerSwitchSquad:   FlagPlayerSwitchSquad,
	EventSquadLeaderChange:   FlagSquadLeaderChange,
	EventPlayerChangeRole:    FlagPlayerChangeRole,
	EventPlayerChangeLoadout: FlagPlayerChangeLoadout,
	EventPlayerEnterAdminCam: FlagPlayerEnterAdminCam,
	EventPlayerMessage:       FlagPlayerMessage,
	EventPlayerKill:          FlagPlayerKill,
	EventPlayerTeamkill:      FlagPlayerTeamkill,
	EventPlayerSuicide:       FlagPlayerSuicide,
	EventPlayerLevelUp:       FlagPlayerLevelUp,
	EventPlayerExitAdminCam:  FlagPlayerExitAdminCam,
	EventPlayerLeaveServer:   FlagPlayerLeaveServer,
	EventSquadDisbanded:      FlagSquadDisbanded,
	EventObjectiveCapture:    FlagObjectiveCapture,
	EventRuleViolated:        FlagRuleViolated,
	EventArtyAssigned:        FlagArtyAssigned,
	EventArtyUnassigned:      FlagArtyUnassigned,
	EventStartArtyCooldown:   FlagStartArtyCooldown,
	EventCancelArtyCooldown:  FlagCancelArtyCooldown,
	EventPlayerScoreUpdate:   FlagPlayerScoreUpdate,
	EventPlayerKicked:        FlagPlayerKicked,
}

// Flag returns the bit for this event kind. Lifecycle kinds carry no
// bit and return zero.
func (k EventKind) Flag() EventFlags { return kindFlags[k] }

// Contains reports whether the bit for kind is set.
func (f EventFlags) Contains(kind EventKind) bool {
	bit := kind.Flag()
	return bit != 0 && f&bit == bit
}

// With returns f with the bits of others set.
func (f EventFlags) With(others ...EventFlags) EventFlags {
	for _, o := range others {
		f |= o
	}
	return f
}

// Without returns f with the bits of others cleared.
func (f EventFlags) Without(others ...EventFlags) EventFlags {
	for _, o := range others {
		f &^= o
	}
	return f
}

// IsSubset reports whether every bit of f is also set on other.
func (f EventFlags) IsSubset(other EventFlags) bool { return f&other == f }

// IsSuperset reports whether every bit of other is also set on f.
func (f EventFlags) IsSuperset(other EventFlags) bool { return f|other == f }

// IsStrictSubset reports whether f is a subset of other and differs.
func (f EventFlags) IsStrictSubset(other EventFlags) bool {
	return f.IsSubset(other) && f != other
}

// IsStrictSuperset reports whether f is a superset of other and differs.
func (f EventFlags) IsStrictSuperset(other EventFlags) bool {
	return f.IsSuperset(other) && f != other
}

// Count returns the number of kinds selected.
func (f EventFlags) Count() int { return bits.OnesCount32(uint32(f)) }

// LogLine is the log abstraction the filter consumes: opaque beyond the
// event kind it was classified as.
type LogLine interface {
	EventKind() EventKind
}

// FilterLogs returns the lines whose kind bit is set on f, preserving
// order.
func (f EventFlags) FilterLogs(lines []LogLine) []LogLine {
	var out []LogLine
	for _, line := range lines {
		if f.Contains(line.EventKind()) {
			out = append(out, line)
		}
	}
	return out
}
