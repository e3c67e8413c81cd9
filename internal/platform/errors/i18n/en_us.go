package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeStateImmutable      = "STATE_IMMUTABLE"
	CodeStateAlreadyInTree  = "STATE_ALREADY_IN_TREE"
	CodeStateKindMismatch   = "STATE_KIND_MISMATCH"
	CodeStateNoKeyFields    = "STATE_NO_KEY_FIELDS"
	CodeStateNoKeyValues    = "STATE_NO_KEY_VALUES"
	CodeStateUnknownField   = "STATE_UNKNOWN_FIELD"
	CodeStateFieldUnset     = "STATE_FIELD_UNSET"
	CodeStateWrongItemKind  = "STATE_WRONG_ITEM_KIND"
	CodeStateNotCollection  = "STATE_NOT_COLLECTION"
	CodeEventKindUnknown    = "EVENT_KIND_UNKNOWN"
	CodeEventKindPrivate    = "EVENT_KIND_PRIVATE"
	CodeNotFound            = "NOT_FOUND"
	CodeWatchAlreadyRunning = "WATCH_ALREADY_RUNNING"
	CodeWatchSourceFailed   = "WATCH_SOURCE_FAILED"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		// State-tree errors
		CodeStateImmutable:     "Snapshot is frozen and cannot be modified",
		CodeStateAlreadyInTree: "Entity already belongs to a snapshot",
		CodeStateKindMismatch:  "Cannot merge {{.Other}} into {{.Kind}}",
		CodeStateNoKeyFields:   "Entity kind {{.Kind}} declares no key fields",
		CodeStateNoKeyValues:   "Entity has no key values to link by",
		CodeStateUnknownField:  "Unknown field {{.Field}} on {{.Kind}}",
		CodeStateFieldUnset:    "Field {{.Field}} on {{.Kind}} was never observed",
		CodeStateWrongItemKind: "Collection of {{.Want}} cannot hold {{.Got}}",
		CodeStateNotCollection: "Path {{.Path}} does not name a collection",

		// Event errors
		CodeEventKindUnknown: "Unknown event kind {{.Kind}}",
		CodeEventKindPrivate: "Event kind {{.Kind}} is reserved for internal use",

		// Storage errors
		CodeNotFound: "The requested resource was not found",

		// Watch errors
		CodeWatchAlreadyRunning: "Watcher is already running",
		CodeWatchSourceFailed:   "Game server query failed",
	},
}
