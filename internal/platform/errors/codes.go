// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// State-tree errors
	CodeStateImmutable     Code = "STATE_IMMUTABLE"
	CodeStateAlreadyInTree Code = "STATE_ALREADY_IN_TREE"
	CodeStateKindMismatch  Code = "STATE_KIND_MISMATCH"
	CodeStateNoKeyFields   Code = "STATE_NO_KEY_FIELDS"
	CodeStateNoKeyValues   Code = "STATE_NO_KEY_VALUES"
	CodeStateUnknownField  Code = "STATE_UNKNOWN_FIELD"
	CodeStateFieldUnset    Code = "STATE_FIELD_UNSET"
	CodeStateWrongItemKind Code = "STATE_WRONG_ITEM_KIND"
	CodeStateNotCollection Code = "STATE_NOT_COLLECTION"

	// Event errors
	CodeEventKindUnknown Code = "EVENT_KIND_UNKNOWN"
	CodeEventKindPrivate Code = "EVENT_KIND_PRIVATE"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Watch errors
	CodeWatchAlreadyRunning Code = "WATCH_ALREADY_RUNNING"
	CodeWatchSourceFailed   Code = "WATCH_SOURCE_FAILED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeStateKindMismatch,
		CodeStateNoKeyFields,
		CodeStateNoKeyValues,
		CodeStateUnknownField,
		CodeStateWrongItemKind,
		CodeStateNotCollection,
		CodeEventKindUnknown,
		CodeEventKindPrivate:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeStateImmutable,
		CodeStateAlreadyInTree,
		CodeStateFieldUnset,
		CodeWatchAlreadyRunning:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	// Unavailable - upstream game server unreachable
	case CodeWatchSourceFailed:
		return codes.Unavailable

	default:
		return codes.Internal
	}
}
