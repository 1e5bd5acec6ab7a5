package rts

import "errors"

// ErrorKind classifies a game-level failure so callers (the HTTP/WS layer)
// can pick the right response code without string-matching messages
// (§7 error taxonomy).
type ErrorKind int

const (
	// KindValidation: the request was malformed or violates a game rule
	// the client should have already checked (bad faction, unknown target).
	KindValidation ErrorKind = iota
	// KindCapacity: a resource limit was hit (full lobby, too many queued
	// inputs, faction unit cap) — retryable by the client later.
	KindCapacity
	// KindTransient: a momentary condition (game still starting, snapshot
	// not yet built) that resolves on its own.
	KindTransient
	// KindFatal: the game itself cannot continue (panic recovered mid-tick,
	// corrupted entity store) and has been terminated.
	KindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindCapacity:
		return "capacity"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// GameError wraps an underlying error with the kind classification. Use
// errors.As to recover it from a wrapped chain.
type GameError struct {
	Kind ErrorKind
	Op   string // the operation that failed, e.g. "joinMatchmaking"
	Err  error
}

func (e *GameError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *GameError) Unwrap() error { return e.Err }

func newError(kind ErrorKind, op string, err error) *GameError {
	return &GameError{Kind: kind, Op: op, Err: err}
}

func validationErr(op string, err error) *GameError { return newError(KindValidation, op, err) }
func capacityErr(op string, err error) *GameError    { return newError(KindCapacity, op, err) }
func transientErr(op string, err error) *GameError   { return newError(KindTransient, op, err) }
func fatalErr(op string, err error) *GameError       { return newError(KindFatal, op, err) }

// Sentinel errors matched with errors.Is against a GameError's Unwrap chain.
// Per-tick order rejections (bad target id, insufficient credits) never
// reach this path: ApplyInput has no error return, so those surface as a
// Notice instead (§7). These sentinels cover the lobby-level operations
// that do return an error to the HTTP/WS layer.
var (
	ErrGameFull       = errors.New("game is full")
	ErrGameNotFound   = errors.New("game not found")
	ErrFactionTaken   = errors.New("faction slot already taken")
	ErrSessionInvalid = errors.New("session token invalid or expired")
)

// KindOf extracts the ErrorKind from any error in the chain, defaulting
// to KindValidation for errors the game layer didn't classify itself
// (e.g. a raw JSON decode error from a malformed client payload).
func KindOf(err error) ErrorKind {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindValidation
}
