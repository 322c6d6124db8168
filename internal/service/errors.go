package service

import (
	"errors"
	"net/http"
)

// ErrorKind classifies game errors for transports
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "state_conflict"
	KindAlreadyExists ErrorKind = "already_exists"
	KindInternal      ErrorKind = "internal"
)

// GameError is a client-facing error with a stable code
type GameError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

func newError(kind ErrorKind, code, msg string) *GameError {
	return &GameError{Kind: kind, Code: code, Message: msg}
}

var (
	ErrInvalidName    = newError(KindValidation, "INVALID_NAME", "player name is required and must be at most the configured length")
	ErrInvalidTimer   = newError(KindValidation, "INVALID_TIMER", "game timer is out of range")
	ErrInvalidTarget  = newError(KindValidation, "INVALID_TARGET", "cannot call yourself")
	ErrInvalidSession = newError(KindValidation, "INVALID_SESSION", "session token is invalid or expired")
	ErrBadSignature   = newError(KindValidation, "BAD_SIGNATURE", "webhook signature verification failed")

	ErrRoomNotFound   = newError(KindNotFound, "ROOM_NOT_FOUND", "room not found")
	ErrPlayerNotFound = newError(KindNotFound, "PLAYER_NOT_FOUND", "player not found")
	ErrTargetNotFound = newError(KindNotFound, "TARGET_NOT_FOUND", "target player not found")

	ErrNotCenter          = newError(KindConflict, "NOT_CENTER", "only the center player can do that")
	ErrCallAlreadyPending = newError(KindConflict, "CALL_ALREADY_PENDING", "a call is already pending")
	ErrNoPendingCall      = newError(KindConflict, "NO_PENDING_CALL", "there is no pending call")
	ErrTargetMismatch     = newError(KindConflict, "TARGET_MISMATCH", "target does not match the pending call")
	ErrRoomNotActive      = newError(KindConflict, "ROOM_NOT_ACTIVE", "game is not running")
	ErrRoomEnded          = newError(KindConflict, "ROOM_ENDED", "game has ended")
	ErrRoomFull           = newError(KindConflict, "ROOM_FULL", "room is full")
	ErrNotEnoughPlayers   = newError(KindConflict, "NOT_ENOUGH_PLAYERS", "not enough players to start")
	ErrPaymentRequired    = newError(KindConflict, "PAYMENT_REQUIRED", "boost must be purchased through checkout")
	ErrPaymentsDisabled   = newError(KindConflict, "PAYMENTS_DISABLED", "payments are not enabled")

	ErrAlreadyExists       = newError(KindAlreadyExists, "ALREADY_EXISTS", "player name already taken")
	ErrBoostAlreadyApplied = newError(KindAlreadyExists, "BOOST_ALREADY_APPLIED", "boost already applied")
)

// KindOf returns the kind of err, or KindInternal for errors that are not game errors
func KindOf(err error) ErrorKind {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindInternal
}

// CodeOf returns the stable code of err
func CodeOf(err error) string {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return "INTERNAL"
}

// MessageOf returns a message safe to show clients
func MessageOf(err error) string {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Message
	}
	return "internal error"
}

// HTTPStatus maps err to a response status
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
