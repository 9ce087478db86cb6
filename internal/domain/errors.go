package domain

import "errors"

var (
	ErrUnidentified  = errors.New("connection has not announced a user")
	ErrUserMismatch  = errors.New("user id does not match the announced user")
	ErrNotInRoom     = errors.New("connection is not in that room")
	ErrPeerNotInRoom = errors.New("peer is not in the same room")
	ErrPersistence   = errors.New("message could not be saved")
	ErrBadPayload    = errors.New("bad payload")
	ErrRateLimited   = errors.New("too many messages")
)

// Wire error codes.
const (
	CodeUnidentified = "UNIDENTIFIED"
	CodeNotInRoom    = "NOT_IN_ROOM"
	CodePersistence  = "PERSISTENCE_FAILED"
	CodeBadRequest   = "BAD_PAYLOAD"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

// ErrorCode maps an error to the category a client sees.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnidentified):
		return CodeUnidentified
	case errors.Is(err, ErrNotInRoom), errors.Is(err, ErrPeerNotInRoom):
		return CodeNotInRoom
	case errors.Is(err, ErrPersistence):
		return CodePersistence
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, ErrBadPayload),
		errors.Is(err, ErrUserMismatch),
		errors.Is(err, ErrUserIDEmpty),
		errors.Is(err, ErrUserIDTooLong),
		errors.Is(err, ErrUsernameTooLong),
		errors.Is(err, ErrRoomIDEmpty),
		errors.Is(err, ErrRoomIDTooLong):
		return CodeBadRequest
	default:
		return CodeInternal
	}
}
