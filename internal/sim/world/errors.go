package world

import (
	"errors"

	"hillbillies.sim/internal/protocol"
	"hillbillies.sim/internal/sim/world/activity"
	"hillbillies.sim/internal/sim/world/terrain"
)

var (
	ErrOutOfBounds      = terrain.ErrOutOfBounds
	ErrInvalidState     = activity.ErrInvalidState
	ErrNotAbleTo        = activity.ErrNotAbleTo
	ErrBusy             = activity.ErrBusy
	ErrInvalidOwnership = errors.New("invalid material ownership")
	ErrUnknownUnit      = errors.New("unknown unit")
	ErrBadDuration      = errors.New("time step out of range")
	ErrBadRequest       = errors.New("bad request")
	ErrNoSpawnPosition  = errors.New("no spawn position found")
	ErrWorldFull        = errors.New("unit limit reached")
)

// ErrorCode maps an error to its stable protocol code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOutOfBounds):
		return protocol.ErrOutOfBounds
	case errors.Is(err, ErrNotAbleTo):
		return protocol.ErrNotAbleTo
	case errors.Is(err, ErrBusy):
		return protocol.ErrBusy
	case errors.Is(err, ErrInvalidState):
		return protocol.ErrInvalidState
	case errors.Is(err, ErrInvalidOwnership):
		return protocol.ErrInvalidOwnership
	case errors.Is(err, ErrUnknownUnit):
		return protocol.ErrUnknownUnit
	case errors.Is(err, ErrWorldFull):
		return protocol.ErrWorldFull
	case errors.Is(err, ErrNoSpawnPosition):
		return protocol.ErrNoSpawnPosition
	case errors.Is(err, ErrBadDuration), errors.Is(err, ErrBadRequest),
		errors.Is(err, terrain.ErrBadTerrain), errors.Is(err, terrain.ErrBadShape):
		return protocol.ErrBadRequest
	default:
		return protocol.ErrInternal
	}
}
