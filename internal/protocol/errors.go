package protocol

const (
	// Transport validation.
	ErrBadRequest = "E_BAD_REQUEST"

	// Grid addressing.
	ErrOutOfBounds = "E_OUT_OF_BOUNDS"

	// Activity requests.
	ErrInvalidState = "E_INVALID_STATE"
	ErrNotAbleTo    = "E_NOT_ABLE_TO"
	ErrBusy         = "E_BUSY"

	// World bookkeeping.
	ErrInvalidOwnership = "E_INVALID_OWNERSHIP"
	ErrUnknownUnit      = "E_UNKNOWN_UNIT"
	ErrWorldFull        = "E_WORLD_FULL"
	ErrNoSpawnPosition  = "E_NO_SPAWN_POSITION"
	ErrWorldBusy        = "E_WORLD_BUSY"
	ErrInternal         = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest:       {},
	ErrOutOfBounds:      {},
	ErrInvalidState:     {},
	ErrNotAbleTo:        {},
	ErrBusy:             {},
	ErrInvalidOwnership: {},
	ErrUnknownUnit:      {},
	ErrWorldFull:        {},
	ErrNoSpawnPosition:  {},
	ErrWorldBusy:        {},
	ErrInternal:         {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
