package observerproto

// Version is the observer protocol version.
const Version = "0.1"

// TerrainEncoding names the terrain payload format: base64 of uvarint
// (terrain_id, run_len) pairs over the flattened grid, z fastest, then y,
// then x.
const TerrainEncoding = "RLE_UVARINT_ZYX"

// Client -> Server. First message on the observer WS connection, and can be
// re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// IncludeTerrain asks for a full TERRAIN message whenever the grid changes.
	IncludeTerrain bool `json:"include_terrain"`
	// FocusUnitID restricts unit activity details to one unit; empty means all.
	FocusUnitID string `json:"focus_unit_id,omitempty"`
}

// HTTP response for GET /admin/v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	TerrainPalette  []string    `json:"terrain_palette"`
}

type WorldParams struct {
	TickRateHz    int     `json:"tick_rate_hz"`
	Dt            float64 `json:"dt"`
	Dims          [3]int  `json:"dims"`
	Seed          int64   `json:"seed"`
	CollapseDelay float64 `json:"collapse_delay"`
}

// Server -> Client. Sent every tick.
type TickMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Tick            uint64  `json:"tick"`
	Time            float64 `json:"time"`

	Units     []UnitState     `json:"units"`
	Materials []MaterialState `json:"materials,omitempty"`
	Pending   []PendingCube   `json:"pending,omitempty"`
	Collapsed [][3]int        `json:"collapsed,omitempty"`
	Audits    []AuditEntry    `json:"audits,omitempty"`
}

type AuditEntry struct {
	Tick   uint64 `json:"tick"`
	Actor  string `json:"actor"`
	Action string `json:"action"`
	Pos    [3]int `json:"pos"`
	From   uint16 `json:"from"`
	To     uint16 `json:"to"`
	Reason string `json:"reason,omitempty"`
}

type UnitState struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Faction int    `json:"faction"`

	Pos  [3]float64 `json:"pos"`
	Cube [3]int     `json:"cube"`

	Strength  int `json:"strength"`
	Agility   int `json:"agility"`
	Toughness int `json:"toughness"`
	Weight    int `json:"weight"`
	XP        int `json:"xp"`

	HP      float64 `json:"hp"`
	Stamina float64 `json:"stamina"`

	Carrying uint64         `json:"carrying,omitempty"`
	Activity *ActivityState `json:"activity,omitempty"`
}

type ActivityState struct {
	Kind      string  `json:"kind"`
	Target    [3]int  `json:"target,omitempty"`
	TargetID  string  `json:"target_id,omitempty"`
	Progress  float64 `json:"progress"`
	Default   bool    `json:"default,omitempty"`
	Depth     int     `json:"depth"`
	Succeeded bool    `json:"succeeded,omitempty"`
}

type MaterialState struct {
	ID     uint64     `json:"id"`
	Kind   string     `json:"kind"`
	Weight int        `json:"weight"`
	Pos    [3]float64 `json:"pos"`
	Owner  string     `json:"owner"` // CUBE, UNIT or FALLING
}

type PendingCube struct {
	Pos     [3]int  `json:"pos"`
	Elapsed float64 `json:"elapsed"`
}

// Server -> Client. Full terrain grid.
type TerrainMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Dims            [3]int `json:"dims"`
	Encoding        string `json:"encoding"`
	Data            string `json:"data"`
}
