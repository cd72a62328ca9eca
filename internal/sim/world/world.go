package world

import (
	"io"
	"log"
	"sort"
	"sync/atomic"

	"hillbillies.sim/internal/sim/geom"
	"hillbillies.sim/internal/sim/world/connectivity"
	"hillbillies.sim/internal/sim/world/logic/mathx"
	"hillbillies.sim/internal/sim/world/terrain"
)

// TerrainChangeListener is told about every single-cube terrain change,
// before connectivity is recomputed for it.
type TerrainChangeListener interface {
	NotifyTerrainChanged(x, y, z int)
}

// TerrainChangeFunc adapts a function to TerrainChangeListener.
type TerrainChangeFunc func(x, y, z int)

func (f TerrainChangeFunc) NotifyTerrainChanged(x, y, z int) { f(x, y, z) }

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type TickLogEntry struct {
	Tick      uint64      `json:"tick"`
	Time      float64     `json:"time"`
	Dt        float64     `json:"dt"`
	Collapsed [][3]int    `json:"collapsed,omitempty"`
	Scheduled [][3]int    `json:"scheduled,omitempty"`
	Errors    []UnitError `json:"errors,omitempty"`
	Digest    string      `json:"digest"`
}

type UnitError struct {
	UnitID  string `json:"unit_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AuditEntry struct {
	Tick   uint64 `json:"tick"`
	Actor  string `json:"actor"`
	Action string `json:"action"` // COLLAPSE or SET_TERRAIN
	Pos    [3]int `json:"pos"`
	From   uint16 `json:"from"`
	To     uint16 `json:"to"`
	Reason string `json:"reason,omitempty"`
}

const worldActor = "WORLD"

// World is a single-threaded simulation. Outside of Run, callers must not use
// a World from more than one goroutine at a time; inside Run, all state is
// owned by the loop goroutine.
type World struct {
	cfg    Config
	log    *log.Logger
	grid   *terrain.Grid
	oracle *connectivity.Oracle
	roller *mathx.Roller

	tick atomic.Uint64
	time float64

	// pending maps a disconnected cube to the time elapsed since it was
	// scheduled for collapse.
	pending map[geom.Vec3i]float64

	units     map[string]*Unit
	unitOrder []*Unit
	factions  []*Faction
	materials map[uint64]*Material

	nextUnitNum     uint64
	nextMaterialNum uint64

	listeners   []TerrainChangeListener
	tickLogger  TickLogger
	auditLogger AuditLogger

	snapshotSink  chan<- Snapshot
	snapshotEvery uint64

	// per-tick bookkeeping
	actor          string
	reason         string
	collapsing     bool
	tickCollapsed  []geom.Vec3i
	tickScheduled  []geom.Vec3i
	tickAudits     []AuditEntry
	terrainVersion uint64

	requests      chan ActivityRequest
	observerJoin  chan ObserverJoinRequest
	observerSub   chan ObserverSubscribeRequest
	observerLeave chan string
	stop          chan struct{}
	observers     map[string]*observerClient
}

type Option func(*World)

func WithLogger(l *log.Logger) Option {
	return func(w *World) {
		if l != nil {
			w.log = l
		}
	}
}

func WithTerrainChangeListener(l TerrainChangeListener) Option {
	return func(w *World) {
		if l != nil {
			w.listeners = append(w.listeners, l)
		}
	}
}

func WithTickLogger(l TickLogger) Option   { return func(w *World) { w.tickLogger = l } }
func WithAuditLogger(l AuditLogger) Option { return func(w *World) { w.auditLogger = l } }

// WithSnapshotSink sends a Snapshot to ch after every n-th tick. Sends never
// block the loop; a full channel drops the snapshot.
func WithSnapshotSink(ch chan<- Snapshot, every uint64) Option {
	return func(w *World) {
		w.snapshotSink = ch
		w.snapshotEvery = every
	}
}

// New builds a world from an [x][y][z] matrix of terrain ids. Solid cubes
// that are not connected to the border are scheduled for collapse right away.
func New(cfg Config, ids [][][]int, opts ...Option) (*World, error) {
	cfg.applyDefaults()
	w := &World{
		cfg:           cfg,
		log:           log.New(io.Discard, "[world] ", log.LstdFlags|log.Lmicroseconds),
		roller:        mathx.NewRoller(cfg.Seed),
		pending:       map[geom.Vec3i]float64{},
		units:         map[string]*Unit{},
		materials:     map[uint64]*Material{},
		actor:         worldActor,
		requests:      make(chan ActivityRequest, 1024),
		observerJoin:  make(chan ObserverJoinRequest, 16),
		observerSub:   make(chan ObserverSubscribeRequest, 64),
		observerLeave: make(chan string, 16),
		stop:          make(chan struct{}),
		observers:     map[string]*observerClient{},
	}
	for _, o := range opts {
		o(w)
	}

	grid, err := terrain.NewGrid(ids, w.onCubeChanged)
	if err != nil {
		return nil, err
	}
	w.grid = grid
	w.oracle = connectivity.New(grid.Bounds())
	w.oracle.Initialize(grid.IsSolid)

	for _, c := range w.oracle.Disconnected() {
		w.schedule(c)
	}
	if n := len(w.pending); n > 0 {
		w.log.Printf("%s: %d floating cubes scheduled for collapse", cfg.ID, n)
	}
	return w, nil
}

func (w *World) ID() string                 { return w.cfg.ID }
func (w *World) Config() Config             { return w.cfg }
func (w *World) Bounds() geom.Bounds        { return w.grid.Bounds() }
func (w *World) Tick() uint64               { return w.tick.Load() }
func (w *World) Time() float64              { return w.time }
func (w *World) Roller() *mathx.Roller      { return w.roller }
func (w *World) TerrainPalette() []string   { return append([]string(nil), terrain.Palette...) }
func (w *World) InBounds(c geom.Vec3i) bool { return w.grid.InBounds(c) }

func (w *World) AddTerrainChangeListener(l TerrainChangeListener) {
	if l != nil {
		w.listeners = append(w.listeners, l)
	}
}

func (w *World) Terrain(c geom.Vec3i) (terrain.Terrain, error) {
	cube, err := w.grid.Cube(c)
	if err != nil {
		return terrain.Air, err
	}
	return cube.Terrain(), nil
}

func (w *World) IsSolid(c geom.Vec3i) bool    { return w.grid.IsSolid(c) }
func (w *World) IsPassable(c geom.Vec3i) bool { return w.grid.InBounds(c) && !w.grid.IsSolid(c) }

// IsStandable reports whether a unit can stand in c: passable, and either on
// the bottom layer or above a solid cube.
func (w *World) IsStandable(c geom.Vec3i) bool {
	if !w.IsPassable(c) {
		return false
	}
	return c.Z == 0 || w.grid.IsSolid(c.Below())
}

// IsSolidConnectedToBorder exposes the connectivity oracle.
func (w *World) IsSolidConnectedToBorder(c geom.Vec3i) bool {
	return w.oracle.IsSolidConnectedToBorder(c)
}

// Pending returns the scheduled collapses and their elapsed time.
func (w *World) Pending() map[geom.Vec3i]float64 {
	out := make(map[geom.Vec3i]float64, len(w.pending))
	for c, t := range w.pending {
		out[c] = t
	}
	return out
}

func (w *World) IsPending(c geom.Vec3i) bool {
	_, ok := w.pending[c]
	return ok
}

func (w *World) pendingKeys() []geom.Vec3i {
	out := make([]geom.Vec3i, 0, len(w.pending))
	for c := range w.pending {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
