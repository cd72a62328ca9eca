package world

import (
	"hillbillies.sim/internal/sim/geom"
	"hillbillies.sim/internal/sim/world/activity"
)

// Snapshot is a read-only copy of the world between ticks, for presentation.
type Snapshot struct {
	WorldID   string
	Tick      uint64
	Time      float64
	Bounds    geom.Bounds
	Terrain   [][][]int
	Units     []UnitSnapshot
	Materials []MaterialSnapshot
	Pending   []PendingSnapshot
}

type UnitSnapshot struct {
	ID      string
	Name    string
	Faction int

	Pos  geom.Vec3
	Cube geom.Vec3i

	Strength  int
	Agility   int
	Toughness int
	Weight    int
	XP        int

	HP         float64
	MaxHP      float64
	Stamina    float64
	MaxStamina float64

	Carrying         uint64
	DefaultBehaviour bool
	Activity         ActivitySnapshot
	// StackDepth counts records above the base Idle.
	StackDepth    int
	LastSucceeded bool
}

type ActivitySnapshot struct {
	Kind     activity.Kind
	Target   geom.Vec3i
	Unit     string
	Progress float64
	Active   bool
	Default  bool
}

type MaterialSnapshot struct {
	ID        uint64
	Kind      MaterialKind
	Weight    int
	Pos       geom.Vec3
	Owner     string
	OwnerCube geom.Vec3i
	OwnerUnit string
}

type PendingSnapshot struct {
	Pos     geom.Vec3i
	Elapsed float64
}

func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		WorldID: w.cfg.ID,
		Tick:    w.tick.Load(),
		Time:    w.time,
		Bounds:  w.grid.Bounds(),
		Terrain: w.grid.IDs(),
	}
	s.Units = make([]UnitSnapshot, 0, len(w.unitOrder))
	for _, u := range w.unitOrder {
		s.Units = append(s.Units, u.snapshot())
	}
	for _, m := range w.Materials() {
		ms := MaterialSnapshot{
			ID:     m.id,
			Kind:   m.kind,
			Weight: m.weight,
			Pos:    m.Position(),
			Owner:  m.ownerName(),
		}
		if c, ok := m.OwnerCube(); ok {
			ms.OwnerCube = c
		}
		if u, ok := m.OwnerUnit(); ok {
			ms.OwnerUnit = u.id
		}
		s.Materials = append(s.Materials, ms)
	}
	for _, c := range w.pendingKeys() {
		s.Pending = append(s.Pending, PendingSnapshot{Pos: c, Elapsed: w.pending[c]})
	}
	return s
}

func (u *Unit) snapshot() UnitSnapshot {
	top := u.stack.Top()
	us := UnitSnapshot{
		ID:               u.id,
		Name:             u.name,
		Pos:              u.pos,
		Cube:             u.Cube(),
		Strength:         u.strength,
		Agility:          u.agility,
		Toughness:        u.toughness,
		Weight:           u.Weight(),
		XP:               u.xp,
		HP:               u.hp,
		MaxHP:            u.MaxHitpoints(),
		Stamina:          u.stamina,
		MaxStamina:       u.MaxStamina(),
		DefaultBehaviour: u.stack.DefaultBehaviour(),
		StackDepth:       u.stack.Len() - 1,
		Activity: ActivitySnapshot{
			Kind:     top.Kind(),
			Target:   top.Params().Target,
			Unit:     top.Params().Unit,
			Progress: top.Progress(),
			Active:   top.IsActive(),
			Default:  top.IsDefault(),
		},
	}
	if u.faction != nil {
		us.Faction = u.faction.id
	}
	if u.carrying != nil {
		us.Carrying = u.carrying.id
	}
	if last := u.stack.Last(); last != nil {
		us.LastSucceeded = last.WasSuccessful()
	}
	return us
}
