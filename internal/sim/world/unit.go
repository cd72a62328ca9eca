package world

import (
	"fmt"
	"math"

	"hillbillies.sim/internal/sim/geom"
	"hillbillies.sim/internal/sim/world/activity"
	"hillbillies.sim/internal/sim/world/logic/mathx"
	"hillbillies.sim/internal/sim/world/terrain"
)

const (
	minStat        = 25
	maxInitialStat = 100
	maxStat        = 200
	xpPerLevel     = 10
)

// UnitSpec describes a unit to add. Zero stats are rolled from the world's
// roller; a nil Pos picks a random standable cube.
type UnitSpec struct {
	Name             string
	Pos              *geom.Vec3i
	Strength         int
	Agility          int
	Toughness        int
	Weight           int
	DefaultBehaviour bool
}

type Unit struct {
	id      string
	num     uint64
	name    string
	world   *World
	faction *Faction

	pos       geom.Vec3
	strength  int
	agility   int
	toughness int
	weight    int
	hp        float64
	stamina   float64

	xp        int
	xpSpent   int
	nextBoost int

	carrying *Material
	dead     bool

	stack *activity.Stack
}

// SpawnUnit adds a unit with rolled stats at a random standable cube.
func (w *World) SpawnUnit(name string, defaultBehaviour bool) (*Unit, error) {
	return w.AddUnit(UnitSpec{Name: name, DefaultBehaviour: defaultBehaviour})
}

// AddUnitAt adds a unit with rolled stats standing in cube c.
func (w *World) AddUnitAt(name string, c geom.Vec3i, defaultBehaviour bool) (*Unit, error) {
	return w.AddUnit(UnitSpec{Name: name, Pos: &c, DefaultBehaviour: defaultBehaviour})
}

func (w *World) AddUnit(spec UnitSpec) (*Unit, error) {
	if len(w.units) >= w.cfg.MaxUnits {
		return nil, fmt.Errorf("%w: %d units", ErrWorldFull, len(w.units))
	}
	var pos geom.Vec3i
	if spec.Pos != nil {
		pos = *spec.Pos
		if !w.grid.InBounds(pos) {
			return nil, fmt.Errorf("%w: %v", ErrOutOfBounds, pos)
		}
		if !w.IsPassable(pos) {
			return nil, fmt.Errorf("%w: cube %v is solid", ErrBadRequest, pos)
		}
	} else {
		p, err := w.spawnPosition()
		if err != nil {
			return nil, err
		}
		pos = p
	}

	w.nextUnitNum++
	u := &Unit{
		id:    fmt.Sprintf("U%d", w.nextUnitNum),
		num:   w.nextUnitNum,
		name:  spec.Name,
		world: w,
		pos:   geom.Center(pos),
	}
	if u.name == "" {
		u.name = u.id
	}
	u.strength = w.rollStat(spec.Strength, minStat)
	u.agility = w.rollStat(spec.Agility, minStat)
	u.toughness = w.rollStat(spec.Toughness, minStat)
	// Weight is at least the mean of strength and agility.
	u.weight = w.rollStat(spec.Weight, (u.strength+u.agility)/2)
	if u.weight < (u.strength+u.agility)/2 {
		u.weight = (u.strength + u.agility) / 2
	}
	u.hp = u.MaxHitpoints()
	u.stamina = u.MaxStamina()
	u.stack = activity.NewStack(u, w.cfg.Activity, spec.DefaultBehaviour)

	w.units[u.id] = u
	w.unitOrder = append(w.unitOrder, u)
	w.assignFaction(u)
	return u, nil
}

func (w *World) rollStat(given, lo int) int {
	if given > 0 {
		if given > maxStat {
			return maxStat
		}
		return given
	}
	if lo < minStat {
		lo = minStat
	}
	if lo > maxInitialStat {
		lo = maxInitialStat
	}
	return w.roller.Between(lo, maxInitialStat)
}

// spawnPosition tries SpawnAttempts random cubes for a standable one.
func (w *World) spawnPosition() (geom.Vec3i, error) {
	b := w.grid.Bounds()
	for i := 0; i < w.cfg.SpawnAttempts; i++ {
		c := geom.Vec3i{X: w.roller.Intn(b.NX), Y: w.roller.Intn(b.NY), Z: w.roller.Intn(b.NZ)}
		if w.IsStandable(c) {
			return c, nil
		}
	}
	return geom.Vec3i{}, fmt.Errorf("%w: after %d attempts", ErrNoSpawnPosition, w.cfg.SpawnAttempts)
}

func (w *World) Unit(id string) (*Unit, error) {
	u, ok := w.units[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUnit, id)
	}
	return u, nil
}

// Units returns live units in creation order.
func (w *World) Units() []*Unit {
	return append([]*Unit(nil), w.unitOrder...)
}

func (u *Unit) ID() string                   { return u.id }
func (u *Unit) Name() string                 { return u.name }
func (u *Unit) Faction() *Faction            { return u.faction }
func (u *Unit) Cube() geom.Vec3i             { return u.pos.Cube() }
func (u *Unit) XP() int                      { return u.xp }
func (u *Unit) IsAlive() bool                { return !u.dead }
func (u *Unit) Carrying() *Material          { return u.carrying }
func (u *Unit) Stack() *activity.Stack       { return u.stack }
func (u *Unit) Activity() *activity.Activity { return u.stack.Top() }

// BaseWeight excludes any carried material.
func (u *Unit) BaseWeight() int { return u.weight }

func (u *Unit) MaxHitpoints() float64 {
	return 200 * float64(u.weight) / 100 * float64(u.toughness) / 100
}

func (u *Unit) MaxStamina() float64 { return u.MaxHitpoints() }

func (u *Unit) advance(dt float64) error {
	if !u.stack.Running(activity.Fall) && !u.world.IsStandable(u.Cube()) {
		if _, err := u.stack.Request(activity.Fall, activity.Params{}); err != nil {
			return err
		}
	}
	return u.stack.Advance(dt)
}

func (u *Unit) die() {
	if u.dead {
		return
	}
	u.dead = true
	u.hp = 0
	if u.carrying != nil {
		_ = u.carrying.release()
	}
}

// --- activity.Env ---

func (u *Unit) Position() geom.Vec3     { return u.pos }
func (u *Unit) SetPosition(p geom.Vec3) { u.pos = p }
func (u *Unit) Strength() int           { return u.strength }
func (u *Unit) Agility() int            { return u.agility }
func (u *Unit) Toughness() int          { return u.toughness }
func (u *Unit) Hitpoints() float64      { return u.hp }
func (u *Unit) Stamina() float64        { return u.stamina }

// Weight includes the carried material.
func (u *Unit) Weight() int {
	if u.carrying != nil {
		return u.weight + u.carrying.weight
	}
	return u.weight
}

func (u *Unit) Heal(hp float64) { u.hp = math.Min(u.hp+hp, u.MaxHitpoints()) }

func (u *Unit) Refresh(stamina float64) {
	u.stamina = math.Min(u.stamina+stamina, u.MaxStamina())
}

func (u *Unit) TakeDamage(hp float64) {
	u.hp -= hp
	if u.hp <= 0 {
		u.die()
	}
}

// AddXP grants experience; every xpPerLevel points raise strength, agility
// and toughness in turn.
func (u *Unit) AddXP(n int) {
	if n <= 0 {
		return
	}
	u.xp += n
	for u.xp-u.xpSpent >= xpPerLevel {
		u.xpSpent += xpPerLevel
		switch u.nextBoost % 3 {
		case 0:
			u.strength = min(u.strength+1, maxStat)
		case 1:
			u.agility = min(u.agility+1, maxStat)
		case 2:
			u.toughness = min(u.toughness+1, maxStat)
		}
		u.nextBoost++
	}
}

func (u *Unit) Bounds() geom.Bounds        { return u.world.grid.Bounds() }
func (u *Unit) InBounds(c geom.Vec3i) bool { return u.world.grid.InBounds(c) }
func (u *Unit) IsSolid(c geom.Vec3i) bool  { return u.world.grid.IsSolid(c) }
func (u *Unit) Roller() *mathx.Roller      { return u.world.roller }

// WorkAt performs one work cycle on cube c, in order of preference: drop the
// carried material, upgrade at a workshop, pick up a boulder or log, dig out
// a tree or rock.
func (u *Unit) WorkAt(c geom.Vec3i) error {
	w := u.world
	cube, err := w.grid.Cube(c)
	if err != nil {
		return err
	}
	if u.carrying != nil && cube.IsPassable() {
		return u.carrying.setOwnerCube(c)
	}

	if t, _ := w.Terrain(c); t == terrain.Workshop {
		lg, boulder := w.materialAt(c, Log), w.materialAt(c, Boulder)
		if lg != nil && boulder != nil {
			lg.Terminate()
			boulder.Terminate()
			u.weight = min(u.weight+1, maxStat)
			u.toughness = min(u.toughness+1, maxStat)
			return nil
		}
	}
	if u.carrying == nil {
		if m := w.materialAt(c, Boulder); m != nil {
			return m.setOwnerUnit(u)
		}
		if m := w.materialAt(c, Log); m != nil {
			return m.setOwnerUnit(u)
		}
	}
	if cube.IsSolid() {
		prevActor, prevReason := w.actor, w.reason
		w.actor, w.reason = u.id, "dig"
		defer func() { w.actor, w.reason = prevActor, prevReason }()
		return w.Collapse(c)
	}
	return nil
}

// CanAttack: the target is alive, in another faction, and in a neighbouring
// or the same cube.
func (u *Unit) CanAttack(id string) bool {
	t, ok := u.world.units[id]
	if !ok || t == u || t.dead || t.faction == u.faction {
		return false
	}
	return u.Cube().IsNeighbourOrSame(t.Cube())
}

// ResolveAttack lets the defender dodge, then block; otherwise it takes
// strength/10 damage and the blow counts as a hit. A successful defence earns
// the defender the same experience a landed attack earns the attacker.
func (u *Unit) ResolveAttack(id string) (bool, error) {
	w := u.world
	d, err := w.Unit(id)
	if err != nil {
		return false, err
	}
	if !u.CanAttack(id) {
		return false, fmt.Errorf("%w: cannot attack %s", ErrInvalidState, id)
	}
	dodge := 0.2 * float64(d.agility) / float64(u.agility)
	if w.roller.Float64() < dodge {
		d.dodge()
		d.AddXP(w.cfg.Activity.XPAttack)
		return false, nil
	}
	block := 0.25 * float64(d.strength+d.agility) / float64(u.strength+u.agility)
	if w.roller.Float64() < block {
		d.AddXP(w.cfg.Activity.XPAttack)
		return false, nil
	}
	d.TakeDamage(float64(u.strength) / 10)
	return true, nil
}

// dodge moves the unit to the first standable neighbouring cube, starting
// from a random offset.
func (u *Unit) dodge() {
	w := u.world
	here := u.Cube()
	n := len(geom.Neighbours26)
	start := w.roller.Intn(n)
	for i := 0; i < n; i++ {
		d := geom.Neighbours26[(start+i)%n]
		if d.Z != 0 {
			continue
		}
		c := here.Add(d)
		if w.IsStandable(c) {
			u.pos = geom.Center(c)
			return
		}
	}
}

// AdjacentEnemies lists attackable units in creation order.
func (u *Unit) AdjacentEnemies() []string {
	var out []string
	for _, o := range u.world.unitOrder {
		if u.CanAttack(o.id) {
			out = append(out, o.id)
		}
	}
	return out
}
