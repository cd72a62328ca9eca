package activity

import (
	"errors"
	"sort"

	"hillbillies.sim/internal/sim/geom"
	"hillbillies.sim/internal/sim/world/logic/mathx"
)

type fakeEnv struct {
	bounds geom.Bounds
	solid  map[geom.Vec3i]bool
	pos    geom.Vec3

	str, agi, tough, weight int
	hp, maxHP               float64
	stamina, maxStamina     float64
	xp                      int

	enemies  map[string]bool
	defends  map[string]bool
	attacked []string
	worked   []geom.Vec3i
	workErr  error
	roller   *mathx.Roller
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{
		bounds:     geom.Bounds{NX: 6, NY: 6, NZ: 6},
		solid:      map[geom.Vec3i]bool{},
		pos:        geom.Center(geom.Vec3i{}),
		str:        50,
		agi:        50,
		tough:      50,
		weight:     50,
		hp:         50,
		maxHP:      50,
		stamina:    50,
		maxStamina: 50,
		enemies:    map[string]bool{},
		defends:    map[string]bool{},
		roller:     mathx.NewRoller(1),
	}
}

func (e *fakeEnv) Position() geom.Vec3        { return e.pos }
func (e *fakeEnv) SetPosition(p geom.Vec3)    { e.pos = p }
func (e *fakeEnv) Strength() int              { return e.str }
func (e *fakeEnv) Agility() int               { return e.agi }
func (e *fakeEnv) Toughness() int             { return e.tough }
func (e *fakeEnv) Weight() int                { return e.weight }
func (e *fakeEnv) Hitpoints() float64         { return e.hp }
func (e *fakeEnv) MaxHitpoints() float64      { return e.maxHP }
func (e *fakeEnv) Stamina() float64           { return e.stamina }
func (e *fakeEnv) MaxStamina() float64        { return e.maxStamina }
func (e *fakeEnv) Heal(hp float64)            { e.hp += hp }
func (e *fakeEnv) Refresh(s float64)          { e.stamina += s }
func (e *fakeEnv) TakeDamage(hp float64)      { e.hp -= hp }
func (e *fakeEnv) AddXP(n int)                { e.xp += n }
func (e *fakeEnv) Bounds() geom.Bounds        { return e.bounds }
func (e *fakeEnv) InBounds(c geom.Vec3i) bool { return e.bounds.Contains(c) }
func (e *fakeEnv) IsSolid(c geom.Vec3i) bool  { return e.solid[c] }
func (e *fakeEnv) Roller() *mathx.Roller      { return e.roller }

func (e *fakeEnv) WorkAt(c geom.Vec3i) error {
	if e.workErr != nil {
		return e.workErr
	}
	e.worked = append(e.worked, c)
	return nil
}

func (e *fakeEnv) CanAttack(id string) bool { return e.enemies[id] }

func (e *fakeEnv) ResolveAttack(id string) (bool, error) {
	if !e.enemies[id] {
		return false, errors.New("no such enemy")
	}
	e.attacked = append(e.attacked, id)
	return !e.defends[id], nil
}

func (e *fakeEnv) AdjacentEnemies() []string {
	var out []string
	for id, ok := range e.enemies {
		if ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
