package activity

import (
	"hillbillies.sim/internal/sim/geom"
	"hillbillies.sim/internal/sim/world/logic/mathx"
)

// Env is the unit's view of itself and its world. Activities never touch the
// grid directly; terrain edits go through WorkAt, which the world implements.
type Env interface {
	Position() geom.Vec3
	SetPosition(p geom.Vec3)

	Strength() int
	Agility() int
	Toughness() int
	Weight() int

	Hitpoints() float64
	MaxHitpoints() float64
	Stamina() float64
	MaxStamina() float64
	Heal(hp float64)
	Refresh(stamina float64)
	TakeDamage(hp float64)
	AddXP(n int)

	Bounds() geom.Bounds
	InBounds(c geom.Vec3i) bool
	IsSolid(c geom.Vec3i) bool

	WorkAt(c geom.Vec3i) error
	CanAttack(unitID string) bool
	// ResolveAttack reports whether the blow landed; a dodge or block is a
	// miss.
	ResolveAttack(unitID string) (hit bool, err error)
	AdjacentEnemies() []string

	Roller() *mathx.Roller
}

// Config holds the tunables of every variant.
type Config struct {
	XPMove   int
	XPWork   int
	XPAttack int

	FallSpeed         float64
	FallDamagePerCube float64
	RestInterval      float64
	RestMinRecovery   float64
	AttackDuration    float64
	WorkBase          float64
	PathMaxNodes      int
}

func DefaultConfig() Config {
	return Config{
		XPMove:            1,
		XPWork:            10,
		XPAttack:          20,
		FallSpeed:         3,
		FallDamagePerCube: 10,
		RestInterval:      0.2,
		RestMinRecovery:   1,
		AttackDuration:    1,
		WorkBase:          500,
		PathMaxNodes:      0,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.FallSpeed <= 0 {
		c.FallSpeed = d.FallSpeed
	}
	if c.FallDamagePerCube < 0 {
		c.FallDamagePerCube = d.FallDamagePerCube
	}
	if c.RestInterval <= 0 {
		c.RestInterval = d.RestInterval
	}
	if c.RestMinRecovery < 0 {
		c.RestMinRecovery = d.RestMinRecovery
	}
	if c.AttackDuration <= 0 {
		c.AttackDuration = d.AttackDuration
	}
	if c.WorkBase <= 0 {
		c.WorkBase = d.WorkBase
	}
}

// XP is the experience granted for a successful run of k.
func (c Config) XP(k Kind) int {
	switch k {
	case Move:
		return c.XPMove
	case Work:
		return c.XPWork
	case Attack:
		return c.XPAttack
	case Idle, Rest, Fall:
		return 0
	default:
		return 0
	}
}

// standable: passable, and resting on solid ground or the bottom layer.
func standable(env Env, c geom.Vec3i) bool {
	if !env.InBounds(c) || env.IsSolid(c) {
		return false
	}
	return c.Z == 0 || env.IsSolid(c.Below())
}

func supported(env Env) bool {
	return standable(env, env.Position().Cube())
}
