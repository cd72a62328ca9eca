package activity

import (
	"math"

	"hillbillies.sim/internal/sim/geom"
	"hillbillies.sim/internal/sim/world/logic/mathx"
	"hillbillies.sim/internal/sim/world/logic/movement"
)

const completionEps = 1e-9

func isAbleTo(a *Activity) bool {
	env := a.stack.env
	switch a.kind {
	case Idle:
		return true
	case Move:
		t := a.params.Target
		if !standable(env, t) || !supported(env) {
			return false
		}
		return movement.Reachable(env.Position().Cube(), t, a.stack.cfg.PathMaxNodes, a.stack.canStand)
	case Work:
		t := a.params.Target
		return env.InBounds(t) && env.Position().Cube().IsNeighbourOrSame(t) && supported(env)
	case Attack:
		return supported(env) && env.CanAttack(a.params.Unit)
	case Rest:
		return supported(env) && !fullyRecovered(env)
	case Fall:
		return !supported(env)
	default:
		return false
	}
}

func shouldInterruptFor(a, next *Activity) bool {
	if next == nil {
		return false
	}
	switch a.kind {
	case Idle, Move, Work:
		return true
	case Attack:
		return next.kind == Fall
	case Rest:
		return next.kind == Fall || a.recovered >= a.stack.cfg.RestMinRecovery || fullyRecovered(a.stack.env)
	case Fall:
		return false
	default:
		return false
	}
}

func onStart(a *Activity) {
	switch a.kind {
	case Move:
		a.stepping = false
	case Rest:
		a.restClock = 0
		a.recovered = 0
	case Fall:
		a.fallFrom = a.stack.env.Position().Z
	case Idle, Work, Attack:
	}
}

func onInterrupt(a *Activity) {
	switch a.kind {
	case Move:
		// Replan on resume; the unit may have been displaced meanwhile.
		a.stepping = false
	case Rest:
		a.restClock = 0
	case Idle, Work, Attack, Fall:
	}
}

func onStop(a *Activity) {
	switch a.kind {
	case Rest:
		a.recovered = 0
	case Fall:
		a.fallFrom = 0
	case Idle, Move, Work, Attack:
	}
}

func onAdvance(a *Activity, dt float64) error {
	switch a.kind {
	case Idle:
		return advanceIdle(a)
	case Move:
		return advanceMove(a, dt)
	case Work:
		return advanceWork(a, dt)
	case Attack:
		return advanceAttack(a, dt)
	case Rest:
		advanceRest(a, dt)
		return nil
	case Fall:
		advanceFall(a, dt)
		return nil
	default:
		return nil
	}
}

func (s *Stack) canStand(c geom.Vec3i) bool { return standable(s.env, c) }

// MoveSpeed is the walking speed in cubes per second between two cubes.
func MoveSpeed(env Env, from, to geom.Vec3i) float64 {
	w := float64(env.Weight())
	if w < 1 {
		w = 1
	}
	base := 1.5 * float64(env.Strength()+env.Agility()) / (200 * w / 100)
	switch {
	case to.Z > from.Z:
		return base * 0.5
	case to.Z < from.Z:
		return base * 1.2
	default:
		return base
	}
}

func advanceMove(a *Activity, dt float64) error {
	env := a.stack.env
	target := a.params.Target
	pos := env.Position()
	here := pos.Cube()

	if a.stepping && !a.stack.canStand(a.step) {
		a.stepping = false
	}
	if !a.stepping {
		if here == target && pos == geom.Center(here) {
			a.succeed()
			return nil
		}
		step := here
		if here != target {
			next, ok := movement.NextStep(here, target, a.stack.cfg.PathMaxNodes, a.stack.canStand)
			if !ok {
				a.requestFinish()
				return nil
			}
			step = next
		}
		a.step = step
		a.stepping = true
	}

	goal := geom.Center(a.step)
	d := goal.Sub(pos)
	dist := d.Len()
	travel := MoveSpeed(env, here, a.step) * dt
	if travel+completionEps >= dist {
		env.SetPosition(goal)
		a.stepping = false
		if a.step == target {
			a.succeed()
		}
		return nil
	}
	env.SetPosition(pos.Add(d.Scale(travel / dist)))
	return nil
}

// WorkDuration is how long one work cycle takes for the given strength.
func WorkDuration(cfg Config, strength int) float64 {
	if strength < 1 {
		strength = 1
	}
	return cfg.WorkBase / float64(strength)
}

func advanceWork(a *Activity, dt float64) error {
	env := a.stack.env
	if a.progress+dt+completionEps < WorkDuration(a.stack.cfg, env.Strength()) {
		return nil
	}
	if err := env.WorkAt(a.params.Target); err != nil {
		a.requestFinish()
		return err
	}
	a.succeed()
	return nil
}

func advanceAttack(a *Activity, dt float64) error {
	env := a.stack.env
	if !env.CanAttack(a.params.Unit) {
		a.requestFinish()
		return nil
	}
	if a.progress+dt+completionEps < a.stack.cfg.AttackDuration {
		return nil
	}
	hit, err := env.ResolveAttack(a.params.Unit)
	if err != nil || !hit {
		a.requestFinish()
		return err
	}
	a.succeed()
	return nil
}

func fullyRecovered(env Env) bool {
	return env.Hitpoints() >= env.MaxHitpoints() && env.Stamina() >= env.MaxStamina()
}

func advanceRest(a *Activity, dt float64) {
	env := a.stack.env
	cfg := a.stack.cfg
	a.restClock += dt
	for a.restClock+completionEps >= cfg.RestInterval {
		a.restClock -= cfg.RestInterval
		tough := float64(env.Toughness())
		switch {
		case env.Hitpoints() < env.MaxHitpoints():
			gain := math.Min(tough/200, env.MaxHitpoints()-env.Hitpoints())
			env.Heal(gain)
			a.recovered += gain
		case env.Stamina() < env.MaxStamina():
			env.Refresh(math.Min(tough/100, env.MaxStamina()-env.Stamina()))
		}
		if fullyRecovered(env) {
			a.succeed()
			return
		}
	}
}

func advanceFall(a *Activity, dt float64) {
	env := a.stack.env
	pos := env.Position()
	here := pos.Cube()
	z := pos.Z - a.stack.cfg.FallSpeed*dt
	for cz := here.Z; cz >= 0 && float64(cz)+0.5+completionEps >= z; cz-- {
		c := geom.Vec3i{X: here.X, Y: here.Y, Z: cz}
		if a.stack.canStand(c) || cz == 0 {
			land(a, c)
			return
		}
	}
	env.SetPosition(geom.Vec3{X: pos.X, Y: pos.Y, Z: z})
}

func land(a *Activity, c geom.Vec3i) {
	env := a.stack.env
	center := geom.Center(c)
	env.SetPosition(center)
	if cubes := math.Round(a.fallFrom - center.Z); cubes > 0 {
		env.TakeDamage(cubes * a.stack.cfg.FallDamagePerCube)
	}
	a.succeed()
}

// advanceIdle picks a random behaviour in default mode and runs it as a
// child of the idle record.
func advanceIdle(a *Activity) error {
	if !a.isDefault {
		return nil
	}
	s := a.stack
	env := s.env
	r := env.Roller()
	var child *Activity
	switch r.Intn(4) {
	case 0:
		child = s.NewActivity(Rest, Params{})
	case 1:
		if enemies := env.AdjacentEnemies(); len(enemies) > 0 {
			child = s.NewActivity(Attack, Params{Unit: enemies[0]})
		}
	case 2:
		child = s.NewActivity(Move, Params{Target: randomCube(r, env.Bounds())})
	case 3:
		d := geom.Neighbours26[r.Intn(len(geom.Neighbours26))]
		child = s.NewActivity(Work, Params{Target: env.Position().Cube().Add(d)})
	}
	if child == nil || !child.IsAbleTo() {
		return nil
	}
	return s.push(child, s.indexOf(a))
}

func randomCube(r *mathx.Roller, b geom.Bounds) geom.Vec3i {
	return geom.Vec3i{X: r.Intn(b.NX), Y: r.Intn(b.NY), Z: r.Intn(b.NZ)}
}
