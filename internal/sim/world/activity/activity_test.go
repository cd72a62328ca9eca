package activity

import (
	"errors"
	"math"
	"testing"

	"hillbillies.sim/internal/sim/geom"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestStartRejectsWhenNotAbleTo(t *testing.T) {
	env := newFakeEnv()
	s := NewStack(env, DefaultConfig(), false)

	a := s.NewActivity(Move, Params{Target: geom.Vec3i{X: 9}})
	a.progress = 0.25
	s.next = a
	err := a.Start(false)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if a.Progress() != 0.25 || a.IsActive() || a.IsDefault() {
		t.Fatalf("failed start mutated record: progress=%v active=%v", a.Progress(), a.IsActive())
	}
}

func TestStartRejectsSupersededRecord(t *testing.T) {
	env := newFakeEnv()
	env.hp = 40
	s := NewStack(env, DefaultConfig(), false)

	a := s.NewActivity(Rest, Params{})
	if !a.IsAbleTo() {
		t.Fatalf("rest should be possible when hurt")
	}
	if err := a.Start(false); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for undesignated record, got %v", err)
	}
	if a.IsActive() {
		t.Fatalf("record activated despite failure")
	}
	s.next = a
	if err := a.Start(false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !a.IsActive() || a.Progress() != 0 {
		t.Fatalf("active=%v progress=%v", a.IsActive(), a.Progress())
	}
}

func TestAdvanceInactiveFails(t *testing.T) {
	s := NewStack(newFakeEnv(), DefaultConfig(), false)
	a := s.NewActivity(Move, Params{Target: geom.Vec3i{X: 2}})
	if err := a.Advance(0.1); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if a.Progress() != 0 {
		t.Fatalf("progress changed on inactive record")
	}
}

func TestStopPropagatesToParent(t *testing.T) {
	env := newFakeEnv()
	s := NewStack(env, DefaultConfig(), false)
	if err := s.Advance(0.3); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	base := s.Base()
	if !near(base.Progress(), 0.3) {
		t.Fatalf("idle progress=%v", base.Progress())
	}

	child := s.NewActivity(Move, Params{Target: geom.Vec3i{X: 3}})
	if err := s.PushChild(child, base); err != nil {
		t.Fatalf("PushChild: %v", err)
	}
	if child.Parent() != base || !base.IsSuspended() || !near(base.Progress(), 0.3) {
		t.Fatalf("child not linked to suspended idle")
	}
	if err := s.Advance(0.2); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	child.Stop()
	if child.IsActive() || child.Progress() != 0 {
		t.Fatalf("child active=%v progress=%v", child.IsActive(), child.Progress())
	}
	if base.IsActive() || base.Progress() != 0 || base.IsSuspended() {
		t.Fatalf("parent active=%v progress=%v", base.IsActive(), base.Progress())
	}
}

func TestInterruptKeepsProgressStopResets(t *testing.T) {
	env := newFakeEnv()
	s := NewStack(env, DefaultConfig(), false)
	move, err := s.Request(Move, Params{Target: geom.Vec3i{X: 4}})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if err := s.Advance(0.5); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := move.Interrupt(s.NewActivity(Rest, Params{})); err != nil {
		t.Fatalf("Interrupt: %v", err)
	}
	if move.IsActive() || !near(move.Progress(), 0.5) {
		t.Fatalf("interrupt: active=%v progress=%v", move.IsActive(), move.Progress())
	}
	if err := move.Interrupt(s.NewActivity(Rest, Params{})); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("interrupting a suspended record should fail, got %v", err)
	}
	move.Stop()
	if move.Progress() != 0 || move.IsSuspended() {
		t.Fatalf("stop: progress=%v suspended=%v", move.Progress(), move.IsSuspended())
	}
}

func TestRequestErrors(t *testing.T) {
	env := newFakeEnv()
	env.enemies["U2"] = true
	s := NewStack(env, DefaultConfig(), false)

	if _, err := s.Request(Rest, Params{}); !errors.Is(err, ErrNotAbleTo) || !errors.Is(err, ErrInvalidState) {
		t.Fatalf("rest at full health: %v", err)
	}
	if s.Len() != 1 || !s.Base().IsActive() {
		t.Fatalf("failed request changed the stack")
	}

	if _, err := s.Request(Attack, Params{Unit: "U2"}); err != nil {
		t.Fatalf("Request attack: %v", err)
	}
	_, err := s.Request(Move, Params{Target: geom.Vec3i{X: 3}})
	if !errors.Is(err, ErrBusy) || !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if !s.Running(Attack) || s.Len() != 2 {
		t.Fatalf("busy request changed the stack: len=%d top=%s", s.Len(), s.Top())
	}
}

func TestSameKindRequestReplaces(t *testing.T) {
	s := NewStack(newFakeEnv(), DefaultConfig(), false)
	first, err := s.Request(Move, Params{Target: geom.Vec3i{X: 4}})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if err := s.Advance(0.1); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	second, err := s.Request(Move, Params{Target: geom.Vec3i{Y: 4}})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if s.Len() != 2 || s.Top() != second {
		t.Fatalf("expected replacement, len=%d", s.Len())
	}
	if first.IsActive() || first.IsSuspended() {
		t.Fatalf("replaced move still resumable")
	}
}

func TestMoveResumesAfterAttack(t *testing.T) {
	env := newFakeEnv()
	env.enemies["U2"] = true
	s := NewStack(env, DefaultConfig(), false)
	target := geom.Vec3i{X: 4}

	move, err := s.Request(Move, Params{Target: target})
	if err != nil {
		t.Fatalf("Request move: %v", err)
	}
	if err := s.Advance(0.5); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	before := move.Progress()

	attack, err := s.Request(Attack, Params{Unit: "U2"})
	if err != nil {
		t.Fatalf("Request attack: %v", err)
	}
	if move.IsActive() || move.Progress() != before {
		t.Fatalf("move not suspended with progress intact")
	}
	for i := 0; i < 2; i++ {
		if err := s.Advance(0.5); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}

	if !attack.WasSuccessful() || len(env.attacked) != 1 {
		t.Fatalf("attack did not complete: attacked=%v", env.attacked)
	}
	if s.Top() != move || !move.IsActive() {
		t.Fatalf("move not resumed, top=%s", s.Top())
	}
	if move.Progress() != before {
		t.Fatalf("resumed progress=%v, want %v", move.Progress(), before)
	}
	if env.xp != DefaultConfig().XPAttack {
		t.Fatalf("xp=%d after attack", env.xp)
	}

	for i := 0; i < 100 && s.Top() != s.Base(); i++ {
		if err := s.Advance(0.1); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	if env.pos != geom.Center(target) {
		t.Fatalf("unit at %v, want %v", env.pos, geom.Center(target))
	}
	if s.Last() != move || !move.WasSuccessful() {
		t.Fatalf("move not recorded as successful")
	}
	if env.xp != DefaultConfig().XPAttack+DefaultConfig().XPMove {
		t.Fatalf("xp=%d", env.xp)
	}
}

func TestStoppedRecordIsNotResumed(t *testing.T) {
	env := newFakeEnv()
	s := NewStack(env, DefaultConfig(), false)
	move, err := s.Request(Move, Params{Target: geom.Vec3i{X: 5}})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Advance(0.2); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}

	move.Stop()
	pos := env.pos
	for i := 0; i < 3; i++ {
		if err := s.Advance(0.2); err != nil {
			t.Fatalf("Advance after stop: %v", err)
		}
	}
	if s.Len() != 1 || s.Top() != s.Base() || !s.Base().IsActive() {
		t.Fatalf("stopped move still on the stack: len=%d top=%s", s.Len(), s.Top())
	}
	if move.IsActive() || move.Progress() != 0 {
		t.Fatalf("stopped move revived: active=%v progress=%v", move.IsActive(), move.Progress())
	}
	if env.pos != pos {
		t.Fatalf("unit kept moving after stop: %v -> %v", pos, env.pos)
	}
	if s.Last() != move || move.WasSuccessful() || env.xp != 0 {
		t.Fatalf("last=%v success=%v xp=%d", s.Last(), move.WasSuccessful(), env.xp)
	}
}

func TestDefendedAttackEarnsNoXP(t *testing.T) {
	env := newFakeEnv()
	env.enemies["U2"] = true
	env.defends["U2"] = true
	s := NewStack(env, DefaultConfig(), false)
	attack, err := s.Request(Attack, Params{Unit: "U2"})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.Advance(0.5); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	if len(env.attacked) != 1 {
		t.Fatalf("attack not resolved: %v", env.attacked)
	}
	if s.Top() != s.Base() || s.Last() != attack {
		t.Fatalf("attack not finished, top=%s", s.Top())
	}
	if attack.WasSuccessful() || env.xp != 0 {
		t.Fatalf("missed attack: success=%v xp=%d", attack.WasSuccessful(), env.xp)
	}
}

func TestNoXPWithoutSuccess(t *testing.T) {
	env := newFakeEnv()
	s := NewStack(env, DefaultConfig(), false)
	target := geom.Vec3i{X: 5}
	move, err := s.Request(Move, Params{Target: target})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	_ = s.Advance(0.1)
	env.solid[target] = true

	for i := 0; i < 50 && s.Top() != s.Base(); i++ {
		_ = s.Advance(0.1)
	}
	if s.Top() != s.Base() {
		t.Fatalf("blocked move never finished")
	}
	if move.WasSuccessful() || env.xp != 0 || s.Last() != move {
		t.Fatalf("success=%v xp=%d", move.WasSuccessful(), env.xp)
	}
}

func TestWorkCompletes(t *testing.T) {
	env := newFakeEnv()
	s := NewStack(env, DefaultConfig(), false)
	target := geom.Vec3i{X: 1}
	if _, err := s.Request(Work, Params{Target: target}); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := s.Request(Work, Params{Target: geom.Vec3i{X: 3}}); !errors.Is(err, ErrNotAbleTo) {
		t.Fatalf("distant work accepted: %v", err)
	}
	for i := 0; i < 9; i++ {
		_ = s.Advance(1)
	}
	if len(env.worked) != 0 {
		t.Fatalf("work finished early")
	}
	_ = s.Advance(1)
	if len(env.worked) != 1 || env.worked[0] != target {
		t.Fatalf("worked=%v", env.worked)
	}
	if env.xp != DefaultConfig().XPWork || s.Top() != s.Base() {
		t.Fatalf("xp=%d top=%s", env.xp, s.Top())
	}
}

func TestWorkFailureReported(t *testing.T) {
	env := newFakeEnv()
	env.workErr = errors.New("boom")
	env.str = 100
	s := NewStack(env, DefaultConfig(), false)
	if _, err := s.Request(Work, Params{Target: geom.Vec3i{}}); err != nil {
		t.Fatalf("Request: %v", err)
	}
	err := s.Advance(5)
	if !errors.Is(err, env.workErr) {
		t.Fatalf("expected work error, got %v", err)
	}
	if env.xp != 0 || s.Top() != s.Base() {
		t.Fatalf("failed work granted xp or stayed on stack")
	}
}

func TestFallLandsAndHurts(t *testing.T) {
	env := newFakeEnv()
	env.pos = geom.Center(geom.Vec3i{X: 2, Y: 2, Z: 3})
	s := NewStack(env, DefaultConfig(), false)

	if _, err := s.Request(Move, Params{Target: geom.Vec3i{}}); !errors.Is(err, ErrNotAbleTo) {
		t.Fatalf("unsupported unit allowed to move: %v", err)
	}
	fall, err := s.Request(Fall, Params{})
	if err != nil {
		t.Fatalf("Request fall: %v", err)
	}
	if fall.ShouldInterruptFor(s.NewActivity(Rest, Params{})) || fall.ShouldInterruptFor(s.NewActivity(Fall, Params{})) {
		t.Fatalf("fall must not be interruptible")
	}
	for i := 0; i < 50 && s.Top() != s.Base(); i++ {
		_ = s.Advance(0.1)
	}
	if env.pos != geom.Center(geom.Vec3i{X: 2, Y: 2, Z: 0}) {
		t.Fatalf("landed at %v", env.pos)
	}
	if !near(env.hp, 50-3*DefaultConfig().FallDamagePerCube) {
		t.Fatalf("hp=%v", env.hp)
	}
}

func TestAttackYieldsOnlyToFall(t *testing.T) {
	env := newFakeEnv()
	env.enemies["U2"] = true
	env.hp = 40
	s := NewStack(env, DefaultConfig(), false)
	attack, err := s.Request(Attack, Params{Unit: "U2"})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := s.Request(Rest, Params{}); !errors.Is(err, ErrBusy) {
		t.Fatalf("attack yielded to rest: %v", err)
	}
	env.pos = geom.Center(geom.Vec3i{X: 1, Y: 1, Z: 2})
	if _, err := s.Request(Fall, Params{}); err != nil {
		t.Fatalf("attack refused fall: %v", err)
	}
	if !attack.IsSuspended() {
		t.Fatalf("attack not suspended by fall")
	}
}

func TestRestRefusesEarlyInterruption(t *testing.T) {
	env := newFakeEnv()
	env.hp = 40
	s := NewStack(env, DefaultConfig(), false)
	rest, err := s.Request(Rest, Params{})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	work := Params{Target: geom.Vec3i{X: 1}}
	if _, err := s.Request(Work, work); !errors.Is(err, ErrBusy) {
		t.Fatalf("rest yielded too early: %v", err)
	}
	for i := 0; i < 4; i++ {
		_ = s.Advance(0.2)
	}
	if !near(env.hp, 41) {
		t.Fatalf("hp=%v after resting", env.hp)
	}
	if _, err := s.Request(Work, work); err != nil {
		t.Fatalf("rest refused after minimum recovery: %v", err)
	}
	if !rest.IsSuspended() {
		t.Fatalf("rest not suspended")
	}
}

func TestIdleDefaultSpawnsChild(t *testing.T) {
	env := newFakeEnv()
	env.hp = 40
	s := NewStack(env, DefaultConfig(), true)
	for i := 0; i < 200 && s.Len() == 1; i++ {
		_ = s.Advance(0.1)
	}
	if s.Len() == 1 {
		t.Fatalf("default behaviour never chose an activity")
	}
	child := s.Top()
	if child.Parent() != s.Base() || !s.Base().IsSuspended() {
		t.Fatalf("child %s not parented to idle", child)
	}

	s.SetDefaultBehaviour(false)
	if s.Len() != 1 || !s.Base().IsActive() || s.Base().IsDefault() {
		t.Fatalf("disabling default left len=%d", s.Len())
	}
	if child.IsActive() {
		t.Fatalf("abandoned child still active")
	}
}

func TestMoveSpeed(t *testing.T) {
	env := newFakeEnv()
	flat := MoveSpeed(env, geom.Vec3i{}, geom.Vec3i{X: 1})
	if !near(flat, 1.5) {
		t.Fatalf("flat speed=%v", flat)
	}
	if up := MoveSpeed(env, geom.Vec3i{}, geom.Vec3i{Z: 1}); !near(up, 0.75) {
		t.Fatalf("up speed=%v", up)
	}
	if down := MoveSpeed(env, geom.Vec3i{Z: 1}, geom.Vec3i{}); !near(down, 1.8) {
		t.Fatalf("down speed=%v", down)
	}
}

func TestKindString(t *testing.T) {
	for k := Idle; k <= Fall; k++ {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Fatalf("ParseKind(%s)=%v,%v", k, got, err)
		}
	}
	if _, err := ParseKind("DANCE"); err == nil {
		t.Fatalf("unknown kind accepted")
	}
}
