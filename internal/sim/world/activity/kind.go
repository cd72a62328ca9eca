package activity

import (
	"fmt"

	"hillbillies.sim/internal/sim/geom"
)

// Kind is the closed set of behaviours a unit can run.
type Kind uint8

const (
	Idle Kind = iota
	Move
	Work
	Attack
	Rest
	Fall
)

var kindNames = [...]string{"IDLE", "MOVE", "WORK", "ATTACK", "REST", "FALL"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("KIND(%d)", uint8(k))
}

func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), nil
		}
	}
	return Idle, fmt.Errorf("unknown activity kind %q", s)
}

// Params are the request parameters. Move and Work use Target; Attack uses
// Unit.
type Params struct {
	Target geom.Vec3i
	Unit   string
}
