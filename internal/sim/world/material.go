package world

import (
	"fmt"
	"sort"

	"hillbillies.sim/internal/sim/geom"
)

type MaterialKind uint8

const (
	Boulder MaterialKind = iota
	Log
)

func (k MaterialKind) String() string {
	switch k {
	case Boulder:
		return "BOULDER"
	case Log:
		return "LOG"
	default:
		return fmt.Sprintf("MATERIAL(%d)", uint8(k))
	}
}

type ownerKind uint8

const (
	ownerNone ownerKind = iota // falling
	ownerCube
	ownerUnit
)

// Material is a Boulder or a Log. It is owned by exactly one of: nobody
// (falling), a cube, or a unit.
type Material struct {
	id     uint64
	kind   MaterialKind
	weight int
	world  *World

	owner ownerKind
	cube  geom.Vec3i
	unit  *Unit
	pos   geom.Vec3

	terminated bool
}

func (w *World) newMaterial(kind MaterialKind) *Material {
	w.nextMaterialNum++
	m := &Material{
		id:     w.nextMaterialNum,
		kind:   kind,
		weight: w.roller.Between(w.cfg.MaterialMinWeight, w.cfg.MaterialMaxWeight),
		world:  w,
	}
	w.materials[m.id] = m
	return m
}

func (m *Material) ID() uint64         { return m.id }
func (m *Material) Kind() MaterialKind { return m.kind }
func (m *Material) Weight() int        { return m.weight }
func (m *Material) IsTerminated() bool { return m.terminated }
func (m *Material) IsFalling() bool    { return !m.terminated && m.owner == ownerNone }

// Position derives from the owner while owned.
func (m *Material) Position() geom.Vec3 {
	switch m.owner {
	case ownerCube:
		return geom.Center(m.cube)
	case ownerUnit:
		return m.unit.Position()
	default:
		return m.pos
	}
}

// OwnerCube returns the owning cube, if any.
func (m *Material) OwnerCube() (geom.Vec3i, bool) { return m.cube, m.owner == ownerCube }

// OwnerUnit returns the carrying unit, if any.
func (m *Material) OwnerUnit() (*Unit, bool) { return m.unit, m.owner == ownerUnit }

// ownerName is CUBE, UNIT or FALLING.
func (m *Material) ownerName() string {
	switch m.owner {
	case ownerCube:
		return "CUBE"
	case ownerUnit:
		return "UNIT"
	default:
		return "FALLING"
	}
}

func (m *Material) checkLive() error {
	if m.terminated {
		return fmt.Errorf("%w: material %d is terminated", ErrInvalidOwnership, m.id)
	}
	return nil
}

func (m *Material) detach() {
	switch m.owner {
	case ownerCube:
		if cube, err := m.world.grid.Cube(m.cube); err == nil {
			cube.RemoveMaterial(m.id)
		}
	case ownerUnit:
		if m.unit.carrying == m {
			m.unit.carrying = nil
		}
	case ownerNone:
	}
	m.pos = m.Position()
	m.owner = ownerNone
	m.unit = nil
}

func (m *Material) setOwnerCube(c geom.Vec3i) error {
	if err := m.checkLive(); err != nil {
		return err
	}
	cube, err := m.world.grid.Cube(c)
	if err != nil {
		return err
	}
	m.detach()
	m.owner = ownerCube
	m.cube = c
	cube.AddMaterial(m.id)
	return nil
}

func (m *Material) setOwnerUnit(u *Unit) error {
	if err := m.checkLive(); err != nil {
		return err
	}
	if u == nil || u.world != m.world {
		return fmt.Errorf("%w: unit belongs to another world", ErrInvalidOwnership)
	}
	if !u.IsAlive() {
		return fmt.Errorf("%w: unit %s is dead", ErrInvalidOwnership, u.id)
	}
	if u.carrying != nil && u.carrying != m {
		return fmt.Errorf("%w: unit %s already carries material %d", ErrInvalidOwnership, u.id, u.carrying.id)
	}
	m.detach()
	m.owner = ownerUnit
	m.unit = u
	u.carrying = m
	return nil
}

// release drops the material where it is; it falls from there.
func (m *Material) release() error {
	if err := m.checkLive(); err != nil {
		return err
	}
	m.detach()
	return nil
}

// Terminate removes the material from its owner and from the world.
func (m *Material) Terminate() {
	if m.terminated {
		return
	}
	m.detach()
	m.terminated = true
	delete(m.world.materials, m.id)
}

// advance applies falling physics: a material in an unsupported cube starts
// falling and lands on the first cube a unit could stand in.
func (m *Material) advance(dt float64) error {
	w := m.world
	switch m.owner {
	case ownerUnit:
		return nil
	case ownerCube:
		if w.IsStandable(m.cube) || w.IsSolid(m.cube) {
			return nil
		}
		return m.release()
	case ownerNone:
	}

	here := m.pos.Cube()
	z := m.pos.Z - w.cfg.MaterialFallSpeed*dt
	for cz := here.Z; cz >= 0 && float64(cz)+0.5+collapseEps >= z; cz-- {
		c := geom.Vec3i{X: here.X, Y: here.Y, Z: cz}
		if w.IsStandable(c) || cz == 0 {
			return m.setOwnerCube(c)
		}
	}
	m.pos = geom.Vec3{X: m.pos.X, Y: m.pos.Y, Z: z}
	return nil
}

// Materials returns live materials ordered by id.
func (w *World) Materials() []*Material {
	out := make([]*Material, 0, len(w.materials))
	for _, m := range w.materials {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (w *World) Material(id uint64) (*Material, bool) {
	m, ok := w.materials[id]
	return m, ok
}

// MaterialsAt returns the materials owned by cube c.
func (w *World) MaterialsAt(c geom.Vec3i) ([]*Material, error) {
	cube, err := w.grid.Cube(c)
	if err != nil {
		return nil, err
	}
	var out []*Material
	for _, id := range cube.Materials() {
		if m, ok := w.materials[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (w *World) materialAt(c geom.Vec3i, kind MaterialKind) *Material {
	ms, _ := w.MaterialsAt(c)
	for _, m := range ms {
		if m.kind == kind {
			return m
		}
	}
	return nil
}
