package terrain

import (
	"sort"

	"hillbillies.sim/internal/sim/geom"
)

// ChangeFunc is invoked after a cube's terrain changed value.
type ChangeFunc func(old Terrain, c *Cube)

// Cube is one grid cell. Material ids are weak backlinks; the world owns the
// materials themselves.
type Cube struct {
	pos       geom.Vec3i
	terrain   Terrain
	materials map[uint64]struct{}
	onChange  ChangeFunc
}

func (c *Cube) Pos() geom.Vec3i    { return c.pos }
func (c *Cube) Terrain() Terrain   { return c.terrain }
func (c *Cube) IsPassable() bool   { return c.terrain.IsPassable() }
func (c *Cube) IsSolid() bool      { return c.terrain.IsSolid() }
func (c *Cube) HasMaterials() bool { return len(c.materials) > 0 }

func (c *Cube) setTerrain(t Terrain) {
	old := c.terrain
	if old == t {
		return
	}
	c.terrain = t
	if c.onChange != nil {
		c.onChange(old, c)
	}
}

func (c *Cube) AddMaterial(id uint64) {
	if c.materials == nil {
		c.materials = map[uint64]struct{}{}
	}
	c.materials[id] = struct{}{}
}

func (c *Cube) RemoveMaterial(id uint64) { delete(c.materials, id) }

func (c *Cube) HasMaterial(id uint64) bool {
	_, ok := c.materials[id]
	return ok
}

// Materials returns the supported material ids in ascending order.
func (c *Cube) Materials() []uint64 {
	out := make([]uint64, 0, len(c.materials))
	for id := range c.materials {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
