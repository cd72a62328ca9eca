package terrain

import (
	"fmt"

	"hillbillies.sim/internal/sim/geom"
)

// Grid owns every cube of one world. Cubes are created once and never
// destroyed while the grid lives.
type Grid struct {
	bounds geom.Bounds
	cubes  []Cube
}

// NewGrid builds a grid from an [x][y][z] matrix of terrain ids. onChange is
// installed on every cube and may be nil.
func NewGrid(ids [][][]int, onChange ChangeFunc) (*Grid, error) {
	nx := len(ids)
	if nx == 0 || len(ids[0]) == 0 || len(ids[0][0]) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrBadShape)
	}
	b := geom.Bounds{NX: nx, NY: len(ids[0]), NZ: len(ids[0][0])}
	g := &Grid{bounds: b, cubes: make([]Cube, b.Cells())}
	for x := 0; x < b.NX; x++ {
		if len(ids[x]) != b.NY {
			return nil, fmt.Errorf("%w: x=%d has %d rows, want %d", ErrBadShape, x, len(ids[x]), b.NY)
		}
		for y := 0; y < b.NY; y++ {
			if len(ids[x][y]) != b.NZ {
				return nil, fmt.Errorf("%w: (%d,%d) has %d cells, want %d", ErrBadShape, x, y, len(ids[x][y]), b.NZ)
			}
			for z := 0; z < b.NZ; z++ {
				t, err := ParseID(ids[x][y][z])
				if err != nil {
					return nil, fmt.Errorf("cube (%d,%d,%d): %w", x, y, z, err)
				}
				p := geom.Vec3i{X: x, Y: y, Z: z}
				g.cubes[b.Index(p)] = Cube{pos: p, terrain: t, onChange: onChange}
			}
		}
	}
	return g, nil
}

func (g *Grid) Bounds() geom.Bounds { return g.bounds }

func (g *Grid) InBounds(c geom.Vec3i) bool { return g.bounds.Contains(c) }

func (g *Grid) Cube(c geom.Vec3i) (*Cube, error) {
	if !g.bounds.Contains(c) {
		return nil, fmt.Errorf("%w: %v", ErrOutOfBounds, c)
	}
	return &g.cubes[g.bounds.Index(c)], nil
}

// Terrain returns the terrain at c; out-of-bounds cells read as Air.
func (g *Grid) Terrain(c geom.Vec3i) Terrain {
	if !g.bounds.Contains(c) {
		return Air
	}
	return g.cubes[g.bounds.Index(c)].terrain
}

func (g *Grid) IsSolid(c geom.Vec3i) bool {
	return g.bounds.Contains(c) && g.cubes[g.bounds.Index(c)].terrain.IsSolid()
}

// SetTerrain changes the terrain at c, firing the cube's hook when the value
// actually changes.
func (g *Grid) SetTerrain(c geom.Vec3i, t Terrain) (old Terrain, err error) {
	cube, err := g.Cube(c)
	if err != nil {
		return Air, err
	}
	if int(t) >= len(Palette) {
		return cube.terrain, fmt.Errorf("%w: %d", ErrBadTerrain, t)
	}
	old = cube.terrain
	cube.setTerrain(t)
	return old, nil
}

// IDs returns a copy of the terrain as an [x][y][z] id matrix.
func (g *Grid) IDs() [][][]int {
	b := g.bounds
	out := make([][][]int, b.NX)
	for x := range out {
		out[x] = make([][]int, b.NY)
		for y := range out[x] {
			row := make([]int, b.NZ)
			for z := range row {
				row[z] = int(g.cubes[b.Index(geom.Vec3i{X: x, Y: y, Z: z})].terrain)
			}
			out[x][y] = row
		}
	}
	return out
}

// Flat returns terrain ids in Bounds.Index order.
func (g *Grid) Flat() []uint16 {
	out := make([]uint16, len(g.cubes))
	for i := range g.cubes {
		out[i] = uint16(g.cubes[i].terrain)
	}
	return out
}
