// Package gen builds deterministic starting terrain from a seed: a rock
// floor with rounded hills, scattered trees and one workshop.
package gen

import (
	"fmt"

	"hillbillies.sim/internal/sim/world/logic/mathx"
	"hillbillies.sim/internal/sim/world/terrain"
)

type Params struct {
	Seed int64
	// Dims is the grid size (x, y, z); z is up.
	Dims [3]int

	// BaseHeight is the rock floor thickness. At least 1.
	BaseHeight int
	// Hills are placed at most one per HillGrid x HillGrid cell with
	// HillPermille probability, rising HillPeak cubes above the floor.
	HillGrid     int
	HillPermille uint64
	HillPeak     int
	// TreePermille is the chance that a bare surface column grows a tree.
	TreePermille uint64
}

func DefaultParams(seed int64, dims [3]int) Params {
	return Params{
		Seed:         seed,
		Dims:         dims,
		BaseHeight:   1,
		HillGrid:     8,
		HillPermille: 600,
		HillPeak:     3,
		TreePermille: 40,
	}
}

// Generate returns terrain ids indexed [x][y][z]. Every solid cube rests on
// a column that reaches z=0, so nothing is scheduled to collapse on load.
func Generate(p Params) ([][][]int, error) {
	nx, ny, nz := p.Dims[0], p.Dims[1], p.Dims[2]
	if nx <= 0 || ny <= 0 || nz < 2 {
		return nil, fmt.Errorf("bad dims %v: need x,y > 0 and z >= 2", p.Dims)
	}
	if p.BaseHeight < 1 {
		p.BaseHeight = 1
	}
	// Keep the top layer air.
	maxH := nz - 1

	ids := make([][][]int, nx)
	for x := range ids {
		ids[x] = make([][]int, ny)
		for y := range ids[x] {
			h := min(p.BaseHeight+hillHeight(p, x, y), maxH)
			col := make([]int, nz)
			for z := 0; z < h; z++ {
				col[z] = int(terrain.Rock)
			}
			if h < nz-1 && mathx.Hash3(p.Seed, x, y, 1)%1000 < p.TreePermille {
				col[h] = int(terrain.Tree)
			}
			ids[x][y] = col
		}
	}

	// One workshop on the surface nearest the centre that is still air.
	cx, cy := nx/2, ny/2
	placeWorkshop(ids, cx, cy)
	return ids, nil
}

// hillHeight is the tallest hill contribution at (x, y): each hill is a cone
// of height HillPeak around a hashed centre in its grid cell.
func hillHeight(p Params, x, y int) int {
	if p.HillGrid <= 0 || p.HillPeak <= 0 || p.HillPermille == 0 {
		return 0
	}
	g := p.HillGrid
	gx, gy := mathx.FloorDiv(x, g), mathx.FloorDiv(y, g)
	best := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			cgx, cgy := gx+dx, gy+dy
			h := mathx.Hash3(p.Seed, cgx, cgy, 0)
			if h%1000 >= p.HillPermille {
				continue
			}
			cx := cgx*g + int((h>>10)%uint64(g))
			cy := cgy*g + int((h>>20)%uint64(g))
			d := mathx.AbsInt(x-cx) + mathx.AbsInt(y-cy)
			if v := p.HillPeak - d; v > best {
				best = v
			}
		}
	}
	return best
}

func placeWorkshop(ids [][][]int, cx, cy int) {
	nx, ny := len(ids), len(ids[0])
	for r := 0; r < nx+ny; r++ {
		for x := cx - r; x <= cx+r; x++ {
			for y := cy - r; y <= cy+r; y++ {
				if x < 0 || y < 0 || x >= nx || y >= ny {
					continue
				}
				if mathx.AbsInt(x-cx)+mathx.AbsInt(y-cy) != r {
					continue
				}
				col := ids[x][y]
				z := surface(col)
				if z < len(col)-1 && col[z] == int(terrain.Air) {
					col[z] = int(terrain.Workshop)
					return
				}
			}
		}
	}
}

// surface is the lowest air-or-tree cube above the rock in col.
func surface(col []int) int {
	z := 0
	for z < len(col) && col[z] == int(terrain.Rock) {
		z++
	}
	return z
}
