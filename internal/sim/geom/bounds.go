package geom

// Bounds is the fixed extent of a cube grid: coordinates 0..N-1 on each axis.
type Bounds struct {
	NX int
	NY int
	NZ int
}

func (b Bounds) Contains(c Vec3i) bool {
	return c.X >= 0 && c.Y >= 0 && c.Z >= 0 && c.X < b.NX && c.Y < b.NY && c.Z < b.NZ
}

// OnBoundary reports whether c lies on one of the six outer faces.
func (b Bounds) OnBoundary(c Vec3i) bool {
	if !b.Contains(c) {
		return false
	}
	return c.X == 0 || c.Y == 0 || c.Z == 0 || c.X == b.NX-1 || c.Y == b.NY-1 || c.Z == b.NZ-1
}

func (b Bounds) Cells() int { return b.NX * b.NY * b.NZ }

// Index flattens c x-major (z fastest), matching the [x][y][z] input layout.
func (b Bounds) Index(c Vec3i) int {
	return (c.X*b.NY+c.Y)*b.NZ + c.Z
}

func (b Bounds) At(i int) Vec3i {
	z := i % b.NZ
	i /= b.NZ
	y := i % b.NY
	x := i / b.NY
	return Vec3i{X: x, Y: y, Z: z}
}

// Adjacent6 lists the directly adjacent directions in a fixed order.
var Adjacent6 = [6]Vec3i{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}

// Neighbours26 lists all neighbouring directions (x, then y, then z ascending).
var Neighbours26 = func() [26]Vec3i {
	var out [26]Vec3i
	i := 0
	for x := -1; x <= 1; x++ {
		for y := -1; y <= 1; y++ {
			for z := -1; z <= 1; z++ {
				if x == 0 && y == 0 && z == 0 {
					continue
				}
				out[i] = Vec3i{X: x, Y: y, Z: z}
				i++
			}
		}
	}
	return out
}()
