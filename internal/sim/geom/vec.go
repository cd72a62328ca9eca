package geom

import (
	"fmt"
	"math"
)

// Vec3i is a cube coordinate. Z points up.
type Vec3i struct {
	X int
	Y int
	Z int
}

func (v Vec3i) ToArray() [3]int { return [3]int{v.X, v.Y, v.Z} }

func (v Vec3i) Add(o Vec3i) Vec3i { return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }

func (v Vec3i) Below() Vec3i { return Vec3i{X: v.X, Y: v.Y, Z: v.Z - 1} }

func (v Vec3i) String() string { return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z) }

// Less orders coordinates x-major, used wherever iteration must be deterministic.
func (v Vec3i) Less(o Vec3i) bool {
	if v.X != o.X {
		return v.X < o.X
	}
	if v.Y != o.Y {
		return v.Y < o.Y
	}
	return v.Z < o.Z
}

// IsNeighbourOrSame reports whether o lies in the 3x3x3 block around v.
func (v Vec3i) IsNeighbourOrSame(o Vec3i) bool {
	return absInt(v.X-o.X) <= 1 && absInt(v.Y-o.Y) <= 1 && absInt(v.Z-o.Z) <= 1
}

// Vec3 is a continuous position in cube units.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

func (v Vec3) ToArray() [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }

func (v Vec3) Scale(f float64) Vec3 { return Vec3{X: v.X * f, Y: v.Y * f, Z: v.Z * f} }

func (v Vec3) Len() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

func (v Vec3) Dist(o Vec3) float64 { return v.Sub(o).Len() }

// Cube returns the coordinate of the cube containing v.
func (v Vec3) Cube() Vec3i {
	return Vec3i{X: int(math.Floor(v.X)), Y: int(math.Floor(v.Y)), Z: int(math.Floor(v.Z))}
}

// Center returns the centre position of cube c.
func Center(c Vec3i) Vec3 {
	return Vec3{X: float64(c.X) + 0.5, Y: float64(c.Y) + 0.5, Z: float64(c.Z) + 0.5}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
