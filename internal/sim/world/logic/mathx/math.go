package mathx

import "math"

func FloorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func AbsInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func ClampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func Hash3(seed int64, x, y, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uy := uint64(uint32(int32(y)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xc2b2ae3d27d4eb4f) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

// Roller is a seeded, counter-based random source. Two rollers with the same
// seed produce the same sequence, which keeps replays and tests reproducible.
type Roller struct {
	seed int64
	n    uint64
}

func NewRoller(seed int64) *Roller { return &Roller{seed: seed} }

func (r *Roller) next() uint64 {
	r.n++
	return mix64(uint64(r.seed) ^ (r.n * 0x9e3779b97f4a7c15))
}

// Draws returns how many values were consumed so far.
func (r *Roller) Draws() uint64 { return r.n }

// Intn returns a value in [0,n). n <= 0 yields 0.
func (r *Roller) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.next() % uint64(n))
}

// Between returns a value in [lo,hi].
func (r *Roller) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

func (r *Roller) Float64() float64 {
	return float64(r.next()>>11) / (1 << 53)
}

// Chance reports true with probability pct/100.
func (r *Roller) Chance(pct int) bool {
	return r.Intn(100) < pct
}
