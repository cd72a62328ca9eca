package world

import (
	"testing"

	"hillbillies.sim/internal/sim/geom"
	"hillbillies.sim/internal/sim/world/terrain"
)

func v(x, y, z int) geom.Vec3i { return geom.Vec3i{X: x, Y: y, Z: z} }

func fill(nx, ny, nz int, t terrain.Terrain) [][][]int {
	ids := make([][][]int, nx)
	for x := range ids {
		ids[x] = make([][]int, ny)
		for y := range ids[x] {
			ids[x][y] = make([]int, nz)
			for z := range ids[x][y] {
				ids[x][y][z] = int(t)
			}
		}
	}
	return ids
}

// columnWorld is a 5x5x6 AIR world with a ROCK column at (2,2,0..4).
func columnWorld() [][][]int {
	ids := fill(5, 5, 6, terrain.Air)
	for z := 0; z <= 4; z++ {
		ids[2][2][z] = int(terrain.Rock)
	}
	return ids
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.CollapseSpawnPct = 0
	return cfg
}

func newTestWorld(t *testing.T, ids [][][]int, mutate func(*Config), opts ...Option) *World {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	w, err := New(cfg, ids, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

// addUnit places a unit with fixed 50/50/50/50 stats.
func addUnit(t *testing.T, w *World, c geom.Vec3i) *Unit {
	t.Helper()
	u, err := w.AddUnit(UnitSpec{Pos: &c, Strength: 50, Agility: 50, Toughness: 50, Weight: 50})
	if err != nil {
		t.Fatalf("AddUnit(%v): %v", c, err)
	}
	return u
}

func advanceN(t *testing.T, w *World, n int, dt float64) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := w.Advance(dt); err != nil {
			t.Fatalf("Advance #%d: %v", i, err)
		}
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}

type captureTicks struct{ entries []TickLogEntry }

func (c *captureTicks) WriteTick(e TickLogEntry) error {
	c.entries = append(c.entries, e)
	return nil
}

type captureAudits struct{ entries []AuditEntry }

func (c *captureAudits) WriteAudit(e AuditEntry) error {
	c.entries = append(c.entries, e)
	return nil
}
