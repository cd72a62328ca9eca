package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"hillbillies.sim/internal/sim/geom"
	"hillbillies.sim/internal/sim/world"
	"hillbillies.sim/internal/sim/world/activity"
)

func sample(tick uint64) world.Snapshot {
	return world.Snapshot{
		WorldID: "w1",
		Tick:    tick,
		Time:    float64(tick) * 0.2,
		Bounds:  geom.Bounds{NX: 1, NY: 1, NZ: 2},
		Terrain: [][][]int{{{1, 0}}},
		Units: []world.UnitSnapshot{{
			ID:       "U1",
			Name:     "Hank",
			Cube:     geom.Vec3i{Z: 1},
			HP:       50,
			Activity: world.ActivitySnapshot{Kind: activity.Move, Target: geom.Vec3i{X: 0, Y: 0, Z: 1}, Active: true},
		}},
		Pending: []world.PendingSnapshot{{Pos: geom.Vec3i{Z: 1}, Elapsed: 1.5}},
	}
}

func TestWriteReadSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := PathFor(filepath.Join(dir, "snapshots"), 12)
	if err := WriteSnapshot(path, sample(12)); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
	h, got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if h.Tick != 12 || h.WorldID != "w1" || h.Units != 1 || h.Pending != 1 {
		t.Fatalf("header=%+v", h)
	}
	if got.Terrain[0][0][0] != 1 || got.Units[0].Activity.Kind != activity.Move || got.Pending[0].Elapsed != 1.5 {
		t.Fatalf("snapshot=%+v", got)
	}
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	if Latest(dir) != "" {
		t.Fatalf("expected no snapshot")
	}
	for _, tick := range []uint64{5, 40, 9} {
		if err := WriteSnapshot(PathFor(dir, tick), sample(tick)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	_ = os.WriteFile(filepath.Join(dir, "notes.snap.zst"), []byte("x"), 0o644)
	if got := Latest(dir); filepath.Base(got) != "40.snap.zst" {
		t.Fatalf("Latest=%s", got)
	}
}
