package scenario

import (
	"path/filepath"
	"strings"
	"testing"

	"hillbillies.sim/internal/sim/geom"
	"hillbillies.sim/internal/sim/world"
	"hillbillies.sim/internal/sim/world/activity"
)

const small = `{
  "seed": 3,
  "terrain": [
    [[1,0,0],[1,0,0]],
    [[1,0,0],[1,1,0]]
  ],
  "units": [
    {"name": "Ma", "pos": [0,0,1], "strength": 50},
    {"name": "Pa", "pos": [0,1,1]}
  ],
  "requests": [
    {"tick": 2, "unit": "Pa", "kind": "ATTACK", "defender": "Ma"},
    {"tick": 0, "unit": "Ma", "kind": "MOVE", "target": [1,0,1]},
    {"tick": 1, "unit": "Ma", "kind": "DEFAULT_ON"}
  ]
}`

func testConfig() world.Config {
	cfg := world.DefaultConfig()
	cfg.CollapseSpawnPct = 0
	return cfg
}

func TestParseAndBuild(t *testing.T) {
	s, err := Parse([]byte(small))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d := s.Dims(); d != (geom.Bounds{NX: 2, NY: 2, NZ: 3}) {
		t.Fatalf("dims=%+v", d)
	}
	w, ids, err := s.Build(testConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if w.Config().Seed != 3 {
		t.Fatalf("seed=%d", w.Config().Seed)
	}
	if len(ids) != 2 {
		t.Fatalf("ids=%v", ids)
	}
	ma, err := w.Unit(ids["Ma"])
	if err != nil {
		t.Fatalf("unit: %v", err)
	}
	if ma.Name() != "Ma" || ma.Cube() != (geom.Vec3i{X: 0, Y: 0, Z: 1}) || ma.Strength() != 50 {
		t.Fatalf("Ma: name=%s cube=%v str=%d", ma.Name(), ma.Cube(), ma.Strength())
	}
}

func TestScriptIssuesRequestsInTickOrder(t *testing.T) {
	s, err := Parse([]byte(small))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ids := map[string]string{"Ma": "U1", "Pa": "U2"}
	sc := s.Script(ids)

	due, err := sc.Due(0)
	if err != nil || len(due) != 1 {
		t.Fatalf("tick 0: due=%v err=%v", due, err)
	}
	if due[0].UnitID != "U1" || due[0].Req.Kind != activity.Move || due[0].Req.Target != (geom.Vec3i{X: 1, Y: 0, Z: 1}) {
		t.Fatalf("tick 0 request=%+v", due[0])
	}

	due, _ = sc.Due(5)
	if len(due) != 2 {
		t.Fatalf("tick 5: due=%v", due)
	}
	if due[0].DefaultBehaviour == nil || !*due[0].DefaultBehaviour {
		t.Fatalf("expected DEFAULT_ON first, got %+v", due[0])
	}
	if due[1].Req.Kind != activity.Attack || due[1].Req.Unit != "U1" || due[1].UnitID != "U2" {
		t.Fatalf("attack request=%+v", due[1])
	}
	if !sc.Done() {
		t.Fatalf("script should be done")
	}
	if due, _ := sc.Due(100); len(due) != 0 {
		t.Fatalf("requests issued twice: %v", due)
	}
}

func TestScriptApply(t *testing.T) {
	s, err := Parse([]byte(small))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	w, ids, err := s.Build(testConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	sc := s.Script(ids)
	if errs := sc.Apply(w, 0); len(errs) != 0 {
		t.Fatalf("apply: %v", errs)
	}
	u, _ := w.Unit(ids["Ma"])
	if u.Activity().Kind() != activity.Move {
		t.Fatalf("activity=%s", u.Activity())
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"not json":         `{`,
		"missing terrain":  `{"units":[]}`,
		"bad terrain id":   `{"terrain":[[[9]]]}`,
		"ragged terrain":   `{"terrain":[[[1,0],[1]]]}`,
		"extra field":      `{"terrain":[[[1]]],"colour":"red"}`,
		"lowercase name":   `{"terrain":[[[1,0]]],"units":[{"name":"bob"}]}`,
		"duplicate name":   `{"terrain":[[[1,0]]],"units":[{"name":"Bo"},{"name":"Bo"}]}`,
		"move w/o target":  `{"terrain":[[[1,0]]],"units":[{"name":"Bo"}],"requests":[{"tick":0,"unit":"Bo","kind":"MOVE"}]}`,
		"unknown unit":     `{"terrain":[[[1,0]]],"units":[{"name":"Bo"}],"requests":[{"tick":0,"unit":"Al","kind":"REST"}]}`,
		"unknown defender": `{"terrain":[[[1,0]]],"units":[{"name":"Bo"}],"requests":[{"tick":0,"unit":"Bo","kind":"ATTACK","defender":"Al"}]}`,
		"bad kind":         `{"terrain":[[[1,0]]],"units":[{"name":"Bo"}],"requests":[{"tick":0,"unit":"Bo","kind":"FLY"}]}`,
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestBuildRejectsSolidPosition(t *testing.T) {
	s, err := Parse([]byte(`{"terrain":[[[1,0]]],"units":[{"name":"Bo","pos":[0,0,0]}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, _, err := s.Build(testConfig()); err == nil || !strings.Contains(err.Error(), "Bo") {
		t.Fatalf("err=%v", err)
	}
}

func TestLoadBundledScenario(t *testing.T) {
	s, err := Load(filepath.Join("..", "..", "..", "configs", "scenarios", "quarry.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	w, ids, err := s.Build(testConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(w.Units()) != 3 || len(w.Pending()) != 0 {
		t.Fatalf("units=%d pending=%d", len(w.Units()), len(w.Pending()))
	}
	sc := s.Script(ids)
	if errs := sc.Apply(w, 0); len(errs) != 0 {
		t.Fatalf("apply: %v", errs)
	}
}
