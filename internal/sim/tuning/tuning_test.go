package tuning

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hillbillies.sim/internal/sim/world"
)

func TestDefaultsMatchWorldConfig(t *testing.T) {
	d := Defaults()
	if err := d.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if got, want := d.WorldConfig(), world.DefaultConfig(); got != want {
		t.Fatalf("WorldConfig()=%+v want %+v", got, want)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := `
world_id: quarry
seed: 1234
collapse:
  delay: 2.5
  spawn_pct: 0
activity:
  xp_work: 15
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tu, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := tu.WorldConfig()
	if cfg.ID != "quarry" || cfg.Seed != 1234 || cfg.CollapseDelay != 2.5 || cfg.CollapseSpawnPct != 0 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Activity.XPWork != 15 || cfg.Activity.XPAttack != Defaults().Activity.XPAttack {
		t.Fatalf("unexpected activity config: %+v", cfg.Activity)
	}
	if cfg.TickRateHz != Defaults().TickRateHz {
		t.Fatalf("tick rate=%d", cfg.TickRateHz)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "collapse:\n  delayy: 1\n",
		"negative delay":  "collapse:\n  delay: -1\n",
		"pct over 100":    "collapse:\n  spawn_pct: 101\n",
		"dt over max":     "dt: 0.5\nmax_dt: 0.2\n",
		"weights swapped": "material:\n  min_weight: 60\n  max_weight: 10\n",
		"empty world id":  "world_id: \"\"\n",
	}
	for name, raw := range cases {
		tu := Defaults()
		if err := Parse([]byte(raw), &tu); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestParseEmptyKeepsDefaults(t *testing.T) {
	tu := Defaults()
	if err := Parse(nil, &tu); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tu != Defaults() {
		t.Fatalf("tuning changed: %+v", tu)
	}
}

func TestValidateMessageNamesField(t *testing.T) {
	tu := Defaults()
	tu.Units.Max = 0
	err := tu.Validate()
	if err == nil || !strings.Contains(err.Error(), "Units.Max") {
		t.Fatalf("err=%v", err)
	}
}

func TestBundledTuningLoads(t *testing.T) {
	tu, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Defaults()
	want.Seed = 1337
	if tu != want {
		t.Fatalf("bundled tuning drifted from defaults:\n got %+v\nwant %+v", tu, want)
	}
}
