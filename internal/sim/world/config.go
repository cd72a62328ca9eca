package world

import "hillbillies.sim/internal/sim/world/activity"

type Config struct {
	ID         string
	TickRateHz int
	// Dt is the simulated time advanced per Run tick.
	Dt    float64
	MaxDt float64
	Seed  int64

	CollapseDelay    float64
	CollapseSpawnPct int

	MaxUnits      int
	MaxFactions   int
	SpawnAttempts int

	DefaultBehaviour  bool
	MaterialFallSpeed float64
	MaterialMinWeight int
	MaterialMaxWeight int

	Activity activity.Config
}

func (c *Config) applyDefaults() {
	if c.ID == "" {
		c.ID = "world_1"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 5
	}
	if c.MaxDt <= 0 {
		c.MaxDt = 0.2
	}
	if c.Dt <= 0 || c.Dt > c.MaxDt {
		c.Dt = c.MaxDt
	}
	if c.CollapseDelay <= 0 {
		c.CollapseDelay = 5.0
	}
	if c.CollapseSpawnPct < 0 || c.CollapseSpawnPct > 100 {
		c.CollapseSpawnPct = 25
	}
	if c.MaxUnits <= 0 {
		c.MaxUnits = 100
	}
	if c.MaxFactions <= 0 {
		c.MaxFactions = 5
	}
	if c.SpawnAttempts <= 0 {
		c.SpawnAttempts = 1000
	}
	if c.MaterialFallSpeed <= 0 {
		c.MaterialFallSpeed = 3
	}
	if c.MaterialMinWeight <= 0 {
		c.MaterialMinWeight = 10
	}
	if c.MaterialMaxWeight < c.MaterialMinWeight {
		c.MaterialMaxWeight = 50
	}
	if c.Activity == (activity.Config{}) {
		c.Activity = activity.DefaultConfig()
	}
}

// DefaultConfig returns a config with every default applied. CollapseSpawnPct
// is the only field where zero is meaningful, so it is set explicitly here.
func DefaultConfig() Config {
	c := Config{CollapseSpawnPct: 25}
	c.applyDefaults()
	return c
}
