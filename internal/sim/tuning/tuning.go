package tuning

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"hillbillies.sim/internal/sim/world"
	"hillbillies.sim/internal/sim/world/activity"
)

// Tuning is the operator-facing knob set, loaded from tuning.yaml. Missing
// keys keep their Defaults value.
type Tuning struct {
	WorldID    string  `yaml:"world_id" validate:"required,max=64"`
	TickRateHz int     `yaml:"tick_rate_hz" validate:"min=1,max=1000"`
	Dt         float64 `yaml:"dt" validate:"gt=0,ltefield=MaxDt"`
	MaxDt      float64 `yaml:"max_dt" validate:"gt=0,lte=1"`
	Seed       int64   `yaml:"seed"`

	Collapse Collapse `yaml:"collapse"`
	Units    Units    `yaml:"units"`
	Material Material `yaml:"material"`
	Activity Activity `yaml:"activity"`
}

type Collapse struct {
	Delay    float64 `yaml:"delay" validate:"gt=0"`
	SpawnPct int     `yaml:"spawn_pct" validate:"min=0,max=100"`
}

type Units struct {
	Max              int  `yaml:"max" validate:"min=1,max=10000"`
	MaxFactions      int  `yaml:"max_factions" validate:"min=1,max=100"`
	SpawnAttempts    int  `yaml:"spawn_attempts" validate:"min=1"`
	DefaultBehaviour bool `yaml:"default_behaviour"`
}

type Material struct {
	FallSpeed float64 `yaml:"fall_speed" validate:"gt=0"`
	MinWeight int     `yaml:"min_weight" validate:"min=1"`
	MaxWeight int     `yaml:"max_weight" validate:"gtefield=MinWeight"`
}

type Activity struct {
	XPMove            int     `yaml:"xp_move" validate:"min=0"`
	XPWork            int     `yaml:"xp_work" validate:"min=0"`
	XPAttack          int     `yaml:"xp_attack" validate:"min=0"`
	FallSpeed         float64 `yaml:"fall_speed" validate:"gt=0"`
	FallDamagePerCube float64 `yaml:"fall_damage_per_cube" validate:"min=0"`
	RestInterval      float64 `yaml:"rest_interval" validate:"gt=0"`
	RestMinRecovery   float64 `yaml:"rest_min_recovery" validate:"gt=0"`
	AttackDuration    float64 `yaml:"attack_duration" validate:"gt=0"`
	WorkBase          float64 `yaml:"work_base" validate:"gt=0"`
	PathMaxNodes      int     `yaml:"path_max_nodes" validate:"min=0"`
}

// Defaults mirrors world.DefaultConfig.
func Defaults() Tuning {
	c := world.DefaultConfig()
	a := c.Activity
	return Tuning{
		WorldID:    c.ID,
		TickRateHz: c.TickRateHz,
		Dt:         c.Dt,
		MaxDt:      c.MaxDt,
		Seed:       c.Seed,
		Collapse: Collapse{
			Delay:    c.CollapseDelay,
			SpawnPct: c.CollapseSpawnPct,
		},
		Units: Units{
			Max:              c.MaxUnits,
			MaxFactions:      c.MaxFactions,
			SpawnAttempts:    c.SpawnAttempts,
			DefaultBehaviour: c.DefaultBehaviour,
		},
		Material: Material{
			FallSpeed: c.MaterialFallSpeed,
			MinWeight: c.MaterialMinWeight,
			MaxWeight: c.MaterialMaxWeight,
		},
		Activity: Activity{
			XPMove:            a.XPMove,
			XPWork:            a.XPWork,
			XPAttack:          a.XPAttack,
			FallSpeed:         a.FallSpeed,
			FallDamagePerCube: a.FallDamagePerCube,
			RestInterval:      a.RestInterval,
			RestMinRecovery:   a.RestMinRecovery,
			AttackDuration:    a.AttackDuration,
			WorkBase:          a.WorkBase,
			PathMaxNodes:      a.PathMaxNodes,
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := Parse(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Parse decodes YAML over t and validates the result. Unknown keys are
// rejected.
func Parse(raw []byte, t *Tuning) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(t); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return t.Validate()
}

var validate = validator.New()

func (t Tuning) Validate() error {
	if err := validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s (value: %v)", e.Namespace(), e.Tag(), e.Value()))
			}
			return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// WorldConfig converts the tuning into a world config.
func (t Tuning) WorldConfig() world.Config {
	return world.Config{
		ID:                t.WorldID,
		TickRateHz:        t.TickRateHz,
		Dt:                t.Dt,
		MaxDt:             t.MaxDt,
		Seed:              t.Seed,
		CollapseDelay:     t.Collapse.Delay,
		CollapseSpawnPct:  t.Collapse.SpawnPct,
		MaxUnits:          t.Units.Max,
		MaxFactions:       t.Units.MaxFactions,
		SpawnAttempts:     t.Units.SpawnAttempts,
		DefaultBehaviour:  t.Units.DefaultBehaviour,
		MaterialFallSpeed: t.Material.FallSpeed,
		MaterialMinWeight: t.Material.MinWeight,
		MaterialMaxWeight: t.Material.MaxWeight,
		Activity: activity.Config{
			XPMove:            t.Activity.XPMove,
			XPWork:            t.Activity.XPWork,
			XPAttack:          t.Activity.XPAttack,
			FallSpeed:         t.Activity.FallSpeed,
			FallDamagePerCube: t.Activity.FallDamagePerCube,
			RestInterval:      t.Activity.RestInterval,
			RestMinRecovery:   t.Activity.RestMinRecovery,
			AttackDuration:    t.Activity.AttackDuration,
			WorkBase:          t.Activity.WorkBase,
			PathMaxNodes:      t.Activity.PathMaxNodes,
		},
	}
}
