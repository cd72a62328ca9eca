// Package scenario loads world setups from JSON: a terrain matrix, the units
// to place on it, and an optional script of timed activity requests.
package scenario

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"hillbillies.sim/internal/sim/geom"
	"hillbillies.sim/internal/sim/world"
	"hillbillies.sim/internal/sim/world/activity"
)

//go:embed scenario.schema.json
var schemaJSON []byte

const schemaURL = "scenario.schema.json"

var schema = mustCompile()

func mustCompile() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		panic(err)
	}
	return c.MustCompile(schemaURL)
}

type Scenario struct {
	Name     string      `json:"name,omitempty"`
	Seed     *int64      `json:"seed,omitempty"`
	Terrain  [][][]int   `json:"terrain"`
	Units    []UnitDef   `json:"units,omitempty"`
	Requests []ScriptReq `json:"requests,omitempty"`
}

type UnitDef struct {
	Name             string  `json:"name"`
	Pos              *[3]int `json:"pos,omitempty"`
	Strength         int     `json:"strength,omitempty"`
	Agility          int     `json:"agility,omitempty"`
	Toughness        int     `json:"toughness,omitempty"`
	Weight           int     `json:"weight,omitempty"`
	DefaultBehaviour bool    `json:"default_behaviour,omitempty"`
}

// ScriptReq is an activity request issued before the given tick runs. Unit
// and Defender refer to units by scenario name.
type ScriptReq struct {
	Tick     uint64  `json:"tick"`
	Unit     string  `json:"unit"`
	Kind     string  `json:"kind"`
	Target   *[3]int `json:"target,omitempty"`
	Defender string  `json:"defender,omitempty"`
}

const (
	kindDefaultOn  = "DEFAULT_ON"
	kindDefaultOff = "DEFAULT_OFF"
)

func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse validates raw against the scenario schema, then checks what the
// schema cannot express: a rectangular terrain matrix and known unit names.
func Parse(raw []byte) (*Scenario, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, err
	}
	var s Scenario
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) check() error {
	ny, nz := len(s.Terrain[0]), len(s.Terrain[0][0])
	for x, plane := range s.Terrain {
		if len(plane) != ny {
			return fmt.Errorf("terrain[%d]: %d rows, want %d", x, len(plane), ny)
		}
		for y, col := range plane {
			if len(col) != nz {
				return fmt.Errorf("terrain[%d][%d]: %d cells, want %d", x, y, len(col), nz)
			}
		}
	}
	names := map[string]bool{}
	for _, u := range s.Units {
		if names[u.Name] {
			return fmt.Errorf("duplicate unit name %q", u.Name)
		}
		names[u.Name] = true
	}
	for i, r := range s.Requests {
		if !names[r.Unit] {
			return fmt.Errorf("requests[%d]: unknown unit %q", i, r.Unit)
		}
		if r.Kind == activity.Attack.String() && !names[r.Defender] {
			return fmt.Errorf("requests[%d]: unknown defender %q", i, r.Defender)
		}
	}
	return nil
}

// Dims returns the grid dimensions.
func (s *Scenario) Dims() geom.Bounds {
	return geom.Bounds{NX: len(s.Terrain), NY: len(s.Terrain[0]), NZ: len(s.Terrain[0][0])}
}

// Build creates the world and its units. The scenario seed, if present,
// overrides cfg.Seed. The returned map resolves scenario names to unit ids.
func (s *Scenario) Build(cfg world.Config, opts ...world.Option) (*world.World, map[string]string, error) {
	if s.Seed != nil {
		cfg.Seed = *s.Seed
	}
	w, err := world.New(cfg, s.Terrain, opts...)
	if err != nil {
		return nil, nil, err
	}
	ids := make(map[string]string, len(s.Units))
	for _, def := range s.Units {
		spec := world.UnitSpec{
			Name:             def.Name,
			Strength:         def.Strength,
			Agility:          def.Agility,
			Toughness:        def.Toughness,
			Weight:           def.Weight,
			DefaultBehaviour: def.DefaultBehaviour,
		}
		if def.Pos != nil {
			p := geom.Vec3i{X: def.Pos[0], Y: def.Pos[1], Z: def.Pos[2]}
			spec.Pos = &p
		}
		u, err := w.AddUnit(spec)
		if err != nil {
			return nil, nil, fmt.Errorf("unit %s: %w", def.Name, err)
		}
		ids[def.Name] = u.ID()
	}
	return w, ids, nil
}

// Script replays scenario requests tick by tick.
type Script struct {
	reqs []ScriptReq
	ids  map[string]string
	next int
}

func (s *Scenario) Script(ids map[string]string) *Script {
	reqs := append([]ScriptReq(nil), s.Requests...)
	sort.SliceStable(reqs, func(i, j int) bool { return reqs[i].Tick < reqs[j].Tick })
	return &Script{reqs: reqs, ids: ids}
}

// Done reports whether every request has been issued.
func (sc *Script) Done() bool { return sc.next >= len(sc.reqs) }

// Due returns the requests scheduled at or before tick that have not been
// issued yet, converted to world requests in file order.
func (sc *Script) Due(tick uint64) ([]world.ActivityRequest, error) {
	var out []world.ActivityRequest
	for sc.next < len(sc.reqs) && sc.reqs[sc.next].Tick <= tick {
		r := sc.reqs[sc.next]
		sc.next++
		req, err := sc.convert(r)
		if err != nil {
			return out, err
		}
		out = append(out, req)
	}
	return out, nil
}

func (sc *Script) convert(r ScriptReq) (world.ActivityRequest, error) {
	out := world.ActivityRequest{UnitID: sc.ids[r.Unit]}
	switch r.Kind {
	case kindDefaultOn, kindDefaultOff:
		on := r.Kind == kindDefaultOn
		out.DefaultBehaviour = &on
		return out, nil
	}
	k, err := activity.ParseKind(r.Kind)
	if err != nil {
		return out, err
	}
	out.Req.Kind = k
	if r.Target != nil {
		out.Req.Target = geom.Vec3i{X: r.Target[0], Y: r.Target[1], Z: r.Target[2]}
	}
	if r.Defender != "" {
		out.Req.Unit = sc.ids[r.Defender]
	}
	return out, nil
}

// Apply issues the requests due at tick directly on w. Rejected requests are
// returned alongside the unit they were meant for; they do not stop the rest.
func (sc *Script) Apply(w *world.World, tick uint64) []error {
	reqs, err := sc.Due(tick)
	var errs []error
	if err != nil {
		errs = append(errs, err)
	}
	for _, r := range reqs {
		var err error
		if r.DefaultBehaviour != nil {
			err = w.SetDefaultBehaviour(r.UnitID, *r.DefaultBehaviour)
		} else {
			err = w.RequestActivity(r.UnitID, r.Req)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("unit %s: %w", r.UnitID, err))
		}
	}
	return errs
}
