package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"hillbillies.sim/internal/persistence/indexdb"
	persistlog "hillbillies.sim/internal/persistence/log"
	"hillbillies.sim/internal/sim/scenario"
	"hillbillies.sim/internal/sim/tuning"
	"hillbillies.sim/internal/sim/world"
	"hillbillies.sim/internal/sim/world/terrain/gen"
)

// loadTuning reads <configs>/tuning.yaml, or the --tuning override. A missing
// default file falls back to the built-in defaults; a missing override fails.
func loadTuning(f *rootFlags, logger *log.Logger) (tuning.Tuning, error) {
	path := strings.TrimSpace(f.tuningPath)
	explicit := path != ""
	if !explicit {
		path = filepath.Join(f.configDir, "tuning.yaml")
	}
	t, err := tuning.Load(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			logger.Printf("tuning not found (%s); using defaults", path)
			return tuning.Defaults(), nil
		}
		return t, fmt.Errorf("load tuning: %w", err)
	}
	return t, nil
}

// loadScenario reads the scenario file, or generates terrain of the given
// dims from seed when path is empty.
func loadScenario(path string, dims [3]int, seed int64) (*scenario.Scenario, error) {
	if strings.TrimSpace(path) != "" {
		return scenario.Load(path)
	}
	ids, err := gen.Generate(gen.DefaultParams(seed, dims))
	if err != nil {
		return nil, err
	}
	return &scenario.Scenario{Name: "generated", Terrain: ids}, nil
}

func parseDims(s string) ([3]int, error) {
	var d [3]int
	if _, err := fmt.Sscanf(strings.ReplaceAll(s, "x", " "), "%d %d %d", &d[0], &d[1], &d[2]); err != nil {
		return d, fmt.Errorf("dims %q: want XxYxZ", s)
	}
	return d, nil
}

// persistence bundles the per-run tick/audit sinks.
type persistence struct {
	runID string
	dir   string
	ticks *persistlog.TickLogger
	audit *persistlog.AuditLogger
	index *indexdb.SQLiteIndex
}

func openPersistence(dataDir, worldID string, withIndex bool) (*persistence, error) {
	p := &persistence{
		runID: uuid.New().String(),
		dir:   filepath.Join(dataDir, "worlds", worldID),
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, err
	}
	p.ticks = persistlog.NewTickLogger(p.dir)
	p.audit = persistlog.NewAuditLogger(p.dir)
	if withIndex {
		idx, err := indexdb.OpenSQLite(filepath.Join(p.dir, "index", "world.sqlite"))
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		p.index = idx
	}
	return p, nil
}

// options wires the sinks into a world. extra tick loggers run first.
func (p *persistence) options(extra ...world.TickLogger) []world.Option {
	ticks := append(multiTickLogger{}, extra...)
	ticks = append(ticks, p.ticks)
	audits := multiAuditLogger{p.audit}
	if p.index != nil {
		ticks = append(ticks, p.index)
		audits = append(audits, p.index)
	}
	return []world.Option{world.WithTickLogger(ticks), world.WithAuditLogger(audits)}
}

func (p *persistence) recordRun(cfg world.Config, dims [3]int) error {
	if p.index == nil {
		return nil
	}
	return p.index.RecordRun(indexdb.RunMeta{
		RunID:   p.runID,
		WorldID: cfg.ID,
		Seed:    cfg.Seed,
		Dims:    dims,
		Config:  cfg,
	})
}

func (p *persistence) Close() error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	if p.ticks != nil {
		keep(p.ticks.Close())
	}
	if p.audit != nil {
		keep(p.audit.Close())
	}
	if p.index != nil {
		keep(p.index.Close())
	}
	return first
}

// multiTickLogger fans one entry out to every sink; the first error wins but
// every sink still sees the entry.
type multiTickLogger []world.TickLogger

func (m multiTickLogger) WriteTick(e world.TickLogEntry) error {
	var first error
	for _, l := range m {
		if err := l.WriteTick(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type multiAuditLogger []world.AuditLogger

func (m multiAuditLogger) WriteAudit(e world.AuditEntry) error {
	var first error
	for _, l := range m {
		if err := l.WriteAudit(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
