package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"hillbillies.sim/internal/persistence/snapshot"
	"hillbillies.sim/internal/sim/world"
)

type simulateFlags struct {
	scenario string
	dims     string
	ticks    uint64
	seed     int64
	seedSet  bool
	persist  bool
	index    bool
	spawn    int
	snapshot string
}

// simulateSummary is printed as JSON when a headless run finishes.
type simulateSummary struct {
	RunID       string   `json:"run_id,omitempty"`
	WorldID     string   `json:"world_id"`
	Seed        int64    `json:"seed"`
	Ticks       uint64   `json:"ticks"`
	Time        float64  `json:"time"`
	Digest      string   `json:"digest"`
	UnitsAlive  int      `json:"units_alive"`
	Materials   int      `json:"materials"`
	Pending     int      `json:"pending"`
	Collapsed   int      `json:"collapsed"`
	UnitErrors  int      `json:"unit_errors"`
	ScriptError []string `json:"script_errors,omitempty"`
}

func newSimulateCommand(rf *rootFlags) *cobra.Command {
	f := &simulateFlags{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a world headless for a fixed number of ticks",
		Long: `Steps the world by the configured dt without a wall clock, issuing any
scripted scenario requests at their tick, and prints a JSON summary with the
final state digest. Two runs with the same tuning, scenario and seed print the
same digest.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.seedSet = cmd.Flags().Changed("seed")
			logger := log.New(io.Discard, "", 0)
			if rf.verbose {
				logger = newLogger("simulate")
			}
			sum, err := runSimulate(rf, f, logger)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		},
	}
	cmd.Flags().StringVar(&f.scenario, "scenario", "", "scenario JSON (default: generated terrain of --dims)")
	cmd.Flags().StringVar(&f.dims, "dims", "16x16x8", "grid size for generated terrain")
	cmd.Flags().Uint64Var(&f.ticks, "ticks", 100, "number of ticks to run")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "world seed (overrides tuning and scenario)")
	cmd.Flags().BoolVar(&f.persist, "persist", false, "write tick and audit logs under --data")
	cmd.Flags().BoolVar(&f.index, "index", false, "also index logs into sqlite (implies --persist)")
	cmd.Flags().IntVar(&f.spawn, "spawn", 0, "extra units spawned at random standable cubes")
	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "write the final state to this snapshot file")
	return cmd
}

func runSimulate(rf *rootFlags, f *simulateFlags, logger *log.Logger) (simulateSummary, error) {
	var sum simulateSummary
	tune, err := loadTuning(rf, logger)
	if err != nil {
		return sum, err
	}
	dims, err := parseDims(f.dims)
	if err != nil {
		return sum, err
	}
	cfg := tune.WorldConfig()
	if f.seedSet {
		cfg.Seed = f.seed
	}
	sc, err := loadScenario(f.scenario, dims, cfg.Seed)
	if err != nil {
		return sum, err
	}
	if f.seedSet {
		sc.Seed = &f.seed
	}

	var collapsed, unitErrors int
	counter := tickCounter(func(e world.TickLogEntry) {
		collapsed += len(e.Collapsed)
		unitErrors += len(e.Errors)
	})
	opts := []world.Option{world.WithLogger(logger)}
	var p *persistence
	if f.persist || f.index {
		p, err = openPersistence(rf.dataDir, cfg.ID, f.index)
		if err != nil {
			return sum, err
		}
		defer p.Close()
		sum.RunID = p.runID
		opts = append(opts, p.options(counter)...)
	} else {
		opts = append(opts, world.WithTickLogger(counter))
	}

	w, ids, err := sc.Build(cfg, opts...)
	if err != nil {
		return sum, err
	}
	for i := 0; i < f.spawn; i++ {
		if _, err := w.SpawnUnit(fmt.Sprintf("Settler %c", 'A'+rune(i%26)), w.Config().DefaultBehaviour); err != nil {
			return sum, fmt.Errorf("spawn: %w", err)
		}
	}
	if p != nil {
		b := w.Bounds()
		if err := p.recordRun(w.Config(), [3]int{b.NX, b.NY, b.NZ}); err != nil {
			return sum, err
		}
	}

	script := sc.Script(ids)
	for i := uint64(0); i < f.ticks; i++ {
		for _, err := range script.Apply(w, w.Tick()) {
			logger.Printf("tick %d: script: %v", w.Tick(), err)
			sum.ScriptError = append(sum.ScriptError, fmt.Sprintf("tick %d: %v", w.Tick(), err))
		}
		// Unit failures are already in the tick log.
		_, _, _ = w.StepOnce()
	}

	if f.snapshot != "" {
		if err := snapshot.WriteSnapshot(f.snapshot, w.Snapshot()); err != nil {
			return sum, err
		}
	}

	sum.WorldID = w.ID()
	sum.Seed = w.Config().Seed
	sum.Ticks = w.Tick()
	sum.Time = w.Time()
	sum.Digest = w.StateDigest()
	sum.UnitsAlive = len(w.Units())
	sum.Materials = len(w.Materials())
	sum.Pending = len(w.Pending())
	sum.Collapsed = collapsed
	sum.UnitErrors = unitErrors
	return sum, nil
}

type tickCounter func(world.TickLogEntry)

func (f tickCounter) WriteTick(e world.TickLogEntry) error {
	f(e)
	return nil
}
