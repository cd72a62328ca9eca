package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hillbillies.sim/internal/observerproto"
	"hillbillies.sim/internal/persistence/snapshot"
	"hillbillies.sim/internal/protocol"
	"hillbillies.sim/internal/sim/geom"
	"hillbillies.sim/internal/sim/scenario"
	"hillbillies.sim/internal/sim/world"
	"hillbillies.sim/internal/sim/world/activity"
	"hillbillies.sim/internal/transport/observer"
)

type serveFlags struct {
	addr      string
	scenario  string
	dims      string
	disableDB bool
	spawn     int
	snapEvery uint64
}

func newServeCommand(rf *rootFlags) *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the world in real time with the observer and admin endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return runServe(ctx, rf, f, newLogger("server"))
		},
	}
	cmd.Flags().StringVar(&f.addr, "addr", "127.0.0.1:8080", "http listen address")
	cmd.Flags().StringVar(&f.scenario, "scenario", "", "scenario JSON (default: generated terrain of --dims)")
	cmd.Flags().StringVar(&f.dims, "dims", "16x16x8", "grid size for generated terrain")
	cmd.Flags().BoolVar(&f.disableDB, "disable_db", false, "disable the sqlite tick/audit index")
	cmd.Flags().IntVar(&f.spawn, "spawn", 0, "extra units spawned at random standable cubes")
	cmd.Flags().Uint64Var(&f.snapEvery, "snapshot_every", 300, "write a snapshot every N ticks (0 disables)")
	return cmd
}

func runServe(ctx context.Context, rf *rootFlags, f *serveFlags, logger *log.Logger) error {
	tune, err := loadTuning(rf, logger)
	if err != nil {
		return err
	}
	dims, err := parseDims(f.dims)
	if err != nil {
		return err
	}
	cfg := tune.WorldConfig()
	sc, err := loadScenario(f.scenario, dims, cfg.Seed)
	if err != nil {
		return err
	}

	p, err := openPersistence(rf.dataDir, cfg.ID, !f.disableDB)
	if err != nil {
		return fmt.Errorf("open persistence: %w", err)
	}
	defer p.Close()

	worldLog := log.New(io.Discard, "", 0)
	if rf.verbose {
		worldLog = newLogger("world")
	}
	opts := append([]world.Option{world.WithLogger(worldLog)}, p.options()...)
	snapCh := make(chan world.Snapshot, 2)
	if f.snapEvery > 0 {
		opts = append(opts, world.WithSnapshotSink(snapCh, f.snapEvery))
	}
	w, ids, err := sc.Build(cfg, opts...)
	if err != nil {
		return fmt.Errorf("world: %w", err)
	}
	for i := 0; i < f.spawn; i++ {
		if _, err := w.SpawnUnit(fmt.Sprintf("Settler %c", 'A'+rune(i%26)), w.Config().DefaultBehaviour); err != nil {
			return fmt.Errorf("spawn: %w", err)
		}
	}
	b := w.Bounds()
	if err := p.recordRun(w.Config(), [3]int{b.NX, b.NY, b.NZ}); err != nil {
		logger.Printf("index: record run: %v", err)
	}
	logger.Printf("run %s: world=%s seed=%d dims=%dx%dx%d units=%d pending=%d",
		p.runID, w.ID(), w.Config().Seed, b.NX, b.NY, b.NZ, len(w.Units()), len(w.Pending()))

	// From here on only the Run goroutine touches w, except through channels
	// and the atomic tick counter.
	worldDone := make(chan error, 1)
	go func() { worldDone <- w.Run(ctx) }()
	go runScript(ctx, w, sc.Script(ids), logger)
	go writeSnapshots(ctx, snapCh, filepath.Join(p.dir, "snapshots"), logger)

	srv := &http.Server{
		Addr:              f.addr,
		Handler:           newServeMux(w, p, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", f.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-worldDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("world stopped: %v", err)
	}
	return nil
}

// runScript submits scripted requests once the world reaches their tick.
func runScript(ctx context.Context, w *world.World, sc *scenario.Script, logger *log.Logger) {
	t := time.NewTicker(time.Second / time.Duration(w.TickRateHz()) / 2)
	defer t.Stop()
	for !sc.Done() {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		reqs, err := sc.Due(w.Tick())
		if err != nil {
			logger.Printf("script: %v", err)
		}
		for _, r := range reqs {
			if err := w.Submit(ctx, r); err != nil {
				logger.Printf("script: unit %s: %v", r.UnitID, err)
			}
		}
	}
}

func writeSnapshots(ctx context.Context, ch <-chan world.Snapshot, dir string, logger *log.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-ch:
			if err := snapshot.WriteSnapshot(snapshot.PathFor(dir, s.Tick), s); err != nil {
				logger.Printf("snapshot write: %v", err)
			}
		}
	}
}

func newServeMux(w *world.World, p *persistence, logger *log.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		id := w.ID()
		fmt.Fprintf(rw, "# HELP hillbillies_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE hillbillies_world_tick gauge\n")
		fmt.Fprintf(rw, "hillbillies_world_tick{world=%q} %d\n", id, w.Tick())
		if p != nil && p.index != nil {
			st := p.index.Stats()
			fmt.Fprintf(rw, "# HELP hillbillies_index_queue_depth Index writer backlog.\n")
			fmt.Fprintf(rw, "# TYPE hillbillies_index_queue_depth gauge\n")
			fmt.Fprintf(rw, "hillbillies_index_queue_depth{world=%q} %d\n", id, st.QueueDepth)
			fmt.Fprintf(rw, "# HELP hillbillies_index_dropped_total Entries dropped by the index writer.\n")
			fmt.Fprintf(rw, "# TYPE hillbillies_index_dropped_total counter\n")
			fmt.Fprintf(rw, "hillbillies_index_dropped_total{world=%q,kind=%q} %d\n", id, "tick", st.DropTickTotal)
			fmt.Fprintf(rw, "hillbillies_index_dropped_total{world=%q,kind=%q} %d\n", id, "audit", st.DropAuditTotal)
		}
	})
	mux.HandleFunc("/admin/v1/activity", activityHandler(w))

	obs := observer.NewServer(w, logger)
	mux.HandleFunc("/admin/v1/observer/bootstrap", obs.BootstrapHandler())
	mux.HandleFunc("/admin/v1/observer/ws", obs.WSHandler())
	return mux
}

// activityBody is the admin request to start an activity or switch default
// behaviour for one unit.
type activityBody struct {
	UnitID           string  `json:"unit_id"`
	Kind             string  `json:"kind,omitempty"`
	Target           *[3]int `json:"target,omitempty"`
	Unit             string  `json:"unit,omitempty"`
	DefaultBehaviour *bool   `json:"default_behaviour,omitempty"`
}

func activityHandler(w *world.World) http.HandlerFunc {
	writeErr := func(rw http.ResponseWriter, status int, code, msg string) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(status)
		_ = json.NewEncoder(rw).Encode(protocol.NewError(observerproto.Version, code, msg))
	}
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopback(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		var body activityBody
		dec := json.NewDecoder(io.LimitReader(r.Body, 64*1024))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			writeErr(rw, http.StatusBadRequest, protocol.ErrBadRequest, "bad json")
			return
		}
		req, err := body.toRequest()
		if err != nil {
			writeErr(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := w.Submit(ctx, req); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				writeErr(rw, http.StatusServiceUnavailable, protocol.ErrWorldBusy, "world did not answer in time")
				return
			}
			writeErr(rw, http.StatusConflict, world.ErrorCode(err), err.Error())
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "tick": w.Tick()})
	}
}

func (b activityBody) toRequest() (world.ActivityRequest, error) {
	out := world.ActivityRequest{UnitID: strings.TrimSpace(b.UnitID)}
	if out.UnitID == "" {
		return out, fmt.Errorf("missing unit_id")
	}
	if b.DefaultBehaviour != nil {
		out.DefaultBehaviour = b.DefaultBehaviour
		return out, nil
	}
	k, err := activity.ParseKind(strings.ToUpper(strings.TrimSpace(b.Kind)))
	if err != nil {
		return out, err
	}
	out.Req.Kind = k
	switch k {
	case activity.Move, activity.Work:
		if b.Target == nil {
			return out, fmt.Errorf("%s needs a target", k)
		}
		out.Req.Target = geom.Vec3i{X: b.Target[0], Y: b.Target[1], Z: b.Target[2]}
	case activity.Attack:
		if b.Unit == "" {
			return out, fmt.Errorf("ATTACK needs a unit")
		}
		out.Req.Unit = b.Unit
	case activity.Idle, activity.Rest, activity.Fall:
	}
	return out, nil
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(strings.Trim(host, "[]"))
	return ip != nil && ip.IsLoopback()
}
