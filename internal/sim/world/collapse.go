package world

import (
	"fmt"

	"hillbillies.sim/internal/sim/geom"
	"hillbillies.sim/internal/sim/world/terrain"
)

// Collapse turns c into AIR. ROCK and TREE cubes leave a Boulder or a Log
// behind with CollapseSpawnPct chance. Cubes that lose their connection to
// the border as a result are scheduled for collapse.
func (w *World) Collapse(c geom.Vec3i) error {
	cube, err := w.grid.Cube(c)
	if err != nil {
		return err
	}
	delete(w.pending, c)

	var kind MaterialKind
	spawn := false
	switch cube.Terrain() {
	case terrain.Rock:
		kind, spawn = Boulder, true
	case terrain.Tree:
		kind, spawn = Log, true
	case terrain.Air, terrain.Workshop:
	}
	if spawn && w.roller.Chance(w.cfg.CollapseSpawnPct) {
		m := w.newMaterial(kind)
		if err := m.setOwnerCube(c); err != nil {
			return err
		}
	}

	w.collapsing = true
	_, err = w.grid.SetTerrain(c, terrain.Air)
	w.collapsing = false
	if err != nil {
		return err
	}
	w.tickCollapsed = append(w.tickCollapsed, c)
	return nil
}

// SetTerrain edits one cube outside of a collapse. Solid to passable edits
// schedule whatever got disconnected; passable to solid edits cancel the
// pending collapse of every cube that became connected again.
func (w *World) SetTerrain(c geom.Vec3i, t terrain.Terrain) error {
	if int(t) >= len(terrain.Palette) {
		return fmt.Errorf("%w: %d", terrain.ErrBadTerrain, t)
	}
	_, err := w.grid.SetTerrain(c, t)
	return err
}

// onCubeChanged is installed as every cube's change hook; all terrain edits
// funnel through here.
func (w *World) onCubeChanged(old terrain.Terrain, cube *terrain.Cube) {
	c := cube.Pos()
	w.terrainVersion++
	for _, l := range w.listeners {
		l.NotifyTerrainChanged(c.X, c.Y, c.Z)
	}

	action := "SET_TERRAIN"
	if w.collapsing {
		action = "COLLAPSE"
	}
	w.audit(AuditEntry{
		Tick:   w.tick.Load(),
		Actor:  w.actor,
		Action: action,
		Pos:    c.ToArray(),
		From:   uint16(old),
		To:     uint16(cube.Terrain()),
		Reason: w.reason,
	})

	switch wasSolid, isSolid := old.IsSolid(), cube.IsSolid(); {
	case wasSolid && !isSolid:
		delete(w.pending, c)
		lost, err := w.oracle.NotifySolidToPassable(c)
		if err != nil {
			w.log.Printf("connectivity: %v", err)
			return
		}
		for _, p := range lost {
			w.schedule(p)
		}
	case !wasSolid && isSolid:
		gained, err := w.oracle.NotifyPassableToSolid(c)
		if err != nil {
			w.log.Printf("connectivity: %v", err)
			return
		}
		for _, p := range gained {
			delete(w.pending, p)
		}
		if !w.oracle.IsSolidConnectedToBorder(c) {
			w.schedule(c)
		}
	}
}

func (w *World) schedule(c geom.Vec3i) {
	if _, ok := w.pending[c]; ok {
		return
	}
	w.pending[c] = 0
	w.tickScheduled = append(w.tickScheduled, c)
}

// sweepPending ages the entries listed in aged by dt and collapses, in
// coordinate order, those that reached the collapse delay. Entries created
// during the sweep are not aged until the next tick.
func (w *World) sweepPending(aged []geom.Vec3i, dt float64) error {
	var due []geom.Vec3i
	for _, c := range aged {
		elapsed, ok := w.pending[c]
		if !ok {
			continue
		}
		elapsed += dt
		w.pending[c] = elapsed
		if elapsed >= w.cfg.CollapseDelay-collapseEps {
			due = append(due, c)
		}
	}
	for _, c := range due {
		if _, ok := w.pending[c]; !ok {
			continue
		}
		if err := w.Collapse(c); err != nil {
			return fmt.Errorf("collapse %v: %w", c, err)
		}
	}
	return nil
}

const collapseEps = 1e-9

func (w *World) audit(e AuditEntry) {
	w.tickAudits = append(w.tickAudits, e)
	if w.auditLogger != nil {
		if err := w.auditLogger.WriteAudit(e); err != nil {
			w.log.Printf("audit: %v", err)
		}
	}
}
