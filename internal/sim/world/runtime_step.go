package world

import (
	"errors"
	"fmt"

	"hillbillies.sim/internal/sim/geom"
)

// Advance moves the world forward by dt seconds: units in creation order,
// then materials, then the pending-collapse sweep. A failing unit does not
// stop the others; all failures are returned joined.
func (w *World) Advance(dt float64) error {
	if !(dt > 0) || dt > w.cfg.MaxDt+collapseEps {
		return fmt.Errorf("%w: %v not in (0, %v]", ErrBadDuration, dt, w.cfg.MaxDt)
	}
	return w.stepInternal(dt, nil)
}

// StepOnce advances by the configured Dt and returns the tick that was run
// and the state digest after it.
func (w *World) StepOnce() (tick uint64, digest string, err error) {
	tick = w.tick.Load()
	err = w.stepInternal(w.cfg.Dt, nil)
	return tick, w.stateDigest(), err
}

func (w *World) stepInternal(dt float64, requests []ActivityRequest) error {
	nowTick := w.tick.Load()
	var errs []error
	var unitErrs []UnitError
	fail := func(unitID string, err error) {
		w.log.Printf("tick %d: unit %s: %v", nowTick, unitID, err)
		errs = append(errs, fmt.Errorf("unit %s: %w", unitID, err))
		unitErrs = append(unitErrs, UnitError{UnitID: unitID, Code: ErrorCode(err), Message: err.Error()})
	}

	// Requests apply at the tick boundary, in arrival order.
	for _, req := range requests {
		w.actor = req.UnitID
		err := w.applyRequest(req)
		if req.Resp != nil {
			req.Resp <- err
		}
	}
	w.actor = worldActor

	aged := w.pendingKeys()

	for _, u := range append([]*Unit(nil), w.unitOrder...) {
		if u.dead {
			continue
		}
		w.actor = u.id
		if err := u.advance(dt); err != nil {
			fail(u.id, err)
		}
	}
	w.actor = worldActor
	w.removeDead()

	for _, m := range w.Materials() {
		if err := m.advance(dt); err != nil {
			errs = append(errs, fmt.Errorf("material %d: %w", m.id, err))
		}
	}

	if err := w.sweepPending(aged, dt); err != nil {
		w.log.Printf("tick %d: %v", nowTick, err)
		errs = append(errs, err)
	}

	w.time += dt
	w.tick.Add(1)
	digest := w.stateDigest()
	if w.tickLogger != nil {
		entry := TickLogEntry{
			Tick:      nowTick,
			Time:      w.time,
			Dt:        dt,
			Collapsed: toArrays(w.tickCollapsed),
			Scheduled: toArrays(w.tickScheduled),
			Errors:    unitErrs,
			Digest:    digest,
		}
		if err := w.tickLogger.WriteTick(entry); err != nil {
			w.log.Printf("tick log: %v", err)
		}
	}

	w.stepObservers(nowTick)

	if w.snapshotSink != nil && w.snapshotEvery > 0 && (nowTick+1)%w.snapshotEvery == 0 {
		select {
		case w.snapshotSink <- w.Snapshot():
		default:
			w.log.Printf("tick %d: snapshot sink full, dropped", nowTick)
		}
	}

	w.tickCollapsed = w.tickCollapsed[:0]
	w.tickScheduled = w.tickScheduled[:0]
	w.tickAudits = w.tickAudits[:0]
	return errors.Join(errs...)
}

// removeDead drops dead units from the world and their factions.
func (w *World) removeDead() {
	kept := w.unitOrder[:0]
	for _, u := range w.unitOrder {
		if !u.dead {
			kept = append(kept, u)
			continue
		}
		w.log.Printf("unit %s died at %v", u.id, u.Cube())
		delete(w.units, u.id)
		if u.faction != nil {
			delete(u.faction.members, u.id)
			u.faction = nil
		}
	}
	for i := len(kept); i < len(w.unitOrder); i++ {
		w.unitOrder[i] = nil
	}
	w.unitOrder = kept
}

func toArrays(cs []geom.Vec3i) [][3]int {
	if len(cs) == 0 {
		return nil
	}
	out := make([][3]int, len(cs))
	for i, c := range cs {
		out[i] = c.ToArray()
	}
	return out
}
