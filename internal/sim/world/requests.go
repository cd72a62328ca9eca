package world

import (
	"context"
	"fmt"

	"hillbillies.sim/internal/sim/geom"
	"hillbillies.sim/internal/sim/world/activity"
)

// Request is a task-layer order for one unit. Target is used by Move and Work,
// Unit by Attack.
type Request struct {
	Kind   activity.Kind
	Target geom.Vec3i
	Unit   string
}

func (r Request) params() activity.Params {
	return activity.Params{Target: r.Target, Unit: r.Unit}
}

// RequestActivity starts a new activity for the unit, interrupting or
// replacing the current one. The activity's own rules decide acceptance:
// ErrNotAbleTo when it cannot run, ErrBusy when the current one refuses to
// yield.
func (w *World) RequestActivity(unitID string, req Request) error {
	u, err := w.Unit(unitID)
	if err != nil {
		return err
	}
	switch req.Kind {
	case activity.Idle:
		return fmt.Errorf("%w: idle is not requestable", ErrBadRequest)
	case activity.Move, activity.Work:
		if !w.grid.InBounds(req.Target) {
			return fmt.Errorf("%w: %v", ErrOutOfBounds, req.Target)
		}
	case activity.Attack:
		if _, err := w.Unit(req.Unit); err != nil {
			return err
		}
	case activity.Rest, activity.Fall:
	}
	_, err = u.stack.Request(req.Kind, req.params())
	return err
}

// ActivityProgress is the progress of the unit's current activity.
func (w *World) ActivityProgress(unitID string) (float64, error) {
	u, err := w.Unit(unitID)
	if err != nil {
		return 0, err
	}
	return u.stack.Top().Progress(), nil
}

// IsActive reports whether the unit is busy with something other than idling.
func (w *World) IsActive(unitID string) (bool, error) {
	u, err := w.Unit(unitID)
	if err != nil {
		return false, err
	}
	top := u.stack.Top()
	return top.Kind() != activity.Idle && top.IsActive(), nil
}

// WasSuccessful reports whether the most recently finished activity succeeded.
func (w *World) WasSuccessful(unitID string) (bool, error) {
	u, err := w.Unit(unitID)
	if err != nil {
		return false, err
	}
	last := u.stack.Last()
	return last != nil && last.WasSuccessful(), nil
}

func (w *World) SetDefaultBehaviour(unitID string, enable bool) error {
	u, err := w.Unit(unitID)
	if err != nil {
		return err
	}
	u.stack.SetDefaultBehaviour(enable)
	return nil
}

// ActivityRequest carries a Request (or a default-behaviour switch) into the
// Run loop. Resp, if set, receives the result at the next tick boundary.
type ActivityRequest struct {
	UnitID string
	Req    Request
	// DefaultBehaviour, when set, switches default behaviour instead of
	// requesting an activity.
	DefaultBehaviour *bool
	Resp             chan error
}

func (w *World) Requests() chan<- ActivityRequest { return w.requests }

// Submit queues req for the running loop and waits for its result.
func (w *World) Submit(ctx context.Context, req ActivityRequest) error {
	if req.Resp == nil {
		req.Resp = make(chan error, 1)
	}
	select {
	case w.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.Resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *World) applyRequest(req ActivityRequest) error {
	if req.DefaultBehaviour != nil {
		return w.SetDefaultBehaviour(req.UnitID, *req.DefaultBehaviour)
	}
	return w.RequestActivity(req.UnitID, req.Req)
}
