package activity

import (
	"errors"
	"fmt"

	"hillbillies.sim/internal/sim/geom"
)

var (
	ErrInvalidState = errors.New("invalid activity state")
	// ErrNotAbleTo and ErrBusy refine ErrInvalidState for rejected requests.
	ErrNotAbleTo = fmt.Errorf("%w: not able to", ErrInvalidState)
	ErrBusy      = fmt.Errorf("%w: busy", ErrInvalidState)
)

// Activity is one record on a unit's Stack. A stopped record has progress 0
// and is inactive; an interrupted (suspended) record is inactive but keeps
// its progress and can be resumed.
type Activity struct {
	kind   Kind
	params Params
	stack  *Stack
	parent int

	progress        float64
	active          bool
	success         bool
	isDefault       bool
	suspended       bool
	finishRequested bool

	// move
	step     geom.Vec3i
	stepping bool
	// rest
	restClock float64
	recovered float64
	// fall
	fallFrom float64
}

func (a *Activity) Kind() Kind          { return a.kind }
func (a *Activity) Params() Params      { return a.params }
func (a *Activity) Progress() float64   { return a.progress }
func (a *Activity) IsActive() bool      { return a.active }
func (a *Activity) IsDefault() bool     { return a.isDefault }
func (a *Activity) IsSuspended() bool   { return a.suspended }
func (a *Activity) WasSuccessful() bool { return !a.active && a.success }

func (a *Activity) String() string {
	switch a.kind {
	case Move, Work:
		return fmt.Sprintf("%s %v", a.kind, a.params.Target)
	case Attack:
		return fmt.Sprintf("%s %s", a.kind, a.params.Unit)
	default:
		return a.kind.String()
	}
}

// Parent returns the record this one resumes into when stopped, or nil.
func (a *Activity) Parent() *Activity {
	if a.stack == nil || a.parent < 0 || a.parent >= len(a.stack.records) {
		return nil
	}
	return a.stack.records[a.parent]
}

func (a *Activity) IsAbleTo() bool {
	if a.stack == nil {
		return false
	}
	return isAbleTo(a)
}

func (a *Activity) ShouldInterruptFor(next *Activity) bool {
	return shouldInterruptFor(a, next)
}

// Start begins a fresh run. It fails without touching the record when the
// unit cannot perform it (unless isDefault) or when the stack has designated
// another record to run next.
func (a *Activity) Start(isDefault bool) error {
	if !isDefault && !a.IsAbleTo() {
		return fmt.Errorf("%w: unit cannot %s at this moment", ErrInvalidState, a)
	}
	if a.stack == nil || a.stack.next != a {
		return fmt.Errorf("%w: %s is not the unit's next activity", ErrInvalidState, a)
	}
	a.isDefault = isDefault
	a.progress = 0
	a.active = true
	a.success = false
	a.suspended = false
	a.finishRequested = false
	onStart(a)
	return nil
}

// Advance runs the variant hook and then adds dt to progress.
func (a *Activity) Advance(dt float64) error {
	if !a.active {
		return fmt.Errorf("%w: advancing inactive %s", ErrInvalidState, a)
	}
	err := onAdvance(a, dt)
	if a.active {
		a.progress += dt
	}
	return err
}

// Interrupt suspends the record in favour of next. Progress is kept and the
// parent chain is left alone.
func (a *Activity) Interrupt(next *Activity) error {
	if !a.active {
		return fmt.Errorf("%w: interrupting inactive %s", ErrInvalidState, a)
	}
	if !a.ShouldInterruptFor(next) {
		return fmt.Errorf("%w: %s cannot be interrupted by %s", ErrInvalidState, a, next)
	}
	onInterrupt(a)
	a.active = false
	a.suspended = true
	return nil
}

// Stop ends the run: interrupt hook, stop hook, progress reset. The parent is
// stopped as well, all the way up the chain. A stopped record is never
// resumed; its stack removes it before the next advance.
func (a *Activity) Stop() {
	a.halt()
	if a.stack != nil {
		a.requestFinish()
	}
	if p := a.Parent(); p != nil {
		p.Stop()
	}
}

func (a *Activity) halt() {
	onInterrupt(a)
	onStop(a)
	a.progress = 0
	a.active = false
	a.suspended = false
}

// resume reactivates a suspended record with its progress intact.
func (a *Activity) resume() {
	a.active = true
	a.suspended = false
}

// SetDefault toggles default mode; switching it off abandons the behaviour.
func (a *Activity) SetDefault(enable bool) {
	a.isDefault = enable
	if !enable {
		a.requestFinish()
	}
}

func (a *Activity) requestFinish() { a.finishRequested = true }

func (a *Activity) succeed() {
	a.success = true
	a.requestFinish()
}
