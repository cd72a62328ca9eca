package activity

import "fmt"

// Stack is a unit's activity chain. records[0] is a permanent Idle; the top
// record is the one that runs. Parents are referenced by index, never by
// pointer, so the chain stays acyclic.
type Stack struct {
	env     Env
	cfg     Config
	records []*Activity

	// next is the record the stack currently allows to Start.
	next *Activity
	// last is the most recently finished non-idle record.
	last *Activity
}

func NewStack(env Env, cfg Config, defaultBehaviour bool) *Stack {
	cfg.applyDefaults()
	s := &Stack{env: env, cfg: cfg}
	idle := &Activity{kind: Idle, stack: s, parent: -1}
	s.records = []*Activity{idle}
	s.next = idle
	// Idle is always able and is the designated next record.
	_ = idle.Start(defaultBehaviour)
	return s
}

func (s *Stack) Env() Env       { return s.env }
func (s *Stack) Config() Config { return s.cfg }

// NewActivity creates a detached record bound to this stack.
func (s *Stack) NewActivity(kind Kind, p Params) *Activity {
	return &Activity{kind: kind, params: p, stack: s, parent: -1}
}

func (s *Stack) Top() *Activity  { return s.records[len(s.records)-1] }
func (s *Stack) Base() *Activity { return s.records[0] }
func (s *Stack) Len() int        { return len(s.records) }

// Last returns the most recently finished non-idle record, or nil.
func (s *Stack) Last() *Activity { return s.last }

// Records returns the chain bottom to top.
func (s *Stack) Records() []*Activity {
	out := make([]*Activity, len(s.records))
	copy(out, s.records)
	return out
}

// Running reports whether an active record of kind k is on top.
func (s *Stack) Running(k Kind) bool {
	top := s.Top()
	return top.active && top.kind == k
}

// Request asks the unit to switch to a new activity. The top record is
// interrupted (or replaced, when it is of the same kind) and the new record
// starts immediately.
func (s *Stack) Request(kind Kind, p Params) (*Activity, error) {
	a := s.NewActivity(kind, p)
	if err := s.push(a, -1); err != nil {
		return nil, err
	}
	return a, nil
}

// PushChild starts a, created with NewActivity, on top of the stack with
// parent as its parent. Stopping a later stops parent too.
func (s *Stack) PushChild(a, parent *Activity) error {
	idx := s.indexOf(parent)
	if idx < 0 {
		return fmt.Errorf("%w: parent %s is not on the stack", ErrInvalidState, parent)
	}
	return s.push(a, idx)
}

func (s *Stack) push(a *Activity, parent int) error {
	if !a.IsAbleTo() {
		return fmt.Errorf("%w: %s", ErrNotAbleTo, a)
	}
	top := s.Top()
	if top.active {
		if !top.ShouldInterruptFor(a) {
			return fmt.Errorf("%w: %s refuses %s", ErrBusy, top, a)
		}
		if top.kind == a.kind && top.kind != Idle && parent < 0 {
			s.stopChain(len(s.records) - 1)
		} else if err := top.Interrupt(a); err != nil {
			return fmt.Errorf("%w: %v", ErrBusy, err)
		}
	}
	if parent >= len(s.records) {
		parent = -1
	}
	a.parent = parent
	s.records = append(s.records, a)
	s.next = a
	if err := a.Start(false); err != nil {
		s.records = s.records[:len(s.records)-1]
		s.resumeTop()
		return err
	}
	return nil
}

// Advance settles pending finish requests, runs the top record for dt and
// settles again.
func (s *Stack) Advance(dt float64) error {
	s.settle()
	if !s.Top().active {
		s.resumeTop()
	}
	err := s.Top().Advance(dt)
	s.settle()
	return err
}

// SetDefaultBehaviour switches the base Idle record's default mode.
func (s *Stack) SetDefaultBehaviour(enable bool) {
	s.records[0].SetDefault(enable)
	s.settle()
}

func (s *Stack) DefaultBehaviour() bool { return s.records[0].isDefault }

func (s *Stack) settle() {
	for i := len(s.records) - 1; i >= 0; i-- {
		if i >= len(s.records) {
			continue
		}
		if s.records[i].finishRequested {
			s.Finish(s.records[i])
		}
	}
}

// Finish stops a, everything running on its behalf and its parent chain,
// grants experience for successful runs, and resumes whatever is left on top.
func (s *Stack) Finish(a *Activity) {
	idx := s.indexOf(a)
	if idx < 0 {
		return
	}
	if a.kind != Idle {
		s.last = a
	}
	s.stopChain(idx)
	s.resumeTop()
}

func (s *Stack) indexOf(a *Activity) int {
	for i, r := range s.records {
		if r == a {
			return i
		}
	}
	return -1
}

func (s *Stack) descendsFrom(i, ancestor int) bool {
	for p := s.records[i].parent; p >= 0; p = s.records[p].parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// stopChain stops records[idx], its descendants and its ancestors, then
// removes them. The base Idle stays in place, reset.
func (s *Stack) stopChain(idx int) {
	drop := make([]bool, len(s.records))
	drop[idx] = true
	for j := len(s.records) - 1; j > idx; j-- {
		if s.descendsFrom(j, idx) {
			drop[j] = true
			s.records[j].halt()
		}
	}
	for p := s.records[idx].parent; p >= 0; p = s.records[p].parent {
		drop[p] = true
	}
	s.records[idx].Stop()

	for i, r := range s.records {
		if drop[i] && r.WasSuccessful() {
			if xp := s.cfg.XP(r.kind); xp > 0 {
				s.env.AddXP(xp)
			}
		}
		if drop[i] {
			r.finishRequested = false
		}
	}

	remap := make([]int, len(s.records))
	kept := s.records[:0:0]
	for i, r := range s.records {
		if drop[i] && i != 0 {
			remap[i] = -1
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, r)
	}
	for _, r := range kept {
		if r.parent >= 0 {
			r.parent = remap[r.parent]
		}
	}
	s.records = kept
}

// resumeTop makes the top record active again. Suspended records resume with
// their progress; a stopped base Idle is restarted. Stopped records above the
// base and records that can no longer run are removed and the next one down
// is tried.
func (s *Stack) resumeTop() {
	for {
		top := s.Top()
		if top.active {
			return
		}
		s.next = top
		if top.suspended && (top.kind == Idle || top.IsAbleTo()) {
			top.resume()
			return
		}
		if len(s.records) == 1 {
			_ = top.Start(top.isDefault)
			return
		}
		if !top.suspended && top.kind != Idle {
			s.last = top
		}
		s.stopChain(len(s.records) - 1)
	}
}
