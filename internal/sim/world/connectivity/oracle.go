package connectivity

import (
	"fmt"

	"hillbillies.sim/internal/sim/geom"
	"hillbillies.sim/internal/sim/world/terrain"
)

// Oracle tracks which solid cells are connected to the grid border through a
// chain of 6-adjacent solid cells. Solid cells on the border are always
// connected.
//
// Invariant: connected[i] implies solid[i], and connected[i] holds exactly
// when such a chain exists.
type Oracle struct {
	bounds    geom.Bounds
	solid     []bool
	connected []bool

	// scratch reused across notifications
	mark  []uint32
	epoch uint32
	queue []int
}

func New(b geom.Bounds) *Oracle {
	n := b.Cells()
	return &Oracle{
		bounds:    b,
		solid:     make([]bool, n),
		connected: make([]bool, n),
		mark:      make([]uint32, n),
	}
}

func (o *Oracle) Bounds() geom.Bounds { return o.bounds }

// Initialize loads solidity for every cell and computes connectivity with one
// flood fill from the solid border cells.
func (o *Oracle) Initialize(isSolid func(geom.Vec3i) bool) {
	b := o.bounds
	queue := o.queue[:0]
	for i := range o.solid {
		c := b.At(i)
		o.solid[i] = isSolid(c)
		o.connected[i] = false
	}
	for i := range o.solid {
		if o.solid[i] && b.OnBoundary(b.At(i)) {
			o.connected[i] = true
			queue = append(queue, i)
		}
	}
	for head := 0; head < len(queue); head++ {
		c := b.At(queue[head])
		for _, d := range geom.Adjacent6 {
			n := c.Add(d)
			if !b.Contains(n) {
				continue
			}
			ni := b.Index(n)
			if !o.solid[ni] || o.connected[ni] {
				continue
			}
			o.connected[ni] = true
			queue = append(queue, ni)
		}
	}
	o.queue = queue[:0]
}

func (o *Oracle) IsSolid(c geom.Vec3i) bool {
	return o.bounds.Contains(c) && o.solid[o.bounds.Index(c)]
}

func (o *Oracle) IsSolidConnectedToBorder(c geom.Vec3i) bool {
	return o.bounds.Contains(c) && o.connected[o.bounds.Index(c)]
}

// Disconnected lists every solid cell that is not connected, in index order.
func (o *Oracle) Disconnected() []geom.Vec3i {
	var out []geom.Vec3i
	for i := range o.solid {
		if o.solid[i] && !o.connected[i] {
			out = append(out, o.bounds.At(i))
		}
	}
	return out
}

// NotifySolidToPassable records that c stopped being solid and returns every
// solid cell whose tag flipped from connected to disconnected as a result.
// An already-passable cell yields an empty report.
func (o *Oracle) NotifySolidToPassable(c geom.Vec3i) ([]geom.Vec3i, error) {
	if !o.bounds.Contains(c) {
		return nil, fmt.Errorf("%w: %v", terrain.ErrOutOfBounds, c)
	}
	ci := o.bounds.Index(c)
	if !o.solid[ci] {
		return nil, nil
	}
	wasConnected := o.connected[ci]
	o.solid[ci] = false
	o.connected[ci] = false
	if !wasConnected {
		// Nothing reached the border through c.
		return nil, nil
	}

	var lost []geom.Vec3i
	stillConnected := o.nextEpoch()
	for _, d := range geom.Adjacent6 {
		n := c.Add(d)
		if !o.bounds.Contains(n) {
			continue
		}
		ni := o.bounds.Index(n)
		if !o.connected[ni] || o.mark[ni] == stillConnected {
			continue
		}
		component, anchored := o.component(ni, stillConnected)
		if anchored {
			for _, i := range component {
				o.mark[i] = stillConnected
			}
			continue
		}
		for _, i := range component {
			if o.connected[i] {
				o.connected[i] = false
				lost = append(lost, o.bounds.At(i))
			}
		}
	}
	return lost, nil
}

// component collects the solid component of start. It stops early and
// reports anchored=true once a border cell or a cell already known to be
// connected (marked with known) is reached.
func (o *Oracle) component(start int, known uint32) (cells []int, anchored bool) {
	visit := o.nextEpoch()
	b := o.bounds
	queue := o.queue[:0]
	queue = append(queue, start)
	o.mark[start] = visit
	defer func() { o.queue = queue[:0] }()

	for head := 0; head < len(queue); head++ {
		i := queue[head]
		c := b.At(i)
		if b.OnBoundary(c) {
			return queue, true
		}
		for _, d := range geom.Adjacent6 {
			n := c.Add(d)
			if !b.Contains(n) {
				continue
			}
			ni := b.Index(n)
			if !o.solid[ni] {
				continue
			}
			if o.mark[ni] == known {
				return queue, true
			}
			if o.mark[ni] == visit {
				continue
			}
			o.mark[ni] = visit
			queue = append(queue, ni)
		}
	}
	out := make([]int, len(queue))
	copy(out, queue)
	return out, false
}

// NotifyPassableToSolid records that c became solid. Connectivity can only
// grow: if c touches the border or a connected cell, every solid cell newly
// reachable through it is tagged and returned (c included).
func (o *Oracle) NotifyPassableToSolid(c geom.Vec3i) ([]geom.Vec3i, error) {
	if !o.bounds.Contains(c) {
		return nil, fmt.Errorf("%w: %v", terrain.ErrOutOfBounds, c)
	}
	b := o.bounds
	ci := b.Index(c)
	if o.solid[ci] {
		return nil, nil
	}
	o.solid[ci] = true

	anchored := b.OnBoundary(c)
	if !anchored {
		for _, d := range geom.Adjacent6 {
			n := c.Add(d)
			if b.Contains(n) && o.connected[b.Index(n)] {
				anchored = true
				break
			}
		}
	}
	if !anchored {
		return nil, nil
	}

	gained := []geom.Vec3i{c}
	o.connected[ci] = true
	queue := append(o.queue[:0], ci)
	for head := 0; head < len(queue); head++ {
		p := b.At(queue[head])
		for _, d := range geom.Adjacent6 {
			n := p.Add(d)
			if !b.Contains(n) {
				continue
			}
			ni := b.Index(n)
			if !o.solid[ni] || o.connected[ni] {
				continue
			}
			o.connected[ni] = true
			gained = append(gained, n)
			queue = append(queue, ni)
		}
	}
	o.queue = queue[:0]
	return gained, nil
}

func (o *Oracle) nextEpoch() uint32 {
	o.epoch++
	if o.epoch == 0 {
		for i := range o.mark {
			o.mark[i] = 0
		}
		o.epoch = 1
	}
	return o.epoch
}
