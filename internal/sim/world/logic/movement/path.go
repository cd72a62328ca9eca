package movement

import "hillbillies.sim/internal/sim/geom"

// NextStep finds a shortest route from start to target over cells accepted by
// canStand and returns its first step. Neighbours are expanded in the fixed
// geom.Neighbours26 order so ties always resolve the same way.
//
// A start equal to target returns (start, true). maxNodes bounds the search;
// zero or less means unbounded.
func NextStep(start, target geom.Vec3i, maxNodes int, canStand func(geom.Vec3i) bool) (geom.Vec3i, bool) {
	if start == target {
		return start, true
	}
	if !canStand(target) {
		return geom.Vec3i{}, false
	}

	type qItem struct {
		p     geom.Vec3i
		first geom.Vec3i
	}

	visited := make(map[geom.Vec3i]bool, 256)
	visited[start] = true
	queue := make([]qItem, 0, 256)
	for _, d := range geom.Neighbours26 {
		np := start.Add(d)
		if !canStand(np) {
			continue
		}
		if np == target {
			return np, true
		}
		visited[np] = true
		queue = append(queue, qItem{p: np, first: np})
	}

	for head := 0; head < len(queue); head++ {
		if maxNodes > 0 && head >= maxNodes {
			break
		}
		it := queue[head]
		for _, d := range geom.Neighbours26 {
			np := it.p.Add(d)
			if visited[np] {
				continue
			}
			if !canStand(np) {
				continue
			}
			if np == target {
				return it.first, true
			}
			visited[np] = true
			queue = append(queue, qItem{p: np, first: it.first})
		}
	}
	return geom.Vec3i{}, false
}

// Reachable reports whether target can be reached from start.
func Reachable(start, target geom.Vec3i, maxNodes int, canStand func(geom.Vec3i) bool) bool {
	_, ok := NextStep(start, target, maxNodes, canStand)
	return ok
}
