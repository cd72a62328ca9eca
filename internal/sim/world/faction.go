package world

import "sort"

// Faction groups units; units of the same faction never attack each other.
type Faction struct {
	id      int
	members map[string]*Unit
}

func (f *Faction) ID() int   { return f.id }
func (f *Faction) Size() int { return len(f.members) }

// Members returns member ids in ascending unit order.
func (f *Faction) Members() []string {
	us := make([]*Unit, 0, len(f.members))
	for _, u := range f.members {
		us = append(us, u)
	}
	sort.Slice(us, func(i, j int) bool { return us[i].num < us[j].num })
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = u.id
	}
	return out
}

// assignFaction puts u in a new faction while the cap allows, otherwise in
// the least populated one (lowest id on ties).
func (w *World) assignFaction(u *Unit) {
	var f *Faction
	if len(w.factions) < w.cfg.MaxFactions {
		f = &Faction{id: len(w.factions) + 1, members: map[string]*Unit{}}
		w.factions = append(w.factions, f)
	} else {
		for _, cand := range w.factions {
			if f == nil || cand.Size() < f.Size() {
				f = cand
			}
		}
	}
	f.members[u.id] = u
	u.faction = f
}

func (w *World) Factions() []*Faction {
	return append([]*Faction(nil), w.factions...)
}
