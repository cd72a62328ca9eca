package world

import (
	"encoding/json"
	"strings"

	"hillbillies.sim/internal/observerproto"
	"hillbillies.sim/internal/protocol"
	"hillbillies.sim/internal/sim/encoding"
	"hillbillies.sim/internal/sim/world/activity"
)

// ObserverJoinRequest registers a read-only observer session that receives:
// - one TICK per world tick (tickOut)
// - the full terrain grid whenever it changed (dataOut)
//
// All observer state is maintained by the world loop goroutine.
type ObserverJoinRequest struct {
	SessionID string
	TickOut   chan []byte
	DataOut   chan []byte

	IncludeTerrain bool
	FocusUnitID    string
}

// ObserverSubscribeRequest updates an existing observer session.
type ObserverSubscribeRequest struct {
	SessionID      string
	IncludeTerrain bool
	FocusUnitID    string
}

type observerClient struct {
	id      string
	tickOut chan []byte
	dataOut chan []byte

	includeTerrain bool
	focusUnitID    string

	// terrainVersion is the grid version last queued to this session.
	terrainVersion uint64
	// needTerrain forces a resend, e.g. after a dropped TERRAIN message.
	needTerrain bool
}

func (w *World) ObserverJoin() chan<- ObserverJoinRequest           { return w.observerJoin }
func (w *World) ObserverSubscribe() chan<- ObserverSubscribeRequest { return w.observerSub }
func (w *World) ObserverLeave() chan<- string                       { return w.observerLeave }

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if req.SessionID == "" || req.TickOut == nil || req.DataOut == nil {
		return
	}
	if old := w.observers[req.SessionID]; old != nil {
		close(old.tickOut)
		close(old.dataOut)
	}
	w.observers[req.SessionID] = &observerClient{
		id:             req.SessionID,
		tickOut:        req.TickOut,
		dataOut:        req.DataOut,
		includeTerrain: req.IncludeTerrain,
		focusUnitID:    strings.TrimSpace(req.FocusUnitID),
		needTerrain:    true,
	}
}

func (w *World) handleObserverSubscribe(req ObserverSubscribeRequest) {
	c := w.observers[req.SessionID]
	if c == nil {
		return
	}
	if req.IncludeTerrain && !c.includeTerrain {
		c.needTerrain = true
	}
	c.includeTerrain = req.IncludeTerrain
	c.focusUnitID = strings.TrimSpace(req.FocusUnitID)
}

func (w *World) handleObserverLeave(sessionID string) {
	c := w.observers[sessionID]
	if c == nil {
		return
	}
	delete(w.observers, sessionID)
	close(c.tickOut)
	close(c.dataOut)
}

func (w *World) closeObservers() {
	for id := range w.observers {
		w.handleObserverLeave(id)
	}
}

// stepObservers sends this tick's state to every session. The terrain
// payload is built at most once per tick.
func (w *World) stepObservers(nowTick uint64) {
	if len(w.observers) == 0 {
		return
	}
	snap := w.Snapshot()
	snap.Tick = nowTick

	var terrainMsg []byte
	for _, c := range w.observers {
		msg := buildTickMsg(snap, c.focusUnitID)
		msg.Collapsed = toArrays(w.tickCollapsed)
		msg.Audits = observerAudits(w.tickAudits)
		if b, err := json.Marshal(msg); err == nil {
			sendLatest(c.tickOut, b)
		}

		if !c.includeTerrain || (!c.needTerrain && c.terrainVersion == w.terrainVersion) {
			continue
		}
		if terrainMsg == nil {
			b, err := json.Marshal(w.terrainMsg(nowTick))
			if err != nil {
				w.log.Printf("observer terrain: %v", err)
				return
			}
			terrainMsg = b
		}
		if sendLatest(c.dataOut, terrainMsg) {
			c.terrainVersion = w.terrainVersion
			c.needTerrain = false
		} else {
			c.needTerrain = true
		}
	}
}

func (w *World) terrainMsg(nowTick uint64) observerproto.TerrainMsg {
	b := w.grid.Bounds()
	return observerproto.TerrainMsg{
		Type:            protocol.TypeTerrain,
		ProtocolVersion: observerproto.Version,
		Tick:            nowTick,
		Dims:            [3]int{b.NX, b.NY, b.NZ},
		Encoding:        observerproto.TerrainEncoding,
		Data:            encoding.EncodeRLE(w.grid.Flat()),
	}
}

func buildTickMsg(s Snapshot, focusUnitID string) observerproto.TickMsg {
	msg := observerproto.TickMsg{
		Type:            protocol.TypeTick,
		ProtocolVersion: observerproto.Version,
		Tick:            s.Tick,
		Time:            s.Time,
		Units:           make([]observerproto.UnitState, 0, len(s.Units)),
	}
	for _, u := range s.Units {
		st := observerproto.UnitState{
			ID:        u.ID,
			Name:      u.Name,
			Faction:   u.Faction,
			Pos:       u.Pos.ToArray(),
			Cube:      u.Cube.ToArray(),
			Strength:  u.Strength,
			Agility:   u.Agility,
			Toughness: u.Toughness,
			Weight:    u.Weight,
			XP:        u.XP,
			HP:        u.HP,
			Stamina:   u.Stamina,
			Carrying:  u.Carrying,
		}
		if focusUnitID == "" || focusUnitID == u.ID {
			st.Activity = activityState(u)
		}
		msg.Units = append(msg.Units, st)
	}
	for _, m := range s.Materials {
		msg.Materials = append(msg.Materials, observerproto.MaterialState{
			ID:     m.ID,
			Kind:   m.Kind.String(),
			Weight: m.Weight,
			Pos:    m.Pos.ToArray(),
			Owner:  m.Owner,
		})
	}
	for _, p := range s.Pending {
		msg.Pending = append(msg.Pending, observerproto.PendingCube{Pos: p.Pos.ToArray(), Elapsed: p.Elapsed})
	}
	return msg
}

func activityState(u UnitSnapshot) *observerproto.ActivityState {
	a := u.Activity
	st := &observerproto.ActivityState{
		Kind:      a.Kind.String(),
		TargetID:  a.Unit,
		Progress:  a.Progress,
		Default:   a.Default,
		Depth:     u.StackDepth,
		Succeeded: u.LastSucceeded,
	}
	switch a.Kind {
	case activity.Move, activity.Work:
		st.Target = a.Target.ToArray()
	case activity.Idle, activity.Attack, activity.Rest, activity.Fall:
	}
	return st
}

func observerAudits(in []AuditEntry) []observerproto.AuditEntry {
	if len(in) == 0 {
		return nil
	}
	out := make([]observerproto.AuditEntry, len(in))
	for i, e := range in {
		out[i] = observerproto.AuditEntry{
			Tick:   e.Tick,
			Actor:  e.Actor,
			Action: e.Action,
			Pos:    e.Pos,
			From:   e.From,
			To:     e.To,
			Reason: e.Reason,
		}
	}
	return out
}
