package world

import (
	"crypto/sha256"
	"encoding/hex"

	"hillbillies.sim/internal/sim/world/io/digestcodec"
)

// StateDigest hashes everything that determines future ticks. Two worlds
// built from the same grid, seed and request sequence have equal digests.
func (w *World) StateDigest() string { return w.stateDigest() }

func (w *World) stateDigest() string {
	h := sha256.New()
	var tmp [8]byte

	w.digestHeader(h, &tmp)
	w.digestTerrain(h, &tmp)
	w.digestPending(h, &tmp)
	w.digestUnits(h, &tmp)
	w.digestMaterials(h, &tmp)

	return hex.EncodeToString(h.Sum(nil))
}

func (w *World) digestHeader(h digestcodec.Writer, tmp *[8]byte) {
	digestcodec.WriteString(h, tmp, w.cfg.ID)
	digestcodec.WriteU64(h, tmp, w.tick.Load())
	digestcodec.WriteF64(h, tmp, w.time)
	digestcodec.WriteI64(h, tmp, w.cfg.Seed)
	digestcodec.WriteU64(h, tmp, w.roller.Draws())
	digestcodec.WriteU64(h, tmp, w.nextUnitNum)
	digestcodec.WriteU64(h, tmp, w.nextMaterialNum)
}

func (w *World) digestTerrain(h digestcodec.Writer, tmp *[8]byte) {
	b := w.grid.Bounds()
	digestcodec.WriteVec3i(h, tmp, [3]int{b.NX, b.NY, b.NZ})
	flat := w.grid.Flat()
	buf := make([]byte, len(flat))
	for i, t := range flat {
		buf[i] = byte(t)
	}
	h.Write(buf)
}

func (w *World) digestPending(h digestcodec.Writer, tmp *[8]byte) {
	keys := w.pendingKeys()
	digestcodec.WriteU64(h, tmp, uint64(len(keys)))
	for _, c := range keys {
		digestcodec.WriteVec3i(h, tmp, c.ToArray())
		digestcodec.WriteF64(h, tmp, w.pending[c])
	}
}

func (w *World) digestUnits(h digestcodec.Writer, tmp *[8]byte) {
	digestcodec.WriteU64(h, tmp, uint64(len(w.unitOrder)))
	for _, u := range w.unitOrder {
		digestcodec.WriteString(h, tmp, u.id)
		for _, v := range u.pos.ToArray() {
			digestcodec.WriteF64(h, tmp, v)
		}
		for _, v := range []int{u.strength, u.agility, u.toughness, u.weight, u.xp, u.xpSpent, u.nextBoost} {
			digestcodec.WriteI64(h, tmp, int64(v))
		}
		digestcodec.WriteF64(h, tmp, u.hp)
		digestcodec.WriteF64(h, tmp, u.stamina)
		faction := 0
		if u.faction != nil {
			faction = u.faction.id
		}
		digestcodec.WriteI64(h, tmp, int64(faction))
		var carrying uint64
		if u.carrying != nil {
			carrying = u.carrying.id
		}
		digestcodec.WriteU64(h, tmp, carrying)

		records := u.stack.Records()
		digestcodec.WriteU64(h, tmp, uint64(len(records)))
		for _, a := range records {
			digestcodec.WriteString(h, tmp, a.Kind().String())
			digestcodec.WriteVec3i(h, tmp, a.Params().Target.ToArray())
			digestcodec.WriteString(h, tmp, a.Params().Unit)
			digestcodec.WriteF64(h, tmp, a.Progress())
			digestcodec.WriteBool(h, a.IsActive())
			digestcodec.WriteBool(h, a.IsDefault())
		}
	}
}

func (w *World) digestMaterials(h digestcodec.Writer, tmp *[8]byte) {
	ms := w.Materials()
	digestcodec.WriteU64(h, tmp, uint64(len(ms)))
	for _, m := range ms {
		digestcodec.WriteU64(h, tmp, m.id)
		digestcodec.WriteString(h, tmp, m.kind.String())
		digestcodec.WriteI64(h, tmp, int64(m.weight))
		digestcodec.WriteString(h, tmp, m.ownerName())
		for _, v := range m.Position().ToArray() {
			digestcodec.WriteF64(h, tmp, v)
		}
	}
}
