// Package digestcodec writes fixed-width little-endian values into a hash so
// that equal states always produce equal digests.
package digestcodec

import (
	"encoding/binary"
	"math"
)

type Writer interface {
	Write(p []byte) (n int, err error)
}

func BoolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func WriteU64(w Writer, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.Write(tmp[:])
}

func WriteI64(w Writer, tmp *[8]byte, v int64) { WriteU64(w, tmp, uint64(v)) }

// WriteF64 writes the IEEE-754 bits; -0 and +0 are folded together.
func WriteF64(w Writer, tmp *[8]byte, v float64) {
	if v == 0 {
		v = 0
	}
	WriteU64(w, tmp, math.Float64bits(v))
}

// WriteString is length-prefixed so adjacent strings cannot alias.
func WriteString(w Writer, tmp *[8]byte, s string) {
	WriteU64(w, tmp, uint64(len(s)))
	w.Write([]byte(s))
}

func WriteBool(w Writer, v bool) { w.Write([]byte{BoolByte(v)}) }

func WriteVec3i(w Writer, tmp *[8]byte, v [3]int) {
	for _, c := range v {
		WriteI64(w, tmp, int64(c))
	}
}
