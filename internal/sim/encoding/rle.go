package encoding

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrBadRLE = errors.New("bad rle payload")

// Run is one (terrain id, length) pair of a run-length encoded grid.
type Run struct {
	ID  uint16
	Len uint64
}

// Runs collapses a flattened terrain grid into runs of equal ids.
func Runs(ids []uint16) []Run {
	var out []Run
	for _, id := range ids {
		if n := len(out); n > 0 && out[n-1].ID == id {
			out[n-1].Len++
			continue
		}
		out = append(out, Run{ID: id, Len: 1})
	}
	return out
}

// EncodeRLE writes ids as base64 of uvarint (id, run_len) pairs.
func EncodeRLE(ids []uint16) string {
	runs := Runs(ids)
	buf := make([]byte, 0, len(runs)*4)
	for _, r := range runs {
		buf = binary.AppendUvarint(buf, uint64(r.ID))
		buf = binary.AppendUvarint(buf, r.Len)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeRLE reverses EncodeRLE. When want is positive the decoded length must
// match it exactly; runs past it are rejected before anything is allocated.
func DecodeRLE(b64 string, want int) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRLE, err)
	}
	var out []uint16
	if want > 0 {
		out = make([]uint16, 0, want)
	}
	for i := 0; i < len(raw); {
		id, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("%w: id varint at %d", ErrBadRLE, i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("%w: run varint at %d", ErrBadRLE, i)
		}
		i += n
		if id > 0xFFFF {
			return nil, fmt.Errorf("%w: terrain id %d", ErrBadRLE, id)
		}
		if run == 0 {
			return nil, fmt.Errorf("%w: empty run at %d", ErrBadRLE, i)
		}
		if want > 0 && uint64(len(out))+run > uint64(want) {
			return nil, fmt.Errorf("%w: %d cells past %d", ErrBadRLE, uint64(len(out))+run, want)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint16(id))
		}
	}
	if want > 0 && len(out) != want {
		return nil, fmt.Errorf("%w: got %d cells want %d", ErrBadRLE, len(out), want)
	}
	return out, nil
}
