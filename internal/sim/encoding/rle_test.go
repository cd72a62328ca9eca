package encoding

import (
	"errors"
	"testing"
)

func TestRLE_RoundTrip(t *testing.T) {
	// A 4x4x4 grid: rock floor, air above, one tree and one workshop.
	in := make([]uint16, 64)
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			in[(x*4+y)*4] = 1
		}
	}
	in[1] = 2
	in[63] = 3

	enc := EncodeRLE(in)
	out, err := DecodeRLE(enc, len(in))
	if err != nil {
		t.Fatalf("DecodeRLE: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len mismatch: got %d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("mismatch at %d: got %d want %d", i, out[i], in[i])
		}
	}
}

func TestRuns(t *testing.T) {
	runs := Runs([]uint16{0, 0, 0, 1, 1, 0})
	want := []Run{{0, 3}, {1, 2}, {0, 1}}
	if len(runs) != len(want) {
		t.Fatalf("runs=%v want %v", runs, want)
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Fatalf("runs=%v want %v", runs, want)
		}
	}
	if Runs(nil) != nil {
		t.Fatalf("expected nil runs for empty input")
	}
}

func TestDecodeRLE_RejectsWrongLength(t *testing.T) {
	enc := EncodeRLE([]uint16{1, 1, 1, 1})
	if _, err := DecodeRLE(enc, 3); !errors.Is(err, ErrBadRLE) {
		t.Fatalf("expected ErrBadRLE for overlong payload, got %v", err)
	}
	if _, err := DecodeRLE(enc, 5); !errors.Is(err, ErrBadRLE) {
		t.Fatalf("expected ErrBadRLE for short payload, got %v", err)
	}
	if _, err := DecodeRLE("!!", 0); !errors.Is(err, ErrBadRLE) {
		t.Fatalf("expected ErrBadRLE for bad base64, got %v", err)
	}
	out, err := DecodeRLE(enc, 0)
	if err != nil || len(out) != 4 {
		t.Fatalf("unchecked decode: %v %v", out, err)
	}
}
