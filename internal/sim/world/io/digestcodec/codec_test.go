package digestcodec

import (
	"bytes"
	"math"
	"testing"
)

func TestWriteStringIsLengthPrefixed(t *testing.T) {
	var a, b bytes.Buffer
	var tmp [8]byte
	WriteString(&a, &tmp, "ab")
	WriteString(&a, &tmp, "c")
	WriteString(&b, &tmp, "a")
	WriteString(&b, &tmp, "bc")
	if bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatalf("expected distinct encodings")
	}
}

func TestWriteF64FoldsNegativeZero(t *testing.T) {
	var a, b bytes.Buffer
	var tmp [8]byte
	WriteF64(&a, &tmp, 0)
	WriteF64(&b, &tmp, math.Copysign(0, -1))
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatalf("-0 and +0 digest differently")
	}
}

func TestWriteVec3iWidth(t *testing.T) {
	var buf bytes.Buffer
	var tmp [8]byte
	WriteVec3i(&buf, &tmp, [3]int{1, -2, 3})
	if buf.Len() != 24 {
		t.Fatalf("len=%d want 24", buf.Len())
	}
	if BoolByte(true) != 1 || BoolByte(false) != 0 {
		t.Fatalf("BoolByte")
	}
}
