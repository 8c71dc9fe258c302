package telemetry

import (
	"bytes"
	"errors"
	"testing"
)

func roundTrip(t *testing.T, payload []byte) {
	t.Helper()

	dst := make([]byte, StuffedSizeMax(len(payload)))
	n, err := Stuff(dst, payload)
	if err != nil {
		t.Fatalf("Stuff(%v): %v", payload, err)
	}

	for i, b := range dst[:n] {
		if b == 0 {
			t.Fatalf("Stuff(%v): zero byte at offset %d in %v", payload, i, dst[:n])
		}
	}

	got, err := Unstuff(dst[:n])
	if err != nil {
		t.Fatalf("Unstuff(Stuff(%v)): %v", payload, err)
	}
	if !bytes.Equal(got, payload) && !(len(got) == 0 && len(payload) == 0) {
		t.Fatalf("round trip of %v gave %v", payload, got)
	}
}

func TestStuffRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x00},
		{0x00, 0x00, 0x00},
		{0x11},
		{0x11, 0x22, 0x33},
		{0x11, 0x00, 0x22},
		{0x00, 0x11, 0x00},
	}

	// Length boundaries around the 254-byte run limit.
	for _, n := range []int{253, 254, 255, 300, 600} {
		long := make([]byte, n)
		for i := range long {
			long[i] = byte(i%255) + 1
		}
		cases = append(cases, long)

		withZeros := make([]byte, n)
		for i := range withZeros {
			withZeros[i] = byte(i % 7) // sprinkles zeros throughout
		}
		cases = append(cases, withZeros)
	}

	for _, payload := range cases {
		roundTrip(t, payload)
	}
}

func TestStuffRejectsSmallBuffer(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	dst := make([]byte, len(payload)) // one short of worst case
	if _, err := Stuff(dst, payload); !errors.Is(err, ErrBufferTooSmall) {
		t.Fatalf("Stuff into short buffer: err = %v, want ErrBufferTooSmall", err)
	}
}

func TestUnstuffRejectsMalformedInput(t *testing.T) {
	cases := [][]byte{
		{0x00},             // delimiter inside a block
		{0x05, 0x11},       // run longer than input
		{0x03, 0x11, 0x00}, // embedded zero
	}
	for _, c := range cases {
		if _, err := Unstuff(c); err == nil {
			t.Errorf("Unstuff(%v) succeeded, want error", c)
		}
	}
}
