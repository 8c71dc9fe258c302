package telemetry

import "testing"

func TestChecksumKnownVectors(t *testing.T) {
	// The standard CRC-16/ARC check value.
	if got := Checksum([]byte("123456789")); got != 0xBB3D {
		t.Errorf("Checksum(\"123456789\") = 0x%04X, want 0xBB3D", got)
	}
	if got := Checksum(nil); got != 0 {
		t.Errorf("Checksum(nil) = 0x%04X, want 0", got)
	}
	if got := Checksum([]byte{0x00}); got != 0 {
		t.Errorf("Checksum({0x00}) = 0x%04X, want 0", got)
	}
}

func TestChecksumDetectsSingleByteChange(t *testing.T) {
	data := []byte{0x10, 0x20, 0x30, 0x40, 0x55, 0xAA, 0x00, 0xFF, 0x01, 0x02}
	orig := Checksum(data)

	for i := range data {
		mutated := make([]byte, len(data))
		copy(mutated, data)
		mutated[i] ^= 0x5A
		if Checksum(mutated) == orig {
			t.Errorf("byte %d: single-byte change not detected", i)
		}
	}
}
