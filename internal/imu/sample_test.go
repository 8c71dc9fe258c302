package imu

import (
	"math"
	"testing"
)

func TestPitchAccel(t *testing.T) {
	cases := []struct {
		ay, az int16
		want   float64
	}{
		{0, 16384, 0},    // level
		{16384, 0, 90},   // nose up
		{-16384, 0, -90}, // nose down
		{16384, 16384, 45},
	}
	for _, c := range cases {
		s := RawSample{Ay: c.ay, Az: c.az}
		if got := s.PitchAccel(); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("PitchAccel(ay=%d, az=%d) = %v, want %v", c.ay, c.az, got, c.want)
		}
	}
}

func TestPitchRate(t *testing.T) {
	// Full-scale reading maps to the configured ±250 °/s range.
	s := RawSample{Gx: 32767}
	want := 32767 * 250.0 / 32768.0
	if got := s.PitchRate(); math.Abs(got-want) > 1e-9 {
		t.Errorf("PitchRate(32767) = %v, want %v", got, want)
	}

	if got := (RawSample{Gx: 0}).PitchRate(); got != 0 {
		t.Errorf("PitchRate(0) = %v, want 0", got)
	}
}
