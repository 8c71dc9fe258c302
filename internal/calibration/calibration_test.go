package calibration

import (
	"errors"
	"math"
	"testing"

	"github.com/relabs-tech/pitch_computer/internal/imu"
)

type constantSource struct {
	sample imu.RawSample
	reads  int
}

func (s *constantSource) ReadRaw() (imu.RawSample, error) {
	s.reads++
	return s.sample, nil
}

type failingSource struct {
	good   imu.RawSample
	failAt int
	reads  int
}

func (s *failingSource) ReadRaw() (imu.RawSample, error) {
	s.reads++
	if s.reads >= s.failAt {
		return imu.RawSample{}, errors.New("bus timeout")
	}
	return s.good, nil
}

type recordingIndicator struct {
	states []bool
}

func (r *recordingIndicator) Set(on bool) error {
	r.states = append(r.states, on)
	return nil
}

func TestIdenticalSamplesAverageExactly(t *testing.T) {
	src := &constantSource{sample: imu.RawSample{Ay: -3000, Az: 15000, Gx: 120}}

	res, err := Run(src, NopIndicator{}, 16)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if src.reads != 16 {
		t.Errorf("issued %d reads, want 16", src.reads)
	}

	// Integer averaging of identical values is exact, so the derived values
	// must match the single-sample formulas exactly.
	wantBias := 120 * imu.GyroScale
	if res.GyroBias != wantBias {
		t.Errorf("GyroBias = %v, want %v", res.GyroBias, wantBias)
	}

	wantAngle := math.Atan2(-3000*imu.AccelScale, 15000*imu.AccelScale) * 180.0 / math.Pi
	if res.Angle != wantAngle {
		t.Errorf("Angle = %v, want %v", res.Angle, wantAngle)
	}
}

func TestIndicatorSignalsBusy(t *testing.T) {
	src := &constantSource{sample: imu.RawSample{Az: 16384}}
	ind := &recordingIndicator{}

	if _, err := Run(src, ind, 4); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []bool{true, false}
	if len(ind.states) != len(want) {
		t.Fatalf("indicator transitions = %v, want %v", ind.states, want)
	}
	for i := range want {
		if ind.states[i] != want[i] {
			t.Fatalf("indicator transitions = %v, want %v", ind.states, want)
		}
	}
}

func TestReadFailureIsFatal(t *testing.T) {
	src := &failingSource{good: imu.RawSample{Az: 16384}, failAt: 3}
	ind := &recordingIndicator{}

	if _, err := Run(src, ind, 8); err == nil {
		t.Fatal("Run succeeded despite sensor failure")
	}

	// The busy signal still has to be cleared on the error path.
	if len(ind.states) == 0 || ind.states[len(ind.states)-1] != false {
		t.Errorf("indicator left in state %v after failure", ind.states)
	}
}

func TestRejectsNonPositiveSampleCount(t *testing.T) {
	src := &constantSource{sample: imu.RawSample{Az: 16384}}
	if _, err := Run(src, NopIndicator{}, 0); err == nil {
		t.Fatal("Run accepted sampleCount 0")
	}
}
