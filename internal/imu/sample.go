package imu

import "math"

// Full-scale sensitivities for the configured ranges (±2 g, ±250 °/s).
const (
	AccelScale = 2.0 / 32768.0   // g per LSB
	GyroScale  = 250.0 / 32768.0 // °/s per LSB
)

// RawSample represents one raw IMU read: the two accelerometer axes used for
// pitch geometry, the die temperature (carried but unused), and the pitch-rate
// gyro axis.
type RawSample struct {
	Ay   int16 `json:"ay"` // accel lateral
	Az   int16 `json:"az"` // accel vertical
	Temp int16 `json:"temp"`
	Gx   int16 `json:"gx"` // gyro pitch rate
}

// PitchAccel returns the pitch angle in degrees implied by the accelerometer
// geometry alone: atan2(ay, az) with both axes on the same scale.
func (s RawSample) PitchAccel() float64 {
	return math.Atan2(float64(s.Ay)*AccelScale, float64(s.Az)*AccelScale) * 180.0 / math.Pi
}

// PitchRate returns the gyro pitch rate in °/s.
func (s RawSample) PitchRate() float64 {
	return float64(s.Gx) * GyroScale
}
