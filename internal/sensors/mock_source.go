// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/pitch_computer/internal/imu"
)

type mockSource struct {
	start time.Time
}

// NewMockSource creates a mock IMU source that simulates a device rocking
// slowly about the pitch axis, with a small constant gyro bias, so the whole
// pipeline can run on hosts without sensor hardware.
func NewMockSource() Source {
	return &mockSource{start: time.Now()}
}

func (m *mockSource) ReadRaw() (imu.RawSample, error) {
	elapsed := time.Since(m.start).Seconds()

	// 8° rocking at 0.4 Hz; gravity split across Y/Z accordingly.
	pitchRad := 8.0 * math.Pi / 180.0 * math.Sin(2*math.Pi*0.4*elapsed)
	rateDps := 8.0 * 2 * math.Pi * 0.4 * math.Cos(2*math.Pi*0.4*elapsed)

	const gyroBiasDps = 1.5

	return imu.RawSample{
		Ay:   int16(math.Sin(pitchRad) / imu.AccelScale),
		Az:   int16(math.Cos(pitchRad) / imu.AccelScale),
		Temp: 6000, // roughly room temperature in raw counts
		Gx:   int16((rateDps + gyroBiasDps) / imu.GyroScale),
	}, nil
}
