// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/relabs-tech/pitch_computer/internal/imu"
	"github.com/relabs-tech/pitch_computer/internal/sensors"
)

// interReadDelay paces the sensor queries so consecutive reads don't outrun
// the IMU's internal update rate.
const interReadDelay = time.Millisecond

// Indicator is a busy signal shown to the operator while calibration runs,
// typically an LED.
type Indicator interface {
	Set(on bool) error
}

// NopIndicator is used when no status output is wired up.
type NopIndicator struct{}

func (NopIndicator) Set(bool) error { return nil }

// Result is the startup baseline: the gyro's standing offset and the pitch
// angle the device was resting at. It is consumed once to seed the estimator.
type Result struct {
	GyroBias float64 // °/s
	Angle    float64 // degrees
}

// Run issues sampleCount sequential reads from the source, averages them and
// derives the initial gyro bias and pitch angle. The device is assumed to be
// stationary and near-level for the duration; there is no runtime check that
// the accelerometer magnitude is a plausible 1 g, so calibrating mid-motion
// silently yields a wrong baseline — the computed values are logged so that
// is at least visible.
//
// Any read error aborts calibration; there is no baseline to fall back to.
func Run(source sensors.Source, indicator Indicator, sampleCount int) (Result, error) {
	if sampleCount <= 0 {
		return Result{}, fmt.Errorf("calibration: sample count must be positive, got %d", sampleCount)
	}

	if err := indicator.Set(true); err != nil {
		log.Printf("calibration: indicator on: %v", err)
	}
	defer func() {
		if err := indicator.Set(false); err != nil {
			log.Printf("calibration: indicator off: %v", err)
		}
	}()

	log.Printf("calibration: averaging %d samples, keep the device still and level", sampleCount)

	// Wide accumulators: sampleCount * 32768 stays far from overflow.
	var sumAy, sumAz, sumGx int64
	for i := 0; i < sampleCount; i++ {
		s, err := source.ReadRaw()
		if err != nil {
			return Result{}, fmt.Errorf("calibration: sample %d/%d: %w", i+1, sampleCount, err)
		}
		sumAy += int64(s.Ay)
		sumAz += int64(s.Az)
		sumGx += int64(s.Gx)
		time.Sleep(interReadDelay)
	}

	// Integer-truncating averages, then unit conversion.
	ayAvg := sumAy / int64(sampleCount)
	azAvg := sumAz / int64(sampleCount)
	gxAvg := sumGx / int64(sampleCount)

	res := Result{
		GyroBias: float64(gxAvg) * imu.GyroScale,
		Angle:    math.Atan2(float64(ayAvg)*imu.AccelScale, float64(azAvg)*imu.AccelScale) * 180.0 / math.Pi,
	}

	log.Printf("calibration: gyro bias %.4f °/s, initial angle %.2f°", res.GyroBias, res.Angle)
	return res, nil
}
