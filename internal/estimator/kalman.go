// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package estimator fuses the accelerometer-derived pitch angle with the gyro
// pitch rate using a two-state Kalman filter. The states are the pitch angle
// and the gyro bias; the angle integrates rate-minus-bias, the bias is a
// random walk.
package estimator

// Kalman holds the filter memory. It is created once from the calibration
// baseline and mutated in place on every Update; the covariance is never
// externally reset.
type Kalman struct {
	angle float64 // degrees
	bias  float64 // °/s

	dt       float64
	qAngle   float64
	qBias    float64
	rMeasure float64

	p00, p01, p10, p11 float64
}

// NewKalman creates a filter running at fixed interval dt, seeded with the
// calibration angle and gyro bias. The error covariance starts at zero: the
// seed is taken at face value and uncertainty grows from the process noise.
func NewKalman(dt, qAngle, qBias, rMeasure, initialAngle, initialBias float64) *Kalman {
	return &Kalman{
		angle:    initialAngle,
		bias:     initialBias,
		dt:       dt,
		qAngle:   qAngle,
		qBias:    qBias,
		rMeasure: rMeasure,
	}
}

// Update runs one predict/correct cycle. measuredAngle is the accelerometer
// pitch in degrees, measuredRate the gyro pitch rate in °/s. Returns the
// corrected angle estimate in degrees.
func (k *Kalman) Update(measuredAngle, measuredRate float64) float64 {
	// A-priori state: integrate the bias-corrected rate.
	k.angle += (measuredRate - k.bias) * k.dt

	// A-priori covariance.
	k.p00 += k.dt * (k.dt*k.p11 - k.p01 - k.p10 + k.qAngle)
	k.p01 -= k.dt * k.p11
	k.p10 -= k.dt * k.p11
	k.p11 += k.dt * k.qBias

	// Innovation and its covariance.
	y := measuredAngle - k.angle
	s := k.p00 + k.rMeasure

	// Kalman gain.
	k0 := k.p00 / s
	k1 := k.p10 / s

	// A-posteriori state.
	k.angle += k0 * y
	k.bias += k1 * y

	// A-posteriori covariance, using the pre-correction P00/P01.
	p00 := k.p00
	p01 := k.p01
	k.p00 -= k0 * p00
	k.p01 -= k0 * p01
	k.p10 -= k1 * p00
	k.p11 -= k1 * p01

	return k.angle
}

// Angle returns the current pitch estimate in degrees.
func (k *Kalman) Angle() float64 { return k.angle }

// Bias returns the current gyro bias estimate in °/s.
func (k *Kalman) Bias() float64 { return k.bias }

// Covariance returns the 2x2 error covariance entries in row-major order.
func (k *Kalman) Covariance() (p00, p01, p10, p11 float64) {
	return k.p00, k.p01, k.p10, k.p11
}
