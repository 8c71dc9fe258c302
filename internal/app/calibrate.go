// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/relabs-tech/pitch_computer/internal/calibration"
	"github.com/relabs-tech/pitch_computer/internal/config"
	"github.com/relabs-tech/pitch_computer/internal/imu"
	"github.com/relabs-tech/pitch_computer/internal/sensors"
)

// Quality heuristics in raw counts. Above stillStdBad the device was clearly
// moving during capture and the report should not be trusted.
const (
	stillStdGood = 3.0
	stillStdBad  = 12.0

	// Accepted deviation of the accelerometer magnitude from 1 g.
	gravityTolerance = 0.05
)

// ChannelStats describes one raw channel over the capture window, in counts.
type ChannelStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// CalibrationReport is the JSON document written by the calibration tool.
type CalibrationReport struct {
	SchemaVersion int    `json:"schema_version"`
	CalibrationAt string `json:"calibration_at"`
	Samples       int    `json:"samples"`

	// Baseline handed to the estimator at producer startup.
	GyroBiasDps  float64 `json:"gyro_bias_dps"`
	RestingAngle float64 `json:"resting_angle_deg"`

	// Per-channel capture statistics.
	Ay ChannelStats `json:"ay"`
	Az ChannelStats `json:"az"`
	Gx ChannelStats `json:"gx"`

	// Accelerometer vector magnitude in g over the window; should be near 1
	// when the device is at rest.
	GravityMagnitude float64 `json:"gravity_magnitude_g"`

	// 0..100, derived from stillness of the capture.
	Confidence float64 `json:"confidence"`

	Warnings []string `json:"warnings,omitempty"`
}

// RunCalibrate measures the resting baseline the producer would start from
// and writes a JSON quality report to the current directory. Unlike the
// producer's startup pass, this tool also checks that the device was actually
// still and resting near 1 g during capture.
func RunCalibrate() error {
	cfg := config.Get()

	source, indicator, closeSource, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	baseline, err := calibration.Run(source, indicator, cfg.CalibrationSamples)
	if err != nil {
		return fmt.Errorf("calibration: %w", err)
	}

	report, err := buildReport(source, baseline, cfg.CalibrationSamples)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("pitch_calibration_%d.json", time.Now().Unix())
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	log.Printf("calibration: bias=%.4f °/s angle=%.3f° confidence=%.1f",
		report.GyroBiasDps, report.RestingAngle, report.Confidence)
	for _, w := range report.Warnings {
		log.Printf("WARNING: %s", w)
	}
	log.Printf("calibration: report written to %s", filename)
	return nil
}

// buildReport takes a second capture window to measure stillness. The
// baseline itself comes from the same code path the producer uses.
func buildReport(source sensors.Source, baseline calibration.Result, sampleCount int) (*CalibrationReport, error) {
	samples := make([]imu.RawSample, 0, sampleCount)
	for i := 0; i < sampleCount; i++ {
		s, err := source.ReadRaw()
		if err != nil {
			return nil, fmt.Errorf("capture window: %w", err)
		}
		samples = append(samples, s)
		time.Sleep(time.Millisecond)
	}

	ay := channelStats(samples, func(s imu.RawSample) float64 { return float64(s.Ay) })
	az := channelStats(samples, func(s imu.RawSample) float64 { return float64(s.Az) })
	gx := channelStats(samples, func(s imu.RawSample) float64 { return float64(s.Gx) })

	report := &CalibrationReport{
		SchemaVersion: 1,
		CalibrationAt: time.Now().Format(time.RFC3339),
		Samples:       sampleCount,
		GyroBiasDps:   baseline.GyroBias,
		RestingAngle:  baseline.Angle,
		Ay:            ay,
		Az:            az,
		Gx:            gx,
	}

	report.GravityMagnitude = math.Hypot(ay.Mean*imu.AccelScale, az.Mean*imu.AccelScale)
	if math.Abs(report.GravityMagnitude-1.0) > gravityTolerance {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"accelerometer magnitude %.3f g is not near 1 g; device not at rest or misconfigured range",
			report.GravityMagnitude))
	}

	worstStd := math.Max(gx.StdDev, math.Max(ay.StdDev, az.StdDev))
	switch {
	case worstStd <= stillStdGood:
		report.Confidence = 100
	case worstStd >= stillStdBad:
		report.Confidence = 0
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"channel noise %.1f counts indicates motion during capture", worstStd))
	default:
		report.Confidence = 100 * (stillStdBad - worstStd) / (stillStdBad - stillStdGood)
	}

	return report, nil
}

func channelStats(samples []imu.RawSample, pick func(imu.RawSample) float64) ChannelStats {
	var sum float64
	for _, s := range samples {
		sum += pick(s)
	}
	mean := sum / float64(len(samples))

	var variance float64
	for _, s := range samples {
		d := pick(s) - mean
		variance += d * d
	}
	variance /= float64(len(samples))

	return ChannelStats{Mean: mean, StdDev: math.Sqrt(variance)}
}

// openSource selects the mock or real IMU per config and, on real hardware,
// attaches the calibration LED. The returned closer is always safe to call.
func openSource(cfg *config.Config) (sensors.Source, calibration.Indicator, func() error, error) {
	if cfg.UseMockIMU {
		log.Println("using mock IMU source")
		return sensors.NewMockSource(), calibration.NopIndicator{}, func() error { return nil }, nil
	}

	src, err := sensors.NewMPU6500Source()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("IMU init: %w", err)
	}

	var indicator calibration.Indicator = calibration.NopIndicator{}
	if pin := gpioreg.ByName(cfg.LEDPin); pin != nil {
		indicator = ledIndicator{pin: pin}
	} else {
		log.Printf("WARNING: LED pin %q not found, running without calibration indicator", cfg.LEDPin)
	}
	return src, indicator, src.Close, nil
}
