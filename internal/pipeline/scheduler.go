// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

import (
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/pitch_computer/internal/estimator"
	"github.com/relabs-tech/pitch_computer/internal/imu"
	"github.com/relabs-tech/pitch_computer/internal/sensors"
	"github.com/relabs-tech/pitch_computer/internal/telemetry"
)

// Scheduler runs the fixed-frequency pipeline: on each tick it reads one
// sample, updates the estimator, encodes a frame and hands it to the
// transmitter, in that order, then halts once the sample budget is spent.
// All mutable state is touched only by the goroutine running Run; frames go
// out in strict tick order.
type Scheduler struct {
	source sensors.Source
	filter *estimator.Kalman
	tx     *Transmitter

	rateHz int
	budget int
}

// Stats summarizes one completed run.
type Stats struct {
	Samples      int
	SensorErrors int
	TxErrors     int
	FinalAngle   float64 // degrees
	Tx           TxStats
}

// NewScheduler assembles the pipeline around an already-calibrated filter.
func NewScheduler(source sensors.Source, filter *estimator.Kalman, tx *Transmitter, rateHz, budget int) *Scheduler {
	return &Scheduler{
		source: source,
		filter: filter,
		tx:     tx,
		rateHz: rateHz,
		budget: budget,
	}
}

// Run drives ticks until the budget is reached, then stops the ticker,
// drains the last in-flight transfer and returns. A sensor read failure
// after at least one good sample substitutes the last-known-good sample and
// is counted; a failure before any good sample exists is fatal, since there
// is nothing to substitute.
func (s *Scheduler) Run() (Stats, error) {
	period := time.Second / time.Duration(s.rateHz)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var stats Stats
	var lastGood imu.RawSample
	haveGood := false

	log.Printf("scheduler: %d Hz, budget %d samples (%.2f s)",
		s.rateHz, s.budget, float64(s.budget)/float64(s.rateHz))

	for range ticker.C {
		sample, err := s.source.ReadRaw()
		if err != nil {
			if !haveGood {
				return stats, fmt.Errorf("scheduler: first sample: %w", err)
			}
			stats.SensorErrors++
			sample = lastGood
		} else {
			lastGood = sample
			haveGood = true
		}

		est := s.filter.Update(sample.PitchAccel(), sample.PitchRate())

		frame := telemetry.Frame{
			Ay:    sample.Ay,
			Az:    sample.Az,
			Gx:    sample.Gx,
			Pitch: float32(est),
		}
		if err := s.tx.Send(frame); err != nil {
			// The link never retries; the checksum is for the receiver.
			stats.TxErrors++
			log.Printf("scheduler: send: %v", err)
		}

		stats.Samples++
		if stats.Samples >= s.budget {
			break
		}
	}

	// Terminal state: timer stopped, drain the outstanding transfer so the
	// buffer has a defined owner before returning.
	if err := s.tx.Wait(); err != nil {
		stats.TxErrors++
		log.Printf("scheduler: final transfer: %v", err)
	}

	stats.FinalAngle = s.filter.Angle()
	stats.Tx = s.tx.Stats()

	log.Printf("scheduler: halted after %d samples, final angle %.2f° (sensor errors %d, tx errors %d, overruns %d)",
		stats.Samples, stats.FinalAngle, stats.SensorErrors, stats.TxErrors, stats.Tx.Overruns)
	return stats, nil
}
