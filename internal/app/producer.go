// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
	"periph.io/x/conn/v3/gpio"

	"github.com/relabs-tech/pitch_computer/internal/calibration"
	"github.com/relabs-tech/pitch_computer/internal/config"
	"github.com/relabs-tech/pitch_computer/internal/estimator"
	"github.com/relabs-tech/pitch_computer/internal/pipeline"
)

// ledIndicator drives the calibration busy LED through a GPIO pin.
type ledIndicator struct {
	pin gpio.PinIO
}

func (l ledIndicator) Set(on bool) error {
	return l.pin.Out(gpio.Level(on))
}

// RunProducer is the device-side pipeline: calibrate against the resting
// pose, then stream one estimated pitch frame per tick over the serial link
// until the sample budget is spent.
func RunProducer() error {
	log.Println("starting pitch-computer producer (IMU → Kalman → serial)")

	cfg := config.Get()

	source, indicator, closeSource, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	// --- Startup calibration: gyro bias and resting angle ---
	baseline, err := calibration.Run(source, indicator, cfg.CalibrationSamples)
	if err != nil {
		return fmt.Errorf("calibration: %w", err)
	}

	filter := estimator.NewKalman(
		cfg.TickPeriodSeconds(),
		cfg.QAngle, cfg.QBias, cfg.RMeasure,
		baseline.Angle, baseline.GyroBias,
	)

	// --- Open the telemetry serial link ---
	serialOpts := serial.OpenOptions{
		PortName:        cfg.SerialPort,
		BaudRate:        uint(cfg.SerialBaud),
		DataBits:        8,
		StopBits:        1,
		ParityMode:      serial.PARITY_NONE,
		MinimumReadSize: 1,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("serial open (%s): %w", cfg.SerialPort, err)
	}
	defer port.Close()
	log.Printf("telemetry serial port opened on %s at %d baud", cfg.SerialPort, cfg.SerialBaud)

	tickPeriod := time.Second / time.Duration(cfg.SampleRateHz)
	tx := pipeline.NewTransmitter(port, tickPeriod)
	sched := pipeline.NewScheduler(source, filter, tx, cfg.SampleRateHz, cfg.SampleBudget)

	stats, err := sched.Run()
	if err != nil {
		return err
	}

	log.Printf("producer done: %d frames sent, total transmit wait %s",
		stats.Tx.Sent, stats.Tx.WaitTotal)
	return nil
}
