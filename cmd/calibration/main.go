// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Standalone calibration tool: measures the resting gyro bias and pitch
// angle, checks the device was actually still during capture, and writes a
// JSON quality report to the current directory.
package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/pitch_computer/internal/app"
	"github.com/relabs-tech/pitch_computer/internal/config"
)

func main() {
	configPath := flag.String("config", "./pitch_config.txt", "path to configuration file")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunCalibrate(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
