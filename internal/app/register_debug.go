// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"log"

	"github.com/relabs-tech/pitch_computer/internal/config"
	"github.com/relabs-tech/pitch_computer/internal/sensors"
)

// MPU-6500 register file spans 0x00..0x7E.
const registerFileEnd = 0x7E

// RunRegisterDebug dumps the IMU register file as a hex table, for bring-up
// and for diagnosing a wedged sensor without touching the producer.
func RunRegisterDebug(out io.Writer) error {
	cfg := config.Get()
	if cfg.UseMockIMU {
		return fmt.Errorf("register debug needs real hardware, USE_MOCK_IMU is set")
	}

	src, err := sensors.NewMPU6500Source()
	if err != nil {
		return fmt.Errorf("IMU init: %w", err)
	}
	defer src.Close()

	log.Printf("dumping register file 0x00..0x%02X", registerFileEnd)

	fmt.Fprint(out, "      00 01 02 03 04 05 06 07 08 09 0A 0B 0C 0D 0E 0F\n")
	for row := 0; row <= registerFileEnd; row += 16 {
		fmt.Fprintf(out, "0x%02X:", row)
		for col := 0; col < 16; col++ {
			addr := byte(row + col)
			if addr > registerFileEnd {
				break
			}
			v, err := src.ReadRegister(addr)
			if err != nil {
				return fmt.Errorf("read 0x%02X: %w", addr, err)
			}
			fmt.Fprintf(out, " %02X", v)
		}
		fmt.Fprintln(out)
	}
	return nil
}
