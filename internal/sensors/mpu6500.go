// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/pitch_computer/internal/config"
	"github.com/relabs-tech/pitch_computer/internal/imu"
)

// MPU6500Source reads the MPU-6500 over SPI.
type MPU6500Source struct {
	port spi.PortCloser
	conn spi.Conn
}

// NewMPU6500Source opens the configured SPI device, wakes the MPU-6500 and
// selects the ±2 g / ±250 °/s full-scale ranges the pipeline's conversion
// constants assume.
func NewMPU6500Source() (*MPU6500Source, error) {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	port, err := spireg.Open(cfg.IMUSPIDevice)
	if err != nil {
		return nil, fmt.Errorf("IMU: SPI open (%s): %w", cfg.IMUSPIDevice, err)
	}

	conn, err := port.Connect(physic.MegaHertz, spi.Mode3, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("IMU: SPI connect: %w", err)
	}

	s := &MPU6500Source{port: port, conn: conn}

	id, err := s.ReadRegister(regWhoAmI)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("IMU: WHO_AM_I read: %w", err)
	}
	switch id {
	case whoAmIMPU6500, whoAmIMPU6050, whoAmIMPU9250:
		log.Printf("IMU: WHO_AM_I = 0x%02X", id)
	default:
		port.Close()
		return nil, fmt.Errorf("IMU: unexpected WHO_AM_I 0x%02X", id)
	}

	// Wake from sleep and select the gyro PLL clock before touching anything
	// else; the device powers up asleep.
	if err := s.writeRegister(regPwrMgmt1, pwrMgmt1ClockPLL); err != nil {
		port.Close()
		return nil, fmt.Errorf("IMU: power management: %w", err)
	}
	time.Sleep(100 * time.Millisecond)

	for _, r := range []struct {
		reg, val byte
		name     string
	}{
		{regSmplrtDiv, 0x00, "sample rate divider"},
		{regConfig, 0x00, "DLPF config"},
		{regGyroConfig, gyroFS250dps, "gyro range"},
		{regAccelConfig, accelFS2g, "accel range"},
	} {
		if err := s.writeRegister(r.reg, r.val); err != nil {
			port.Close()
			return nil, fmt.Errorf("IMU: set %s: %w", r.name, err)
		}
	}
	log.Printf("IMU: configured on %s (±2g, ±250°/s)", cfg.IMUSPIDevice)

	return s, nil
}

// ReadRaw burst-reads the contiguous AY/AZ/TEMP/GX output block.
func (s *MPU6500Source) ReadRaw() (imu.RawSample, error) {
	// 8 data bytes starting at ACCEL_YOUT_H, big-endian pairs.
	w := make([]byte, 9)
	r := make([]byte, 9)
	w[0] = regAccelYOutH | spiReadFlag

	if err := s.conn.Tx(w, r); err != nil {
		return imu.RawSample{}, fmt.Errorf("IMU: output block read: %w", err)
	}

	buf := r[1:]
	return imu.RawSample{
		Ay:   int16(binary.BigEndian.Uint16(buf[0:2])),
		Az:   int16(binary.BigEndian.Uint16(buf[2:4])),
		Temp: int16(binary.BigEndian.Uint16(buf[4:6])),
		Gx:   int16(binary.BigEndian.Uint16(buf[6:8])),
	}, nil
}

// Close releases the SPI port.
func (s *MPU6500Source) Close() error {
	return s.port.Close()
}

// ReadRegister reads a single register over SPI. Exposed for the register
// dump tool; the sampling path uses the burst read instead.
func (s *MPU6500Source) ReadRegister(reg byte) (byte, error) {
	w := []byte{reg | spiReadFlag, 0x00}
	r := make([]byte, 2)
	if err := s.conn.Tx(w, r); err != nil {
		return 0, err
	}
	return r[1], nil
}

func (s *MPU6500Source) writeRegister(reg, val byte) error {
	return s.conn.Tx([]byte{reg, val}, make([]byte, 2))
}
