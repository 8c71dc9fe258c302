// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

// MPU-6500 register addresses used by this project. Only the configuration
// registers touched during init and the output block covering accel-Y,
// accel-Z, temperature and gyro-X are listed.
const (
	regSmplrtDiv   = 0x19 // Sample Rate = Internal_Sample_Rate / (1 + SMPLRT_DIV)
	regConfig      = 0x1A // DLPF_CFG in bits 2:0
	regGyroConfig  = 0x1B // GYRO_FS_SEL in bits 4:3 (0=±250°/s)
	regAccelConfig = 0x1C // ACCEL_FS_SEL in bits 4:3 (0=±2g)

	regAccelYOutH = 0x3D // start of the AY/AZ/TEMP/GX output block
	regTempOutH   = 0x41
	regGyroXOutH  = 0x43

	regPwrMgmt1 = 0x6B
	regWhoAmI   = 0x75
)

const (
	// WHO_AM_I values accepted at init. 0x70 is the MPU-6500; 0x68 (MPU-6050)
	// and 0x71 (MPU-9250) share the register map for everything we touch.
	whoAmIMPU6500 = 0x70
	whoAmIMPU6050 = 0x68
	whoAmIMPU9250 = 0x71

	// PWR_MGMT_1: clear sleep, clock from the X gyro PLL.
	pwrMgmt1ClockPLL = 0x01

	// Full-scale selections, bits 4:3.
	gyroFS250dps = 0x00
	accelFS2g    = 0x00

	// SPI reads set the MSB of the register address.
	spiReadFlag = 0x80
)
