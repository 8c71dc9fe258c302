package sensors

import (
	"github.com/relabs-tech/pitch_computer/internal/imu"
)

// Source is anything that can supply raw IMU samples, one blocking read per
// call: the SPI-attached MPU-6500 on the device, the mock source everywhere
// else.
type Source interface {
	ReadRaw() (imu.RawSample, error)
}
