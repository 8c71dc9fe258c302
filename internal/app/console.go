package app

import (
	"bufio"
	"fmt"
	"io"
	"log"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/pitch_computer/internal/config"
	"github.com/relabs-tech/pitch_computer/internal/telemetry"
)

// RunConsole opens the receive side of the telemetry link, synchronizes on
// the 0x00 frame delimiter, and prints every frame that passes its checksum.
func RunConsole() error {
	cfg := config.Get()

	port, err := openReceivePort(cfg)
	if err != nil {
		return err
	}
	defer port.Close()

	frames := 0
	bad := 0
	err = readFrames(port, func(f telemetry.Frame) {
		frames++
		fmt.Printf("[PITCH] ay=%6d az=%6d gx=%6d  pitch=%7.2f\n", f.Ay, f.Az, f.Gx, f.Pitch)
	}, func(decodeErr error) {
		bad++
		log.Printf("console: dropped frame: %v", decodeErr)
	})

	log.Printf("console: link closed after %d frames (%d dropped)", frames, bad)
	return err
}

func openReceivePort(cfg *config.Config) (io.ReadCloser, error) {
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
		return nil, fmt.Errorf("serial open (%s): %w", cfg.SerialPort, err)
	}
	log.Printf("listening on %s at %d baud", cfg.SerialPort, cfg.SerialBaud)
	return port, nil
}

// readFrames scans r for delimiter-separated frames until EOF, handing good
// frames to handle and decode failures to drop. Corrupt frames are discarded;
// the sender never retries, the checksum exists for exactly this purpose.
func readFrames(r io.Reader, handle func(telemetry.Frame), drop func(error)) error {
	reader := bufio.NewReader(r)
	for {
		chunk, err := reader.ReadBytes(telemetry.Delimiter)
		if len(chunk) > 0 && chunk[len(chunk)-1] == telemetry.Delimiter {
			chunk = chunk[:len(chunk)-1]
		}
		if len(chunk) > 0 {
			if f, decodeErr := telemetry.DecodeFrame(chunk); decodeErr != nil {
				drop(decodeErr)
			} else {
				handle(f)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("serial read: %w", err)
		}
	}
}
