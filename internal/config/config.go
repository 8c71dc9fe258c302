package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// Sampling
	SampleRateHz       int // fixed tick frequency of the estimation pipeline
	SampleBudget       int // total samples before the pipeline halts
	CalibrationSamples int // sensor reads averaged for the startup baseline

	// Kalman filter noise parameters
	QAngle   float64 // angle process noise
	QBias    float64 // gyro-bias process noise
	RMeasure float64 // accelerometer observation noise

	// Telemetry serial link
	SerialPort string
	SerialBaud int

	// IMU Hardware
	IMUSPIDevice string
	UseMockIMU   bool

	// Calibration indicator
	LEDPin string

	// MQTT
	MQTTBroker          string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	MQTTClientIDDisplay string
	TopicPitch          string

	// Web Server
	WebServerPort int

	// Display
	DisplayUpdateInterval int // milliseconds
}

// Default returns the reference configuration: 512 Hz for 2 seconds of
// samples, the reference filter tuning, and a 115200 8N1 telemetry link.
func Default() *Config {
	return &Config{
		SampleRateHz:       512,
		SampleBudget:       1024,
		CalibrationSamples: 128,

		QAngle:   0.001,
		QBias:    0.003,
		RMeasure: 0.03,

		SerialPort: "/dev/serial0",
		SerialBaud: 115200,

		IMUSPIDevice: "/dev/spidev0.0",
		LEDPin:       "GPIO17",

		MQTTBroker:          "tcp://localhost:1883",
		MQTTClientIDConsole: "pitch-console",
		MQTTClientIDWeb:     "pitch-web",
		MQTTClientIDDisplay: "pitch-display",
		TopicPitch:          "pitch/telemetry",

		WebServerPort: 8080,

		DisplayUpdateInterval: 200,
	}
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot access it directly.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access.
//
// External code must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	globalErr    error
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct. Keys not
// present in the file keep their defaults.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Sampling
	case "SAMPLE_RATE_HZ":
		hz, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_RATE_HZ %q: %w", value, err)
		}
		c.SampleRateHz = hz
	case "SAMPLE_BUDGET":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_BUDGET %q: %w", value, err)
		}
		c.SampleBudget = n
	case "CALIBRATION_SAMPLES":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CALIBRATION_SAMPLES %q: %w", value, err)
		}
		c.CalibrationSamples = n

	// Filter tuning
	case "Q_ANGLE":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid Q_ANGLE %q: %w", value, err)
		}
		c.QAngle = f
	case "Q_BIAS":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid Q_BIAS %q: %w", value, err)
		}
		c.QBias = f
	case "R_MEASURE":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid R_MEASURE %q: %w", value, err)
		}
		c.RMeasure = f

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD %q: %w", value, err)
		}
		c.SerialBaud = rate

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "USE_MOCK_IMU":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid USE_MOCK_IMU %q: %w", value, err)
		}
		c.UseMockIMU = b

	case "LED_PIN":
		c.LEDPin = value

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "TOPIC_PITCH":
		c.TopicPitch = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.SampleRateHz <= 0 {
		return fmt.Errorf("SAMPLE_RATE_HZ must be positive, got %d", c.SampleRateHz)
	}
	if c.SampleBudget <= 0 {
		return fmt.Errorf("SAMPLE_BUDGET must be positive, got %d", c.SampleBudget)
	}
	if c.CalibrationSamples <= 0 {
		return fmt.Errorf("CALIBRATION_SAMPLES must be positive, got %d", c.CalibrationSamples)
	}
	// R_MEASURE == 0 with a zero covariance would make the innovation
	// covariance singular, so it is rejected outright.
	if c.QAngle <= 0 || c.QBias <= 0 || c.RMeasure <= 0 {
		return fmt.Errorf("Q_ANGLE, Q_BIAS and R_MEASURE must all be positive")
	}
	if c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required")
	}
	if c.SerialBaud <= 0 {
		return fmt.Errorf("SERIAL_BAUD must be positive, got %d", c.SerialBaud)
	}
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicPitch == "" {
		return fmt.Errorf("TOPIC_PITCH is required")
	}
	return nil
}

// TickPeriodSeconds returns DT, the fixed interval between samples.
func (c *Config) TickPeriodSeconds() float64 {
	return 1.0 / float64(c.SampleRateHz)
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure the load only runs once, even if called multiple
// times; the outcome of that first load, error included, is what every call
// reports.
func InitGlobal(configPath string) error {
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, globalErr = Load(configPath)
	})
	return globalErr
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
