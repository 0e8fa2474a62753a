// Package config loads handcast's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/handcast/internal/capture"
	"github.com/ayusman/handcast/internal/detector"
	"github.com/ayusman/handcast/internal/payload"
	"github.com/ayusman/handcast/internal/transport"
)

// Transport kinds.
const (
	TransportUDP = "udp"
	TransportZMQ = "zmq"
)

// Config is the full application configuration. Every field defaults to the
// behavior of the plain capture-and-send loop.
type Config struct {
	Camera    CameraConfig    `yaml:"camera"`
	Detector  detector.Config `yaml:"detector"`
	Transport TransportConfig `yaml:"transport"`
	Payload   PayloadConfig   `yaml:"payload"`
	Preview   PreviewConfig   `yaml:"preview"`
	Record    RecordConfig    `yaml:"record"`
	HTTP      HTTPConfig      `yaml:"http"`
	Tray      bool            `yaml:"tray"`
	Log       LogConfig       `yaml:"log"`
}

// CameraConfig holds the capture device settings.
type CameraConfig struct {
	capture.Config `yaml:",inline"`

	// MaxReadFailures is how many consecutive failed reads end the run.
	MaxReadFailures int `yaml:"max_read_failures"`
}

// TransportConfig selects where payloads go.
type TransportConfig struct {
	Kind        string `yaml:"kind"`
	Addr        string `yaml:"addr"`
	ZMQEndpoint string `yaml:"zmq_endpoint"`
	Topic       string `yaml:"topic"`
}

// PayloadConfig selects the wire format and whether the gesture signal is appended.
type PayloadConfig struct {
	Format  string `yaml:"format"`
	Gesture bool   `yaml:"gesture"`
}

// PreviewConfig controls the on-screen window.
type PreviewConfig struct {
	Window bool   `yaml:"window"`
	Title  string `yaml:"title"`
}

// RecordConfig controls session recording.
type RecordConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// HTTPConfig enables the debug HTTP server when Addr is set. StaticDir,
// when set, is served at the root, e.g. a page rendering /api/landmarks.
type HTTPConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// LogConfig selects log level and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Camera: CameraConfig{
			Config:          capture.DefaultConfig(),
			MaxReadFailures: 30,
		},
		Detector: detector.DefaultConfig(),
		Transport: TransportConfig{
			Kind:        TransportUDP,
			Addr:        transport.DefaultAddr,
			ZMQEndpoint: "tcp://*:5053",
			Topic:       transport.DefaultTopic,
		},
		Payload: PayloadConfig{
			Format: payload.FormatList,
		},
		Preview: PreviewConfig{
			Window: true,
			Title:  "Image",
		},
		Record: RecordConfig{
			Path: DefaultDBPath(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultDBPath returns ~/.handcast/handcast.db, or a relative path when the
// home directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "handcast.db"
	}
	return filepath.Join(home, ".handcast", "handcast.db")
}

// Load reads the YAML file at path over the defaults and validates the
// result. An empty path returns the validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error

	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("camera: size %dx%d must be positive", c.Camera.Width, c.Camera.Height))
	}
	if c.Camera.MaxReadFailures <= 0 {
		errs = append(errs, fmt.Errorf("camera: max_read_failures must be positive"))
	}

	if c.Detector.MaxHands < 1 {
		errs = append(errs, fmt.Errorf("detector: max_hands must be at least 1"))
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("detector: min_confidence %v out of [0, 1]", c.Detector.MinConfidence))
	}
	if c.Detector.MinTrackingConf < 0 || c.Detector.MinTrackingConf > 1 {
		errs = append(errs, fmt.Errorf("detector: min_tracking_confidence %v out of [0, 1]", c.Detector.MinTrackingConf))
	}

	switch c.Transport.Kind {
	case TransportUDP:
		if _, _, err := net.SplitHostPort(c.Transport.Addr); err != nil {
			errs = append(errs, fmt.Errorf("transport: addr %q: %w", c.Transport.Addr, err))
		}
	case TransportZMQ:
		if c.Transport.ZMQEndpoint == "" {
			errs = append(errs, fmt.Errorf("transport: zmq_endpoint is required for kind zmq"))
		}
	default:
		errs = append(errs, fmt.Errorf("transport: unknown kind %q", c.Transport.Kind))
	}

	if _, err := payload.FormatByName(c.Payload.Format, c.Payload.Gesture); err != nil {
		errs = append(errs, fmt.Errorf("payload: %w", err))
	}

	if c.Record.Enabled && c.Record.Path == "" {
		errs = append(errs, fmt.Errorf("record: path is required when recording"))
	}

	if c.HTTP.Addr != "" {
		if _, _, err := net.SplitHostPort(c.HTTP.Addr); err != nil {
			errs = append(errs, fmt.Errorf("http: addr %q: %w", c.HTTP.Addr, err))
		}
	}
	if c.HTTP.StaticDir != "" {
		if info, err := os.Stat(c.HTTP.StaticDir); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Errorf("http: static_dir %q is not a directory", c.HTTP.StaticDir))
		}
	}

	return errors.Join(errs...)
}
