package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if cfg.Camera.Width != 640 || cfg.Camera.Height != 480 {
		t.Errorf("camera size = %dx%d, want 640x480", cfg.Camera.Width, cfg.Camera.Height)
	}
	if cfg.Transport.Addr != "127.0.0.1:5052" {
		t.Errorf("transport addr = %s, want 127.0.0.1:5052", cfg.Transport.Addr)
	}
	if cfg.Detector.MaxHands != 1 {
		t.Errorf("max hands = %d, want 1", cfg.Detector.MaxHands)
	}
	if cfg.Detector.MinConfidence != 0.8 {
		t.Errorf("min confidence = %v, want 0.8", cfg.Detector.MinConfidence)
	}
	if cfg.Payload.Format != "list" || cfg.Payload.Gesture {
		t.Errorf("payload = %+v, want list without gesture", cfg.Payload)
	}
	if cfg.Preview.Title != "Image" || !cfg.Preview.Window {
		t.Errorf("preview = %+v, want window titled Image", cfg.Preview)
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Transport.Kind != TransportUDP {
			t.Errorf("transport kind = %s, want udp", cfg.Transport.Kind)
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "handcast.yaml")
		content := `
camera:
  device: 2
  width: 1280
  height: 720
payload:
  format: framed
  gesture: true
transport:
  addr: 10.0.0.5:6000
preview:
  window: false
http:
  addr: 127.0.0.1:8090
  static_dir: ` + dir + `
`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Camera.DeviceID != 2 || cfg.Camera.Width != 1280 || cfg.Camera.Height != 720 {
			t.Errorf("camera = %+v", cfg.Camera)
		}
		if cfg.Payload.Format != "framed" || !cfg.Payload.Gesture {
			t.Errorf("payload = %+v", cfg.Payload)
		}
		if cfg.Transport.Addr != "10.0.0.5:6000" {
			t.Errorf("transport addr = %s", cfg.Transport.Addr)
		}
		if cfg.Preview.Window {
			t.Error("preview window should be disabled")
		}
		if cfg.HTTP.Addr != "127.0.0.1:8090" || cfg.HTTP.StaticDir != dir {
			t.Errorf("http = %+v", cfg.HTTP)
		}
		// Untouched keys keep their defaults.
		if cfg.Camera.MaxReadFailures != 30 {
			t.Errorf("max read failures = %d, want 30", cfg.Camera.MaxReadFailures)
		}
		if cfg.Detector.MinConfidence != 0.8 {
			t.Errorf("min confidence = %v, want 0.8", cfg.Detector.MinConfidence)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		os.WriteFile(path, []byte("camera: [unterminated"), 0o644)

		if _, err := Load(path); err == nil {
			t.Error("expected error for invalid yaml")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "zero width", mutate: func(c *Config) { c.Camera.Width = 0 }, wantErr: "camera"},
		{name: "zero read failures", mutate: func(c *Config) { c.Camera.MaxReadFailures = 0 }, wantErr: "max_read_failures"},
		{name: "no hands", mutate: func(c *Config) { c.Detector.MaxHands = 0 }, wantErr: "max_hands"},
		{name: "confidence above one", mutate: func(c *Config) { c.Detector.MinConfidence = 1.5 }, wantErr: "min_confidence"},
		{name: "udp addr without port", mutate: func(c *Config) { c.Transport.Addr = "localhost" }, wantErr: "transport"},
		{name: "unknown transport", mutate: func(c *Config) { c.Transport.Kind = "tcp" }, wantErr: "unknown kind"},
		{name: "zmq without endpoint", mutate: func(c *Config) {
			c.Transport.Kind = TransportZMQ
			c.Transport.ZMQEndpoint = ""
		}, wantErr: "zmq_endpoint"},
		{name: "unknown format", mutate: func(c *Config) { c.Payload.Format = "csv" }, wantErr: "payload"},
		{name: "record without path", mutate: func(c *Config) {
			c.Record.Enabled = true
			c.Record.Path = ""
		}, wantErr: "record"},
		{name: "bad http addr", mutate: func(c *Config) { c.HTTP.Addr = "8080" }, wantErr: "http"},
		{name: "missing static dir", mutate: func(c *Config) { c.HTTP.StaticDir = filepath.Join(os.TempDir(), "handcast-no-such-dir") }, wantErr: "static_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}

	t.Run("reports every problem", func(t *testing.T) {
		cfg := Default()
		cfg.Camera.Width = 0
		cfg.Transport.Kind = "tcp"

		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "camera") || !strings.Contains(err.Error(), "transport") {
			t.Errorf("expected both camera and transport errors, got %v", err)
		}
	})
}
