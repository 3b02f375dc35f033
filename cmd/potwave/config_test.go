package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"potwave/internal/helix"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if got := cfg.ToSpeedConfig(); got != helix.DefaultSpeedConfig() {
		t.Fatalf("ToSpeedConfig() = %+v, want stock tuning", got)
	}
	if got := cfg.ToSceneConfig(); got != helix.DefaultSceneConfig() {
		t.Fatalf("ToSceneConfig() = %+v, want stock composition", got)
	}
}

func TestLoadConfigFile_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "potwave.yaml")
	yml := `
source:
  mode: relay
  relay_url: ws://pi.local:8080/ws
serial:
  device: /dev/ttyUSB1
animation:
  max_speed: 0.05
  wave1_color: "#112233"
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Source.Mode != SourceModeRelay || cfg.Source.RelayURL != "ws://pi.local:8080/ws" {
		t.Fatalf("source = %+v", cfg.Source)
	}
	if cfg.Serial.Device != "/dev/ttyUSB1" {
		t.Fatalf("serial.device = %q", cfg.Serial.Device)
	}
	// untouched fields keep their defaults
	if cfg.Serial.Baud != defaultSerialBaud {
		t.Fatalf("serial.baud = %d, want default %d", cfg.Serial.Baud, defaultSerialBaud)
	}
	if cfg.Animation.MaxSpeed != 0.05 || cfg.Animation.MinSpeed != helix.DefaultMinSpeed {
		t.Fatalf("animation speeds = %v..%v", cfg.Animation.MinSpeed, cfg.Animation.MaxSpeed)
	}
	if got := cfg.ToSceneConfig().Wave1Color; got != "#112233" {
		t.Fatalf("wave1 colour = %q", got)
	}
}

func TestParseConfig_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{"unknown field", "serial:\n  devise: /dev/ttyACM0\n"},
		{"trailing document", "logging:\n  level: info\n---\nlogging:\n  level: debug\n"},
		{"trailing scalar", "logging:\n  level: info\n---\nfoo\n"},
		{"trailing unknown keys", "logging:\n  level: info\n---\nnope: 1\n"},
		{"wrong type", "serial:\n  baud: fast\n"},
	}
	for _, tt := range tests {
		if _, err := parseConfig([]byte(tt.yml)); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestParseConfig_TrailingCommentsAllowed(t *testing.T) {
	cfg, err := parseConfig([]byte("logging:\n  level: debug\n# end of file\n\n"))
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging.level = %q", cfg.Logging.Level)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad mode", func(c *Config) { c.Source.Mode = "usb" }, "source.mode"},
		{"relay url scheme", func(c *Config) {
			c.Source.Mode = SourceModeRelay
			c.Source.RelayURL = "http://localhost:8080/ws"
		}, "source.relay_url"},
		{"empty device", func(c *Config) { c.Serial.Device = "" }, "serial.device"},
		{"relay path", func(c *Config) { c.Relay.Path = "ws" }, "relay.path"},
		{"speed range", func(c *Config) { c.Animation.MinSpeed = 0.1 }, "animation.min_speed"},
		{"smoothing", func(c *Config) { c.Animation.Smoothing = 1 }, "animation.smoothing"},
		{"window", func(c *Config) { c.Display.Width = 0 }, "display.width"},
		{"ipc path", func(c *Config) { c.IPC.SocketPath = "" }, "ipc.socket_path"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.wantErr)
		}
	}

	// ipc path may be empty when ipc is off
	cfg := DefaultConfig()
	cfg.IPC.Enabled = false
	cfg.IPC.SocketPath = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled ipc: %v", err)
	}
}

func TestFlagOverrides_Apply(t *testing.T) {
	cfg := DefaultConfig()
	mode := SourceModeRelay
	dev := "/dev/ttyUSB9"
	every := 10
	off := false

	FlagOverrides{
		SourceMode:    &mode,
		SerialDevice:  &dev,
		SnapshotEvery: &every,
		IPCEnabled:    &off,
	}.Apply(&cfg)

	if cfg.Source.Mode != mode || cfg.Serial.Device != dev || cfg.Display.SnapshotEvery != every || cfg.IPC.Enabled {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	// nil pointers leave values alone
	if cfg.Serial.Baud != defaultSerialBaud || cfg.Logging.Level != "info" {
		t.Fatalf("unset overrides changed config: %+v", cfg)
	}

	FlagOverrides{}.Apply(nil)
}

func TestLoadConfig_FlagsBeatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "potwave.yaml")
	if err := os.WriteFile(path, []byte("serial:\n  device: /dev/from-file\n  baud: 19200\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	dev := "/dev/from-flag"
	cfg, err := loadConfig(path, FlagOverrides{SerialDevice: &dev})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Serial.Device != dev {
		t.Fatalf("device = %q, want flag value", cfg.Serial.Device)
	}
	if cfg.Serial.Baud != 19200 {
		t.Fatalf("baud = %d, want file value", cfg.Serial.Baud)
	}

	sc := cfg.ToSerialConfig()
	if sc.BaudRate != 19200 || sc.ReadTimeout != defaultSerialReadTimeoutMS*time.Millisecond {
		t.Fatalf("ToSerialConfig() = %+v", sc)
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), FlagOverrides{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct{ in, want string }{
		{"", ""},
		{"/abs/path", "/abs/path"},
		{"~", home},
		{"~/potwave.sock", filepath.Join(home, "potwave.sock")},
		{"~other/x", "~other/x"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, s := range []string{"error", "WARN", "warning", "info", "debug", ""} {
		if _, err := parseLogLevel(s); err != nil {
			t.Errorf("parseLogLevel(%q): %v", s, err)
		}
	}
	if _, err := parseLogLevel("trace"); err == nil {
		t.Errorf("parseLogLevel(trace) accepted")
	}
}
