package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"potwave/internal/helix"
	"potwave/internal/serial"
)

// Config is the top-level YAML configuration shared by the viewer and the
// relay. Defaults live in DefaultConfig; the file is decoded on top of them
// and flags are applied last.
type Config struct {
	// Where samples come from when running the viewer
	Source SourceConfig `yaml:"source"`

	// Serial port settings (viewer in serial mode, and the relay)
	Serial SerialConfig `yaml:"serial"`

	// WebSocket relay server (potwave relay)
	Relay RelayConfig `yaml:"relay"`

	// Speed mapping and wave composition
	Animation AnimationConfig `yaml:"animation"`

	// Window or headless output
	Display DisplayConfig `yaml:"display"`

	// Control socket
	IPC IPCConfig `yaml:"ipc"`

	Logging LoggingConfig `yaml:"logging"`
}

const (
	SourceModeSerial = "serial"
	SourceModeRelay  = "relay"
)

type SourceConfig struct {
	Mode               string `yaml:"mode"` // "serial" or "relay"
	RelayURL           string `yaml:"relay_url"`
	AutoConnect        bool   `yaml:"auto_connect"`
	HandshakeTimeoutMS int    `yaml:"handshake_timeout_ms"`
}

type SerialConfig struct {
	Device        string `yaml:"device"`
	Baud          int    `yaml:"baud"`
	ReadTimeoutMS int    `yaml:"read_timeout_ms"`
}

type RelayConfig struct {
	Listen        string `yaml:"listen"`
	Path          string `yaml:"path"`
	SendBuf       int    `yaml:"send_buf"`
	ReopenDelayMS int    `yaml:"reopen_delay_ms"`
}

// AnimationConfig is the user-facing subset of helix.SpeedConfig and
// helix.SceneConfig. Anything not listed keeps its stock value.
type AnimationConfig struct {
	MinSpeed     float64 `yaml:"min_speed"`
	MaxSpeed     float64 `yaml:"max_speed"`
	InitialSpeed float64 `yaml:"initial_speed"`
	CycleSeconds float64 `yaml:"cycle_seconds"`
	Smoothing    float64 `yaml:"smoothing"`

	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
	WaveGap   float64 `yaml:"wave_gap"`
	WaveWidth float64 `yaml:"wave_width"`

	RungSpacing float64 `yaml:"rung_spacing"`

	Wave1Color string `yaml:"wave1_color"`
	Wave2Color string `yaml:"wave2_color"`
	RungColor  string `yaml:"rung_color"`
	DotColor   string `yaml:"dot_color"`
	Background string `yaml:"background"`
}

type DisplayConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Title      string `yaml:"title"`
	ShowStatus bool   `yaml:"show_status"`

	// Headless builds only
	HeadlessFPS   int    `yaml:"headless_fps"`
	SnapshotDir   string `yaml:"snapshot_dir"`
	SnapshotEvery int    `yaml:"snapshot_every"`
}

type IPCConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SocketPath string `yaml:"socket_path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	speed := helix.DefaultSpeedConfig()
	scene := helix.DefaultSceneConfig()
	return Config{
		Source: SourceConfig{
			Mode:               SourceModeSerial,
			RelayURL:           defaultRelayURL,
			HandshakeTimeoutMS: defaultHandshakeTimeoutMS,
		},
		Serial: SerialConfig{
			Device:        defaultSerialDevice,
			Baud:          defaultSerialBaud,
			ReadTimeoutMS: defaultSerialReadTimeoutMS,
		},
		Relay: RelayConfig{
			Listen:        defaultRelayListen,
			Path:          defaultRelayPath,
			SendBuf:       defaultRelaySendBuf,
			ReopenDelayMS: defaultReopenDelayMS,
		},
		Animation: AnimationConfig{
			MinSpeed:     speed.MinSpeed,
			MaxSpeed:     speed.MaxSpeed,
			InitialSpeed: speed.InitialSpeed,
			CycleSeconds: speed.CycleSeconds,
			Smoothing:    scene.Smoothing,
			Amplitude:    scene.Amplitude,
			Frequency:    scene.Frequency,
			WaveGap:      scene.WaveGap,
			WaveWidth:    scene.WaveWidth,
			RungSpacing:  scene.RungSpacing,
			Wave1Color:   scene.Wave1Color,
			Wave2Color:   scene.Wave2Color,
			RungColor:    scene.RungColor,
			DotColor:     scene.DotColor,
			Background:   scene.Background,
		},
		Display: DisplayConfig{
			Width:         defaultWindowWidth,
			Height:        defaultWindowHeight,
			Title:         defaultWindowTitle,
			HeadlessFPS:   defaultHeadlessFPS,
			SnapshotEvery: defaultSnapshotEvery,
		},
		IPC: IPCConfig{
			Enabled:    true,
			SocketPath: defaultIPCSocket,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of DefaultConfig.
// Unknown fields are rejected.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return parseConfig(b)
}

func parseConfig(b []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace/comments are allowed after the document.
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides holds values from flags the user set explicitly. A nil
// pointer leaves the config value alone.
type FlagOverrides struct {
	SourceMode  *string
	RelayURL    *string
	AutoConnect *bool

	SerialDevice *string
	SerialBaud   *int

	RelayListen *string
	RelayPath   *string

	Width         *int
	Height        *int
	ShowStatus    *bool
	HeadlessFPS   *int
	SnapshotDir   *string
	SnapshotEvery *int

	IPCSocketPath *string
	IPCEnabled    *bool

	LogLevel *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.SourceMode != nil {
		cfg.Source.Mode = *o.SourceMode
	}
	if o.RelayURL != nil {
		cfg.Source.RelayURL = *o.RelayURL
	}
	if o.AutoConnect != nil {
		cfg.Source.AutoConnect = *o.AutoConnect
	}

	if o.SerialDevice != nil {
		cfg.Serial.Device = *o.SerialDevice
	}
	if o.SerialBaud != nil {
		cfg.Serial.Baud = *o.SerialBaud
	}

	if o.RelayListen != nil {
		cfg.Relay.Listen = *o.RelayListen
	}
	if o.RelayPath != nil {
		cfg.Relay.Path = *o.RelayPath
	}

	if o.Width != nil {
		cfg.Display.Width = *o.Width
	}
	if o.Height != nil {
		cfg.Display.Height = *o.Height
	}
	if o.ShowStatus != nil {
		cfg.Display.ShowStatus = *o.ShowStatus
	}
	if o.HeadlessFPS != nil {
		cfg.Display.HeadlessFPS = *o.HeadlessFPS
	}
	if o.SnapshotDir != nil {
		cfg.Display.SnapshotDir = *o.SnapshotDir
	}
	if o.SnapshotEvery != nil {
		cfg.Display.SnapshotEvery = *o.SnapshotEvery
	}

	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.IPCEnabled != nil {
		cfg.IPC.Enabled = *o.IPCEnabled
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// Call it after defaults, file and overrides are applied.
func (c *Config) Validate() error {
	// Source
	switch c.Source.Mode {
	case SourceModeSerial:
	case SourceModeRelay:
		u, err := url.Parse(c.Source.RelayURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
			return fmt.Errorf("source.relay_url must be a ws:// or wss:// URL (got %q)", c.Source.RelayURL)
		}
	default:
		return fmt.Errorf("source.mode must be %q or %q", SourceModeSerial, SourceModeRelay)
	}
	if c.Source.HandshakeTimeoutMS <= 0 {
		return errors.New("source.handshake_timeout_ms must be > 0")
	}

	// Serial
	if c.Serial.Device == "" {
		return errors.New("serial.device must not be empty")
	}
	if c.Serial.Baud <= 0 {
		return errors.New("serial.baud must be > 0")
	}
	if c.Serial.ReadTimeoutMS <= 0 {
		return errors.New("serial.read_timeout_ms must be > 0")
	}

	// Relay
	if c.Relay.Listen == "" {
		return errors.New("relay.listen must not be empty")
	}
	if !strings.HasPrefix(c.Relay.Path, "/") {
		return errors.New("relay.path must start with /")
	}
	if c.Relay.SendBuf < 0 {
		return errors.New("relay.send_buf must be >= 0")
	}
	if c.Relay.ReopenDelayMS <= 0 {
		return errors.New("relay.reopen_delay_ms must be > 0")
	}

	// Animation
	if err := c.ToSpeedConfig().Validate(); err != nil {
		return fmt.Errorf("animation.%w", err)
	}
	if err := c.ToSceneConfig().Validate(); err != nil {
		return fmt.Errorf("animation.%w", err)
	}

	// Display
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return errors.New("display.width and display.height must be > 0")
	}
	if c.Display.HeadlessFPS <= 0 || c.Display.HeadlessFPS > 1000 {
		return errors.New("display.headless_fps must be between 1 and 1000")
	}
	if c.Display.SnapshotEvery < 0 {
		return errors.New("display.snapshot_every must be >= 0")
	}

	// IPC
	if c.IPC.Enabled && c.IPC.SocketPath == "" {
		return errors.New("ipc.enabled is true but ipc.socket_path is empty")
	}

	// Logging
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// ToSpeedConfig converts the animation section into the conditioner tuning.
func (c *Config) ToSpeedConfig() helix.SpeedConfig {
	cfg := helix.DefaultSpeedConfig()
	cfg.MinSpeed = c.Animation.MinSpeed
	cfg.MaxSpeed = c.Animation.MaxSpeed
	cfg.InitialSpeed = c.Animation.InitialSpeed
	cfg.CycleSeconds = c.Animation.CycleSeconds
	return cfg
}

// ToSceneConfig converts the animation section into the wave composition.
func (c *Config) ToSceneConfig() helix.SceneConfig {
	cfg := helix.DefaultSceneConfig()
	cfg.Smoothing = c.Animation.Smoothing
	cfg.Amplitude = c.Animation.Amplitude
	cfg.Frequency = c.Animation.Frequency
	cfg.WaveGap = c.Animation.WaveGap
	cfg.WaveWidth = c.Animation.WaveWidth
	cfg.RungSpacing = c.Animation.RungSpacing
	cfg.Wave1Color = c.Animation.Wave1Color
	cfg.Wave2Color = c.Animation.Wave2Color
	cfg.RungColor = c.Animation.RungColor
	cfg.DotColor = c.Animation.DotColor
	cfg.Background = c.Animation.Background
	return cfg
}

// ToSerialConfig converts the serial section into port settings.
func (c *Config) ToSerialConfig() serial.Config {
	sc := serial.DefaultConfig()
	sc.Device = ExpandPath(c.Serial.Device)
	if c.Serial.Baud > 0 {
		sc.BaudRate = c.Serial.Baud
	}
	if c.Serial.ReadTimeoutMS > 0 {
		sc.ReadTimeout = time.Duration(c.Serial.ReadTimeoutMS) * time.Millisecond
	}
	return sc
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
