package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"potwave/internal/helix"
)

const version = "1.0.0"

func printVersion() {
	build := "window"
	if headlessBuild {
		build = "headless"
	}
	fmt.Printf("potwave v%s (%s build)\n", version, build)
	fmt.Println("Potentiometer-driven DNA helix wave animation")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  potwave [OPTIONS]")
	fmt.Println("  potwave relay [OPTIONS]")
	fmt.Println("  potwave ctl [-ipc-socket PATH] connect|status|sample N")
	fmt.Println("  potwave ports")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Draws two phase-shifted sine waves joined by rungs and pulsing dots.")
	fmt.Println("  Potentiometer samples (0-1023) read from a serial port, or from a")
	fmt.Println("  potwave relay over WebSocket, set how fast the helix turns.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        YAML config file (flags override file values)")
	fmt.Println()
	fmt.Println("  -source string")
	fmt.Println("        Sample source: serial|relay (default \"serial\")")
	fmt.Println()
	fmt.Println("  -serial-device string")
	fmt.Printf("        Serial device (default %q)\n", defaultSerialDevice)
	fmt.Println()
	fmt.Println("  -serial-baud int")
	fmt.Printf("        Serial baud rate (default %d)\n", defaultSerialBaud)
	fmt.Println()
	fmt.Println("  -relay-url string")
	fmt.Printf("        Relay WebSocket URL for -source relay (default %q)\n", defaultRelayURL)
	fmt.Println()
	fmt.Println("  -auto-connect")
	fmt.Println("        Connect at start-up instead of waiting for the Connect button")
	fmt.Println()
	fmt.Println("  -width int, -height int")
	fmt.Printf("        Initial window size (default %dx%d)\n", defaultWindowWidth, defaultWindowHeight)
	fmt.Println()
	fmt.Println("  -show-status")
	fmt.Println("        Draw a speed/link status line under the Connect button")
	fmt.Println()
	fmt.Println("  -headless-fps int")
	fmt.Printf("        Frame rate in headless builds (default %d)\n", defaultHeadlessFPS)
	fmt.Println()
	fmt.Println("  -snapshot-dir string, -snapshot-every int")
	fmt.Println("        Headless builds: write every Nth frame as PNG into the directory")
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Printf("        Unix domain socket path for IPC (default %q)\n", defaultIPCSocket)
	fmt.Println()
	fmt.Println("  -no-ipc")
	fmt.Println("        Do not open the IPC socket")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("SUBCOMMANDS:")
	fmt.Println("  relay")
	fmt.Println("        Read the serial port and republish each line to WebSocket subscribers")
	fmt.Println("        Options: -config, -serial-device, -serial-baud, -relay-listen, -relay-path, -log-level")
	fmt.Println("  ctl")
	fmt.Println("        Send connect/status/sample to a running viewer over IPC")
	fmt.Println("  ports")
	fmt.Println("        List candidate serial devices")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Read an Arduino on the default port, connect immediately")
	fmt.Println("  potwave -auto-connect")
	fmt.Println()
	fmt.Println("  # Share one Arduino with several viewers")
	fmt.Println("  potwave relay -serial-device /dev/ttyUSB0")
	fmt.Println("  potwave -source relay -relay-url ws://pi.local:8080/ws")
	fmt.Println()
	fmt.Println("  # Drive the helix without hardware")
	fmt.Println("  potwave ctl sample 900")
	fmt.Println()
}

// cliFlags holds the raw flag values; overrides() keeps only the ones the
// user actually set so file values are not clobbered by flag defaults.
type cliFlags struct {
	config *string

	sourceMode  *string
	relayURL    *string
	autoConnect *bool

	serialDevice *string
	serialBaud   *int

	relayListen *string
	relayPath   *string

	width         *int
	height        *int
	showStatus    *bool
	headlessFPS   *int
	snapshotDir   *string
	snapshotEvery *int

	ipcSocket *string
	noIPC     *bool

	logLevel *string
}

func registerSharedFlags(fs *flag.FlagSet) *cliFlags {
	d := DefaultConfig()
	return &cliFlags{
		config:       fs.String("config", "", "YAML config file"),
		serialDevice: fs.String("serial-device", d.Serial.Device, "Serial device"),
		serialBaud:   fs.Int("serial-baud", d.Serial.Baud, "Serial baud rate"),
		logLevel:     fs.String("log-level", d.Logging.Level, "Log level: error, warn, info, debug"),
	}
}

func registerViewerFlags(fs *flag.FlagSet) *cliFlags {
	d := DefaultConfig()
	f := registerSharedFlags(fs)
	f.sourceMode = fs.String("source", d.Source.Mode, "Sample source: serial|relay")
	f.relayURL = fs.String("relay-url", d.Source.RelayURL, "Relay WebSocket URL")
	f.autoConnect = fs.Bool("auto-connect", d.Source.AutoConnect, "Connect at start-up")
	f.width = fs.Int("width", d.Display.Width, "Initial window width")
	f.height = fs.Int("height", d.Display.Height, "Initial window height")
	f.showStatus = fs.Bool("show-status", d.Display.ShowStatus, "Draw a status line")
	f.headlessFPS = fs.Int("headless-fps", d.Display.HeadlessFPS, "Headless frame rate")
	f.snapshotDir = fs.String("snapshot-dir", d.Display.SnapshotDir, "Headless PNG snapshot directory")
	f.snapshotEvery = fs.Int("snapshot-every", d.Display.SnapshotEvery, "Write every Nth frame (0 = never)")
	f.ipcSocket = fs.String("ipc-socket", d.IPC.SocketPath, "Unix domain socket path for IPC")
	f.noIPC = fs.Bool("no-ipc", false, "Do not open the IPC socket")
	return f
}

func registerRelayFlags(fs *flag.FlagSet) *cliFlags {
	d := DefaultConfig()
	f := registerSharedFlags(fs)
	f.relayListen = fs.String("relay-listen", d.Relay.Listen, "Relay listen address")
	f.relayPath = fs.String("relay-path", d.Relay.Path, "Relay WebSocket path")
	return f
}

func (f *cliFlags) overrides(fs *flag.FlagSet) FlagOverrides {
	var o FlagOverrides
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "source":
			o.SourceMode = f.sourceMode
		case "relay-url":
			o.RelayURL = f.relayURL
		case "auto-connect":
			o.AutoConnect = f.autoConnect
		case "serial-device":
			o.SerialDevice = f.serialDevice
		case "serial-baud":
			o.SerialBaud = f.serialBaud
		case "relay-listen":
			o.RelayListen = f.relayListen
		case "relay-path":
			o.RelayPath = f.relayPath
		case "width":
			o.Width = f.width
		case "height":
			o.Height = f.height
		case "show-status":
			o.ShowStatus = f.showStatus
		case "headless-fps":
			o.HeadlessFPS = f.headlessFPS
		case "snapshot-dir":
			o.SnapshotDir = f.snapshotDir
		case "snapshot-every":
			o.SnapshotEvery = f.snapshotEvery
		case "ipc-socket":
			o.IPCSocketPath = f.ipcSocket
		case "no-ipc":
			enabled := !*f.noIPC
			o.IPCEnabled = &enabled
		case "log-level":
			o.LogLevel = f.logLevel
		}
	})
	return o
}

// loadConfig layers defaults, the optional file, and flag overrides, then
// validates the result.
func loadConfig(path string, o FlagOverrides) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadConfigFile(path); err != nil {
			return Config{}, err
		}
	}
	o.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func mustLoad(fs *flag.FlagSet, f *cliFlags) (Config, *slog.Logger) {
	cfg, err := loadConfig(*f.config, f.overrides(fs))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	level, _ := parseLogLevel(cfg.Logging.Level) // checked by Validate
	return cfg, setupLogger(level)
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "relay":
			runRelaySubcommand(os.Args[2:])
			return
		case "ctl":
			os.Exit(runCtlSubcommand(os.Args[2:], os.Stdout, os.Stderr))
		case "ports":
			os.Exit(runPortsSubcommand(os.Stdout, os.Stderr))
		}
	}

	fs := flag.NewFlagSet("potwave", flag.ExitOnError)
	f := registerViewerFlags(fs)
	showVersion := fs.Bool("version", false, "Print version and exit")
	showHelp := fs.Bool("help", false, "Print help message")
	fs.Usage = printUsage
	fs.Parse(os.Args[1:])

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	cfg, logger := mustLoad(fs, f)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runViewer(ctx, &cfg, logger); err != nil {
		logger.Error("viewer stopped", "error", err)
		os.Exit(1)
	}
}

// runViewer wires source, daemon, IPC and display together. The display runs
// on the calling goroutine (windowing needs the main thread); everything
// else runs in an errgroup and stops when the display returns.
func runViewer(ctx context.Context, cfg *Config, logger *slog.Logger) error {
	speedCfg := cfg.ToSpeedConfig()
	renderer, err := helix.NewRenderer(cfg.ToSceneConfig())
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}

	src, err := newSampleSource(cfg)
	if err != nil {
		return err
	}

	events := make(chan Event, eventQueueSize)
	slot := &helix.TargetSlot{}
	link := &linkView{}

	disp, err := newDisplay(displayDeps{
		cfg:    cfg.Display,
		scene:  renderer.Scene(),
		link:   link,
		events: events,
		logger: logger,
	})
	if err != nil {
		return err
	}

	initial := helix.NewSpeedState(speedCfg)
	loop := helix.NewLoop(renderer, slot, disp, initial)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	connector := NewConnector(gctx, src, events, logger)
	env := &effectEnv{
		slot:         slot,
		link:         link,
		connector:    connector,
		currentSpeed: loop.CurrentSpeed,
	}
	state := NewDaemonState(initial, src.Describe())

	g.Go(func() error {
		runDaemon(gctx, events, helix.NewConditioner(speedCfg), env, state, logger)
		return nil
	})
	if cfg.IPC.Enabled {
		g.Go(func() error {
			return runIPCServer(gctx, ExpandPath(cfg.IPC.SocketPath), events, logger)
		})
	}

	logger.Info("starting potwave",
		"version", version,
		"source", src.Describe(),
		"auto_connect", cfg.Source.AutoConnect,
		"ipc", cfg.IPC.Enabled)

	if cfg.Source.AutoConnect {
		events <- ConnectRequested{}
	}

	dispErr := disp.Run(gctx, loop)
	cancel()
	werr := g.Wait()
	connector.Wait()

	if dispErr != nil {
		return dispErr
	}
	return werr
}

func printRelayUsage() {
	fmt.Printf("potwave relay v%s\n", version)
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  potwave relay [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Owns the serial port and republishes every received line, verbatim,")
	fmt.Println("  as a WebSocket text frame to all subscribers. New subscribers get the")
	fmt.Println("  most recent line immediately. GET /healthz reports counters.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        YAML config file")
	fmt.Println("  -serial-device string")
	fmt.Printf("        Serial device (default %q)\n", defaultSerialDevice)
	fmt.Println("  -serial-baud int")
	fmt.Printf("        Serial baud rate (default %d)\n", defaultSerialBaud)
	fmt.Println("  -relay-listen string")
	fmt.Printf("        Listen address (default %q)\n", defaultRelayListen)
	fmt.Println("  -relay-path string")
	fmt.Printf("        WebSocket path (default %q)\n", defaultRelayPath)
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
}

func runRelaySubcommand(args []string) {
	fs := flag.NewFlagSet("relay", flag.ExitOnError)
	f := registerRelayFlags(fs)
	showHelp := fs.Bool("help", false, "Print help message")
	fs.Usage = printRelayUsage
	fs.Parse(args)

	if *showHelp {
		printRelayUsage()
		return
	}

	cfg, logger := mustLoad(fs, f)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting relay",
		"version", version,
		"device", cfg.Serial.Device,
		"baud", cfg.Serial.Baud,
		"listen", cfg.Relay.Listen,
		"path", cfg.Relay.Path)

	if err := runRelay(ctx, &cfg, logger); err != nil {
		logger.Error("relay stopped", "error", err)
		os.Exit(1)
	}
}
