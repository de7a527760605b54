// benchctl drives bench instruments from the command line.
//
// A run opens one instrument, sends a sequence of commands through its
// protocol codec, and streams decoded readings to the configured sinks:
// console CSV always, SQLite history, MQTT and InfluxDB when enabled in
// config.yaml.
//
// Examples:
//
//	benchctl --device unit161d --hid /dev/hidraw3 --commands "minmax; measure"
//	benchctl --device peaktech4055mv --usb 0483:5740 --commands "apply:sin,10kHz,3V,0.4"
//	benchctl --device scpiraw --scpi 192.168.1.50:5025 --commands measure --samples 20
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/openbench/bench-core/migrations"

	"github.com/openbench/bench-core/internal/command"
	"github.com/openbench/bench-core/internal/infrastructure/config"
	"github.com/openbench/bench-core/internal/infrastructure/database"
	"github.com/openbench/bench-core/internal/infrastructure/influxdb"
	"github.com/openbench/bench-core/internal/infrastructure/logging"
	"github.com/openbench/bench-core/internal/infrastructure/mqtt"
	"github.com/openbench/bench-core/internal/instrument"
	"github.com/openbench/bench-core/internal/pipeline"
	"github.com/openbench/bench-core/internal/sink"
	"github.com/openbench/bench-core/internal/transport"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

// Exit codes distinguish failure classes for scripting.
const (
	exitOK         = 0
	exitFailure    = 1
	exitBadCommand = 2
	exitResolution = 3
	exitTransport  = 4
)

type options struct {
	device   string
	hidPath  string
	usbAddr  string
	scpiAddr string
	commands string
	config   string
	samples  int
	list     bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(exitOK)
		}
		os.Exit(exitBadCommand)
	}

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func parseFlags(args []string, errOut io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("benchctl", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&opts.device, "device", "", "instrument model name (see --list)")
	fs.StringVar(&opts.hidPath, "hid", "", "HID device path, e.g. /dev/hidraw3")
	fs.StringVar(&opts.usbAddr, "usb", "", "USB address as vid:pid hex, e.g. 0483:5740")
	fs.StringVar(&opts.scpiAddr, "scpi", "", "SCPI TCP address as host:port")
	fs.StringVar(&opts.commands, "commands", "", "semicolon-separated command expressions")
	fs.StringVar(&opts.config, "config", "", "configuration file path")
	fs.IntVar(&opts.samples, "samples", 0, "readings per measuring command (overrides config)")
	fs.BoolVar(&opts.list, "list", false, "list known instrument models and exit")
	err := fs.Parse(args)
	return opts, err
}

// exitCode maps an error to the failure class it belongs to. Parse
// errors and resolution errors occur before any hardware is touched.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, command.ErrUnknownCommand),
		errors.Is(err, command.ErrArgCount),
		errors.Is(err, command.ErrArgParse):
		return exitBadCommand
	case errors.Is(err, instrument.ErrUnknownDevice),
		errors.Is(err, instrument.ErrCapabilityMismatch),
		errors.Is(err, instrument.ErrTransportMismatch),
		errors.Is(err, transport.ErrBadAddress):
		return exitResolution
	case errors.Is(err, transport.ErrOpenFailed),
		errors.Is(err, transport.ErrIO),
		errors.Is(err, transport.ErrTimeout),
		errors.Is(err, transport.ErrClosed):
		return exitTransport
	default:
		return exitFailure
	}
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	registry := instrument.NewRegistry()

	if opts.list {
		return listModels(registry, stdout)
	}

	cfg, err := loadConfig(opts.config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.samples > 0 {
		cfg.Bench.Samples = opts.samples
	}

	log := logging.New(cfg.Logging, version)
	log.Info("starting benchctl",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	if opts.device == "" {
		return fmt.Errorf("%w: --device is required", instrument.ErrUnknownDevice)
	}
	if opts.commands == "" {
		return fmt.Errorf("%w: --commands is required", command.ErrUnknownCommand)
	}

	cmds, err := command.ParseAll(splitCommands(opts.commands))
	if err != nil {
		return err
	}

	desc, err := buildDescriptor(opts)
	if err != nil {
		return err
	}

	dev, err := instrument.Open(ctx, registry, opts.device, desc, transport.Config{
		OpenTimeout:  cfg.GetOpenTimeout(),
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	})
	if err != nil {
		return fmt.Errorf("opening %s: %w", opts.device, err)
	}
	defer func() {
		if closeErr := dev.Close(); closeErr != nil {
			log.Error("error closing instrument", "error", closeErr)
		}
	}()
	log.Info("instrument open", "model", dev.Model(), "transport", dev.Info())

	out, err := buildSinks(ctx, cfg, log, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			log.Error("error closing sinks", "error", closeErr)
		}
	}()

	p := pipeline.New(dev, out, log, pipeline.Config{
		Samples: cfg.Bench.Samples,
		Retries: cfg.Bench.Retries,
	})

	result, err := p.Run(ctx, cmds)
	if err != nil {
		return err
	}

	log.Info("run complete",
		"readings", result.Readings,
		"decode_errors", result.DecodeErrors,
		"rejected_commands", result.Rejected,
	)
	if result.SpanValid {
		log.Info("session span", "min", result.Min, "max", result.Max)
	}
	return nil
}

// loadConfig reads the configuration file. An explicitly requested file
// must exist; the default path is optional and falls back to defaults so
// benchctl works out of the box with console output only.
func loadConfig(path string) (*config.Config, error) {
	explicit := path != ""
	if !explicit {
		if env := os.Getenv("BENCHCTL_CONFIG"); env != "" {
			path = env
			explicit = true
		} else {
			path = defaultConfigPath
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// buildDescriptor turns the address flags into a transport descriptor.
// Exactly one of --hid, --usb, --scpi must be given.
func buildDescriptor(opts options) (transport.Descriptor, error) {
	given := 0
	for _, s := range []string{opts.hidPath, opts.usbAddr, opts.scpiAddr} {
		if s != "" {
			given++
		}
	}
	if given != 1 {
		return transport.Descriptor{}, fmt.Errorf(
			"%w: exactly one of --hid, --usb, --scpi required", transport.ErrBadAddress)
	}

	switch {
	case opts.hidPath != "":
		return transport.Descriptor{Kind: transport.KindHID, Path: opts.hidPath}, nil
	case opts.usbAddr != "":
		vid, pid, err := transport.ParseUSBAddress(opts.usbAddr)
		if err != nil {
			return transport.Descriptor{}, err
		}
		return transport.Descriptor{Kind: transport.KindUSB, VendorID: vid, ProductID: pid}, nil
	default:
		return transport.Descriptor{Kind: transport.KindSCPI, Address: opts.scpiAddr}, nil
	}
}

// buildSinks assembles the output fan-out: console CSV always, then the
// optional destinations the config enables.
func buildSinks(ctx context.Context, cfg *config.Config, log *logging.Logger, stdout io.Writer) (pipeline.Sink, error) {
	sinks := []pipeline.Sink{sink.NewConsole(stdout)}

	if cfg.Database.Enabled {
		db, err := database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close() //nolint:errcheck // Migration failure is the primary error
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("database connected", "path", cfg.Database.Path)
		sinks = append(sinks, sink.NewSQLite(db))
	}

	if cfg.MQTT.Enabled {
		client, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			closeSinks(sinks, log)
			return nil, fmt.Errorf("connecting to MQTT: %w", err)
		}
		client.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		client.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		sinks = append(sinks, sink.NewMQTT(client))
	}

	if cfg.InfluxDB.Enabled {
		client, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			closeSinks(sinks, log)
			return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		client.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
		sinks = append(sinks, sink.NewInflux(client))
	}

	return sink.NewMulti(sinks...), nil
}

func closeSinks(sinks []pipeline.Sink, log *logging.Logger) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			log.Error("error closing sink", "error", err)
		}
	}
}

// splitCommands splits a semicolon-separated command list, dropping
// empty segments so trailing semicolons are harmless.
func splitCommands(s string) []string {
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func listModels(registry *instrument.Registry, w io.Writer) error {
	for _, name := range registry.Names() {
		def, err := registry.Resolve(name)
		if err != nil {
			return err
		}
		transports := make([]string, 0, len(def.Transports))
		for _, k := range def.Transports {
			transports = append(transports, k.String())
		}
		fmt.Fprintf(w, "%-16s %-12s %s\n", name, strings.Join(transports, ","), def.Description)
	}
	return nil
}
