// Package cli holds the command line front ends shared by the binaries in
// cmd/. Each entry point returns a process exit code so it can be tested
// without exiting.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Station-Manager/serialmon"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

const separator = "--------------------------------------------------"

// Preset fixes the behaviour that differs between binaries.
type Preset struct {
	Name     string
	BaudRate int
	MaxLines int
	Numbered bool
	// FixedBaud ignores a positional baud rate argument.
	FixedBaud bool
}

var (
	// MonitorPreset reads until interrupted. A single positional argument
	// overrides the baud rate.
	MonitorPreset = Preset{Name: "serialmon", BaudRate: serialmon.Baud9600.Int()}

	// ProbePreset makes twenty numbered reads at 115200 baud and exits.
	ProbePreset = Preset{
		Name:      "serialprobe",
		BaudRate:  serialmon.Baud115200.Int(),
		MaxLines:  20,
		Numbered:  true,
		FixedBaud: true,
	}
)

// Env carries the process environment. Zero-valued hooks use the real
// implementations.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer

	// Opener replaces the driver chosen with -driver.
	Opener serialmon.Opener
	// Ports lists available devices for -list and for diagnostics.
	Ports func() ([]string, error)
}

func (e Env) ports() ([]string, error) {
	if e.Ports != nil {
		return e.Ports()
	}
	return serialmon.AvailablePorts()
}

type options struct {
	cfg         serialmon.Config
	parity      string
	stopBits    string
	nmea        bool
	list        bool
	logLevel    string
	logFile     string
	mqttBroker  string
	mqttTopic   string
	mqttUser    string
	mqttPass    string
	mqttQoS     uint
	mqttTimeout time.Duration
}

func parseFlags(args []string, env Env, preset Preset) (*options, error) {
	o := &options{cfg: serialmon.DefaultConfig()}
	o.cfg.BaudRate = preset.BaudRate
	o.cfg.MaxLines = preset.MaxLines
	o.cfg.Numbered = preset.Numbered

	fs := flag.NewFlagSet(preset.Name, flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags]", preset.Name)
		if !preset.FixedBaud {
			fmt.Fprint(fs.Output(), " [baud]")
		}
		fmt.Fprintln(fs.Output())
		fs.PrintDefaults()
	}

	fs.StringVar(&o.cfg.PortName, "device", o.cfg.PortName, "serial device path")
	fs.IntVar(&o.cfg.BaudRate, "baud", o.cfg.BaudRate, "baud rate")
	fs.IntVar(&o.cfg.DataBits, "databits", o.cfg.DataBits, "data bits (5-8)")
	fs.StringVar(&o.parity, "parity", "N", "parity (N,O,E,M,S)")
	fs.StringVar(&o.stopBits, "stopbits", "1", "stop bits (1, 1.5 or 2)")
	fs.IntVar(&o.cfg.MaxLines, "lines", o.cfg.MaxLines, "number of reads before exiting (0 reads until interrupted)")
	fs.BoolVar(&o.cfg.Numbered, "numbered", o.cfg.Numbered, "prefix each line with its read index")
	fs.DurationVar(&o.cfg.SettleDelay, "settle", o.cfg.SettleDelay, "wait after opening before flushing stale input")
	fs.DurationVar(&o.cfg.ReadTimeout, "read-timeout", o.cfg.ReadTimeout, "per-read timeout")
	fs.StringVar(&o.cfg.Driver, "driver", o.cfg.Driver, "serial backend ("+strings.Join(serialmon.Drivers(), ", ")+")")
	fs.StringVar(&o.cfg.Encoding, "encoding", o.cfg.Encoding, "text encoding of device output (utf-8, ascii, latin-1, windows-1252)")
	fs.BoolVar(&o.nmea, "nmea", false, "annotate NMEA sentences with decoded position data")
	fs.BoolVar(&o.list, "list", false, "list available serial ports and exit")
	fs.StringVar(&o.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&o.logFile, "log-file", "", "also write JSON logs to this file, rotated at 10MB")
	fs.StringVar(&o.mqttBroker, "mqtt-broker", "", "also publish lines to this MQTT broker, e.g. tcp://localhost:1883")
	fs.StringVar(&o.mqttTopic, "mqtt-topic", "serialmon/lines", "MQTT topic for published lines")
	fs.StringVar(&o.mqttUser, "mqtt-username", "", "MQTT username")
	fs.StringVar(&o.mqttPass, "mqtt-password", "", "MQTT password")
	fs.UintVar(&o.mqttQoS, "mqtt-qos", 0, "MQTT quality of service (0-2)")
	fs.DurationVar(&o.mqttTimeout, "mqtt-timeout", time.Second, "MQTT publish timeout")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch {
	case fs.NArg() > 1:
		fs.Usage()
		return nil, fmt.Errorf("too many arguments: %v", fs.Args())
	case fs.NArg() == 1 && preset.FixedBaud:
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	case fs.NArg() == 1:
		baud, err := serialmon.ParseBaudRate(fs.Arg(0))
		if err != nil {
			return nil, err
		}
		o.cfg.BaudRate = baud.Int()
	}

	var err error
	if o.cfg.Parity, err = serialmon.ParseParity(o.parity); err != nil {
		return nil, err
	}
	if o.cfg.StopBits, err = serialmon.ParseStopBits(o.stopBits); err != nil {
		return nil, err
	}
	if o.mqttQoS > 2 {
		return nil, fmt.Errorf("invalid mqtt qos %d (use 0, 1 or 2)", o.mqttQoS)
	}
	return o, nil
}

// Run parses args, relays the device's lines to env.Stdout and returns the
// exit code: 0 on completion or interrupt, 1 on a device or configuration
// error, 2 on bad usage.
func Run(ctx context.Context, args []string, env Env, preset Preset) int {
	o, err := parseFlags(args, env, preset)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		fmt.Fprintf(env.Stderr, "%s: %v\n", preset.Name, err)
		return ExitUsage
	}

	if o.list {
		return listPorts(env)
	}

	var extra []io.Writer
	if o.logFile != "" {
		lf := serialmon.NewLogFile(o.logFile)
		defer lf.Close()
		extra = append(extra, lf)
	}
	logger, err := serialmon.NewLogger(env.Stderr, o.logLevel, extra...)
	if err != nil {
		fmt.Fprintf(env.Stderr, "%s: %v\n", preset.Name, err)
		return ExitUsage
	}

	cfg := o.cfg
	if !serialmon.LooksLikeSerialPort(cfg.PortName) {
		logger.Warn().Str("port", cfg.PortName).Msg("device path does not look like a serial port")
	}
	if !serialmon.BaudRate(cfg.BaudRate).IsStandard() {
		logger.Warn().Int("baud", cfg.BaudRate).Msg("non-standard baud rate")
	}

	var sink serialmon.Sink = serialmon.NewConsoleSink(env.Stdout, cfg.Numbered)
	if o.nmea {
		sink = serialmon.NewNMEAFormatter(sink)
	}
	opts := []serialmon.Option{serialmon.WithLogger(logger), serialmon.WithSink(sink)}
	if env.Opener != nil {
		opts = append(opts, serialmon.WithOpener(env.Opener))
	}

	if o.mqttBroker != "" {
		if err := serialmon.ValidateConfig(&cfg); err != nil {
			return reportError(env, err)
		}
		mq, err := serialmon.NewMQTTSink(serialmon.MQTTConfig{
			BrokerAddress:  o.mqttBroker,
			Topic:          o.mqttTopic,
			Username:       o.mqttUser,
			Password:       o.mqttPass,
			QoS:            byte(o.mqttQoS),
			PublishTimeout: o.mqttTimeout,
		}, logger)
		if err != nil {
			return reportError(env, err)
		}
		opts = append(opts, serialmon.WithSink(mq))
	}

	opts = append(opts,
		serialmon.WithOnOpen(func() {
			if cfg.SettleDelay > 0 {
				fmt.Fprintf(env.Stdout, "Waiting for device to initialize (%s)...\n", cfg.SettleDelay)
			}
		}),
		serialmon.WithOnReady(func() {
			if cfg.Bounded() {
				fmt.Fprintf(env.Stdout, "Reading %d lines (Ctrl+C to stop):\n", cfg.MaxLines)
			} else {
				fmt.Fprintln(env.Stdout, "Reading output (Ctrl+C to stop):")
			}
			fmt.Fprintln(env.Stdout, separator)
		}),
	)

	mon, err := serialmon.New(cfg, opts...)
	if err != nil {
		return reportError(env, err)
	}

	fmt.Fprintf(env.Stdout, "Opening %s at %d baud...\n", cfg.PortName, cfg.BaudRate)

	err = mon.Run(ctx)
	stats := mon.Stats()
	logger.Debug().Object("stats", stats).Msg("finished")
	if stats.ReplacementRate > 10 {
		logger.Warn().
			Float64("undecodable_pct", stats.ReplacementRate).
			Int("baud", cfg.BaudRate).
			Msg("much of the output did not decode, check the baud rate matches the device")
	}
	if err != nil {
		return reportError(env, err)
	}

	if ctx.Err() != nil {
		fmt.Fprintln(env.Stdout, "\n\nStopped by user")
		return ExitOK
	}
	fmt.Fprintln(env.Stdout, separator)
	return ExitOK
}

// reportError prints err with troubleshooting steps to stdout.
func reportError(env Env, err error) int {
	fmt.Fprintf(env.Stdout, "\nError: %v\n", err)

	var te *serialmon.TransportError
	if !errors.As(err, &te) {
		return ExitError
	}

	fmt.Fprintln(env.Stdout, "\nTroubleshooting:")
	for i, r := range te.Remedies() {
		fmt.Fprintf(env.Stdout, "  %d. %s\n", i+1, r)
	}

	if te.Kind == serialmon.KindNotFound {
		if ports, perr := env.ports(); perr == nil {
			if len(ports) == 0 {
				fmt.Fprintln(env.Stdout, "\nNo serial ports found.")
			} else {
				fmt.Fprintf(env.Stdout, "\nAvailable ports: %s\n", strings.Join(ports, ", "))
			}
		}
	}
	return ExitError
}

func listPorts(env Env) int {
	ports, err := env.ports()
	if err != nil {
		fmt.Fprintf(env.Stdout, "Error: listing ports: %v\n", err)
		return ExitError
	}
	if len(ports) == 0 {
		fmt.Fprintln(env.Stdout, "No serial ports found.")
		return ExitOK
	}
	for _, p := range ports {
		fmt.Fprintln(env.Stdout, p)
	}
	return ExitOK
}
