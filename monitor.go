package serialmon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// State is the connection state of a Monitor.
type State int32

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Monitor relays decoded lines from one serial device to its sinks.
// A Monitor owns at most one open port at a time and closes it on every
// exit path of Run.
type Monitor struct {
	cfg     Config
	open    Opener
	decoder *Decoder
	sinks   []Sink
	logger  zerolog.Logger
	stats   *Stats

	onOpen  func()
	onReady func()

	state   atomic.Int32
	running atomic.Bool
	closeMu sync.Mutex
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithOpener overrides the driver selected by Config.Driver.
func WithOpener(open Opener) Option {
	return func(m *Monitor) { m.open = open }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Monitor) { m.logger = logger }
}

// WithOnOpen registers fn to run once the port has opened, before the
// settle delay.
func WithOnOpen(fn func()) Option {
	return func(m *Monitor) { m.onOpen = fn }
}

// WithOnReady registers fn to run after stale input has been flushed, just
// before the first read.
func WithOnReady(fn func()) Option {
	return func(m *Monitor) { m.onReady = fn }
}

// WithSink adds a destination for emitted lines. Sinks receive lines in the
// order they were added and are closed when Run returns.
func WithSink(s Sink) Option {
	return func(m *Monitor) { m.sinks = append(m.sinks, s) }
}

// New validates cfg and prepares a Monitor. Zero-valued fields with an
// obvious default (data bits, read timeout, driver, encoding, delimiter,
// max line size) are filled in first.
func New(cfg Config, opts ...Option) (*Monitor, error) {
	cfg = cfg.withDefaults()
	if err := ValidateConfig(&cfg); err != nil {
		return nil, &TransportError{Op: "configure", Port: cfg.PortName, Kind: KindInvalidConfig, Err: err}
	}

	m := &Monitor{
		cfg:    cfg,
		logger: zerolog.Nop(),
		stats:  &Stats{},
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.open == nil {
		open, err := LookupDriver(cfg.Driver)
		if err != nil {
			return nil, err
		}
		m.open = open
	}

	dec, err := NewDecoder(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	m.decoder = dec

	return m, nil
}

// Config returns the effective configuration, defaults applied.
func (m *Monitor) Config() Config {
	return m.cfg
}

func (m *Monitor) State() State {
	return State(m.state.Load())
}

func (m *Monitor) Stats() StatsSnapshot {
	return m.stats.Snapshot()
}

// Run opens the port, waits SettleDelay, discards stale input and relays
// lines until ctx is cancelled or, when MaxLines is set, until that many
// reads have been made.
//
// Cancellation is a normal stop and returns nil. Failing to open, flush or
// (outside bounded mode) read the device returns a *TransportError. In
// bounded mode read errors are logged and the next iteration proceeds.
func (m *Monitor) Run(ctx context.Context) (err error) {
	if !m.running.CompareAndSwap(false, true) {
		return errors.New("serialmon: monitor is already running")
	}
	defer m.running.Store(false)
	defer func() {
		if cerr := m.closeSinks(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing sinks: %w", cerr))
		}
	}()

	log := m.logger.With().Str("port", m.cfg.PortName).Int("baud", m.cfg.BaudRate).Logger()

	m.stats.OpenAttempts.Inc()
	port, err := m.open(m.cfg)
	if err != nil {
		m.stats.OpenFailures.Inc()
		return newTransportError("open", m.cfg.PortName, err)
	}
	m.state.Store(int32(StateOpen))
	m.stats.markOpened()
	log.Debug().Str("driver", m.cfg.Driver).Msg("port opened")

	defer func() {
		if cerr := m.closePort(port); cerr != nil {
			log.Warn().Err(cerr).Msg("closing port")
			if err == nil {
				err = newTransportError("close", m.cfg.PortName, cerr)
			}
		}
		log.Debug().Object("stats", m.stats.Snapshot()).Msg("port closed")
	}()

	if m.onOpen != nil {
		m.onOpen()
	}

	if m.cfg.SettleDelay > 0 {
		log.Debug().Dur("delay", m.cfg.SettleDelay).Msg("waiting for device to initialize")
		if !sleepContext(ctx, m.cfg.SettleDelay) {
			log.Info().Msg("interrupted while waiting for device")
			return nil
		}
	}

	if err = port.ResetInputBuffer(); err != nil {
		return newTransportError("flush", m.cfg.PortName, err)
	}
	if m.onReady != nil {
		m.onReady()
	}

	reader := NewLineReader(port, m.cfg.Delimiter, m.cfg.MaxLineSize, m.cfg.ReadTimeout)
	defer reader.Release()

	for i := 1; !m.cfg.Bounded() || i <= m.cfg.MaxLines; i++ {
		if ctx.Err() != nil {
			log.Info().Msg("interrupted")
			return nil
		}

		line, rerr := reader.ReadLine()
		m.stats.Iterations.Inc()
		if rerr != nil {
			if ctx.Err() != nil {
				log.Info().Msg("interrupted")
				return nil
			}
			m.stats.ReadErrors.Inc()
			if m.cfg.Bounded() {
				log.Warn().Err(rerr).Int("iteration", i).Msg("error reading line")
				continue
			}
			return newTransportError("read", m.cfg.PortName, rerr)
		}
		if !line.Complete && !line.Truncated {
			m.stats.Timeouts.Inc()
		}
		m.stats.BytesRead.Add(int64(len(line.Raw)))

		text, replaced := m.decoder.Decode(line.Raw)
		if replaced > 0 {
			m.stats.ReplacedBytes.Add(int64(replaced))
			log.Debug().Int("replaced", replaced).Int("iteration", i).Msg("replaced undecodable bytes")
		}

		text = strings.TrimSpace(text)
		if text == "" {
			if len(line.Raw) > 0 {
				m.stats.BlankLines.Inc()
			}
			continue
		}

		if err = m.emit(i, text); err != nil {
			return fmt.Errorf("emitting line %d: %w", i, err)
		}
	}

	log.Debug().Int("iterations", m.cfg.MaxLines).Msg("line limit reached")
	return nil
}

func (m *Monitor) emit(index int, line string) error {
	for _, s := range m.sinks {
		if err := s.Emit(index, line); err != nil {
			m.stats.SinkErrors.Inc()
			return err
		}
	}
	m.stats.LinesEmitted.Inc()
	return nil
}

func (m *Monitor) closePort(port SerialPort) error {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()
	if State(m.state.Load()) == StateClosed {
		return nil
	}
	m.state.Store(int32(StateClosed))
	m.stats.markClosed()
	return port.Close()
}

func (m *Monitor) closeSinks() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// sleepContext waits for d and reports whether it elapsed before ctx ended.
func sleepContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
