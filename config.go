package serialmon

import (
	"runtime"
	"time"
)

const (
	// DefaultReadTimeout bounds how long a single line read may block.
	DefaultReadTimeout = time.Second

	// DefaultSettleDelay gives boards that reset on open (most Arduinos) time
	// to get through their bootloader before we start listening.
	DefaultSettleDelay = 2 * time.Second

	// DefaultMaxLineSize caps how many bytes are buffered while waiting for a
	// delimiter. Longer lines are emitted in chunks of this size.
	DefaultMaxLineSize = 4096

	DefaultDelimiter = '\n'
	DefaultEncoding  = EncodingUTF8
)

// Config holds everything needed to open a port and relay its lines.
type Config struct {
	// PortName is the path to the serial device, e.g. /dev/ttyACM0.
	PortName string

	BaudRate int
	DataBits int
	Parity   Parity
	StopBits StopBits

	// ReadTimeout is the underlying port read timeout.
	ReadTimeout time.Duration

	// SettleDelay is how long to wait after opening before the input buffer
	// is flushed. Zero disables the wait.
	SettleDelay time.Duration

	// MaxLines, when positive, bounds the number of read iterations.
	// Zero reads until the context is cancelled.
	MaxLines int

	// Numbered prefixes console output with the 1-based iteration index.
	Numbered bool

	// Driver selects the serial backend, see Drivers().
	Driver string

	// Encoding names the text encoding used to decode lines.
	Encoding string

	// Delimiter terminates a line. If zero, '\n' is used.
	Delimiter byte

	MaxLineSize int
}

// DefaultConfig returns the configuration used when nothing is overridden:
// the platform's usual USB-serial device at 9600 baud, 8N1.
func DefaultConfig() Config {
	return Config{
		PortName:    DefaultPortName(),
		BaudRate:    Baud9600.Int(),
		DataBits:    DataBits8.Int(),
		Parity:      ParityNone,
		StopBits:    StopBits1,
		ReadTimeout: DefaultReadTimeout,
		SettleDelay: DefaultSettleDelay,
		Driver:      DefaultDriver,
		Encoding:    DefaultEncoding,
		Delimiter:   DefaultDelimiter,
		MaxLineSize: DefaultMaxLineSize,
	}
}

// DefaultPortName returns the device path an Arduino-class board usually
// shows up as on the current platform.
func DefaultPortName() string {
	switch runtime.GOOS {
	case "windows":
		return "COM3"
	case "darwin":
		return "/dev/cu.usbmodem1101"
	default:
		return "/dev/ttyACM0"
	}
}

// Bounded reports whether the reader stops after MaxLines iterations.
func (c Config) Bounded() bool {
	return c.MaxLines > 0
}

// withDefaults fills zero values that have an obvious default.
func (c Config) withDefaults() Config {
	if c.DataBits == 0 {
		c.DataBits = DataBits8.Int()
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if c.Encoding == "" {
		c.Encoding = DefaultEncoding
	}
	if c.Delimiter == 0 {
		c.Delimiter = DefaultDelimiter
	}
	if c.MaxLineSize == 0 {
		c.MaxLineSize = DefaultMaxLineSize
	}
	return c
}
