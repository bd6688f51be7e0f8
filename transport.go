package serialmon

import (
	"time"

	gobug "go.bug.st/serial"
)

// SerialPort abstracts the subset of a serial port used by the reader.
// Read must return (0, nil) when the read timeout elapses with no data.
type SerialPort interface {
	Read(p []byte) (int, error)
	ResetInputBuffer() error
	Close() error
}

// Opener opens the device described by cfg and applies its read timeout.
type Opener func(cfg Config) (SerialPort, error)

// allow tests to override external dependencies
var (
	bugstOpen    = func(name string, mode *gobug.Mode) (bugstHandle, error) { return gobug.Open(name, mode) }
	getPortsList = gobug.GetPortsList
)

// bugstHandle is the part of go.bug.st/serial.Port the bugst driver needs.
type bugstHandle interface {
	SerialPort
	SetReadTimeout(t time.Duration) error
}

func openBugst(cfg Config) (SerialPort, error) {
	mode := &gobug.Mode{
		BaudRate: BaudRate(cfg.BaudRate).Int(),
		DataBits: DataBits(cfg.DataBits).Int(),
		Parity:   cfg.Parity.Get(),
		StopBits: cfg.StopBits.Get(),
	}

	p, err := bugstOpen(cfg.PortName, mode)
	if err != nil {
		return nil, err
	}

	if err = p.SetReadTimeout(cfg.ReadTimeout); err != nil {
		return nil, closeAfterError(p, err)
	}
	return p, nil
}
