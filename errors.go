package serialmon

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"syscall"

	gobug "go.bug.st/serial"
)

var (
	ErrClosed          = errors.New("serialmon: port closed")
	ErrPortNotOpen     = errors.New("serialmon: port not open")
	ErrUnknownDriver   = errors.New("serialmon: unknown driver")
	ErrUnknownEncoding = errors.New("serialmon: unknown encoding")
)

// ErrorKind groups transport failures by what the user can do about them.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindBusy
	KindPermissionDenied
	KindDisconnected
	KindInvalidConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindBusy:
		return "busy"
	case KindPermissionDenied:
		return "permission denied"
	case KindDisconnected:
		return "disconnected"
	case KindInvalidConfig:
		return "invalid configuration"
	}
	return "transport error"
}

// TransportError reports a failure to open, flush or read the device. It is
// the only error kind that ends a run; decode problems are repaired in place.
type TransportError struct {
	Op   string
	Port string
	Kind ErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("serialmon: %s %s: %s: %v", e.Op, e.Port, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Remedies returns human-readable troubleshooting steps, most specific first.
func (e *TransportError) Remedies() []string {
	var out []string
	switch e.Kind {
	case KindPermissionDenied:
		out = append(out, "Add your user to the dialout group: sudo usermod -aG dialout $USER (then log in again)")
	case KindNotFound:
		out = append(out, "Check the device path, or run with -list to see available ports")
	case KindDisconnected:
		out = append(out, "Reconnect the device and start again")
	case KindInvalidConfig:
		out = append(out, "Check baud rate, data bits, parity and stop bits against the device")
	}
	out = append(out,
		"Close Arduino IDE Serial Monitor (or any other program holding the port)",
		"Check: lsof "+e.Port,
		"Verify the device is connected: ls -la "+portGlob(e.Port),
	)
	return out
}

// newTransportError wraps err unless it already is a *TransportError.
func newTransportError(op, port string, err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	return &TransportError{Op: op, Port: port, Kind: classify(err), Err: err}
}

func classify(err error) ErrorKind {
	var pe *gobug.PortError
	if errors.As(err, &pe) {
		switch pe.Code() {
		case gobug.PortNotFound, gobug.InvalidSerialPort:
			return KindNotFound
		case gobug.PortBusy:
			return KindBusy
		case gobug.PermissionDenied:
			return KindPermissionDenied
		case gobug.PortClosed:
			return KindDisconnected
		case gobug.InvalidSpeed, gobug.InvalidDataBits, gobug.InvalidParity,
			gobug.InvalidStopBits, gobug.InvalidTimeoutValue:
			return KindInvalidConfig
		}
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, syscall.EBUSY):
		return KindBusy
	case errors.Is(err, syscall.EIO), errors.Is(err, syscall.ENXIO),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, ErrClosed), errors.Is(err, ErrPortNotOpen), errors.Is(err, fs.ErrClosed):
		return KindDisconnected
	}
	return KindUnknown
}

// portGlob turns /dev/ttyACM0 into /dev/ttyACM* for listing siblings.
func portGlob(port string) string {
	dir, base := filepath.Split(port)
	base = strings.TrimRight(base, "0123456789")
	if base == "" {
		return port
	}
	return dir + base + "*"
}
