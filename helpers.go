package serialmon

import (
	"errors"
	"io"
	"strings"
)

// AvailablePorts lists the serial devices the OS currently exposes.
func AvailablePorts() ([]string, error) {
	ports, err := getPortsList()
	if err != nil {
		return nil, err
	}
	return ports, nil
}

// LooksLikeSerialPort reports whether portName has the shape of a serial
// device path: COMn on Windows, /dev/tty* or /dev/cu* elsewhere.
func LooksLikeSerialPort(portName string) bool {
	if strings.Contains(portName, "..") {
		return false
	}
	// Windows: COM1-COM999 (must have at least one digit after COM)
	if strings.HasPrefix(portName, "COM") && len(portName) >= 4 && len(portName) <= 6 {
		return true
	}
	// Unix/Linux: /dev/tty* or /dev/cu* (macOS)
	if strings.HasPrefix(portName, "/dev/tty") || strings.HasPrefix(portName, "/dev/cu") {
		return true
	}
	return false
}

// closeAfterError closes c and joins any error from closing with the original error
func closeAfterError(c io.Closer, err error) error {
	if e := c.Close(); e != nil {
		err = errors.Join(err, e)
	}
	return err
}
