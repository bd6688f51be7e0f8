package serialmon

import (
	"fmt"
	"strconv"
	"strings"
)

type BaudRate int

func (b BaudRate) Int() int {
	return int(b)
}

// IsStandard reports whether b is one of the rates most UARTs and USB-serial
// bridges support out of the box.
func (b BaudRate) IsStandard() bool {
	for _, v := range standardBaudRates {
		if v == b {
			return true
		}
	}
	return false
}

const (
	Baud1200   BaudRate = 1200
	Baud2400   BaudRate = 2400
	Baud4800   BaudRate = 4800
	Baud9600   BaudRate = 9600
	Baud19200  BaudRate = 19200
	Baud38400  BaudRate = 38400
	Baud57600  BaudRate = 57600
	Baud115200 BaudRate = 115200
	Baud230400 BaudRate = 230400
	Baud460800 BaudRate = 460800
	Baud921600 BaudRate = 921600
)

var standardBaudRates = []BaudRate{
	Baud1200, Baud2400, Baud4800, Baud9600, Baud19200, Baud38400,
	Baud57600, Baud115200, Baud230400, Baud460800, Baud921600,
}

// ParseBaudRate parses a positive decimal baud rate such as "115200".
func ParseBaudRate(s string) (BaudRate, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid baud rate %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid baud rate %q: must be positive", s)
	}
	return BaudRate(n), nil
}
