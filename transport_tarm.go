package serialmon

import (
	"errors"
	"io"

	tarm "github.com/tarm/serial"
	"go.uber.org/atomic"
)

// tarmPort adapts github.com/tarm/serial to SerialPort. tarm reports an
// elapsed read timeout as io.EOF and only offers a combined flush.
type tarmPort struct {
	port   *tarm.Port
	closed atomic.Bool
}

func openTarm(cfg Config) (SerialPort, error) {
	p, err := tarm.OpenPort(&tarm.Config{
		Name:        cfg.PortName,
		Baud:        cfg.BaudRate,
		ReadTimeout: cfg.ReadTimeout,
		Size:        byte(cfg.DataBits),
		Parity:      tarm.Parity(cfg.Parity.Letter()[0]),
		StopBits:    tarmStopBits(cfg.StopBits),
	})
	if err != nil {
		return nil, err
	}
	return &tarmPort{port: p}, nil
}

func (t *tarmPort) Read(b []byte) (int, error) {
	if t.closed.Load() {
		return 0, ErrPortNotOpen
	}
	n, err := t.port.Read(b)
	if errors.Is(err, io.EOF) {
		return n, nil
	}
	return n, err
}

func (t *tarmPort) ResetInputBuffer() error {
	if t.closed.Load() {
		return ErrPortNotOpen
	}
	return t.port.Flush()
}

func (t *tarmPort) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	return t.port.Close()
}

func tarmStopBits(sb StopBits) tarm.StopBits {
	switch sb {
	case StopBits1Half:
		return tarm.Stop1Half
	case StopBits2:
		return tarm.Stop2
	}
	return tarm.Stop1
}
