//go:build linux

package serialmon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flushSignal reports when the monitor has discarded stale input so the test
// writes only after the flush.
type flushSignal struct {
	SerialPort
	once    sync.Once
	flushed chan struct{}
}

func (f *flushSignal) ResetInputBuffer() error {
	err := f.SerialPort.ResetInputBuffer()
	f.once.Do(func() { close(f.flushed) })
	return err
}

func TestMonitor_PseudoTerminal(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	cfg := testConfig()
	cfg.PortName = tty.Name()
	cfg.ReadTimeout = 100 * time.Millisecond

	if probe, err := openBugst(cfg); err != nil {
		t.Skipf("cannot open %s as a serial port: %v", cfg.PortName, err)
	} else {
		require.NoError(t, probe.Close())
	}

	flushed := make(chan struct{})
	opener := func(c Config) (SerialPort, error) {
		p, err := openBugst(c)
		if err != nil {
			return nil, err
		}
		return &flushSignal{SerialPort: p, flushed: flushed}, nil
	}

	sink := &recordingSink{}
	m, err := New(cfg, WithOpener(opener), WithSink(sink))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case <-flushed:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor never flushed the port")
	}
	_, err = ptmx.Write([]byte("hello\r\n\nworld\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.lines) == 2
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop after cancel")
	}

	assert.Equal(t, []string{"hello", "world"}, sink.lines)
	assert.Equal(t, StateClosed, m.State())
}
