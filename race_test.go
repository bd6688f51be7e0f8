package serialmon

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// slowPort trickles data with a delay on every read to widen the window for
// races between the read loop and concurrent observers.
type slowPort struct {
	readDelay  time.Duration
	closed     atomic.Bool
	readCount  atomic.Int64
	closeCount atomic.Int64
}

func (s *slowPort) Read(b []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrPortNotOpen
	}
	s.readCount.Add(1)
	time.Sleep(s.readDelay)
	return copy(b, "test data\n"), nil
}

func (s *slowPort) ResetInputBuffer() error { return nil }

func (s *slowPort) Close() error {
	s.closeCount.Add(1)
	s.closed.Store(true)
	return nil
}

func TestMonitor_ConcurrentObserversDuringRun(t *testing.T) {
	port := &slowPort{readDelay: time.Millisecond}
	m, err := New(testConfig(), WithOpener(func(Config) (SerialPort, error) { return port, nil }), WithSink(&recordingSink{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = m.Stats()
				_ = m.State()
			}
		}()
	}
	wg.Wait()

	for port.readCount.Load() < 5 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if n := port.closeCount.Load(); n != 1 {
		t.Fatalf("port closed %d times, want 1", n)
	}
	if m.State() != StateClosed {
		t.Fatalf("state = %s, want closed", m.State())
	}
	if m.Stats().LinesEmitted < 5 {
		t.Fatalf("emitted %d lines, want at least 5", m.Stats().LinesEmitted)
	}
}

func TestMonitor_RunAgainAfterStop(t *testing.T) {
	for round := 1; round <= 3; round++ {
		port := &slowPort{}
		cfg := testConfig()
		cfg.MaxLines = 2
		sink := &recordingSink{}
		m, err := New(cfg, WithOpener(func(Config) (SerialPort, error) { return port, nil }), WithSink(sink))
		if err != nil {
			t.Fatalf("round %d: New: %v", round, err)
		}
		if err := m.Run(context.Background()); err != nil {
			t.Fatalf("round %d: Run: %v", round, err)
		}
		if len(sink.lines) != 2 || port.closeCount.Load() != 1 {
			t.Fatalf("round %d: lines %v closes %d", round, sink.lines, port.closeCount.Load())
		}
	}
}
