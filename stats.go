package serialmon

import (
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// Stats tracks what a Monitor has seen over a single run.
type Stats struct {
	// Connection
	OpenAttempts atomic.Int64
	OpenFailures atomic.Int64
	StartTime    atomic.Int64 // UnixNano when the port opened
	StopTime     atomic.Int64 // UnixNano when the port closed

	// Reads
	Iterations    atomic.Int64 // ReadLine calls
	LinesEmitted  atomic.Int64 // Non-empty lines handed to sinks
	BlankLines    atomic.Int64 // Lines discarded because they were empty after trimming
	Timeouts      atomic.Int64 // Reads that ended without a delimiter
	ReadErrors    atomic.Int64 // Transport errors returned by reads
	BytesRead     atomic.Int64
	ReplacedBytes atomic.Int64 // U+FFFD substitutions for undecodable input
	SinkErrors    atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Iterations    int64
	LinesEmitted  int64
	BlankLines    int64
	Timeouts      int64
	ReadErrors    int64
	BytesRead     int64
	ReplacedBytes int64
	SinkErrors    int64
	OpenFailures  int64
	Uptime        time.Duration

	Throughput      float64 // Bytes read per second of uptime
	ErrorRate       float64 // Percentage of iterations that failed
	ReplacementRate float64 // Percentage of bytes that did not decode
	Health          HealthStatus
}

// HealthStatus summarises how well the link is working.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDown      HealthStatus = "down"
)

func (s *Stats) markOpened() {
	s.StartTime.Store(time.Now().UnixNano())
	s.StopTime.Store(0)
}

func (s *Stats) markClosed() {
	s.StopTime.Store(time.Now().UnixNano())
}

// Snapshot copies the current counters. Uptime runs to now while the port is
// open and to the close time afterwards.
func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Iterations:    s.Iterations.Load(),
		LinesEmitted:  s.LinesEmitted.Load(),
		BlankLines:    s.BlankLines.Load(),
		Timeouts:      s.Timeouts.Load(),
		ReadErrors:    s.ReadErrors.Load(),
		BytesRead:     s.BytesRead.Load(),
		ReplacedBytes: s.ReplacedBytes.Load(),
		SinkErrors:    s.SinkErrors.Load(),
		OpenFailures:  s.OpenFailures.Load(),
	}
	if start := s.StartTime.Load(); start > 0 {
		end := s.StopTime.Load()
		if end == 0 {
			end = time.Now().UnixNano()
		}
		snap.Uptime = time.Duration(end - start)
	}
	if snap.Uptime > 0 {
		snap.Throughput = float64(snap.BytesRead) / snap.Uptime.Seconds()
	}
	if snap.Iterations > 0 {
		snap.ErrorRate = float64(snap.ReadErrors) / float64(snap.Iterations) * 100
	}
	if snap.BytesRead > 0 {
		snap.ReplacementRate = float64(snap.ReplacedBytes) / float64(snap.BytesRead) * 100
	}
	snap.Health = assessHealth(s.StartTime.Load() > 0, snap)
	return snap
}

// assessHealth grades a snapshot. Timeouts are ignored: an idle device is
// not an unhealthy one. A high replacement rate usually means the baud rate
// does not match the device.
func assessHealth(opened bool, snap StatsSnapshot) HealthStatus {
	if !opened {
		return HealthStatusDown
	}
	if snap.ErrorRate > 50.0 || snap.ReplacementRate > 50.0 {
		return HealthStatusUnhealthy
	}
	if snap.ErrorRate > 10.0 || snap.ReplacementRate > 10.0 {
		return HealthStatusDegraded
	}
	return HealthStatusHealthy
}

// MarshalZerologObject lets a snapshot be logged with Object().
func (s StatsSnapshot) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("iterations", s.Iterations).
		Int64("lines", s.LinesEmitted).
		Int64("blank", s.BlankLines).
		Int64("timeouts", s.Timeouts).
		Int64("read_errors", s.ReadErrors).
		Int64("bytes", s.BytesRead).
		Int64("replaced", s.ReplacedBytes).
		Dur("uptime", s.Uptime).
		Str("health", string(s.Health))
	if s.SinkErrors > 0 {
		e.Int64("sink_errors", s.SinkErrors)
	}
}
