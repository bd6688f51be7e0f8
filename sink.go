package serialmon

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/adrianmo/go-nmea"
)

// Sink receives every non-empty decoded line. index is the 1-based read
// iteration that produced it.
type Sink interface {
	Emit(index int, line string) error
	Close() error
}

// ConsoleSink writes lines to an io.Writer as soon as they arrive.
type ConsoleSink struct {
	mu       sync.Mutex
	w        io.Writer
	numbered bool
}

// NewConsoleSink writes "line\n", or "N: line\n" when numbered is set.
func NewConsoleSink(w io.Writer, numbered bool) *ConsoleSink {
	return &ConsoleSink{w: w, numbered: numbered}
}

func (c *ConsoleSink) Emit(index int, line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.numbered {
		_, err = fmt.Fprintf(c.w, "%d: %s\n", index, line)
	} else {
		_, err = fmt.Fprintf(c.w, "%s\n", line)
	}
	if err != nil {
		return err
	}
	// Push buffered writers through immediately so consumers see lines live.
	if f, ok := c.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func (c *ConsoleSink) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// NMEAFormatter annotates NMEA 0183 sentences (GPS receivers) with a short
// decoded summary before passing them on. Other lines, and sentences that
// fail to parse, are forwarded unchanged.
type NMEAFormatter struct {
	next Sink
}

func NewNMEAFormatter(next Sink) *NMEAFormatter {
	return &NMEAFormatter{next: next}
}

func (f *NMEAFormatter) Emit(index int, line string) error {
	if summary := summarizeNMEA(line); summary != "" {
		line = line + "  # " + summary
	}
	return f.next.Emit(index, line)
}

func (f *NMEAFormatter) Close() error {
	return f.next.Close()
}

func summarizeNMEA(line string) string {
	if !strings.HasPrefix(line, "$") && !strings.HasPrefix(line, "!") {
		return ""
	}
	s, err := nmea.Parse(line)
	if err != nil {
		return ""
	}
	switch s.DataType() {
	case nmea.TypeGLL:
		m := s.(nmea.GLL)
		return fmt.Sprintf("lat=%.5f lon=%.5f time=%s", m.Latitude, m.Longitude, m.Time)
	case nmea.TypeGGA:
		m := s.(nmea.GGA)
		return fmt.Sprintf("lat=%.5f lon=%.5f alt=%.1fm sats=%d", m.Latitude, m.Longitude, m.Altitude, m.NumSatellites)
	case nmea.TypeRMC:
		m := s.(nmea.RMC)
		return fmt.Sprintf("lat=%.5f lon=%.5f speed=%.1fkn", m.Latitude, m.Longitude, m.Speed)
	case nmea.TypeVTG:
		m := s.(nmea.VTG)
		return fmt.Sprintf("track=%.1f speed=%.1fkm/h", m.TrueTrack, m.GroundSpeedKPH)
	}
	return s.DataType()
}
