package serialmon

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the human-readable logger used by the command line tools.
// Diagnostics go to w (normally stderr) so stdout carries device data only.
// Each extra writer also receives every event as a JSON line.
func NewLogger(w io.Writer, level string, extra ...io.Writer) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zerolog.ParseLevel(level); err != nil {
			return zerolog.Nop(), err
		}
	}
	var out io.Writer = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	if len(extra) > 0 {
		out = zerolog.MultiLevelWriter(append([]io.Writer{out}, extra...)...)
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// NewLogFile returns a size-rotated log file. The caller closes it.
func NewLogFile(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
}
