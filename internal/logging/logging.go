// Package logging builds the zerolog logger shared by every component.
// The terminal is the render surface, so log output goes to a rotating
// file instead of stderr.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// DefaultFile is the log file used when none is configured.
	DefaultFile = "barviz.log"
	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB = 5
	// MaxBackups is the number of rotated files kept.
	MaxBackups = 3
)

// Options controls New.
type Options struct {
	// Path of the log file. Empty discards every record.
	Path  string
	Debug bool
}

// New returns the root logger and a closer for its file.
func New(opts Options) (*zerolog.Logger, io.Closer) {
	var (
		out    io.Writer = io.Discard
		closer io.Closer = nopCloser{}
	)
	if opts.Path != "" {
		file := &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    MaxSizeMB,
			MaxBackups: MaxBackups,
		}
		out = file
		closer = file
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &logger, closer
}

// Component derives a child logger tagged with the component name.
func Component(parent *zerolog.Logger, name string) *zerolog.Logger {
	if parent == nil {
		nop := zerolog.Nop()
		return &nop
	}
	child := parent.With().Str("component", name).Logger()
	return &child
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
