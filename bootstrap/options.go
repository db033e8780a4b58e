package bootstrap

import (
	"io"
	"os"
	"time"

	"github.com/kbukum/roundtrip/logger"
)

// Option configures the App during creation.
type Option func(*settings)

type settings struct {
	logger          *logger.Logger
	gracefulTimeout time.Duration
	out             io.Writer
	signals         bool
}

func newSettings(opts []Option) settings {
	s := settings{
		gracefulTimeout: 15 * time.Second,
		out:             os.Stdout,
		signals:         true,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger replaces the logger built from the config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithGracefulTimeout bounds the stop hooks. Defaults to 15s.
func WithGracefulTimeout(d time.Duration) Option {
	return func(s *settings) { s.gracefulTimeout = d }
}

// WithOutput sets where the summary is printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(s *settings) { s.out = w }
}

// WithSignals controls whether SIGINT and SIGTERM cancel the task.
func WithSignals(enabled bool) Option {
	return func(s *settings) { s.signals = enabled }
}
