package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Logger
}

// NewLogger writes to stderr so that rendered tables on stdout stay untouched.
func NewLogger(verbose bool) *Logger {
	return NewLoggerTo(os.Stderr, verbose)
}

func NewLoggerTo(out io.Writer, verbose bool) *Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   out == os.Stderr,
	})

	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	return &Logger{Logger: log}
}

// Discard returns a logger that drops everything, handy for tests.
func Discard() *Logger {
	return NewLoggerTo(io.Discard, false)
}

func (l *Logger) WithSession(id string) *logrus.Entry {
	return l.Logger.WithField("session", id)
}
