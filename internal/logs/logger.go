package logs

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Options configure the application logger.
type Options struct {
	Level  string // trace|debug|info|warn|error|fatal
	Format string // text|json
}

// New builds a logger from opts. Unknown levels fall back to info.
func New(opts Options) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if opts.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return l
}
