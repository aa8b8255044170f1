package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the shared structured logger. Level falls back to info when
// the supplied string does not parse.
func New(level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)
	return l
}
