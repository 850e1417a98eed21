// Package logging provides the shared logrus logger used across inicache.
//
// Logging is silent by default. Set INICACHE_LOG to debug, info, warn or
// error to send entries to stderr at that level.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// EnvLevel is the environment variable that enables logging.
const EnvLevel = "INICACHE_LOG"

var (
	log  *logrus.Logger
	once sync.Once
)

func initialize() {
	once.Do(func() {
		log = logrus.New()
		log.SetOutput(io.Discard)
		log.SetLevel(logrus.PanicLevel)

		level := os.Getenv(EnvLevel)
		if level == "" {
			return
		}
		log.SetOutput(os.Stderr)
		SetLevel(level)
		log.WithField("level", log.GetLevel()).Debug("Logging enabled")
	})
}

// Get returns the process logger.
func Get() *logrus.Logger {
	initialize()
	return log
}

// For returns an entry tagged with the owning package name.
func For(pkg string) *logrus.Entry {
	return Get().WithField("pkg", pkg)
}

// SetLevel parses a level name and applies it. Unknown names select debug.
func SetLevel(level string) {
	l := Get()
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		l.SetLevel(logrus.ErrorLevel)
	case "warn", "warning":
		l.SetLevel(logrus.WarnLevel)
	case "info":
		l.SetLevel(logrus.InfoLevel)
	case "off", "none":
		l.SetLevel(logrus.PanicLevel)
	default:
		l.SetLevel(logrus.DebugLevel)
	}
}

// SetOutput redirects log output.
func SetOutput(w io.Writer) {
	Get().SetOutput(w)
}
