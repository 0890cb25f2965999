// Package logging hands out prefixed component loggers that share one level.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/labstack/gommon/log"
)

const header = "${time_rfc3339} ${level} [${prefix}]"

var (
	mu      sync.Mutex
	level   = log.INFO
	output  io.Writer = os.Stdout
	loggers = make(map[string]*log.Logger)
)

// New returns the logger for a component, creating it on first use.
func New(component string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[component]; ok {
		return l
	}
	l := log.New(component)
	l.SetHeader(header)
	l.SetLevel(level)
	l.SetOutput(output)
	loggers[component] = l
	return l
}

// SetLevel parses a config level name ("debug", "info", "warn", "error", "off")
// and applies it to every component logger.
func SetLevel(name string) {
	mu.Lock()
	defer mu.Unlock()

	level = ParseLevel(name)
	for _, l := range loggers {
		l.SetLevel(level)
	}
}

// SetOutput redirects all component loggers.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	output = w
	for _, l := range loggers {
		l.SetOutput(w)
	}
}

// ParseLevel maps a level name to a gommon level. Unknown names mean INFO.
func ParseLevel(name string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off", "none":
		return log.OFF
	default:
		return log.INFO
	}
}
