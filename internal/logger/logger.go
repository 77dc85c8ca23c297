// Package logger provides the process-wide diagnostic sink.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

var Logger *log.Logger

func init() {
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "xnested",
	})
	SetLevel(os.Getenv("LOG_LEVEL"))
}

// SetLevel sets the level from a name such as "debug" or "WARN".
// Unknown or empty names select INFO.
func SetLevel(name string) {
	Logger.SetLevel(ParseLevel(name))
}

// ParseLevel maps a level name to a log level, defaulting to INFO.
func ParseLevel(name string) log.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return log.DebugLevel
	case "INFO":
		return log.InfoLevel
	case "WARN", "WARNING":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	case "FATAL":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// SetOutput redirects the global logger, e.g. while a TUI owns the terminal.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// ForScreen returns a child logger whose entries carry the nested screen index.
func ForScreen(index int) *log.Logger {
	return Logger.With("screen", index)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// Shorthands used by the CLI commands.
func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}
