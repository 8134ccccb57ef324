package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

var hclogLevels = map[LogLevel]hclog.Level{
	TRACE: hclog.Trace,
	DEBUG: hclog.Debug,
	INFO:  hclog.Info,
	WARN:  hclog.Warn,
	ERROR: hclog.Error,
}

var (
	root         hclog.Logger
	currentLevel LogLevel
)

func init() {
	Configure(os.Stdout)
}

// Configure (re)creates the root logger writing to output, reading the level
// from IMPOSTER_LOG_LEVEL and the format from IMPOSTER_LOG_FORMAT
func Configure(output io.Writer) {
	currentLevel = parseLevel(os.Getenv("IMPOSTER_LOG_LEVEL"))
	root = hclog.New(&hclog.LoggerOptions{
		Name:       "imposter",
		Level:      hclogLevels[currentLevel],
		Output:     output,
		JSONFormat: strings.EqualFold(os.Getenv("IMPOSTER_LOG_FORMAT"), "json"),
	})
}

func parseLevel(lvl string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(lvl)) {
	case "TRACE":
		return TRACE
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return DEBUG
	}
}

// SetLevel changes the level of the root logger
func SetLevel(level LogLevel) {
	currentLevel = level
	root.SetLevel(hclogLevels[level])
}

// Named returns a sub-logger for structured key/value logging
func Named(name string) hclog.Logger {
	return root.Named(name)
}

// Level check functions
func IsTraceEnabled() bool {
	return currentLevel <= TRACE
}

func IsDebugEnabled() bool {
	return currentLevel <= DEBUG
}

func IsInfoEnabled() bool {
	return currentLevel <= INFO
}

func IsWarnEnabled() bool {
	return currentLevel <= WARN
}

func IsErrorEnabled() bool {
	return currentLevel <= ERROR
}

// Trace level logging
func Tracef(format string, v ...interface{}) {
	if IsTraceEnabled() {
		root.Trace(fmt.Sprintf(format, v...))
	}
}

func Traceln(msg string) {
	if IsTraceEnabled() {
		root.Trace(msg)
	}
}

// Debug level logging
func Debugf(format string, v ...interface{}) {
	if IsDebugEnabled() {
		root.Debug(fmt.Sprintf(format, v...))
	}
}

func Debugln(msg string) {
	if IsDebugEnabled() {
		root.Debug(msg)
	}
}

// Info level logging
func Infof(format string, v ...interface{}) {
	if IsInfoEnabled() {
		root.Info(fmt.Sprintf(format, v...))
	}
}

func Infoln(msg string) {
	if IsInfoEnabled() {
		root.Info(msg)
	}
}

// Warn level logging
func Warnf(format string, v ...interface{}) {
	if IsWarnEnabled() {
		root.Warn(fmt.Sprintf(format, v...))
	}
}

func Warnln(msg string) {
	if IsWarnEnabled() {
		root.Warn(msg)
	}
}

// Error level logging
func Errorf(format string, v ...interface{}) {
	if IsErrorEnabled() {
		root.Error(fmt.Sprintf(format, v...))
	}
}

func Errorln(msg string) {
	if IsErrorEnabled() {
		root.Error(msg)
	}
}

// GetCurrentLevel returns the current log level
func GetCurrentLevel() LogLevel {
	return currentLevel
}
