package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// mmkvLogger implements the ILogger interface with custom formatting
type mmkvLogger struct {
	name   string
	level  logger.LogLevel
	logger *log.Logger
}

func (l *mmkvLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *mmkvLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.log("DEBUG", format, args...)
	}
}

func (l *mmkvLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.log("INFO", format, args...)
	}
}

func (l *mmkvLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.log("WARN", format, args...)
	}
}

func (l *mmkvLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.log("ERROR", format, args...)
	}
}

func (l *mmkvLogger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.log("PANIC", "%s", msg)
	panic(msg)
}

// log formats and writes a log message
func (l *mmkvLogger) log(levelStr string, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("%-5s | %-10s | %s", levelStr, l.name, message)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// LogOutput is where loggers created by CreateLogger write to.
// Log output goes to stderr so command output on stdout stays parsable.
var LogOutput io.Writer = os.Stderr

// CreateLogger implements the dragonboat logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	return &mmkvLogger{
		name:   pkgName,
		level:  logger.INFO,
		logger: log.New(LogOutput, "", log.Ldate|log.Ltime),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// LoggerNames lists the loggers used throughout the module.
var LoggerNames = []string{"mmkv", "store", "cli"}

// InitLoggers installs the custom logger factory and sets the level of all
// module loggers.
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)
	for _, name := range LoggerNames {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
