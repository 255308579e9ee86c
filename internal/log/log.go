// internal/log/log.go
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	LogPrefix     = "[regcache] "
	ErrorPrefix   = "[error] "
	WarningPrefix = "[warn] "
	InfoPrefix    = "[info] "
	DebugPrefix   = "[debug] "
	HelpLevels    = "Must be one of: error, warning, info, debug."
)

const (
	ErrorLevel Level = iota
	WarningLevel
	InfoLevel
	DebugLevel
)

var levels = map[string]Level{
	"error":   ErrorLevel,
	"warning": WarningLevel,
	"info":    InfoLevel,
	"debug":   DebugLevel,
}

var (
	level  atomic.Int32
	logger = log.New(os.Stderr, LogPrefix, log.LstdFlags)
)

func init() {
	level.Store(int32(InfoLevel))
}

// ParseLevel maps a level name to its Level.
func ParseLevel(s string) (Level, error) {
	l, ok := levels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("wrong log level %q. %s", s, HelpLevels)
	}
	return l, nil
}

func SetLevel(s string) error {
	l, err := ParseLevel(s)
	if err != nil {
		return err
	}
	level.Store(int32(l))
	return nil
}

// Init redirects output and sets the level. An empty level keeps the
// current one.
func Init(out io.Writer, s string) error {
	logger.SetOutput(out)
	if s == "" {
		return nil
	}
	return SetLevel(s)
}

func Enabled(l Level) bool {
	return Level(level.Load()) >= l
}

func Error(format string, v ...any) {
	output(ErrorLevel, ErrorPrefix, format, v)
}

func Warning(format string, v ...any) {
	output(WarningLevel, WarningPrefix, format, v)
}

func Info(format string, v ...any) {
	output(InfoLevel, InfoPrefix, format, v)
}

func Debug(format string, v ...any) {
	output(DebugLevel, DebugPrefix, format, v)
}

func output(l Level, prefix, format string, v []any) {
	if !Enabled(l) {
		return
	}
	logger.Output(3, prefix+fmt.Sprintf(format, v...))
}
