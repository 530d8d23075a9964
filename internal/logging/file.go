package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level controls which records the file core writes.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to a Level, defaulting to info.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// fileCore is the process-wide debug log sink shared by component loggers.
// It appends to a single file so a full pipeline run can be replayed after
// the fact without cluttering the console.
type fileCore struct {
	mu    sync.Mutex
	file  *os.File
	level Level
}

var (
	coreOnce sync.Once
	core     *fileCore

	// Credentials must never reach the debug log.
	secretPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(api[_-]?key|authorization|x-goog-api-key|token|secret)(["':=\s]+)([A-Za-z0-9_\-\.]{8,})`),
		regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-\.]{8,}`),
	}
)

func defaultCore() *fileCore {
	coreOnce.Do(func() {
		core = &fileCore{level: ParseLevel(os.Getenv("BRANDFORGE_LOG_LEVEL"))}
		path := os.Getenv("BRANDFORGE_LOG_FILE")
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				home = "."
			}
			path = filepath.Join(home, "brandforge-debug.log")
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			core.file = file
		}
	})
	return core
}

// SetLevel adjusts the file core's threshold at runtime.
func SetLevel(level Level) {
	c := defaultCore()
	c.mu.Lock()
	c.level = level
	c.mu.Unlock()
}

func (c *fileCore) log(level Level, component, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil || level < c.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	msg = redactSecrets(msg)

	fmt.Fprintf(c.file, "%s [%s] [%s] %s - %s\n",
		time.Now().Format("2006-01-02 15:04:05"), level, component, callerRef(), msg)
}

// callerRef names the nearest call site outside this package. The
// fan-out wrapper adds a stack frame, so a fixed skip depth would tag
// wrapped and direct loggers differently.
func callerRef() string {
	pcs := make([]uintptr, 8)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.File != "" && !strings.Contains(frame.Function, "/internal/logging.") {
			return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
		}
		if !more {
			return "???"
		}
	}
}

func redactSecrets(msg string) string {
	for _, pattern := range secretPatterns {
		msg = pattern.ReplaceAllString(msg, "$1$2(redacted)")
	}
	return msg
}

type componentLogger struct {
	component string
	core      *fileCore
}

func (l *componentLogger) Debug(format string, args ...any) {
	l.core.log(LevelDebug, l.component, format, args...)
}

func (l *componentLogger) Info(format string, args ...any) {
	l.core.log(LevelInfo, l.component, format, args...)
}

func (l *componentLogger) Warn(format string, args ...any) {
	l.core.log(LevelWarn, l.component, format, args...)
}

func (l *componentLogger) Error(format string, args ...any) {
	l.core.log(LevelError, l.component, format, args...)
}
