// Package logging provides a small leveled logger for the service layer.
// It writes to stdout and optionally to a size-capped log file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Level controls which messages a Logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// String returns the level's log-line tag.
func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "INFO"
	}
	return levelNames[l]
}

// ParseLevel maps a level name to its Level. Unrecognized names get
// LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is a leveled logger. A zero maxSize disables rotation.
type Logger struct {
	mu      sync.Mutex
	level   Level
	out     *log.Logger
	file    *os.File
	path    string
	maxSize int64
	size    int64
}

// New returns a stdout-only logger.
func New(level Level) *Logger {
	return &Logger{
		level: level,
		out:   log.New(os.Stdout, "", log.LstdFlags),
	}
}

// NewFile returns a logger writing to both stdout and the given file.
// When the file grows past maxSizeMB it is renamed to <path>.1 and a fresh
// file is opened in its place.
func NewFile(level Level, path string, maxSizeMB int64) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Logger{
		level:   level,
		out:     log.New(io.MultiWriter(os.Stdout, f), "", log.LstdFlags),
		file:    f,
		path:    path,
		maxSize: maxSizeMB * 1024 * 1024,
		size:    info.Size(),
	}, nil
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *Logger) logf(level Level, format string, args ...any) {
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%s %s", level, fmt.Sprintf(format, args...))
	l.out.Print(line)

	if l.file != nil && l.maxSize > 0 {
		l.size += int64(len(line)) + 21 // timestamp prefix + newline
		if l.size >= l.maxSize {
			l.rotate()
		}
	}
}

// rotate swaps the current log file for a fresh one. Called with mu held.
func (l *Logger) rotate() {
	l.file.Close()
	_ = os.Rename(l.path, l.path+".1")

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		// Fall back to stdout only rather than dropping logs.
		l.file = nil
		l.out = log.New(os.Stdout, "", log.LstdFlags)
		return
	}
	l.file = f
	l.size = 0
	l.out = log.New(io.MultiWriter(os.Stdout, f), "", log.LstdFlags)
}
