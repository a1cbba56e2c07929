// Package logging hands out logxi loggers that share one output and level.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	log "github.com/mgutz/logxi/v1"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig enables a rotating log file.
type FileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Config selects level and destination.
type Config struct {
	Level string     `mapstructure:"level"`
	File  FileConfig `mapstructure:"file"`
}

var (
	mu      sync.Mutex
	out     = &switchWriter{w: os.Stderr}
	loggers []log.Logger
	level   = log.LevelInfo
)

type switchWriter struct {
	mu sync.RWMutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

// New returns a named logger. Loggers created before Setup pick up its settings.
func New(name string) log.Logger {
	mu.Lock()
	defer mu.Unlock()
	l := log.NewLogger(log.NewConcurrentWriter(out), name)
	l.SetLevel(level)
	loggers = append(loggers, l)
	return l
}

// Setup applies cfg to every logger. The returned closer releases the log file, if any.
func Setup(cfg Config) (io.Closer, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var closer io.Closer = nopCloser{}
	if cfg.File.Path != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		}
		out.set(lj)
		closer = lj
	}
	mu.Lock()
	level = lvl
	for _, l := range loggers {
		l.SetLevel(lvl)
	}
	mu.Unlock()
	return closer, nil
}

// SetOutput redirects all loggers to w.
func SetOutput(w io.Writer) {
	out.set(w)
}

// ParseLevel maps trace|debug|info|warn|error to a logxi level; "" is info.
func ParseLevel(s string) (int, error) {
	switch strings.ToLower(s) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "", "info":
		return log.LevelInfo, nil
	case "warn", "warning":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	default:
		return 0, errors.Errorf("logging: unknown level %q", s)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
