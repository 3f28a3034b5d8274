package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultKeepDays is how many days of log files are kept
	DefaultKeepDays = 3

	DirPermissions  = 0755
	FilePermissions = 0644

	// MaxMessageLength caps a single message forwarded from the surface
	MaxMessageLength = 10000

	// surfaceLogRate and surfaceLogBurst bound how fast the surface may log
	surfaceLogRate  = 50
	surfaceLogBurst = 200
)

// Levels accepted from the surface log operation
var validLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

var (
	defaultLogger *slog.Logger
	logFile       *DailyFileWriter
	loggerMu      sync.RWMutex

	surfaceLimiter = rate.NewLimiter(surfaceLogRate, surfaceLogBurst)
)

// Config holds logger configuration
type Config struct {
	LogDir     string // Directory for log files
	Prefix     string // File name prefix, e.g. "shell"
	KeepDays   int    // Days of log files kept, today included
	JSONOutput bool   // Use JSON output format
	DevMode    bool   // Mirror output to stdout
}

// DefaultConfig returns the default configuration for the given app name
func DefaultConfig(appName string) Config {
	homeDir, _ := os.UserHomeDir()
	return Config{
		LogDir:     filepath.Join(homeDir, "."+appName, "logs"),
		Prefix:     "shell",
		KeepDays:   DefaultKeepDays,
		JSONOutput: true,
	}
}

// Init initializes the global logger with the given configuration
func Init(cfg Config) error {
	if cfg.Prefix == "" {
		cfg.Prefix = "shell"
	}

	fileWriter, err := NewDailyFileWriter(cfg.LogDir, cfg.Prefix, cfg.KeepDays)
	if err != nil {
		return fmt.Errorf("open log dir: %w", err)
	}

	var out io.Writer = fileWriter
	if cfg.DevMode {
		out = io.MultiWriter(fileWriter, os.Stdout)
	}

	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339Nano))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.JSONOutput {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	loggerMu.Lock()
	logFile = fileWriter
	loggerMu.Unlock()

	SetLogger(slog.New(handler))
	return nil
}

// Close flushes and closes the log file opened by Init
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// SetLogger replaces the package logger. Tests use it to capture output.
func SetLogger(l *slog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	defaultLogger = l
	slog.SetDefault(l)
}

// Logger returns the package logger
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if defaultLogger == nil {
		return slog.Default()
	}
	return defaultLogger
}

func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }
func Info(msg string, args ...any)  { Logger().Info(msg, args...) }
func Warn(msg string, args ...any)  { Logger().Warn(msg, args...) }
func Error(msg string, args ...any) { Logger().Error(msg, args...) }

// normalizeLevel maps a surface-provided level onto a slog level.
// Unknown levels fall back to info.
func normalizeLevel(level string) (slog.Level, bool) {
	if l, ok := validLevels[strings.ToLower(strings.TrimSpace(level))]; ok {
		return l, true
	}
	return slog.LevelInfo, false
}

func truncateMessage(msg string) string {
	if len(msg) > MaxMessageLength {
		return msg[:MaxMessageLength] + "...[truncated]"
	}
	return msg
}

// LogFromSurface records a message sent by the sandboxed surface.
// Messages beyond the rate limit are dropped.
func LogFromSurface(level, text string) {
	if !surfaceLimiter.Allow() {
		return
	}

	lvl, ok := normalizeLevel(level)
	logger := Logger().With("source", "surface")
	if !ok {
		logger.Warn("Unknown log level from surface, using info", "providedLevel", level)
	}
	logger.Log(context.Background(), lvl, truncateMessage(text))
}

// Recover logs a panic and swallows it so the process keeps running.
// Use as `defer logging.Recover("where")`.
func Recover(where string) {
	if r := recover(); r != nil {
		Logger().Error("Recovered from panic",
			"where", where,
			"panic", fmt.Sprint(r),
			"stack", string(debug.Stack()))
	}
}

// MaskPath replaces the home directory prefix with ~
func MaskPath(path string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return path
	}
	if strings.HasPrefix(path, homeDir) {
		return "~" + path[len(homeDir):]
	}
	return path
}
