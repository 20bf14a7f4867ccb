package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategorySync  LogCategory = "sync"  // catalog synchronization runs (JSON)
	CategoryStats LogCategory = "stats" // stats refreshes and popularity rebuilds (JSON)
	CategoryError LogCategory = "error" // application errors (JSON)
)

// Categories lists every category in display order
var Categories = []LogCategory{CategorySync, CategoryStats, CategoryError}

// IsValid reports whether c is a known category
func (c LogCategory) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MultiLogger writes categorized event logs to <logs_dir>/<category>-YYYYMMDD.log.
// Files roll over on the first write of a new day.
type MultiLogger struct {
	config      MultiLoggerConfig
	level       zapcore.Level
	mu          sync.RWMutex
	loggers     map[LogCategory]*zap.Logger
	files       map[LogCategory]*os.File
	currentDate string
	now         func() time.Time
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string // Directory for log files
}

// NewMultiLogger creates a new multi-output logger
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}
	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	ml := &MultiLogger{
		config: config,
		level:  level,
		now:    time.Now,
	}
	if err := ml.open(ml.now().Format("20060102")); err != nil {
		return nil, err
	}
	return ml, nil
}

// NewNopMultiLogger returns a MultiLogger that discards everything
func NewNopMultiLogger() *MultiLogger {
	ml := &MultiLogger{loggers: map[LogCategory]*zap.Logger{}}
	for _, category := range Categories {
		ml.loggers[category] = zap.NewNop()
	}
	return ml
}

// open creates one logger per category for date; callers hold mu or own ml
func (ml *MultiLogger) open(date string) error {
	loggers := make(map[LogCategory]*zap.Logger, len(Categories))
	files := make(map[LogCategory]*os.File, len(Categories))
	for _, category := range Categories {
		level := ml.level
		if category == CategoryError {
			level = zapcore.ErrorLevel
		}
		logger, file, err := ml.createStructuredLogger(category, date, level)
		if err != nil {
			for _, f := range files {
				f.Close()
			}
			return fmt.Errorf("failed to create %s logger: %w", category, err)
		}
		loggers[category] = logger
		files[category] = file
	}

	for _, f := range ml.files {
		f.Close()
	}
	ml.loggers = loggers
	ml.files = files
	ml.currentDate = date
	return nil
}

// createStructuredLogger creates a JSON-formatted logger for a category
func (ml *MultiLogger) createStructuredLogger(category LogCategory, date string, level zapcore.Level) (*zap.Logger, *os.File, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = ""

	path := filepath.Join(ml.config.LogsDir, LogFileName(category, date))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), level)
	return zap.New(core).With(zap.String("category", string(category))), file, nil
}

// LogFileName returns the file name of a category log for a YYYYMMDD date
func LogFileName(category LogCategory, date string) string {
	return fmt.Sprintf("%s-%s.log", category, date)
}

// GetLogsDir returns the logs directory path
func (ml *MultiLogger) GetLogsDir() string {
	return ml.config.LogsDir
}

// GetLogger returns the structured logger for a specific category
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	ml.rotate()

	ml.mu.RLock()
	defer ml.mu.RUnlock()
	if logger, ok := ml.loggers[category]; ok {
		return logger
	}
	return ml.loggers[CategoryError]
}

func (ml *MultiLogger) rotate() {
	if ml.files == nil {
		return
	}
	date := ml.now().Format("20060102")

	ml.mu.RLock()
	current := ml.currentDate
	ml.mu.RUnlock()
	if date == current {
		return
	}

	ml.mu.Lock()
	defer ml.mu.Unlock()
	if date == ml.currentDate {
		return
	}
	for _, logger := range ml.loggers {
		logger.Sync()
	}
	if err := ml.open(date); err != nil {
		// keep writing to the previous day's files
		ml.loggers[CategoryError].Error("Log rotation failed", zap.Error(err))
	}
}

// Sync returns the sync-run logger
func (ml *MultiLogger) Sync() *zap.Logger {
	return ml.GetLogger(CategorySync)
}

// Stats returns the stats logger
func (ml *MultiLogger) Stats() *zap.Logger {
	return ml.GetLogger(CategoryStats)
}

// Error returns the error logger
func (ml *MultiLogger) Error() *zap.Logger {
	return ml.GetLogger(CategoryError)
}

// LogSyncEvent logs a catalog synchronization event
func (ml *MultiLogger) LogSyncEvent(event string, fields ...zap.Field) {
	ml.Sync().Info(event, fields...)
}

// LogStatsEvent logs a stats refresh or popularity event
func (ml *MultiLogger) LogStatsEvent(event string, fields ...zap.Field) {
	ml.Stats().Info(event, fields...)
}

// LogAppError logs an application-level error (failed runs, panics)
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	ml.Error().Error(msg, fields...)
}

// Flush syncs all loggers
func (ml *MultiLogger) Flush() error {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	var lastErr error
	for _, logger := range ml.loggers {
		if err := logger.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes all loggers and closes their files
func (ml *MultiLogger) Close() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	var lastErr error
	for _, logger := range ml.loggers {
		if err := logger.Sync(); err != nil {
			lastErr = err
		}
	}
	for _, f := range ml.files {
		if err := f.Close(); err != nil {
			lastErr = err
		}
	}
	ml.files = nil
	return lastErr
}
