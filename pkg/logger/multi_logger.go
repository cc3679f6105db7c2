package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategoryQueue LogCategory = "queue" // Queue manager events (JSON)
	CategoryError LogCategory = "error" // Application errors (JSON)
)

const dayLayout = "20060102"

// Categories lists every category with a log file
var Categories = []LogCategory{CategoryQueue, CategoryError}

// MultiLogger writes categorized JSON logs to one file per category and day,
// named <category>-YYYYMMDD.log.
type MultiLogger struct {
	config  MultiLoggerConfig
	mu      sync.RWMutex
	loggers map[LogCategory]*zap.Logger
	files   []*dailyFile
	now     func() time.Time
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
		config:  config,
		loggers: make(map[LogCategory]*zap.Logger),
		now:     time.Now,
	}

	levels := map[LogCategory]zapcore.Level{
		CategoryQueue: level,
		CategoryError: zapcore.ErrorLevel,
	}
	for _, category := range Categories {
		logger, err := ml.createStructuredLogger(category, levels[category])
		if err != nil {
			ml.Close()
			return nil, fmt.Errorf("failed to create %s logger: %w", category, err)
		}
		ml.loggers[category] = logger
	}

	return ml, nil
}

// createStructuredLogger creates a JSON-formatted logger for a category
func (ml *MultiLogger) createStructuredLogger(category LogCategory, level zapcore.Level) (*zap.Logger, error) {
	file := &dailyFile{
		dir:      ml.config.LogsDir,
		category: category,
		now:      func() time.Time { return ml.now() },
	}
	if err := file.rotate(); err != nil {
		return nil, err
	}
	ml.files = append(ml.files, file)

	core := zapcore.NewCore(zapcore.NewJSONEncoder(categoryEncoderConfig()), file, level)
	return zap.New(core), nil
}

// dailyFile is a WriteSyncer that switches to the file of the current day
// on the first write after midnight.
type dailyFile struct {
	dir      string
	category LogCategory
	now      func() time.Time

	mu     sync.Mutex
	day    string
	file   *os.File
	closed bool
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, os.ErrClosed
	}
	if err := d.rotateLocked(); err != nil {
		return 0, err
	}
	return d.file.Write(p)
}

func (d *dailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

func (d *dailyFile) rotate() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rotateLocked()
}

func (d *dailyFile) rotateLocked() error {
	now := d.now()
	day := now.Format(dayLayout)
	if d.file != nil && day == d.day {
		return nil
	}

	file, err := os.OpenFile(CategoryLogPath(d.dir, d.category, now),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if d.file != nil {
		d.file.Close()
	}
	d.file = file
	d.day = day
	return nil
}

func categoryEncoderConfig() zapcore.EncoderConfig {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "msg"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = ""
	return encoderConfig
}

// CategoryLogPath returns the log file of category for the given day
func CategoryLogPath(logsDir string, category LogCategory, date time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s-%s.log", category, date.Format(dayLayout)))
}

// GetLogsDir returns the logs directory path
func (ml *MultiLogger) GetLogsDir() string {
	return ml.config.LogsDir
}

// GetLogger returns the structured logger for a specific category
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	if logger, ok := ml.loggers[category]; ok {
		return logger
	}
	return ml.loggers[CategoryError]
}

// Queue returns the queue logger (JSON format)
func (ml *MultiLogger) Queue() *zap.Logger {
	return ml.GetLogger(CategoryQueue)
}

// Error returns the error logger (JSON format)
func (ml *MultiLogger) Error() *zap.Logger {
	return ml.GetLogger(CategoryError)
}

// Tee returns a logger that writes to base and to every category file.
// Each category keeps its own level, so the error file only sees errors.
func (ml *MultiLogger) Tee(base *zap.Logger) *zap.Logger {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	cores := []zapcore.Core{base.Core()}
	for _, category := range Categories {
		cores = append(cores, ml.loggers[category].Core())
	}
	return base.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core {
		return zapcore.NewTee(cores...)
	}))
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	var err error
	for _, logger := range ml.loggers {
		err = multierr.Append(err, logger.Sync())
	}
	return err
}

// Close flushes all loggers and closes their files
func (ml *MultiLogger) Close() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	var err error
	for _, logger := range ml.loggers {
		err = multierr.Append(err, logger.Sync())
	}
	for _, file := range ml.files {
		err = multierr.Append(err, file.Close())
	}
	return err
}
