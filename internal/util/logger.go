package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const LOG_BUFFER_SIZE = 1000

var ErrLogNotInitialized = errors.New("log object is not initialized yet")

const (
	LOG_LEVEL_ERROR = iota + 1
	LOG_LEVEL_WARN
	LOG_LEVEL_INFO
	LOG_LEVEL_DEBUG
)

// LoggerOptions selects where a MonitorLogger writes.
type LoggerOptions struct {
	Dir      string
	FileName string
	Rewrite  bool
	Level    int
	Console  bool
}

// MonitorLogger queues events on a buffered channel drained by a single
// writer goroutine, so the sampler and request handlers never wait on disk.
// The zero value is usable and drops events with ErrLogNotInitialized.
type MonitorLogger struct {
	logBuffer   chan leveledEntry
	handle      *os.File
	wg          sync.WaitGroup
	mu          sync.RWMutex
	initialized bool
	zapLogger   *zap.Logger
}

type leveledEntry struct {
	level  int
	logMsg string
}

func (m *MonitorLogger) Init(opts LoggerOptions) error {
	var err error

	if err = CheckAndCreateLogFolder(opts.Dir); err != nil {
		return err
	}

	flags := os.O_RDWR | os.O_CREATE | os.O_APPEND
	if opts.Rewrite {
		flags = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	}

	m.handle, err = os.OpenFile(filepath.Join(opts.Dir, opts.FileName), flags, 0666)
	if err != nil {
		return err
	}

	m.zapLoggerInit(opts)
	m.logBuffer = make(chan leveledEntry, LOG_BUFFER_SIZE)

	m.wg.Add(1)
	go m.logWriter()

	m.mu.Lock()
	m.initialized = true
	m.mu.Unlock()
	return nil
}

func (m *MonitorLogger) zapLoggerInit(opts LoggerOptions) {
	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncodeLevel = zapcore.CapitalLevelEncoder

	encoder := zapcore.NewConsoleEncoder(config)
	level := ZapLevel(opts.Level)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(m.handle), level),
	}
	if opts.Console {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level))
	}

	m.zapLogger = zap.New(zapcore.NewTee(cores...))
}

// ZapLevel maps the numeric LOG_LEVEL_* values onto zap levels. Unknown
// values fall back to info.
func ZapLevel(level int) zapcore.Level {
	switch level {
	case LOG_LEVEL_ERROR:
		return zapcore.ErrorLevel
	case LOG_LEVEL_WARN:
		return zapcore.WarnLevel
	case LOG_LEVEL_DEBUG:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

func (m *MonitorLogger) logWriter() {
	defer m.wg.Done()

	for entry := range m.logBuffer {
		switch entry.level {
		case LOG_LEVEL_ERROR:
			m.zapLogger.Error(entry.logMsg)
		case LOG_LEVEL_WARN:
			m.zapLogger.Warn(entry.logMsg)
		case LOG_LEVEL_DEBUG:
			m.zapLogger.Debug(entry.logMsg)
		default:
			m.zapLogger.Info(entry.logMsg)
		}
	}
	m.zapLogger.Sync()
}

// LogEvent accepts either a single message or a LOG_LEVEL_* followed by the
// parts of the message, which are concatenated with fmt.Sprint.
func (m *MonitorLogger) LogEvent(v ...interface{}) error {
	if m == nil {
		return ErrLogNotInitialized
	}

	entry := formatEntry(v...)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return ErrLogNotInitialized
	}
	m.logBuffer <- entry
	return nil
}

func formatEntry(v ...interface{}) leveledEntry {
	if len(v) == 0 {
		return leveledEntry{level: LOG_LEVEL_INFO}
	}

	if level, ok := v[0].(int); ok && len(v) > 1 && level >= LOG_LEVEL_ERROR && level <= LOG_LEVEL_DEBUG {
		return leveledEntry{level: level, logMsg: fmt.Sprint(v[1:]...)}
	}
	return leveledEntry{level: LOG_LEVEL_INFO, logMsg: fmt.Sprint(v...)}
}

// DeInit flushes queued events and closes the log file.
func (m *MonitorLogger) DeInit() {
	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return
	}
	m.initialized = false
	close(m.logBuffer)
	m.mu.Unlock()

	m.wg.Wait()
	m.handle.Close()
}

func CheckAndCreateLogFolder(folderNameWithPath string) error {
	_, err := os.Stat(folderNameWithPath)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(folderNameWithPath, 0755); err != nil {
			return fmt.Errorf("failed to create folder %s: %w", folderNameWithPath, err)
		}
	}
	return nil
}
