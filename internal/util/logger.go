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

const logBufferSize = 1000

var ErrLoggerClosed = errors.New("logger is not initialized or already closed")

type logEntry struct {
	level zapcore.Level
	msg   string
}

// EventLogger buffers log lines through a channel so request handlers never
// block on file IO. A single writer goroutine drains the buffer into a
// zap core appending to the configured log file.
type EventLogger struct {
	buffer chan logEntry
	handle *os.File
	zap    *zap.Logger
	wg     sync.WaitGroup
	level  zapcore.Level

	// mu guards started so Close cannot close the buffer between a
	// handler's started check and its channel send
	mu      sync.RWMutex
	started bool
}

// NewEventLogger creates the log directory if needed and starts the writer
// goroutine. Callers own the returned logger and must Close it.
func NewEventLogger(dir, fileName string, level zapcore.Level) (*EventLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating log folder %s: %w", dir, err)
	}

	handle, err := os.OpenFile(filepath.Join(dir, fileName),
		os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}

	l := &EventLogger{
		buffer: make(chan logEntry, logBufferSize),
		handle: handle,
		level:  level,
	}

	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(config),
		zapcore.AddSync(handle),
		level,
	)
	l.zap = zap.New(core)

	l.started = true
	l.wg.Add(1)
	go l.drain()

	return l, nil
}

func (l *EventLogger) drain() {
	defer l.wg.Done()
	for entry := range l.buffer {
		switch entry.level {
		case zapcore.ErrorLevel:
			l.zap.Error(entry.msg)
		case zapcore.WarnLevel:
			l.zap.Warn(entry.msg)
		case zapcore.DebugLevel:
			l.zap.Debug(entry.msg)
		default:
			l.zap.Info(entry.msg)
		}
	}
}

func (l *EventLogger) log(level zapcore.Level, format string, args ...interface{}) {
	if l == nil {
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.started {
		return
	}
	l.buffer <- logEntry{level: level, msg: fmt.Sprintf(format, args...)}
}

func (l *EventLogger) Debugf(format string, args ...interface{}) {
	l.log(zapcore.DebugLevel, format, args...)
}

func (l *EventLogger) Infof(format string, args ...interface{}) {
	l.log(zapcore.InfoLevel, format, args...)
}

func (l *EventLogger) Warnf(format string, args ...interface{}) {
	l.log(zapcore.WarnLevel, format, args...)
}

func (l *EventLogger) Errorf(format string, args ...interface{}) {
	l.log(zapcore.ErrorLevel, format, args...)
}

// Close flushes buffered entries and releases the log file.
func (l *EventLogger) Close() error {
	if l == nil {
		return ErrLoggerClosed
	}

	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return ErrLoggerClosed
	}
	l.started = false
	close(l.buffer)
	l.mu.Unlock()

	l.wg.Wait()

	l.zap.Sync()
	return l.handle.Close()
}
