// Package logger provides an asynchronous structured logging sink for the
// Beacon services. Entries are serialized as JSON lines and written to an
// injected io.Writer (stdout by default); log rotation is left to the
// surrounding platform.
package logger

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
	LevelFatal LogLevel = "FATAL"
)

// LogEntry represents the complete structure of a log record
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"@timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`

	Service     string `json:"service"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Hostname    string `json:"hostname"`
	PID         int    `json:"pid"`

	// Execution ID for tracing one process run across log lines
	ExecID string `json:"exec_id"`

	Caller struct {
		File     string `json:"file,omitempty"`
		Line     int    `json:"line,omitempty"`
		Function string `json:"function,omitempty"`
	} `json:"caller"`

	// Error context (when level is ERROR or FATAL)
	Error *ErrorContext `json:"error,omitempty"`

	// Custom fields for additional context
	Fields map[string]interface{} `json:"fields,omitempty"`
}

// ErrorContext contains error information
type ErrorContext struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Config holds the logger configuration
type Config struct {
	Service       string
	Version       string
	Environment   string
	FlushInterval time.Duration
	BatchSize     int
	BufferSize    int
	LogLevel      LogLevel
	EnableCaller  bool
	ExecutionID   string
}

// Logger is the main logger instance
type Logger struct {
	config     Config
	logChannel chan LogEntry
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	hostname   string
	pid        int

	mu     sync.Mutex
	writer *bufio.Writer

	ExecutionID string
}

// NewLogger creates a new Logger writing JSON lines to output.
// A nil output defaults to os.Stdout.
func NewLogger(output io.Writer, config Config) *Logger {
	if output == nil {
		output = os.Stdout
	}
	if config.FlushInterval == 0 {
		config.FlushInterval = 1 * time.Second
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.BufferSize == 0 {
		config.BufferSize = 1000
	}
	if config.LogLevel == "" {
		config.LogLevel = LevelInfo
	}
	if config.ExecutionID == "" {
		config.ExecutionID = uuid.New().String()[0:5]
	}

	hostname, _ := os.Hostname()
	ctx, cancel := context.WithCancel(context.Background())

	logger := &Logger{
		config:      config,
		logChannel:  make(chan LogEntry, config.BufferSize),
		ctx:         ctx,
		cancel:      cancel,
		hostname:    hostname,
		pid:         os.Getpid(),
		writer:      bufio.NewWriter(output),
		ExecutionID: config.ExecutionID,
	}

	logger.wg.Add(1)
	go logger.processLogs()

	return logger
}

// processLogs handles batching and writing entries to the sink
func (l *Logger) processLogs() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]LogEntry, 0, l.config.BatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		l.mu.Lock()
		for _, entry := range batch {
			data, err := json.Marshal(entry)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to marshal log entry: %v\n", err)
				continue
			}
			if _, err := l.writer.Write(data); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to write log entry: %v\n", err)
				continue
			}
			_, _ = l.writer.WriteString("\n")
		}
		if err := l.writer.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to flush log buffer: %v\n", err)
		}
		l.mu.Unlock()
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-l.logChannel:
			batch = append(batch, entry)
			if len(batch) >= l.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-l.ctx.Done():
			// Drain whatever is still queued, then do a final flush
			for {
				select {
				case entry := <-l.logChannel:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

// shouldLog checks if the log level should be processed
func (l *Logger) shouldLog(level LogLevel) bool {
	levels := map[LogLevel]int{
		LevelDebug: 0,
		LevelInfo:  1,
		LevelWarn:  2,
		LevelError: 3,
		LevelFatal: 4,
	}

	return levels[level] >= levels[l.config.LogLevel]
}

// createLogEntry creates a base log entry with common fields
func (l *Logger) createLogEntry(level LogLevel, message string) LogEntry {
	entry := LogEntry{
		ID:          uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		Level:       level,
		Message:     message,
		Service:     l.config.Service,
		Version:     l.config.Version,
		Environment: l.config.Environment,
		Hostname:    l.hostname,
		PID:         l.pid,
		ExecID:      l.config.ExecutionID,
	}

	if l.config.EnableCaller {
		if pc, file, line, ok := runtime.Caller(3); ok {
			entry.Caller.File = file
			entry.Caller.Line = line
			if fn := runtime.FuncForPC(pc); fn != nil {
				entry.Caller.Function = fn.Name()
			}
		}
	}

	return entry
}

// log sends a log entry to the processing channel
func (l *Logger) log(entry LogEntry) {
	if !l.shouldLog(entry.Level) {
		return
	}

	select {
	case l.logChannel <- entry:
	default:
		// Channel is full, log to stderr as fallback
		fmt.Fprintf(os.Stderr, "Logger channel full, dropping log: %s\n", entry.Message)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields ...map[string]interface{}) {
	entry := l.createLogEntry(LevelDebug, message)
	if len(fields) > 0 {
		entry.Fields = fields[0]
	}
	l.log(entry)
}

// Info logs an info message
func (l *Logger) Info(message string, fields ...map[string]interface{}) {
	entry := l.createLogEntry(LevelInfo, message)
	if len(fields) > 0 {
		entry.Fields = fields[0]
	}
	l.log(entry)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields ...map[string]interface{}) {
	entry := l.createLogEntry(LevelWarn, message)
	if len(fields) > 0 {
		entry.Fields = fields[0]
	}
	l.log(entry)
}

// Error logs an error message
func (l *Logger) Error(message string, err error, fields ...map[string]interface{}) {
	entry := l.createLogEntry(LevelError, message)
	if err != nil {
		entry.Error = &ErrorContext{
			Type:    fmt.Sprintf("%T", err),
			Message: err.Error(),
		}
	}
	if len(fields) > 0 {
		entry.Fields = fields[0]
	}
	l.log(entry)
}

// Fatal logs a fatal message
func (l *Logger) Fatal(message string, err error, fields ...map[string]interface{}) {
	entry := l.createLogEntry(LevelFatal, message)
	if err != nil {
		entry.Error = &ErrorContext{
			Type:    fmt.Sprintf("%T", err),
			Message: err.Error(),
		}
	}
	if len(fields) > 0 {
		entry.Fields = fields[0]
	}
	l.log(entry)
}

// Close gracefully shuts down the logger
func (l *Logger) Close() error {
	l.cancel()
	l.wg.Wait()
	close(l.logChannel)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writer.Flush()
}
