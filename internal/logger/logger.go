package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents the severity of a log message
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

// Logger writes one JSON object per line.
type Logger struct {
	level  Level
	output io.Writer
	mu     sync.Mutex
}

// Entry is the serialized form of a log line
type Entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// New creates a logger filtering below level. A nil output means stdout.
func New(level string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	return &Logger{
		level:  ParseLevel(level),
		output: output,
	}
}

// Discard returns a logger that drops everything. Used by tests and library callers
// that do not care about diagnostics.
func Discard() *Logger {
	return &Logger{level: LevelFatal + 1, output: io.Discard}
}

// ParseLevel maps a level name to a Level, defaulting to INFO.
func ParseLevel(level string) Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// WithFields returns a builder carrying the given fields
func (l *Logger) WithFields(fields map[string]interface{}) *Builder {
	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &Builder{logger: l, fields: copied}
}

// WithField returns a builder carrying a single field
func (l *Logger) WithField(key string, value interface{}) *Builder {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithError returns a builder carrying an error
func (l *Logger) WithError(err error) *Builder {
	return &Builder{logger: l, err: err}
}

func (l *Logger) Debug(message string) { l.log(LevelDebug, message, nil, nil) }
func (l *Logger) Info(message string)  { l.log(LevelInfo, message, nil, nil) }
func (l *Logger) Warn(message string)  { l.log(LevelWarn, message, nil, nil) }
func (l *Logger) Error(message string) { l.log(LevelError, message, nil, nil) }

// Fatal logs and exits the process.
func (l *Logger) Fatal(message string) {
	l.log(LevelFatal, message, nil, nil)
	os.Exit(1)
}

func (l *Logger) log(level Level, message string, fields map[string]interface{}, err error) {
	if l == nil || level < l.level {
		return
	}

	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     levelNames[level],
		Message:   message,
		Fields:    fields,
	}
	if err != nil {
		entry.Error = err.Error()
	}

	// Caller info for errors and above
	if level >= LevelError {
		if pc, file, line, ok := runtime.Caller(2); ok {
			if fn := runtime.FuncForPC(pc); fn != nil {
				entry.Caller = fmt.Sprintf("%s:%d (%s)", file, line, fn.Name())
			} else {
				entry.Caller = fmt.Sprintf("%s:%d", file, line)
			}
		}
	}

	jsonBytes, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		log.Printf("Failed to marshal log entry: %v", marshalErr)
		log.Printf("[%s] %s", entry.Level, entry.Message)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.output, string(jsonBytes))
}

// Builder accumulates fields before a log call
type Builder struct {
	logger *Logger
	fields map[string]interface{}
	err    error
}

// WithField adds a field to the entry
func (b *Builder) WithField(key string, value interface{}) *Builder {
	if b.fields == nil {
		b.fields = make(map[string]interface{})
	}
	b.fields[key] = value
	return b
}

// WithFields adds multiple fields to the entry
func (b *Builder) WithFields(fields map[string]interface{}) *Builder {
	if b.fields == nil {
		b.fields = make(map[string]interface{})
	}
	for k, v := range fields {
		b.fields[k] = v
	}
	return b
}

// WithError attaches an error to the entry
func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

func (b *Builder) Debug(message string) { b.logger.log(LevelDebug, message, b.fields, b.err) }
func (b *Builder) Info(message string)  { b.logger.log(LevelInfo, message, b.fields, b.err) }
func (b *Builder) Warn(message string)  { b.logger.log(LevelWarn, message, b.fields, b.err) }
func (b *Builder) Error(message string) { b.logger.log(LevelError, message, b.fields, b.err) }

// Fatal logs and exits the process.
func (b *Builder) Fatal(message string) {
	b.logger.log(LevelFatal, message, b.fields, b.err)
	os.Exit(1)
}

// Options controls where the application logger writes.
type Options struct {
	Level       string
	Environment string
	// File is the rotated log file used in production. Empty means logs/app.log.
	File string
}

// AppLogger is the process-wide logger, set by Initialize.
var AppLogger = New("INFO", os.Stdout)

// Initialize configures AppLogger. Production writes go to a size-rotated file.
func Initialize(opts Options) *Logger {
	var output io.Writer = os.Stdout

	if opts.Environment == "production" {
		file := opts.File
		if file == "" {
			file = filepath.Join("logs", "app.log")
		}
		if err := os.MkdirAll(filepath.Dir(file), 0755); err == nil {
			output = &lumberjack.Logger{
				Filename:   file,
				MaxSize:    50, // megabytes
				MaxBackups: 5,
				MaxAge:     28, // days
				Compress:   true,
			}
		}
	}

	AppLogger = New(opts.Level, output)
	return AppLogger
}
