package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// SimpleLogger is a dependency-free structured logger. It formats records
// as "[LEVEL] component=... msg key=value ...", good enough for CLI runs
// of the sync/assign/schedule commands without pulling in a logging
// library the rest of the pipeline has no other use for.
type SimpleLogger struct {
	level     LogLevel
	component string
	fields    map[string]interface{}
}

// NewSimpleLogger creates a new simple logger at INFO level.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{
		level:  InfoLevel,
		fields: make(map[string]interface{}),
	}
}

// NewDefaultLogger creates a new default logger instance, honoring LOG_LEVEL.
func NewDefaultLogger() Logger {
	l := NewSimpleLogger()
	l.SetLevel(GetLogLevel())
	return l
}

func (l *SimpleLogger) Debug(msg string, fields ...interface{}) {
	if l.level <= DebugLevel {
		l.log("DEBUG", msg, fields...)
	}
}

func (l *SimpleLogger) Info(msg string, fields ...interface{}) {
	if l.level <= InfoLevel {
		l.log("INFO", msg, fields...)
	}
}

func (l *SimpleLogger) Warn(msg string, fields ...interface{}) {
	if l.level <= WarnLevel {
		l.log("WARN", msg, fields...)
	}
}

func (l *SimpleLogger) Error(msg string, fields ...interface{}) {
	if l.level <= ErrorLevel {
		l.log("ERROR", msg, fields...)
	}
}

func (l *SimpleLogger) SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		l.level = DebugLevel
	case "INFO":
		l.level = InfoLevel
	case "WARN", "WARNING":
		l.level = WarnLevel
	case "ERROR":
		l.level = ErrorLevel
	}
}

func (l *SimpleLogger) clone() *SimpleLogger {
	newFields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	return &SimpleLogger{level: l.level, component: l.component, fields: newFields}
}

func (l *SimpleLogger) WithField(key string, value interface{}) Logger {
	c := l.clone()
	c.fields[key] = value
	return c
}

func (l *SimpleLogger) WithFields(fields map[string]interface{}) Logger {
	c := l.clone()
	for k, v := range fields {
		c.fields[k] = v
	}
	return c
}

func (l *SimpleLogger) With(fields ...Field) Logger {
	c := l.clone()
	for _, f := range fields {
		c.fields[f.Key] = f.Value
	}
	return c
}

// WithComponent tags subsequent records with a component name, e.g.
// "fetcher", "cache", "assignment", "schedule".
func (l *SimpleLogger) WithComponent(component string) Logger {
	c := l.clone()
	c.component = component
	return c
}

func (l *SimpleLogger) log(level, msg string, fields ...interface{}) {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", level))
	if l.component != "" {
		parts = append(parts, fmt.Sprintf("component=%s", l.component))
	}
	parts = append(parts, msg)

	for k, v := range l.fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			parts = append(parts, fmt.Sprintf("%v=%v", fields[i], fields[i+1]))
		}
	}

	log.Println(strings.Join(parts, " "))
}

// GetLogLevel reads the process log level from the environment, defaulting
// to INFO when unset.
func GetLogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "INFO"
	}
	return level
}

// NoOpLogger discards everything; used as the default when no logger is
// configured so components never need a nil check.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...interface{})               {}
func (NoOpLogger) Info(string, ...interface{})                {}
func (NoOpLogger) Warn(string, ...interface{})                {}
func (NoOpLogger) Error(string, ...interface{})               {}
func (NoOpLogger) SetLevel(string)                            {}
func (NoOpLogger) WithField(string, interface{}) Logger       { return NoOpLogger{} }
func (NoOpLogger) WithFields(map[string]interface{}) Logger   { return NoOpLogger{} }
func (NoOpLogger) With(...Field) Logger                       { return NoOpLogger{} }
func (NoOpLogger) WithComponent(string) Logger                { return NoOpLogger{} }
