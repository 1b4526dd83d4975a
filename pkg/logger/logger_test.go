package logger_test

import (
	"testing"

	"github.com/PioneersHub/pytanis-go/pkg/logger"
)

func TestSimpleLogger(t *testing.T) {
	log := logger.NewSimpleLogger()

	log.Debug("debug message", "key", "value")
	log.Info("info message", "key", "value")
	log.Warn("warn message", "key", "value")
	log.Error("error message", "key", "value")
}

func TestLoggerWith(t *testing.T) {
	log := logger.NewSimpleLogger()

	withFields := log.With(
		logger.Field{Key: "component", Value: "test"},
		logger.Field{Key: "version", Value: "1.0"},
	)

	withFields.Info("test message")
}

func TestWithComponent(t *testing.T) {
	log := logger.NewSimpleLogger()
	scoped := log.WithComponent("fetcher")
	if _, ok := scoped.(logger.ComponentAwareLogger); !ok {
		t.Fatalf("WithComponent should still satisfy ComponentAwareLogger")
	}
	scoped.Info("fetching page")
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"Debug", "debug"},
		{"Info", "info"},
		{"Warn", "warn"},
		{"Error", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.NewSimpleLogger()
			log.SetLevel(tt.level)
			if log == nil {
				t.Error("Logger should not be nil")
			}
		})
	}
}

func TestNoOpLogger(t *testing.T) {
	var l logger.Logger = logger.NoOpLogger{}
	l = l.WithField("a", 1).WithFields(map[string]interface{}{"b": 2}).With(logger.Field{Key: "c", Value: 3})
	l.Info("should not panic")
}
