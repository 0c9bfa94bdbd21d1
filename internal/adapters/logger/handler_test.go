package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pyprod/internal/adapters/logger"
)

func TestPrettyHandler_Handle_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		msg   string
		want  string
	}{
		{"info level", slog.LevelInfo, "information message", "information message\n"},
		{"warn level", slog.LevelWarn, "warning message", "! warning message\n"},
		{"error level", slog.LevelError, "error message", "x error message\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			handler := logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})
			lg := slog.New(handler)

			lg.Log(t.Context(), tt.level, tt.msg)

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrettyHandler_Handle_FiltersBelowLevel(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	handler := logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	lg := slog.New(handler)

	lg.Debug("filtered message")

	assert.Empty(t, buf.String())
}

func TestPrettyHandler_WithAttrs(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	handler := logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}).
		WithAttrs([]slog.Attr{slog.String("a", "1"), slog.Int("b", 2)})
	lg := slog.New(handler)

	lg.Info("multi attr message")

	assert.Equal(t, "multi attr message a=1 b=2\n", buf.String())
}

func TestPrettyHandler_WithGroup(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	var handler slog.Handler = logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	handler = handler.WithGroup("request").WithAttrs([]slog.Attr{slog.String("id", "123")})
	lg := slog.New(handler)

	lg.Info("grouped message")

	assert.Equal(t, "grouped message request.id=123\n", buf.String())
}

func TestPrettyHandler_WithGroup_EmptyName(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	handler := logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	sameHandler := handler.WithGroup("")
	lg := slog.New(sameHandler)

	lg.Info("empty group test", "key", "val")

	assert.Equal(t, "empty group test key=val\n", buf.String())
}

func TestPrettyHandler_Enabled(t *testing.T) {
	tests := []struct {
		name         string
		handlerLevel slog.Level
		recordLevel  slog.Level
		want         bool
	}{
		{"debug below info", slog.LevelInfo, slog.LevelDebug, false},
		{"info at info", slog.LevelInfo, slog.LevelInfo, true},
		{"warn above info", slog.LevelInfo, slog.LevelWarn, true},
		{"warn at error", slog.LevelError, slog.LevelWarn, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := logger.NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: tt.handlerLevel})
			assert.Equal(t, tt.want, handler.Enabled(t.Context(), tt.recordLevel))
		})
	}
}

func TestPrettyHandler_NilWriter(t *testing.T) {
	require.NotPanics(t, func() {
		_ = logger.NewPrettyHandler(nil, &slog.HandlerOptions{Level: slog.LevelInfo})
	})
}
