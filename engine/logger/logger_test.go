package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerDefaultIsSilent(t *testing.T) {
	SetLogger(nil)
	l := Logger()
	require.NotNil(t, l)
	assert.False(t, l.Enabled(t.Context(), slog.LevelError))
}

func TestSetLoggerRoundTrip(t *testing.T) {
	defer SetLogger(nil)
	buf := &bytes.Buffer{}
	l := slog.New(NewConsoleHandler(buf, slog.LevelInfo, termenv.WithProfile(termenv.Ascii)))
	SetLogger(l)
	assert.Same(t, l, Logger())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"trace", LevelTrace, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConsoleHandlerFormatsRecord(t *testing.T) {
	buf := &bytes.Buffer{}
	l := slog.New(NewConsoleHandler(buf, slog.LevelDebug, termenv.WithProfile(termenv.Ascii)))

	l.With("pipeline", "DAIS").WithGroup("pass").Warn("buffer corrupted", "name", "Reset buffers", "count", 3)

	line := buf.String()
	assert.Contains(t, line, "WARN  buffer corrupted")
	assert.Contains(t, line, "pipeline=DAIS")
	assert.Contains(t, line, `pass.name="Reset buffers"`)
	assert.Contains(t, line, "pass.count=3")
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.NotContains(t, line, "\x1b[")
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := slog.New(NewConsoleHandler(buf, slog.LevelWarn, termenv.WithProfile(termenv.Ascii)))

	l.Info("hidden")
	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l.Error("shown")
	assert.Contains(t, buf.String(), "ERROR shown")
}

func TestConsoleHandlerColoursLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := slog.New(NewConsoleHandler(buf, slog.LevelInfo, termenv.WithProfile(termenv.ANSI)))
	l.Error("boom")
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestThrottle(t *testing.T) {
	now := time.Unix(100, 0)
	th := NewThrottle(time.Second)
	th.now = func() time.Time { return now }

	ok, n := th.Allow()
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	for range 3 {
		ok, _ = th.Allow()
		assert.False(t, ok)
	}

	now = now.Add(time.Second)
	ok, n = th.Allow()
	assert.True(t, ok)
	assert.Equal(t, 3, n)
}

func TestRecorderCountsByLevelAndMessage(t *testing.T) {
	defer SetLogger(nil)
	rec := NewRecorder()
	SetLogger(slog.New(rec))

	Logger().Warn("buffer corrupted", "buffer", "a")
	Logger().With("provider", "p").Warn("buffer corrupted")
	Logger().Info("buffer corrupted")

	assert.Equal(t, 2, rec.Count(slog.LevelWarn, "buffer corrupted"))
	assert.Equal(t, 1, rec.Count(slog.LevelInfo, "buffer corrupted"))
	require.Len(t, rec.Records(), 3)

	rec.Reset()
	assert.Empty(t, rec.Records())
}
