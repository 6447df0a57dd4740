package logger

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{in: "", want: zapcore.InfoLevel},
		{in: "debug", want: zapcore.DebugLevel},
		{in: "WARN", want: zapcore.WarnLevel},
		{in: "error", want: zapcore.ErrorLevel},
		{in: "chatty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	l, err := New("production", "info", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel), "debug mode should force debug level")

	l, err = New("development", "warn", false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))

	_, err = New("development", "nope", false)
	require.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "empty", in: "", max: 10, want: ""},
		{name: "plain", in: "alice", max: 10, want: "alice"},
		{name: "strips newlines", in: "alice\nlevel=error", max: 100, want: "alicelevel=error"},
		{name: "strips control", in: "a\x00b\x1bc", max: 100, want: "abc"},
		{name: "truncates", in: "abcdefghij", max: 4, want: "abcd..."},
		{name: "invalid utf8", in: "ok\xff", max: 100, want: "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SanitizeString(tt.in, tt.max))
		})
	}
}

func TestSanitizeString_DoesNotSplitRunes(t *testing.T) {
	t.Parallel()

	got := SanitizeString("ééé", 3)
	assert.Equal(t, "é...", got)
}

func TestSanitizeHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", SanitizeError(nil))
	assert.Equal(t, "boom", SanitizeError(errors.New("boom")))
	assert.Len(t, SanitizeUserID(strings.Repeat("x", 500)), MaxUserIDLength+3)
	assert.Equal(t, "/api/keywords", SanitizePath("/api/keywords"))
	assert.Equal(t, "[REDACTED]", RedactToken("short"))
	assert.Equal(t, "eyJhbG...[REDACTED]", RedactToken("eyJhbGciOiJIUzI1NiJ9.payload.sig"))
}
