package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"competencias/backend/config"
)

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(&config.LogConfig{Level: "warn", Format: "json"}, "periodctl")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	_, err = NewLogger(&config.LogConfig{Level: "debug", Format: "console"}, "")
	assert.NoError(t, err)
}

func TestNewLogger_RejectsInvalidConfig(t *testing.T) {
	_, err := NewLogger(&config.LogConfig{Level: "verbose", Format: "json"}, "api")
	assert.Error(t, err)

	_, err = NewLogger(&config.LogConfig{Level: "info", Format: "xml"}, "api")
	assert.Error(t, err)
}
