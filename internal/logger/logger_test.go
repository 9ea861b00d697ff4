package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, mode := range []string{"dev", "prod", "production", ""} {
		log, err := New(mode)
		require.NoError(t, err, mode)
		assert.NotNil(t, log.SugaredLogger)
	}
}

func TestLogger_WithAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core)).With("component", "test")

	log.Info("reading logged", "user_id", 7)
	log.Warn("slow query")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "reading logged", entries[0].Message)
	assert.Equal(t, "test", entries[0].ContextMap()["component"])
	assert.Equal(t, int64(7), entries[0].ContextMap()["user_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Error("ignored", "k", "v")
	log.Printf("ignored %d", 1)
}
