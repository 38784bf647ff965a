package logger_test

import (
	"testing"

	"github.com/ithalat-ops/backoffice-api/internal/config"
	"github.com/ithalat-ops/backoffice-api/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, logger.ParseLevel(" DEBUG "))
	assert.Equal(t, zapcore.WarnLevel, logger.ParseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, logger.ParseLevel("verbose"))
	assert.Equal(t, zapcore.InfoLevel, logger.ParseLevel(""))
}

func TestNewLogger(t *testing.T) {
	log, err := logger.NewLogger(
		&config.LoggingConfig{Level: "error", Format: "json"},
		&config.AppConfig{Name: "backoffice-api", Environment: "production"},
	)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))
}

func TestContextHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	logger.WithImport(base, "rfq-1", "quotes.xlsx").Info("committed")
	logger.WithImport(base, "rfq-2", "").Info("pasted")
	logger.WithJob(base, "netsis-name-sync").Debug("running")
	logger.WithRole(logger.WithRequest(base, "POST", "/api/v1/rfqs", "req-1"), "alice", "purchasing").Info("request")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "quotes.xlsx", entries[0].ContextMap()["import_source"])
	assert.Equal(t, "rfq-1", entries[0].ContextMap()["rfq_id"])
	assert.NotContains(t, entries[1].ContextMap(), "import_source")
	assert.Equal(t, "netsis-name-sync", entries[2].ContextMap()["job_name"])

	fields := entries[3].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "purchasing", fields["role"])
}
