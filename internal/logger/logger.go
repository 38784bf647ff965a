// Package logger builds the zap logger shared by the API, the migrate command and the
// background jobs, plus helpers that attach request, caller, import and job context.
package logger

import (
	"fmt"
	"strings"

	"github.com/ithalat-ops/backoffice-api/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates the process logger. Production always logs JSON with ISO8601
// timestamps; other environments use the colored console encoder unless format is json.
func NewLogger(cfg *config.LoggingConfig, appCfg *config.AppConfig) (*zap.Logger, error) {
	zapCfg := baseConfig(cfg.Format, appCfg.Environment)
	zapCfg.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))
	if !cfg.Sampling {
		zapCfg.Sampling = nil
	}
	zapCfg.InitialFields = map[string]interface{}{
		"app":         appCfg.Name,
		"environment": appCfg.Environment,
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func baseConfig(format, environment string) zap.Config {
	if strings.EqualFold(format, "json") || environment == "production" {
		c := zap.NewProductionConfig()
		c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return c
	}
	c := zap.NewDevelopmentConfig()
	c.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	// stack traces from error level up; warnings are routine on rejected imports
	c.Development = false
	return c
}

// ParseLevel reads a level name case-insensitively; unknown names mean info.
func ParseLevel(raw string) zapcore.Level {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// WithRequest adds request context to logger
func WithRequest(logger *zap.Logger, method, path, requestID string) *zap.Logger {
	return logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
}

// WithRole adds the caller's role to logger
func WithRole(logger *zap.Logger, subject, role string) *zap.Logger {
	return logger.With(
		zap.String("subject", subject),
		zap.String("role", role),
	)
}

// WithImport tags entries of one RFQ import run. source is the uploaded filename, empty
// for pasted text.
func WithImport(logger *zap.Logger, rfqID, source string) *zap.Logger {
	fields := []zap.Field{zap.String("rfq_id", rfqID)}
	if source != "" {
		fields = append(fields, zap.String("import_source", source))
	}
	return logger.With(fields...)
}

// WithJob tags entries of a scheduled job
func WithJob(logger *zap.Logger, name string) *zap.Logger {
	return logger.With(zap.String("job_name", name))
}
