package secrets

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// SecretSource defines where secrets are loaded from
type SecretSource string

const (
	// SourceEnvironment loads secrets from environment variables
	SourceEnvironment SecretSource = "environment"
	// SourceVault loads secrets from Azure Key Vault
	SourceVault SecretSource = "vault"
	// SourceAuto uses vault outside development, environment otherwise
	SourceAuto SecretSource = "auto"
)

// Provider retrieves named secrets
type Provider interface {
	GetSecret(ctx context.Context, name string) (string, error)
	// GetSecretOrEnv prefers a set environment variable over the provider's own source
	GetSecretOrEnv(ctx context.Context, name, envName string) (string, error)
	Source() SecretSource
}

// ProviderConfig holds configuration for the secrets provider
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ResolveSource turns a configured source string into a concrete source.
func ResolveSource(source, environment string) SecretSource {
	switch SecretSource(source) {
	case SourceEnvironment, SourceVault:
		return SecretSource(source)
	}
	switch environment {
	case "development", "local", "test", "":
		return SourceEnvironment
	default:
		return SourceVault
	}
}

// NewProvider creates the provider for the resolved source
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (Provider, error) {
	source := ResolveSource(string(cfg.Source), cfg.Environment)

	logger.Info("Secrets provider initialized",
		zap.String("source", string(source)),
		zap.String("environment", cfg.Environment),
	)

	if source == SourceEnvironment {
		return EnvProvider{}, nil
	}
	if cfg.VaultName == "" {
		return nil, fmt.Errorf("vault name required when using vault secret source")
	}
	return NewVaultProvider(&VaultConfig{
		VaultName:    cfg.VaultName,
		CacheEnabled: cfg.CacheEnabled,
		CacheTTL:     cfg.CacheTTL,
	}, logger)
}

// EnvProvider reads secrets from environment variables
type EnvProvider struct{}

// GetSecret returns the environment variable named name
func (EnvProvider) GetSecret(_ context.Context, name string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("environment variable '%s' not set", name)
	}
	return value, nil
}

// GetSecretOrEnv reads envName; the secret name is not an environment key
func (p EnvProvider) GetSecretOrEnv(ctx context.Context, _, envName string) (string, error) {
	return p.GetSecret(ctx, envName)
}

// Source returns SourceEnvironment
func (EnvProvider) Source() SecretSource {
	return SourceEnvironment
}
