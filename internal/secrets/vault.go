package secrets

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"go.uber.org/zap"
)

// SecretFetcher is the subset of *azsecrets.Client used by VaultProvider
type SecretFetcher interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// VaultProvider reads secrets from Azure Key Vault with an optional in-memory cache
type VaultProvider struct {
	client       SecretFetcher
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration

	mu    sync.Mutex
	cache map[string]cachedSecret
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// VaultConfig holds configuration for the vault client
type VaultConfig struct {
	VaultName    string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// NewVaultProvider creates a Key Vault backed provider using DefaultAzureCredential
// (environment, managed identity or Azure CLI credentials).
func NewVaultProvider(cfg *VaultConfig, logger *zap.Logger) (*VaultProvider, error) {
	if cfg.VaultName == "" {
		return nil, fmt.Errorf("vault name is required")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		logger.Error("Failed to create Azure credential", zap.Error(err))
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	vaultURL := fmt.Sprintf("https://%s.vault.azure.net/", cfg.VaultName)
	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		logger.Error("Failed to create Key Vault client", zap.Error(err))
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}

	logger.Info("Azure Key Vault client initialized",
		zap.String("vault_url", vaultURL),
		zap.Bool("cache_enabled", cfg.CacheEnabled),
	)

	return NewVaultProviderWithClient(client, cfg.CacheEnabled, cfg.CacheTTL, logger), nil
}

// NewVaultProviderWithClient wraps an existing fetcher
func NewVaultProviderWithClient(client SecretFetcher, cacheEnabled bool, ttl time.Duration, logger *zap.Logger) *VaultProvider {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &VaultProvider{
		client:       client,
		logger:       logger,
		cacheEnabled: cacheEnabled,
		cacheTTL:     ttl,
		cache:        make(map[string]cachedSecret),
	}
}

// GetSecret retrieves a secret from Azure Key Vault
func (v *VaultProvider) GetSecret(ctx context.Context, name string) (string, error) {
	if v.cacheEnabled {
		v.mu.Lock()
		cached, ok := v.cache[name]
		v.mu.Unlock()
		if ok && time.Now().Before(cached.expiresAt) {
			return cached.value, nil
		}
	}

	resp, err := v.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		v.logger.Error("Failed to get secret from Key Vault",
			zap.String("secret_name", name),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to get secret '%s': %w", name, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret '%s' has no value", name)
	}

	value := *resp.Value
	if v.cacheEnabled {
		v.mu.Lock()
		v.cache[name] = cachedSecret{value: value, expiresAt: time.Now().Add(v.cacheTTL)}
		v.mu.Unlock()
	}
	return value, nil
}

// GetSecretOrEnv returns envName when set, otherwise the vault secret
func (v *VaultProvider) GetSecretOrEnv(ctx context.Context, name, envName string) (string, error) {
	if envValue := os.Getenv(envName); envValue != "" {
		v.logger.Debug("Using environment variable override", zap.String("env_name", envName))
		return envValue, nil
	}
	return v.GetSecret(ctx, name)
}

// Source returns SourceVault
func (v *VaultProvider) Source() SecretSource {
	return SourceVault
}

// ClearCache clears all cached secrets
func (v *VaultProvider) ClearCache() {
	v.mu.Lock()
	v.cache = make(map[string]cachedSecret)
	v.mu.Unlock()
}
