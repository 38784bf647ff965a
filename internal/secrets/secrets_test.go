package secrets_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/ithalat-ops/backoffice-api/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFetcher struct {
	values map[string]string
	calls  int
}

func (f *fakeFetcher) GetSecret(_ context.Context, name, _ string, _ *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	f.calls++
	v, ok := f.values[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, errors.New("SecretNotFound")
	}
	return azsecrets.GetSecretResponse{Secret: azsecrets.Secret{Value: &v}}, nil
}

func TestResolveSource(t *testing.T) {
	assert.Equal(t, secrets.SourceEnvironment, secrets.ResolveSource("auto", "development"))
	assert.Equal(t, secrets.SourceEnvironment, secrets.ResolveSource("", ""))
	assert.Equal(t, secrets.SourceVault, secrets.ResolveSource("auto", "production"))
	assert.Equal(t, secrets.SourceVault, secrets.ResolveSource("vault", "development"))
	assert.Equal(t, secrets.SourceEnvironment, secrets.ResolveSource("environment", "production"))
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("NETSIS_PASSWORD", "s3cret")
	p := secrets.EnvProvider{}

	v, err := p.GetSecretOrEnv(context.Background(), "NETSIS-PASSWORD", "NETSIS_PASSWORD")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	_, err = p.GetSecret(context.Background(), "DEFINITELY_NOT_SET_VAR")
	assert.Error(t, err)
	assert.Equal(t, secrets.SourceEnvironment, p.Source())
}

func TestNewProvider_Environment(t *testing.T) {
	p, err := secrets.NewProvider(&secrets.ProviderConfig{Source: secrets.SourceAuto, Environment: "development"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, secrets.SourceEnvironment, p.Source())
}

func TestNewProvider_VaultRequiresName(t *testing.T) {
	_, err := secrets.NewProvider(&secrets.ProviderConfig{Source: secrets.SourceVault}, zap.NewNop())
	assert.Error(t, err)
}

func TestVaultProvider_CachesValues(t *testing.T) {
	fetcher := &fakeFetcher{values: map[string]string{"jwt-secret": "abc"}}
	p := secrets.NewVaultProviderWithClient(fetcher, true, 0, zap.NewNop())

	for i := 0; i < 3; i++ {
		v, err := p.GetSecret(context.Background(), "jwt-secret")
		require.NoError(t, err)
		assert.Equal(t, "abc", v)
	}
	assert.Equal(t, 1, fetcher.calls)

	p.ClearCache()
	_, err := p.GetSecret(context.Background(), "jwt-secret")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)

	_, err = p.GetSecret(context.Background(), "missing")
	assert.Error(t, err)
}

func TestVaultProvider_EnvOverride(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	fetcher := &fakeFetcher{values: map[string]string{"jwt-secret": "from-vault"}}
	p := secrets.NewVaultProviderWithClient(fetcher, false, 0, zap.NewNop())

	v, err := p.GetSecretOrEnv(context.Background(), "jwt-secret", "JWT_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
	assert.Equal(t, 0, fetcher.calls)
	assert.Equal(t, secrets.SourceVault, p.Source())
}
