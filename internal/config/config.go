package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ithalat-ops/backoffice-api/internal/secrets"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Netsis    NetsisConfig
	Cache     CacheConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Import    ImportConfig
	Jobs      JobsConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	// AutoMigrate runs gorm AutoMigrate on startup (development only)
	AutoMigrate bool
}

// NetsisConfig holds the read-only connection to the Netsis ERP on MS SQL Server.
type NetsisConfig struct {
	Enabled bool
	// URL is host:port, the database is chosen per query
	URL      string
	User     string
	Password string
	// Database is the current company database holding stock master data
	Database string
	// YearlyDatabases is a comma separated list of company databases, one per fiscal year
	YearlyDatabases string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	QueryTimeout    int
	// CodeChunkSize bounds the number of stock codes per IN (...) query
	CodeChunkSize int
}

// CacheConfig holds the Redis cache used for ERP figures
type CacheConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	// TTL in seconds
	TTL int
}

// AuthConfig holds API key and bearer token settings
type AuthConfig struct {
	APIKey    string
	JWTSecret string
	JWTIssuer string
}

type StorageConfig struct {
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
	MaxUploadSizeMB       int64
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int  // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
	// Sampling drops repeated entries under load. Off by default so every rejected import
	// row is logged.
	Sampling bool
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	ReferrerPolicy        string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	// ImportRequestsPerMinute applies to the upload/import endpoints
	ImportRequestsPerMinute int
	WhitelistIPs            []string
	WhitelistPaths          []string
}

// ImportConfig bounds import and reconciliation work
type ImportConfig struct {
	// ChunkSize is the number of rows per batched insert/update
	ChunkSize int
	// MaxUploadSizeMB caps multipart uploads
	MaxUploadSizeMB int64
	// NumericCeiling is the exclusive upper bound for persisted quantities (numeric(20,4))
	NumericCeiling string
	// ArchiveUploads stores uploaded source files through the storage layer
	ArchiveUploads bool
}

// JobsConfig holds scheduled job settings
type JobsConfig struct {
	Enabled bool
	// NameSyncSchedule is a six-field cron spec (with seconds)
	NameSyncSchedule  string
	NameSyncBatchSize int
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (n *NetsisConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(n.ConnMaxLifetime) * time.Second
}

// QueryTimeoutDuration returns query timeout as duration
func (n *NetsisConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(n.QueryTimeout) * time.Second
}

// Databases returns the yearly databases in configured order, blanks removed
func (n *NetsisConfig) Databases() []string {
	var out []string
	for _, db := range strings.Split(n.YearlyDatabases, ",") {
		if db = strings.TrimSpace(db); db != "" {
			out = append(out, db)
		}
	}
	return out
}

// TTLDuration returns the cache TTL as duration
func (c *CacheConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// Load loads configuration from file and environment variables.
// Use LoadWithSecrets for Key Vault resolution.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Auth.APIKey == "" {
		cfg.Auth.APIKey = v.GetString("ADMIN_API_KEY")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}
	if v.GetBool("NETSIS_ENABLED") {
		cfg.Netsis.Enabled = true
	}

	return &cfg, nil
}

// LoadWithSecrets loads configuration and resolves secrets from the configured source.
// Key Vault is consulted when the secrets source resolves to vault and a vault name is set;
// otherwise the environment values from Load are kept.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	source := secrets.ResolveSource(cfg.Secrets.Source, cfg.App.Environment)
	if strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true" {
		source = secrets.SourceVault
	}

	if source != secrets.SourceVault {
		logger.Info("Using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when secrets are loaded from vault")
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	logger.Info("Loading secrets from Azure Key Vault",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)
	applySecrets(ctx, cfg, provider, logger)
	logger.Info("Secrets loaded from vault successfully")
	return cfg, nil
}

// secretTarget binds a vault secret (with env fallback) to a config field
type secretTarget struct {
	secret string
	env    string
	dst    *string
}

func applySecrets(ctx context.Context, cfg *Config, provider secrets.Provider, logger *zap.Logger) {
	targets := []secretTarget{
		{"POSTGRES-HOST", "DATABASE_HOST", &cfg.Database.Host},
		{"POSTGRES-USER", "DATABASE_USER", &cfg.Database.User},
		{"POSTGRES-PASSWORD", "DATABASE_PASSWORD", &cfg.Database.Password},
		{"admin-api-key", "ADMIN_API_KEY", &cfg.Auth.APIKey},
		{"jwt-secret", "JWT_SECRET", &cfg.Auth.JWTSecret},
		{"storage-connection-string", "STORAGE_CLOUDCONNECTIONSTRING", &cfg.Storage.CloudConnectionString},
		{"redis-password", "CACHE_PASSWORD", &cfg.Cache.Password},
	}
	if cfg.Netsis.Enabled {
		targets = append(targets,
			secretTarget{"NETSIS-URL", "NETSIS_URL", &cfg.Netsis.URL},
			secretTarget{"NETSIS-USERNAME", "NETSIS_USER", &cfg.Netsis.User},
			secretTarget{"NETSIS-PASSWORD", "NETSIS_PASSWORD", &cfg.Netsis.Password},
		)
	}

	for _, t := range targets {
		value, err := provider.GetSecretOrEnv(ctx, t.secret, t.env)
		if err != nil {
			logger.Warn("Failed to resolve secret", zap.String("secret", t.secret), zap.Error(err))
			continue
		}
		if value != "" {
			*t.dst = value
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Ithalat Backoffice API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "backoffice")
	v.SetDefault("database.user", "backoffice_user")
	v.SetDefault("database.password", "backoffice_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)
	v.SetDefault("database.autoMigrate", false)

	// Netsis ERP (MS SQL Server, optional, read-only)
	v.SetDefault("netsis.enabled", false)
	v.SetDefault("netsis.maxOpenConns", 10)
	v.SetDefault("netsis.maxIdleConns", 2)
	v.SetDefault("netsis.connMaxLifetime", 300)
	v.SetDefault("netsis.queryTimeout", 60)
	v.SetDefault("netsis.codeChunkSize", 500)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", 900)

	v.SetDefault("auth.jwtIssuer", "")

	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.cloudContainer", "imports")
	v.SetDefault("storage.maxUploadSizeMB", 50)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.sampling", false)

	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 150)
	v.SetDefault("server.requestTimeout", 120)
	v.SetDefault("server.enableSwagger", true)

	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID", "Content-Disposition"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 120)
	v.SetDefault("rateLimit.importRequestsPerMinute", 20)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready"})

	v.SetDefault("import.chunkSize", 500)
	v.SetDefault("import.maxUploadSizeMB", 20)
	v.SetDefault("import.numericCeiling", "1e16")
	v.SetDefault("import.archiveUploads", true)

	v.SetDefault("jobs.enabled", false)
	v.SetDefault("jobs.nameSyncSchedule", "0 30 2 * * *")
	v.SetDefault("jobs.nameSyncBatchSize", 200)
}
