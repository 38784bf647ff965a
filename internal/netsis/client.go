// Package netsis provides read-only access to the Netsis ERP on MS SQL Server.
// It reads stock master data (TBLSTSABIT) and stock movements (TBLSTHAR) from the current
// company database and from one database per fiscal year.
package netsis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ithalat-ops/backoffice-api/internal/config"
	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0

	defaultHealthCheckTimeout = 5 * time.Second
	defaultCodeChunkSize      = 500
)

// ErrNotConfigured is returned by queries on a disabled client
var ErrNotConfigured = errors.New("netsis client not initialized")

var databaseName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Client provides read-only access to Netsis. A nil *Client is valid and reports disabled.
type Client struct {
	db           *sql.DB
	config       *config.NetsisConfig
	logger       *zap.Logger
	queryTimeout time.Duration
	chunkSize    int
}

// HealthStatus represents the health check result for the Netsis connection
type HealthStatus struct {
	Status    string        `json:"status"`
	Latency   time.Duration `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
	MaxOpen   int           `json:"max_open_connections"`
	Open      int           `json:"open_connections"`
	InUse     int           `json:"in_use"`
	Idle      int           `json:"idle"`
	WaitCount int64         `json:"wait_count"`
}

// NewClient connects to Netsis with retry. Returns nil when Netsis is disabled or credentials
// are missing; callers treat a nil client as "ERP unavailable".
func NewClient(cfg *config.NetsisConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Netsis connection disabled")
		return nil, nil
	}

	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" || cfg.Database == "" {
		logger.Warn("Netsis enabled but missing settings, skipping connection",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
			zap.Bool("database_present", cfg.Database != ""),
		)
		return nil, nil
	}

	for _, name := range append([]string{cfg.Database}, cfg.Databases()...) {
		if !databaseName.MatchString(name) {
			return nil, fmt.Errorf("invalid netsis database name %q", name)
		}
	}

	logger.Info("Initializing Netsis connection",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("query_timeout_seconds", cfg.QueryTimeout),
		zap.Strings("yearly_databases", cfg.Databases()),
	)

	connStr := buildConnectionString(cfg)

	var (
		db  *sql.DB
		err error
	)
	backoff := defaultInitialBackoff

	for attempt := 1; attempt <= defaultMaxRetries; attempt++ {
		db, err = sql.Open("sqlserver", connStr)
		if err != nil {
			logger.Warn("Failed to open Netsis connection", zap.Error(err), zap.Int("attempt", attempt))
			if attempt < defaultMaxRetries {
				time.Sleep(backoff)
				backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
			}
			continue
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

		ctx, cancel := context.WithTimeout(context.Background(), defaultHealthCheckTimeout)
		err = db.PingContext(ctx)
		cancel()

		if err != nil {
			logger.Warn("Netsis ping failed", zap.Error(err), zap.Int("attempt", attempt))
			_ = db.Close()
			if attempt < defaultMaxRetries {
				time.Sleep(backoff)
				backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
			}
			continue
		}

		logger.Info("Netsis connection established", zap.Int("attempts_taken", attempt))

		chunk := cfg.CodeChunkSize
		if chunk <= 0 {
			chunk = defaultCodeChunkSize
		}
		return &Client{
			db:           db,
			config:       cfg,
			logger:       logger,
			queryTimeout: cfg.QueryTimeoutDuration(),
			chunkSize:    chunk,
		}, nil
	}

	return nil, fmt.Errorf("failed to connect to netsis after %d attempts: %w", defaultMaxRetries, err)
}

// buildConnectionString constructs a SQL Server URL from host[:port]. The database is
// chosen per query with three-part names, so it is not part of the URL.
func buildConnectionString(cfg *config.NetsisConfig) string {
	hostPort := strings.SplitN(cfg.URL, "/", 2)[0]
	hostParts := strings.SplitN(hostPort, ":", 2)
	host := hostParts[0]
	port := "1433"
	if len(hostParts) > 1 && hostParts[1] != "" {
		port = hostParts[1]
	}

	query := url.Values{}
	query.Add("encrypt", "disable")
	query.Add("connection timeout", "30")
	query.Add("app name", "backoffice-api")
	query.Add("database", cfg.Database)

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%s", host, port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// Close closes the connection pool
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	c.logger.Info("Closing Netsis connection")
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close netsis connection: %w", err)
	}
	return nil
}

// IsEnabled returns true if the client is initialized and ready for queries.
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}

// HealthCheck pings Netsis and returns pool statistics
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if !c.IsEnabled() {
		return &HealthStatus{Status: "disabled"}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultHealthCheckTimeout)
		defer cancel()
	}

	start := time.Now()
	err := c.db.PingContext(ctx)
	latency := time.Since(start)

	stats := c.db.Stats()
	status := &HealthStatus{
		Status:    "healthy",
		Latency:   latency,
		MaxOpen:   stats.MaxOpenConnections,
		Open:      stats.OpenConnections,
		InUse:     stats.InUse,
		Idle:      stats.Idle,
		WaitCount: stats.WaitCount,
	}
	if err != nil {
		c.logger.Warn("Netsis health check failed", zap.Error(err), zap.Duration("latency", latency))
		status.Status = "unhealthy"
		status.Error = err.Error()
	}
	return status
}

// StockNames returns STOK_ADI per STOK_KODU for the given codes
func (c *Client) StockNames(ctx context.Context, codes []string) (map[string]string, error) {
	out := make(map[string]string, len(codes))
	err := c.forEachChunk(codes, func(chunk []string) error {
		query, args := stockNamesQuery(c.config.Database, chunk)
		return c.scanPairs(ctx, query, args, func(code string, value interface{}) {
			out[code] = toString(value)
		})
	})
	return out, err
}

// StockNamesByPrefix returns names of every stock code starting with prefix
func (c *Client) StockNamesByPrefix(ctx context.Context, prefix string) (map[string]string, error) {
	if !c.IsEnabled() {
		return nil, ErrNotConfigured
	}
	out := make(map[string]string)
	query, args := stockNamesByPrefixQuery(c.config.Database, prefix)
	err := c.scanPairs(ctx, query, args, func(code string, value interface{}) {
		out[code] = toString(value)
	})
	return out, err
}

// StockQuantities returns on-hand quantity (inbound minus outbound movements) per code
func (c *Client) StockQuantities(ctx context.Context, codes []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(codes))
	err := c.forEachChunk(codes, func(chunk []string) error {
		query, args := stockQuantityQuery(c.config.Database, chunk)
		return c.scanPairs(ctx, query, args, func(code string, value interface{}) {
			out[code] = out[code].Add(toDecimal(value))
		})
	})
	return out, err
}

// SalesByYear returns outbound quantities per yearly database and code.
// The outer key is the database name.
func (c *Client) SalesByYear(ctx context.Context, codes []string) (map[string]map[string]decimal.Decimal, error) {
	if !c.IsEnabled() {
		return nil, ErrNotConfigured
	}
	out := make(map[string]map[string]decimal.Decimal)
	for _, db := range c.config.Databases() {
		perCode := make(map[string]decimal.Decimal)
		err := c.forEachChunk(codes, func(chunk []string) error {
			query, args := salesQuery(db, chunk)
			return c.scanPairs(ctx, query, args, func(code string, value interface{}) {
				perCode[code] = perCode[code].Add(toDecimal(value))
			})
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read sales from %s: %w", db, err)
		}
		out[db] = perCode
	}
	return out, nil
}

// Databases lists the configured yearly databases
func (c *Client) Databases() []string {
	if !c.IsEnabled() {
		return nil
	}
	return c.config.Databases()
}

func (c *Client) forEachChunk(codes []string, fn func([]string) error) error {
	if !c.IsEnabled() {
		return ErrNotConfigured
	}
	for start := 0; start < len(codes); start += c.chunkSize {
		end := min(start+c.chunkSize, len(codes))
		if err := fn(codes[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// scanPairs runs a two-column (code, value) query
func (c *Client) scanPairs(ctx context.Context, query string, args []interface{}, fn func(code string, value interface{})) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		c.logger.Error("Netsis query failed",
			zap.Error(err),
			zap.String("query", truncateQuery(query, 200)),
			zap.Duration("duration", time.Since(start)),
		)
		return fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var (
			code  string
			value interface{}
		)
		if err := rows.Scan(&code, &value); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		fn(strings.TrimSpace(code), value)
		n++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}

	c.logger.Debug("Netsis query completed",
		zap.Int("rows_returned", n),
		zap.Int("args_count", len(args)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func truncateQuery(query string, maxLen int) string {
	if len(query) <= maxLen {
		return query
	}
	return query[:maxLen] + "..."
}
