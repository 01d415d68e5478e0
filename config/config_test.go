package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "development defaults",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
				"JWT_SECRET":  "dev-secret",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, StorePostgres, cfg.Store)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
				assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
				assert.Equal(t, 10, cfg.Auth.BcryptCost)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.True(t, cfg.Database.AutoMigrate)
				assert.Equal(t, 25, cfg.Database.MaxOpenConns)
				assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
				assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.HTTP.CORSAllowedOrigins)
				assert.Equal(t, 2, cfg.Tasks.Workers)
				assert.Equal(t, "info", cfg.Observability.LogLevel)
				assert.True(t, cfg.Observability.MetricsEnabled)
			},
		},
		{
			name: "auth overrides",
			envVars: map[string]string{
				"JWT_SECRET":       "dev-secret",
				"JWT_TTL":          "90m",
				"AUTH_BCRYPT_COST": "12",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "dev-secret", cfg.Auth.JWTSecret)
				assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
				assert.Equal(t, 12, cfg.Auth.BcryptCost)
			},
		},
		{
			name: "http middleware overrides",
			envVars: map[string]string{
				"JWT_SECRET":           "dev-secret",
				"CORS_ALLOWED_ORIGINS": "https://blog.example.com, https://admin.example.com,",
				"RATE_LIMIT_RPS":       "2.5",
				"RATE_LIMIT_BURST":     "4",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"https://blog.example.com", "https://admin.example.com"}, cfg.HTTP.CORSAllowedOrigins)
				assert.Equal(t, 2.5, cfg.HTTP.RateLimitRPS)
				assert.Equal(t, 4, cfg.HTTP.RateLimitBurst)
			},
		},
		{
			name: "DATABASE_URL takes precedence",
			envVars: map[string]string{
				"JWT_SECRET":      "dev-secret",
				"DATABASE_URL":    "postgres://blog:pw@db.internal:6543/blogdb?sslmode=require",
				"DB_AUTO_MIGRATE": "false",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres://blog:pw@db.internal:6543/blogdb?sslmode=require", cfg.Database.DSN())
				assert.Empty(t, cfg.Database.Host)
				assert.False(t, cfg.Database.AutoMigrate)
				assert.Equal(t, "host=db.internal port=6543 database=blogdb", cfg.Database.LogString())
			},
		},
		{
			name: "memory store",
			envVars: map[string]string{
				"JWT_SECRET":    "dev-secret",
				"STORE_BACKEND": "memory",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, StoreMemory, cfg.Store)
			},
		},
		{
			name: "PORT env var takes precedence over SERVER_PORT",
			envVars: map[string]string{
				"JWT_SECRET":  "dev-secret",
				"PORT":        "9443",
				"SERVER_PORT": "9000",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9443, cfg.Server.Port)
			},
		},
		{
			name:    "missing JWT secret",
			envVars: map[string]string{"ENVIRONMENT": "development"},
			wantErr: true,
		},
		{
			name: "short JWT secret in production",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
				"JWT_SECRET":  "too-short",
			},
			wantErr: true,
		},
		{
			name: "production with long secret",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
				"JWT_SECRET":  testSecret,
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsProduction())
			},
		},
		{
			name: "memory store rejected in production",
			envVars: map[string]string{
				"ENVIRONMENT":   "production",
				"JWT_SECRET":    testSecret,
				"STORE_BACKEND": "memory",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := New(context.Background(), filepath.Join(t.TempDir(), "missing.env"))

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestNew_EnvFile(t *testing.T) {
	os.Clearenv()
	path := filepath.Join(t.TempDir(), "blog.env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nSTORE_BACKEND=memory\nJWT_TTL=1h\n"), 0o600))
	t.Setenv("JWT_TTL", "2h")

	cfg, err := New(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL, "process environment wins over file values")
}

func validConfig() *Config {
	return &Config{
		Environment: "development",
		Store:       StorePostgres,
		Database: DatabaseConfig{
			Host:     "localhost",
			User:     "user",
			Database: "db",
		},
		Auth:          AuthConfig{JWTSecret: "secret", TokenTTL: time.Hour},
		Tasks:         TasksConfig{Workers: 1},
		Observability: ObservabilityConfig{LogLevel: "info"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{name: "valid development config", mutate: func(c *Config) {}},
		{
			name:   "missing database host",
			mutate: func(c *Config) { c.Database.Host = "" },
			errMsg: "database configuration required",
		},
		{
			name:   "missing database user",
			mutate: func(c *Config) { c.Database.User = "" },
			errMsg: "database user is required",
		},
		{
			name: "memory store skips database checks",
			mutate: func(c *Config) {
				c.Store = StoreMemory
				c.Database = DatabaseConfig{}
			},
		},
		{
			name:   "unknown store",
			mutate: func(c *Config) { c.Store = "sqlite" },
			errMsg: "unknown store backend",
		},
		{
			name:   "missing secret",
			mutate: func(c *Config) { c.Auth.JWTSecret = "" },
			errMsg: "JWT_SECRET is required",
		},
		{
			name:   "non-positive ttl",
			mutate: func(c *Config) { c.Auth.TokenTTL = 0 },
			errMsg: "JWT_TTL must be positive",
		},
		{
			name:   "negative rate limit",
			mutate: func(c *Config) { c.HTTP.RateLimitBurst = -1 },
			errMsg: "rate limit",
		},
		{
			name:   "no workers",
			mutate: func(c *Config) { c.Tasks.Workers = 0 },
			errMsg: "TASK_WORKERS",
		},
		{
			name:   "invalid log level",
			mutate: func(c *Config) { c.Observability.LogLevel = "verbose" },
			errMsg: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		environment string
		want        bool
	}{
		{"production", true},
		{"prod", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsProduction())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "blog",
		Password: "secret",
		Database: "blog",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=localhost port=5432 user=blog password=secret dbname=blog sslmode=disable", cfg.DSN())
	assert.NotContains(t, cfg.LogString(), "secret")
}
