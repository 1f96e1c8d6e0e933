package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs Load from an empty directory so no config.toml is picked up.
func isolate(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func setProductionBase(t *testing.T) {
	t.Setenv("SHOP_APP_ENV", "production")
	t.Setenv("SHOP_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
	t.Setenv("SHOP_DATABASE_PASSWORD", "secure-password")
	t.Setenv("SHOP_SWAGGER_ENABLED", "false")
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "shopfront-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "NHAP", cfg.Inventory.BatchCodePrefix)
	assert.Equal(t, "UTC", cfg.Inventory.TimeZone)
	assert.Equal(t, 5, cfg.Inventory.MaxCodeRetries)
	assert.Equal(t, 10*time.Second, cfg.Inventory.AllocationLockTTL)
	assert.Equal(t, "INV", cfg.Invoice.NumberPrefix)
	assert.Equal(t, 5, cfg.Invoice.MaxNumberRetries)
	assert.True(t, cfg.Idempotency.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.True(t, cfg.HTTP.RateLimitEnabled)
	assert.Empty(t, cfg.HTTP.CORSAllowOrigins)
	assert.Contains(t, cfg.HTTP.CORSAllowHeaders, "Idempotency-Key")
	assert.Equal(t, "shopfront-backend", cfg.Telemetry.ServiceName)
	assert.False(t, cfg.Redis.RedisEnabled())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SHOP_APP_PORT", "9000")
	t.Setenv("SHOP_DATABASE_DRIVER", "MySQL")
	t.Setenv("SHOP_DATABASE_HOST", "db.local")
	t.Setenv("SHOP_REDIS_HOST", "cache.local")
	t.Setenv("SHOP_INVENTORY_BATCH_CODE_PREFIX", "IMP")
	t.Setenv("SHOP_INVENTORY_TIME_ZONE", "Asia/Ho_Chi_Minh")
	t.Setenv("SHOP_INVENTORY_ALLOCATION_LOCK_TTL", "3s")
	t.Setenv("SHOP_IDEMPOTENCY_ENABLED", "false")
	t.Setenv("SHOP_INVOICE_MAX_NUMBER_RETRIES", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "cache.local:6379", cfg.Redis.Addr())
	assert.True(t, cfg.Redis.RedisEnabled())
	assert.Equal(t, "IMP", cfg.Inventory.BatchCodePrefix)
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.Inventory.Location().String())
	assert.Equal(t, 3*time.Second, cfg.Inventory.AllocationLockTTL)
	assert.False(t, cfg.Idempotency.Enabled)
	assert.Equal(t, 8, cfg.Invoice.MaxNumberRetries)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[database]
driver = "sqlite"
path = ":memory:"

[http]
cors_allow_origins = ["https://shop.example.com", "https://admin.example.com"]

[invoice]
number_prefix = "HD"
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, ":memory:", cfg.Database.DSN())
	assert.Len(t, cfg.HTTP.CORSAllowOrigins, 2)
	assert.Equal(t, "HD", cfg.Invoice.NumberPrefix)

	_, err = LoadFile(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown driver", map[string]string{"SHOP_DATABASE_DRIVER": "oracle"}, "database.driver"},
		{"idle exceeds open", map[string]string{"SHOP_DATABASE_MAX_OPEN_CONNS": "10", "SHOP_DATABASE_MAX_IDLE_CONNS": "20"}, "cannot exceed"},
		{"negative idle", map[string]string{"SHOP_DATABASE_MAX_IDLE_CONNS": "-1"}, "max_idle_conns cannot be negative"},
		{"bad zone", map[string]string{"SHOP_INVENTORY_TIME_ZONE": "Mars/Olympus"}, "inventory.time_zone"},
		{"negative invoice retries", map[string]string{"SHOP_INVOICE_MAX_NUMBER_RETRIES": "-1"}, "invoice.max_number_retries"},
		{"same prefixes", map[string]string{"SHOP_INVENTORY_BATCH_CODE_PREFIX": "INV"}, "must differ"},
		{"sampling ratio", map[string]string{"SHOP_TELEMETRY_SAMPLING_RATIO": "1.5"}, "sampling_ratio"},
		{"profiling without address", map[string]string{"SHOP_TELEMETRY_PROFILING_ENABLED": "true"}, "profiling_server_address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Run("valid production config", func(t *testing.T) {
		isolate(t)
		setProductionBase(t)
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"short jwt secret", map[string]string{"SHOP_JWT_SECRET": "short"}, "jwt.secret must be at least 32 characters"},
		{"missing password", map[string]string{"SHOP_DATABASE_PASSWORD": ""}, "database.password is required"},
		{"sqlite", map[string]string{"SHOP_DATABASE_DRIVER": "sqlite"}, "sqlite is not allowed"},
		{"wildcard cors", map[string]string{"SHOP_HTTP_CORS_ALLOW_ORIGINS": "*"}, "cors_allow_origins"},
		{"open swagger", map[string]string{"SHOP_SWAGGER_ENABLED": "true"}, "swagger endpoint"},
		{"full sql in traces", map[string]string{"SHOP_TELEMETRY_DB_LOG_FULL_SQL": "true"}, "db_log_full_sql"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			setProductionBase(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	pg := DatabaseConfig{Driver: DriverPostgres, Host: "localhost", Port: 5432, User: "user",
		Password: "pass@word#123", DBName: "shop", SSLMode: "disable"}
	dsn := pg.DSN()
	assert.Contains(t, dsn, "postgres://user:")
	assert.Contains(t, dsn, "pass%40word%23123")
	assert.Contains(t, dsn, "localhost:5432/shop")
	assert.Contains(t, dsn, "sslmode=disable")

	my := DatabaseConfig{Driver: DriverMySQL, Host: "db", Port: 3306, User: "root", Password: "pw", DBName: "shop"}
	assert.Equal(t, "root:pw@tcp(db:3306)/shop?charset=utf8mb4&parseTime=True&loc=UTC", my.DSN())

	lite := DatabaseConfig{Driver: DriverSQLite, Path: "file::memory:?cache=shared"}
	assert.Equal(t, "file::memory:?cache=shared", lite.DSN())
}
