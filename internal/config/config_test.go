package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, name := range []string{
		"DB_DRIVER", "SQLITE_PATH", "SERVER_PORT", "JWT_SECRET", "TOKEN_TTL",
		"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_HOST", "POSTGRES_PORT",
		"LOG_LEVEL", "LOG_PRETTY", "LOG_FILE", "AUTH_RATE_LIMIT", "AUTH_RATE_WINDOW",
		"TRUSTED_PROXIES",
	} {
		value, ok := env[name]
		t.Setenv(name, value)
		if !ok {
			// unset rather than empty so godotenv may fill it
			os.Unsetenv(name)
		}
	}
}

func TestFromEnv_SQLiteDefaults(t *testing.T) {
	setEnv(t, map[string]string{
		"DB_DRIVER":   "sqlite3",
		"SERVER_PORT": "8080",
		"JWT_SECRET":  testSecret,
	})

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	driver, dsn := cfg.DataSource()
	if driver != DriverSQLite || dsn != "tracker.db" {
		t.Fatalf("want sqlite3 tracker.db, got %s %s", driver, dsn)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("want 24h token ttl, got %s", cfg.TokenTTL)
	}
	if cfg.AuthRateLimit != 5 || cfg.AuthRateWindow != 15*time.Minute {
		t.Fatalf("want 5 per 15m, got %d per %s", cfg.AuthRateLimit, cfg.AuthRateWindow)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Fatalf("want no trusted proxies by default, got %v", cfg.TrustedProxies)
	}
}

func TestFromEnv_TrustedProxies(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    []string
		wantErr bool
	}{
		{"cidr and address", "10.0.0.0/8, 192.168.1.10", []string{"10.0.0.0/8", "192.168.1.10/32"}, false},
		{"cidr is masked", "172.16.5.4/12", []string{"172.16.0.0/12"}, false},
		{"ipv6", "::1", []string{"::1/128"}, false},
		{"garbage", "proxy.internal", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, map[string]string{
				"DB_DRIVER":       "sqlite3",
				"SERVER_PORT":     "8080",
				"JWT_SECRET":      testSecret,
				"TRUSTED_PROXIES": tt.value,
			})
			cfg, err := FromEnv()
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "TRUSTED_PROXIES") {
					t.Fatalf("want TRUSTED_PROXIES error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromEnv: %v", err)
			}
			if len(cfg.TrustedProxies) != len(tt.want) {
				t.Fatalf("want %v, got %v", tt.want, cfg.TrustedProxies)
			}
			for i, p := range cfg.TrustedProxies {
				if p.String() != tt.want[i] {
					t.Fatalf("want %v, got %v", tt.want, cfg.TrustedProxies)
				}
			}
		})
	}
}

func TestFromEnv_Postgres(t *testing.T) {
	setEnv(t, map[string]string{
		"SERVER_PORT":       "8080",
		"JWT_SECRET":        testSecret,
		"POSTGRES_USER":     "tracker",
		"POSTGRES_PASSWORD": "secret",
		"POSTGRES_DB":       "tracker",
		"POSTGRES_HOST":     "localhost",
		"POSTGRES_PORT":     "5432",
		"TOKEN_TTL":         "2h",
	})

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	driver, dsn := cfg.DataSource()
	want := "host=localhost user=tracker password=secret dbname=tracker port=5432 sslmode=disable"
	if driver != DriverPostgres || dsn != want {
		t.Fatalf("want %s %q, got %s %q", DriverPostgres, want, driver, dsn)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Fatalf("want 2h, got %s", cfg.TokenTTL)
	}
}

func TestFromEnv_AggregatesErrors(t *testing.T) {
	setEnv(t, map[string]string{
		"JWT_SECRET":      "short",
		"AUTH_RATE_LIMIT": "many",
	})

	_, err := FromEnv()
	if err == nil {
		t.Fatal("want error, got nil")
	}
	for _, want := range []string{"POSTGRES_USER", "SERVER_PORT", "JWT_SECRET", "AUTH_RATE_LIMIT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("want error mentioning %s, got %v", want, err)
		}
	}
}

func TestLoad_DotEnv(t *testing.T) {
	setEnv(t, nil)
	path := filepath.Join(t.TempDir(), ".env")
	content := "DB_DRIVER=sqlite3\nSERVER_PORT=9000\nJWT_SECRET=" + testSecret + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != "9000" {
		t.Fatalf("want port 9000, got %s", cfg.ServerPort)
	}
}
