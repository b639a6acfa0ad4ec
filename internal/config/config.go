package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	minSecretLength = 32
)

type Config struct {
	DBDriver   string
	Postgres   Postgres
	SQLitePath string

	ServerPort string
	JWTSecret  string
	TokenTTL   time.Duration

	LogLevel  string
	LogPretty bool
	LogFile   string

	AuthRateLimit  int
	AuthRateWindow time.Duration
	// TrustedProxies lists the peers whose X-Forwarded-For header is honored
	// when keying the auth rate limiter. Empty means the header is ignored.
	TrustedProxies []netip.Prefix
}

type Postgres struct {
	User     string
	Password string
	DB       string
	Host     string
	Port     string
}

// DSN returns the lib/pq connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		p.Host, p.User, p.Password, p.DB, p.Port)
}

// DataSource returns the driver name and DSN for db.Connect.
func (c *Config) DataSource() (string, string) {
	if c.DBDriver == DriverSQLite {
		return DriverSQLite, c.SQLitePath
	}
	return DriverPostgres, c.Postgres.DSN()
}

// Load reads a .env file when one exists, then the process environment.
// All problems are reported together.
func Load(files ...string) (*Config, error) {
	if err := loadDotEnv(files...); err != nil {
		return nil, err
	}
	return FromEnv()
}

func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

func FromEnv() (*Config, error) {
	var errs []error

	cfg := &Config{
		DBDriver:   getenv("DB_DRIVER", DriverPostgres),
		SQLitePath: getenv("SQLITE_PATH", "tracker.db"),
		ServerPort: os.Getenv("SERVER_PORT"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogFile:    os.Getenv("LOG_FILE"),
		Postgres: Postgres{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DB:       os.Getenv("POSTGRES_DB"),
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     os.Getenv("POSTGRES_PORT"),
		},
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		required := map[string]string{
			"POSTGRES_USER":     cfg.Postgres.User,
			"POSTGRES_PASSWORD": cfg.Postgres.Password,
			"POSTGRES_DB":       cfg.Postgres.DB,
			"POSTGRES_HOST":     cfg.Postgres.Host,
			"POSTGRES_PORT":     cfg.Postgres.Port,
		}
		for _, name := range []string{"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_HOST", "POSTGRES_PORT"} {
			if required[name] == "" {
				errs = append(errs, fmt.Errorf("environment variable %s must be set", name))
			}
		}
	case DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, cfg.DBDriver))
	}

	if cfg.ServerPort == "" {
		errs = append(errs, errors.New("environment variable SERVER_PORT must be set"))
	}
	if len(cfg.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength))
	}

	var err error
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", 24*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.AuthRateWindow, err = durationEnv("AUTH_RATE_WINDOW", 15*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.AuthRateLimit, err = intEnv("AUTH_RATE_LIMIT", 5); err != nil {
		errs = append(errs, err)
	}
	if cfg.LogPretty, err = boolEnv("LOG_PRETTY", false); err != nil {
		errs = append(errs, err)
	}
	if cfg.TrustedProxies, err = prefixesEnv("TRUSTED_PROXIES"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", name, v)
	}
	return d, nil
}

func intEnv(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, v)
	}
	return n, nil
}

// prefixesEnv parses a comma-separated list of CIDRs or bare addresses.
func prefixesEnv(name string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range strings.Split(os.Getenv(name), ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid CIDR %q", name, item)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid address %q", name, item)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func boolEnv(name string, fallback bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", name, v)
	}
	return b, nil
}
