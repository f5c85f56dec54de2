// Package config loads process configuration from flags, with defaults taken
// from the environment and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	// DevJWTSecret is the fallback secret; it is rejected in production.
	DevJWTSecret = "dev-secret-change-me"
)

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

// DSN returns a keyword/value connection string understood by pgx and lib/pq.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type Config struct {
	Env      string
	LogLevel string

	GRPCPort    int
	HTTPPort    int
	MetricsPort int
	FrontendURL string

	DB    DBConfig
	Redis RedisConfig

	JWTSecret        string
	BcryptCost       int
	LoginMaxAttempts int
	LoginWindow      time.Duration
	ShutdownTimeout  time.Duration
}

// LoadDotEnv reads .env into the environment if the file exists. Variables
// already set take precedence.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// BindDB registers the database flags on flags.
func BindDB(flags *flag.FlagSet, db *DBConfig) {
	flags.StringVar(&db.Host, "db-host", envString("DB_HOST", "localhost"), "Database host")
	flags.IntVar(&db.Port, "db-port", envInt("DB_PORT", 5432), "Database port")
	flags.StringVar(&db.User, "db-user", envString("DB_USER", "admin"), "Database user")
	flags.StringVar(&db.Password, "db-pass", envString("DB_PASSWORD", "securepassword"), "Database password")
	flags.StringVar(&db.Name, "db-name", envString("DB_NAME", "workspace"), "Database name")
	flags.StringVar(&db.SSLMode, "db-sslmode", envString("DB_SSLMODE", "disable"), "Database SSL mode")
	flags.IntVar(&db.MaxConns, "db-max-conns", envInt("DB_MAX_CONNS", 10), "Maximum open database connections")
	flags.IntVar(&db.MinConns, "db-min-conns", envInt("DB_MIN_CONNS", 2), "Minimum idle database connections")
}

// Load parses args (without the program name) into a validated Config.
func Load(args []string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	flags := flag.NewFlagSet("server", flag.ContinueOnError)
	flags.StringVar(&cfg.Env, "env", envString("APP_ENV", EnvDevelopment), "Environment (development, production, test)")
	flags.StringVar(&cfg.LogLevel, "log-level", envString("LOG_LEVEL", "info"), "Log level")
	flags.IntVar(&cfg.GRPCPort, "port", envInt("GRPC_PORT", 50051), "Port gRPC server")
	flags.IntVar(&cfg.HTTPPort, "http-port", envInt("PORT", 5000), "Port HTTP API server")
	flags.IntVar(&cfg.MetricsPort, "metrics-port", envInt("METRICS_PORT", 8081), "Port for /metrics and /health")
	flags.StringVar(&cfg.FrontendURL, "frontend-url", envString("FRONTEND_URL", "http://localhost:3000"), "Allowed CORS origin")
	BindDB(flags, &cfg.DB)
	flags.StringVar(&cfg.Redis.Addr, "redis-addr", envString("REDIS_ADDR", ""), "Redis address for the login throttle (empty disables it)")
	flags.StringVar(&cfg.Redis.Password, "redis-pass", envString("REDIS_PASSWORD", ""), "Redis password")
	flags.IntVar(&cfg.Redis.DB, "redis-db", envInt("REDIS_DB", 0), "Redis database")
	flags.StringVar(&cfg.JWTSecret, "jwt-secret", envString("JWT_SECRET", DevJWTSecret), "Secret used to sign credentials")
	flags.IntVar(&cfg.BcryptCost, "bcrypt-cost", envInt("BCRYPT_COST", 10), "bcrypt cost for password hashes")
	flags.IntVar(&cfg.LoginMaxAttempts, "login-max-attempts", envInt("LOGIN_MAX_ATTEMPTS", 5), "Failed logins allowed per window")
	flags.DurationVar(&cfg.LoginWindow, "login-window", envDuration("LOGIN_WINDOW", 15*time.Minute), "Failed login window")
	flags.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", envDuration("SHUTDOWN_TIMEOUT", 10*time.Second), "Graceful shutdown timeout")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted safely.
func (c *Config) Validate() error {
	var errs []error
	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		errs = append(errs, fmt.Errorf("unknown env %q", c.Env))
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if c.Env == EnvProduction && c.JWTSecret == DevJWTSecret {
		errs = append(errs, errors.New("jwt secret must be set in production"))
	}
	for name, port := range map[string]int{"port": c.GRPCPort, "http-port": c.HTTPPort, "metrics-port": c.MetricsPort, "db-port": c.DB.Port} {
		if port < 1 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s out of range: %d", name, port))
		}
	}
	if c.DB.MaxConns < 1 || c.DB.MinConns < 0 || c.DB.MinConns > c.DB.MaxConns {
		errs = append(errs, fmt.Errorf("invalid pool size: min %d, max %d", c.DB.MinConns, c.DB.MaxConns))
	}
	if c.LoginMaxAttempts < 1 {
		errs = append(errs, errors.New("login-max-attempts must be positive"))
	}
	if c.LoginWindow <= 0 {
		errs = append(errs, errors.New("login-window must be positive"))
	}
	return errors.Join(errs...)
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
