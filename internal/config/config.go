package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"

	IdentityJWT    = "jwt"
	IdentityGoogle = "google"
)

type Config struct {
	Addr        string
	StoreDriver string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	MongoURI string
	MongoDB  string

	IdentityProvider string
	JWTSecret        string
	GoogleClientID   string
	AdminUserIDs     []string

	SweepInterval     time.Duration
	SubscriberBuffer  int
	VoteRetryAttempts int
	VoteRateLimit     float64
	VoteRateBurst     int

	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	cfg, err := read()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadJob is Load for offline jobs that never verify callers, so the identity
// provider settings are not required.
func LoadJob() (Config, error) {
	cfg, err := read()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.validateStore(); err != nil {
		return Config{}, err
	}
	if err := cfg.validateTuning(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RequireDurableStore rejects the in-memory store, whose polls only exist
// inside the server process.
func (c Config) RequireDurableStore() error {
	switch c.StoreDriver {
	case StorePostgres, StoreMongo:
		return nil
	default:
		return fmt.Errorf("store %q is not shared with the server; use %s or %s", c.StoreDriver, StorePostgres, StoreMongo)
	}
}

func read() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:        getEnv("APP_ADDR", "0.0.0.0:8080"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "poll"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "poll"),
		PostgresDB:       getEnv("POSTGRES_DB", "poll"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "poll"),

		IdentityProvider: strings.ToLower(getEnv("IDENTITY_PROVIDER", IdentityJWT)),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		GoogleClientID:   os.Getenv("GOOGLE_CLIENT_ID"),
		AdminUserIDs:     getList("ADMIN_USER_IDS"),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.SweepInterval, err = getDuration("SWEEP_INTERVAL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SubscriberBuffer, err = getInt("SUBSCRIBER_BUFFER", 16); err != nil {
		return Config{}, err
	}
	if cfg.VoteRetryAttempts, err = getInt("VOTE_RETRY_ATTEMPTS", 8); err != nil {
		return Config{}, err
	}
	if cfg.VoteRateLimit, err = getFloat("VOTE_RATE_LIMIT", 5); err != nil {
		return Config{}, err
	}
	if cfg.VoteRateBurst, err = getInt("VOTE_RATE_BURST", 10); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateIdentity(); err != nil {
		return err
	}
	return c.validateTuning()
}

func (c Config) validateStore() error {
	switch c.StoreDriver {
	case StoreMemory, StorePostgres, StoreMongo:
		return nil
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
}

func (c Config) validateIdentity() error {
	switch c.IdentityProvider {
	case IdentityJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required")
		}
	case IdentityGoogle:
		if c.GoogleClientID == "" {
			return fmt.Errorf("GOOGLE_CLIENT_ID is required")
		}
	default:
		return fmt.Errorf("unknown IDENTITY_PROVIDER %q", c.IdentityProvider)
	}
	return nil
}

func (c Config) validateTuning() error {
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	if c.SubscriberBuffer <= 0 || c.VoteRetryAttempts <= 0 {
		return fmt.Errorf("SUBSCRIBER_BUFFER and VOTE_RETRY_ATTEMPTS must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
