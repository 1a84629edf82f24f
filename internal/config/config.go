package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config stores service settings.
type Config struct {
	Port       int
	LogBackend string
	LogLevel   string

	DB         DB
	Redis      Redis
	Kafka      Kafka
	Assignment Assignment
	SMS        SMS
	RateLimit  RateLimit
	Debug      Debug
}

// DB stores Postgres connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN returns a pgx connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", d.User, d.Pass, d.Host, d.Port, d.Name)
}

// Redis stores Redis connection settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Kafka stores notification queue settings. Empty Brokers disables Kafka.
type Kafka struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Enabled reports whether Kafka is configured.
func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0 && strings.TrimSpace(k.Topic) != ""
}

// Assignment stores offer workflow settings.
type Assignment struct {
	AcceptWindow       time.Duration
	CodeLength         int
	MaxResends         int
	SweepInterval      time.Duration
	VerificationSecret string
}

// SMS stores messaging gateway settings.
type SMS struct {
	URL         string
	Token       string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RateLimit stores driver-facing rate limiter settings.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
	// AcceptAttempts caps code submissions per assignment in AcceptPeriod,
	// shared by every API instance through Redis.
	AcceptAttempts int
	AcceptPeriod   time.Duration
}

// Debug stores the metrics/pprof side server settings. Empty Addr disables it.
type Debug struct {
	Addr string
	User string
	Pass string
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:       defaultPort,
		LogBackend: defaultLogBackend,
		LogLevel:   defaultLogLevel,
		DB:         defaultDB,
		Redis:      defaultRedis,
		Kafka:      defaultKafka,
		Assignment: defaultAssignment,
		SMS:        defaultSMS,
		RateLimit:  defaultRateLimit,
	}

	r := envReader{}
	r.int("PORT", &cfg.Port)
	r.str("LOG_BACKEND", &cfg.LogBackend)
	r.str("LOG_LEVEL", &cfg.LogLevel)

	r.str("POSTGRES_HOST", &cfg.DB.Host)
	r.str("POSTGRES_PORT", &cfg.DB.Port)
	r.str("POSTGRES_USER", &cfg.DB.User)
	r.str("POSTGRES_PASSWORD", &cfg.DB.Pass)
	r.str("POSTGRES_DB", &cfg.DB.Name)

	r.str("REDIS_ADDR", &cfg.Redis.Addr)
	r.str("REDIS_PASSWORD", &cfg.Redis.Password)
	r.int("REDIS_DB", &cfg.Redis.DB)

	r.list("KAFKA_BROKERS", &cfg.Kafka.Brokers)
	r.str("KAFKA_NOTIFY_TOPIC", &cfg.Kafka.Topic)
	r.str("KAFKA_GROUP_ID", &cfg.Kafka.GroupID)

	r.duration("ASSIGNMENT_ACCEPT_WINDOW", &cfg.Assignment.AcceptWindow)
	r.int("ASSIGNMENT_CODE_LENGTH", &cfg.Assignment.CodeLength)
	r.int("ASSIGNMENT_MAX_RESENDS", &cfg.Assignment.MaxResends)
	r.duration("ASSIGNMENT_SWEEP_INTERVAL", &cfg.Assignment.SweepInterval)
	r.str("VERIFICATION_SECRET", &cfg.Assignment.VerificationSecret)

	r.str("SMS_GATEWAY_URL", &cfg.SMS.URL)
	r.str("SMS_GATEWAY_TOKEN", &cfg.SMS.Token)
	r.int("SMS_MAX_ATTEMPTS", &cfg.SMS.MaxAttempts)
	r.duration("SMS_BASE_DELAY", &cfg.SMS.BaseDelay)
	r.duration("SMS_MAX_DELAY", &cfg.SMS.MaxDelay)

	r.bool("RATE_LIMIT_ENABLED", &cfg.RateLimit.Enabled)
	r.float("RATE_LIMIT_RATE", &cfg.RateLimit.Rate)
	r.int("RATE_LIMIT_BURST", &cfg.RateLimit.Burst)
	r.duration("RATE_LIMIT_TTL", &cfg.RateLimit.TTL)
	r.int("RATE_LIMIT_MAX_BUCKETS", &cfg.RateLimit.MaxBuckets)
	r.int("RATE_LIMIT_ACCEPT_ATTEMPTS", &cfg.RateLimit.AcceptAttempts)
	r.duration("RATE_LIMIT_ACCEPT_PERIOD", &cfg.RateLimit.AcceptPeriod)

	r.str("DEBUG_ADDR", &cfg.Debug.Addr)
	r.str("DEBUG_USER", &cfg.Debug.User)
	r.str("DEBUG_PASSWORD", &cfg.Debug.Pass)

	if r.err != nil {
		return nil, r.err
	}

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	pflag.DurationVar(&cfg.Assignment.AcceptWindow, "accept-window", cfg.Assignment.AcceptWindow, "time a driver has to accept an offer")
	pflag.StringVar(&cfg.LogBackend, "log-backend", cfg.LogBackend, "log backend: slog or zap")
	if err := pflag.CommandLine.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if _, err := strconv.Atoi(c.DB.Port); err != nil {
		return fmt.Errorf("invalid POSTGRES_PORT %q: %w", c.DB.Port, err)
	}
	if c.Assignment.AcceptWindow <= 0 {
		return fmt.Errorf("invalid accept window: %s", c.Assignment.AcceptWindow)
	}
	if c.Assignment.CodeLength < 4 || c.Assignment.CodeLength > 8 {
		return fmt.Errorf("invalid code length %d: must be 4..8", c.Assignment.CodeLength)
	}
	if c.Assignment.MaxResends < 0 {
		return fmt.Errorf("invalid max resends: %d", c.Assignment.MaxResends)
	}
	if c.Assignment.SweepInterval <= 0 {
		return fmt.Errorf("invalid sweep interval: %s", c.Assignment.SweepInterval)
	}
	switch c.LogBackend {
	case "slog", "zap":
	default:
		return fmt.Errorf("invalid log backend %q", c.LogBackend)
	}
	return nil
}

// envReader collects the first parse error so Load can report it once.
type envReader struct{ err error }

func (r *envReader) str(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func (r *envReader) int(key string, dst *int) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" || r.err != nil {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.err = fmt.Errorf("invalid %s %q: %w", key, v, err)
		return
	}
	*dst = n
}

func (r *envReader) float(key string, dst *float64) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" || r.err != nil {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.err = fmt.Errorf("invalid %s %q: %w", key, v, err)
		return
	}
	*dst = f
}

func (r *envReader) bool(key string, dst *bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" || r.err != nil {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.err = fmt.Errorf("invalid %s %q: %w", key, v, err)
		return
	}
	*dst = b
}

func (r *envReader) duration(key string, dst *time.Duration) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" || r.err != nil {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.err = fmt.Errorf("invalid %s %q: %w", key, v, err)
		return
	}
	*dst = d
}

func (r *envReader) list(key string, dst *[]string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	out := make([]string, 0, 4)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}
