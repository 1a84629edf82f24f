package config

import "time"

const (
	defaultPort       = 8080
	defaultLogBackend = "slog"
	defaultLogLevel   = "info"
)

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "myuser",
	Pass: "mypassword",
	Name: "dispatch_db",
}

var defaultRedis = Redis{
	Addr: "127.0.0.1:6379",
}

var defaultKafka = Kafka{
	Topic:   "dispatch.notifications",
	GroupID: "dispatch-notify-worker",
}

var defaultAssignment = Assignment{
	AcceptWindow:       15 * time.Minute,
	CodeLength:         6,
	MaxResends:         3,
	SweepInterval:      30 * time.Second,
	VerificationSecret: "change-me",
}

var defaultSMS = SMS{
	MaxAttempts: 4,
	BaseDelay:   150 * time.Millisecond,
	MaxDelay:    2 * time.Second,
}

var defaultRateLimit = RateLimit{
	Enabled:    true,
	Rate:       1,
	Burst:      5,
	TTL:        10 * time.Minute,
	MaxBuckets: 10000,

	AcceptAttempts: 10,
	AcceptPeriod:   15 * time.Minute,
}

// DefaultPort returns the default port.
func DefaultPort() int {
	return defaultPort
}

// DefaultDB returns the default database settings.
func DefaultDB() DB {
	return defaultDB
}

// DefaultAssignment returns the default offer workflow settings.
func DefaultAssignment() Assignment {
	return defaultAssignment
}

// DefaultSMS returns the default messaging gateway settings.
func DefaultSMS() SMS {
	return defaultSMS
}
