package config

const (
	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvDatabaseDSN = "DATABASE_DSN"

	EnvAPIToken = "API_TOKEN"

	EnvRateLimitPerSec = "RATE_LIMIT_PER_SEC"
	EnvRateLimitBurst  = "RATE_LIMIT_BURST"

	EnvAvailabilityCacheTTL = "AVAILABILITY_CACHE_TTL"
	EnvVisitLength          = "VISIT_LENGTH"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
