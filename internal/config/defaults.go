package config

import "time"

const (
	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	// Empty DSN selects the embedded sqlite store, which is what dev and CI
	// run against. Production sets a postgres DSN.
	DefaultDatabaseDSN = ""

	DefaultRateLimitPerSec = 20.0
	DefaultRateLimitBurst  = 40

	DefaultAvailabilityCacheTTL = 5 * time.Second
	DefaultVisitLength          = 2 * time.Hour

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)
