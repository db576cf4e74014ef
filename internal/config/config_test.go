package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Empty(t, cfg.DatabaseDSN)
	assert.Empty(t, cfg.APIToken)
	assert.Equal(t, DefaultVisitLength, cfg.VisitLength)
	assert.Equal(t, DefaultAvailabilityCacheTTL, cfg.AvailabilityCacheTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvAPIToken, "sekrit")
	t.Setenv(EnvVisitLength, "90m")
	t.Setenv(EnvRateLimitPerSec, "5.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sekrit", cfg.APIToken)
	assert.Equal(t, 90*time.Minute, cfg.VisitLength)
	assert.Equal(t, 5.5, cfg.RateLimitPerSec)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv(EnvVisitLength, "soon")
	t.Setenv(EnvRateLimitBurst, "lots")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultVisitLength, cfg.VisitLength)
	assert.Equal(t, DefaultRateLimitBurst, cfg.RateLimitBurst)
}

func TestValidate_RejectsBadPort(t *testing.T) {
	t.Setenv(EnvPort, "not-a-port")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}
