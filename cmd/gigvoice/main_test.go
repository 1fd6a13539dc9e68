package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/gigvoice/internal/profile"
)

func TestNewProfileFromViper_Defaults(t *testing.T) {
	p := newProfileFromViper()

	assert.Equal(t, "dev", p.Mode)
	assert.Equal(t, "sqlite", p.Driver)
	assert.Equal(t, 8081, p.Port)
	assert.Equal(t, "memory", p.SessionBackend)
	assert.Equal(t, profile.DefaultSessionMaxTurns, p.SessionMaxTurns)
	assert.Equal(t, profile.DefaultLLMTimeout, p.AILLMTimeout)
	assert.Equal(t, profile.DefaultOrderAmount, p.OrderAmount)
	assert.Equal(t, profile.DefaultRateLimitBurst, p.RateLimitBurst)
	assert.Equal(t, version, p.Version)
}

func TestNewProfileFromViper_Overrides(t *testing.T) {
	viper.Set("session-backend", "cache")
	viper.Set("session-idle-ttl", "30m")
	viper.Set("order-amount", 55.5)
	t.Cleanup(func() {
		viper.Set("session-backend", "memory")
		viper.Set("session-idle-ttl", profile.DefaultSessionIdleTTL)
		viper.Set("order-amount", profile.DefaultOrderAmount)
	})

	p := newProfileFromViper()
	assert.Equal(t, "cache", p.SessionBackend)
	assert.Equal(t, 30*time.Minute, p.SessionIdleTTL)
	assert.Equal(t, 55.5, p.OrderAmount)
}

func TestNewProfileFromViper_Env(t *testing.T) {
	t.Setenv("GIGVOICE_LATE_PENALTY", "25")

	p := newProfileFromViper()
	assert.Equal(t, 25.0, p.LatePenalty)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	require.Equal(t, version+"\n", out.String())
}
