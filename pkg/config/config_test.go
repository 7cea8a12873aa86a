package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/pkg/config"
)

func TestLoad_ValoresPorDefectoDeSesion(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	s := cfg.Session
	assert.True(t, s.AllowMultipleSessions)
	assert.Nil(t, s.MaxDevices)
	assert.True(t, s.RevokeOldestOnLimit)
	assert.Nil(t, s.TokenExpiration, "sin SESSION_TOKEN_EXPIRATION_MINUTES los tokens no expiran")
	assert.True(t, s.RevokeOnPasswordChange)
	assert.False(t, s.NotifyNewLogin)
	assert.Equal(t, time.Hour, cfg.Subscription.SweepInterval)
	assert.Empty(t, cfg.Bootstrap.AdminPassword)
	assert.Equal(t, "admin", cfg.Bootstrap.AdminUsername)
}

func TestLoad_SesionDesdeEntorno(t *testing.T) {
	t.Setenv("SESSION_ALLOW_MULTIPLE", "false")
	t.Setenv("SESSION_MAX_DEVICES", "3")
	t.Setenv("SESSION_REVOKE_OLDEST_ON_LIMIT", "false")
	t.Setenv("SESSION_TOKEN_EXPIRATION_MINUTES", "90")
	t.Setenv("SESSION_REVOKE_ON_PASSWORD_CHANGE", "false")
	t.Setenv("SESSION_NOTIFY_NEW_LOGIN", "true")
	t.Setenv("SUBSCRIPTION_SWEEP_INTERVAL", "15m")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)

	s := cfg.Session
	assert.False(t, s.AllowMultipleSessions)
	require.NotNil(t, s.MaxDevices)
	assert.Equal(t, 3, *s.MaxDevices)
	assert.False(t, s.RevokeOldestOnLimit)
	require.NotNil(t, s.TokenExpiration)
	assert.Equal(t, 90*time.Minute, *s.TokenExpiration)
	assert.False(t, s.RevokeOnPasswordChange)
	assert.True(t, s.NotifyNewLogin)
	assert.Equal(t, 15*time.Minute, cfg.Subscription.SweepInterval)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}

func TestLoad_ValoresInvalidos(t *testing.T) {
	cases := map[string]string{
		"SESSION_MAX_DEVICES":              "0",
		"SESSION_TOKEN_EXPIRATION_MINUTES": "-5",
		"SUBSCRIPTION_SWEEP_INTERVAL":      "mañana",
		"STORAGE_DRIVER":                   "mongo",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "f", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/f?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
