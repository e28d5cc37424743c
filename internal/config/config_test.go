package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "APP_HOST", "DATABASE_DRIVER", "DATABASE_PATH", "POSTGRES_DSN",
		"REDIS_ADDR", "REDIS_DB", "SESSION_STORE", "TICKETS_ASSIGNMENT_POLICY",
		"TICKETS_STRICT_TRANSITIONS", "SESSION_TTL_MINUTES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.App.Port)
	assert.Equal(t, "0.0.0.0:5000", cfg.App.Addr())
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "database.db", cfg.Database.Path)
	assert.Equal(t, SessionStoreMemory, cfg.Session.Store)
	assert.Equal(t, AssignmentRandom, cfg.Tickets.AssignmentPolicy)
	assert.False(t, cfg.Tickets.StrictTransitions)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL())
	assert.Equal(t, 720*time.Hour, cfg.Session.RememberTTL())
}

func TestLoadPortOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8088")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8088", cfg.App.Port)
}

func TestLoadRedisSwitchesSessionStoreDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SessionStoreRedis, cfg.Session.Store)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":       {"DATABASE_DRIVER": "oracle"},
		"postgres without dsn": {"DATABASE_DRIVER": "postgres"},
		"redis store no addr":  {"SESSION_STORE": "redis"},
		"unknown policy":       {"TICKETS_ASSIGNMENT_POLICY": "round-robin"},
		"non numeric redis db": {"REDIS_DB": "zero"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
