package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Scheduling.SlotMinutes)
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "12:00", "14:00", "15:00", "16:00"}, cfg.Scheduling.DailyGrid)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, 5*time.Second, cfg.Outbox.PollInterval)
	assert.False(t, cfg.Email.Enabled())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.JWT.Secret = "0123456789abcdef0123"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults with secret", mutate: func(*Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: true},
		{name: "bad grid entry", mutate: func(c *Config) { c.Scheduling.DailyGrid = []string{"9am"} }, wantErr: true},
		{name: "empty grid", mutate: func(c *Config) { c.Scheduling.DailyGrid = nil }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "mongo" }, wantErr: true},
		{name: "unknown zone", mutate: func(c *Config) { c.Scheduling.TimeZone = "Mars/Olympus" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORTAL_JWT_SECRET", "env-secret-0123456789")
	t.Setenv("PORTAL_STORAGE_DRIVER", "MEMORY")
	t.Setenv("PORTAL_PORT", "9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "env-secret-0123456789", cfg.JWT.Secret)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.NotNil(t, cfg.Location())
}
