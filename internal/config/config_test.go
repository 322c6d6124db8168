package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10*time.Second, cfg.Game.CallWindow)
	assert.Equal(t, 20, cfg.Game.InitialPoints)
	assert.Equal(t, 2, cfg.Game.SwapCost)
	assert.Equal(t, 2, cfg.Game.MinPlayers)
	assert.Equal(t, "Aardvark", cfg.Game.CreatorAnimal)
	assert.NotEmpty(t, cfg.Game.Animals)
	assert.Equal(t, 54*time.Second, cfg.WebSocket.PingInterval())
	require.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9090
game:
  call_window: 5s
  min_players: 3
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	t.Setenv("SURVIVE_AUTH_JWT_SECRET", "from-env")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Game.CallWindow)
	assert.Equal(t, 3, cfg.Game.MinPlayers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	// untouched keys keep defaults
	assert.Equal(t, 20, cfg.Game.InitialPoints)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero call window", mutate: func(c *Config) { c.Game.CallWindow = 0 }, wantErr: true},
		{name: "one player game", mutate: func(c *Config) { c.Game.MinPlayers = 1 }, wantErr: true},
		{name: "max below min", mutate: func(c *Config) { c.Game.MaxPlayers = 1 }, wantErr: true},
		{name: "negative cost", mutate: func(c *Config) { c.Game.SwapCost = -1 }, wantErr: true},
		{name: "no secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: true},
		{name: "payments without key", mutate: func(c *Config) { c.Payment.Enabled = true }, wantErr: true},
		{name: "zero pong timeout", mutate: func(c *Config) { c.WebSocket.PongTimeout = 0 }, wantErr: true},
		{name: "pong timeout too small to ping", mutate: func(c *Config) { c.WebSocket.PongTimeout = 1 }, wantErr: true},
		{name: "zero write timeout", mutate: func(c *Config) { c.WebSocket.WriteTimeout = 0 }, wantErr: true},
		{name: "zero send buffer", mutate: func(c *Config) { c.WebSocket.SendBuffer = 0 }, wantErr: true},
		{name: "zero message size", mutate: func(c *Config) { c.WebSocket.MaxMessageSize = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
