package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServer_DefaultValues(t *testing.T) {
	s, err := LoadServer("")
	require.NoError(t, err)

	assert.Equal(t, ":8081", s.Addr)
	assert.Equal(t, 10*time.Second, s.ShutdownTimeout)
	assert.Equal(t, "info", s.Log.Level)
	assert.True(t, s.Log.Pretty)
	assert.Equal(t, "battlefield.yaml", s.RulesPath)
	assert.Equal(t, ImpactTrust, s.ImpactMode)
	assert.Equal(t, 256, s.WS.SendBuffer)
	assert.Equal(t, 25*time.Second, s.WS.PingInterval)
	assert.Equal(t, 60*time.Second, s.WS.PongWait)
}

func TestLoadServer_WithConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := `
server:
  addr: ":9000"
  shutdownTimeout: 3s
log:
  level: debug
  pretty: false
impact:
  mode: recompute
`
	path := filepath.Join(dir, "domefall.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))

	s, err := LoadServer(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", s.Addr)
	assert.Equal(t, 3*time.Second, s.ShutdownTimeout)
	assert.Equal(t, "debug", s.Log.Level)
	assert.False(t, s.Log.Pretty)
	assert.Equal(t, ImpactRecompute, s.ImpactMode)
	assert.Equal(t, 256, s.WS.SendBuffer)
}

func TestLoadServer_EnvOverrides(t *testing.T) {
	t.Setenv("DOMEFALL_SERVER_ADDR", ":7777")
	t.Setenv("DOMEFALL_IMPACT_MODE", "RECOMPUTE")

	s, err := LoadServer("")
	require.NoError(t, err)
	assert.Equal(t, ":7777", s.Addr)
	assert.Equal(t, ImpactRecompute, s.ImpactMode)
}

func TestLoadServer_Rejects(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadServer("/nonexistent/domefall.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})
	t.Run("impact mode", func(t *testing.T) {
		t.Setenv("DOMEFALL_IMPACT_MODE", "vibes")
		_, err := LoadServer("")
		assert.Error(t, err)
	})
	t.Run("pong before ping", func(t *testing.T) {
		t.Setenv("DOMEFALL_WS_PONGWAIT", "5s")
		_, err := LoadServer("")
		assert.Error(t, err)
	})
}

func TestLoadGunner(t *testing.T) {
	g, err := LoadGunner("")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8081/ws", g.URL)
	assert.Equal(t, 2, g.Bots)
	assert.Equal(t, 2, g.Players)
	assert.Equal(t, "Gunner", g.NamePrefix)
	assert.Equal(t, "boomer", g.DomeType)
	assert.Equal(t, uint64(0), g.Seed)

	t.Setenv("DOMEFALL_GUNNER_PLAYERS", "9")
	_, err = LoadGunner("")
	assert.Error(t, err)
}
