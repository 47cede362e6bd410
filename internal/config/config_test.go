package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Nil(t, cfg)

	var srv Server
	require.Equal(t, ":25565", srv.GetBind())
	require.Equal(t, 256, srv.GetCompressionThreshold())
	require.Equal(t, 20, srv.GetMaxPlayers())
	require.False(t, srv.GetOnlineMode())
}

func TestLoadReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  bind: ":25570"
  compression_threshold: -1
  online_mode: true
  motd: "Test server"
world:
  dir: "/tmp/region"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":25570", cfg.Server.GetBind())
	require.Equal(t, -1, cfg.Server.GetCompressionThreshold())
	require.True(t, cfg.Server.GetOnlineMode())
	require.Equal(t, "Test server", cfg.Server.GetMOTD())
	require.Equal(t, "/tmp/region", cfg.World.GetDir())
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("CRAFT_BIND", ":31000")
	t.Setenv("CRAFT_MAX_PLAYERS", "100")
	t.Setenv("CRAFT_ONLINE_MODE", "true")

	var srv Server
	require.Equal(t, ":31000", srv.GetBind())
	require.Equal(t, 100, srv.GetMaxPlayers())
	require.True(t, srv.GetOnlineMode())

	// Значение из конфига имеет приоритет над окружением.
	srv.Bind = ":25580"
	require.Equal(t, ":25580", srv.GetBind())
}
