package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sheetcalc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 100, cfg.Grid.Rows)
	assert.Equal(t, 26, cfg.Grid.Cols)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  address: "127.0.0.1:9000"
  read_timeout: 3s
grid:
  rows: 50
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	// untouched keys keep their defaults
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 50, cfg.Grid.Rows)
	assert.Equal(t, 26, cfg.Grid.Cols)
	assert.Equal(t, "sheets.db", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.Logging().Level)
	assert.Equal(t, "json", cfg.Logging().Format)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvDBPath, "/tmp/override.db")
	t.Setenv(EnvAddress, ":7070")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.Storage.Path)
	assert.Equal(t, ":7070", cfg.Server.Address)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"BadYAML":    "server: [",
		"ZeroGrid":   "grid:\n  rows: 0\n",
		"BadLevel":   "log:\n  level: loud\n",
		"BadFormat":  "log:\n  format: xml\n",
		"NoStorage":  "storage:\n  path: \"\"\n",
		"NoAddress":  "server:\n  address: \"\"\n",
		"NegTimeout": "server:\n  read_timeout: -1s\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
