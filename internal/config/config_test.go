package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/j-emberton/HXforge/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hxforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)

	opts, err := cfg.Tables.LoadOptions()
	require.NoError(t, err)
	assert.Equal(t, byte('\t'), opts.Delimiter)
	assert.Equal(t, "enthalpy", opts.KeyColumn)
	assert.Equal(t, engine.DuplicateReject, opts.Duplicates)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  address: "127.0.0.1:9000"
  preload: [water, glycol]
tables:
  dir: /srv/tables
  delimiter: ","
  duplicates: keep-last
  bounds: clamp
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
	assert.Equal(t, []string{"water", "glycol"}, cfg.Server.Preload)
	assert.Equal(t, "/srv/tables", cfg.Tables.Dir)
	assert.Equal(t, ".txt", cfg.Tables.Ext)
	assert.Equal(t, "debug", cfg.Log.Level)

	opts, err := cfg.Tables.LoadOptions()
	require.NoError(t, err)
	assert.Equal(t, byte(','), opts.Delimiter)
	assert.Equal(t, engine.DuplicateKeepLast, opts.Duplicates)

	bounds, err := cfg.Tables.BoundsPolicy()
	require.NoError(t, err)
	assert.Equal(t, engine.BoundsClamp, bounds)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad bounds":          "tables:\n  bounds: wrap\n",
		"long delimiter":      "tables:\n  delimiter: \";;\"\n",
		"multibyte delimiter": "tables:\n  delimiter: \"§\"\n",
		"empty address":       "server:\n  address: \"\"\n",
		"bad level":           "log:\n  level: loud\n",
		"bad yaml":            "server: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "hxforge.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"water"}, cfg.Server.Preload)
	assert.Equal(t, "\t", cfg.Tables.Delimiter)
	assert.True(t, cfg.Tables.Watch)
}

func TestValidateDelimiterBytes(t *testing.T) {
	cfg := Default()
	cfg.Tables.Delimiter = "§"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delimiter")

	cfg.Tables.Delimiter = ";"
	assert.NoError(t, cfg.Validate())
}
