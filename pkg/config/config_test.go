package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, CacheTTL, cfg.Cache.Type)
	assert.Equal(t, HashDivision, cfg.Cache.HashFunction)
	assert.Equal(t, 1000, cfg.Cache.Capacity)
	assert.Equal(t, 900, cfg.Cache.TTLSeconds)
	assert.Equal(t, 6379, cfg.Server.Port)
	assert.Equal(t, "", cfg.User.Username)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := Default()
	cfg.User.Username = "YWxpY2U="
	cfg.Cache.Type = CacheLFU
	cfg.Cache.HashFunction = HashDJB2
	cfg.Cache.Capacity = 42
	cfg.Server.Port = 7000

	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	partial := "cache:\n  type: lru\n"
	require.NoError(t, os.WriteFile(path, []byte(partial), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, CacheLRU, cfg.Cache.Type)
	assert.Equal(t, HashDivision, cfg.Cache.HashFunction)
	assert.Equal(t, 1000, cfg.Cache.Capacity)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad cache type", "cache:\n  type: arc\n"},
		{"bad hash function", "cache:\n  hash_function: sha256\n"},
		{"zero capacity", "cache:\n  capacity: 0\n"},
		{"negative ttl", "cache:\n  ttl_seconds: -1\n"},
		{"bad port", "server:\n  port: 99999\n"},
		{"not yaml", "{{{\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestValidTypeSets(t *testing.T) {
	for _, ct := range CacheTypes() {
		assert.True(t, ct.Valid())
	}
	for _, hf := range HashFunctions() {
		assert.True(t, hf.Valid())
	}
	assert.False(t, CacheType("fifo").Valid())
	assert.False(t, HashFunction("crc32").Valid())
}
