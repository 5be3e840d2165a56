package database

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rediska/internal/protocol"
	"rediska/pkg/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.User.Username = encodeCredential("alice")
	cfg.User.Password = encodeCredential("secret")
	cfg.Cache.Type = config.CacheLRU
	cfg.Cache.Capacity = 1000
	return cfg
}

func openTestDB(t *testing.T, cfg *config.Config) *Database {
	t.Helper()

	dir := t.TempDir()
	d, err := Open(cfg, filepath.Join(dir, "settings.yaml"), filepath.Join(dir, "storage"))
	require.NoError(t, err)
	t.Cleanup(d.Shutdown)
	return d
}

func TestDispatchSetGetRemove(t *testing.T) {
	d := openTestDB(t, testConfig())

	assert.Equal(t, "SUCCESS", d.Dispatch("SET name rediska"))
	assert.Equal(t, "rediska", d.Dispatch("GET name"))
	assert.Equal(t, "SUCCESS", d.Dispatch("REMOVE name"))
	assert.Equal(t, "", d.Dispatch("GET name"))
}

func TestDispatchRendersValidationErrors(t *testing.T) {
	d := openTestDB(t, testConfig())

	resp := d.Dispatch("FETCH key")
	assert.Contains(t, resp, "invalid command")

	resp = d.Dispatch("GET")
	assert.Contains(t, resp, "GET should consist of 2 elements")

	resp = d.Dispatch("SET_CONFIG cache_type banana")
	assert.Contains(t, resp, "invalid value for SET_CONFIG")

	resp = d.Dispatch("GET " + strings.Repeat("k", 151))
	assert.Contains(t, resp, "key is too long")
}

func TestSetConfigCapacityMigratesUnderNewPolicy(t *testing.T) {
	d := openTestDB(t, testConfig())

	for i := 0; i < 5; i++ {
		d.Set(fmt.Sprintf("key-%d", i), fmt.Sprintf("value-%d", i))
	}
	require.Equal(t, 5, len(d.Items()))

	require.NoError(t, d.SetConfig(protocol.KeyCapacity, "2"))

	items := d.Items()
	assert.LessOrEqual(t, len(items), 2, "replay into a capacity-2 engine must evict down to 2 entries")
	for _, item := range items {
		assert.Equal(t, strings.Replace(item.Key, "key", "value", 1), item.Value)
	}
}

func TestSetConfigCacheTypePreservesEntries(t *testing.T) {
	d := openTestDB(t, testConfig())

	d.Set("a", "1")
	d.Set("b", "2")

	require.NoError(t, d.SetConfig(protocol.KeyCacheType, "lfu"))

	assert.Equal(t, "1", d.Get("a"))
	assert.Equal(t, "2", d.Get("b"))
	assert.Equal(t, config.CacheLFU, d.Config().Cache.Type)
}

func TestSetConfigHashFunctionPreservesEntries(t *testing.T) {
	d := openTestDB(t, testConfig())

	d.Set("a", "1")
	require.NoError(t, d.SetConfig(protocol.KeyHashFunction, "djb2"))

	assert.Equal(t, "1", d.Get("a"))
}

func TestSetConfigTTLSecondsOnlyRebuildsTTLCaches(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Type = config.CacheLRU
	d := openTestDB(t, cfg)

	d.Set("a", "1")
	require.NoError(t, d.SetConfig(protocol.KeyTTLSeconds, "30"))

	// LRU keeps its entries; only the stored setting changes.
	assert.Equal(t, "1", d.Get("a"))
	assert.Equal(t, 30, d.Config().Cache.TTLSeconds)
}

func TestSetConfigRejectsBadNumbers(t *testing.T) {
	d := openTestDB(t, testConfig())

	assert.Error(t, d.SetConfig(protocol.KeyCapacity, "banana"))
	assert.Error(t, d.SetConfig(protocol.KeyCapacity, "0"))
	assert.Error(t, d.SetConfig(protocol.KeyTTLSeconds, "-5"))
}

func TestSetConfigPersistsImmediately(t *testing.T) {
	cfg := testConfig()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "settings.yaml")

	d, err := Open(cfg, cfgPath, filepath.Join(dir, "storage"))
	require.NoError(t, err)
	defer d.Shutdown()

	require.NoError(t, d.SetConfig(protocol.KeyCacheType, "lfu"))

	saved, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, config.CacheLFU, saved.Cache.Type)
}

func TestConfigTextFormat(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Type = config.CacheTTL
	cfg.Cache.HashFunction = config.HashDivision
	cfg.Cache.Capacity = 1000
	cfg.Cache.TTLSeconds = 900
	d := openTestDB(t, cfg)

	want := "Logged in username: alice\n" +
		"Cache Type: TTL\n" +
		"Hash Function: Division\n" +
		"Capacity: 1000 pairs\n" +
		"TTL Seconds: 900s"
	assert.Equal(t, want, d.ConfigText())
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Division", titleCase("division"))
	assert.Equal(t, "Py_Hash", titleCase("py_hash"))
	assert.Equal(t, "Midsquare", titleCase("midsquare"))
}

func TestSetConfigUsernameIsEncoded(t *testing.T) {
	d := openTestDB(t, testConfig())

	require.NoError(t, d.SetConfig(protocol.KeyUsername, "bob"))

	assert.Equal(t, encodeCredential("bob"), d.Config().User.Username)
	assert.Contains(t, d.ConfigText(), "Logged in username: bob")
}

func TestExitPersistsAndRestores(t *testing.T) {
	cfg := testConfig()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "settings.yaml")
	snapPath := filepath.Join(dir, "storage")

	d, err := Open(cfg, cfgPath, snapPath)
	require.NoError(t, err)

	d.Set("persisted", "yes")
	hookFired := make(chan struct{})
	d.SetShutdownHook(func() { close(hookFired) })

	assert.Equal(t, "EXIT", d.Dispatch("EXIT"))
	<-hookFired

	data, err := os.ReadFile(snapPath + ".red")
	require.NoError(t, err)
	assert.Contains(t, string(data), "persisted=yes")

	// a fresh database over the same files restores the entry
	restored, err := Open(testConfig(), cfgPath, snapPath)
	require.NoError(t, err)
	defer restored.Shutdown()
	assert.Equal(t, "yes", restored.Get("persisted"))
}

func TestAuthenticateRegistration(t *testing.T) {
	cfg := testConfig()
	cfg.User.Username = ""
	cfg.User.Password = ""
	d := openTestDB(t, cfg)

	in := strings.NewReader("carol\npw\nmismatch\ncarol\npw\npw\n")
	var out bytes.Buffer

	require.NoError(t, d.Authenticate(in, &out))

	assert.Contains(t, out.String(), "Passwords must match")
	assert.Contains(t, out.String(), "Registration successful.")
	assert.Equal(t, encodeCredential("carol"), d.Config().User.Username)
}

func TestAuthenticateLogin(t *testing.T) {
	d := openTestDB(t, testConfig())

	in := strings.NewReader("alice\nwrong\nalice\nsecret\n")
	var out bytes.Buffer

	require.NoError(t, d.Authenticate(in, &out))

	assert.Contains(t, out.String(), "Login unsuccessful")
	assert.Contains(t, out.String(), "Login successful.")
}
