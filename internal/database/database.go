// Package database binds the protocol to the active cache engine. It
// owns the configuration, the snapshot store and the engine reference,
// and coordinates live reconfiguration: policy, capacity or hash
// function changes rebuild the engine and migrate every live entry.
package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"rediska/internal/cache"
	"rediska/internal/logging"
	"rediska/internal/persistence"
	"rediska/internal/protocol"
	"rediska/pkg/config"
)

// Database is the orchestrating layer between the connection server and
// the cache engines. The engine reference is guarded: dispatch paths
// hold the read lock for the duration of an operation, reconfiguration
// takes the write lock, so in-flight operations drain before a swap is
// published and no request ever observes a torn state.
type Database struct {
	mu     sync.RWMutex
	engine cache.Cache

	cfg     *config.Config
	cfgPath string

	snapshot *persistence.Store

	shutdownOnce sync.Once
	onShutdown   func()
}

// Open builds a database from the given configuration, restoring the
// snapshot when one exists. Zero restored lines means no prior snapshot
// and the engine starts fresh.
func Open(cfg *config.Config, cfgPath, snapshotPath string) (*Database, error) {
	d := &Database{
		cfg:      cfg,
		cfgPath:  cfgPath,
		snapshot: persistence.NewStore(snapshotPath),
	}

	items, n, err := d.snapshot.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to restore snapshot: %w", err)
	}

	d.engine = cache.New(cfg.Cache)
	for _, item := range items {
		d.engine.Set(item.Key, item.Value)
	}

	if n > 0 {
		logging.Info(context.Background(), logging.ComponentDatabase, logging.ActionRestore, "snapshot restored", map[string]any{
			"entries": n,
			"file":    d.snapshot.Path(),
		})
	}

	return d, nil
}

// SetShutdownHook registers a function invoked once after Shutdown has
// persisted state, typically to stop the connection server.
func (d *Database) SetShutdownHook(hook func()) {
	d.onShutdown = hook
}

// Get returns the value for key, or "" on a miss.
func (d *Database) Get(key string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.engine.Get(key)
}

// Set stores a key-value pair in the active engine.
func (d *Database) Set(key, value string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	d.engine.Set(key, value)
}

// Remove deletes a key from the active engine.
func (d *Database) Remove(key string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	d.engine.Remove(key)
}

// Items returns a snapshot of all live entries.
func (d *Database) Items() []cache.Item {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.engine.Items()
}

// Dispatch parses and executes one request line. Validation errors are
// rendered as response text; they never terminate the caller.
func (d *Database) Dispatch(line string) string {
	cmd, err := protocol.Parse(line)
	if err != nil {
		logging.Debug(context.Background(), logging.ComponentDatabase, logging.ActionValidation, "rejected request", map[string]any{
			"error": err.Error(),
		})
		return err.Error()
	}

	switch cmd.Op {
	case protocol.OpGet:
		return d.Get(cmd.Key)
	case protocol.OpSet:
		d.Set(cmd.Key, cmd.Value)
		return "SUCCESS"
	case protocol.OpRemove:
		d.Remove(cmd.Key)
		return "SUCCESS"
	case protocol.OpSetConfig:
		if err := d.SetConfig(protocol.ConfigKey(cmd.Key), cmd.Value); err != nil {
			return err.Error()
		}
		return "SUCCESS"
	case protocol.OpGetConfig:
		return d.ConfigText()
	case protocol.OpExit:
		d.Shutdown()
		return string(protocol.OpExit)
	}
	return ""
}

// SetConfig applies one configuration change. Changes to the cache
// type, hash function or capacity (and to ttl_seconds while the active
// type is TTL) rebuild the engine and migrate all live entries; the
// configuration file is saved immediately after a successful change.
func (d *Database) SetConfig(key protocol.ConfigKey, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch key {
	case protocol.KeyUsername:
		d.cfg.User.Username = encodeCredential(value)

	case protocol.KeyPassword:
		d.cfg.User.Password = encodeCredential(value)

	case protocol.KeyCacheType:
		d.cfg.Cache.Type = config.CacheType(value)
		d.migrateLocked()

	case protocol.KeyHashFunction:
		d.cfg.Cache.HashFunction = config.HashFunction(value)
		d.migrateLocked()

	case protocol.KeyCapacity:
		capacity, err := strconv.Atoi(value)
		if err != nil || capacity <= 0 {
			return fmt.Errorf("storage_capacity must be a positive integer, got %q", value)
		}
		d.cfg.Cache.Capacity = capacity
		d.migrateLocked()

	case protocol.KeyTTLSeconds:
		ttl, err := strconv.Atoi(value)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("ttl_seconds must be a positive integer, got %q", value)
		}
		d.cfg.Cache.TTLSeconds = ttl
		if d.cfg.Cache.Type == config.CacheTTL {
			d.migrateLocked()
		}

	default:
		return protocol.ErrInvalidSetKey
	}

	return config.Save(d.cfg, d.cfgPath)
}

// migrateLocked rebuilds the engine from the current configuration and
// replays every live entry through Set on the new instance. The new
// policy applies its own eviction rule during replay, and TTL entries
// restart a fresh TTL window; both are deliberate. Callers hold the
// write lock.
func (d *Database) migrateLocked() {
	items := d.engine.Items()

	next := cache.New(d.cfg.Cache)
	for _, item := range items {
		next.Set(item.Key, item.Value)
	}

	old := d.engine
	d.engine = next
	old.Close()

	logging.Info(context.Background(), logging.ComponentDatabase, logging.ActionReconfigure, "cache engine replaced", map[string]any{
		"type":          string(d.cfg.Cache.Type),
		"hash_function": string(d.cfg.Cache.HashFunction),
		"capacity":      d.cfg.Cache.Capacity,
		"migrated":      len(items),
		"retained":      next.Len(),
	})
}

// ConfigText renders the CONFIG response.
func (d *Database) ConfigText() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	username, _ := decodeCredential(d.cfg.User.Username)
	return fmt.Sprintf(
		"Logged in username: %s\nCache Type: %s\nHash Function: %s\nCapacity: %d pairs\nTTL Seconds: %ds",
		username,
		strings.ToUpper(string(d.cfg.Cache.Type)),
		titleCase(string(d.cfg.Cache.HashFunction)),
		d.cfg.Cache.Capacity,
		d.cfg.Cache.TTLSeconds,
	)
}

// Config returns a copy of the current configuration.
func (d *Database) Config() config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return *d.cfg
}

// Shutdown persists configuration and snapshot, closes the engine and
// fires the shutdown hook. It is safe to call more than once.
func (d *Database) Shutdown() {
	d.shutdownOnce.Do(func() {
		ctx := context.Background()

		d.mu.Lock()
		if err := config.Save(d.cfg, d.cfgPath); err != nil {
			logging.Error(ctx, logging.ComponentDatabase, logging.ActionPersist, "failed to save config", err)
		}
		items := d.engine.Items()
		if err := d.snapshot.Save(items); err != nil {
			logging.Error(ctx, logging.ComponentDatabase, logging.ActionPersist, "failed to save snapshot", err)
		} else {
			logging.Info(ctx, logging.ComponentDatabase, logging.ActionPersist, "snapshot saved", map[string]any{
				"entries": len(items),
				"file":    d.snapshot.Path(),
			})
		}
		d.engine.Close()
		d.mu.Unlock()

		if d.onShutdown != nil {
			// The hook may stop the server that is serving the EXIT
			// request, so it runs off the dispatch goroutine.
			go d.onShutdown()
		}
	})
}

// titleCase capitalizes each underscore-separated word, matching the
// CONFIG response format ("py_hash" renders as "Py_Hash").
func titleCase(s string) string {
	parts := strings.Split(s, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, "_")
}
