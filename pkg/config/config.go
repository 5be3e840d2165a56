// Package config loads, validates and persists the Rediska configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CacheType identifies which eviction engine is active.
type CacheType string

const (
	CacheTTL CacheType = "ttl"
	CacheLRU CacheType = "lru"
	CacheLFU CacheType = "lfu"
)

// Valid reports whether the cache type is one of the supported engines.
func (t CacheType) Valid() bool {
	switch t {
	case CacheTTL, CacheLRU, CacheLFU:
		return true
	}
	return false
}

// CacheTypes lists every supported cache type.
func CacheTypes() []CacheType {
	return []CacheType{CacheTTL, CacheLRU, CacheLFU}
}

// HashFunction identifies the hash strategy used by the hash table.
type HashFunction string

const (
	HashDivision       HashFunction = "division"
	HashGeneric        HashFunction = "py_hash" // legacy alias for division, kept for config compatibility
	HashMultiplication HashFunction = "multiplication"
	HashMidSquare      HashFunction = "midsquare"
	HashFolding        HashFunction = "folding"
	HashDJB2           HashFunction = "djb2"
)

// Valid reports whether the hash function name is supported.
func (h HashFunction) Valid() bool {
	switch h {
	case HashDivision, HashGeneric, HashMultiplication, HashMidSquare, HashFolding, HashDJB2:
		return true
	}
	return false
}

// HashFunctions lists every supported hash function.
func HashFunctions() []HashFunction {
	return []HashFunction{HashDivision, HashGeneric, HashMultiplication, HashMidSquare, HashFolding, HashDJB2}
}

// UserConfig holds the registered identity. Both fields are stored
// base64-encoded; this is an opaque identity check, not security.
type UserConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// CacheConfig describes the active cache engine.
type CacheConfig struct {
	Type         CacheType    `yaml:"type"`
	HashFunction HashFunction `yaml:"hash_function"`
	Capacity     int          `yaml:"capacity"`
	TTLSeconds   int          `yaml:"ttl_seconds"`
}

// ServerConfig contains the TCP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level         string `yaml:"level"`
	EnableConsole bool   `yaml:"enable_console"`
	EnableFile    bool   `yaml:"enable_file"`
	LogFile       string `yaml:"log_file"`
	BufferSize    int    `yaml:"buffer_size"`
}

// Config is the root configuration document.
type Config struct {
	User    UserConfig    `yaml:"user"`
	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Type:         CacheTTL,
			HashFunction: HashDivision,
			Capacity:     1000,
			TTLSeconds:   900,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 6379,
		},
		Logging: LoggingConfig{
			Level:         "info",
			EnableConsole: true,
			EnableFile:    false,
			BufferSize:    1000,
		},
	}
}

// Load reads and parses the configuration file. A missing file is not an
// error: defaults are returned so a first run can register a user and save.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save writes the configuration back to disk.
func Save(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !c.Cache.Type.Valid() {
		return fmt.Errorf("cache.type must be one of %v, got %q", CacheTypes(), c.Cache.Type)
	}
	if !c.Cache.HashFunction.Valid() {
		return fmt.Errorf("cache.hash_function must be one of %v, got %q", HashFunctions(), c.Cache.HashFunction)
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache.ttl_seconds must be positive, got %d", c.Cache.TTLSeconds)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}
