// Package protocol defines the line-based text command grammar and its
// parser. A raw request line is validated into a Command; every
// validation failure is a typed error whose message is what the client
// sees on the wire.
package protocol

import (
	"errors"
	"fmt"
	"strings"

	"rediska/pkg/config"
)

// Operand length limits.
const (
	MaxKeyLength   = 150
	MaxValueLength = 200
)

// Validation errors, in the order they are checked.
var (
	ErrInvalidCommand  = errors.New("invalid command, please check the documentation")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidSetKey   = errors.New("invalid key for SET_CONFIG, please check the documentation")
	ErrInvalidSetValue = errors.New("invalid value for SET_CONFIG")
	ErrKeyTooLong      = errors.New("key is too long")
	ErrValueTooLong    = errors.New("value is too long")
)

// Operation is a recognized command keyword.
type Operation string

const (
	OpGet       Operation = "GET"
	OpSet       Operation = "SET"
	OpRemove    Operation = "REMOVE"
	OpSetConfig Operation = "SET_CONFIG"
	OpGetConfig Operation = "CONFIG"
	OpExit      Operation = "EXIT"
)

// ConfigKey is a SET_CONFIG target.
type ConfigKey string

const (
	KeyCacheType    ConfigKey = "cache_type"
	KeyUsername     ConfigKey = "username"
	KeyPassword     ConfigKey = "password"
	KeyHashFunction ConfigKey = "hash_function"
	KeyCapacity     ConfigKey = "storage_capacity"
	KeyTTLSeconds   ConfigKey = "ttl_seconds"
)

func validConfigKey(key string) bool {
	switch ConfigKey(key) {
	case KeyCacheType, KeyUsername, KeyPassword, KeyHashFunction, KeyCapacity, KeyTTLSeconds:
		return true
	}
	return false
}

// Command is a parsed, validated request. Key and Value are empty when
// the operation does not use them.
type Command struct {
	Op    Operation
	Key   string
	Value string
}

// Parse validates a raw request line and returns the structured command.
// Checks run in a fixed order: keyword, arity, SET_CONFIG key, SET_CONFIG
// value, operand lengths.
func Parse(input string) (Command, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return Command{}, ErrInvalidCommand
	}

	var op Operation
	switch Operation(strings.ToUpper(fields[0])) {
	case OpGet:
		op = OpGet
	case OpSet:
		op = OpSet
	case OpRemove:
		op = OpRemove
	case OpSetConfig:
		op = OpSetConfig
	case OpGetConfig:
		op = OpGetConfig
	case OpExit:
		op = OpExit
	default:
		return Command{}, ErrInvalidCommand
	}

	cmd := Command{Op: op}
	switch op {
	case OpGet:
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("%w: GET should consist of 2 elements (GET key)", ErrInvalidInput)
		}
		cmd.Key = fields[1]

	case OpRemove:
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("%w: REMOVE should consist of 2 elements (REMOVE key)", ErrInvalidInput)
		}
		cmd.Key = fields[1]

	case OpSet:
		if len(fields) != 3 {
			return Command{}, fmt.Errorf("%w: SET should consist of 3 elements (SET key value)", ErrInvalidInput)
		}
		cmd.Key, cmd.Value = fields[1], fields[2]

	case OpSetConfig:
		if len(fields) != 3 {
			return Command{}, fmt.Errorf("%w: SET_CONFIG should consist of 3 elements (SET_CONFIG key value)", ErrInvalidInput)
		}
		cmd.Key, cmd.Value = fields[1], fields[2]

		if !validConfigKey(cmd.Key) {
			return Command{}, ErrInvalidSetKey
		}
		if ConfigKey(cmd.Key) == KeyHashFunction && !config.HashFunction(cmd.Value).Valid() {
			return Command{}, fmt.Errorf("%w hash_function: %q", ErrInvalidSetValue, cmd.Value)
		}
		if ConfigKey(cmd.Key) == KeyCacheType && !config.CacheType(cmd.Value).Valid() {
			return Command{}, fmt.Errorf("%w cache_type: %q", ErrInvalidSetValue, cmd.Value)
		}

	case OpGetConfig, OpExit:
		if len(fields) != 1 {
			return Command{}, fmt.Errorf("%w: %s takes no operands", ErrInvalidInput, op)
		}
	}

	if len(cmd.Key) > MaxKeyLength {
		return Command{}, fmt.Errorf("%w: %d/%d characters", ErrKeyTooLong, len(cmd.Key), MaxKeyLength)
	}
	if len(cmd.Value) > MaxValueLength {
		return Command{}, fmt.Errorf("%w: %d/%d characters", ErrValueTooLong, len(cmd.Value), MaxValueLength)
	}

	return cmd, nil
}
