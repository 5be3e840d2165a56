package protocol

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidCommands(t *testing.T) {
	cases := []struct {
		input string
		want  Command
	}{
		{"GET mykey", Command{Op: OpGet, Key: "mykey"}},
		{"get mykey", Command{Op: OpGet, Key: "mykey"}},
		{"SET mykey myvalue", Command{Op: OpSet, Key: "mykey", Value: "myvalue"}},
		{"REMOVE mykey", Command{Op: OpRemove, Key: "mykey"}},
		{"SET_CONFIG cache_type lru", Command{Op: OpSetConfig, Key: "cache_type", Value: "lru"}},
		{"SET_CONFIG hash_function djb2", Command{Op: OpSetConfig, Key: "hash_function", Value: "djb2"}},
		{"SET_CONFIG storage_capacity 50", Command{Op: OpSetConfig, Key: "storage_capacity", Value: "50"}},
		{"SET_CONFIG username alice", Command{Op: OpSetConfig, Key: "username", Value: "alice"}},
		{"CONFIG", Command{Op: OpGetConfig}},
		{"exit", Command{Op: OpExit}},
		{"  GET   spaced  ", Command{Op: OpGet, Key: "spaced"}},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.input)
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.want, cmd, "input %q", tc.input)
	}
}

func TestParseUnknownCommand(t *testing.T) {
	for _, input := range []string{"", "   ", "FETCH key", "GETALL"} {
		_, err := Parse(input)
		assert.ErrorIs(t, err, ErrInvalidCommand, "input %q", input)
	}
}

func TestParseWrongArity(t *testing.T) {
	cases := []string{
		"GET",
		"GET a b",
		"SET key",
		"SET",
		"SET key value extra",
		"REMOVE",
		"REMOVE a b",
		"SET_CONFIG cache_type",
		"CONFIG extra",
		"EXIT now",
	}

	for _, input := range cases {
		_, err := Parse(input)
		assert.ErrorIs(t, err, ErrInvalidInput, "input %q", input)
	}
}

func TestParseSetConfigKeyValidation(t *testing.T) {
	_, err := Parse("SET_CONFIG banana 42")
	assert.ErrorIs(t, err, ErrInvalidSetKey)

	// arity is checked before the key
	_, err = Parse("SET_CONFIG banana")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseSetConfigValueValidation(t *testing.T) {
	_, err := Parse("SET_CONFIG cache_type banana")
	assert.ErrorIs(t, err, ErrInvalidSetValue)

	_, err = Parse("SET_CONFIG hash_function banana")
	assert.ErrorIs(t, err, ErrInvalidSetValue)

	// every real enum member passes
	for _, v := range []string{"ttl", "lru", "lfu"} {
		_, err := Parse("SET_CONFIG cache_type " + v)
		assert.NoError(t, err, "cache_type %q", v)
	}
	for _, v := range []string{"division", "py_hash", "multiplication", "midsquare", "folding", "djb2"} {
		_, err := Parse("SET_CONFIG hash_function " + v)
		assert.NoError(t, err, "hash_function %q", v)
	}
}

func TestParseLengthLimits(t *testing.T) {
	longKey := strings.Repeat("k", MaxKeyLength+1)
	_, err := Parse("GET " + longKey)
	assert.ErrorIs(t, err, ErrKeyTooLong)

	okKey := strings.Repeat("k", MaxKeyLength)
	_, err = Parse("GET " + okKey)
	assert.NoError(t, err)

	longValue := strings.Repeat("v", MaxValueLength+1)
	_, err = Parse("SET key " + longValue)
	assert.ErrorIs(t, err, ErrValueTooLong)
}

func TestParseErrorMessagesAreClientFacing(t *testing.T) {
	// the error text is exactly what gets written to the socket
	_, err := Parse("GET")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET should consist of 2 elements")

	var invalid error = ErrInvalidCommand
	_, err = Parse("NOPE")
	assert.True(t, errors.Is(err, invalid))
}
