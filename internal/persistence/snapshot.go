// Package persistence serializes cache contents to a flat snapshot file
// and restores them at startup. The format is one key=value line per
// entry with no escaping: keys and values must not themselves contain
// '=' or newlines. That constraint is documented, not solved.
package persistence

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"rediska/internal/cache"
)

// Extension is the snapshot file extension.
const Extension = ".red"

// Store reads and writes cache snapshots at a fixed path.
type Store struct {
	path string
}

// NewStore creates a snapshot store. The extension is appended when the
// given path does not already carry it.
func NewStore(path string) *Store {
	if !strings.HasSuffix(path, Extension) {
		path += Extension
	}
	return &Store{path: path}
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

// Save writes all items to the snapshot file in iteration order. The
// data goes to a temporary file first and is renamed into place so a
// crash mid-write never corrupts an existing snapshot.
func (s *Store) Save(items []cache.Item) error {
	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}

	writer := bufio.NewWriter(file)
	for _, item := range items {
		if _, err := fmt.Fprintf(writer, "%s=%s\n", item.Key, item.Value); err != nil {
			file.Close()
			os.Remove(tmp)
			return fmt.Errorf("failed to write snapshot entry: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot and returns its entries together with the
// number of lines read. A missing file yields zero entries, which is
// the signal that no prior snapshot exists. A line without '=' is a
// fatal error: the format has no recovery rule.
func (s *Store) Load() ([]cache.Item, int, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	var items []cache.Item
	lines := 0

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		lines++

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, 0, fmt.Errorf("malformed snapshot line %d: missing '=' separator", lines)
		}
		items = append(items, cache.Item{Key: key, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return items, lines, nil
}
