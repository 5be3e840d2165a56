// Package client is a small Go client for the rediska text protocol.
// One request line out, one blank-line-terminated response back; every
// call is a full round trip and calls are serialized per client.
package client

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds the dial and each round trip.
const DefaultTimeout = 5 * time.Second

// QueryError is a server-side rejection rendered as response text.
type QueryError struct {
	Query   string
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %q rejected: %s", e.Query, e.Message)
}

// Config carries connection options for a Client.
type Config struct {
	Addr    string
	Timeout time.Duration
}

// ServerConfig is the parsed CONFIG response.
type ServerConfig struct {
	Username     string
	CacheType    string
	HashFunction string
	Capacity     int
	TTLSeconds   int
}

// Client is a connection to a rediska server. It is safe for
// concurrent use; requests are serialized over the single connection.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

// Connect dials the server and returns a ready client.
func Connect(cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	conn, err := net.DialTimeout("tcp", cfg.Addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Addr, err)
	}

	return &Client{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: timeout,
	}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

// Get fetches the value for key. A miss returns "".
func (c *Client) Get(key string) (string, error) {
	resp, err := c.roundTrip(fmt.Sprintf("GET %s", key))
	if err != nil {
		return "", err
	}
	if resp == "None" {
		return "", nil
	}
	return resp, nil
}

// Set stores a key-value pair.
func (c *Client) Set(key, value string) error {
	return c.expectSuccess(fmt.Sprintf("SET %s %s", key, value))
}

// Remove deletes a key. Removing an absent key is not an error.
func (c *Client) Remove(key string) error {
	return c.expectSuccess(fmt.Sprintf("REMOVE %s", key))
}

// SetConfig applies one server configuration change.
func (c *Client) SetConfig(key, value string) error {
	return c.expectSuccess(fmt.Sprintf("SET_CONFIG %s %s", key, value))
}

// ConfigRaw returns the CONFIG response exactly as the server sent it.
func (c *Client) ConfigRaw() (string, error) {
	return c.roundTrip("CONFIG")
}

// Config fetches and parses the server configuration.
func (c *Client) Config() (ServerConfig, error) {
	raw, err := c.ConfigRaw()
	if err != nil {
		return ServerConfig{}, err
	}
	return parseConfig(raw)
}

// Do sends a raw protocol line and returns the response body verbatim.
// It is the escape hatch for interactive sessions; the typed methods
// are preferred in code.
func (c *Client) Do(query string) (string, error) {
	return c.roundTrip(query)
}

// Exit asks the server to persist and shut down.
func (c *Client) Exit() error {
	resp, err := c.roundTrip("EXIT")
	if err != nil {
		return err
	}
	if resp != "EXIT" {
		return &QueryError{Query: "EXIT", Message: resp}
	}
	return nil
}

func (c *Client) expectSuccess(query string) error {
	resp, err := c.roundTrip(query)
	if err != nil {
		return err
	}
	if resp != "SUCCESS" {
		return &QueryError{Query: query, Message: resp}
	}
	return nil
}

// roundTrip writes one request line and reads lines until the blank
// terminator, returning the response body without it.
func (c *Client) roundTrip(query string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := time.Now().Add(c.timeout)
	if err := c.conn.SetDeadline(deadline); err != nil {
		return "", fmt.Errorf("failed to set deadline: %w", err)
	}

	if _, err := fmt.Fprintf(c.conn, "%s\n", query); err != nil {
		return "", fmt.Errorf("failed to send query: %w", err)
	}

	var lines []string
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read response: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n"), nil
}

func parseConfig(raw string) (ServerConfig, error) {
	var cfg ServerConfig
	for _, line := range strings.Split(raw, "\n") {
		label, value, found := strings.Cut(line, ": ")
		if !found {
			continue
		}
		switch label {
		case "Logged in username":
			cfg.Username = value
		case "Cache Type":
			cfg.CacheType = strings.ToLower(value)
		case "Hash Function":
			cfg.HashFunction = strings.ToLower(value)
		case "Capacity":
			if _, err := fmt.Sscanf(value, "%d pairs", &cfg.Capacity); err != nil {
				return ServerConfig{}, fmt.Errorf("failed to parse capacity %q: %w", value, err)
			}
		case "TTL Seconds":
			if _, err := fmt.Sscanf(value, "%ds", &cfg.TTLSeconds); err != nil {
				return ServerConfig{}, fmt.Errorf("failed to parse ttl %q: %w", value, err)
			}
		}
	}
	return cfg, nil
}
