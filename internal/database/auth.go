package database

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"rediska/internal/logging"
	"rediska/pkg/config"
)

// Credentials are stored base64-encoded. This is an opaque identity
// check for compatibility, not authentication security.

func encodeCredential(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func decodeCredential(s string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("failed to decode credential: %w", err)
	}
	return string(decoded), nil
}

// Authenticate gates startup on the stored identity. With no registered
// username it runs registration (prompt, confirm, store encoded);
// otherwise it loops until the entered credentials match the stored
// ones. The configuration is saved afterwards in both paths.
func (d *Database) Authenticate(in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cfg.User.Username == "" {
		if err := d.register(reader, out); err != nil {
			return err
		}
	} else if err := d.login(reader, out); err != nil {
		return err
	}

	return config.Save(d.cfg, d.cfgPath)
}

func (d *Database) register(reader *bufio.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Please, register before using Rediska.")

	for {
		username, err := prompt(reader, out, "Username: ")
		if err != nil {
			return err
		}
		password, err := prompt(reader, out, "Password: ")
		if err != nil {
			return err
		}
		repeat, err := prompt(reader, out, "Repeat password: ")
		if err != nil {
			return err
		}

		if password == repeat {
			d.cfg.User.Username = encodeCredential(username)
			d.cfg.User.Password = encodeCredential(password)
			fmt.Fprintln(out, "Registration successful.")
			logging.Info(context.Background(), logging.ComponentAuth, logging.ActionLogin, "user registered")
			return nil
		}
		fmt.Fprintln(out, "Passwords must match! Please, try again.")
	}
}

func (d *Database) login(reader *bufio.Reader, out io.Writer) error {
	storedUsername, err := decodeCredential(d.cfg.User.Username)
	if err != nil {
		return err
	}
	storedPassword, err := decodeCredential(d.cfg.User.Password)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Please, login before using Rediska.")
	for {
		username, err := prompt(reader, out, "Username: ")
		if err != nil {
			return err
		}
		password, err := prompt(reader, out, "Password: ")
		if err != nil {
			return err
		}

		if username == storedUsername && password == storedPassword {
			fmt.Fprintln(out, "Login successful.")
			logging.Info(context.Background(), logging.ComponentAuth, logging.ActionLogin, "user logged in")
			return nil
		}
		fmt.Fprintln(out, "Login unsuccessful. Please, try again.")
	}
}

func prompt(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
