package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"rediska/internal/database"
	"rediska/internal/logging"
	"rediska/internal/network"
	"rediska/pkg/client"
	"rediska/pkg/config"
)

const version = "1.0.0"

var (
	configPath   = flag.String("config", "rediska.yaml", "Path to configuration file")
	snapshotPath = flag.String("data", "rediska", "Snapshot path (the .red extension is appended)")
	port         = flag.Int("port", 0, "Override the configured server port")
	serverAddr   = flag.String("addr", "", "Server address for client commands (default from config)")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: rediska [flags] [command]

Commands:
  start        Run the server (default)
  interactive  Open an interactive session against a running server
  config       Print the configuration of a running server
  docs         Print the command reference
  version      Print the version

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	command := "start"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	var err error
	switch command {
	case "start":
		err = runServer()
	case "interactive":
		err = runInteractive()
	case "config":
		err = runConfig()
	case "docs":
		fmt.Print(docsText)
	case "version":
		fmt.Printf("rediska %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", command)
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func runServer() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger := logging.NewLogger(logging.Config{
		Level:         logging.LevelFromString(cfg.Logging.Level),
		LogFile:       cfg.Logging.LogFile,
		EnableConsole: cfg.Logging.EnableConsole,
		EnableFile:    cfg.Logging.EnableFile,
		BufferSize:    cfg.Logging.BufferSize,
	})
	logging.SetGlobalLogger(logger)
	defer logger.Close()

	ctx := logging.WithCorrelationID(context.Background(), logging.NewCorrelationID())
	logging.Info(ctx, logging.ComponentMain, logging.ActionStart, "rediska starting", map[string]any{
		"config_file": *configPath,
		"version":     version,
	})

	db, err := database.Open(cfg, *configPath, *snapshotPath)
	if err != nil {
		return err
	}

	if err := db.Authenticate(os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := network.NewServer(address, db.Dispatch)
	db.SetShutdownHook(func() { _ = srv.Stop() })

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	fmt.Printf("Rediska is listening on %s\n", address)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		srv.Wait()
		cancel()
		return nil
	})
	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sig)

		select {
		case s := <-sig:
			logging.Info(runCtx, logging.ComponentMain, logging.ActionStop, "signal received", map[string]any{
				"signal": s.String(),
			})
			db.Shutdown()
		case <-runCtx.Done():
			// EXIT command path: the database already shut the server down.
		}
		return nil
	})

	err = g.Wait()
	logging.Info(ctx, logging.ComponentMain, logging.ActionStop, "rediska stopped")
	return err
}

func runInteractive() error {
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Println("Connected. Type a command, or EXIT to stop the server.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		resp, err := c.Do(line)
		if err != nil {
			return fmt.Errorf("connection lost: %w", err)
		}
		fmt.Println(resp)
		if resp == "EXIT" {
			return nil
		}
	}
}

func runConfig() error {
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	raw, err := c.ConfigRaw()
	if err != nil {
		return err
	}
	fmt.Println(raw)
	return nil
}

func dial() (*client.Client, error) {
	address := *serverAddr
	if address == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		address = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	return client.Connect(client.Config{Addr: address})
}

const docsText = `Rediska command reference

  GET key                  Return the value for key, or None on a miss.
  SET key value            Store a key-value pair. Responds SUCCESS.
  REMOVE key               Delete a key. Responds SUCCESS even when absent.
  CONFIG                   Show the current server configuration.
  SET_CONFIG key value     Change one configuration setting. Responds SUCCESS.
  EXIT                     Persist state and stop the server.

SET_CONFIG keys:

  cache_type               ttl, lru or lfu
  hash_function            division, py_hash, multiplication, midsquare,
                           folding or djb2
  storage_capacity         positive integer, maximum number of pairs
  ttl_seconds              positive integer, entry lifetime for the ttl cache
  username, password       stored credentials

Limits: keys up to 150 characters, values up to 200 characters.
Keywords are case-insensitive; keys and values are case-sensitive.
`
