// Command moodify recommends playlists for how you feel, from the terminal
// or as a web application.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/justestif/go-moodify/internal/command"
	"github.com/justestif/go-moodify/internal/config"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	registry := command.NewDefaultRegistry(cfg)

	if len(os.Args) < 2 {
		return registry.Run("help", nil, os.Stdout, os.Stderr)
	}

	name := os.Args[1]
	if name == "-h" || name == "--help" {
		return registry.Run("help", nil, os.Stdout, os.Stderr)
	}

	if _, err := registry.Get(name); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Unknown command: %s\n", name)
		_, _ = fmt.Fprintln(os.Stderr, "Use 'moodify help' to see available commands.")
		return err
	}

	err = registry.Run(name, os.Args[2:], os.Stdout, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}
