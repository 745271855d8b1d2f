// Command jwtgate runs a demo API protected by the authentication gate.
//
// Try it out with a user seeded from the environment:
//
//	JWTGATE_DATABASE_SEED=u1:s1 go run ./cmd/jwtgate
//	curl -H "token: $TOKEN" localhost:8080/users/u1
//
// where $TOKEN is an HS256 token with the claim {"userId":"u1"} signed with "s1".
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/moonzhou/jwtgate/internal/config"
	"github.com/moonzhou/jwtgate/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "jwtgate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFile := flag.String("config", "", "path to the YAML config file")
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx, cfg, os.Stdout)
}
