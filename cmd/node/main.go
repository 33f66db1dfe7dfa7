package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pollchain/internal/app/bootstrap"

	"github.com/joho/godotenv"
)

// Node process entrypoint: the ledger as an ABCI application for CometBFT.
func main() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
	if err := run(); err != nil {
		log.Fatalf("pollchain node stopped with error: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := bootstrap.BuildNode(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap node: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("node shutdown close failed: %v", err)
		}
	}()
	return app.Run(ctx)
}
