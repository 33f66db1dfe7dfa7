package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"pollchain/internal/platform/config"
	"pollchain/internal/pollwatch"

	"github.com/joho/godotenv"
)

// Terminal tally viewer. Reads from the HTTP API or, with -source comet,
// from a CometBFT node through ABCI queries.
func main() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	pollID := flag.Uint64("poll", 1, "poll id to watch")
	sourceName := flag.String("source", "api", "tally source: api or comet")
	interval := flag.Duration("interval", 2*time.Second, "refresh interval")
	flag.Parse()

	var source pollwatch.Source
	switch *sourceName {
	case "api":
		source = pollwatch.APISource{BaseURL: cfg.APIURL}
	case "comet":
		comet, err := pollwatch.NewCometSource(cfg.CometRPCURL)
		if err != nil {
			log.Fatalf("connect node: %v", err)
		}
		source = comet
	default:
		fmt.Fprintf(os.Stderr, "unknown source %q\n", *sourceName)
		os.Exit(2)
	}

	if err := pollwatch.Run(source, *pollID, *interval); err != nil {
		log.Fatalf("pollwatch: %v", err)
	}
}
