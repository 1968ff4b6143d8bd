// Command newsbalancer turns queued news articles into balanced analyses.
//
// Usage:
//
//	newsbalancer run [-limit N] [-skip-access-check]
//	                              Process unprocessed articles, oldest first
//	newsbalancer stats            Show processing progress
//	newsbalancer reset [id ...]   Requeue processed articles (all when no ids)
//	newsbalancer probe            Check whether the backend can reach the web
//	newsbalancer migrate          Create the article table
package main

import (
	"fmt"
	"os"
)

const usage = `newsbalancer - balanced news analysis pipeline

Usage:
  newsbalancer <command> [flags]

Commands:
  run       Process unprocessed articles (-limit N to cap the batch,
            -skip-access-check to skip the web access check)
  stats     Processing progress by state
  reset     Requeue processed articles; pass ids to limit the reset
  probe     Check whether the generation backend has web access
  migrate   Create the article table if missing

Environment:
  NEWS_BALANCER_CONFIG  Path to a YAML config file
  DATABASE_URL          Store connection string (required)
  DATABASE_DRIVER       postgres or sqlite (default: postgres)
  ANTHROPIC_API_KEY     Generation backend key (required)
  GENERATION_MODEL      Model override
  TELEGRAM_BOT_TOKEN    Enables batch reports together with TELEGRAM_CHAT_ID
  LOG_LEVEL             debug, info, warn or error

Run 'newsbalancer <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "run":
		err = runBatch(args)
	case "stats":
		err = runStats(args)
	case "reset":
		err = runReset(args)
	case "probe":
		err = runProbe(args)
	case "migrate":
		err = runMigrate(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "newsbalancer: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "newsbalancer %s: %v\n", cmd, err)
		os.Exit(1)
	}
}
