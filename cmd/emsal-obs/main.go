// Command emsal-obs is the debugging and maintenance CLI for the emsal
// research console.
//
// Usage:
//
//	emsal-obs                      Show help
//	emsal-obs events               JSONL event journal viewer
//	emsal-obs stats                Journal and history statistics
//	emsal-obs history              Recent searches and analyses
//	emsal-obs search <query>       One-shot search against the API
//	emsal-obs ping                 Check the search API and AI providers
package main

import (
	"fmt"
	"os"
)

const usage = `emsal-obs: emsal debug & maintenance CLI

Usage:
  emsal-obs <command> [flags]

Commands:
  events      JSONL event journal viewer
  stats       Event counts, request latencies and history totals
  history     Recent searches and analyses from the history database
  search      One-shot search against the configured API
  ping        Check the search API and AI providers

Environment:
  EMSAL_DATA_DIR     Data directory (default: ~/.emsal)
  EMSAL_API_URL      Search/document service base URL
  GEMINI_API_KEY     Gemini API key (also API_KEY, GOOGLE_API_KEY)
  OLLAMA_HOST        Ollama server

Run 'emsal-obs <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "events":
		runEvents()
	case "stats":
		runStats()
	case "history":
		runHistory()
	case "search":
		runSearch()
	case "ping":
		runPing()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "emsal-obs: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
