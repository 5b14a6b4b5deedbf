// Command canonstore is the operator-facing entry point for the
// content-addressed store: it can run the REST/SSE facade as a
// foreground server, optionally guarded by a PID file, or act as a thin
// HTTP client against one for scripting and interactive use.
package main

import (
	"fmt"
	"os"

	"github.com/allaspectsdev/canonstore/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "stop":
		cmdStop()
	case "status":
		cmdStatus()
	case "put":
		cmdPut(os.Args[2:])
	case "get":
		cmdGet(os.Args[2:])
	case "has":
		cmdHas(os.Args[2:])
	case "remove":
		cmdRemove(os.Args[2:])
	case "clear":
		cmdClear(os.Args[2:])
	case "iterate":
		cmdIterate(os.Args[2:])
	case "health":
		cmdHealth(os.Args[2:])
	case "metrics":
		cmdMetrics(os.Args[2:])
	case "diagnostics":
		cmdDiagnostics(os.Args[2:])
	case "shell":
		cmdShell(os.Args[2:])
	case "init-config":
		cmdInitConfig()
	case "config-export":
		cmdConfigExport(os.Args[2:])
	case "config-import":
		cmdConfigImport(os.Args[2:])
	case "version":
		fmt.Println(version.String())
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: canonstore <command> [options]

Commands:
  serve            Start the REST/SSE facade in the foreground
  stop             Stop a serve process started with --background
  status           Report whether a serve process is running
  put              Put one JSON key/value pair against a running server
  get              Get an entry by fingerprint from a running server
  has              Check whether an entry exists by fingerprint
  remove           Remove an entry by fingerprint from a running server
  clear            Remove every entry from a running server
  iterate          Stream every entry from a running server
  health           Print the health of a running server
  metrics          Print Prometheus-format metrics from a running server
  diagnostics      Print the diagnostics snapshot from a running server
  shell            Interactive REPL against a running server
  init-config      Generate default config file
  config-export    Export current config to a TOML file
  config-import    Import config from a TOML file
  version          Print version information
  help             Show this help message

Options:
  --addr           Server address (default "localhost:8080")
  --background     Guard 'serve' with a PID file (it stays in the foreground)
  --config         Explicit config file path (with 'serve')`)
}
