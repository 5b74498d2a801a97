// Package main provides the aistack binary that builds, publishes and runs
// the AI service stack (text-to-speech and image generation) on a local
// Docker engine.
//
// Usage:
//
//	aistack [-config path] [-volumes] <command>
//
// Commands:
//
//	build         - Build both service images
//	push          - Push both service images to the registry
//	deploy        - Create data directories, start the stack, stream logs
//	stop          - Stop and remove the stack
//	all           - Build, push and deploy in sequence
//	status        - Show the stack's containers
//	history [id]  - Show recorded operations, or one operation in detail
//	version       - Show version information
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
)

// Version information (set by build flags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess       = 0
	ExitConfigError   = 1
	ExitUsage         = 2
	ExitDockerError   = 3
	ExitRegistryError = 4
	ExitJournalError  = 5
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("aistack", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)
	fs.Usage = printUsage
	configPath := fs.String("config", "", "Path to config file")
	removeVolumes := fs.Bool("volumes", false, "With stop: also remove named volumes and their data")

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage()
		return ExitUsage
	}
	cmd, cmdArgs := rest[0], rest[1:]
	if !argsValid(cmd, cmdArgs) {
		printUsage()
		return ExitUsage
	}

	// version needs no config or Docker connection
	if cmd == "version" {
		fmt.Printf("aistack %s (built %s, %s)\n", Version, BuildTime, runtime.Version())
		return ExitSuccess
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	logger := SetupLogger(cfg)

	return dispatch(cmd, cmdArgs, *removeVolumes, cfg, logger)
}

// argsValid checks the positional argument count for a command. Only
// history takes an optional operation id.
func argsValid(cmd string, args []string) bool {
	if cmd == "history" {
		return len(args) <= 1
	}
	return len(args) == 0
}

// printUsage writes the usage text to stdout.
func printUsage() {
	fmt.Print(`Usage: aistack [-config path] [-volumes] <command>

Commands:
  build         Build both service images
  push          Push both service images to the registry
  deploy        Create data directories, start the stack, stream logs
  stop          Stop and remove the stack
  all           Build, push and deploy in sequence
  status        Show the stack's containers
  history [id]  Show recorded operations, or one operation in detail
  version       Show version information

Flags:
  -config path   Path to a YAML config file (AISTACK_* env vars override)
  -volumes       With stop: also remove named volumes and their data
`)
}
