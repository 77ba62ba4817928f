// Package main provides the decant CLI for resolving and installing
// product releases.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "install":
		runInstall(ctx, os.Args[2:])
	case "uninstall":
		runUninstall(ctx, os.Args[2:])
	case "list":
		runList(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`decant - Release resolution and install engine

Usage:
  decant <command> [options]

Commands:
  install     Resolve, download, verify and install a product release
  uninstall   Remove an installed product, preserving user data
  list        List available product definitions

Use "decant <command> --help" for more information about a command.`)
}
