// Package main provides the entry point for the Lakekeeper CLI tool.
// The CLI provides commands for inspecting a running catalog service
// from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/lakekeeper/lakekeeper/internal/config"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return nil
	}

	cmd := os.Args[1]
	switch cmd {
	case "version", "-v", "--version":
		fmt.Printf("lakekeeper version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	case "status":
		return cmdStatus()
	case "warehouses":
		return cmdWarehouses()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
	return nil
}

func printUsage() {
	fmt.Println(`Lakekeeper CLI - Iceberg Catalog Management

Usage:
  lakekeeper <command> [options]

Commands:
  version     Show version information
  status      Show system status
  warehouses  List warehouses
  help        Show this help message

Use "lakekeeper <command> --help" for more information about a command.`)
}

func cmdStatus() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Printf("Lakekeeper Status\n")
	fmt.Printf("---------------\n")
	fmt.Printf("API URL: %s\n", cfg.API.BaseURL)
	fmt.Println("Status check not yet implemented")
	return nil
}

func cmdWarehouses() error {
	fmt.Println("Warehouse listing not yet implemented; use GET /management/v1/warehouses")
	return nil
}
