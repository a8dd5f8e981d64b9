// Copyright (c) 2025 Neomantra Corp
//
// alpha-serve exposes the core engine over the Model Context Protocol
// (spec §6.1's externally-specified JSON interface), adapted from the
// teacher's cmd/dbn-go-mcp-data server setup (mcp_server.NewMCPServer +
// ServeStdio) but serving chain/bar queries instead of Databento
// fetch/cache tools.

package main

import (
	"fmt"
	"log/slog"
	"os"

	mcp_server "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/pflag"

	"github.com/quantlayer/alphastore"
)

const (
	serveVersion = "0.1.0"

	serverInstructions = `alpha-serve exposes a minute-bar and option-chain partition store.

Tools:
  query_chain      reconstructs a completeness-scored option chain as of an instant
  query_bars       returns interval-aggregated underlying bars over a range
  list_expiries    lists distinct expiries observed within a DTE range
  verify_partition hash-checks a session partition against its manifest

All instants are ISO 8601. symbol is the underlying ticker.`
)

func main() {
	var storageRoot string
	var logFilename string
	var showHelp bool

	pflag.StringVarP(&storageRoot, "root", "r", "", "Storage root directory (required)")
	pflag.StringVarP(&logFilename, "log-file", "l", "", "Log file destination (default stderr)")
	pflag.BoolVarP(&showHelp, "help", "h", false, "Show help")
	pflag.Parse()

	if showHelp {
		fmt.Fprintf(os.Stdout, "usage: %s -r <storage_root> [opts]\n\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(0)
	}
	if storageRoot == "" {
		fmt.Fprintln(os.Stderr, "missing storage root, use --root")
		os.Exit(1)
	}

	logWriter := os.Stderr
	if logFilename != "" {
		logFile, err := os.OpenFile(logFilename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %s\n", err.Error())
			os.Exit(1)
		}
		logWriter = logFile
		defer logFile.Close()
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: slog.LevelInfo}))

	eng, err := alphastore.Open(alphastore.Config{StorageRoot: storageRoot, Logger: logger})
	if err != nil {
		logger.Error("failed to open storage root", "error", err.Error())
		os.Exit(1)
	}
	defer eng.Close()

	srv := &server{engine: eng, logger: logger}

	mcpServer := mcp_server.NewMCPServer("alpha-serve", serveVersion,
		mcp_server.WithRecovery(),
		mcp_server.WithInstructions(serverInstructions),
	)
	srv.registerTools(mcpServer)

	logger.Info("alpha-serve STDIO server started", "root", storageRoot)
	if err := mcp_server.ServeStdio(mcpServer); err != nil {
		logger.Error("MCP STDIO server error", "error", err.Error())
		os.Exit(1)
	}
}
