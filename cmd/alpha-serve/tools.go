// Copyright (c) 2025 Neomantra Corp

package main

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcp_server "github.com/mark3labs/mcp-go/server"

	"github.com/quantlayer/alphastore"
)

// server holds the state MCP tool handlers need: the engine they query
// and a logger, mirroring the mcp_meta.Server/mcp_data.Server embedding
// shape but collapsed to a single struct since alpha-serve has one
// concern, not a meta/data split.
type server struct {
	engine *alphastore.Engine
	logger *slog.Logger
}

func (s *server) registerTools(mcpServer *mcp_server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("query_chain",
			mcp.WithDescription("Reconstructs a completeness-scored option chain snapshot as of an instant."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("symbol", mcp.Required(), mcp.Description("Underlying symbol, e.g. SPX")),
			mcp.WithString("at", mcp.Required(), mcp.Description("ISO 8601 instant to reconstruct the chain at")),
			mcp.WithString("dte_min", mcp.Description("Minimum days-to-expiry (default 0)")),
			mcp.WithString("dte_max", mcp.Description("Maximum days-to-expiry (default 45)")),
			mcp.WithString("moneyness", mcp.Description("Half-width of |K/S - 1| (default 0.15)")),
			mcp.WithString("right", mcp.Description("Restrict to 'C' or 'P' (default both)"), mcp.Enum("C", "P")),
		),
		s.queryChainHandler,
	)

	mcpServer.AddTool(
		mcp.NewTool("query_bars",
			mcp.WithDescription("Returns interval-aggregated underlying bars over a range."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("symbol", mcp.Required(), mcp.Description("Underlying symbol")),
			mcp.WithString("from", mcp.Required(), mcp.Description("ISO 8601 range start")),
			mcp.WithString("to", mcp.Required(), mcp.Description("ISO 8601 range end")),
			mcp.WithString("interval",
				mcp.Description("Bar interval (default 1m)"),
				mcp.Enum("1m", "5m", "15m", "1h", "1d"),
			),
		),
		s.queryBarsHandler,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_expiries",
			mcp.WithDescription("Lists distinct expiries observed within a DTE range."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("symbol", mcp.Required(), mcp.Description("Underlying symbol")),
			mcp.WithString("at", mcp.Required(), mcp.Description("ISO 8601 instant")),
			mcp.WithString("dte_max", mcp.Description("Maximum days-to-expiry (default 45)")),
		),
		s.listExpiriesHandler,
	)

	mcpServer.AddTool(
		mcp.NewTool("verify_partition",
			mcp.WithDescription("Hash-checks a session partition's files against its manifest."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("symbol", mcp.Required(), mcp.Description("Underlying symbol")),
			mcp.WithString("session", mcp.Required(), mcp.Description("Session date, YYYY-MM-DD")),
		),
		s.verifyPartitionHandler,
	)
}
