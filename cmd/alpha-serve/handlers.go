// Copyright (c) 2025 Neomantra Corp

package main

import (
	"context"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/relvacode/iso8601"
	"github.com/segmentio/encoding/json"

	"github.com/quantlayer/alphastore"
)

// optInt reads an optional string-encoded integer argument, falling
// back to def when absent or unparsable.
func optInt(request mcp.CallToolRequest, name string, def int) int {
	s, err := request.RequireString(name)
	if err != nil || s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// optFloat reads an optional string-encoded float argument, falling
// back to def when absent or unparsable.
func optFloat(request mcp.CallToolRequest, name string, def float64) float64 {
	s, err := request.RequireString(name)
	if err != nil || s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func optString(request mcp.CallToolRequest, name string, def string) string {
	s, err := request.RequireString(name)
	if err != nil || s == "" {
		return def
	}
	return s
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	jbytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultErrorf("failed to marshal result: %s", err), nil
	}
	return mcp.NewToolResultText(string(jbytes)), nil
}

func (s *server) queryChainHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbolArg, err := request.RequireString("symbol")
	if err != nil {
		return mcp.NewToolResultError("symbol must be set"), nil
	}
	atArg, err := request.RequireString("at")
	if err != nil {
		return mcp.NewToolResultError("at must be set"), nil
	}
	at, err := iso8601.ParseString(atArg)
	if err != nil {
		return mcp.NewToolResultErrorf("at was invalid ISO 8601: %s", err), nil
	}
	symbol, err := alphastore.NormalizeSymbol(symbolArg)
	if err != nil {
		return mcp.NewToolResultErrorf("symbol: %s", err), nil
	}

	q := alphastore.DefaultChainQuery(symbol, alphastore.NewInstantUtc(at))
	q.DTEMin = optInt(request, "dte_min", q.DTEMin)
	q.DTEMax = optInt(request, "dte_max", q.DTEMax)
	q.MoneynessHalf = optFloat(request, "moneyness", q.MoneynessHalf)
	if rightArg := optString(request, "right", ""); rightArg != "" {
		r, err := alphastore.RightFromString(rightArg)
		if err != nil {
			return mcp.NewToolResultErrorf("right: %s", err), nil
		}
		q.Right = &r
	}

	view, err := s.engine.ChainSnapshot(ctx, q)
	if err != nil {
		return mcp.NewToolResultErrorf("query_chain: %s", err), nil
	}
	report := s.engine.Score(view)

	s.logger.Info("query_chain", "symbol", symbol, "rows", len(view.Rows), "score", report.OverallScore)
	return marshalResult(map[string]any{"view": view, "completeness": report})
}

func (s *server) queryBarsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbolArg, err := request.RequireString("symbol")
	if err != nil {
		return mcp.NewToolResultError("symbol must be set"), nil
	}
	fromArg, err := request.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError("from must be set"), nil
	}
	toArg, err := request.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError("to must be set"), nil
	}
	from, err := iso8601.ParseString(fromArg)
	if err != nil {
		return mcp.NewToolResultErrorf("from was invalid ISO 8601: %s", err), nil
	}
	to, err := iso8601.ParseString(toArg)
	if err != nil {
		return mcp.NewToolResultErrorf("to was invalid ISO 8601: %s", err), nil
	}
	symbol, err := alphastore.NormalizeSymbol(symbolArg)
	if err != nil {
		return mcp.NewToolResultErrorf("symbol: %s", err), nil
	}

	interval := alphastore.Interval(optString(request, "interval", string(alphastore.Interval1m)))
	if !interval.Valid() {
		return mcp.NewToolResultErrorf("unrecognised interval %q", string(interval)), nil
	}

	bars, err := s.engine.Bars(ctx, alphastore.BarQuery{
		Symbol: symbol, From: alphastore.NewInstantUtc(from), To: alphastore.NewInstantUtc(to), Interval: interval,
	})
	if err != nil {
		return mcp.NewToolResultErrorf("query_bars: %s", err), nil
	}

	s.logger.Info("query_bars", "symbol", symbol, "count", len(bars))
	return marshalResult(bars)
}

func (s *server) listExpiriesHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbolArg, err := request.RequireString("symbol")
	if err != nil {
		return mcp.NewToolResultError("symbol must be set"), nil
	}
	atArg, err := request.RequireString("at")
	if err != nil {
		return mcp.NewToolResultError("at must be set"), nil
	}
	at, err := iso8601.ParseString(atArg)
	if err != nil {
		return mcp.NewToolResultErrorf("at was invalid ISO 8601: %s", err), nil
	}
	symbol, err := alphastore.NormalizeSymbol(symbolArg)
	if err != nil {
		return mcp.NewToolResultErrorf("symbol: %s", err), nil
	}

	dteMax := optInt(request, "dte_max", alphastore.DefaultDTEMax)
	expiries, err := s.engine.Expiries(ctx, symbol, alphastore.NewInstantUtc(at), dteMax)
	if err != nil {
		return mcp.NewToolResultErrorf("list_expiries: %s", err), nil
	}

	s.logger.Info("list_expiries", "symbol", symbol, "count", len(expiries))
	return marshalResult(expiries)
}

func (s *server) verifyPartitionHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbolArg, err := request.RequireString("symbol")
	if err != nil {
		return mcp.NewToolResultError("symbol must be set"), nil
	}
	sessionArg, err := request.RequireString("session")
	if err != nil {
		return mcp.NewToolResultError("session must be set"), nil
	}
	symbol, err := alphastore.NormalizeSymbol(symbolArg)
	if err != nil {
		return mcp.NewToolResultErrorf("symbol: %s", err), nil
	}
	session, err := alphastore.ParseSessionDate(sessionArg)
	if err != nil {
		return mcp.NewToolResultErrorf("session: %s", err), nil
	}

	report, err := s.engine.VerifyPartition(symbol, session)
	if err != nil {
		return mcp.NewToolResultErrorf("verify_partition: %s", err), nil
	}

	s.logger.Info("verify_partition", "symbol", symbol, "session", session, "status", report.Status.String())
	return marshalResult(report)
}
