// Copyright (c) 2025 Neomantra Corp
//
// alpha-cli is the CLI external collaborator of spec §6.4: it maps
// query/write results onto process exit codes, leaving the core engine
// itself opinion-free about exit status.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/relvacode/iso8601"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"

	"github.com/quantlayer/alphastore"
)

const (
	exitOK             = 0
	exitConfigError    = 1
	exitStorageError   = 2
	exitInvalidRequest = 3
)

var (
	storageRoot string
	symbolArg   string
	atArg       string
	fromArg     string
	toArg       string
	dteMin      int
	dteMax      int
	moneyness   float64
	rightArg    string
	intervalArg string
	emitJSON    bool
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&storageRoot, "root", "r", "", "Storage root directory (required)")
	rootCmd.MarkPersistentFlagRequired("root")
	rootCmd.PersistentFlags().BoolVarP(&emitJSON, "json", "j", false, "Emit JSON instead of a simple summary")

	queryChainCmd.Flags().StringVarP(&symbolArg, "symbol", "s", "", "Underlying symbol (required)")
	queryChainCmd.Flags().StringVarP(&atArg, "at", "t", "", "ISO 8601 instant (required)")
	queryChainCmd.Flags().IntVar(&dteMin, "dte-min", alphastore.DefaultDTEMin, "Minimum days-to-expiry")
	queryChainCmd.Flags().IntVar(&dteMax, "dte-max", alphastore.DefaultDTEMax, "Maximum days-to-expiry")
	queryChainCmd.Flags().Float64Var(&moneyness, "moneyness", alphastore.DefaultMoneynessHalf, "Half-width of |K/S - 1|")
	queryChainCmd.Flags().StringVar(&rightArg, "right", "", "Restrict to 'C' or 'P' (default both)")
	queryChainCmd.MarkFlagRequired("symbol")
	queryChainCmd.MarkFlagRequired("at")
	rootCmd.AddCommand(queryChainCmd)

	queryBarsCmd.Flags().StringVarP(&symbolArg, "symbol", "s", "", "Underlying symbol (required)")
	queryBarsCmd.Flags().StringVar(&fromArg, "from", "", "ISO 8601 range start (required)")
	queryBarsCmd.Flags().StringVar(&toArg, "to", "", "ISO 8601 range end (required)")
	queryBarsCmd.Flags().StringVar(&intervalArg, "interval", string(alphastore.Interval1m), "Bar interval: 1m, 5m, 15m, 1h, 1d")
	queryBarsCmd.MarkFlagRequired("symbol")
	queryBarsCmd.MarkFlagRequired("from")
	queryBarsCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(queryBarsCmd)

	listExpiriesCmd.Flags().StringVarP(&symbolArg, "symbol", "s", "", "Underlying symbol (required)")
	listExpiriesCmd.Flags().StringVarP(&atArg, "at", "t", "", "ISO 8601 instant (required)")
	listExpiriesCmd.Flags().IntVar(&dteMax, "dte-max", alphastore.DefaultDTEMax, "Maximum days-to-expiry")
	listExpiriesCmd.MarkFlagRequired("symbol")
	listExpiriesCmd.MarkFlagRequired("at")
	rootCmd.AddCommand(listExpiriesCmd)

	verifyCmd.Flags().StringVarP(&symbolArg, "symbol", "s", "", "Underlying symbol (required)")
	verifyCmd.Flags().StringVar(&atArg, "session", "", "Session date YYYY-MM-DD (required)")
	verifyCmd.MarkFlagRequired("symbol")
	verifyCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(verifyCmd)

	validateCmd.Flags().StringVarP(&symbolArg, "symbol", "s", "", "Underlying symbol (required)")
	validateCmd.Flags().StringVar(&atArg, "session", "", "Session date YYYY-MM-DD (required)")
	validateCmd.MarkFlagRequired("symbol")
	validateCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(validateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(exitConfigError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "alpha-cli",
	Short: "alpha-cli queries and inspects an alphastore partition tree.",
}

func openEngine() (*alphastore.Engine, func()) {
	eng, err := alphastore.Open(alphastore.Config{StorageRoot: storageRoot})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening storage root %q: %s\n", storageRoot, err.Error())
		os.Exit(exitConfigError)
	}
	return eng, eng.Close
}

// exitForErr maps a core error's Kind onto the exit codes of spec §6.4:
// configuration/request-shape problems are distinguished from storage
// failures, both non-zero.
func exitForErr(err error) {
	switch alphastore.KindOf(err) {
	case alphastore.KindInvalidArgument:
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(exitInvalidRequest)
	default:
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(exitStorageError)
	}
}

func parseInstant(s string) alphastore.InstantUtc {
	t, err := iso8601.ParseString(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse %q as ISO 8601 time: %s\n", s, err.Error())
		os.Exit(exitInvalidRequest)
	}
	return alphastore.NewInstantUtc(t)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal error: %s\n", err.Error())
		os.Exit(exitStorageError)
	}
	fmt.Fprintf(os.Stdout, "%s\n", data)
}

var queryChainCmd = &cobra.Command{
	Use:   "query-chain",
	Short: "Reconstructs and scores a chain snapshot as of an instant",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		eng, closeFn := openEngine()
		defer closeFn()

		symbol, err := alphastore.NormalizeSymbol(symbolArg)
		if err != nil {
			exitForErr(err)
		}
		q := alphastore.DefaultChainQuery(symbol, parseInstant(atArg))
		q.DTEMin, q.DTEMax, q.MoneynessHalf = dteMin, dteMax, moneyness
		if rightArg != "" {
			r, err := alphastore.RightFromString(rightArg)
			if err != nil {
				exitForErr(err)
			}
			q.Right = &r
		}

		view, err := eng.ChainSnapshot(context.Background(), q)
		if err != nil {
			exitForErr(err)
		}
		report := eng.Score(view)

		if emitJSON {
			printJSON(map[string]any{"view": view, "completeness": report})
		} else {
			fmt.Fprintf(os.Stdout, "%d rows, completeness %.2f\n", len(view.Rows), report.OverallScore)
			for _, hint := range view.Hints {
				fmt.Fprintf(os.Stdout, "hint: %s\n", hint)
			}
			for _, row := range view.Rows {
				fmt.Fprintf(os.Stdout, "%s %s %s bid=%s ask=%s\n", row.Expiry, row.Strike, row.Right, row.Bid, row.Ask)
			}
		}
		os.Exit(exitOK)
	},
}

var queryBarsCmd = &cobra.Command{
	Use:   "query-bars",
	Short: "Returns interval-aggregated bars over a range",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		eng, closeFn := openEngine()
		defer closeFn()

		symbol, err := alphastore.NormalizeSymbol(symbolArg)
		if err != nil {
			exitForErr(err)
		}
		interval := alphastore.Interval(intervalArg)
		if !interval.Valid() {
			exitForErr(alphastore.NewStoreError(alphastore.KindInvalidArgument, "unrecognised interval "+intervalArg))
		}

		bars, err := eng.Bars(context.Background(), alphastore.BarQuery{
			Symbol: symbol, From: parseInstant(fromArg), To: parseInstant(toArg), Interval: interval,
		})
		if err != nil {
			exitForErr(err)
		}

		if emitJSON {
			printJSON(bars)
		} else {
			for _, b := range bars {
				fmt.Fprintf(os.Stdout, "%s O=%s H=%s L=%s C=%s V=%d\n", b.TsUtc, b.Open, b.High, b.Low, b.Close, b.Volume)
			}
		}
		os.Exit(exitOK)
	},
}

var listExpiriesCmd = &cobra.Command{
	Use:   "list-expiries",
	Short: "Lists distinct expiries observed within a DTE range",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		eng, closeFn := openEngine()
		defer closeFn()

		symbol, err := alphastore.NormalizeSymbol(symbolArg)
		if err != nil {
			exitForErr(err)
		}
		expiries, err := eng.Expiries(context.Background(), symbol, parseInstant(atArg), dteMax)
		if err != nil {
			exitForErr(err)
		}

		if emitJSON {
			printJSON(expiries)
		} else {
			for _, e := range expiries {
				fmt.Fprintf(os.Stdout, "%s\n", e)
			}
		}
		os.Exit(exitOK)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Hash-checks a session partition against its manifest",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		eng, closeFn := openEngine()
		defer closeFn()

		symbol, err := alphastore.NormalizeSymbol(symbolArg)
		if err != nil {
			exitForErr(err)
		}
		session, err := alphastore.ParseSessionDate(atArg)
		if err != nil {
			exitForErr(err)
		}

		report, err := eng.VerifyPartition(symbol, session)
		if err != nil {
			exitForErr(err)
		}

		if emitJSON {
			printJSON(report)
		} else {
			fmt.Fprintf(os.Stdout, "%s %s: %s\n", symbol, session, report.Status)
		}
		if report.Status != alphastore.VerifyValid {
			os.Exit(exitStorageError)
		}
		os.Exit(exitOK)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate-session",
	Short: "Reports a session's overall data-integrity status",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		eng, closeFn := openEngine()
		defer closeFn()

		symbol, err := alphastore.NormalizeSymbol(symbolArg)
		if err != nil {
			exitForErr(err)
		}
		session, err := alphastore.ParseSessionDate(atArg)
		if err != nil {
			exitForErr(err)
		}

		report, err := eng.ValidateSession(context.Background(), symbol, session)
		if err != nil {
			exitForErr(err)
		}

		if emitJSON {
			printJSON(report)
		} else {
			fmt.Fprintf(os.Stdout, "%s %s: %s (%d/%d bars, %.1f%%)\n",
				symbol, session, report.Status, report.ActualBars, report.ExpectedBars, report.BarRatio*100)
		}
		if report.Status == alphastore.SessionCorrupted {
			os.Exit(exitStorageError)
		}
		os.Exit(exitOK)
	},
}
