// Copyright (c) 2025 Neomantra Corp

package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/quantlayer/alphastore"
)

//////////////////////////////////////////////////////////////////////////////

func niceTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func niceBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func niceInt[I int | uint | int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64](i I) string {
	return fmt.Sprintf("%d", i)
}

// niceMoney renders a Money as a fixed-point decimal string.
func niceMoney(m alphastore.Money) string {
	return fmt.Sprintf("%.2f", m.Float64())
}

// niceScore renders a completeness score as a percentage.
func niceScore(score float64) string {
	return fmt.Sprintf("%.0f%%", score*100)
}

// niceAge renders how long ago t was, for "last verified" style columns.
func niceAge(t time.Time) string {
	return humanize.Time(t)
}

// scoreBar renders score in [0,1] as a fixed-width ASCII bar.
func scoreBar(score float64, width int) string {
	filled := clampInt(int(score*float64(width)+0.5), 0, width)
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}

func maxInt[I int | uint | int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64](a, b I) I {
	if a > b {
		return a
	}
	return b
}

func minInt[I int | uint | int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64](a, b I) I {
	if a < b {
		return a
	}
	return b
}

func clampInt[I int | uint | int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64](v, low, high I) I {
	return minInt(maxInt(v, low), high)
}

//////////////////////////////////////////////////////////////////////////////

// teaCmdize is a utility function to convert a given value into a `tea.Cmd`
func teaCmdize[T any](t T) tea.Cmd {
	return func() tea.Msg {
		return t
	}
}
