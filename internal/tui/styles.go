// Copyright (c) 2025 Neomantra Corp

package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorDarkPurple  = lipgloss.Color("#3F3080")
	colorLightPurple = lipgloss.Color("#655BA7")
	colorRed         = lipgloss.Color("#E24F36")
	colorGreen       = lipgloss.Color("#4CAF50")
	colorAmber       = lipgloss.Color("#FFB300")
	colorYellow      = lipgloss.Color("#FBF4A5")

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true).
			BorderForeground(colorLightPurple)

	alphaTableStyles = table.Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(colorRed).Padding(0, 1),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(colorAmber),
		Cell:     lipgloss.NewStyle().Padding(0, 1),
	}
)

// statusColor picks a status color: green when ok, amber when degraded
// but usable, red otherwise.
func statusColor(ok bool, degraded bool) lipgloss.Color {
	switch {
	case ok:
		return colorGreen
	case degraded:
		return colorAmber
	default:
		return colorRed
	}
}

// scoreColor grades a completeness score for the score breakdown panel.
func scoreColor(score float64) lipgloss.Color {
	switch {
	case score >= 0.9:
		return colorGreen
	case score >= 0.6:
		return colorAmber
	default:
		return colorRed
	}
}
