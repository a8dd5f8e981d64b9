// Copyright (c) 2025 Neomantra Corp

package tui

import (
	"fmt"
	"sort"

	"github.com/76creates/stickers/flexbox"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quantlayer/alphastore"
)

// Score page: renders the completeness breakdown of the most recent
// query-page submission as a flexbox of per-bucket score panels.
type ScorePageModel struct {
	view      alphastore.ChainView
	report    alphastore.CompletenessReport
	lastError error
	hasResult bool

	width  int
	height int
}

func NewScorePage() ScorePageModel {
	return ScorePageModel{width: 20, height: 10}
}

//////////////////////////////////////////////////////////////////////////////
// BubbleTea interface

func (m ScorePageModel) Init() tea.Cmd {
	return nil
}

func (m ScorePageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ChainQueriedMsg:
		m.lastError = msg.Error
		m.view = msg.View
		m.report = msg.Score
		m.hasResult = msg.Error == nil
	}
	return m, nil
}

func (m ScorePageModel) View() string {
	if m.lastError != nil {
		return fmt.Sprintf("Error: %s", m.lastError.Error())
	}
	if !m.hasResult {
		return "Submit a query on the Query page to see its completeness breakdown."
	}

	fb := flexbox.New(maxInt(10, m.width-2), maxInt(5, m.height-4))

	summaryCell := flexbox.NewCell(1, 1).SetStyle(
		lipgloss.NewStyle().Foreground(scoreColor(m.report.OverallScore)).Bold(true),
	).SetContent(fmt.Sprintf("%s  %s  overall %s (%d rows)",
		m.report.Symbol, m.report.At, niceScore(m.report.OverallScore), len(m.view.Rows)))
	fb.AddRows([]*flexbox.Row{fb.NewRow().AddCells(summaryCell)})

	dtes := make([]int, 0, len(m.report.BucketScores))
	for dte := range m.report.BucketScores {
		dtes = append(dtes, dte)
	}
	sort.Ints(dtes)

	var bucketCells []*flexbox.Cell
	for _, dte := range dtes {
		score := m.report.BucketScores[dte]
		cell := flexbox.NewCell(1, 2).SetStyle(
			lipgloss.NewStyle().Foreground(scoreColor(score)),
		).SetContent(fmt.Sprintf("DTE %-4d %s %s", dte, scoreBar(score, 20), niceScore(score)))
		bucketCells = append(bucketCells, cell)
	}
	if len(bucketCells) > 0 {
		fb.AddRows([]*flexbox.Row{fb.NewRow().AddCells(bucketCells...)})
	}

	if len(m.report.Hints) > 0 {
		hintLines := ""
		for _, hint := range m.report.Hints {
			hintLines += "- " + hint + "\n"
		}
		hintCell := flexbox.NewCell(1, 2).SetStyle(lipgloss.NewStyle().Foreground(colorAmber)).SetContent(hintLines)
		fb.AddRows([]*flexbox.Row{fb.NewRow().AddCells(hintCell)})
	}

	return borderStyle.Render(fb.Render())
}
