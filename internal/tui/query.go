// Copyright (c) 2025 Neomantra Corp

package tui

import (
	"context"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/relvacode/iso8601"

	"github.com/quantlayer/alphastore"
)

// Query page: a form for picking a symbol/instant/DTE range/moneyness
// and reconstructing the chain snapshot at that point.
type QueryPageModel struct {
	engine *alphastore.Engine

	symbolInput    string
	atInput        string
	dteMinInput    string
	dteMaxInput    string
	moneynessInput string
	rightInput     string

	form      *huh.Form
	lastError error
	width     int
	height    int
}

func NewQueryPage(eng *alphastore.Engine) QueryPageModel {
	m := QueryPageModel{
		engine:         eng,
		dteMinInput:    strconv.Itoa(alphastore.DefaultDTEMin),
		dteMaxInput:    strconv.Itoa(alphastore.DefaultDTEMax),
		moneynessInput: strconv.FormatFloat(alphastore.DefaultMoneynessHalf, 'f', -1, 64),
	}
	m.form = m.newForm()
	return m
}

func (m *QueryPageModel) newForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Symbol").Value(&m.symbolInput),
			huh.NewInput().Title("At (ISO 8601)").Value(&m.atInput),
			huh.NewInput().Title("DTE min").Value(&m.dteMinInput),
			huh.NewInput().Title("DTE max").Value(&m.dteMaxInput),
			huh.NewInput().Title("Moneyness half-width").Value(&m.moneynessInput),
			huh.NewSelect[string]().
				Title("Right").
				Options(
					huh.NewOption("Both", ""),
					huh.NewOption("Call", "C"),
					huh.NewOption("Put", "P"),
				).
				Value(&m.rightInput),
		),
	)
}

//////////////////////////////////////////////////////////////////////////////
// BubbleTea interface

func (m QueryPageModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m QueryPageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.WindowSizeMsg); ok {
		sizeMsg := msg.(tea.WindowSizeMsg)
		m.width, m.height = sizeMsg.Width, sizeMsg.Height
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		runCmd := m.runQuery()
		m.form = m.newForm()
		return m, tea.Batch(cmd, runCmd)
	}
	return m, cmd
}

func (m QueryPageModel) View() string {
	return m.form.View()
}

//////////////////////////////////////////////////////////////////////////////

// ChainQueriedMsg carries the result of submitting the query form,
// consumed by the score page.
type ChainQueriedMsg struct {
	View  alphastore.ChainView
	Score alphastore.CompletenessReport
	Error error
}

func (m *QueryPageModel) runQuery() tea.Cmd {
	eng := m.engine
	symbolInput := m.symbolInput
	atInput := m.atInput
	dteMinInput, dteMaxInput, moneynessInput, rightInput := m.dteMinInput, m.dteMaxInput, m.moneynessInput, m.rightInput

	return func() tea.Msg {
		symbol, err := alphastore.NormalizeSymbol(symbolInput)
		if err != nil {
			return ChainQueriedMsg{Error: err}
		}
		at, err := iso8601.ParseString(atInput)
		if err != nil {
			return ChainQueriedMsg{Error: err}
		}

		q := alphastore.DefaultChainQuery(symbol, alphastore.NewInstantUtc(at))
		if n, err := strconv.Atoi(dteMinInput); err == nil {
			q.DTEMin = n
		}
		if n, err := strconv.Atoi(dteMaxInput); err == nil {
			q.DTEMax = n
		}
		if f, err := strconv.ParseFloat(moneynessInput, 64); err == nil {
			q.MoneynessHalf = f
		}
		if rightInput != "" {
			if r, err := alphastore.RightFromString(rightInput); err == nil {
				q.Right = &r
			}
		}

		view, err := eng.ChainSnapshot(context.Background(), q)
		if err != nil {
			return ChainQueriedMsg{Error: err}
		}
		return ChainQueriedMsg{View: view, Score: eng.Score(view)}
	}
}
