// Copyright (c) 2025 Neomantra Corp

package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quantlayer/alphastore"
)

// Partitions page: lists every symbol/session partition on disk and
// its verify status; individual manifest entries are not shown.
type PartitionsPageModel struct {
	engine *alphastore.Engine

	symbols      []alphastore.Symbol
	selectedSym  int
	sessions     []partitionRow
	selectedSess int
	lastError    error

	width        int
	height       int
	symbolTable  table.Model
	sessionTable table.Model
}

type partitionRow struct {
	symbol  alphastore.Symbol
	session alphastore.SessionDate
	status  alphastore.VerifyStatus
}

func NewPartitionsPage(eng *alphastore.Engine) PartitionsPageModel {
	symbolTable := table.New(table.WithColumns([]table.Column{
		{Title: "Symbol", Width: 12},
	}), table.WithStyles(alphaTableStyles),
		table.WithFocused(true))

	sessionTable := table.New(table.WithColumns([]table.Column{
		{Title: "Session", Width: 12},
		{Title: "Status", Width: 18},
	}), table.WithStyles(alphaTableStyles),
		table.WithFocused(false))

	m := PartitionsPageModel{
		engine:       eng,
		selectedSym:  -1,
		selectedSess: -1,
		symbolTable:  symbolTable,
		sessionTable: sessionTable,
		width:        20,
		height:       10,
	}
	m.updateSizes()
	return m
}

//////////////////////////////////////////////////////////////////////////////
// BubbleTea interface

func (m PartitionsPageModel) Init() tea.Cmd {
	return m.loadSymbols()
}

func (m PartitionsPageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateSizes()

	case symbolsLoadedMsg:
		m.lastError = msg.Error
		m.symbols = msg.Symbols

		var rows []table.Row
		for _, s := range m.symbols {
			rows = append(rows, table.Row{string(s)})
		}
		m.symbolTable.SetRows(rows)
		m.sessions = nil
		m.sessionTable.SetRows(nil)
		return m, m.onSymbolSelection()

	case sessionsLoadedMsg:
		m.lastError = msg.Error
		m.sessions = msg.Sessions

		var rows []table.Row
		for _, s := range m.sessions {
			rows = append(rows, table.Row{s.session.String(), s.status.String()})
		}
		m.sessionTable.SetRows(rows)

	default:
		var cmd1, cmd2 tea.Cmd
		m.symbolTable, cmd1 = m.symbolTable.Update(msg)
		m.sessionTable, cmd2 = m.sessionTable.Update(msg)
		cmd3 := m.onSymbolSelection()
		return m, tea.Batch(cmd1, cmd2, cmd3)
	}
	return m, nil
}

func (m *PartitionsPageModel) onSymbolSelection() tea.Cmd {
	cursor := m.symbolTable.Cursor()
	if cursor < 0 || cursor >= len(m.symbols) || cursor == m.selectedSym {
		return nil
	}
	m.selectedSym = cursor
	return m.loadSessions(m.symbols[m.selectedSym])
}

// View renders the PartitionsPageModel's view.
func (m PartitionsPageModel) View() string {
	if m.lastError != nil {
		return fmt.Sprintf("Error: %s", m.lastError.Error())
	}

	symbolPane := borderStyle.Render(m.symbolTable.View())
	sessionPane := borderStyle.Render(m.sessionTable.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, symbolPane, sessionPane)
}

//////////////////////////////////////////////////////////////////////////////

func (m *PartitionsPageModel) updateSizes() {
	availHeight := m.height - 2 - 2
	m.symbolTable.SetHeight(availHeight)
	m.sessionTable.SetHeight(availHeight)

	availWidth := m.width - 2
	symbolWidth := maxInt(0, minInt(availWidth, 20))
	m.symbolTable.SetWidth(symbolWidth)
	m.sessionTable.SetWidth(maxInt(0, availWidth-symbolWidth-3))
}

//////////////////////////////////////////////////////////////////////////////

type symbolsLoadedMsg struct {
	Symbols []alphastore.Symbol
	Error   error
}

type sessionsLoadedMsg struct {
	Sessions []partitionRow
	Error    error
}

func (m *PartitionsPageModel) loadSymbols() tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		symbols, err := eng.ListSymbols()
		return symbolsLoadedMsg{Symbols: symbols, Error: err}
	}
}

func (m *PartitionsPageModel) loadSessions(symbol alphastore.Symbol) tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		sessions, err := eng.ListSessions(symbol)
		if err != nil {
			return sessionsLoadedMsg{Error: err}
		}
		rows := make([]partitionRow, 0, len(sessions))
		for _, session := range sessions {
			report, err := eng.VerifyPartition(symbol, session)
			status := alphastore.VerifyMetadataMissing
			if err == nil {
				status = report.Status
			}
			rows = append(rows, partitionRow{symbol: symbol, session: session, status: status})
		}
		return sessionsLoadedMsg{Sessions: rows}
	}
}
