// Copyright (c) 2025 Neomantra Corp

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quantlayer/alphastore"
)

// Config configures the alpha-tui dashboard.
type Config struct {
	StorageRoot string
}

// Run opens an Engine at config.StorageRoot and runs the dashboard
// until the user quits.
func Run(config Config) error {
	eng, err := alphastore.Open(alphastore.Config{StorageRoot: config.StorageRoot})
	if err != nil {
		return err
	}
	defer eng.Close()

	model := NewAppModel(eng)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

//////////////////////////////////////////////////////////////////////////////

type AppModel struct {
	engine *alphastore.Engine

	pages       []tea.Model
	pageNames   []string
	currentPage int

	width            int
	height           int
	help             help.Model
	keyMap           AppKeyMap
	headerStyle      lipgloss.Style
	footerStyle      lipgloss.Style
	inactiveTabStyle lipgloss.Style
	activeTabStyle   lipgloss.Style
}

func NewAppModel(eng *alphastore.Engine) AppModel {
	m := AppModel{
		engine:      eng,
		currentPage: 0,
		pageNames:   []string{"1-Partitions", "2-Query", "3-Score"},
		pages: []tea.Model{
			NewPartitionsPage(eng),
			NewQueryPage(eng),
			NewScorePage(),
		},
		width:  20,
		height: 10,
		help:   help.New(),
		keyMap: DefaultAppKeyMap(),
		headerStyle: lipgloss.NewStyle().
			Foreground(colorYellow).
			Background(colorDarkPurple),
		footerStyle: lipgloss.NewStyle().
			Foreground(colorYellow).
			Background(colorDarkPurple),
		inactiveTabStyle: lipgloss.NewStyle().
			Foreground(colorYellow).
			Background(colorDarkPurple),
		activeTabStyle: lipgloss.NewStyle().
			Foreground(colorYellow).
			Background(colorLightPurple),
	}
	return m
}

///////////////////////////////////////////////////////////////////////////////
// AppKeyMap

// AppKeyMap is all the [key.Binding] for the AppModel
type AppKeyMap struct {
	Quit       key.Binding
	FocusPart  key.Binding
	FocusQuery key.Binding
	FocusScore key.Binding
}

// DefaultAppKeyMap returns a default set of key bindings for AppModel
func DefaultAppKeyMap() AppKeyMap {
	return AppKeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
		FocusPart: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "partitions"),
		),
		FocusQuery: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "query"),
		),
		FocusScore: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "score"),
		),
	}
}

// FullHelp returns bindings to show the full help view.
// Implements bubble's [help.KeyMap] interface.
func (m *AppKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.Quit, m.FocusPart, m.FocusQuery, m.FocusScore}}
}

// ShortHelp returns bindings to show in the abbreviated help view. It's
// part of the help.KeyMap interface.
func (m AppKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{m.Quit, m.FocusPart, m.FocusQuery, m.FocusScore}
}

//////////////////////////////////////////////////////////////////////////////
// BubbleTea interface

// Init handles the initialization of the dashboard
func (m AppModel) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, page := range m.pages {
		cmds = append(cmds, page.Init())
	}
	return tea.Batch(cmds...)
}

// Update handles BubbleTea messages for the dashboard
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keyMap.FocusPart):
			m.currentPage = 0
		case key.Matches(msg, m.keyMap.FocusQuery):
			m.currentPage = 1
		case key.Matches(msg, m.keyMap.FocusScore):
			m.currentPage = 2
		}

		// only the active page gets key events
		pageModel, cmd := m.pages[m.currentPage].Update(msg)
		m.pages[m.currentPage] = pageModel
		return m, cmd

	case ChainQueriedMsg:
		// the score page reacts to the query page's result regardless of
		// which page currently has focus, and focus follows it
		scoreModel, _ := m.pages[2].Update(msg)
		m.pages[2] = scoreModel
		m.currentPage = 2
		return m, nil
	}

	// propagate message to all pages
	var cmds []tea.Cmd
	for i := 0; i < len(m.pages); i++ {
		pageModel, cmd := m.pages[i].Update(msg)
		m.pages[i] = pageModel
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View renders the dashboard's view.
func (m AppModel) View() string {
	viewStr := m.headerView() + "\n"
	if m.currentPage < 0 || m.currentPage >= len(m.pages) {
		viewStr += "Error: bad page\n"
	} else {
		viewStr += m.pages[m.currentPage].View() + "\n"
	}
	viewStr += m.footerView()
	return viewStr
}

///////////////////////////////////////////////////////////////////////////////

func (m *AppModel) headerView() string {
	header := m.headerStyle.Render(" alpha-tui   ")
	for i, name := range m.pageNames {
		if i == m.currentPage {
			header += m.activeTabStyle.Render("[ " + name + " ]")
		} else {
			header += m.inactiveTabStyle.Render("| " + name + " |")
		}
		header += m.headerStyle.Render(" ")
	}

	headerSuffix := m.headerStyle.Render("alphastore ")
	restOfLine := maxInt(0, m.width-lipgloss.Width(header)-lipgloss.Width(headerSuffix))
	header += m.headerStyle.Render(strings.Repeat(" ", restOfLine))
	header += headerSuffix
	return header
}

func (m *AppModel) footerView() string {
	return m.help.View(&m.keyMap)
}
