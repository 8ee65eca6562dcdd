package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/trackdown/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	HistoryListView ViewState = iota
	DetailView
)

// HistorySource provides the rows the browser displays.
type HistorySource interface {
	List(limit int) ([]*models.Resolution, error)
}

// historyFetchedMsg delivers the loaded rows to the update loop.
type historyFetchedMsg struct {
	resolutions []*models.Resolution
	err         error
}

// Model represents the TUI application state.
type Model struct {
	view        ViewState
	source      HistorySource
	limit       int
	width       int
	height      int
	historyList list.Model
	resolutions []*models.Resolution
	selected    *models.Resolution
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a history browser over the given source. A non-positive
// limit shows the full log.
func NewModel(source HistorySource, limit int) *Model {
	return &Model{
		view:   HistoryListView,
		source: source,
		limit:  limit,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init loads the history asynchronously.
func (m *Model) Init() tea.Cmd {
	return m.fetchHistory()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.historyList.Width() == 0 {
			m.historyList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case HistoryListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case historyFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.resolutions = msg.resolutions
		items := make([]list.Item, len(msg.resolutions))
		for i, res := range msg.resolutions {
			items[i] = resolutionItem{resolution: res}
		}
		m.historyList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.historyList.Title = "Resolution History"
		m.historyList.SetSize(m.width-4, m.height-8)
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case HistoryListView:
		return m.renderList()
	case DetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if selected := m.historyList.SelectedItem(); selected != nil {
			if item, ok := selected.(resolutionItem); ok {
				m.selected = item.resolution
				m.view = DetailView
			}
		}
		return m, nil
	}

	return m.updateList(msg)
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = HistoryListView
		m.selected = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == HistoryListView {
		m.historyList, cmd = m.historyList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchHistory() tea.Cmd {
	return func() tea.Msg {
		resolutions, err := m.source.List(m.limit)
		return historyFetchedMsg{resolutions: resolutions, err: err}
	}
}

func (m *Model) renderList() string {
	if len(m.resolutions) == 0 {
		title := styles.title.Render("Resolution History")
		empty := styles.help.Render("No resolutions recorded yet. Run `trackdown resolve` first.")
		return fmt.Sprintf("%s\n%s\n\n%s", title, empty, m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.historyList.View(), helpView)
}

func (m *Model) renderDetail() string {
	res := m.selected
	if res == nil {
		return ""
	}

	title := styles.title.Render("Resolution Detail")

	var status string
	if res.Matched {
		status = styles.ok.Render(fmt.Sprintf("Matched: %s - %s", res.Artist, res.Song))
	} else {
		status = styles.warn.Render("No confident match")
	}

	info := fmt.Sprintf("\nInput: %s\n", res.RawTitle)
	if res.Matched {
		info += fmt.Sprintf("Provider: %s\nURI: %s\nConfidence: %.2f\n", res.Provider, res.URI, res.Confidence)
		if res.Enriched {
			info += "Identified via enrichment\n"
		}
		if res.Added {
			info += "Added to library\n"
		}
	}
	info += fmt.Sprintf("Resolved: %s\n", res.CreatedAt.Format("2006-01-02 15:04:05"))

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s\n%s", title, status, info, helpView)
}
