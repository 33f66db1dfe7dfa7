package pollwatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	httptransport "pollchain/contexts/governance/poll-ledger/transport/http"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const fetchTimeout = 5 * time.Second

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

type tickMsg struct{}

type tallyMsg struct {
	tally httptransport.TallyResponse
	err   error
	at    time.Time
}

// Model is the bubbletea state of the tally viewer.
type Model struct {
	source   Source
	pollID   uint64
	interval time.Duration

	tally   httptransport.TallyResponse
	loaded  bool
	err     error
	updated time.Time
	width   int
}

func NewModel(source Source, pollID uint64, interval time.Duration) Model {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return Model{source: source, pollID: pollID, interval: interval, width: 80}
}

func (m Model) Init() tea.Cmd {
	return m.fetch()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		return m, m.fetch()

	case tallyMsg:
		m.updated = msg.at
		m.err = msg.err
		if msg.err == nil {
			m.tally = msg.tally
			m.loaded = true
		}
		return m, tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{} })

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.fetch()
		}
	}
	return m, nil
}

func (m Model) fetch() tea.Cmd {
	source, pollID := m.source, m.pollID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		tally, err := source.Tally(ctx, pollID)
		return tallyMsg{tally: tally, err: err, at: time.Now()}
	}
}

func (m Model) View() string {
	lines := []string{titleStyle.Render(fmt.Sprintf("poll %d", m.pollID))}
	if m.loaded {
		lines = append(lines,
			m.tally.Description,
			fmt.Sprintf("candidates=%d total votes=%d", m.tally.CandidateCount, m.tally.TotalVotes),
			"",
		)
		lines = append(lines, m.renderCandidates()...)
	} else if m.err == nil {
		lines = append(lines, "Loading...")
	}
	if m.err != nil {
		lines = append(lines, "", errStyle.Render("error: "+m.err.Error()))
	}
	footer := "q quit, r refresh"
	if !m.updated.IsZero() {
		footer = fmt.Sprintf("updated %s | %s", m.updated.Format(time.TimeOnly), footer)
	}
	lines = append(lines, "", dimStyle.Render(footer))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderCandidates() []string {
	if len(m.tally.Candidates) == 0 {
		return []string{dimStyle.Render("no candidates")}
	}
	nameWidth := 0
	for _, candidate := range m.tally.Candidates {
		nameWidth = max(nameWidth, runewidth.StringWidth(candidate.Name))
	}
	countWidth := len(fmt.Sprint(m.tally.TotalVotes))
	barWidth := max(m.width-nameWidth-countWidth-4, 1)

	rows := make([]string, 0, len(m.tally.Candidates))
	for _, candidate := range m.tally.Candidates {
		bar := barStyle.Render(strings.Repeat("█", barLength(candidate.VoteCount, m.tally.TotalVotes, barWidth)))
		rows = append(rows, fmt.Sprintf("%s  %*d %s",
			padToWidth(candidate.Name, nameWidth), countWidth, candidate.VoteCount, bar))
	}
	return rows
}

func barLength(count uint64, total uint64, width int) int {
	if total == 0 || width <= 0 {
		return 0
	}
	return int(count * uint64(width) / total)
}

func padToWidth(s string, width int) string {
	current := runewidth.StringWidth(s)
	if current >= width {
		return s
	}
	return s + strings.Repeat(" ", width-current)
}

// Run blocks until the user quits.
func Run(source Source, pollID uint64, interval time.Duration) error {
	_, err := tea.NewProgram(NewModel(source, pollID, interval), tea.WithAltScreen()).Run()
	return err
}
