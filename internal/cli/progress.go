package cli

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/sitebotics/sitebot/internal/models"
)

const pollInterval = time.Second

// SourceWatcher reads crawl job state. *db.Client satisfies it.
type SourceWatcher interface {
	QueryGetSource(ctx context.Context, id string) (*models.Source, error)
}

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Hint       lipgloss.Color
	ProgressBg lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:     lipgloss.Color("#5FAFD7"), // light blue
	Success:    lipgloss.Color("#00D787"), // green
	Error:      lipgloss.Color("#FF005F"), // red
	Hint:       lipgloss.Color("#6C6C6C"), // dim gray
	ProgressBg: lipgloss.Color("#3A3A3A"), // dark gray
}

// Style functions for dynamic theming
func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the crawl status
type tickMsg time.Time

// sourceUpdateMsg carries the updated source data
type sourceUpdateMsg struct {
	source *models.Source
	err    error
}

// progressModel is the bubbletea model for crawl progress.
type progressModel struct {
	watcher  SourceWatcher
	sourceID string
	source   *models.Source
	progress progress.Model
	theme    Theme
	done     bool
	quitting bool
	err      error
}

// newProgressModel creates a new progress model.
func newProgressModel(watcher SourceWatcher, sourceID string) progressModel {
	// Create progress bar with color blend
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return progressModel{
		watcher:  watcher,
		sourceID: sourceID,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command (start polling).
func (m progressModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		// Fetch crawl status
		return m, m.fetchSource()

	case sourceUpdateMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("failed to fetch crawl status: %w", msg.err)
			m.done = true
			return m, tea.Quit
		}
		if msg.source == nil {
			m.err = fmt.Errorf("source %s not found", m.sourceID)
			m.done = true
			return m, tea.Quit
		}

		m.source = msg.source

		// Check for terminal states
		switch m.source.Status {
		case models.SourceStatusComplete:
			m.done = true
			return m, tea.Quit
		case models.SourceStatusError:
			m.done = true
			if m.source.LastError != nil {
				m.err = fmt.Errorf("%s", *m.source.LastError)
			} else {
				m.err = fmt.Errorf("crawl failed with unknown error")
			}
			return m, tea.Quit
		}

		// Continue polling while queued or crawling
		return m, tickCmd()

	case progress.FrameMsg:
		// Update progress bar animation
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m progressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	if m.source == nil {
		return "Loading crawl status...\n"
	}

	// Calculate progress percentage
	var pct float64
	if m.source.PagesTotal > 0 {
		pct = float64(m.source.PagesCrawled) / float64(m.source.PagesTotal)
	}

	// Status line with color
	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.source.Status))

	// Progress bar with counts
	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d pages", m.source.PagesCrawled, m.source.PagesTotal)

	// Hint about background operation
	hint := m.theme.hintStyle().Render("Press Ctrl+C to continue in background")

	return fmt.Sprintf("%s %s %s\n%s\n", status, progressBar, counts, hint)
}

// finalView renders the completion message.
func (m progressModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nCrawl %s continues in background.\nUse 'sitebot sources <bot-id>' to check status.\n",
			m.sourceID)
		return m.theme.hintStyle().Render(msg)
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Crawl failed: %s\n", m.err))
	}

	// Success with counts
	if m.source != nil {
		var output string
		output += m.theme.completedStyle().Render("✓ Crawl complete") + "\n\n"
		output += fmt.Sprintf("  Pages indexed: %d/%d\n", m.source.PagesCrawled, m.source.PagesTotal)
		output += "\nThe bot is live.\n"
		return output
	}

	return m.theme.completedStyle().Render("✓ Crawl complete\n")
}

// fetchSource fetches the current crawl status.
// Runs in a separate goroutine (command) to avoid blocking Update().
func (m progressModel) fetchSource() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		source, err := m.watcher.QueryGetSource(ctx, m.sourceID)
		return sourceUpdateMsg{source: source, err: err}
	}
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// RunCrawlProgress runs the interactive progress UI for a crawl job.
// Returns nil on success or Ctrl+C (background), error on crawl failure.
func RunCrawlProgress(watcher SourceWatcher, sourceID string) error {
	model := newProgressModel(watcher, sourceID)
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	// Check final state
	if m, ok := finalModel.(progressModel); ok {
		// If user quit with Ctrl+C, crawl continues in background - not an error
		if m.quitting {
			return nil
		}
		// If the crawl failed, return the error
		if m.err != nil {
			return m.err
		}
	}

	return nil
}
