package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/moviemate/internal/domain"
	"github.com/mmcdole/moviemate/internal/messaging"
	"github.com/mmcdole/moviemate/internal/search"
	"github.com/mmcdole/moviemate/internal/tui/styles"
)

// ApplicationState represents the current state of the popup
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateFiltering
	StateHelp
	StateConfirmClear
)

// Tab is one of the popup's panes
type Tab int

const (
	TabRecommendations Tab = iota
	TabWatchlist
	TabReviews
)

var tabNames = []string{"Recommendations", "Watchlist", "Reviews"}

func (t Tab) String() string {
	if int(t) < len(tabNames) {
		return tabNames[t]
	}
	return "?"
}

const (
	// Tab bar, genre bar and footer
	ChromeHeight = 4

	statusTimeout = 3 * time.Second
)

// Model is the main Bubble Tea model for the popup
type Model struct {
	// Application state
	State ApplicationState
	Tab   Tab
	Ready bool

	// Collaborators
	Client *messaging.Client
	Opener Opener
	pushes <-chan messaging.Push
	logger *slog.Logger

	// Recommendation pane
	GenreIndex int
	Current    *domain.Movie

	// Watchlist pane
	Watchlist   []domain.Movie
	Filtered    []search.FilterResult
	Cursor      int
	filterInput textinput.Model

	// Reviews pane
	reviews viewport.Model

	// Footer
	Blocked int64

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	Loading      bool
	SpinnerFrame int
}

// NewModel creates the popup model. pushes may be nil when no push stream
// is available; the blocked count is then only read once at startup.
func NewModel(client *messaging.Client, opener Opener, pushes <-chan messaging.Push, genre domain.Genre, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter watchlist"
	ti.CharLimit = 64

	genreIndex := 0
	for i, g := range domain.Genres {
		if g == genre {
			genreIndex = i
			break
		}
	}

	return Model{
		State:       StateBrowsing,
		Tab:         TabRecommendations,
		Client:      client,
		Opener:      opener,
		pushes:      pushes,
		logger:      logger,
		GenreIndex:  genreIndex,
		filterInput: ti,
		reviews:     viewport.New(0, 0),
		Loading:     true,
	}
}

// Genre returns the selected genre
func (m Model) Genre() domain.Genre {
	return domain.Genres[m.GenreIndex]
}

// Init loads the first recommendation, the watchlist and the blocked count
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		GetRecommendationCmd(m.Client, m.Genre()),
		LoadWatchlistCmd(m.Client),
		LoadBlockedCountCmd(m.Client),
		TickCmd(),
	}
	if cmd := WaitForPushCmd(m.pushes); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		if !m.Loading {
			return m, nil
		}
		m.SpinnerFrame++
		return m, TickCmd()

	case RecommendationMsg:
		// A reply for a genre the user already moved away from is stale
		if msg.Genre != m.Genre() {
			return m, nil
		}
		m.Loading = false
		m.Current = msg.Movie
		m.refreshReviews()
		if msg.Movie == nil {
			return m.setStatus(fmt.Sprintf("No %s picks available yet", msg.Genre.DisplayName()), false)
		}
		return m, nil

	case WatchlistLoadedMsg:
		m.Watchlist = msg.Movies
		m.applyFilter()
		return m, nil

	case WatchlistChangedMsg:
		next, cmd := m.setStatus(msg.Status, false)
		return next, tea.Batch(cmd, LoadWatchlistCmd(m.Client))

	case BlockedCountMsg:
		m.Blocked = max(m.Blocked, msg.Count)
		return m, nil

	case PushMsg:
		m.Blocked = max(m.Blocked, msg.Count)
		return m, WaitForPushCmd(m.pushes)

	case PushClosedMsg:
		m.logger.Debug("push stream closed")
		m.pushes = nil
		return m, nil

	case LinkOpenedMsg:
		return m.setStatus("Opened "+msg.Link, false)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil

	case ErrMsg:
		m.Loading = false
		m.logger.Error("popup request failed", "context", msg.Context, "error", msg.Err)
		return m.setStatus(msg.Error(), true)
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil

	case StateConfirmClear:
		switch {
		case key.Matches(msg, Keys.Confirm):
			m.State = StateBrowsing
			return m, ClearWatchlistCmd(m.Client)
		case key.Matches(msg, Keys.Deny):
			m.State = StateBrowsing
		}
		return m, nil

	case StateFiltering:
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.NextTab):
		m.Tab = (m.Tab + 1) % Tab(len(tabNames))
		return m, nil

	case key.Matches(msg, Keys.PrevTab):
		m.Tab = (m.Tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
		return m, nil

	case key.Matches(msg, Keys.Left):
		return m.selectGenre(m.GenreIndex - 1)

	case key.Matches(msg, Keys.Right):
		return m.selectGenre(m.GenreIndex + 1)

	case key.Matches(msg, Keys.New):
		m.Loading = true
		return m, tea.Batch(GetRecommendationCmd(m.Client, m.Genre()), TickCmd())

	case key.Matches(msg, Keys.Add):
		if m.Current == nil {
			return m.setStatus("Nothing to add", true)
		}
		return m, AddToWatchlistCmd(m.Client, *m.Current)

	case key.Matches(msg, Keys.Open):
		movie := m.focusedMovie()
		if movie == nil || m.Opener == nil {
			return m, nil
		}
		return m, OpenLinkCmd(m.Opener, *movie)

	case key.Matches(msg, Keys.Clear):
		if len(m.Watchlist) > 0 {
			m.State = StateConfirmClear
		}
		return m, nil

	case key.Matches(msg, Keys.Filter):
		m.Tab = TabWatchlist
		m.State = StateFiltering
		cmd := m.filterInput.Focus()
		return m, cmd

	case key.Matches(msg, Keys.Escape):
		if m.filterInput.Value() != "" {
			m.filterInput.SetValue("")
			m.applyFilter()
		}
		return m, nil
	}

	switch m.Tab {
	case TabWatchlist:
		return m.handleWatchlistKey(msg)
	case TabReviews:
		var cmd tea.Cmd
		m.reviews, cmd = m.reviews.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleWatchlistKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
	case key.Matches(msg, Keys.Down):
		if m.Cursor < len(m.Filtered)-1 {
			m.Cursor++
		}
	case key.Matches(msg, Keys.Remove):
		if movie := m.selectedWatchlistMovie(); movie != nil {
			return m, RemoveFromWatchlistCmd(m.Client, *movie)
		}
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Escape):
		m.filterInput.SetValue("")
		m.filterInput.Blur()
		m.State = StateBrowsing
		m.applyFilter()
		return m, nil
	case key.Matches(msg, Keys.Enter):
		m.filterInput.Blur()
		m.State = StateBrowsing
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m Model) selectGenre(index int) (tea.Model, tea.Cmd) {
	n := len(domain.Genres)
	m.GenreIndex = (index + n) % n
	m.Current = nil
	m.Loading = true
	m.refreshReviews()
	return m, tea.Batch(GetRecommendationCmd(m.Client, m.Genre()), TickCmd())
}

func (m Model) setStatus(status string, isErr bool) (tea.Model, tea.Cmd) {
	m.StatusMsg = status
	m.StatusIsErr = isErr
	return m, ClearStatusCmd(statusTimeout)
}

// applyFilter recomputes the visible watchlist and clamps the cursor
func (m *Model) applyFilter() {
	m.Filtered = search.Filter(m.filterInput.Value(), m.Watchlist)
	if m.Cursor >= len(m.Filtered) {
		m.Cursor = len(m.Filtered) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m Model) selectedWatchlistMovie() *domain.Movie {
	if m.Cursor < 0 || m.Cursor >= len(m.Filtered) {
		return nil
	}
	movie := m.Filtered[m.Cursor].Movie
	return &movie
}

// focusedMovie is the watchlist selection on the watchlist tab and the
// current pick elsewhere
func (m Model) focusedMovie() *domain.Movie {
	if m.Tab == TabWatchlist {
		return m.selectedWatchlistMovie()
	}
	return m.Current
}

func (m *Model) updateLayout() {
	m.reviews.Width = m.Width
	m.reviews.Height = max(m.Height-ChromeHeight, 1)
	m.filterInput.Width = max(m.Width-4, 10)
	m.refreshReviews()
}

func (m *Model) refreshReviews() {
	m.reviews.SetContent(renderReviews(m.Current, m.Width))
	m.reviews.GotoTop()
}

// View renders the popup
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	switch m.State {
	case StateHelp:
		return m.renderHelp()
	case StateConfirmClear:
		return m.renderClearConfirmation()
	}

	bodyHeight := max(m.Height-ChromeHeight, 1)

	var body string
	switch m.Tab {
	case TabRecommendations:
		body = m.renderRecommendation()
	case TabWatchlist:
		body = m.renderWatchlist(bodyHeight)
	case TabReviews:
		body = m.reviews.View()
	}
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		m.renderGenres(),
		"",
		body,
		m.renderFooter(),
	)
}

func (m Model) renderTabs() string {
	parts := make([]string, len(tabNames))
	for i, name := range tabNames {
		if Tab(i) == m.Tab {
			parts[i] = styles.ActiveTabStyle.Render(name)
		} else {
			parts[i] = styles.InactiveTabStyle.Render(name)
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) renderGenres() string {
	parts := make([]string, len(domain.Genres))
	for i, g := range domain.Genres {
		if i == m.GenreIndex {
			parts[i] = styles.GenreSelectedStyle.Render(g.DisplayName())
		} else {
			parts[i] = styles.GenreStyle.Render(g.DisplayName())
		}
	}
	return styles.DimStyle.Render("← ") + strings.Join(parts, " ") + styles.DimStyle.Render(" →")
}

func (m Model) renderRecommendation() string {
	if m.Loading {
		return RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Finding a "+m.Genre().DisplayName()+" pick...")
	}
	if m.Current == nil {
		return styles.DimStyle.Render("No recommendation yet. Press n to try again.")
	}
	return renderCard(*m.Current, m.Width)
}

func renderCard(movie domain.Movie, width int) string {
	inner := max(width-8, 20)

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(styles.Truncate(movie.Title, inner)))
	b.WriteString("\n")
	b.WriteString(styles.SubtitleStyle.Render(movie.YearLabel()))
	if movie.Rating != "" {
		b.WriteString("  ")
		b.WriteString(styles.RatingBadgeStyle.Render(movie.Rating))
	}
	if movie.Runtime != "" {
		b.WriteString("  ")
		b.WriteString(styles.DimStyle.Render(movie.Runtime))
	}
	b.WriteString("\n\n")
	if movie.Description != "" {
		b.WriteString(lipgloss.NewStyle().Width(inner).Render(movie.Description))
		b.WriteString("\n\n")
	}
	link := "o TMDB page"
	if movie.HasTrailer() {
		link = "o trailer"
	}
	b.WriteString(styles.AccentStyle.Render("a") + styles.DimStyle.Render(" watchlist  "))
	b.WriteString(styles.AccentStyle.Render(link[:1]) + styles.DimStyle.Render(link[1:]))
	if len(movie.Reviews) > 0 {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  · %d reviews", len(movie.Reviews))))
	}

	return styles.CardStyle.Render(b.String())
}

func renderReviews(movie *domain.Movie, width int) string {
	if movie == nil {
		return styles.DimStyle.Render("No movie selected.")
	}
	if len(movie.Reviews) == 0 {
		return styles.DimStyle.Render("No reviews for " + movie.Title + ".")
	}

	wrap := lipgloss.NewStyle().Width(max(width-2, 20))
	var b strings.Builder
	for i, r := range movie.Reviews {
		if i > 0 {
			b.WriteString("\n\n")
		}
		header := styles.AccentStyle.Render(r.Author)
		if rating := r.FormattedAuthorRating(); rating != "" {
			header += " " + styles.RatingBadgeStyle.Render(rating)
		}
		if !r.CreatedAt.IsZero() {
			header += styles.DimStyle.Render(" · " + r.CreatedAt.Format("Jan 2, 2006"))
		}
		b.WriteString(header)
		b.WriteString("\n")
		b.WriteString(wrap.Render(r.Content))
	}
	return b.String()
}

func (m Model) renderWatchlist(height int) string {
	var lines []string
	if m.State == StateFiltering || m.filterInput.Value() != "" {
		lines = append(lines, styles.FilterPromptStyle.Render(m.filterInput.View()))
		height--
	}

	if len(m.Watchlist) == 0 {
		return strings.Join(append(lines, styles.DimStyle.Render("Your watchlist is empty. Press a on a pick to add it.")), "\n")
	}
	if len(m.Filtered) == 0 {
		return strings.Join(append(lines, styles.DimStyle.Render("No matches.")), "\n")
	}

	// Keep the cursor in view
	start := 0
	if height > 0 && m.Cursor >= height {
		start = m.Cursor - height + 1
	}
	end := min(len(m.Filtered), start+max(height, 1))

	for i := start; i < end; i++ {
		r := m.Filtered[i]
		title := styles.HighlightMatches(r.Movie.Title, r.MatchedIndexes)
		row := fmt.Sprintf("%s  %s", title, styles.DimStyle.Render(r.Movie.YearLabel()+"  "+r.Movie.Rating))
		if i == m.Cursor {
			lines = append(lines, styles.SelectedItemStyle.Render(row))
		} else {
			lines = append(lines, styles.NormalItemStyle.Render(row))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	var left string
	if m.StatusMsg != "" {
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(m.StatusMsg)
		} else {
			left = styles.SuccessStyle.Render(m.StatusMsg)
		}
	}

	right := styles.AccentStyle.Render(fmt.Sprintf("%d", m.Blocked)) +
		styles.HelpDescStyle.Render(" ads blocked  ") +
		helpEntry(Keys.Help)

	// FooterStyle pads one column each side
	gap := m.Width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return styles.FooterStyle.Render(left + strings.Repeat(" ", gap) + right)
}

// helpEntry renders a binding as "key description"
func helpEntry(b key.Binding) string {
	h := b.Help()
	return styles.HelpKeyStyle.Render(h.Key) + " " + styles.HelpDescStyle.Render(h.Desc)
}

// helpColumn renders bindings as aligned rows under a heading
func helpColumn(title string, bindings ...key.Binding) string {
	width := 0
	for _, b := range bindings {
		width = max(width, lipgloss.Width(b.Help().Key))
	}
	lines := []string{styles.TitleStyle.Render(title)}
	for _, b := range bindings {
		h := b.Help()
		lines = append(lines, "  "+styles.HelpKeyStyle.Render(styles.Pad(h.Key, width))+"  "+styles.HelpDescStyle.Render(h.Desc))
	}
	return strings.Join(lines, "\n")
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	browse := helpColumn("BROWSE",
		Keys.NextTab, Keys.PrevTab, Keys.Left, Keys.Right, Keys.New, Keys.Open, Keys.Up, Keys.Down, Keys.Quit)
	watchlist := helpColumn("WATCHLIST",
		Keys.Add, Keys.Remove, Keys.Filter, Keys.Clear, Keys.Escape, Keys.Help)

	body := lipgloss.JoinHorizontal(lipgloss.Top, browse, "    ", watchlist) +
		"\n\n" + styles.DimStyle.Render("Press any key to return...")

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(body))
}

// renderClearConfirmation renders the clear-watchlist confirmation modal
func (m Model) renderClearConfirmation() string {
	modal := fmt.Sprintf(`
        Clear Watchlist?

  This removes all %d saved movies.

        [Y] Yes      [N] No
`, len(m.Watchlist))

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}

// RenderSpinner returns the spinner glyph for frame
func RenderSpinner(frame int) string {
	return styles.AccentStyle.Render(styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])
}
