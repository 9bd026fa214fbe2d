package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/shelf/internal/catalog"
	"github.com/abelbrown/shelf/internal/fetch"
	"github.com/abelbrown/shelf/internal/logging"
)

// AppConfig holds the App's dependencies.
type AppConfig struct {
	// Load issues a fetch. Nil disables loading entirely.
	Load LoadFunc

	// ServerFilter makes every parameter change refetch with the parameters
	// as query instead of deriving locally. Categories then accumulate
	// across responses.
	ServerFilter bool
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold the data source. Products arrive via messages.
type App struct {
	load         LoadFunc
	serverFilter bool

	products   []catalog.Product // canonical list from the last successful load
	categories []string
	display    []catalog.Product
	params     catalog.ViewParameters

	search  textinput.Model
	spinner spinner.Model

	seq     uint64
	loading bool
	errMsg  string

	cursor int
	width  int
	height int
	ready  bool
}

// NewApp creates an App. If cfg.Load is set, the first load is already
// counted as in flight; Init issues it.
func NewApp(cfg AppConfig) App {
	ti := textinput.New()
	ti.Placeholder = "Search products..."
	ti.Prompt = FilterBarPrompt.Render("/ ")
	ti.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	a := App{
		load:         cfg.Load,
		serverFilter: cfg.ServerFilter,
		params:       catalog.DefaultViewParameters(),
		categories:   []string{catalog.AllCategories},
		display:      []catalog.Product{},
		search:       ti,
		spinner:      sp,
	}
	if a.load != nil {
		a.seq = 1
		a.loading = true
	}
	return a
}

// Init issues the initial load.
func (a App) Init() tea.Cmd {
	if a.load == nil {
		return nil
	}
	return tea.Batch(a.load(a.seq, a.params), a.spinner.Tick)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.search.Focused() {
			return a.handleSearchKey(msg)
		}
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.search.Width = msg.Width - 4
		a.ready = true
		return a, nil

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case ProductsLoaded:
		return a.handleLoaded(msg), nil
	}

	return a, nil
}

func (a App) handleLoaded(msg ProductsLoaded) App {
	if msg.Seq != a.seq {
		logging.Debug("discarding stale load", "seq", msg.Seq, "current", a.seq)
		return a
	}
	a.loading = false

	if msg.Err != nil {
		fe := fetch.Classify(msg.Err)
		logging.Warn("load failed", "seq", msg.Seq, "kind", fe.Kind, "error", fe)
		a.errMsg = fe.Message()
		if a.serverFilter {
			// The rows answer the previous query, not the one on screen.
			a.display = []catalog.Product{}
			a.cursor = 0
		}
		return a
	}

	a.errMsg = ""
	a.products = msg.Products
	if a.products == nil {
		a.products = []catalog.Product{}
	}
	categories := msg.Categories
	if len(categories) == 0 {
		categories = catalog.Categories(a.products)
	}
	if a.serverFilter {
		// Server responses are already filtered, so they only ever add
		// categories.
		categories = catalog.MergeCategories(append(append([]string{}, a.categories...), categories...))
	}
	a.categories = categories
	logging.Info("products loaded", "seq", msg.Seq, "count", len(a.products))
	a.refresh()
	return a
}

// handleSearchKey routes keys to the focused search input.
func (a App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc", "enter":
		a.search.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	if v := a.search.Value(); v != a.params.Search {
		a.params.Search = v
		return a, tea.Batch(cmd, a.paramsChanged())
	}
	return a, cmd
}

// handleKeyMsg processes keyboard input outside the search input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "/":
		return a, a.search.Focus()

	case "j", "down":
		if a.cursor < len(a.display)-1 {
			a.cursor++
		}
		return a, nil

	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case "g", "home":
		a.cursor = 0
		return a, nil

	case "G", "end":
		if len(a.display) > 0 {
			a.cursor = len(a.display) - 1
		}
		return a, nil

	case "c":
		a.params.Category = a.cycleCategory(1)
		return a, a.paramsChanged()

	case "C":
		a.params.Category = a.cycleCategory(-1)
		return a, a.paramsChanged()

	case "s":
		a.params.Sort = a.params.Sort.Next()
		return a, a.paramsChanged()

	case "x":
		a.params = catalog.DefaultViewParameters()
		a.search.SetValue("")
		return a, a.paramsChanged()

	case "r":
		return a, a.reload()
	}

	return a, nil
}

// cycleCategory returns the category delta steps from the current one.
// An unknown current category restarts from All.
func (a App) cycleCategory(delta int) string {
	cats := a.categories
	if len(cats) == 0 {
		return catalog.AllCategories
	}
	cur := a.params.Normalize().Category
	idx := 0
	for i, c := range cats {
		if c == cur {
			idx = i
			break
		}
	}
	idx = ((idx+delta)%len(cats) + len(cats)) % len(cats)
	return cats[idx]
}

// paramsChanged re-derives locally or, in server mode, refetches.
func (a *App) paramsChanged() tea.Cmd {
	if a.serverFilter {
		return a.reload()
	}
	a.refresh()
	return nil
}

// reload issues a new load that supersedes any in flight.
func (a *App) reload() tea.Cmd {
	if a.load == nil {
		return nil
	}
	a.seq++
	a.loading = true
	a.errMsg = ""
	return tea.Batch(a.load(a.seq, a.params), a.spinner.Tick)
}

// refresh recomputes the display list from the canonical list.
func (a *App) refresh() {
	a.display = catalog.Derive(a.products, a.params)
	if a.cursor >= len(a.display) {
		a.cursor = len(a.display) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	mode := "client"
	if a.serverFilter {
		mode = "server"
	}
	header := a.search.View() + "\n" + RenderControls(a.params, mode, a.width) + "\n"

	// header (2) + status bar (1) + error bar
	contentHeight := a.height - 3
	errorBar := ""
	if a.errMsg != "" {
		errorBar = ErrorStyle.Width(a.width).Render("Error: "+a.errMsg) + "\n"
		contentHeight--
	}

	var body string
	if a.loading {
		body = HelpStyle.Render(a.spinner.View()+" Loading products...") + "\n"
	} else {
		empty := "No products match."
		if len(a.products) == 0 {
			empty = "No products. Press 'r' to reload."
		}
		body = RenderList(a.display, a.cursor, a.width, contentHeight, empty)
	}

	statusBar := RenderStatusBar(a.cursor, len(a.display), len(a.products), a.width, a.loading)
	return header + body + errorBar + statusBar
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Display returns the derived list currently shown (for testing).
func (a App) Display() []catalog.Product {
	return a.display
}

// Params returns the current view parameters (for testing).
func (a App) Params() catalog.ViewParameters {
	return a.params
}

// Loading reports whether a load is outstanding.
func (a App) Loading() bool {
	return a.loading
}

// ErrMessage returns the user-visible error, or "".
func (a App) ErrMessage() string {
	return a.errMsg
}

// Categories returns the categories the selector cycles through.
func (a App) Categories() []string {
	return a.categories
}

// Seq returns the sequence number of the latest issued load.
func (a App) Seq() uint64 {
	return a.seq
}
