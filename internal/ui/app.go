package ui

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/vitrine/internal/config"
	"github.com/five82/vitrine/internal/conflicts"
	"github.com/five82/vitrine/internal/edit"
	"github.com/five82/vitrine/internal/gallery"
	"github.com/five82/vitrine/internal/inspect"
	"github.com/five82/vitrine/internal/library"
	"github.com/five82/vitrine/internal/logtail"
	"github.com/five82/vitrine/internal/nav"
	"github.com/five82/vitrine/internal/prefs"
	"github.com/five82/vitrine/internal/render"
	"github.com/five82/vitrine/internal/state"
	"github.com/five82/vitrine/internal/thumbs"
)

// Backend is what the UI calls on the gallery server directly. Everything
// else goes through the library and edit controllers.
type Backend interface {
	thumbs.Prioritizer
	FetchAsset(ctx context.Context, path string) ([]byte, error)
}

// Loader runs one thumbnail load.
type Loader interface {
	Run(ctx context.Context, l thumbs.Load) thumbs.Result
}

// Options configures the UI.
type Options struct {
	Context context.Context
	Client  Backend
	Store   *state.Store
	Bus     *state.Bus
	Library *library.Controller
	Edits   *edit.Manager
	Fetcher Loader
	Config  config.Config
	Prefs   prefs.Prefs
	Saver   *prefs.Saver
	Logger  *slog.Logger
}

// eventBuffer bounds bus events waiting for the loop.
const eventBuffer = 64

// prioritizeTag is the context sent with prioritization batches.
const prioritizeTag = "gallery"

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx     context.Context
	client  Backend
	store   *state.Store
	library *library.Controller
	edits   *edit.Manager
	fetcher Loader
	config  config.Config
	saver   *prefs.Saver
	logger  *slog.Logger

	// Engines owned by the event loop
	nav      *nav.Machine
	tree     *render.Tree
	pipeline *thumbs.Pipeline

	// Wake-ups from other goroutines
	stateSig signal
	flushSig signal
	events   chan state.Event
	unsubs   []func()

	// UI state
	theme       Theme
	keys        keyMap
	help        help.Model
	spinner     spinner.Model
	width       int
	height      int
	ready       bool
	prefs       prefs.Prefs
	state       state.State
	lastIndex   int
	lastUpdated time.Time
	scroll      int
	modal       Modal
	flash       flash
	animating   bool

	// Viewer state
	inspectorOpen bool
	inspector     viewport.Model
	drag          *dragInfo

	// Search state
	searching bool
	search    textinput.Model
	scope     gallery.SearchScope

	// Gallery mouse state
	lastClick clickInfo

	// Caches shared by value copies of the model
	pics   map[string]picEntry
	assets *assetCache
	view   *viewCache
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stateSig, flushSig := newSignal(), newSignal()
	events := make(chan state.Event, eventBuffer)

	tree := render.NewTree(opts.Config.ExitAnimation)
	pipeline := thumbs.NewPipeline(tree, thumbs.Options{
		BatchSize: opts.Config.PrioritizeBatch,
		Debounce:  opts.Config.PrioritizeDebounce,
	}, flushSig.notify)

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search"
	search.CharLimit = 200

	m := Model{
		ctx:           ctx,
		client:        opts.Client,
		store:         opts.Store,
		library:       opts.Library,
		edits:         opts.Edits,
		fetcher:       opts.Fetcher,
		config:        opts.Config,
		saver:         opts.Saver,
		logger:        logger,
		nav:           nav.New(opts.Store, opts.Edits),
		tree:          tree,
		pipeline:      pipeline,
		stateSig:      stateSig,
		flushSig:      flushSig,
		events:        events,
		theme:         GetTheme(opts.Prefs.Theme),
		keys:          DefaultKeyMap(),
		help:          help.New(),
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot)),
		prefs:         opts.Prefs,
		state:         opts.Store.GetState(),
		lastIndex:     -1,
		inspectorOpen: true,
		inspector:     viewport.New(inspectorWidth, 10),
		search:        search,
		pics:          make(map[string]picEntry),
		assets:        newAssetCache(),
		view:          &viewCache{},
	}
	if m.prefs.CellWidth <= 0 {
		m.prefs.CellWidth = prefs.Default().CellWidth
	}

	m.unsubs = append(m.unsubs, opts.Store.Subscribe(func(state.State) { stateSig.notify() }))
	if opts.Bus != nil {
		m.unsubs = append(m.unsubs, opts.Bus.Subscribe(func(e state.Event) {
			select {
			case events <- e:
			default:
				logger.Warn("ui event dropped", "event", e)
			}
		}))
	}
	return m
}

// Close detaches the model from the store and bus.
func (m Model) Close() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.pipeline.Stop()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.reloadCmd(),
		waitSignal(m.ctx, m.stateSig, stateMsg{}),
		waitSignal(m.ctx, m.flushSig, flushMsg{}),
		waitEvent(m.ctx, m.events),
		m.spinner.Tick,
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Helpers mutate m through a pointer, so every case stores its command
	// first and the model is returned once at the end.
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKey(msg)

	case tea.MouseMsg:
		cmd = m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.scroll = m.grid().clampScroll(m.scroll, m.state.NavIndex, m.tree.Len())
		m.updateVisible()
		m.refreshInspector()

	case stateMsg:
		cmd = tea.Batch(m.syncState(), waitSignal(m.ctx, m.stateSig, stateMsg{}))

	case flushMsg:
		cmd = tea.Batch(m.flushThumbs(), waitSignal(m.ctx, m.flushSig, flushMsg{}))

	case thumbMsg:
		if !m.pipeline.Complete(thumbs.Result(msg)) {
			m.logger.Debug("dropping stale thumbnail", "path", msg.Path, "seq", msg.Seq)
		} else if msg.Err != nil {
			m.logger.Warn("thumbnail failed", "path", msg.Path, "error", msg.Err)
		}

	case busMsg:
		cmd = tea.Batch(m.handleEvent(msg.event), waitEvent(m.ctx, m.events))

	case frameMsg:
		cmd = m.handleFrame(time.Time(msg))

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		if m.modal != nil {
			m.modal, _, _ = m.modal.Update(spinnerFrame(m.spinner.View()), m.keys)
		}

	case assetMsg:
		cmd = m.handleAsset(msg)

	case editLoadedMsg:
		m.refreshInspector()
		if msg.err != nil {
			m.logger.Warn("loading edits failed", "path", msg.path, "error", msg.err)
			cmd = m.setFlash("Edits unavailable: "+gallery.Message(msg.err), flashWarn)
		}

	case saveDoneMsg:
		cmd = m.handleSaveDone(msg)

	case resetRequestMsg:
		cmd = m.resetCmd()

	case resetDoneMsg:
		m.refreshInspector()
		if msg.err != nil {
			cmd = m.setFlash("Reset failed: "+gallery.Message(msg.err), flashError)
		}

	case reloadMsg:
		cmd = m.handleReload(msg)

	case bulkRequestMsg:
		cmd = m.bulkCmd(msg.op, msg.paths)

	case bulkDoneMsg:
		cmd = m.handleBulkDone(msg)

	case extractDoneMsg:
		cmd = m.handleExtractDone(msg)

	case conflictStepMsg:
		if m.modal != nil {
			m.modal, cmd, _ = m.modal.Update(msg, m.keys)
		}

	case conflictsDoneMsg:
		level := flashInfo
		if len(msg.report.Failed) > 0 {
			level = flashWarn
		}
		cmd = tea.Batch(m.setFlash(conflictReportText(msg.report), level), m.reloadCmd())

	case logsMsg:
		m.modal = newLogModal(msg.path, msg.entries, msg.err)

	case promptChoiceMsg:
		cmd = m.runOutcome(m.nav.Decide(nav.Choice(msg)))

	case quitMsg:
		cmd = m.quit()

	case flashClearMsg:
		if int(msg) == m.flash.id {
			m.flash = flash{id: m.flash.id}
		}
	}

	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	if m.state.ViewMode == state.ModeFullscreen {
		return m.renderFullscreen()
	}

	return m.renderMain()
}

// renderMain renders the header, content and footer.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: filters or search
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	height := max(1, m.height-headerRows-footerRows)
	var content string
	switch m.state.ViewMode {
	case state.ModeZoom:
		content = m.renderZoom(height)
	default:
		content = m.renderGrid(height)
	}
	b.WriteString(lipgloss.NewStyle().Height(height).MaxHeight(height).Render(content))
	b.WriteString("\n")

	b.WriteString(m.renderFooter())
	return b.String()
}

// grid returns the gallery layout for the current size and cell width.
func (m Model) grid() gridGeom {
	return layoutGrid(m.width, m.height, m.prefs.CellWidth)
}

// syncState pulls the store snapshot, reconciles the view tree and reports
// the new visible range to the thumbnail pipeline.
func (m *Model) syncState() tea.Cmd {
	prevIndex := m.state.NavIndex
	m.state = m.store.GetState()

	plan := m.tree.Reconcile(m.state.Images, time.Now())
	if created := plan.Created(); len(created) > 0 || len(plan.Exit) > 0 {
		m.logger.Debug("view tree reconciled", "created", len(created), "removed", len(plan.Exit), "live", m.tree.Len())
	}
	if len(plan.Exit) > 0 {
		m.pipeline.Forget(plan.Exit...)
	}
	if plan.Empty {
		clear(m.pics)
	}

	if m.state.NavIndex >= 0 {
		m.lastIndex = m.state.NavIndex
	}
	cursor := -1
	if m.state.NavIndex != prevIndex {
		cursor = m.state.NavIndex
	}
	m.scroll = m.grid().clampScroll(m.scroll, cursor, m.tree.Len())
	m.updateVisible()
	return m.startFrames()
}

// updateVisible reports the on-screen gallery items. Nothing is visible
// while the viewer covers the grid.
func (m *Model) updateVisible() {
	if !m.ready || m.state.ViewMode != state.ModeGallery {
		m.pipeline.SetVisible(nil)
		return
	}
	children := m.tree.Children()
	from, to := m.grid().visibleRange(m.scroll, len(children))
	paths := make([]string, 0, to-from)
	for _, ph := range children[from:to] {
		paths = append(paths, ph.Path)
	}
	m.pipeline.SetVisible(paths)
}

// flushThumbs sends prioritization batches and starts foreground loads.
// Loads do not wait for the batches.
func (m *Model) flushThumbs() tea.Cmd {
	if m.pipeline.Pending() == 0 {
		return nil
	}
	f := m.pipeline.Flush()
	cmds := make([]tea.Cmd, 0, len(f.Loads)+1)
	if len(f.Batches) > 0 && m.client != nil {
		ctx, client, logger, batches := m.ctx, m.client, m.logger, f.Batches
		cmds = append(cmds, func() tea.Msg {
			thumbs.SendBatches(ctx, client, batches, prioritizeTag, logger)
			return nil
		})
	}
	for _, l := range f.Loads {
		cmds = append(cmds, m.loadThumbCmd(l))
	}
	return tea.Batch(cmds...)
}

func (m Model) loadThumbCmd(l thumbs.Load) tea.Cmd {
	ctx, fetcher := m.ctx, m.fetcher
	return func() tea.Msg {
		return thumbMsg(fetcher.Run(ctx, l))
	}
}

// handleEvent applies a bus event on the loop.
func (m *Model) handleEvent(e state.Event) tea.Cmd {
	switch e := e.(type) {
	case state.ThumbnailInvalidated:
		if l, ok := m.pipeline.Regenerate(e.Path); ok {
			return m.loadThumbCmd(l)
		}
	case state.ImagesRemoved:
		m.pipeline.Forget(e.Paths...)
		for _, p := range e.Paths {
			delete(m.pics, p)
		}
		m.assets.drop(e.Paths...)
	case state.EditSaved:
		return m.setFlash("Edits saved", flashInfo)
	case state.EditReset:
		return m.setFlash("Edits reset to original", flashInfo)
	}
	return nil
}

// startFrames schedules animation frames while placeholders are entering
// or exiting.
func (m *Model) startFrames() tea.Cmd {
	if m.animating || !m.tree.Animating() {
		return nil
	}
	m.animating = true
	return frameCmd()
}

func (m *Model) handleFrame(now time.Time) tea.Cmd {
	m.tree.Frame()
	for _, p := range m.tree.Sweep(now) {
		delete(m.pics, p)
	}
	if m.tree.Animating() {
		return frameCmd()
	}
	m.animating = false
	return nil
}

func (m *Model) handleReload(msg reloadMsg) tea.Cmd {
	if msg.err != nil {
		m.logger.Warn("reload failed", "error", msg.err)
		return nil
	}
	if !msg.applied {
		return nil
	}
	m.lastUpdated = time.Now()
	cmd := m.syncState()
	// The viewed image disappeared from the list behind our back.
	if m.state.ViewMode != state.ModeGallery && m.state.NavIndex < 0 {
		return tea.Batch(cmd, m.runOutcome(m.nav.AfterDelete(m.lastIndex)))
	}
	return cmd
}

func (m *Model) handleBulkDone(msg bulkDoneMsg) tea.Cmd {
	sum := msg.summary
	cmds := []tea.Cmd{m.syncState()}
	if len(sum.Succeeded) > 0 {
		cmds = append(cmds, m.runOutcome(m.nav.AfterDelete(msg.origIndex)))
	}
	if msg.err != nil || len(sum.Failed) > 0 {
		m.modal = summaryModal{summary: sum, err: msg.err}
		return tea.Batch(cmds...)
	}
	cmds = append(cmds, m.setFlash(bulkText(sum), flashInfo))
	return tea.Batch(cmds...)
}

func (m *Model) handleExtractDone(msg extractDoneMsg) tea.Cmd {
	if msg.err != nil {
		return m.setFlash("Extract failed: "+gallery.Message(msg.err), flashError)
	}
	if msg.queue != nil {
		m.modal = newConflictModal(m.ctx, msg.queue)
		return nil
	}
	level := flashInfo
	if len(msg.summary.Failed) > 0 {
		level = flashWarn
	}
	return tea.Batch(m.setFlash(extractText(msg.summary), level), m.reloadCmd())
}

func (m *Model) quit() tea.Cmd {
	if m.saver != nil {
		_ = m.saver.Flush()
	}
	return tea.Quit
}

// Messages

type stateMsg struct{}

type flushMsg struct{}

type busMsg struct {
	event state.Event
}

type thumbMsg thumbs.Result

type frameMsg time.Time

// spinnerFrame forwards the current spinner frame to modals.
type spinnerFrame string

type assetMsg struct {
	path string
	img  image.Image
	info inspect.Info
	err  error
}

type editLoadedMsg struct {
	path string
	err  error
}

type saveDoneMsg struct {
	err     error
	proceed bool
}

type resetRequestMsg struct{}

type resetDoneMsg struct {
	err error
}

type reloadMsg struct {
	applied bool
	err     error
}

type bulkRequestMsg struct {
	op    library.Op
	paths []string
}

type bulkDoneMsg struct {
	summary   library.Summary
	err       error
	origIndex int
}

type extractDoneMsg struct {
	summary library.ExtractSummary
	queue   *conflicts.Queue
	err     error
}

type logsMsg struct {
	path    string
	entries []logtail.Entry
	err     error
}

type quitMsg struct{}

type flashClearMsg int

// Commands

// signal is a one-slot wake-up. Notifications coalesce while one is pending.
type signal chan struct{}

func newSignal() signal {
	return make(signal, 1)
}

func (s signal) notify() {
	select {
	case s <- struct{}{}:
	default:
	}
}

func waitSignal(ctx context.Context, s signal, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-s:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

func waitEvent(ctx context.Context, events <-chan state.Event) tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-events:
			return busMsg{event: e}
		case <-ctx.Done():
			return nil
		}
	}
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m Model) reloadCmd() tea.Cmd {
	ctx, lib := m.ctx, m.library
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, reloadTimeout)
		defer cancel()
		applied, err := lib.Reload(ctx)
		return reloadMsg{applied: applied, err: err}
	}
}

func (m Model) logsCmd() tea.Cmd {
	path := m.config.LogPath()
	return func() tea.Msg {
		lines, err := logtail.Read(path, logOverlayLines)
		if err != nil {
			return logsMsg{path: path, err: err}
		}
		return logsMsg{path: path, entries: logtail.Filter(lines, slog.LevelWarn)}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
