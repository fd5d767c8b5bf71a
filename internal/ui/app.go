package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reci/internal/api"
	"reci/internal/draft"
	"reci/internal/model"
	"reci/internal/nav"
	"reci/internal/store"
	"reci/internal/submit"
	"reci/internal/util"
)

// Lister fetches catalog pages.
type Lister interface {
	ListRecipes(ctx context.Context, cursor string) (model.Page, error)
}

// Submitter sends a draft and its images.
type Submitter interface {
	Submit(ctx context.Context, r model.Recipe, images model.RecipeImages) (submit.Result, error)
}

// ImageLoader reads an image file into an accepted variant pair.
type ImageLoader interface {
	Load(path string) (model.RecipeImages, model.MimeType, error)
}

// PreviewRenderer turns a thumbnail URL into terminal art.
type PreviewRenderer interface {
	Cached(url string, width, height int) (string, bool)
	Render(ctx context.Context, url string, width, height int) (string, error)
}

// Timings used when Options leaves them unset.
const (
	DefaultSubmitCooldown = 5 * time.Second
	DefaultPageCooldown   = 3 * time.Second
	DefaultToastDuration  = 2500 * time.Millisecond
)

// Options wires the model to its collaborators. Previews may be nil.
type Options struct {
	Lister    Lister
	Submitter Submitter
	Images    ImageLoader
	Previews  PreviewRenderer

	Timeout        time.Duration
	SubmitCooldown time.Duration
	PageCooldown   time.Duration
	ToastDuration  time.Duration

	Logger *slog.Logger
}

// Model is the root Bubble Tea model.
type Model struct {
	opts    Options
	logger  *slog.Logger
	machine nav.Machine
	history *nav.History
	initCmd tea.Cmd

	width  int
	height int

	error       string
	info        string
	showingHelp bool
	gState      GState

	recipes *RecipesModel
	detail  *RecipeDetailModel
	form    *RecipeFormModel
	toast   toast

	loadingPage  bool
	pageHidden   bool
	submitHidden bool
	submitting   bool

	keys     KeyMap
	formKeys FormKeyMap
}

// New creates the root model and starts the session.
func New(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = api.DefaultTimeout
	}
	if opts.SubmitCooldown <= 0 {
		opts.SubmitCooldown = DefaultSubmitCooldown
	}
	if opts.PageCooldown <= 0 {
		opts.PageCooldown = DefaultPageCooldown
	}
	if opts.ToastDuration <= 0 {
		opts.ToastDuration = DefaultToastDuration
	}
	m := Model{
		opts:     opts,
		logger:   opts.Logger,
		machine:  nav.New(store.New()),
		history:  &nav.History{},
		recipes:  NewRecipesModel(),
		keys:     DefaultKeyMap(),
		formKeys: DefaultFormKeyMap(),
	}
	m.initCmd = m.apply(nav.Init{})
	return m
}

// Init returns the first page fetch.
func (m Model) Init() tea.Cmd {
	return m.initCmd
}

func (m Model) store() *store.Store {
	return m.machine.Store()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.machine.State() == nav.StateAdding {
			return m.handleFormInput(msg)
		}
		if key.Matches(msg, m.keys.Help) {
			m.showingHelp = !m.showingHelp
			return m, nil
		}
		if m.showingHelp {
			if msg.String() == "esc" || msg.String() == "q" {
				m.showingHelp = false
			}
			return m, nil
		}
		if m.machine.State() == nav.StateViewing {
			return m.handleDetailNav(msg)
		}
		return m.handleRecipesNav(msg)

	case model.PageLoadedMsg:
		m.loadingPage = false
		current, _ := m.store().Cursor()
		if msg.Cursor != current {
			m.logger.Debug("discarding stale page", "request_cursor", msg.Cursor, "store_cursor", current)
			return m, nil
		}
		added := m.store().MergeFetchedPage(msg.Page.Recipes, msg.Page.LastKey)
		m.logger.Debug("page merged",
			"received", len(msg.Page.Recipes),
			"added", added,
			"total", m.store().Len(),
			"more", m.store().HasMore(),
		)
		m.recipes.SetRows(m.store().Recipes())
		m.error = ""
		return m, nil

	case model.PageFailedMsg:
		m.loadingPage = false
		m.logger.Warn("page fetch failed", "cursor", msg.Cursor, "error", msg.Err)
		m.error = "Could not load recipes: " + api.UserMessage(msg.Err)
		return m, nil

	case model.SubmissionDoneMsg:
		m.setSubmitting(false)
		wasAdding := m.machine.State() == nav.StateAdding
		cmd := m.apply(nav.SubmissionSucceeded{Recipe: msg.Recipe, Generation: msg.Generation})
		m.recipes.SetRows(m.store().Recipes())
		if wasAdding && m.machine.State() == nav.StateClosed {
			m.recipes.JumpToTop()
		}
		if msg.Warning != "" {
			m.info = msg.Warning
		}
		m.logger.Info("submission finished", "id", msg.Recipe.ID, "generation", msg.Generation, "upload_warning", msg.Warning)
		return m, cmd

	case model.SubmissionFailedMsg:
		m.setSubmitting(false)
		if msg.Generation != m.machine.Generation() {
			m.logger.Debug("dropping stale submission failure", "generation", msg.Generation, "error", msg.Err)
		} else {
			m.logger.Warn("submission failed", "generation", msg.Generation, "message", msg.Message, "error", msg.Err)
		}
		return m, m.apply(nav.SubmissionFailed{Message: msg.Message, Generation: msg.Generation})

	case model.ToastExpiredMsg:
		m.toast.expire(msg.ID)
		return m, nil

	case model.SubmitCooldownDoneMsg:
		m.submitHidden = false
		return m, nil

	case model.PageCooldownDoneMsg:
		m.pageHidden = false
		return m, nil

	case model.PreviewMsg:
		if m.detail != nil {
			m.detail.SetPreview(msg.URL, msg.Art, msg.Err)
		}
		return m, nil

	case model.AttachmentMsg:
		return m.handleAttachment(msg)
	}

	if m.form != nil {
		cmd, _ := m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply runs one transition, performs its effects and brings the panes in
// line with the new state.
func (m *Model) apply(ev nav.Event) tea.Cmd {
	var effects []nav.Effect
	m.machine, effects = m.machine.Apply(ev)

	var cmds []tea.Cmd
	for _, e := range effects {
		switch e := e.(type) {
		case nav.PushHistory:
			m.history.Push(e.Path)
		case nav.PopHistory:
			m.history.Pop()
		case nav.ArmNotification:
			cmds = append(cmds, m.toast.arm(e.Text, e.Level, m.opts.ToastDuration))
		case nav.FetchPage:
			cmds = append(cmds, m.fetchPage())
		}
	}
	cmds = append(cmds, m.syncPanes())
	return tea.Batch(cmds...)
}

func (m *Model) syncPanes() tea.Cmd {
	switch m.machine.State() {
	case nav.StateAdding:
		m.detail = nil
		if m.form == nil {
			m.form = NewRecipeFormModel(m.formKeys)
			m.info = ""
		}
		m.form.SetStepCount(len(m.machine.Active().Steps))
	case nav.StateViewing:
		m.form = nil
		r := m.machine.Active()
		if m.detail != nil && m.detail.RecipeID() == r.ID {
			return nil
		}
		m.detail = NewRecipeDetailModel(r)
		return m.loadPreview(r.ThumbnailURL)
	default:
		m.form = nil
		m.detail = nil
	}
	return nil
}

func (m *Model) loadPreview(url string) tea.Cmd {
	if url == "" {
		return nil
	}
	if m.opts.Previews == nil {
		m.detail.SetPreview(url, "", errors.New("previews disabled"))
		return nil
	}
	if art, ok := m.opts.Previews.Cached(url, previewWidth, previewHeight); ok {
		m.detail.SetPreview(url, art, nil)
		return nil
	}
	return previewCmd(m.opts.Previews, url, m.opts.Timeout)
}

func (m *Model) fetchPage() tea.Cmd {
	if m.opts.Lister == nil {
		return nil
	}
	cursor, _ := m.store().Cursor()
	m.loadingPage = true
	m.logger.Debug("fetching page", "cursor", cursor)
	return fetchPageCmd(m.opts.Lister, cursor, m.opts.Timeout)
}

func (m *Model) loadMore() tea.Cmd {
	if !m.store().HasMore() || m.pageHidden || m.loadingPage {
		return nil
	}
	m.pageHidden = true
	return tea.Batch(
		m.fetchPage(),
		tea.Tick(m.opts.PageCooldown, func(time.Time) tea.Msg {
			return model.PageCooldownDoneMsg{}
		}),
	)
}

func (m *Model) submit() tea.Cmd {
	if m.submitHidden || m.submitting || m.opts.Submitter == nil {
		return nil
	}
	r := m.machine.Active()
	if w, ok := draft.Validate(r); !ok {
		m.logger.Debug("submit refused", "warning", w)
		return nil
	}
	m.submitHidden = true
	spin := m.setSubmitting(true)
	m.info = ""
	gen := m.machine.Generation()
	m.logger.Info("submitting recipe", "title", r.Title, "steps", len(r.Steps), "images", m.machine.Images().Count(), "generation", gen)
	return tea.Batch(
		spin,
		submitCmd(m.opts.Submitter, r, m.machine.Images(), gen),
		tea.Tick(m.opts.SubmitCooldown, func(time.Time) tea.Msg {
			return model.SubmitCooldownDoneMsg{}
		}),
	)
}

func (m *Model) setSubmitting(submitting bool) tea.Cmd {
	m.submitting = submitting
	if m.form == nil {
		return nil
	}
	return m.form.SetSubmitting(submitting)
}

func (m Model) handleRecipesNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Top) {
		if m.gState == GStateFirstG {
			m.gState = GStateIdle
			m.recipes.JumpToTop()
			return m, nil
		}
		m.gState = GStateFirstG
		return m, nil
	}
	m.gState = GStateIdle

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Down):
		m.recipes.MoveDown()
	case key.Matches(msg, m.keys.Up):
		m.recipes.MoveUp()
	case key.Matches(msg, m.keys.Bottom):
		m.recipes.JumpToBottom()
	case key.Matches(msg, m.keys.HalfPageDown):
		m.recipes.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.recipes.HalfPageUp()
	case key.Matches(msg, m.keys.LoadMore):
		return m, m.loadMore()
	case key.Matches(msg, m.keys.Add):
		cmd := m.apply(nav.RequestAdd{})
		if m.machine.State() == nav.StateAdding && len(m.machine.Active().Steps) == 0 {
			cmd = tea.Batch(cmd, m.apply(nav.AddStep{}))
		}
		return m, cmd
	case key.Matches(msg, m.keys.Select):
		if r, ok := m.recipes.Selected(); ok {
			return m, m.apply(nav.RequestRead{ID: r.ID})
		}
	}
	return m, nil
}

func (m Model) handleDetailNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.history.Pop()
		return m, m.apply(nav.Back{})
	case key.Matches(msg, m.keys.Close):
		return m, m.apply(nav.RequestClose{})
	}
	if m.detail != nil {
		return m, m.detail.Update(msg)
	}
	return m, nil
}

func (m Model) handleFormInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	cmd, intent := m.form.Update(msg)

	switch intent.kind {
	case intentEdit:
		m.syncDraft()
	case intentCancel:
		return m, m.apply(nav.RequestClose{})
	case intentSubmit:
		return m, m.submit()
	case intentAttach:
		if m.opts.Images == nil {
			return m, cmd
		}
		return m, tea.Batch(cmd, m.form.StartAttaching(), attachCmd(m.opts.Images, intent.path))
	case intentAddStep:
		cmd = tea.Batch(cmd, m.apply(nav.AddStep{}))
		m.form.FocusLastStep()
	case intentRemoveStep:
		cmd = tea.Batch(cmd, m.apply(nav.RemoveLastStep{}))
	case intentClearImage:
		cmd = tea.Batch(cmd, m.apply(nav.ClearImages{}))
		m.form.ClearAttachment("")
	}
	return m, cmd
}

// syncDraft copies edited form values into the draft.
func (m *Model) syncDraft() {
	title, description, steps := m.form.Values()
	active := m.machine.Active()
	if title != active.Title {
		m.machine, _ = m.machine.Apply(nav.EditTitle{Text: title})
	}
	if description != active.Description {
		m.machine, _ = m.machine.Apply(nav.EditDescription{Text: description})
	}
	for i, s := range steps {
		if i < len(active.Steps) && s != active.Steps[i] {
			m.machine, _ = m.machine.Apply(nav.EditStep{Index: i, Text: s})
		}
	}
}

func (m Model) handleAttachment(msg model.AttachmentMsg) (tea.Model, tea.Cmd) {
	if m.machine.State() != nav.StateAdding || m.form == nil {
		return m, nil
	}
	if msg.Err != nil {
		m.logger.Info("attachment rejected", "path", msg.Path, "error", msg.Err)
		m.form.ClearAttachment("Image rejected: " + msg.Err.Error())
		return m, m.apply(nav.ClearImages{})
	}
	cmd := m.apply(nav.AttachImages{Images: msg.Images, MimeType: msg.Mime})
	m.form.SetAttachment(msg.Path, msg.Images, msg.Mime)
	m.logger.Debug("attachment accepted", "path", msg.Path, "mime", msg.Mime)
	return m, cmd
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.showingHelp {
		return RenderFullHelp(m.width, m.height)
	}

	screen := m.screen()
	header := renderHeader(m.history.Current(), m.store().Len(), m.width)
	footer := RenderHelp(screen, m.width)

	var banners []string
	if m.error != "" {
		banners = append(banners, ErrorStyle.Width(m.width).Render("Error: "+m.error))
	}
	if m.toast.visible() {
		banners = append(banners, m.toast.View(m.width))
	}
	if m.info != "" {
		banners = append(banners, WarningStyle.Width(m.width).Render(m.info))
	}

	contentHeight := m.height - 4 - len(banners)

	var content string
	switch screen {
	case model.ScreenRecipeForm:
		if m.form != nil {
			w, _ := draft.Validate(m.machine.Active())
			content = m.form.View(m.width, contentHeight, formStatus{
				warning:      string(w),
				submitHidden: m.submitHidden,
				submitting:   m.submitting,
			})
		}
	case model.ScreenRecipeDetail:
		if m.detail != nil {
			content = m.detail.View(m.width, contentHeight)
		}
	default:
		content = m.recipes.View(m.width, contentHeight, m.loadMoreFooter())
	}

	content = lipgloss.NewStyle().
		Width(m.width).
		Height(contentHeight).
		Render(content)

	parts := []string{header}
	parts = append(parts, banners...)
	parts = append(parts, content, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) screen() model.Screen {
	switch m.machine.State() {
	case nav.StateAdding:
		return model.ScreenRecipeForm
	case nav.StateViewing:
		return model.ScreenRecipeDetail
	default:
		return model.ScreenRecipes
	}
}

func (m Model) loadMoreFooter() string {
	switch {
	case m.loadingPage:
		return StatusBarStyle.Render("Loading recipes...")
	case m.store().HasMore() && !m.pageHidden:
		return StatusBarStyle.Render(helpKey("m", "load more"))
	default:
		return ""
	}
}

func renderHeader(path string, total int, width int) string {
	title := HeaderStyle.Render("reci")
	left := "  " + title + HelpKeyStyle.Render(path)

	right := HelpDescStyle.Render(util.FormatCount(total, "recipe")) + "  "

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return TitleStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

// Commands

func fetchPageCmd(lister Lister, cursor string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		page, err := lister.ListRecipes(ctx, cursor)
		if err != nil {
			return model.PageFailedMsg{Cursor: cursor, Err: err}
		}
		return model.PageLoadedMsg{Cursor: cursor, Page: page}
	}
}

func submitCmd(s Submitter, r model.Recipe, images model.RecipeImages, generation uint64) tea.Cmd {
	return func() tea.Msg {
		res, err := s.Submit(context.Background(), r, images)
		if err != nil {
			msg := api.UserMessage(err)
			if errors.Is(err, submit.ErrInvalidDraft) {
				msg = err.Error()
			}
			return model.SubmissionFailedMsg{Generation: generation, Message: msg, Err: err}
		}
		return model.SubmissionDoneMsg{Generation: generation, Recipe: res.Recipe, Warning: res.UploadWarning()}
	}
}

func attachCmd(loader ImageLoader, path string) tea.Cmd {
	return func() tea.Msg {
		images, mime, err := loader.Load(path)
		if err != nil {
			return model.AttachmentMsg{Path: path, Err: err}
		}
		return model.AttachmentMsg{Path: path, Images: images, Mime: mime}
	}
}

func previewCmd(r PreviewRenderer, url string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		art, err := r.Render(ctx, url, previewWidth, previewHeight)
		if err != nil {
			return model.PreviewMsg{URL: url, Err: fmt.Errorf("preview %s: %w", url, err)}
		}
		return model.PreviewMsg{URL: url, Art: art}
	}
}
