package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reci/internal/api"
	"reci/internal/model"
	"reci/internal/nav"
	"reci/internal/submit"
)

type fakeLister struct {
	mu    sync.Mutex
	pages map[string]model.Page
	err   error
	calls []string
}

func (f *fakeLister) ListRecipes(_ context.Context, cursor string) (model.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cursor)
	if f.err != nil {
		return model.Page{}, f.err
	}
	return f.pages[cursor], nil
}

type fakeSubmitter struct {
	mu     sync.Mutex
	calls  int
	got    model.Recipe
	images model.RecipeImages
	id     model.RecipeID
	err    error
}

func (f *fakeSubmitter) Submit(_ context.Context, r model.Recipe, images model.RecipeImages) (submit.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.got = r
	f.images = images
	if f.err != nil {
		return submit.Result{}, f.err
	}
	r.ID = f.id
	return submit.Result{Recipe: r, Uploaded: images.Count()}, nil
}

type fakeLoader struct {
	images model.RecipeImages
	mime   model.MimeType
	err    error
}

func (f fakeLoader) Load(string) (model.RecipeImages, model.MimeType, error) {
	return f.images, f.mime, f.err
}

type fakePreviews struct {
	cached   map[string]string
	art      string
	err      error
	rendered []string
}

func (f *fakePreviews) Cached(url string, _, _ int) (string, bool) {
	art, ok := f.cached[url]
	return art, ok
}

func (f *fakePreviews) Render(_ context.Context, url string, _, _ int) (string, error) {
	f.rendered = append(f.rendered, url)
	return f.art, f.err
}

func recipe(id, title string) model.Recipe {
	return model.Recipe{
		ID:          model.RecipeID(id),
		Title:       title,
		Description: "About " + title,
		MimeType:    model.MimePNG,
		Steps:       []string{"one", "two", "three"},
	}
}

func twoPages() *fakeLister {
	return &fakeLister{pages: map[string]model.Page{
		"": {
			Recipes: []model.Recipe{recipe("00000003000001", "Crêpes Suzette"), recipe("00000002000001", "Tea")},
			LastKey: "00000002000001",
		},
		"00000002000001": {
			Recipes: []model.Recipe{recipe("00000001000001", "Toast")},
		},
	}}
}

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	opts.SubmitCooldown = time.Millisecond
	opts.PageCooldown = time.Millisecond
	opts.ToastDuration = time.Millisecond
	m := New(opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

// execCmd runs cmd and any batched commands, returning the messages that
// arrive promptly. Blink and spinner ticks that outlast the wait are dropped.
func execCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, execCmd(c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(150 * time.Millisecond):
		return nil
	}
}

// deliver feeds the app-level messages produced by cmd back into m.
func deliver(m Model, cmd tea.Cmd) Model {
	for _, msg := range execCmd(cmd) {
		switch msg.(type) {
		case model.PageLoadedMsg, model.PageFailedMsg,
			model.SubmissionDoneMsg, model.SubmissionFailedMsg,
			model.PreviewMsg, model.AttachmentMsg,
			model.SubmitCooldownDoneMsg, model.PageCooldownDoneMsg:
			next, _ := m.Update(msg)
			m = next.(Model)
		}
	}
	return m
}

func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeRunes(m Model, s string) Model {
	for _, r := range s {
		m, _ = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T, opts Options) Model {
	t.Helper()
	m := newTestModel(t, opts)
	return deliver(m, m.Init())
}

func TestInitFetchesFirstPage(t *testing.T) {
	lister := twoPages()
	m := loaded(t, Options{Lister: lister})

	assert.Equal(t, []string{""}, lister.calls)
	assert.Equal(t, nav.StateClosed, m.machine.State())
	assert.Equal(t, 2, m.store().Len())
	assert.True(t, m.store().HasMore())
	assert.Equal(t, 2, m.recipes.Len())
	require.NoError(t, m.store().CheckInvariant())

	view := m.View()
	assert.Contains(t, view, "Crêpes Suzette")
	assert.Contains(t, view, "load more")
}

func TestStalePageIsDiscarded(t *testing.T) {
	m := loaded(t, Options{Lister: twoPages()})

	m, _ = send(m, model.PageLoadedMsg{Cursor: "", Page: model.Page{
		Recipes: []model.Recipe{recipe("00000009000001", "Late")},
	}})
	assert.Equal(t, 2, m.store().Len())
	assert.True(t, m.store().HasMore())
}

func TestLoadMoreFollowsCursor(t *testing.T) {
	lister := twoPages()
	m := loaded(t, Options{Lister: lister})

	m, cmd := send(m, keyRunes("m"))
	require.NotNil(t, cmd)
	assert.True(t, m.pageHidden)
	assert.True(t, m.loadingPage)

	// A second press while the first is in flight does nothing.
	m, again := send(m, keyRunes("m"))
	assert.Nil(t, again)

	m = deliver(m, cmd)
	assert.Equal(t, []string{"", "00000002000001"}, lister.calls)
	assert.Equal(t, 3, m.store().Len())
	assert.False(t, m.store().HasMore())
	assert.False(t, m.pageHidden)

	_, cmd = send(m, keyRunes("m"))
	assert.Nil(t, cmd)
}

func TestPageFailureShowsBanner(t *testing.T) {
	m := loaded(t, Options{Lister: &fakeLister{err: errors.New("dial tcp: refused")}})

	assert.Zero(t, m.store().Len())
	assert.Contains(t, m.error, api.UnreachableMessage)
	assert.Contains(t, m.View(), api.UnreachableMessage)
}

func TestReadAndBack(t *testing.T) {
	m := loaded(t, Options{Lister: twoPages()})

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, nav.StateViewing, m.machine.State())
	assert.Equal(t, "/crepes-suzette", m.history.Current())
	require.NotNil(t, m.detail)
	assert.Contains(t, m.View(), "About Crêpes Suzette")
	assert.Contains(t, m.View(), "No image")

	m, _ = send(m, keyRunes("h"))
	assert.Equal(t, nav.StateClosed, m.machine.State())
	assert.Zero(t, m.history.Len())
	assert.Nil(t, m.detail)

	m, _ = send(m, keyRunes("j"))
	m, _ = send(m, keyRunes("l"))
	require.Equal(t, nav.StateViewing, m.machine.State())
	assert.Equal(t, model.RecipeID("00000002000001"), m.machine.ActiveID())

	m, _ = send(m, keyRunes("x"))
	assert.Equal(t, nav.StateClosed, m.machine.State())
	assert.Zero(t, m.history.Len())
}

func TestGGJumpsToTop(t *testing.T) {
	m := loaded(t, Options{Lister: twoPages()})

	m, _ = send(m, keyRunes("G"))
	r, _ := m.recipes.Selected()
	assert.Equal(t, "Tea", r.Title)

	m, _ = send(m, keyRunes("g"))
	m, _ = send(m, keyRunes("g"))
	r, _ = m.recipes.Selected()
	assert.Equal(t, "Crêpes Suzette", r.Title)
}

func TestPreviewUsesCache(t *testing.T) {
	withThumb := recipe("00000001000001", "Toast")
	withThumb.ThumbnailURL = "http://example.com/thumbnails/00000001000001.png"
	lister := &fakeLister{pages: map[string]model.Page{"": {Recipes: []model.Recipe{withThumb}}}}
	previews := &fakePreviews{cached: map[string]string{withThumb.ThumbnailURL: "##ART##"}}

	m := loaded(t, Options{Lister: lister, Previews: previews})
	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, previews.rendered)
	assert.Contains(t, m.View(), "##ART##")
}

func TestPreviewRendersOnMiss(t *testing.T) {
	withThumb := recipe("00000001000001", "Toast")
	withThumb.ThumbnailURL = "http://example.com/thumbnails/00000001000001.png"
	lister := &fakeLister{pages: map[string]model.Page{"": {Recipes: []model.Recipe{withThumb}}}}
	previews := &fakePreviews{art: "@@ART@@"}

	m := loaded(t, Options{Lister: lister, Previews: previews})
	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Loading image...")

	m = deliver(m, cmd)
	assert.Equal(t, []string{withThumb.ThumbnailURL}, previews.rendered)
	assert.Contains(t, m.View(), "@@ART@@")
}

func TestPreviewFailureShowsPlaceholder(t *testing.T) {
	withThumb := recipe("00000001000001", "Toast")
	withThumb.ThumbnailURL = "http://example.com/thumbnails/00000001000001.webp"
	lister := &fakeLister{pages: map[string]model.Page{"": {Recipes: []model.Recipe{withThumb}}}}
	previews := &fakePreviews{err: errors.New("unsupported format")}

	m := loaded(t, Options{Lister: lister, Previews: previews})
	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = deliver(m, cmd)
	assert.Contains(t, m.View(), "Image unavailable")
}

func openDraft(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = send(m, keyRunes("a"))
	require.Equal(t, nav.StateAdding, m.machine.State())
	require.NotNil(t, m.form)
	return m
}

// fillDraft types a valid recipe: title, description and three steps.
func fillDraft(t *testing.T, m Model) Model {
	t.Helper()
	m = typeRunes(m, "Tea")
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeRunes(m, "A cup of tea")
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeRunes(m, "Boil water")
	for _, step := range []string{"Steep", "Pour"} {
		m, _ = send(m, tea.KeyMsg{Type: tea.KeyCtrlN})
		m = typeRunes(m, step)
	}
	return m
}

func TestAddOpensDraftWithOneStep(t *testing.T) {
	m := loaded(t, Options{Lister: twoPages()})
	m = openDraft(t, m)

	assert.Equal(t, "/"+nav.AddPath, m.history.Current())
	assert.Len(t, m.machine.Active().Steps, 1)
	assert.Len(t, m.form.steps, 1)
	assert.Contains(t, m.View(), "Need a title and description to submit.")
}

func TestFormEditsReachDraft(t *testing.T) {
	m := loaded(t, Options{Lister: twoPages()})
	m = fillDraft(t, openDraft(t, m))

	active := m.machine.Active()
	assert.Equal(t, "Tea", active.Title)
	assert.Equal(t, "A cup of tea", active.Description)
	assert.Equal(t, []string{"Boil water", "Steep", "Pour"}, active.Steps)
	assert.Contains(t, m.View(), "Ready. Press ctrl+s to submit.")

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.Equal(t, []string{"Boil water", "Steep"}, m.machine.Active().Steps)
	assert.Len(t, m.form.steps, 2)
	assert.Contains(t, m.View(), "Need at least three steps to submit.")
}

func TestSubmitRefusedWhileInvalid(t *testing.T) {
	s := &fakeSubmitter{id: "00000009abcdef"}
	m := loaded(t, Options{Lister: twoPages(), Submitter: s})
	m = openDraft(t, m)
	m = typeRunes(m, "Tea")

	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.False(t, m.submitting)
	assert.Zero(t, s.calls)
}

func TestSubmitSuccessClosesDraft(t *testing.T) {
	s := &fakeSubmitter{id: "00000009abcdef"}
	m := loaded(t, Options{Lister: twoPages(), Submitter: s})
	m = fillDraft(t, openDraft(t, m))

	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	assert.True(t, m.submitting)
	assert.True(t, m.submitHidden)
	assert.True(t, m.form.submitting)

	// The control stays hidden until the cooldown fires.
	m, again := send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, again)

	m = deliver(m, cmd)
	assert.Equal(t, 1, s.calls)
	assert.Equal(t, "Tea", s.got.Title)
	assert.Equal(t, nav.StateClosed, m.machine.State())
	assert.Zero(t, m.history.Len())
	assert.Equal(t, model.RecipeID("00000009abcdef"), m.store().Order()[0])
	assert.Equal(t, 3, m.store().Len())
	require.NoError(t, m.store().CheckInvariant())

	r, ok := m.recipes.Selected()
	require.True(t, ok)
	assert.Equal(t, model.RecipeID("00000009abcdef"), r.ID)

	assert.True(t, m.toast.visible())
	assert.Equal(t, nav.SavedMessage, m.toast.text)
	assert.Equal(t, nav.LevelSuccess, m.toast.level)
	assert.Contains(t, m.View(), nav.SavedMessage)
}

func TestSubmitBackendErrorKeepsDraft(t *testing.T) {
	s := &fakeSubmitter{err: &api.BackendError{Status: 400, Message: "Invalid MIME type."}}
	m := loaded(t, Options{Lister: twoPages(), Submitter: s})
	m = fillDraft(t, openDraft(t, m))

	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = deliver(m, cmd)

	assert.Equal(t, nav.StateAdding, m.machine.State())
	assert.Equal(t, "Tea", m.machine.Active().Title)
	assert.Equal(t, 2, m.store().Len())
	assert.False(t, m.submitting)
	assert.False(t, m.form.submitting)
	assert.Equal(t, "Invalid MIME type.", m.toast.text)
	assert.Equal(t, nav.LevelWarn, m.toast.level)
}

func TestStaleSubmissionMergesWithoutClosing(t *testing.T) {
	m := loaded(t, Options{Lister: twoPages()})
	m = openDraft(t, m)
	oldGen := m.machine.Generation()

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, nav.StateClosed, m.machine.State())
	m = openDraft(t, m)
	require.NotEqual(t, oldGen, m.machine.Generation())

	created := recipe("00000009abcdef", "Old draft")
	m, _ = send(m, model.SubmissionDoneMsg{Generation: oldGen, Recipe: created})

	assert.Equal(t, nav.StateAdding, m.machine.State())
	assert.True(t, m.store().Has(created.ID))
	assert.False(t, m.toast.visible())

	m, _ = send(m, model.SubmissionFailedMsg{Generation: oldGen, Message: "late failure"})
	assert.False(t, m.toast.visible())
}

func TestSubmitUploadWarningShown(t *testing.T) {
	m := loaded(t, Options{Lister: twoPages()})
	m = openDraft(t, m)
	gen := m.machine.Generation()

	m, _ = send(m, model.SubmissionDoneMsg{
		Generation: gen,
		Recipe:     recipe("00000009abcdef", "Tea"),
		Warning:    "thumbnail upload failed",
	})
	assert.Equal(t, nav.StateClosed, m.machine.State())
	assert.Contains(t, m.View(), "thumbnail upload failed")
}

func TestAttachmentAcceptedAndRejected(t *testing.T) {
	images := model.RecipeImages{
		Image:     &model.ImageMeta{Blob: []byte("large"), Size: 2048, ContentHash: "a"},
		Thumbnail: &model.ImageMeta{Blob: []byte("small"), Size: 512, ContentHash: "b"},
	}
	m := loaded(t, Options{Lister: twoPages(), Images: fakeLoader{images: images, mime: model.MimeJPEG}})
	m = openDraft(t, m)

	m, _ = send(m, model.AttachmentMsg{Path: "tea.jpg", Images: images, Mime: model.MimeJPEG})
	assert.Equal(t, model.MimeJPEG, m.machine.Active().MimeType)
	assert.Equal(t, 2, m.machine.Images().Count())
	assert.Contains(t, m.View(), "image/jpeg")

	m, _ = send(m, model.AttachmentMsg{Path: "notes.txt", Err: errors.New("unsupported image")})
	assert.Equal(t, model.DefaultMimeType, m.machine.Active().MimeType)
	assert.Zero(t, m.machine.Images().Count())
	assert.Contains(t, m.View(), "Image rejected: unsupported image")
}

func TestAttachFromImageField(t *testing.T) {
	images := model.RecipeImages{
		Image:     &model.ImageMeta{Blob: []byte("large"), Size: 5, ContentHash: "a"},
		Thumbnail: &model.ImageMeta{Blob: []byte("small"), Size: 5, ContentHash: "b"},
	}
	m := loaded(t, Options{Lister: twoPages(), Images: fakeLoader{images: images, mime: model.MimePNG}})
	m = openDraft(t, m)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, m.form.imageField(), m.form.focusedField)
	m = typeRunes(m, "tea.png")

	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m = deliver(m, cmd)
	assert.Equal(t, 2, m.machine.Images().Count())
	assert.Equal(t, model.MimePNG, m.machine.Active().MimeType)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Zero(t, m.machine.Images().Count())
	assert.Empty(t, m.form.imagePath.Value())
}

func TestAttachmentIgnoredAfterClose(t *testing.T) {
	m := loaded(t, Options{Lister: twoPages()})
	m = openDraft(t, m)
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEsc})

	m, _ = send(m, model.AttachmentMsg{Path: "late.png", Mime: model.MimePNG})
	assert.Equal(t, nav.StateClosed, m.machine.State())
	assert.Nil(t, m.form)
}

func TestToastExpiryMatchesID(t *testing.T) {
	var tt toast
	tt.arm("first", nav.LevelInfo, time.Millisecond)
	tt.arm("second", nav.LevelWarn, time.Millisecond)

	tt.expire(1)
	assert.Equal(t, "second", tt.text)
	tt.expire(2)
	assert.False(t, tt.visible())
}

func TestHelpToggle(t *testing.T) {
	m := loaded(t, Options{Lister: twoPages()})
	m, _ = send(m, keyRunes("?"))
	assert.True(t, m.showingHelp)
	assert.Contains(t, m.View(), "Load more recipes")

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showingHelp)
}

func TestSubmitCmdMapsErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&api.BackendError{Message: "Required keys not found."}, "Required keys not found."},
		{fmt.Errorf("decode: %w", api.ErrMalformedResponse), api.InvalidRequestMessage},
		{errors.New("connection reset"), api.UnreachableMessage},
		{submit.ErrInvalidDraft, submit.ErrInvalidDraft.Error()},
	}
	for _, tt := range tests {
		msg := submitCmd(&fakeSubmitter{err: tt.err}, recipe("", "x"), model.RecipeImages{}, 7)()
		failed, ok := msg.(model.SubmissionFailedMsg)
		require.True(t, ok)
		assert.Equal(t, uint64(7), failed.Generation)
		assert.Equal(t, tt.want, failed.Message)
	}
}
