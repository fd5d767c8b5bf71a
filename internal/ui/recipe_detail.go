package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reci/internal/model"
	"reci/internal/util"
)

// Preview size in terminal cells.
const (
	previewWidth  = 40
	previewHeight = 16
)

type previewState int

const (
	previewNone previewState = iota
	previewLoading
	previewReady
	previewFailed
)

// RecipeDetailModel is the read-only pane for one recipe.
type RecipeDetailModel struct {
	recipe   model.Recipe
	viewport viewport.Model
	preview  string
	state    previewState
}

// NewRecipeDetailModel creates the pane. A recipe with a thumbnail starts in
// the loading state until SetPreview is called.
func NewRecipeDetailModel(r model.Recipe) *RecipeDetailModel {
	m := &RecipeDetailModel{
		recipe:   r,
		viewport: viewport.New(0, 0),
	}
	if r.ThumbnailURL != "" {
		m.state = previewLoading
	}
	return m
}

// RecipeID returns the id of the displayed recipe.
func (m *RecipeDetailModel) RecipeID() model.RecipeID {
	return m.recipe.ID
}

// SetPreview records a rendered thumbnail for url. Results for another
// thumbnail are ignored.
func (m *RecipeDetailModel) SetPreview(url, art string, err error) {
	if url != m.recipe.ThumbnailURL {
		return
	}
	if err != nil || art == "" {
		m.state = previewFailed
		m.preview = ""
		return
	}
	m.state = previewReady
	m.preview = art
}

// Update scrolls the pane.
func (m *RecipeDetailModel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

// View renders the recipe.
func (m *RecipeDetailModel) View(width, height int) string {
	shortcuts := HelpDescStyle.Render("h back  x close  j/k scroll")
	header := lipgloss.NewStyle().
		Width(width - 4).
		Align(lipgloss.Right).
		Render(shortcuts)

	inner := max(20, width-8)
	m.viewport.Width = inner
	m.viewport.Height = max(3, height-5)
	m.viewport.SetContent(m.body(inner))

	content := PanelStyle.
		Width(width - 4).
		Render(m.viewport.View())

	return lipgloss.JoinVertical(lipgloss.Left, header, content)
}

func (m *RecipeDetailModel) body(width int) string {
	r := m.recipe
	var sections []string

	sections = append(sections, LabelStyle.Render(r.Title))
	sections = append(sections, lipgloss.NewStyle().Width(width).Render(NormalRowStyle.Render(r.Description)))

	divider := lipgloss.NewStyle().
		Foreground(ColorMuted).
		Render(strings.Repeat("─", max(0, width-2)))
	sections = append(sections, divider)

	sections = append(sections, LabelStyle.Render(util.FormatCount(len(r.Steps), "step")+":"))
	var steps []string
	for i, s := range r.Steps {
		line := HelpKeyStyle.Render(fmt.Sprintf("%2d.", i+1)) + " " + NormalRowStyle.Render(s)
		steps = append(steps, lipgloss.NewStyle().Width(width).Render(line))
	}
	sections = append(sections, strings.Join(steps, "\n"))

	sections = append(sections, divider)
	sections = append(sections, m.renderPreview())

	return strings.Join(sections, "\n\n")
}

func (m *RecipeDetailModel) renderPreview() string {
	switch m.state {
	case previewLoading:
		return HelpDescStyle.Render("Loading image...")
	case previewReady:
		return PreviewStyle.Render(m.preview)
	case previewFailed:
		return HelpDescStyle.Render("Image unavailable")
	default:
		return HelpDescStyle.Render("No image")
	}
}
