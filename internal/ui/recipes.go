package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"reci/internal/model"
	"reci/internal/util"
)

type recipeColumn struct {
	label string
	width int
}

var recipeColumns = []recipeColumn{
	{label: "title", width: 28},
	{label: "steps", width: 7},
	{label: "image", width: 8},
	{label: "description", width: 30},
}

// RecipesModel is the catalog list, in store display order.
type RecipesModel struct {
	rows    []model.Recipe
	cursor  int
	offset  int
	visible int
}

// NewRecipesModel creates an empty list.
func NewRecipesModel() *RecipesModel {
	return &RecipesModel{visible: 10}
}

// SetRows replaces the rows, keeping the cursor on the selected recipe when it
// is still present.
func (m *RecipesModel) SetRows(rows []model.Recipe) {
	var selected model.RecipeID
	if r, ok := m.Selected(); ok {
		selected = r.ID
	}
	m.rows = rows
	if selected != "" {
		for i, r := range rows {
			if r.ID == selected {
				m.cursor = i
				break
			}
		}
	}
	m.clampCursor()
}

// SetHeight sets how many rows fit on screen.
func (m *RecipesModel) SetHeight(rows int) {
	if rows < 1 {
		rows = 1
	}
	m.visible = rows
	m.clampCursor()
}

// Selected returns the recipe under the cursor.
func (m *RecipesModel) Selected() (model.Recipe, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return model.Recipe{}, false
	}
	return m.rows[m.cursor], true
}

// Len returns the number of rows.
func (m *RecipesModel) Len() int {
	return len(m.rows)
}

func (m *RecipesModel) clampCursor() {
	if len(m.rows) == 0 {
		m.cursor = 0
		m.offset = 0
		return
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.offset > m.cursor {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.visible {
		m.offset = m.cursor - m.visible + 1
	}
}

// View renders the list. footer is shown under the rows.
func (m *RecipesModel) View(width, height int, footer string) string {
	if len(m.rows) == 0 {
		emptyMsg := `    No recipes yet.
    Press  a  to add the first one.`
		return lipgloss.JoinVertical(
			lipgloss.Left,
			EmptyStateStyle.Width(width).Render(emptyMsg),
			footer,
		)
	}

	widths := make([]int, len(recipeColumns))
	headers := make([]string, len(recipeColumns))
	total := 0
	for i, col := range recipeColumns {
		widths[i] = col.width
		headers[i] = strings.ToUpper(col.label)
		total += col.width
	}
	if extra := width - total - 4; extra > 0 {
		widths[len(widths)-1] += extra
	}

	header := renderTableRow(headers, widths, TableHeaderStyle)

	m.SetHeight(height - 4)
	var rows []string
	for i := m.offset; i < len(m.rows) && i < m.offset+m.visible; i++ {
		r := m.rows[i]
		style := NormalRowStyle
		if i%2 == 1 {
			style = style.Background(ColorStripe)
		}
		if i == m.cursor {
			style = SelectedRowStyle
		}

		image := "—"
		if r.ImageURL != "" {
			image = strings.TrimPrefix(string(r.MimeType), "image/")
		}
		cells := []string{
			util.TruncateString(r.Title, widths[0]-2),
			fmt.Sprintf("%d", len(r.Steps)),
			image,
			util.TruncateString(util.SingleLine(r.Description), widths[3]-2),
		}
		rows = append(rows, renderTableRow(cells, widths, style))
	}

	status := StatusBarStyle.Render(fmt.Sprintf("Recipes: %d  ·  %d/%d", len(m.rows), m.cursor+1, len(m.rows)))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		strings.Join(rows, "\n"),
		"",
		status,
		footer,
	)
}

// MoveDown moves the cursor down.
func (m *RecipesModel) MoveDown() {
	if m.cursor < len(m.rows)-1 {
		m.cursor++
		m.clampCursor()
	}
}

// MoveUp moves the cursor up.
func (m *RecipesModel) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
		m.clampCursor()
	}
}

// JumpToTop jumps to the first item.
func (m *RecipesModel) JumpToTop() {
	m.cursor = 0
	m.offset = 0
}

// JumpToBottom jumps to the last item.
func (m *RecipesModel) JumpToBottom() {
	if len(m.rows) > 0 {
		m.cursor = len(m.rows) - 1
		m.clampCursor()
	}
}

// HalfPageDown moves down half a page.
func (m *RecipesModel) HalfPageDown() {
	m.cursor += max(1, m.visible/2)
	m.clampCursor()
}

// HalfPageUp moves up half a page.
func (m *RecipesModel) HalfPageUp() {
	m.cursor -= max(1, m.visible/2)
	m.clampCursor()
}

func renderTableRow(cells []string, widths []int, style lipgloss.Style) string {
	var parts []string
	for i, cell := range cells {
		if i >= len(widths) {
			continue
		}
		parts = append(parts, style.Width(widths[i]).Render(cell))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}
