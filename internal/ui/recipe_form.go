package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reci/internal/model"
	"reci/internal/util"
)

// formIntentKind is what the app should do after a form update.
type formIntentKind int

const (
	intentNone formIntentKind = iota
	intentEdit
	intentCancel
	intentSubmit
	intentAttach
	intentAddStep
	intentRemoveStep
	intentClearImage
)

type formIntent struct {
	kind formIntentKind
	path string
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// formStatus is the part of the form view owned by the app.
type formStatus struct {
	warning      string
	submitHidden bool
	submitting   bool
}

// RecipeFormModel is the add-recipe form. It holds the widgets only; the
// draft itself lives in the navigation machine.
type RecipeFormModel struct {
	keys         FormKeyMap
	title        textinput.Model
	description  textarea.Model
	steps        []textinput.Model
	imagePath    textinput.Model
	focusedField int

	picker     filepicker.Model
	browsing   bool
	attaching  bool
	submitting bool
	attachment string
	attachErr  string
	spinner    spinner.Model
}

// NewRecipeFormModel creates an empty form.
func NewRecipeFormModel(keys FormKeyMap) *RecipeFormModel {
	title := textinput.New()
	title.Placeholder = "Recipe title"
	title.CharLimit = 120
	title.Focus()

	description := textarea.New()
	description.Placeholder = "A short description..."
	description.CharLimit = 1000
	description.ShowLineNumbers = false
	description.SetHeight(3)

	imagePath := textinput.New()
	imagePath.Placeholder = "Path to a .jpg, .png or .webp (optional)"
	imagePath.CharLimit = 4096

	picker := filepicker.New()
	picker.AllowedTypes = imageExtensions
	picker.Height = 10
	if wd, err := os.Getwd(); err == nil {
		picker.CurrentDirectory = wd
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &RecipeFormModel{
		keys:        keys,
		title:       title,
		description: description,
		imagePath:   imagePath,
		picker:      picker,
		spinner:     sp,
	}
}

// Values returns the current text of the title, description and steps.
func (m *RecipeFormModel) Values() (title, description string, steps []string) {
	steps = make([]string, len(m.steps))
	for i, s := range m.steps {
		steps[i] = s.Value()
	}
	return m.title.Value(), m.description.Value(), steps
}

// SetStepCount grows or shrinks the step inputs to n.
func (m *RecipeFormModel) SetStepCount(n int) {
	if n == len(m.steps) {
		return
	}
	for len(m.steps) < n {
		in := textinput.New()
		in.Placeholder = fmt.Sprintf("%s step", util.FormatOrdinal(len(m.steps)+1))
		in.CharLimit = 500
		m.steps = append(m.steps, in)
	}
	if len(m.steps) > n {
		m.steps = m.steps[:n]
	}
	m.focus(min(m.focusedField, m.fieldCount()-1))
}

// FocusLastStep moves focus to the newest step input.
func (m *RecipeFormModel) FocusLastStep() {
	if len(m.steps) > 0 {
		m.focus(2 + len(m.steps) - 1)
	}
}

// StartAttaching marks an image load in flight.
func (m *RecipeFormModel) StartAttaching() tea.Cmd {
	m.attaching = true
	m.attachErr = ""
	return m.spinner.Tick
}

// SetSubmitting keeps the spinner running while a submission is in flight.
func (m *RecipeFormModel) SetSubmitting(submitting bool) tea.Cmd {
	m.submitting = submitting
	if !submitting {
		return nil
	}
	return m.spinner.Tick
}

// SetAttachment shows an accepted image pair.
func (m *RecipeFormModel) SetAttachment(path string, images model.RecipeImages, mime model.MimeType) {
	m.attaching = false
	m.attachErr = ""
	m.imagePath.SetValue(path)
	m.attachment = fmt.Sprintf("%s  ·  image %s  ·  thumbnail %s",
		mime, util.FormatBytes(images.Image.Size), util.FormatBytes(images.Thumbnail.Size))
}

// ClearAttachment empties the attachment widget. reason, when set, is shown
// in its place.
func (m *RecipeFormModel) ClearAttachment(reason string) {
	m.attaching = false
	m.attachment = ""
	m.attachErr = reason
	m.imagePath.SetValue("")
}

// Browsing reports whether the file picker is open.
func (m *RecipeFormModel) Browsing() bool {
	return m.browsing
}

func (m *RecipeFormModel) fieldCount() int {
	return 3 + len(m.steps)
}

func (m *RecipeFormModel) imageField() int {
	return 2 + len(m.steps)
}

func (m *RecipeFormModel) focus(i int) {
	m.title.Blur()
	m.description.Blur()
	for j := range m.steps {
		m.steps[j].Blur()
	}
	m.imagePath.Blur()

	if i < 0 {
		i = 0
	}
	m.focusedField = i
	switch {
	case i == 0:
		m.title.Focus()
	case i == 1:
		m.description.Focus()
	case i < m.imageField():
		m.steps[i-2].Focus()
	default:
		m.imagePath.Focus()
	}
}

func (m *RecipeFormModel) nextField() {
	m.focus((m.focusedField + 1) % m.fieldCount())
}

func (m *RecipeFormModel) prevField() {
	i := m.focusedField - 1
	if i < 0 {
		i = m.fieldCount() - 1
	}
	m.focus(i)
}

// Update handles input and reports what the app should do next.
func (m *RecipeFormModel) Update(msg tea.Msg) (tea.Cmd, formIntent) {
	if _, ok := msg.(spinner.TickMsg); ok {
		if !m.attaching && !m.submitting {
			return nil, formIntent{}
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd, formIntent{}
	}

	if m.browsing {
		return m.updatePicker(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, formIntent{}
	}

	switch {
	case key.Matches(keyMsg, m.keys.Cancel):
		return nil, formIntent{kind: intentCancel}
	case key.Matches(keyMsg, m.keys.Submit):
		return nil, formIntent{kind: intentSubmit}
	case key.Matches(keyMsg, m.keys.AddStep):
		return nil, formIntent{kind: intentAddStep}
	case key.Matches(keyMsg, m.keys.RemoveStep):
		return nil, formIntent{kind: intentRemoveStep}
	case key.Matches(keyMsg, m.keys.ClearImage):
		return nil, formIntent{kind: intentClearImage}
	case key.Matches(keyMsg, m.keys.Browse):
		m.browsing = true
		return m.picker.Init(), formIntent{}
	case key.Matches(keyMsg, m.keys.NextField):
		m.nextField()
		return nil, formIntent{}
	case key.Matches(keyMsg, m.keys.PrevField):
		m.prevField()
		return nil, formIntent{}
	case m.focusedField == m.imageField() && key.Matches(keyMsg, m.keys.Attach):
		path := strings.TrimSpace(m.imagePath.Value())
		if path == "" {
			return nil, formIntent{}
		}
		return nil, formIntent{kind: intentAttach, path: path}
	}

	var cmd tea.Cmd
	switch {
	case m.focusedField == 0:
		m.title, cmd = m.title.Update(keyMsg)
	case m.focusedField == 1:
		m.description, cmd = m.description.Update(keyMsg)
	case m.focusedField < m.imageField():
		i := m.focusedField - 2
		m.steps[i], cmd = m.steps[i].Update(keyMsg)
	default:
		m.imagePath, cmd = m.imagePath.Update(keyMsg)
		return cmd, formIntent{}
	}
	return cmd, formIntent{kind: intentEdit}
}

func (m *RecipeFormModel) updatePicker(msg tea.Msg) (tea.Cmd, formIntent) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, m.keys.Cancel) {
		m.browsing = false
		return nil, formIntent{}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.browsing = false
		m.imagePath.SetValue(path)
		return cmd, formIntent{kind: intentAttach, path: path}
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.attachErr = fmt.Sprintf("%s is not a supported image", path)
	}
	return cmd, formIntent{}
}

// View renders the form.
func (m *RecipeFormModel) View(width, height int, status formStatus) string {
	inner := max(20, width-12)
	m.title.Width = inner - 4
	m.description.SetWidth(inner - 4)
	for i := range m.steps {
		m.steps[i].Width = inner - 4
	}
	m.imagePath.Width = inner - 4

	var fields []string
	fields = append(fields, renderFormField("Title *", m.title.View(), m.focusedField == 0))
	fields = append(fields, renderFormField("Description *", m.description.View(), m.focusedField == 1))

	if len(m.steps) == 0 {
		fields = append(fields, HelpDescStyle.Render("No steps yet. Press ctrl+n to add one."))
	}
	for i := range m.steps {
		label := fmt.Sprintf("Step %d", i+1)
		fields = append(fields, renderFormField(label, m.steps[i].View(), m.focusedField == i+2))
	}

	fields = append(fields, m.renderImageField())

	fields = append(fields, "")
	switch {
	case status.submitting:
		fields = append(fields, HelpDescStyle.Render(m.spinner.View()+" Submitting..."))
	case status.warning != "":
		fields = append(fields, WarningStyle.Render(status.warning))
	case status.submitHidden:
		fields = append(fields, HelpDescStyle.Render("Submitted. Please wait..."))
	default:
		fields = append(fields, SuccessStyle.Render("Ready. Press ctrl+s to submit."))
	}

	formContent := strings.Join(fields, "\n")
	if m.browsing {
		picker := ActiveBorderStyle.Render(lipgloss.JoinVertical(
			lipgloss.Left,
			LabelStyle.Render("Choose an image"),
			HelpDescStyle.Render(m.picker.CurrentDirectory),
			m.picker.View(),
		))
		formContent = lipgloss.JoinVertical(lipgloss.Left, formContent, "", picker)
	}

	return PanelStyle.
		Width(width - 4).
		Height(max(3, height-4)).
		Render(formContent)
}

func (m *RecipeFormModel) renderImageField() string {
	focused := m.focusedField == m.imageField()
	lines := []string{m.imagePath.View()}
	switch {
	case m.attaching:
		lines = append(lines, HelpDescStyle.Render(m.spinner.View()+" Resizing image..."))
	case m.attachErr != "":
		lines = append(lines, ErrorStyle.Render(m.attachErr))
	case m.attachment != "":
		lines = append(lines, SuccessStyle.Render(m.attachment))
	}
	return renderFormField("Image", strings.Join(lines, "\n"), focused)
}

func renderFormField(label, input string, focused bool) string {
	style := BorderStyle
	if focused {
		style = ActiveBorderStyle
	}

	field := lipgloss.JoinVertical(
		lipgloss.Left,
		LabelStyle.Render(label),
		input,
	)

	return style.Render(field)
}
