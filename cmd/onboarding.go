package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reci/internal/config"
)

type onboardingStep int

const (
	stepListURL onboardingStep = iota
	stepCreateURL
	stepDone
)

type onboardingModel struct {
	step      onboardingStep
	listIn    textinput.Model
	createIn  textinput.Model
	listURL   string
	createURL string
	canceled  bool
	status    string
	width     int
	height    int
}

var (
	obColorMuted  = lipgloss.Color("#8C8275")
	obColorText   = lipgloss.Color("#E6DCCB")
	obColorAccent = lipgloss.Color("#D9895B")
	obColorDanger = lipgloss.Color("#f38ba8")

	obTitleStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true)

	obHeaderStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(obColorMuted)

	obTabsStyle = lipgloss.NewStyle().
			Padding(0, 2).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(obColorMuted)

	obTabInactive = lipgloss.NewStyle().
			Foreground(obColorMuted).
			Padding(0, 2)

	obTabActive = lipgloss.NewStyle().
			Foreground(obColorText).
			Bold(true).
			Underline(true).
			Padding(0, 2)

	obPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(obColorMuted).
			Padding(1, 2)

	obInputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(obColorAccent).
			Padding(0, 1)

	obLabelStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true)

	obMutedStyle = lipgloss.NewStyle().
			Foreground(obColorMuted)

	obWarnStyle = lipgloss.NewStyle().
			Foreground(obColorDanger)

	obFooterStyle = lipgloss.NewStyle().
			Foreground(obColorMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(obColorMuted)
)

func newURLInput(placeholder, prompt, value string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 2048
	in.Prompt = prompt
	in.SetValue(value)
	in.TextStyle = lipgloss.NewStyle().Foreground(obColorText)
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(obColorMuted)
	in.Cursor.Style = lipgloss.NewStyle().Foreground(obColorText).Background(obColorAccent)
	return in
}

func newOnboardingModel(cfg *config.Config) onboardingModel {
	listIn := newURLInput("https://example.com/recipes", "GET  > ", cfg.API.ListURL)
	createIn := newURLInput("https://example.com/recipes", "POST > ", cfg.API.CreateURL)

	m := onboardingModel{
		listIn:   listIn,
		createIn: createIn,
	}
	if cfg.API.ListURL != "" {
		m.listURL = cfg.API.ListURL
		m.step = stepCreateURL
		m.createIn.Focus()
	} else {
		m.listIn.Focus()
	}
	return m
}

// validateEndpoint accepts absolute http(s) URLs.
func validateEndpoint(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("enter a URL")
	}
	if err := config.ValidateEndpoint(raw); err != nil {
		return "", err
	}
	return raw, nil
}

func (m onboardingModel) Init() tea.Cmd { return textinput.Blink }

func (m onboardingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.canceled = true
			m.status = "Setup canceled. No endpoints were saved."
			m.step = stepDone
			return m, tea.Quit
		}

		switch m.step {
		case stepListURL:
			if msg.String() == "enter" {
				v, err := validateEndpoint(m.listIn.Value())
				if err != nil {
					m.status = err.Error()
					return m, nil
				}
				m.listURL = v
				m.status = ""
				m.step = stepCreateURL
				m.listIn.Blur()
				if m.createIn.Value() == "" {
					m.createIn.SetValue(v)
				}
				return m, m.createIn.Focus()
			}
			var cmd tea.Cmd
			m.listIn, cmd = m.listIn.Update(msg)
			return m, cmd
		case stepCreateURL:
			switch msg.String() {
			case "enter":
				v, err := validateEndpoint(m.createIn.Value())
				if err != nil {
					m.status = err.Error()
					return m, nil
				}
				m.createURL = v
				m.status = "Endpoints saved."
				m.step = stepDone
				return m, tea.Quit
			case "shift+tab":
				m.step = stepListURL
				m.status = ""
				m.createIn.Blur()
				return m, m.listIn.Focus()
			}
			var cmd tea.Cmd
			m.createIn, cmd = m.createIn.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m onboardingModel) View() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 28
	}

	header := m.renderHeader(width)
	tabs := m.renderTabs(width)
	footer := m.renderFooter(width)

	contentHeight := max(8, height-6)
	content := m.renderContent(width, contentHeight)
	view := lipgloss.JoinVertical(lipgloss.Left, header, tabs, content, footer)

	return lipgloss.NewStyle().
		Foreground(obColorText).
		Width(width).
		Height(height).
		Render(view)
}

func (m onboardingModel) renderHeader(width int) string {
	left := "  " + obTitleStyle.Render("reci") + " " + obMutedStyle.Render("› Setup")
	right := obMutedStyle.Render(time.Now().Format("Mon 02 Jan")) + "  "
	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return obHeaderStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m onboardingModel) renderTabs(width int) string {
	listTab := obTabInactive.Render("Catalog URL")
	createTab := obTabInactive.Render("Submit URL")
	if m.step == stepListURL {
		listTab = obTabActive.Render("Catalog URL")
	}
	if m.step == stepCreateURL {
		createTab = obTabActive.Render("Submit URL")
	}
	return obTabsStyle.Width(width).Render(lipgloss.JoinHorizontal(lipgloss.Left, "  ", listTab, createTab))
}

func (m onboardingModel) renderFooter(width int) string {
	switch m.step {
	case stepListURL:
		return obFooterStyle.Width(width).Render("enter next  esc cancel")
	case stepCreateURL:
		return obFooterStyle.Width(width).Render("enter save  shift+tab back  esc cancel")
	default:
		return obFooterStyle.Width(width).Render("Setup complete")
	}
}

func (m onboardingModel) renderContent(width, height int) string {
	cardWidth := min(92, width-6)
	if cardWidth < 40 {
		cardWidth = width - 2
	}
	inputWidth := max(30, cardWidth-14)

	var status string
	if m.status != "" {
		status = obWarnStyle.Render(m.status)
	}

	var body string
	switch m.step {
	case stepListURL:
		body = lipgloss.JoinVertical(
			lipgloss.Left,
			obLabelStyle.Render("Where is the recipe catalog?"),
			"",
			obMutedStyle.Render("The URL that lists recipes (GET). Run 'reci serve' for a local one."),
			"",
			obInputStyle.Width(inputWidth).Render(m.listIn.View()),
			"",
			status,
		)
	case stepCreateURL:
		body = lipgloss.JoinVertical(
			lipgloss.Left,
			obLabelStyle.Render("Where are new recipes submitted?"),
			"",
			obMutedStyle.Render("The URL that accepts new recipes (POST). Often the same as the catalog."),
			"",
			obInputStyle.Width(inputWidth).Render(m.createIn.View()),
			"",
			status,
			obMutedStyle.Render("You can change these later with 'reci config show' and your config file."),
		)
	default:
		msg := obMutedStyle.Render(m.status)
		if m.canceled {
			msg = obWarnStyle.Render(m.status)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, obLabelStyle.Render("Onboarding Complete"), "", msg)
	}

	card := obPanelStyle.Width(cardWidth).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, card)
}

// runOnboarding asks for the endpoints and saves them to path.
func runOnboarding(cfg *config.Config, path string) error {
	prog := tea.NewProgram(newOnboardingModel(cfg), tea.WithAltScreen())
	finalModel, err := prog.Run()
	if err != nil {
		return fmt.Errorf("onboarding tui failed: %w", err)
	}
	m, ok := finalModel.(onboardingModel)
	if !ok {
		return fmt.Errorf("unexpected onboarding model type")
	}
	if m.canceled || m.listURL == "" || m.createURL == "" {
		return nil
	}
	return applyEndpoints(cfg, path, m.listURL, m.createURL)
}

func applyEndpoints(cfg *config.Config, path, listURL, createURL string) error {
	cfg.API.ListURL = listURL
	cfg.API.CreateURL = createURL
	if path == "" {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("determine default config path: %w", err)
		}
		path = defaultPath
	}
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("save endpoints: %w", err)
	}
	return nil
}
