package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"reci/internal/model"
)

// RenderHelp renders context-sensitive help footer.
func RenderHelp(screen model.Screen, width int) string {
	switch screen {
	case model.ScreenRecipeForm:
		return renderFormHelp(width)
	case model.ScreenRecipeDetail:
		return renderRecipeDetailHelp(width)
	default:
		return renderRecipesHelp(width)
	}
}

func renderRecipesHelp(width int) string {
	keys := []string{
		helpKey("j/k", "navigate"),
		helpKey("enter", "read"),
		helpKey("a", "add recipe"),
		helpKey("m", "load more"),
		helpKey("?", "help"),
		helpKey("q", "quit"),
	}
	return renderHelpLine(keys, width)
}

func renderRecipeDetailHelp(width int) string {
	keys := []string{
		helpKey("h/esc", "back"),
		helpKey("x", "close"),
		helpKey("j/k", "scroll"),
	}
	return renderHelpLine(keys, width)
}

func renderFormHelp(width int) string {
	keys := []string{
		helpKey("tab", "next field"),
		helpKey("ctrl+n/ctrl+x", "add/remove step"),
		helpKey("ctrl+o", "browse image"),
		helpKey("ctrl+s", "submit"),
		helpKey("esc", "cancel"),
	}
	return renderHelpLine(keys, width)
}

func helpKey(key, desc string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(desc)
}

func renderHelpLine(keys []string, width int) string {
	line := strings.Join(keys, "  ")
	return FooterStyle.Width(width).Render(line)
}

// RenderFullHelp renders the full help screen.
func RenderFullHelp(width, height int) string {
	content := lipgloss.NewStyle().
		Width(width-4).
		Height(height-6).
		Padding(1, 2)

	sections := []string{
		titleSection("Catalog"),
		helpSection([]helpItem{
			{"j / ↓", "Move down"},
			{"k / ↑", "Move up"},
			{"gg", "Jump to top"},
			{"G", "Jump to bottom"},
			{"ctrl+d", "Half page down"},
			{"ctrl+u", "Half page up"},
			{"l / → / enter", "Read recipe"},
			{"m", "Load more recipes"},
			{"a", "Add a recipe"},
			{"q", "Quit"},
			{"?", "Toggle help"},
		}),
		titleSection("Recipe"),
		helpSection([]helpItem{
			{"h / ← / b / esc", "Back"},
			{"x", "Close"},
			{"j / k", "Scroll"},
		}),
		titleSection("Add Recipe"),
		helpSection([]helpItem{
			{"tab / shift+tab", "Next / previous field"},
			{"ctrl+n", "Add a step"},
			{"ctrl+x", "Remove the last step"},
			{"enter", "Attach the image path (image field)"},
			{"ctrl+o", "Browse for an image"},
			{"ctrl+r", "Remove the image"},
			{"ctrl+s", "Submit"},
			{"esc", "Cancel"},
		}),
	}

	helpText := content.Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.Width(width).Render("Help"),
		helpText,
		FooterStyle.Width(width).Render(HelpKeyStyle.Render("esc")+" "+HelpDescStyle.Render("close help")),
	)
}

type helpItem struct {
	key  string
	desc string
}

func titleSection(title string) string {
	return LabelStyle.Render(title)
}

func helpSection(items []helpItem) string {
	var lines []string
	for _, item := range items {
		lines = append(lines, "  "+HelpKeyStyle.Render(item.key)+" - "+HelpDescStyle.Render(item.desc))
	}
	return strings.Join(lines, "\n")
}
