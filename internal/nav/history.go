package nav

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// History is the navigation stack. Each entry is the path segment shown in
// the header while its pane is open.
type History struct {
	entries []string
}

func (h *History) Push(path string) {
	h.entries = append(h.entries, path)
}

// Pop removes and returns the newest entry.
func (h *History) Pop() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	last := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return last, true
}

// Current returns the displayed path, "/" when nothing is open.
func (h *History) Current() string {
	if len(h.entries) == 0 {
		return "/"
	}
	return "/" + h.entries[len(h.entries)-1]
}

func (h *History) Len() int {
	return len(h.entries)
}

// Slug turns a recipe title into a path segment: diacritics stripped,
// lowercased, words joined with "-".
func Slug(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, title)
	if err != nil {
		plain = title
	}
	words := strings.FieldsFunc(strings.ToLower(plain), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return "recipe"
	}
	return strings.Join(words, "-")
}
