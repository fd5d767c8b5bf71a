// Package draft checks a draft recipe before it may be submitted.
package draft

import (
	"strings"

	"reci/internal/model"
)

// MinSteps is the fewest steps a recipe may be submitted with.
const MinSteps = 3

// Warning is the inline message shown instead of the submit control.
type Warning string

const (
	WarnHeader     Warning = "Need a title and description to submit."
	WarnStepCount  Warning = "Need at least three steps to submit."
	WarnEmptySteps Warning = "Instructions must not be empty to submit."
)

// Validate returns the first unmet condition, checked in order: header
// fields, step count, step contents. ok is true when the draft may be sent.
func Validate(r model.Recipe) (w Warning, ok bool) {
	if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Description) == "" {
		return WarnHeader, false
	}
	if len(r.Steps) < MinSteps {
		return WarnStepCount, false
	}
	for _, s := range r.Steps {
		if strings.TrimSpace(s) == "" {
			return WarnEmptySteps, false
		}
	}
	return "", true
}

// AddStep returns steps with an empty step appended.
func AddStep(steps []string) []string {
	out := make([]string, len(steps), len(steps)+1)
	copy(out, steps)
	return append(out, "")
}

// RemoveLastStep returns steps without its final entry.
func RemoveLastStep(steps []string) []string {
	if len(steps) == 0 {
		return []string{}
	}
	return append([]string{}, steps[:len(steps)-1]...)
}

// SetStep returns steps with index i replaced. Out of range indexes return an
// unchanged copy.
func SetStep(steps []string, i int, text string) []string {
	out := append([]string{}, steps...)
	if i >= 0 && i < len(out) {
		out[i] = text
	}
	return out
}
