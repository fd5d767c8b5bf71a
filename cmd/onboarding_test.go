package cmd

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reci/internal/config"
)

func typeText(m onboardingModel, s string) onboardingModel {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(onboardingModel)
	}
	return m
}

func press(m onboardingModel, k tea.KeyType) onboardingModel {
	next, _ := m.Update(tea.KeyMsg{Type: k})
	return next.(onboardingModel)
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"https://example.com/recipes", false},
		{"  http://127.0.0.1:8910/recipes ", false},
		{"", true},
		{"example.com/recipes", true},
		{"ftp://example.com/recipes", true},
		{"http://", true},
	}
	for _, tt := range tests {
		_, err := validateEndpoint(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
		} else {
			assert.NoError(t, err, tt.in)
		}
	}
}

func TestOnboardingCollectsBothURLs(t *testing.T) {
	cfg := config.Default()
	m := newOnboardingModel(&cfg)
	assert.Equal(t, stepListURL, m.step)

	m = typeText(m, "http://localhost:8910/recipes")
	m = press(m, tea.KeyEnter)
	require.Equal(t, stepCreateURL, m.step)
	assert.Equal(t, "http://localhost:8910/recipes", m.listURL)
	// The submit URL defaults to the catalog URL.
	assert.Equal(t, "http://localhost:8910/recipes", m.createIn.Value())

	m = press(m, tea.KeyEnter)
	assert.Equal(t, stepDone, m.step)
	assert.Equal(t, "http://localhost:8910/recipes", m.createURL)
	assert.False(t, m.canceled)
}

func TestOnboardingRejectsBadURL(t *testing.T) {
	cfg := config.Default()
	m := newOnboardingModel(&cfg)
	m = typeText(m, "not a url")
	m = press(m, tea.KeyEnter)
	assert.Equal(t, stepListURL, m.step)
	assert.NotEmpty(t, m.status)
}

func TestOnboardingCancel(t *testing.T) {
	cfg := config.Default()
	m := newOnboardingModel(&cfg)
	m = press(m, tea.KeyEsc)
	assert.True(t, m.canceled)
	assert.Equal(t, stepDone, m.step)
	assert.Contains(t, m.View(), "Setup canceled")
}

func TestOnboardingSkipsKnownListURL(t *testing.T) {
	cfg := config.Default()
	cfg.API.ListURL = "https://example.com/recipes"
	m := newOnboardingModel(&cfg)
	assert.Equal(t, stepCreateURL, m.step)
	assert.Equal(t, "https://example.com/recipes", m.listURL)
}

func TestApplyEndpointsWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.Default()
	require.NoError(t, applyEndpoints(&cfg, path, "https://a.example/recipes", "https://b.example/recipes"))

	loaded, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, "https://a.example/recipes", loaded.API.ListURL)
	assert.Equal(t, "https://b.example/recipes", loaded.API.CreateURL)
	assert.True(t, loaded.Configured())
}
