package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("LLM_GATEWAY_URL", "https://llm.example/v1/chat")
	t.Setenv("TRANSCRIBE_URL", "https://stt.example")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "")
	t.Setenv("SEARCH_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 15*time.Second, cfg.SearchTimeout)
	assert.Equal(t, "gpt-4o-mini", cfg.CompletionModel)
}

func TestLoadRequiresProviders(t *testing.T) {
	t.Setenv("LLM_GATEWAY_URL", "")
	t.Setenv("TRANSCRIBE_URL", "https://stt.example")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("LLM_GATEWAY_URL", "https://llm.example")
	t.Setenv("TRANSCRIBE_URL", "")
	_, err = Load()
	assert.Error(t, err)
}

func TestSearchTimeoutForms(t *testing.T) {
	setRequired(t)

	t.Setenv("SEARCH_TIMEOUT", "20s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, cfg.SearchTimeout)

	t.Setenv("SEARCH_TIMEOUT", "30")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.SearchTimeout)

	t.Setenv("SEARCH_TIMEOUT", "soon")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.SearchTimeout)
}
