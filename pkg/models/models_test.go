package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	assert.Equal(t, []string{"claude-sonnet-4", "claude-opus-4", "gpt-4", "gpt-3.5-turbo"}, c.IDs())
	assert.Equal(t, "claude-sonnet-4", c.First().ID)

	m, ok := c.Get("gpt-4")
	require.True(t, ok)
	assert.Equal(t, "GPT-4", m.Short)
	assert.Len(t, m.Replies, 3)

	for _, m := range c.Models {
		assert.NotEmpty(t, m.Replies, m.ID)
		assert.True(t, strings.HasPrefix(m.Color, "#"), m.ID)
	}
}

func TestLookupFallsBackToFirst(t *testing.T) {
	c := Default()
	assert.Equal(t, "claude-sonnet-4", c.Lookup("llama").ID)
	assert.Equal(t, "claude-opus-4", c.Lookup("claude-opus-4").ID)
}

func TestNextWraps(t *testing.T) {
	c := Default()
	assert.Equal(t, "claude-opus-4", c.Next("claude-sonnet-4").ID)
	assert.Equal(t, "claude-sonnet-4", c.Next("gpt-3.5-turbo").ID)
	assert.Equal(t, "claude-sonnet-4", c.Next("unknown").ID)
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	_, err := Parse([]byte("models: []"))
	assert.Error(t, err)

	_, err = Parse([]byte("models:\n  - id: a\n  - id: a\n"))
	assert.Error(t, err)

	_, err = Read(strings.NewReader("models:\n  - name: nameless\n"))
	assert.Error(t, err)

	c, err := Read(strings.NewReader("models:\n  - id: local\n    short: Local\n"))
	require.NoError(t, err)
	assert.Equal(t, "local", c.First().ID)
}

func TestLoadEmptyPathIsDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Len(t, c.Models, 4)

	_, err = Load("/nonexistent/models.yaml")
	assert.Error(t, err)
}
