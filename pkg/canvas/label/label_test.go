package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	for _, tc := range []struct {
		span string
		want string
	}{
		{"the quick brown fox", "the quick brown"},
		{"a b c", Placeholder},
		{"a an at", Placeholder},
		{"Hello, wonderful world of testing!", "Hello wonderful worl..."},
		{"", Placeholder},
		{"!!! ??", Placeholder},
		{"internationalization considerations matter", "internationalization..."},
		{"neural-network, training; data", "neural network train..."},
		{"  Go is fun  ", "fun"},
		{"x1 y22 z333", "y22 z333"},
		{"snake_case_words rock", "snake_case_words roc..."},
	} {
		t.Run(tc.span, func(t *testing.T) {
			assert.Equal(t, tc.want, Derive(tc.span))
		})
	}
}

func TestDeriveNeverExceedsLimit(t *testing.T) {
	got := Derive("abcdefghijklmnopqrstuvwxyz abcdefghijklmnopqrstuvwxyz")
	assert.Equal(t, "abcdefghijklmnopqrst...", got)
	assert.LessOrEqual(t, len(got), maxLength+len(ellipsis))
}

func TestSelectable(t *testing.T) {
	assert.False(t, Selectable("abc"))
	assert.False(t, Selectable("   ab   "))
	assert.True(t, Selectable("abcd"))
	assert.False(t, Selectable(" a b "))
	assert.True(t, Selectable(" ab cd "))
}

func TestSibling(t *testing.T) {
	assert.Equal(t, "Branch 1", Sibling(1))
	assert.Equal(t, "Branch 12", Sibling(12))
}
