package cleaner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("ab"))
	assert.Equal(t, 3, EstimateTokens("123456789"))
	assert.Equal(t, 1, EstimateTokens("日本語の文"))
}

func TestTruncateToTokens(t *testing.T) {
	text := strings.Repeat("line of text\n", 100)

	out := TruncateToTokens(text, 50)

	assert.LessOrEqual(t, EstimateTokens(out), 50)
	assert.True(t, strings.HasSuffix(out, "line of text"))
	assert.Equal(t, text, TruncateToTokens(text, 10000))
	assert.Equal(t, "", TruncateToTokens(text, 0))
}
