package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderKnownKeyWithoutArgs(t *testing.T) {
	text := Render(KeySmurfingThresholdAvoidance)
	assert.Contains(t, text, "SMURFING")
}

func TestRenderKnownKeyWithArgsFormats(t *testing.T) {
	text := Render(KeyLargeCumulativeSum, 95000.0)
	assert.True(t, strings.Contains(text, "95000"))
}

func TestRenderUnknownKeyFallsBackToKeyItself(t *testing.T) {
	text := Render("no_such_key")
	assert.Equal(t, "no_such_key", text)
}

func TestRenderThresholdAvoidanceDetailFormatsPercentage(t *testing.T) {
	text := Render(KeyThresholdAvoidanceDetail, 87.5)
	assert.True(t, strings.Contains(text, "87"))
}
