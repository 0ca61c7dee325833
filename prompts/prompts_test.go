package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbedded(t *testing.T) {
	assert.NotEmpty(t, Search)
	assert.NotEmpty(t, Summarize)

	for _, want := range []string{"STAGE 1", "STAGE 2", "STAGE 3", "-10 points", "-20", "300 words", "debug_code", "run_code"} {
		assert.Contains(t, Assistant, want)
	}
}
