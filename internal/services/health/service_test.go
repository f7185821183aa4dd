package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	assert.Equal(t, map[string]any{"ok": true, "service": "research-agent"}, NewService("research-agent").Status())
	assert.Equal(t, map[string]any{"ok": true}, NewService("").Status())
}
