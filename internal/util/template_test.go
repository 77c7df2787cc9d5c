package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("سوال نمبر {{.Number}}: {{.Text}}", map[string]any{"Number": 2, "Text": "ok"})
	require.NoError(t, err)
	assert.Equal(t, "سوال نمبر 2: ok", out)
}

func TestRenderTemplate_FastPath(t *testing.T) {
	out, err := RenderTemplate("no markers here", nil)
	require.NoError(t, err)
	assert.Equal(t, "no markers here", out)
}

func TestRenderTemplate_ParseError(t *testing.T) {
	_, err := RenderTemplate("broken {{.Name", nil)
	assert.Error(t, err)
}
