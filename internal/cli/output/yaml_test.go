package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintYAML(t *testing.T) {
	data := struct {
		Mount   string `yaml:"mount"`
		Backend string `yaml:"backend"`
	}{
		Mount:   "/data",
		Backend: "badger",
	}

	var buf bytes.Buffer
	err := PrintYAML(&buf, data)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "mount: /data")
	assert.Contains(t, output, "backend: badger")
}

func TestPrintYAMLArray(t *testing.T) {
	data := []struct {
		Point string `yaml:"point"`
	}{
		{Point: "/"},
		{Point: "/data"},
	}

	var buf bytes.Buffer
	err := PrintYAML(&buf, data)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "- point: /")
	assert.Contains(t, output, "- point: /data")
}

func TestPrintYAMLNested(t *testing.T) {
	data := map[string]any{
		"mounts": map[string]string{"/": "mem"},
	}

	var buf bytes.Buffer
	err := PrintYAML(&buf, data)
	require.NoError(t, err)

	// Two-space indent for the nested map.
	assert.Contains(t, buf.String(), "mounts:\n  /: mem")
}
