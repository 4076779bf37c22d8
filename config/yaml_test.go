package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAMLFlattensNestedMaps(t *testing.T) {
	doc := []byte(`
lightstrategy:
  type: DLSCACHE
  dlscache:
    entry:
      radius: 0.15
      maxsamplecount: 16000
photongi:
  indirect:
    enabled: true
`)
	p, err := LoadYAML(doc)
	require.NoError(t, err)

	assert.Equal(t, "DLSCACHE", p.GetString("lightstrategy.type", ""))
	assert.InDelta(t, 0.15, p.GetFloat("lightstrategy.dlscache.entry.radius", 0), 1e-6)
	assert.Equal(t, 16000, p.GetInt("lightstrategy.dlscache.entry.maxsamplecount", 0))
	assert.True(t, p.GetBool("photongi.indirect.enabled", false))
}

func TestLoadYAMLRejectsMalformedDocument(t *testing.T) {
	_, err := LoadYAML([]byte("lightstrategy: [unterminated"))
	assert.Error(t, err)
}

func TestLoadYAMLFileReadsFromDisk(t *testing.T) {
	path := t.TempDir() + "/scene.yaml"
	require.NoError(t, os.WriteFile(path, []byte("lightstrategy:\n  type: power\n"), 0o644))

	p, err := LoadYAMLFile(path)
	require.NoError(t, err)
	assert.Equal(t, "power", p.GetString("lightstrategy.type", ""))
}

func TestLoadYAMLFileMissingReturnsError(t *testing.T) {
	_, err := LoadYAMLFile(t.TempDir() + "/does-not-exist.yaml")
	assert.Error(t, err)
}
