package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDirectoryPayloads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.bin"), []byte("bravo"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.dat"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("nope"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	payloads, err := LoadDirectoryPayloads(dir)

	require.NoError(t, err)
	require.Len(t, payloads, 2)
	assert.Equal(t, []byte("alpha"), payloads[0].Data)
	assert.Equal(t, []byte("bravo"), payloads[1].Data)
}

func TestLoadDirectoryPayloadsMissingDir(t *testing.T) {
	_, err := LoadDirectoryPayloads("/nonexistent/corpus")
	assert.Error(t, err)
}
