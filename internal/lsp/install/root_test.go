package install

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectRootFindsMarker(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "internal", "deep", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644))

	assert.Equal(t, root, DetectRoot(nested, []string{"go.work", "go.mod"}))
}

func TestDetectRootNearestMarkerWins(t *testing.T) {
	outer := t.TempDir()
	inner := filepath.Join(outer, "sub")
	require.NoError(t, os.MkdirAll(inner, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outer, "go.mod"), []byte("module outer\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inner, "go.mod"), []byte("module inner\n"), 0o644))

	assert.Equal(t, inner, DetectRoot(inner, []string{"go.mod"}))
}

func TestDetectRootFallsBackToStartDir(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, DetectRoot(dir, []string{"definitely-not-present.xyz"}))
}

func TestDetectRootNoMarkers(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, DetectRoot(dir, nil))
}
