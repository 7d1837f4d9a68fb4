package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFresh(t *testing.T, workingDir string) *Config {
	t.Helper()
	Reset()
	t.Cleanup(Reset)
	cfg, err := Load(workingDir, false)
	require.NoError(t, err)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfg := loadFresh(t, dir)
	assert.Equal(t, dir, cfg.WorkingDir)
	assert.Equal(t, defaultDiagnosticTimeout, cfg.LSPDiagnosticTimeout)
	assert.False(t, cfg.DisableLSP)
	assert.NotNil(t, cfg.LSP)
}

func TestLoadIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfg := loadFresh(t, dir)
	again, err := Load(filepath.Join(dir, "elsewhere"), true)
	require.NoError(t, err)
	assert.Same(t, cfg, again)
}

func TestLoadLocalConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	project := t.TempDir()
	local := `{
		"lspDiagnosticTimeout": 250,
		"lsp": {
			"gopls": {"disabled": true},
			"mylang": {"command": "mylang-ls", "extensions": [".myl"]}
		}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(project, ".quill"), []byte(local), 0o644))

	cfg := loadFresh(t, project)
	assert.Equal(t, 250, cfg.LSPDiagnosticTimeout)
	assert.True(t, cfg.LSP["gopls"].Disabled)
	assert.Equal(t, "mylang-ls", cfg.LSP["mylang"].Command)
	assert.Equal(t, []string{".myl"}, cfg.LSP["mylang"].Extensions)
}

func TestDisableLSPDownloadEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("QUILL_DISABLE_LSP_DOWNLOAD", "true")

	cfg := loadFresh(t, dir)
	assert.True(t, cfg.DisableLSPDownload)
}

func TestWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfg := loadFresh(t, dir)
	assert.Equal(t, dir, cfg.WorkingDirectory())
	assert.Equal(t, dir, WorkingDirectory())
}
