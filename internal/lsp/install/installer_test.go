package install

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCommandNoCommand(t *testing.T) {
	_, _, err := ResolveCommand(context.Background(), ServerDefinition{ID: "empty"}, true)
	require.Error(t, err)
}

func TestResolveCommandAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-ls")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

	def := ServerDefinition{ID: "fake", Command: []string{bin, "--stdio"}}
	cmd, args, err := ResolveCommand(context.Background(), def, true)
	require.NoError(t, err)
	assert.Equal(t, bin, cmd)
	assert.Equal(t, []string{"--stdio"}, args)
}

func TestResolveCommandAbsolutePathMissing(t *testing.T) {
	def := ServerDefinition{ID: "fake", Command: []string{filepath.Join(t.TempDir(), "gone")}}
	_, _, err := ResolveCommand(context.Background(), def, true)
	require.Error(t, err)
}

func TestResolveCommandOnPath(t *testing.T) {
	// Something that exists on every CI box.
	def := ServerDefinition{ID: "shell", Command: []string{"sh", "-c", "true"}}
	cmd, args, err := ResolveCommand(context.Background(), def, true)
	require.NoError(t, err)
	assert.NotEmpty(t, cmd)
	assert.Equal(t, []string{"-c", "true"}, args)
}

func TestResolveCommandMissingWithDownloadsDisabled(t *testing.T) {
	def := ServerDefinition{
		ID:             "ghost",
		Command:        []string{"ghost-language-server-that-does-not-exist"},
		Strategy:       StrategyNpm,
		InstallPackage: "ghost-ls",
	}
	_, _, err := ResolveCommand(context.Background(), def, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestResolveCommandMissingNoStrategy(t *testing.T) {
	def := ServerDefinition{ID: "ghost", Command: []string{"ghost-language-server-that-does-not-exist"}}
	_, _, err := ResolveCommand(context.Background(), def, false)
	require.Error(t, err)
}

func TestMatchReleaseAsset(t *testing.T) {
	assets := []releaseAsset{
		{Name: "tool-windows-x64.zip", BrowserDownloadURL: "https://example.com/win"},
		{Name: "tool-linux-x86_64.tar.gz", BrowserDownloadURL: "https://example.com/linux-amd64"},
		{Name: "tool-linux-aarch64.tar.gz", BrowserDownloadURL: "https://example.com/linux-arm64"},
		{Name: "tool-macos-aarch64.tar.gz", BrowserDownloadURL: "https://example.com/darwin-arm64"},
	}

	url := matchReleaseAsset(assets)
	// Whatever platform runs the tests, a matching asset exists above for the
	// common CI targets; an empty result is acceptable only off that matrix.
	if url != "" {
		assert.Contains(t, url, "https://example.com/")
	}
}
