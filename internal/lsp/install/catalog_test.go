package install

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-ai/quill/internal/config"
)

func catalogConfig(lsp map[string]config.LSPConfig) *config.Config {
	return &config.Config{LSP: lsp}
}

func TestCatalogBuiltinLookup(t *testing.T) {
	c := NewCatalog(catalogConfig(nil))

	def := c.ServerForFile("/src/main.go")
	require.NotNil(t, def)
	assert.Equal(t, "gopls", def.ID)
	assert.Equal(t, []string{"go.work", "go.mod"}, def.RootMarkers)

	def = c.ServerForFile("/src/app.tsx")
	require.NotNil(t, def)
	assert.Equal(t, "typescript", def.ID)
}

func TestCatalogUnsupportedExtension(t *testing.T) {
	c := NewCatalog(catalogConfig(nil))

	assert.Nil(t, c.ServerForFile("/src/data.xyz123"))
	assert.Nil(t, c.ServerForFile("/src/README"))
}

func TestCatalogDisabledServer(t *testing.T) {
	c := NewCatalog(catalogConfig(map[string]config.LSPConfig{
		"gopls": {Disabled: true},
	}))

	assert.Nil(t, c.ServerForFile("/src/main.go"))
	for _, def := range c.Servers() {
		assert.NotEqual(t, "gopls", def.ID)
	}
}

func TestCatalogUserOverridesBuiltin(t *testing.T) {
	c := NewCatalog(catalogConfig(map[string]config.LSPConfig{
		"gopls": {Command: "/opt/tools/gopls", Args: []string{"-rpc.trace"}},
	}))

	def := c.ServerForFile("/src/main.go")
	require.NotNil(t, def)
	assert.Equal(t, "gopls", def.ID)
	assert.Equal(t, []string{"/opt/tools/gopls", "-rpc.trace"}, def.Command)
	// Builtin fields the user did not override are inherited.
	assert.Equal(t, []string{"go.work", "go.mod"}, def.RootMarkers)
	// A user command is never auto-installed.
	assert.Equal(t, StrategyNone, def.Strategy)
}

func TestCatalogCustomServer(t *testing.T) {
	c := NewCatalog(catalogConfig(map[string]config.LSPConfig{
		"mylang": {
			Command:     "mylang-ls",
			Args:        []string{"--stdio"},
			Extensions:  []string{".myl"},
			RootMarkers: []string{"mylang.toml"},
		},
	}))

	def := c.ServerForFile("/src/thing.myl")
	require.NotNil(t, def)
	assert.Equal(t, "mylang", def.ID)
	assert.Equal(t, []string{"mylang-ls", "--stdio"}, def.Command)
}

func TestCatalogCustomShadowsBuiltinExtension(t *testing.T) {
	// A custom server claiming .go wins over the builtin gopls entry.
	c := NewCatalog(catalogConfig(map[string]config.LSPConfig{
		"altgo": {Command: "altgo-ls", Extensions: []string{".go"}},
	}))

	def := c.ServerForFile("/src/main.go")
	require.NotNil(t, def)
	assert.Equal(t, "altgo", def.ID)
}

func TestBuiltinServersWellFormed(t *testing.T) {
	seen := make(map[string]bool)
	for _, def := range BuiltinServers {
		assert.False(t, seen[def.ID], "duplicate server id %s", def.ID)
		seen[def.ID] = true
		assert.NotEmpty(t, def.Command, "server %s has no command", def.ID)
		assert.NotEmpty(t, def.Extensions, "server %s handles no extensions", def.ID)
		for _, ext := range def.Extensions {
			assert.Equal(t, byte('.'), ext[0], "server %s extension %q missing dot", def.ID, ext)
		}
	}
}
