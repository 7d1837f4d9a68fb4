package install

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/quill-ai/quill/internal/config"
)

// Catalog is the resolved server table: user-registered definitions first,
// then builtins, with user entries shadowing builtins by id. Built once from
// configuration and immutable afterwards.
type Catalog struct {
	custom   []ServerDefinition
	builtins []ServerDefinition
}

// NewCatalog merges user configuration with the built-in registry. A config
// entry whose id matches a builtin overrides that builtin's fields; an
// unknown id registers a fully custom server. Disabled ids are excluded
// from both tables.
func NewCatalog(cfg *config.Config) *Catalog {
	c := &Catalog{}

	disabled := make(map[string]bool)
	configured := make(map[string]bool)
	for id, lspCfg := range cfg.LSP {
		configured[id] = true
		if lspCfg.Disabled {
			disabled[id] = true
		}
	}

	builtinsByID := make(map[string]ServerDefinition, len(BuiltinServers))
	for _, def := range BuiltinServers {
		builtinsByID[def.ID] = def
	}

	for id, lspCfg := range cfg.LSP {
		if lspCfg.Disabled {
			continue
		}
		def, isBuiltin := builtinsByID[id]
		if !isBuiltin {
			def = ServerDefinition{ID: id}
		}
		if lspCfg.Command != "" {
			def.Command = append([]string{lspCfg.Command}, lspCfg.Args...)
			// A user-supplied command is used as-is, never auto-installed.
			def.Strategy = StrategyNone
		}
		if len(lspCfg.Extensions) > 0 {
			def.Extensions = lspCfg.Extensions
		}
		if len(lspCfg.RootMarkers) > 0 {
			def.RootMarkers = lspCfg.RootMarkers
		}
		if len(lspCfg.Env) > 0 {
			def.Env = lspCfg.Env
		}
		if lspCfg.Initialization != nil {
			def.Initialization = lspCfg.Initialization
		}
		c.custom = append(c.custom, def)
	}

	for _, def := range BuiltinServers {
		if configured[def.ID] || disabled[def.ID] {
			continue
		}
		c.builtins = append(c.builtins, def)
	}

	return c
}

// ServerForFile returns the definition handling the file's extension, or nil
// when the file type is unsupported. User-registered definitions are checked
// before builtins; the first match wins.
func (c *Catalog) ServerForFile(path string) *ServerDefinition {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil
	}
	for i := range c.custom {
		if slices.Contains(c.custom[i].Extensions, ext) {
			return &c.custom[i]
		}
	}
	for i := range c.builtins {
		if slices.Contains(c.builtins[i].Extensions, ext) {
			return &c.builtins[i]
		}
	}
	return nil
}

// Servers lists all active definitions in lookup order.
func (c *Catalog) Servers() []ServerDefinition {
	out := make([]ServerDefinition, 0, len(c.custom)+len(c.builtins))
	out = append(out, c.custom...)
	out = append(out, c.builtins...)
	return out
}
