package install

// InstallStrategy defines how an LSP server binary is obtained when it is
// not already on PATH.
type InstallStrategy int

const (
	StrategyNone          InstallStrategy = iota // Must be pre-installed
	StrategyNpm                                  // npm install --prefix <dir> <package>
	StrategyGoInstall                            // go install <pkg>@latest
	StrategyGitHubRelease                        // Download from GitHub releases
)

// ServerDefinition describes a language server: how to launch it, which
// files it handles, and which marker files identify a project root for it.
// Definitions are immutable once the catalog is built.
type ServerDefinition struct {
	ID             string
	Extensions     []string
	Command        []string // Command and default args
	RootMarkers    []string // Checked during upward root detection
	Env            map[string]string
	Strategy       InstallStrategy
	InstallPackage string // npm package names or go module path
	InstallRepo    string // GitHub owner/repo for release downloads
	Initialization any
}

// BuiltinServers is the registry of built-in server definitions. User
// configuration may shadow any of these by id.
var BuiltinServers = []ServerDefinition{
	// Go
	{
		ID:             "gopls",
		Extensions:     []string{".go"},
		Command:        []string{"gopls"},
		RootMarkers:    []string{"go.work", "go.mod"},
		Strategy:       StrategyGoInstall,
		InstallPackage: "golang.org/x/tools/gopls@latest",
		Initialization: map[string]any{
			"codelenses": map[string]bool{
				"generate": true,
				"test":     true,
				"tidy":     true,
			},
		},
	},

	// TypeScript / JavaScript
	{
		ID:             "typescript",
		Extensions:     []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts"},
		Command:        []string{"typescript-language-server", "--stdio"},
		RootMarkers:    []string{"tsconfig.json", "jsconfig.json", "package.json"},
		Strategy:       StrategyNpm,
		InstallPackage: "typescript-language-server typescript",
	},

	// Python
	{
		ID:             "pyright",
		Extensions:     []string{".py"},
		Command:        []string{"pyright-langserver", "--stdio"},
		RootMarkers:    []string{"pyproject.toml", "setup.py", "setup.cfg", "requirements.txt", "Pipfile"},
		Strategy:       StrategyNpm,
		InstallPackage: "pyright",
	},

	// Java
	{
		ID:          "jdtls",
		Extensions:  []string{".java"},
		Command:     []string{"jdtls"},
		RootMarkers: []string{"pom.xml", "build.gradle", "build.gradle.kts", ".project"},
	},

	// Rust
	{
		ID:          "rust-analyzer",
		Extensions:  []string{".rs"},
		Command:     []string{"rust-analyzer"},
		RootMarkers: []string{"Cargo.toml"},
	},

	// Bash
	{
		ID:             "bash",
		Extensions:     []string{".sh", ".bash", ".zsh", ".ksh"},
		Command:        []string{"bash-language-server", "start"},
		RootMarkers:    []string{".git"},
		Strategy:       StrategyNpm,
		InstallPackage: "bash-language-server",
	},

	// YAML
	{
		ID:             "yaml",
		Extensions:     []string{".yaml", ".yml"},
		Command:        []string{"yaml-language-server", "--stdio"},
		RootMarkers:    []string{".git"},
		Strategy:       StrategyNpm,
		InstallPackage: "yaml-language-server",
	},

	// Vue
	{
		ID:             "vue",
		Extensions:     []string{".vue"},
		Command:        []string{"vue-language-server", "--stdio"},
		RootMarkers:    []string{"package.json"},
		Strategy:       StrategyNpm,
		InstallPackage: "@vue/language-server",
	},

	// Svelte
	{
		ID:             "svelte",
		Extensions:     []string{".svelte"},
		Command:        []string{"svelteserver", "--stdio"},
		RootMarkers:    []string{"package.json"},
		Strategy:       StrategyNpm,
		InstallPackage: "svelte-language-server",
	},

	// C/C++
	{
		ID:          "clangd",
		Extensions:  []string{".c", ".cpp", ".cc", ".cxx", ".c++", ".h", ".hpp", ".hh", ".hxx", ".h++"},
		Command:     []string{"clangd"},
		RootMarkers: []string{"compile_commands.json", "CMakeLists.txt", "Makefile"},
	},

	// PHP
	{
		ID:             "intelephense",
		Extensions:     []string{".php"},
		Command:        []string{"intelephense", "--stdio"},
		RootMarkers:    []string{"composer.json"},
		Strategy:       StrategyNpm,
		InstallPackage: "intelephense",
	},

	// Lua
	{
		ID:          "lua-ls",
		Extensions:  []string{".lua"},
		Command:     []string{"lua-language-server"},
		RootMarkers: []string{".luarc.json", ".git"},
		Strategy:    StrategyGitHubRelease,
		InstallRepo: "LuaLS/lua-language-server",
	},

	// Terraform
	{
		ID:          "terraform",
		Extensions:  []string{".tf", ".tfvars"},
		Command:     []string{"terraform-ls", "serve"},
		RootMarkers: []string{".terraform"},
		Strategy:    StrategyGitHubRelease,
		InstallRepo: "hashicorp/terraform-ls",
	},

	// Ruby
	{
		ID:          "ruby-lsp",
		Extensions:  []string{".rb", ".rake", ".gemspec", ".ru"},
		Command:     []string{"ruby-lsp"},
		RootMarkers: []string{"Gemfile"},
	},

	// Zig
	{
		ID:          "zls",
		Extensions:  []string{".zig", ".zon"},
		Command:     []string{"zls"},
		RootMarkers: []string{"build.zig"},
	},

	// Elixir
	{
		ID:          "elixir-ls",
		Extensions:  []string{".ex", ".exs"},
		Command:     []string{"elixir-ls"},
		RootMarkers: []string{"mix.exs"},
	},

	// Kotlin
	{
		ID:          "kotlin-lsp",
		Extensions:  []string{".kt", ".kts"},
		Command:     []string{"kotlin-lsp"},
		RootMarkers: []string{"build.gradle", "build.gradle.kts", "pom.xml"},
	},

	// C#
	{
		ID:          "csharp",
		Extensions:  []string{".cs"},
		Command:     []string{"csharp-ls"},
		RootMarkers: []string{".sln", ".csproj"},
	},

	// Haskell
	{
		ID:          "hls",
		Extensions:  []string{".hs", ".lhs"},
		Command:     []string{"haskell-language-server-wrapper", "--lsp"},
		RootMarkers: []string{"stack.yaml", "cabal.project", "package.yaml"},
	},

	// OCaml
	{
		ID:          "ocamllsp",
		Extensions:  []string{".ml", ".mli"},
		Command:     []string{"ocamllsp"},
		RootMarkers: []string{"dune-project"},
	},

	// Clojure
	{
		ID:          "clojure-lsp",
		Extensions:  []string{".clj", ".cljs", ".cljc", ".edn"},
		Command:     []string{"clojure-lsp"},
		RootMarkers: []string{"project.clj", "deps.edn"},
	},

	// Swift
	{
		ID:          "sourcekit-lsp",
		Extensions:  []string{".swift"},
		Command:     []string{"sourcekit-lsp"},
		RootMarkers: []string{"Package.swift"},
	},

	// Scala
	{
		ID:          "metals",
		Extensions:  []string{".scala"},
		Command:     []string{"metals"},
		RootMarkers: []string{"build.sbt", "build.sc"},
	},

	// Dart
	{
		ID:          "dart",
		Extensions:  []string{".dart"},
		Command:     []string{"dart", "language-server", "--protocol=lsp"},
		RootMarkers: []string{"pubspec.yaml"},
	},

	// Gleam
	{
		ID:          "gleam",
		Extensions:  []string{".gleam"},
		Command:     []string{"gleam", "lsp"},
		RootMarkers: []string{"gleam.toml"},
	},

	// Nix
	{
		ID:          "nixd",
		Extensions:  []string{".nix"},
		Command:     []string{"nixd"},
		RootMarkers: []string{"flake.nix", "default.nix"},
	},
}
