package lsp

import (
	"path/filepath"
	"strings"

	"github.com/quill-ai/quill/internal/lsp/protocol"
)

// languageByExt maps a lowercase file extension to the languageId sent in
// didOpen. Extensions missing here get an empty LanguageKind, which servers
// treat as plain text.
var languageByExt = map[string]protocol.LanguageKind{
	".abap":       protocol.LangABAP,
	".astro":      protocol.LangAstro,
	".bash":       protocol.LangShellScript,
	".bat":        protocol.LangWindowsBat,
	".bib":        protocol.LangBibTeX,
	".bibtex":     protocol.LangBibTeX,
	".c":          protocol.LangC,
	".c++":        protocol.LangCPP,
	".cc":         protocol.LangCPP,
	".cjs":        protocol.LangJavaScript,
	".clj":        protocol.LangClojure,
	".cljc":       protocol.LangClojure,
	".cljs":       protocol.LangClojure,
	".coffee":     protocol.LangCoffeescript,
	".cpp":        protocol.LangCPP,
	".cs":         protocol.LangCSharp,
	".cshtml":     protocol.LangRazor,
	".css":        protocol.LangCSS,
	".cts":        protocol.LangTypeScript,
	".cxx":        protocol.LangCPP,
	".d":          protocol.LangD,
	".dart":       protocol.LangDart,
	".diff":       protocol.LangDiff,
	".dockerfile": protocol.LangDockerfile,
	".edn":        protocol.LangClojure,
	".erb":        protocol.LangERB,
	".erl":        protocol.LangErlang,
	".ex":         protocol.LangElixir,
	".exs":        protocol.LangElixir,
	".fs":         protocol.LangFSharp,
	".fsi":        protocol.LangFSharp,
	".fsscript":   protocol.LangFSharp,
	".fsx":        protocol.LangFSharp,
	".gemspec":    protocol.LangRuby,
	".gleam":      protocol.LangGleam,
	".go":         protocol.LangGo,
	".groovy":     protocol.LangGroovy,
	".handlebars": protocol.LangHandlebars,
	".hbs":        protocol.LangHandlebars,
	".hcl":        protocol.LangHCL,
	".hrl":        protocol.LangErlang,
	".hs":         protocol.LangHaskell,
	".htm":        protocol.LangHTML,
	".html":       protocol.LangHTML,
	".ini":        protocol.LangIni,
	".jade":       protocol.LangPug,
	".java":       protocol.LangJava,
	".js":         protocol.LangJavaScript,
	".json":       protocol.LangJSON,
	".jsx":        protocol.LangJavaScriptReact,
	".ksh":        protocol.LangShellScript,
	".kt":         protocol.LangKotlin,
	".kts":        protocol.LangKotlin,
	".latex":      protocol.LangLaTeX,
	".less":       protocol.LangLess,
	".lhs":        protocol.LangHaskell,
	".lua":        protocol.LangLua,
	".m":          protocol.LangObjectiveC,
	".makefile":   protocol.LangMakefile,
	".markdown":   protocol.LangMarkdown,
	".md":         protocol.LangMarkdown,
	".mjs":        protocol.LangJavaScript,
	".ml":         protocol.LangOCaml,
	".mli":        protocol.LangOCaml,
	".mm":         protocol.LangObjectiveCPP,
	".mts":        protocol.LangTypeScript,
	".nix":        protocol.LangNix,
	".pas":        protocol.LangDelphi,
	".patch":      protocol.LangDiff,
	".php":        protocol.LangPHP,
	".pl":         protocol.LangPerl,
	".pm":         protocol.LangPerl6,
	".prisma":     protocol.LangPrisma,
	".ps1":        protocol.LangPowershell,
	".psm1":       protocol.LangPowershell,
	".pug":        protocol.LangPug,
	".py":         protocol.LangPython,
	".r":          protocol.LangR,
	".rake":       protocol.LangRuby,
	".razor":      protocol.LangRazor,
	".rb":         protocol.LangRuby,
	".rs":         protocol.LangRust,
	".ru":         protocol.LangRuby,
	".sass":       protocol.LangSASS,
	".scala":      protocol.LangScala,
	".scss":       protocol.LangSCSS,
	".sh":         protocol.LangShellScript,
	".shader":     protocol.LangShaderLab,
	".sql":        protocol.LangSQL,
	".svelte":     protocol.LangSvelte,
	".swift":      protocol.LangSwift,
	".tex":        protocol.LangLaTeX,
	".tf":         protocol.LangTerraform,
	".tfvars":     protocol.LangTerraformVars,
	".ts":         protocol.LangTypeScript,
	".tsx":        protocol.LangTypeScriptReact,
	".typ":        protocol.LangTypst,
	".typc":       protocol.LangTypst,
	".vue":        protocol.LangVue,
	".xml":        protocol.LangXML,
	".xsl":        protocol.LangXSL,
	".yaml":       protocol.LangYAML,
	".yml":        protocol.LangYAML,
	".zig":        protocol.LangZig,
	".zon":        protocol.LangZig,
	".zsh":        protocol.LangShellScript,
}

// DetectLanguageID maps a file path to its LSP language identifier.
func DetectLanguageID(path string) protocol.LanguageKind {
	name := strings.ToLower(filepath.Base(path))
	if name == "makefile" {
		return protocol.LangMakefile
	}
	if name == "dockerfile" {
		return protocol.LangDockerfile
	}
	return languageByExt[strings.ToLower(filepath.Ext(path))]
}
