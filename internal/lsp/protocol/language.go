package protocol

// LanguageKind is the languageId sent in TextDocumentItem. Values follow the
// LSP specification's language identifier table, plus a few identifiers in
// common use by servers that postdate that table.
type LanguageKind string

const (
	LangABAP             LanguageKind = "abap"
	LangWindowsBat       LanguageKind = "bat"
	LangBibTeX           LanguageKind = "bibtex"
	LangC                LanguageKind = "c"
	LangCPP              LanguageKind = "cpp"
	LangCSharp           LanguageKind = "csharp"
	LangCSS              LanguageKind = "css"
	LangClojure          LanguageKind = "clojure"
	LangCoffeescript     LanguageKind = "coffeescript"
	LangD                LanguageKind = "d"
	LangDart             LanguageKind = "dart"
	LangDelphi           LanguageKind = "pascal"
	LangDiff             LanguageKind = "diff"
	LangDockerfile       LanguageKind = "dockerfile"
	LangERB              LanguageKind = "erb"
	LangElixir           LanguageKind = "elixir"
	LangErlang           LanguageKind = "erlang"
	LangFSharp           LanguageKind = "fsharp"
	LangGitCommit        LanguageKind = "git-commit"
	LangGitRebase        LanguageKind = "git-rebase"
	LangGleam            LanguageKind = "gleam"
	LangGo               LanguageKind = "go"
	LangGroovy           LanguageKind = "groovy"
	LangHCL              LanguageKind = "hcl"
	LangHTML             LanguageKind = "html"
	LangHandlebars       LanguageKind = "handlebars"
	LangHaskell          LanguageKind = "haskell"
	LangIni              LanguageKind = "ini"
	LangJSON             LanguageKind = "json"
	LangJava             LanguageKind = "java"
	LangJavaScript       LanguageKind = "javascript"
	LangJavaScriptReact  LanguageKind = "javascriptreact"
	LangKotlin           LanguageKind = "kotlin"
	LangLaTeX            LanguageKind = "latex"
	LangLess             LanguageKind = "less"
	LangLua              LanguageKind = "lua"
	LangMakefile         LanguageKind = "makefile"
	LangMarkdown         LanguageKind = "markdown"
	LangNix              LanguageKind = "nix"
	LangOCaml            LanguageKind = "ocaml"
	LangObjectiveC       LanguageKind = "objective-c"
	LangObjectiveCPP     LanguageKind = "objective-cpp"
	LangPHP              LanguageKind = "php"
	LangPerl             LanguageKind = "perl"
	LangPerl6            LanguageKind = "perl6"
	LangPowershell       LanguageKind = "powershell"
	LangPrisma           LanguageKind = "prisma"
	LangPug              LanguageKind = "jade"
	LangPython           LanguageKind = "python"
	LangR                LanguageKind = "r"
	LangRazor            LanguageKind = "razor"
	LangRuby             LanguageKind = "ruby"
	LangRust             LanguageKind = "rust"
	LangSASS             LanguageKind = "sass"
	LangSCSS             LanguageKind = "scss"
	LangSQL              LanguageKind = "sql"
	LangScala            LanguageKind = "scala"
	LangShaderLab        LanguageKind = "shaderlab"
	LangShellScript      LanguageKind = "shellscript"
	LangSvelte           LanguageKind = "svelte"
	LangSwift            LanguageKind = "swift"
	LangTerraform        LanguageKind = "terraform"
	LangTerraformVars    LanguageKind = "terraform-vars"
	LangTypeScript       LanguageKind = "typescript"
	LangTypeScriptReact  LanguageKind = "typescriptreact"
	LangTypst            LanguageKind = "typst"
	LangVue              LanguageKind = "vue"
	LangXML              LanguageKind = "xml"
	LangXSL              LanguageKind = "xsl"
	LangYAML             LanguageKind = "yaml"
	LangZig              LanguageKind = "zig"
	LangAstro            LanguageKind = "astro"
)
