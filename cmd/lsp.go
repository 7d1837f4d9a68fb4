package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/quill-ai/quill/internal/app"
	"github.com/quill-ai/quill/internal/logging"
	"github.com/quill-ai/quill/internal/lsp"
	"github.com/quill-ai/quill/internal/lsp/install"
	"github.com/quill-ai/quill/internal/lsp/protocol"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Language server queries",
}

var lspServersCmd = &cobra.Command{
	Use:   "servers",
	Short: "List the language servers quill knows about",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		for _, def := range install.NewCatalog(cfg).Servers() {
			fmt.Printf("%-16s %v  (extensions: %v)\n", def.ID, def.Command, def.Extensions)
		}
		return nil
	},
}

var lspDiagnosticsCmd = &cobra.Command{
	Use:   "diagnostics <file>",
	Short: "Open a file and print its diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, args[0], func(ctx context.Context, a *app.App, client *lsp.Client, filePath string) error {
			a.LSP.TouchFile(ctx, filePath, true)
			out := a.LSP.FormatDiagnostics(filePath)
			if out == "" {
				fmt.Println("No diagnostics.")
				return nil
			}
			fmt.Print(out)
			return nil
		})
	},
}

var lspDefinitionCmd = &cobra.Command{
	Use:   "definition <file> <line> <column>",
	Short: "Resolve the definition of the symbol at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPosition(cmd, args, func(ctx context.Context, client *lsp.Client, pos protocol.TextDocumentPositionParams) error {
			locations, err := client.Definition(ctx, protocol.DefinitionParams{TextDocumentPositionParams: pos})
			if err != nil {
				logging.Debug("definition request failed", "error", err)
			}
			printLocations(locations)
			return nil
		})
	},
}

var lspReferencesCmd = &cobra.Command{
	Use:   "references <file> <line> <column>",
	Short: "List references to the symbol at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPosition(cmd, args, func(ctx context.Context, client *lsp.Client, pos protocol.TextDocumentPositionParams) error {
			locations, err := client.References(ctx, protocol.ReferenceParams{
				TextDocumentPositionParams: pos,
				Context:                    protocol.ReferenceContext{IncludeDeclaration: true},
			})
			if err != nil {
				logging.Debug("references request failed", "error", err)
			}
			printLocations(locations)
			return nil
		})
	},
}

var lspHoverCmd = &cobra.Command{
	Use:   "hover <file> <line> <column>",
	Short: "Show hover documentation for a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPosition(cmd, args, func(ctx context.Context, client *lsp.Client, pos protocol.TextDocumentPositionParams) error {
			hover, err := client.Hover(ctx, protocol.HoverParams{TextDocumentPositionParams: pos})
			if err != nil {
				logging.Debug("hover request failed", "error", err)
				return nil
			}
			if text := hover.Text(); text != "" {
				fmt.Println(text)
			}
			return nil
		})
	},
}

var lspSymbolsCmd = &cobra.Command{
	Use:   "symbols <file>",
	Short: "List the symbols in a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, args[0], func(ctx context.Context, a *app.App, client *lsp.Client, filePath string) error {
			symbols, err := client.DocumentSymbol(ctx, protocol.DocumentSymbolParams{
				TextDocument: protocol.TextDocumentIdentifier{URI: protocol.URIFromPath(filePath)},
			})
			if err != nil {
				logging.Debug("documentSymbol request failed", "error", err)
			}
			printSymbols(symbols)
			return nil
		})
	},
}

var lspSearchCmd = &cobra.Command{
	Use:   "search <file> <query>",
	Short: "Search workspace symbols via the file's language server",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, args[0], func(ctx context.Context, a *app.App, client *lsp.Client, filePath string) error {
			symbols, err := client.Symbol(ctx, protocol.WorkspaceSymbolParams{Query: args[1]})
			if err != nil {
				logging.Debug("workspace symbol request failed", "error", err)
			}
			printSymbols(symbols)
			return nil
		})
	},
}

var lspImplementationCmd = &cobra.Command{
	Use:   "implementation <file> <line> <column>",
	Short: "List implementations of the symbol at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPosition(cmd, args, func(ctx context.Context, client *lsp.Client, pos protocol.TextDocumentPositionParams) error {
			locations, err := client.Implementation(ctx, protocol.ImplementationParams{TextDocumentPositionParams: pos})
			if err != nil {
				logging.Debug("implementation request failed", "error", err)
			}
			printLocations(locations)
			return nil
		})
	},
}

var lspCallersCmd = &cobra.Command{
	Use:   "callers <file> <line> <column>",
	Short: "List callers of the function at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPosition(cmd, args, func(ctx context.Context, client *lsp.Client, pos protocol.TextDocumentPositionParams) error {
			for _, item := range prepareCallHierarchy(ctx, client, pos) {
				calls, err := client.IncomingCalls(ctx, protocol.CallHierarchyIncomingCallsParams{Item: item})
				if err != nil {
					logging.Debug("incomingCalls request failed", "error", err)
					continue
				}
				for _, call := range calls {
					printCallHierarchyItem(call.From)
				}
			}
			return nil
		})
	},
}

var lspCalleesCmd = &cobra.Command{
	Use:   "callees <file> <line> <column>",
	Short: "List functions called by the function at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPosition(cmd, args, func(ctx context.Context, client *lsp.Client, pos protocol.TextDocumentPositionParams) error {
			for _, item := range prepareCallHierarchy(ctx, client, pos) {
				calls, err := client.OutgoingCalls(ctx, protocol.CallHierarchyOutgoingCallsParams{Item: item})
				if err != nil {
					logging.Debug("outgoingCalls request failed", "error", err)
					continue
				}
				for _, call := range calls {
					printCallHierarchyItem(call.To)
				}
			}
			return nil
		})
	},
}

var lspCompleteCmd = &cobra.Command{
	Use:   "complete <file> <line> <column>",
	Short: "List completion candidates for a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPosition(cmd, args, func(ctx context.Context, client *lsp.Client, pos protocol.TextDocumentPositionParams) error {
			items, err := client.Completion(ctx, protocol.CompletionParams{TextDocumentPositionParams: pos})
			if err != nil {
				logging.Debug("completion request failed", "error", err)
			}
			for _, item := range items {
				if item.Detail != "" {
					fmt.Printf("%s\t%s\n", item.Label, item.Detail)
				} else {
					fmt.Println(item.Label)
				}
			}
			return nil
		})
	},
}

// withClient loads config, builds the app, resolves a ready client for the
// file, and tears everything down afterwards. A missing client is not an
// error: the command prints nothing and exits zero.
func withClient(cmd *cobra.Command, file string, fn func(ctx context.Context, a *app.App, client *lsp.Client, filePath string) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	filePath, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := app.New(ctx, cfg)
	defer a.Shutdown()

	client := a.LSP.GetClient(ctx, filePath)
	if client == nil {
		logging.Debug("No language server available", "file", filePath)
		return nil
	}
	if err := client.OpenFile(ctx, filePath); err != nil {
		logging.Debug("Failed to open file", "file", filePath, "error", err)
		return nil
	}
	return fn(ctx, a, client, filePath)
}

// withPosition parses <file> <line> <column> (1-based) and runs fn with the
// zero-based protocol position.
func withPosition(cmd *cobra.Command, args []string, fn func(ctx context.Context, client *lsp.Client, pos protocol.TextDocumentPositionParams) error) error {
	line, err := strconv.Atoi(args[1])
	if err != nil || line < 1 {
		return fmt.Errorf("invalid line %q", args[1])
	}
	column, err := strconv.Atoi(args[2])
	if err != nil || column < 1 {
		return fmt.Errorf("invalid column %q", args[2])
	}

	return withClient(cmd, args[0], func(ctx context.Context, a *app.App, client *lsp.Client, filePath string) error {
		pos := protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: protocol.URIFromPath(filePath)},
			Position: protocol.Position{
				Line:      uint32(line - 1),
				Character: uint32(column - 1),
			},
		}
		return fn(ctx, client, pos)
	})
}

func prepareCallHierarchy(ctx context.Context, client *lsp.Client, pos protocol.TextDocumentPositionParams) []protocol.CallHierarchyItem {
	items, err := client.PrepareCallHierarchy(ctx, protocol.CallHierarchyPrepareParams{TextDocumentPositionParams: pos})
	if err != nil {
		logging.Debug("prepareCallHierarchy request failed", "error", err)
	}
	return items
}

func printCallHierarchyItem(item protocol.CallHierarchyItem) {
	fmt.Printf("%-12s %s  %s:%d\n", item.Kind.String(), item.Name,
		item.URI.Path(), item.Range.Start.Line+1)
}

func printLocations(locations []protocol.Location) {
	for _, loc := range locations {
		fmt.Printf("%s:%d:%d\n", loc.URI.Path(), loc.Range.Start.Line+1, loc.Range.Start.Character+1)
	}
}

func printSymbols(symbols []protocol.SymbolInformation) {
	for _, s := range symbols {
		name := s.Name
		if s.ContainerName != "" {
			name = s.ContainerName + "." + s.Name
		}
		fmt.Printf("%-12s %s  %s:%d\n", s.Kind.String(), name,
			s.Location.URI.Path(), s.Location.Range.Start.Line+1)
	}
}

func init() {
	lspCmd.AddCommand(
		lspServersCmd,
		lspDiagnosticsCmd,
		lspDefinitionCmd,
		lspReferencesCmd,
		lspImplementationCmd,
		lspCallersCmd,
		lspCalleesCmd,
		lspHoverCmd,
		lspSymbolsCmd,
		lspSearchCmd,
		lspCompleteCmd,
	)
	rootCmd.AddCommand(lspCmd)
}
