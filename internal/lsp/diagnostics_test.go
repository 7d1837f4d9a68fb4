package lsp

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-ai/quill/internal/lsp/protocol"
)

func diag(line, char uint32, severity protocol.DiagnosticSeverity, msg string) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range:    protocol.Range{Start: protocol.Position{Line: line, Character: char}},
		Severity: severity,
		Message:  msg,
	}
}

func TestFormatDiagnostic(t *testing.T) {
	d := diag(11, 3, protocol.SeverityError, "undefined: foo")
	d.Source = "compiler"
	d.Code = "UndeclaredName"

	got := FormatDiagnostic("/src/main.go", d, "gopls")
	assert.Equal(t, "Error: /src/main.go:12:4 [compiler][UndeclaredName] undefined: foo", got)
}

func TestFormatDiagnosticFallbackSource(t *testing.T) {
	got := FormatDiagnostic("/src/main.go", diag(0, 0, protocol.SeverityWarning, "unused"), "gopls")
	assert.Equal(t, "Warn: /src/main.go:1:1 [gopls] unused", got)
}

func TestFormatDiagnosticTags(t *testing.T) {
	d := diag(0, 0, protocol.SeverityHint, "dead code")
	d.Tags = []protocol.DiagnosticTag{protocol.Unnecessary}

	got := FormatDiagnostic("/src/main.go", d, "gopls")
	assert.Contains(t, got, "(unnecessary)")
	assert.Contains(t, got, "Hint:")
}

func publishTo(t *testing.T, c *Client, path string, diags ...protocol.Diagnostic) {
	t.Helper()
	raw, err := json.Marshal(protocol.PublishDiagnosticsParams{
		URI:         protocol.URIFromPath(path),
		Diagnostics: diags,
	})
	require.NoError(t, err)
	HandleDiagnostics(c, raw)
}

func TestFormatDiagnosticsSections(t *testing.T) {
	client, _ := newTestClient(t, "/src")
	publishTo(t, client, "/src/main.go",
		diag(4, 0, protocol.SeverityWarning, "unused variable"),
		diag(1, 0, protocol.SeverityError, "syntax error"),
	)
	publishTo(t, client, "/src/other.go", diag(9, 0, protocol.SeverityError, "undefined: bar"))

	out := FormatDiagnostics("/src/main.go", map[string]*Client{"gopls": client})

	assert.Contains(t, out, "<file_diagnostics>")
	assert.Contains(t, out, "<project_diagnostics>")
	assert.Contains(t, out, "Current file: 1 errors, 1 warnings")
	assert.Contains(t, out, "Project: 1 errors, 0 warnings")

	// Errors sort ahead of warnings within a section.
	assert.Less(t,
		strings.Index(out, "syntax error"),
		strings.Index(out, "unused variable"))
}

func TestFormatDiagnosticsEmpty(t *testing.T) {
	client, _ := newTestClient(t, "/src")
	out := FormatDiagnostics("/src/main.go", map[string]*Client{"gopls": client})
	assert.Empty(t, out)
}

func TestFormatDiagnosticsCapped(t *testing.T) {
	client, _ := newTestClient(t, "/src")

	var diags []protocol.Diagnostic
	for i := 0; i < 25; i++ {
		diags = append(diags, diag(uint32(i), 0, protocol.SeverityError, fmt.Sprintf("problem %d", i)))
	}
	publishTo(t, client, "/src/main.go", diags...)

	out := FormatDiagnostics("/src/main.go", map[string]*Client{"gopls": client})
	assert.Contains(t, out, "... and 15 more diagnostics")
}
