package lsp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quill-ai/quill/internal/lsp/protocol"
)

const maxDiagnosticsShown = 10

// FormatDiagnostic renders one diagnostic as a single line:
//
//	Error: path:12:4 [gopls][undeclared] message
//
// Line and character are 1-based for display. fallbackSource labels
// diagnostics whose server did not set Source.
func FormatDiagnostic(path string, d protocol.Diagnostic, fallbackSource string) string {
	severity := "Info"
	switch d.Severity {
	case protocol.SeverityError:
		severity = "Error"
	case protocol.SeverityWarning:
		severity = "Warn"
	case protocol.SeverityHint:
		severity = "Hint"
	}

	source := d.Source
	if source == "" {
		source = fallbackSource
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s:%d:%d [%s]", severity, path, d.Range.Start.Line+1, d.Range.Start.Character+1, source)
	if d.Code != nil {
		fmt.Fprintf(&b, "[%v]", d.Code)
	}
	if tags := formatTags(d.Tags); tags != "" {
		fmt.Fprintf(&b, " (%s)", tags)
	}
	b.WriteByte(' ')
	b.WriteString(d.Message)
	return b.String()
}

func formatTags(tags []protocol.DiagnosticTag) string {
	var names []string
	for _, tag := range tags {
		switch tag {
		case protocol.Unnecessary:
			names = append(names, "unnecessary")
		case protocol.Deprecated:
			names = append(names, "deprecated")
		}
	}
	return strings.Join(names, ", ")
}

// FormatDiagnostics renders the diagnostics cached across all clients,
// split into the current file's issues and the rest of the project, followed
// by a summary. The shape is what the agent's tool layer embeds into model
// context after file edits.
func FormatDiagnostics(filePath string, clients map[string]*Client) string {
	var fileDiagnostics, projectDiagnostics []string

	for name, client := range clients {
		for uri, diags := range client.GetDiagnostics() {
			path := uri.Path()
			for _, d := range diags {
				line := FormatDiagnostic(path, d, name)
				if path == filePath {
					fileDiagnostics = append(fileDiagnostics, line)
				} else {
					projectDiagnostics = append(projectDiagnostics, line)
				}
			}
		}
	}

	sortBySeverity(fileDiagnostics)
	sortBySeverity(projectDiagnostics)

	var b strings.Builder
	writeSection(&b, "file_diagnostics", fileDiagnostics)
	writeSection(&b, "project_diagnostics", projectDiagnostics)

	if len(fileDiagnostics) > 0 || len(projectDiagnostics) > 0 {
		b.WriteString("\n<diagnostic_summary>\n")
		fmt.Fprintf(&b, "Current file: %d errors, %d warnings\n",
			countPrefixed(fileDiagnostics, "Error"), countPrefixed(fileDiagnostics, "Warn"))
		fmt.Fprintf(&b, "Project: %d errors, %d warnings\n",
			countPrefixed(projectDiagnostics, "Error"), countPrefixed(projectDiagnostics, "Warn"))
		b.WriteString("</diagnostic_summary>\n")
	}

	return b.String()
}

// sortBySeverity orders errors first, then alphabetically.
func sortBySeverity(lines []string) {
	sort.Slice(lines, func(i, j int) bool {
		iErr := strings.HasPrefix(lines[i], "Error")
		jErr := strings.HasPrefix(lines[j], "Error")
		if iErr != jErr {
			return iErr
		}
		return lines[i] < lines[j]
	})
}

func writeSection(b *strings.Builder, tag string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "\n<%s>\n", tag)
	if len(lines) > maxDiagnosticsShown {
		b.WriteString(strings.Join(lines[:maxDiagnosticsShown], "\n"))
		fmt.Fprintf(b, "\n... and %d more diagnostics", len(lines)-maxDiagnosticsShown)
	} else {
		b.WriteString(strings.Join(lines, "\n"))
	}
	fmt.Fprintf(b, "\n</%s>\n", tag)
}

func countPrefixed(lines []string, prefix string) int {
	count := 0
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			count++
		}
	}
	return count
}
