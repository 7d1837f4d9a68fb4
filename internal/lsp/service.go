package lsp

import (
	"context"

	"github.com/quill-ai/quill/internal/lsp/protocol"
)

// Service is the language-intelligence surface the rest of the application
// consumes. Manager is the production implementation; tests substitute fakes.
//
// The navigation wrappers on Client (Definition, References, Hover and
// friends) return explicit errors; callers are expected to degrade those to
// empty results rather than propagate them, since language intelligence is a
// best-effort aid.
type Service interface {
	// GetClient returns a ready client for the file, spawning and
	// initializing a server if needed. Nil means no language intelligence is
	// available for this file.
	GetClient(ctx context.Context, filePath string) *Client

	// TouchFile syncs the file's on-disk content to its server and, when
	// wait is true, blocks for the next diagnostics publish.
	TouchFile(ctx context.Context, filePath string, wait bool) []protocol.Diagnostic

	Clients() map[string]*Client
	ClientsForFile(filePath string) []*Client

	OnClientCreated(fn func(*Client))
	FormatDiagnostics(filePath string) string
	Shutdown(ctx context.Context)
}

var _ Service = (*Manager)(nil)
