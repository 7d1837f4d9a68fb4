package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quill-ai/quill/internal/logging"
	"github.com/quill-ai/quill/internal/lsp/protocol"
)

// ServerState is the lifecycle state of a Client.
type ServerState int32

const (
	// StateUninitialized: process spawned, handshake not yet attempted.
	StateUninitialized ServerState = iota
	// StateStarting: initialize request in flight.
	StateStarting
	// StateReady: handshake complete, server usable.
	StateReady
	// StateError: handshake failed; the manager discards the client and
	// never retries it.
	StateError
)

func (s ServerState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return "unknown"
}

// NotificationHandler processes a server notification's raw params.
type NotificationHandler func(params json.RawMessage)

type openFileInfo struct {
	version int32
	uri     protocol.DocumentUri
}

// Client is one initialized session with one spawned language server
// process. It owns the transport, tracks open documents and their versions,
// and caches the most recent diagnostics per document.
type Client struct {
	serverID string
	rootDir  string

	Cmd       *exec.Cmd
	transport *transport
	exited    chan struct{}

	state      atomic.Int32
	initMu     sync.Mutex
	initResult *protocol.InitializeResult

	extensions []string

	openFilesMu sync.RWMutex
	openFiles   map[protocol.DocumentUri]*openFileInfo

	diagnosticsMu sync.RWMutex
	diagnostics   map[protocol.DocumentUri][]protocol.Diagnostic

	// diagnosticsWait is a single-shot gate released on the next
	// publishDiagnostics. One waiter at a time; see WaitForDiagnostics.
	diagnosticsWait chan struct{}

	handlersMu           sync.RWMutex
	notificationHandlers map[string]NotificationHandler
}

// NewClient spawns the language server process and starts its reader loop.
// env entries are merged over the inherited environment; workDir becomes the
// process working directory. The handshake is not performed here; call
// Initialize next.
func NewClient(ctx context.Context, serverID, command string, env map[string]string, workDir string, args ...string) (*Client, error) {
	cmd := exec.Command(command, args...)
	cmd.Dir = workDir
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", command, err)
	}

	client := newClient(serverID, workDir)
	client.Cmd = cmd
	client.transport = newTransport(stdin, stdout, client.handleNotification, client.handleServerRequest)
	client.transport.start()

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			logging.Debug("LSP server stderr", "server", serverID, "line", scanner.Text())
		}
	}()

	go func() {
		err := cmd.Wait()
		if err != nil && !strings.Contains(err.Error(), "killed") {
			logging.Debug("LSP server exited", "server", serverID, "error", err)
		}
		close(client.exited)
	}()

	return client, nil
}

// newClient builds the client state without a process. Tests attach an
// in-memory transport directly.
func newClient(serverID, rootDir string) *Client {
	return &Client{
		serverID:        serverID,
		rootDir:         rootDir,
		exited:          make(chan struct{}),
		openFiles:       make(map[protocol.DocumentUri]*openFileInfo),
		diagnostics:     make(map[protocol.DocumentUri][]protocol.Diagnostic),
		diagnosticsWait: make(chan struct{}, 1),

		notificationHandlers: make(map[string]NotificationHandler),
	}
}

func (c *Client) ServerID() string { return c.serverID }
func (c *Client) Root() string     { return c.rootDir }

// SetExtensions records the file extensions this client's server handles;
// used by the manager and tool layer for routing.
func (c *Client) SetExtensions(exts []string) { c.extensions = exts }
func (c *Client) GetExtensions() []string     { return c.extensions }

// HandlesFile reports whether the file extension matches this client.
func (c *Client) HandlesFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(c.extensions, ext)
}

func (c *Client) GetServerState() ServerState  { return ServerState(c.state.Load()) }
func (c *Client) SetServerState(s ServerState) { c.state.Store(int32(s)) }

// Initialize performs the LSP handshake: the initialize request followed by
// the initialized notification. Calling it again after a successful or
// in-flight handshake is a no-op returning the cached result. On any failure
// the client transitions to StateError and the error is returned; the
// manager blacklists the server and never retries this client.
func (c *Client) Initialize(ctx context.Context, initOptions any) (*protocol.InitializeResult, error) {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	switch c.GetServerState() {
	case StateReady, StateStarting:
		return c.initResult, nil
	case StateError:
		return nil, fmt.Errorf("server %s is in error state", c.serverID)
	}

	c.SetServerState(StateStarting)

	rootURI := protocol.URIFromPath(c.rootDir)
	params := protocol.InitializeParams{
		ProcessID: int32(os.Getpid()),
		ClientInfo: &protocol.ClientInfo{
			Name: "quill",
		},
		RootPath:              c.rootDir,
		RootURI:               rootURI,
		InitializationOptions: initOptions,
		Capabilities: protocol.ClientCapabilities{
			Workspace: &protocol.WorkspaceClientCapabilities{
				Configuration:    true,
				WorkspaceFolders: true,
				Symbol:           &protocol.WorkspaceSymbolClientCapabilities{},
			},
			TextDocument: &protocol.TextDocumentClientCapabilities{
				Synchronization: &protocol.TextDocumentSyncClientCapabilities{
					DidSave: true,
				},
				PublishDiagnostics: &protocol.PublishDiagnosticsClientCapabilities{
					RelatedInformation: true,
					VersionSupport:     true,
				},
			},
		},
		WorkspaceFolders: []protocol.WorkspaceFolder{
			{URI: rootURI, Name: filepath.Base(c.rootDir)},
		},
	}

	var result protocol.InitializeResult
	if err := c.transport.Call(ctx, "initialize", params, &result); err != nil {
		c.SetServerState(StateError)
		return nil, fmt.Errorf("initialize handshake with %s: %w", c.serverID, err)
	}

	if err := c.transport.Notify("initialized", protocol.InitializedParams{}); err != nil {
		c.SetServerState(StateError)
		return nil, fmt.Errorf("initialized notification to %s: %w", c.serverID, err)
	}

	c.initResult = &result
	c.SetServerState(StateReady)
	logging.Debug("LSP server initialized", "server", c.serverID, "root", c.rootDir)
	return c.initResult, nil
}

// IsAlive reports whether the underlying server process is still running.
func (c *Client) IsAlive() bool {
	if c.Cmd == nil {
		// In-memory transport (tests).
		return !c.transport.closed.Load()
	}
	select {
	case <-c.exited:
		return false
	default:
		return !c.transport.closed.Load()
	}
}

// Shutdown performs the polite LSP teardown: a shutdown request with a short
// timeout, an exit notification, then unconditional transport stop and
// process kill.
func (c *Client) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.transport.Call(shutdownCtx, "shutdown", nil, nil); err != nil {
		logging.Debug("LSP shutdown request failed", "server", c.serverID, "error", err)
	}
	if err := c.transport.Notify("exit", nil); err != nil {
		logging.Debug("LSP exit notification failed", "server", c.serverID, "error", err)
	}

	return c.Close()
}

// Close force-terminates the connection: stops the transport and kills the
// process if it is still running. Pending requests fail immediately.
func (c *Client) Close() error {
	c.transport.stop()
	if c.Cmd != nil && c.Cmd.Process != nil {
		select {
		case <-c.exited:
			// Already gone.
		default:
			if err := c.Cmd.Process.Kill(); err != nil && !strings.Contains(err.Error(), "already finished") {
				return fmt.Errorf("killing %s: %w", c.serverID, err)
			}
		}
	}
	return nil
}

// --- document synchronization ---

// OpenFile sends didOpen with the file's current content at version 1.
// Opening an already-open file is a no-op.
func (c *Client) OpenFile(ctx context.Context, filePath string) error {
	uri := protocol.URIFromPath(filePath)

	c.openFilesMu.Lock()
	if _, open := c.openFiles[uri]; open {
		c.openFilesMu.Unlock()
		return nil
	}
	c.openFiles[uri] = &openFileInfo{version: 1, uri: uri}
	c.openFilesMu.Unlock()

	content, err := os.ReadFile(filePath)
	if err != nil {
		c.openFilesMu.Lock()
		delete(c.openFiles, uri)
		c.openFilesMu.Unlock()
		return fmt.Errorf("reading %s: %w", filePath, err)
	}

	return c.transport.Notify("textDocument/didOpen", protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: DetectLanguageID(filePath),
			Version:    1,
			Text:       string(content),
		},
	})
}

// NotifyChange sends didChange with the file's full current content as a
// single change. The document version is monotonic per URI; a change for a
// never-opened document starts counting from zero.
func (c *Client) NotifyChange(ctx context.Context, filePath string) error {
	uri := protocol.URIFromPath(filePath)

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filePath, err)
	}

	c.openFilesMu.Lock()
	info, ok := c.openFiles[uri]
	if !ok {
		info = &openFileInfo{uri: uri}
		c.openFiles[uri] = info
	}
	info.version++
	version := info.version
	c.openFilesMu.Unlock()

	return c.transport.Notify("textDocument/didChange", protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                version,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{
			{Text: string(content)},
		},
	})
}

// SaveFile sends didSave for an open document.
func (c *Client) SaveFile(ctx context.Context, filePath string) error {
	uri := protocol.URIFromPath(filePath)
	if !c.IsFileOpen(filePath) {
		return nil
	}
	return c.transport.Notify("textDocument/didSave", protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
}

// CloseFile sends didClose and forgets the tracked document version. The
// cached diagnostics are kept until the connection itself is discarded.
func (c *Client) CloseFile(ctx context.Context, filePath string) error {
	uri := protocol.URIFromPath(filePath)

	c.openFilesMu.Lock()
	_, open := c.openFiles[uri]
	delete(c.openFiles, uri)
	c.openFilesMu.Unlock()

	if !open {
		return nil
	}
	return c.transport.Notify("textDocument/didClose", protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
}

// IsFileOpen reports whether didOpen has been sent (and didClose has not)
// for the given path.
func (c *Client) IsFileOpen(filePath string) bool {
	uri := protocol.URIFromPath(filePath)
	c.openFilesMu.RLock()
	defer c.openFilesMu.RUnlock()
	_, open := c.openFiles[uri]
	return open
}

// OpenFileCount reports the number of tracked open documents.
func (c *Client) OpenFileCount() int {
	c.openFilesMu.RLock()
	defer c.openFilesMu.RUnlock()
	return len(c.openFiles)
}

// --- diagnostics cache ---

// GetDiagnostics returns a copy of the diagnostics cache for all documents.
func (c *Client) GetDiagnostics() map[protocol.DocumentUri][]protocol.Diagnostic {
	c.diagnosticsMu.RLock()
	defer c.diagnosticsMu.RUnlock()
	out := make(map[protocol.DocumentUri][]protocol.Diagnostic, len(c.diagnostics))
	for uri, diags := range c.diagnostics {
		out[uri] = slices.Clone(diags)
	}
	return out
}

// GetFileDiagnostics returns the cached diagnostics for one document.
func (c *Client) GetFileDiagnostics(uri protocol.DocumentUri) []protocol.Diagnostic {
	c.diagnosticsMu.RLock()
	defer c.diagnosticsMu.RUnlock()
	return slices.Clone(c.diagnostics[uri])
}

// WaitForDiagnostics blocks until the next diagnostics publish from this
// server, the timeout elapses, or the context is canceled. The gate is
// single-shot: one waiter at a time is supported, and a second concurrent
// call is undefined if a publish lands between them. Callers in this repo
// never wait concurrently on the same client.
func (c *Client) WaitForDiagnostics(ctx context.Context, timeout time.Duration) {
	// Drain a stale release from a publish nobody waited for, so this call
	// observes the next publish rather than a past one.
	select {
	case <-c.diagnosticsWait:
	default:
	}

	select {
	case <-c.diagnosticsWait:
	case <-time.After(timeout):
	case <-ctx.Done():
	}
}
