package lsp

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/quill-ai/quill/internal/config"
	"github.com/quill-ai/quill/internal/logging"
	"github.com/quill-ai/quill/internal/lsp/install"
	"github.com/quill-ai/quill/internal/lsp/protocol"
)

const initializeTimeout = 30 * time.Second

// spawnFunc creates and initializes a client for a definition rooted at root.
// Swapped out in tests to avoid real processes.
type spawnFunc func(ctx context.Context, def *install.ServerDefinition, root string) (*Client, error)

// Manager owns the pool of language server connections. Connections are
// keyed by (server id, project root), created lazily on first lookup, and
// reused across files that resolve to the same key. A server id whose spawn
// or handshake ever fails is blacklisted for the life of the process.
type Manager struct {
	cfg     *config.Config
	catalog *install.Catalog

	// mu guards clients and blacklist. The check-then-create in GetClient
	// holds it across the whole spawn so concurrent lookups for the same key
	// cannot race two processes into existence.
	mu        sync.Mutex
	clients   map[string]*Client
	blacklist map[string]struct{}

	createdMu  sync.Mutex
	createdFns []func(*Client)

	start spawnFunc
}

// NewManager builds a manager over the given configuration. Server
// definitions are resolved once, at construction.
func NewManager(cfg *config.Config) *Manager {
	m := &Manager{
		cfg:       cfg,
		catalog:   install.NewCatalog(cfg),
		clients:   make(map[string]*Client),
		blacklist: make(map[string]struct{}),
	}
	m.start = m.spawn
	return m
}

func poolKey(serverID, root string) string {
	return serverID + "\x00" + root
}

// GetClient returns a ready client for the file's language, spawning one if
// needed. It returns nil (not an error) when LSP is disabled, the file type
// is unsupported, or the server is blacklisted; callers treat nil as "no
// language intelligence available".
func (m *Manager) GetClient(ctx context.Context, filePath string) *Client {
	if m.cfg.DisableLSP {
		return nil
	}

	def := m.catalog.ServerForFile(filePath)
	if def == nil {
		return nil
	}

	root := install.DetectRoot(filepath.Dir(filePath), def.RootMarkers)
	key := poolKey(def.ID, root)

	m.mu.Lock()

	if _, banned := m.blacklist[def.ID]; banned {
		m.mu.Unlock()
		return nil
	}

	if client, ok := m.clients[key]; ok {
		if client.IsAlive() {
			m.mu.Unlock()
			return client
		}
		// Dead process: discard, never restart in place.
		logging.Debug("Discarding dead LSP client", "server", def.ID, "root", root)
		client.Close()
		delete(m.clients, key)
	}

	spawnCtx, cancel := context.WithTimeout(ctx, initializeTimeout)
	defer cancel()

	client, err := m.start(spawnCtx, def, root)
	if err != nil {
		m.blacklist[def.ID] = struct{}{}
		m.mu.Unlock()
		logging.Warn("LSP server unavailable, disabling for this session", "server", def.ID, "error", err)
		return nil
	}

	m.clients[key] = client
	m.mu.Unlock()

	// Fired outside the pool lock so a hook may call back into the manager.
	m.notifyCreated(client)
	return client
}

// spawn resolves the server binary, launches the process, and runs the
// initialize handshake.
func (m *Manager) spawn(ctx context.Context, def *install.ServerDefinition, root string) (*Client, error) {
	command, args, err := install.ResolveCommand(ctx, *def, m.cfg.DisableLSPDownload)
	if err != nil {
		return nil, err
	}

	client, err := NewClient(ctx, def.ID, command, def.Env, root, args...)
	if err != nil {
		return nil, err
	}
	client.SetExtensions(def.Extensions)
	client.transport.debugWire = m.cfg.DebugLSP

	if _, err := client.Initialize(ctx, def.Initialization); err != nil {
		client.Close()
		return nil, err
	}

	logging.Info("LSP server started", "server", def.ID, "root", root)
	return client, nil
}

// TouchFile tells the file's server about the current on-disk content: didOpen
// on first contact, didChange plus didSave afterwards. When wait is true it
// blocks for the next diagnostics publish (bounded by the configured timeout)
// and returns the file's diagnostics. Errors degrade to an empty result.
func (m *Manager) TouchFile(ctx context.Context, filePath string, wait bool) []protocol.Diagnostic {
	client := m.GetClient(ctx, filePath)
	if client == nil {
		return nil
	}

	var err error
	if client.IsFileOpen(filePath) {
		if err = client.NotifyChange(ctx, filePath); err == nil {
			err = client.SaveFile(ctx, filePath)
		}
	} else {
		err = client.OpenFile(ctx, filePath)
	}
	if err != nil {
		logging.Debug("LSP document sync failed", "server", client.ServerID(), "file", filePath, "error", err)
		return nil
	}

	if wait {
		timeout := time.Duration(m.cfg.LSPDiagnosticTimeout) * time.Millisecond
		client.WaitForDiagnostics(ctx, timeout)
	}

	return client.GetFileDiagnostics(protocol.URIFromPath(filePath))
}

// Clients returns a snapshot of the pool keyed by server id. When the same
// server runs for several roots, the map holds one of them.
func (m *Manager) Clients() map[string]*Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*Client, len(m.clients))
	for _, client := range m.clients {
		out[client.ServerID()] = client
	}
	return out
}

// ClientsForFile returns the live pooled clients whose extension set covers
// the file. It never spawns.
func (m *Manager) ClientsForFile(filePath string) []*Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Client
	for _, client := range m.clients {
		if client.HandlesFile(filePath) {
			out = append(out, client)
		}
	}
	return out
}

// OnClientCreated registers a callback invoked once for every client the
// manager creates, after its handshake succeeds. Used to attach workspace
// watchers.
func (m *Manager) OnClientCreated(fn func(*Client)) {
	m.createdMu.Lock()
	defer m.createdMu.Unlock()
	m.createdFns = append(m.createdFns, fn)
}

func (m *Manager) notifyCreated(client *Client) {
	m.createdMu.Lock()
	fns := make([]func(*Client), len(m.createdFns))
	copy(fns, m.createdFns)
	m.createdMu.Unlock()
	for _, fn := range fns {
		fn(client)
	}
}

// FormatDiagnostics renders all cached diagnostics relative to the file,
// in the tool-output shape.
func (m *Manager) FormatDiagnostics(filePath string) string {
	return FormatDiagnostics(filePath, m.Clients())
}

// Shutdown tears down every pooled connection. Per-client failures are
// logged and swallowed so one stuck server cannot block the rest.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]*Client)
	m.mu.Unlock()

	for key, client := range clients {
		if err := client.Shutdown(ctx); err != nil {
			logging.Debug("LSP client shutdown failed", "client", key, "error", err)
		}
	}
}

// serverCount reports pooled connections; used by tests.
func (m *Manager) serverCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}
