package lsp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-ai/quill/internal/config"
	"github.com/quill-ai/quill/internal/lsp/install"
)

func managerConfig() *config.Config {
	return &config.Config{
		WorkingDir:           "/tmp",
		LSP:                  map[string]config.LSPConfig{},
		LSPDiagnosticTimeout: 100,
	}
}

// fakeSpawner stands in for process creation: it hands out ready in-memory
// clients and counts attempts.
type fakeSpawner struct {
	t        *testing.T
	attempts atomic.Int32
	fail     bool
	servers  []*fakeServer
}

func (f *fakeSpawner) spawn(ctx context.Context, def *install.ServerDefinition, root string) (*Client, error) {
	f.attempts.Add(1)
	if f.fail {
		return nil, errors.New("binary not found")
	}
	client, server := newTestClient(f.t, root)
	client.serverID = def.ID
	client.SetExtensions(def.Extensions)
	client.SetServerState(StateReady)
	f.servers = append(f.servers, server)
	return client, nil
}

func newTestManager(t *testing.T, cfg *config.Config) (*Manager, *fakeSpawner) {
	t.Helper()
	spawner := &fakeSpawner{t: t}
	m := NewManager(cfg)
	m.start = spawner.spawn
	return m, spawner
}

// goProject creates a directory with a go.mod marker and one source file.
func goProject(t *testing.T, name string) (root, file string) {
	t.Helper()
	root = filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "internal"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/"+name+"\n"), 0o644))
	file = filepath.Join(root, "internal", "main.go")
	require.NoError(t, os.WriteFile(file, []byte("package main\n"), 0o644))
	return root, file
}

func TestManagerReusesClientPerRoot(t *testing.T) {
	m, spawner := newTestManager(t, managerConfig())
	root, file := goProject(t, "proj")
	other := filepath.Join(root, "other.go")
	require.NoError(t, os.WriteFile(other, []byte("package main\n"), 0o644))

	first := m.GetClient(context.Background(), file)
	require.NotNil(t, first)
	assert.Equal(t, root, first.Root())

	// A second file under the same detected root shares the connection.
	second := m.GetClient(context.Background(), other)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), spawner.attempts.Load())
	assert.Equal(t, 1, m.serverCount())
}

func TestManagerSeparateRootsSeparateClients(t *testing.T) {
	m, spawner := newTestManager(t, managerConfig())
	_, fileA := goProject(t, "proj-a")
	_, fileB := goProject(t, "proj-b")

	a := m.GetClient(context.Background(), fileA)
	b := m.GetClient(context.Background(), fileB)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.NotSame(t, a, b)
	assert.Equal(t, int32(2), spawner.attempts.Load())
	assert.Equal(t, 2, m.serverCount())
}

func TestManagerBlacklistsFailedServer(t *testing.T) {
	m, spawner := newTestManager(t, managerConfig())
	spawner.fail = true
	_, file := goProject(t, "proj")

	require.Nil(t, m.GetClient(context.Background(), file))
	assert.Equal(t, int32(1), spawner.attempts.Load())

	// Every later lookup short-circuits: one failure, zero retries.
	for i := 0; i < 10; i++ {
		require.Nil(t, m.GetClient(context.Background(), file))
	}
	assert.Equal(t, int32(1), spawner.attempts.Load())
}

func TestManagerDiscardsDeadClient(t *testing.T) {
	m, spawner := newTestManager(t, managerConfig())
	_, file := goProject(t, "proj")

	first := m.GetClient(context.Background(), file)
	require.NotNil(t, first)

	// Kill the connection; the next lookup must spawn a replacement rather
	// than hand back the corpse.
	first.transport.stop()
	require.False(t, first.IsAlive())

	second := m.GetClient(context.Background(), file)
	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), spawner.attempts.Load())
	assert.Equal(t, 1, m.serverCount())
}

func TestManagerDisabledLSP(t *testing.T) {
	cfg := managerConfig()
	cfg.DisableLSP = true
	m, spawner := newTestManager(t, cfg)
	_, file := goProject(t, "proj")

	assert.Nil(t, m.GetClient(context.Background(), file))
	assert.Equal(t, int32(0), spawner.attempts.Load())
}

func TestManagerDisabledServer(t *testing.T) {
	cfg := managerConfig()
	cfg.LSP["gopls"] = config.LSPConfig{Disabled: true}
	m, spawner := newTestManager(t, cfg)
	_, file := goProject(t, "proj")

	assert.Nil(t, m.GetClient(context.Background(), file))
	assert.Equal(t, int32(0), spawner.attempts.Load())
}

func TestManagerUnsupportedFileType(t *testing.T) {
	m, spawner := newTestManager(t, managerConfig())

	assert.Nil(t, m.GetClient(context.Background(), "/tmp/data.xyz123"))
	assert.Nil(t, m.GetClient(context.Background(), "/tmp/LICENSE"))
	assert.Equal(t, int32(0), spawner.attempts.Load())
}

func TestManagerTouchFileOpensThenChanges(t *testing.T) {
	m, spawner := newTestManager(t, managerConfig())
	_, file := goProject(t, "proj")

	require.NotNil(t, m.GetClient(context.Background(), file))
	server := spawner.servers[0]

	methods := make(chan string, 4)
	go func() {
		for i := 0; i < 3; i++ {
			methods <- server.readMessage().Method
		}
	}()

	m.TouchFile(context.Background(), file, false)
	assert.Equal(t, "textDocument/didOpen", <-methods)

	m.TouchFile(context.Background(), file, false)
	assert.Equal(t, "textDocument/didChange", <-methods)
	assert.Equal(t, "textDocument/didSave", <-methods)
}

func TestManagerTouchFileUnsupported(t *testing.T) {
	m, _ := newTestManager(t, managerConfig())
	assert.Empty(t, m.TouchFile(context.Background(), "/tmp/notes.xyz123", true))
}

func TestManagerClientsForFile(t *testing.T) {
	m, _ := newTestManager(t, managerConfig())
	_, file := goProject(t, "proj")

	require.NotNil(t, m.GetClient(context.Background(), file))

	assert.Len(t, m.ClientsForFile(file), 1)
	assert.Empty(t, m.ClientsForFile("/tmp/script.py"))
}

func TestManagerOnClientCreated(t *testing.T) {
	m, _ := newTestManager(t, managerConfig())
	_, file := goProject(t, "proj")

	var created []*Client
	m.OnClientCreated(func(c *Client) { created = append(created, c) })

	client := m.GetClient(context.Background(), file)
	require.NotNil(t, client)
	require.Len(t, created, 1)
	assert.Same(t, client, created[0])

	// Reuse does not fire the callback again.
	m.GetClient(context.Background(), file)
	assert.Len(t, created, 1)
}

func TestManagerConcurrentLookupsSpawnOnce(t *testing.T) {
	m, spawner := newTestManager(t, managerConfig())
	_, file := goProject(t, "proj")

	const lookups = 10
	clients := make([]*Client, lookups)
	var wg sync.WaitGroup
	for i := 0; i < lookups; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			clients[i] = m.GetClient(context.Background(), file)
		}()
	}
	wg.Wait()

	// Racing lookups for the same key must collapse onto one process.
	assert.Equal(t, int32(1), spawner.attempts.Load())
	assert.Equal(t, 1, m.serverCount())
	for _, c := range clients {
		require.NotNil(t, c)
		assert.Same(t, clients[0], c)
	}
}

func TestManagerCreatedHookMayCallBack(t *testing.T) {
	m, _ := newTestManager(t, managerConfig())
	_, file := goProject(t, "proj")

	// The hook re-enters the manager; it must not deadlock against the pool
	// lock held during GetClient.
	var seen []*Client
	m.OnClientCreated(func(c *Client) {
		seen = m.ClientsForFile(file)
		m.Clients()
	})

	client := m.GetClient(context.Background(), file)
	require.NotNil(t, client)
	require.Len(t, seen, 1)
	assert.Same(t, client, seen[0])
}

func TestManagerCustomServerShadowsBuiltin(t *testing.T) {
	cfg := managerConfig()
	cfg.LSP["gopls"] = config.LSPConfig{Command: "/custom/gopls", RootMarkers: []string{"go.mod"}}
	m, spawner := newTestManager(t, cfg)
	_, file := goProject(t, "proj")

	client := m.GetClient(context.Background(), file)
	require.NotNil(t, client)
	assert.Equal(t, "gopls", client.ServerID())
	assert.Equal(t, int32(1), spawner.attempts.Load())
}
