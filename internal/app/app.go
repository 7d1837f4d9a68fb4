package app

import (
	"context"
	"sync"
	"time"

	"github.com/quill-ai/quill/internal/config"
	"github.com/quill-ai/quill/internal/lsp"
)

// App wires the application's services together. The LSP manager is owned
// here and handed to whatever surface needs language intelligence.
type App struct {
	LSP lsp.Service

	watcherCancelFuncs []context.CancelFunc
	cancelFuncsMutex   sync.Mutex
	watcherWG          sync.WaitGroup
}

// New builds the application. Language servers are not started here; the
// manager spawns them lazily on first file contact, and each new client gets
// a workspace watcher attached.
func New(ctx context.Context, cfg *config.Config) *App {
	app := &App{}

	manager := lsp.NewManager(cfg)
	manager.OnClientCreated(func(client *lsp.Client) {
		app.startWorkspaceWatcher(ctx, client)
	})
	app.LSP = manager

	return app
}

// Shutdown stops the watchers, waits for them, then tears down every LSP
// connection.
func (app *App) Shutdown() {
	app.cancelFuncsMutex.Lock()
	for _, cancel := range app.watcherCancelFuncs {
		cancel()
	}
	app.cancelFuncsMutex.Unlock()
	app.watcherWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	app.LSP.Shutdown(shutdownCtx)
}
